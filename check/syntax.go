package check

import (
	"regexp"
	"strings"

	"github.com/optimode/mailprobe/internal/parse"
)

const (
	maxAddressLen = 254
	maxLocalLen   = 64
)

var (
	localPattern = regexp.MustCompile("^[A-Za-z0-9.!#$%&'*+/=?^_`{|}~-]+$")
	labelPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
	tldPattern   = regexp.MustCompile(`^(?:[a-z]{2,63}|xn--[a-z0-9-]{1,59})$`)
)

// ValidateSyntax reports whether address matches local@label(.label)*.tld.
// Internationalized domains are checked in their Punycode form.
// It never touches the network.
func ValidateSyntax(address string) bool {
	return ValidAddress(parse.NewAddress(address))
}

// ValidAddress is ValidateSyntax for an already split address.
func ValidAddress(a parse.Address) bool {
	if !a.Valid {
		return false
	}
	if len(a.Local)+1+len(a.Domain) > maxAddressLen || len(a.Local) > maxLocalLen {
		return false
	}
	if !localPattern.MatchString(a.Local) {
		return false
	}
	return validDomain(a.Domain)
}

// validDomain expects the lower-case ASCII form produced by parse.
func validDomain(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if !labelPattern.MatchString(l) {
			return false
		}
	}
	return tldPattern.MatchString(labels[len(labels)-1])
}
