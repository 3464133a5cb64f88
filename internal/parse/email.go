package parse

import (
	"strings"

	"golang.org/x/net/idna"
)

// Address is the split form of an email address.
// The check/ package and the pipeline receive this as parameter.
type Address struct {
	Raw           string // the original, trimmed input
	Local         string // the part before the last @
	Domain        string // lower-case ASCII/Punycode form (for DNS, SMTP and comparisons)
	DomainDisplay string // as typed, Unicode form (for display)
	Valid         bool   // false if Raw has no usable local@domain shape
}

// NewAddress splits the given address at its last @.
// If splitting fails, Valid=false but Raw is always populated.
// Internationalized domain names (IDNA2008) are converted to Punycode
// in Domain and kept readable in DomainDisplay.
func NewAddress(raw string) Address {
	raw = strings.TrimSpace(raw)

	atIdx := strings.LastIndex(raw, "@")
	if atIdx < 1 || atIdx >= len(raw)-1 {
		return Address{Raw: raw, Valid: false}
	}
	local := raw[:atIdx]
	domain := raw[atIdx+1:]

	ascii, display, ok := convertDomain(domain)
	if !ok {
		return Address{Raw: raw, Local: local, Valid: false}
	}

	return Address{
		Raw:           raw,
		Local:         local,
		Domain:        ascii,
		DomainDisplay: display,
		Valid:         true,
	}
}

// String returns local@domain using the ASCII domain form.
func (a Address) String() string {
	if !a.Valid {
		return a.Raw
	}
	return a.Local + "@" + a.Domain
}

// convertDomain converts a domain to its lower-case ASCII/Punycode form
// and a display form. Returns (ascii, display, ok). ok is false if the
// domain contains non-ASCII characters that fail IDNA2008 validation.
func convertDomain(domain string) (ascii, display string, ok bool) {
	hasNonASCII := false
	for _, r := range domain {
		if r > 127 {
			hasNonASCII = true
			break
		}
	}

	if hasNonASCII {
		a, err := idna.Lookup.ToASCII(strings.ToLower(domain))
		if err != nil {
			return "", "", false
		}
		return a, domain, true
	}

	lower := strings.ToLower(domain)
	if !strings.Contains(lower, "xn--") {
		return lower, domain, true
	}

	// Existing Punycode (xn--mnchen-3ya.de) gets a readable display form.
	u, err := idna.Display.ToUnicode(lower)
	if err != nil {
		u = domain
	}
	return lower, u, true
}
