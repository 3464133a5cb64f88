package check

import (
	"strings"

	"github.com/optimode/mailprobe/internal/disposable"
	"github.com/optimode/mailprobe/internal/levenshtein"
	"github.com/optimode/mailprobe/internal/rolename"
)

// DefaultTypoThreshold is the largest edit distance SuggestDomain reports.
const DefaultTypoThreshold = 2

// knownProviders are the major mailbox providers used for typo suggestions.
var knownProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk", "yahoo.fr", "yahoo.de",
	"outlook.com", "hotmail.com", "hotmail.co.uk", "live.com",
	"icloud.com", "me.com", "mac.com",
	"protonmail.com", "proton.me",
	"aol.com",
	"zoho.com",
	"yandex.com", "yandex.ru",
	"mail.com",
	"gmx.com", "gmx.net", "gmx.de",
	"fastmail.com",
}

// commonProviders are the large consumer providers whose catch-all
// behaviour gets its own issue line.
var commonProviders = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"outlook.com": {},
	"hotmail.com": {},
	"aol.com":     {},
}

// IsDisposable reports whether domain is on the disposable provider list.
func IsDisposable(domain string) bool {
	return disposable.IsDisposable(domain)
}

// IsRoleBased reports whether the local part of address is a generic role
// name such as admin or support, or starts with "<role>.".
func IsRoleBased(address string) bool {
	local := address
	if i := strings.LastIndex(address, "@"); i >= 0 {
		local = address[:i]
	}
	return rolename.Match(local)
}

// IsCommonProvider reports whether domain is one of the big consumer providers.
func IsCommonProvider(domain string) bool {
	_, ok := commonProviders[strings.ToLower(domain)]
	return ok
}

// SuggestDomain returns the closest known provider within threshold edits,
// or "" when domain is itself a known provider or nothing is close enough.
// Pass the display (Unicode) form so IDN typos compare rune by rune.
func SuggestDomain(domain string, threshold int) string {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))

	best, bestDist := "", threshold+1
	for _, p := range knownProviders {
		if domain == p {
			return ""
		}
		if d, ok := levenshtein.Within(domain, p, threshold); ok && d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}
