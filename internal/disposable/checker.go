// Package disposable holds the process-wide denylist of disposable mailbox
// providers. The set is built once at init and only read afterwards.
package disposable

import "strings"

// IsDisposable returns whether the given domain is a known disposable domain.
func IsDisposable(domain string) bool {
	_, ok := disposableSet[strings.ToLower(strings.TrimSuffix(domain, "."))]
	return ok
}

// Len returns the number of domains on the list.
func Len() int {
	return len(disposableSet)
}
