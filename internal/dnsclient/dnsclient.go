// Package dnsclient performs the A and MX queries the verification pipeline
// needs and reduces every failure to one of a few well-known kinds, so callers
// can tell a nonexistent domain from a slow resolver.
package dnsclient

import (
	"context"
	"errors"
	"net"

	"github.com/optimode/mailprobe/types"
)

var (
	// ErrNotFound is returned when the domain does not exist (NXDOMAIN).
	ErrNotFound = errors.New("dns: domain does not exist")
	// ErrNoAnswer is returned when the domain exists but has no record of the requested type.
	ErrNoAnswer = errors.New("dns: no records of requested type")
	// ErrTimeout is returned when no nameserver answered in time.
	ErrTimeout = errors.New("dns: lookup timed out")
)

// KindOf maps an error returned by this package (or by a context) to a DNSErrorKind.
func KindOf(err error) types.DNSErrorKind {
	if err == nil {
		return types.DNSErrNone
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return types.DNSErrNXDomain
	case errors.Is(err, ErrNoAnswer):
		return types.DNSErrNoAnswer
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return types.DNSErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return types.DNSErrTimeout
	}
	return types.DNSErrOther
}
