package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Std resolves through the standard library net package.
// The stdlib reports NXDOMAIN and an empty answer the same way, so Std
// returns ErrNotFound for both.
type Std struct {
	resolver *net.Resolver
}

// NewStd creates a resolver using net.DefaultResolver.
func NewStd() *Std {
	return &Std{resolver: net.DefaultResolver}
}

// LookupA returns the IPv4 addresses of domain.
func (r *Std) LookupA(ctx context.Context, domain string) ([]net.IP, error) {
	ips, err := r.resolver.LookupIP(ctx, "ip4", strings.TrimSuffix(domain, "."))
	if err != nil {
		return nil, convertError(err)
	}
	if len(ips) == 0 {
		return nil, ErrNoAnswer
	}
	return ips, nil
}

// LookupMX returns the MX records of domain.
func (r *Std) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	records, err := r.resolver.LookupMX(ctx, strings.TrimSuffix(domain, "."))
	if err != nil {
		return nil, convertError(err)
	}
	if len(records) == 0 {
		return nil, ErrNoAnswer
	}
	return records, nil
}

// convertError converts standard library DNS errors to package errors.
func convertError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return ErrNotFound
		}
		if dnsErr.IsTimeout {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
	}
	return fmt.Errorf("dns lookup failed: %w", err)
}
