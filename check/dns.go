package check

import (
	"cmp"
	"context"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/optimode/mailprobe/internal/dnscache"
	"github.com/optimode/mailprobe/internal/dnsclient"
	"github.com/optimode/mailprobe/types"
)

// Errors a custom Resolver returns, possibly wrapped, so that failures are
// classified.
var (
	ErrDomainNotFound = dnsclient.ErrNotFound
	ErrNoRecords      = dnsclient.ErrNoAnswer
	ErrLookupTimeout  = dnsclient.ErrTimeout
)

// Resolver performs the two lookups the pipeline needs. Errors should be
// classifiable with dnsclient.KindOf; both dnsclient.Client and
// dnsclient.Std satisfy this.
type Resolver interface {
	LookupA(ctx context.Context, domain string) ([]net.IP, error)
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// DNSChecker runs the A and MX stages.
type DNSChecker struct {
	resolver Resolver
	cache    *dnscache.Cache // nil disables caching
}

// NewDNSChecker creates a DNS stage on top of r. cache may be nil.
func NewDNSChecker(r Resolver, cache *dnscache.Cache) *DNSChecker {
	return &DNSChecker{resolver: r, cache: cache}
}

// CheckDomainExists looks up the A records of domain.
// The lookup is abandoned when timeout elapses even if the resolver
// ignores its context.
func (c *DNSChecker) CheckDomainExists(ctx context.Context, domain string, timeout time.Duration) types.DNSOutcome {
	load := func() (types.DNSOutcome, bool) {
		ips, err := lookupWithin(ctx, timeout, func(ctx context.Context) ([]net.IP, error) {
			return c.resolver.LookupA(ctx, domain)
		})
		out := addressOutcome(ips, err)
		return out, cacheable(out.ErrorKind)
	}
	if c.cache == nil {
		out, _ := load()
		return out
	}
	out, cached := dnscache.Do(c.cache, "a "+strings.ToLower(domain), load)
	out.Cached = cached
	return out
}

// ResolveMailExchangers looks up the MX records of domain and returns the
// hosts ordered by ascending preference.
func (c *DNSChecker) ResolveMailExchangers(ctx context.Context, domain string, timeout time.Duration) types.MXOutcome {
	load := func() (types.MXOutcome, bool) {
		mxs, err := lookupWithin(ctx, timeout, func(ctx context.Context) ([]*net.MX, error) {
			return c.resolver.LookupMX(ctx, domain)
		})
		out := exchangerOutcome(mxs, err)
		return out, cacheable(out.ErrorKind)
	}
	if c.cache == nil {
		out, _ := load()
		return out
	}
	out, cached := dnscache.Do(c.cache, "mx "+strings.ToLower(domain), load)
	out.Cached = cached
	return out
}

func addressOutcome(ips []net.IP, err error) types.DNSOutcome {
	if err == nil && len(ips) == 0 {
		err = dnsclient.ErrNoAnswer
	}
	if err == nil {
		return types.DNSOutcome{Resolved: true}
	}

	kind := dnsclient.KindOf(err)
	out := types.DNSOutcome{ErrorKind: kind}
	switch kind {
	case types.DNSErrNXDomain:
		out.Err = "Domain does not exist"
	case types.DNSErrNoAnswer:
		out.Err = "Domain has no DNS records"
	case types.DNSErrTimeout:
		out.Err = "DNS lookup timeout"
	default:
		out.Err = fmt.Sprintf("DNS error: %v", err)
	}
	return out
}

func exchangerOutcome(mxs []*net.MX, err error) types.MXOutcome {
	if err != nil {
		kind := dnsclient.KindOf(err)
		out := types.MXOutcome{ErrorKind: kind}
		switch kind {
		case types.DNSErrNXDomain:
			out.Err = "Domain does not exist"
		case types.DNSErrNoAnswer:
			out.Err = "No MX records found"
		case types.DNSErrTimeout:
			out.Err = "MX lookup timeout"
		default:
			out.Err = fmt.Sprintf("MX lookup error: %v", err)
		}
		return out
	}

	sorted := slices.Clone(mxs)
	slices.SortStableFunc(sorted, func(a, b *net.MX) int {
		return cmp.Compare(a.Pref, b.Pref)
	})
	hosts := make([]string, 0, len(sorted))
	for _, mx := range sorted {
		// A null MX (RFC 7505) leaves an empty host.
		if h := strings.TrimSuffix(mx.Host, "."); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		return types.MXOutcome{ErrorKind: types.DNSErrNoAnswer, Err: "No mail servers configured"}
	}
	return types.MXOutcome{HasMX: true, Hosts: hosts}
}

// cacheable keeps transient failures out of the cache.
func cacheable(kind types.DNSErrorKind) bool {
	switch kind {
	case types.DNSErrNone, types.DNSErrNXDomain, types.DNSErrNoAnswer:
		return true
	}
	return false
}

// lookupWithin runs fn under timeout and returns dnsclient.ErrTimeout as soon
// as the deadline passes, leaving a stuck fn to finish on its own.
func lookupWithin[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", dnsclient.ErrTimeout, ctx.Err())
	}
}
