package dnsclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

// Config contains configuration for the DNS client.
type Config struct {
	// Nameservers is a list of DNS servers to query (e.g., "8.8.8.8:53").
	// If empty, system resolvers from /etc/resolv.conf are used,
	// falling back to public DNS (8.8.8.8, 1.1.1.1).
	Nameservers []string

	// Timeout bounds each individual exchange with a nameserver. Default is 5 seconds.
	Timeout time.Duration
}

// Client queries nameservers directly with github.com/miekg/dns.
// Unlike the stdlib resolver it sees the response code, so NXDOMAIN and
// an empty NOERROR answer are reported as different errors.
type Client struct {
	cfg Config
	udp *mdns.Client
	tcp *mdns.Client
}

// New creates a DNS client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if len(cfg.Nameservers) == 0 {
		cfg.Nameservers = systemNameservers()
	} else {
		cfg.Nameservers = append([]string(nil), cfg.Nameservers...)
	}
	for i, s := range cfg.Nameservers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			cfg.Nameservers[i] = net.JoinHostPort(s, "53")
		}
	}
	return &Client{
		cfg: cfg,
		udp: &mdns.Client{Net: "udp", Timeout: cfg.Timeout},
		tcp: &mdns.Client{Net: "tcp", Timeout: cfg.Timeout},
	}
}

// Nameservers returns the servers the client queries, in order.
func (c *Client) Nameservers() []string {
	return append([]string(nil), c.cfg.Nameservers...)
}

// systemNameservers reads /etc/resolv.conf, falling back to public resolvers.
func systemNameservers() []string {
	conf, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}
	return servers
}

// LookupA returns the IPv4 addresses of domain.
func (c *Client) LookupA(ctx context.Context, domain string) ([]net.IP, error) {
	resp, err := c.query(ctx, domain, mdns.TypeA)
	if err != nil {
		return nil, err
	}
	var ips []net.IP
	for _, rr := range resp.Answer {
		if a, ok := rr.(*mdns.A); ok {
			ips = append(ips, a.A)
		}
	}
	if len(ips) == 0 {
		return nil, ErrNoAnswer
	}
	return ips, nil
}

// LookupMX returns the MX records of domain in answer order.
func (c *Client) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	resp, err := c.query(ctx, domain, mdns.TypeMX)
	if err != nil {
		return nil, err
	}
	var records []*net.MX
	for _, rr := range resp.Answer {
		if mx, ok := rr.(*mdns.MX); ok {
			records = append(records, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}
	if len(records) == 0 {
		return nil, ErrNoAnswer
	}
	return records, nil
}

// query asks each nameserver in turn until one gives a definitive answer.
// A definitive answer (NOERROR or NXDOMAIN) is never asked again.
func (c *Client) query(ctx context.Context, name string, qtype uint16) (*mdns.Msg, error) {
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range c.cfg.Nameservers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}

		resp, _, err := c.udp.ExchangeContext(ctx, m, server)
		if err == nil && resp.Truncated {
			resp, _, err = c.tcp.ExchangeContext(ctx, m, server)
		}
		if err != nil {
			lastErr = classifyExchangeErr(err)
			continue
		}

		switch resp.Rcode {
		case mdns.RcodeSuccess:
			return resp, nil
		case mdns.RcodeNameError:
			return nil, ErrNotFound
		default:
			lastErr = fmt.Errorf("dns: %s from %s", rcodeName(resp.Rcode), server)
		}
	}

	if lastErr == nil {
		lastErr = errors.New("dns: no nameservers configured")
	}
	return nil, lastErr
}

func classifyExchangeErr(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("dns query failed: %w", err)
}

func rcodeName(rcode int) string {
	if s, ok := mdns.RcodeToString[rcode]; ok {
		return strings.ToUpper(s)
	}
	return fmt.Sprintf("rcode %d", rcode)
}
