package mailprobe

import (
	"time"

	"github.com/optimode/mailprobe/check"
)

// MaxBatchSize is the largest number of addresses Verify accepts at once.
const MaxBatchSize = 20

// DNSOptions configures the A and MX lookups.
type DNSOptions struct {
	// Timeout bounds each lookup. Default: 5s
	Timeout time.Duration
	// Nameservers to query, "host" or "host:port". Default: /etc/resolv.conf
	Nameservers []string
	// UseSystemResolver switches from direct queries to the Go resolver.
	// The Go resolver cannot tell NXDOMAIN from an empty answer.
	UseSystemResolver bool
	// CacheTTL enables caching of lookup outcomes across calls. Default: 0 (off)
	// Cached outcomes are flagged in Checks.DNSCached.
	CacheTTL time.Duration
}

func defaultDNSOptions() DNSOptions {
	return DNSOptions{
		Timeout: 5 * time.Second,
	}
}

// SMTPOptions configures the RCPT TO probe.
type SMTPOptions struct {
	// HeloDomain is the name sent in EHLO/HELO. Default: mail.verification-service.com
	HeloDomain string
	// MailFrom is the envelope sender. Default: verify@verification-service.com
	MailFrom string
	// Timeout bounds the whole probe of the real address. Default: 10s
	Timeout time.Duration
	// CatchAllTimeout bounds the synthetic catch-all probe. Default: 5s
	CatchAllTimeout time.Duration
	// Port is the SMTP port. Default: 25
	Port int
	// SOCKS5Proxy routes probes through a SOCKS5 proxy ("host:port"). Default: direct
	SOCKS5Proxy    string
	SOCKS5User     string
	SOCKS5Password string
}

func defaultSMTPOptions() SMTPOptions {
	return SMTPOptions{
		HeloDomain:      check.DefaultHeloDomain,
		MailFrom:        check.DefaultMailFrom,
		Timeout:         10 * time.Second,
		CatchAllTimeout: 5 * time.Second,
		Port:            check.DefaultSMTPPort,
	}
}

// ConcurrencyOptions configures the batch orchestrator.
type ConcurrencyOptions struct {
	// Workers is the number of addresses verified at the same time. Default: 5
	Workers int
	// ItemTimeout bounds DNS, SMTP and catch-all work for one address. Default: 30s
	ItemTimeout time.Duration
}

func defaultConcurrencyOptions() ConcurrencyOptions {
	return ConcurrencyOptions{
		Workers:     5,
		ItemTimeout: 30 * time.Second,
	}
}
