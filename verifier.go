package mailprobe

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/optimode/mailprobe/check"
	"github.com/optimode/mailprobe/internal/dnscache"
	"github.com/optimode/mailprobe/internal/dnsclient"
	"github.com/optimode/mailprobe/internal/metrics"
	"github.com/optimode/mailprobe/internal/smtpconn"
)

// Verifier is the main fluent builder struct.
// Instantiate with the New() function. Configure it before the first
// Verify call; a configured Verifier is safe for concurrent use.
type Verifier struct {
	dnsOpts  DNSOptions
	smtpOpts SMTPOptions
	conc     ConcurrencyOptions

	resolver       check.Resolver
	customResolver bool
	dial           smtpconn.DialFunc
	customDial     bool
	cache          *dnscache.Cache

	log     logrus.FieldLogger
	metrics *metrics.Metrics
	err     error // configuration error, returned on Verify()
}

// New creates a Verifier with the default DNS, SMTP and concurrency options.
// Logging is discarded and no metrics are recorded until configured.
func New() *Verifier {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	v := &Verifier{
		dnsOpts:  defaultDNSOptions(),
		smtpOpts: defaultSMTPOptions(),
		conc:     defaultConcurrencyOptions(),
		dial:     smtpconn.DefaultDial,
		log:      silent,
	}
	v.resolver = newResolver(v.dnsOpts)
	return v
}

func newResolver(o DNSOptions) check.Resolver {
	if o.UseSystemResolver {
		return dnsclient.NewStd()
	}
	return dnsclient.New(dnsclient.Config{Nameservers: o.Nameservers, Timeout: o.Timeout})
}

// WithDNS overrides the DNS options. Zero fields keep their defaults.
func (v *Verifier) WithDNS(opts DNSOptions) *Verifier {
	def := defaultDNSOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	v.dnsOpts = opts
	if !v.customResolver {
		v.resolver = newResolver(opts)
	}
	v.cache = nil
	if opts.CacheTTL > 0 {
		v.cache = dnscache.New(opts.CacheTTL)
	}
	return v
}

// WithSMTP overrides the SMTP probe options. Zero fields keep their defaults.
// An unusable option is reported by Verify as ErrInvalidSMTPOptions.
func (v *Verifier) WithSMTP(opts SMTPOptions) *Verifier {
	def := defaultSMTPOptions()
	if opts.HeloDomain == "" {
		opts.HeloDomain = def.HeloDomain
	}
	if opts.MailFrom == "" {
		opts.MailFrom = def.MailFrom
	}
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.CatchAllTimeout == 0 {
		opts.CatchAllTimeout = def.CatchAllTimeout
	}
	if opts.Port == 0 {
		opts.Port = def.Port
	}

	switch {
	case strings.ContainsAny(opts.HeloDomain, " \t\r\n"):
		v.err = fmt.Errorf("%w: HeloDomain %q", ErrInvalidSMTPOptions, opts.HeloDomain)
		return v
	case !check.ValidateSyntax(opts.MailFrom):
		v.err = fmt.Errorf("%w: MailFrom %q", ErrInvalidSMTPOptions, opts.MailFrom)
		return v
	case opts.Timeout < 0 || opts.CatchAllTimeout < 0:
		v.err = fmt.Errorf("%w: negative timeout", ErrInvalidSMTPOptions)
		return v
	case opts.Port < 0 || opts.Port > 65535:
		v.err = fmt.Errorf("%w: port %d", ErrInvalidSMTPOptions, opts.Port)
		return v
	}

	if opts.SOCKS5Proxy != "" && !v.customDial {
		dial, err := smtpconn.SOCKS5(opts.SOCKS5Proxy, opts.SOCKS5User, opts.SOCKS5Password)
		if err != nil {
			v.err = fmt.Errorf("%w: %v", ErrInvalidSMTPOptions, err)
			return v
		}
		v.dial = dial
	}
	v.smtpOpts = opts
	return v
}

// WithConcurrency overrides the batch options. Zero fields keep their defaults.
func (v *Verifier) WithConcurrency(opts ConcurrencyOptions) *Verifier {
	def := defaultConcurrencyOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = def.ItemTimeout
	}
	v.conc = opts
	return v
}

// WithResolver replaces the DNS resolver, e.g. with a stub in tests.
func (v *Verifier) WithResolver(r Resolver) *Verifier {
	v.resolver = r
	v.customResolver = true
	return v
}

// WithDialer replaces how SMTP connections are opened.
// It takes precedence over SMTPOptions.SOCKS5Proxy.
func (v *Verifier) WithDialer(dial DialFunc) *Verifier {
	v.dial = dial
	v.customDial = true
	return v
}

// WithLogger sets the logger. Per-address entries are logged at debug level.
func (v *Verifier) WithLogger(log logrus.FieldLogger) *Verifier {
	if log != nil {
		v.log = log
	}
	return v
}

// WithMetrics registers the engine's Prometheus collectors on reg.
// Registering twice on the same registry panics.
func (v *Verifier) WithMetrics(reg prometheus.Registerer) *Verifier {
	v.metrics = metrics.New(reg)
	return v
}

func (v *Verifier) newPipeline() *pipeline {
	prober := check.NewProber(check.SMTPConfig{
		HeloDomain: v.smtpOpts.HeloDomain,
		MailFrom:   v.smtpOpts.MailFrom,
		Port:       v.smtpOpts.Port,
		Dial:       v.dial,
	})
	return &pipeline{
		dns:      check.NewDNSChecker(v.resolver, v.cache),
		prober:   prober,
		catchAll: check.NewCatchAllDetector(prober),
		dnsOpts:  v.dnsOpts,
		smtpOpts: v.smtpOpts,
		metrics:  v.metrics,
	}
}

// Verify verifies up to MaxBatchSize addresses concurrently.
// The result order matches the input order. Network failures never surface
// as errors; they are reported in each Result. An address that exceeds the
// per-item timeout gets an invalid result flagged with Checks.Timeout.
func (v *Verifier) Verify(ctx context.Context, addresses []string) ([]Result, error) {
	if v.err != nil {
		return nil, v.err
	}
	if len(addresses) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(addresses) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrBatchTooLarge, len(addresses), MaxBatchSize)
	}

	batch := uuid.NewString()
	log := v.log.WithField("batch", batch)
	p := v.newPipeline()
	start := time.Now()

	results := make([]Result, len(addresses))
	var g errgroup.Group
	g.SetLimit(v.conc.Workers)
	for i, a := range addresses {
		g.Go(func() error {
			results[i] = v.verifyItem(ctx, p, strings.TrimSpace(a), log)
			return nil
		})
	}
	_ = g.Wait()

	log.WithFields(logrus.Fields{
		"count":    len(addresses),
		"duration": time.Since(start).String(),
	}).Info("batch verified")
	return results, nil
}

// VerifyOne verifies a single address.
func (v *Verifier) VerifyOne(ctx context.Context, address string) (Result, error) {
	results, err := v.Verify(ctx, []string{address})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// verifyItem runs the pipeline under the per-item deadline. The pipeline
// goroutine is abandoned on expiry; its sockets close with the context.
func (v *Verifier) verifyItem(ctx context.Context, p *pipeline, email string, log logrus.FieldLogger) Result {
	ctx, cancel := context.WithTimeout(ctx, v.conc.ItemTimeout)
	defer cancel()

	log = log.WithField("email", email)
	done := make(chan Result, 1)
	go func() {
		done <- p.run(ctx, email, log)
	}()

	var r Result
	select {
	case r = <-done:
		log.WithFields(logrus.Fields{
			"status": r.Status,
			"score":  r.Score,
		}).Debug("address verified")
	case <-ctx.Done():
		r = timeoutResult(email)
		v.metrics.IncrementItemTimeout()
		log.WithField("timeout", v.conc.ItemTimeout.String()).Warn("verification timed out")
	}
	v.metrics.IncrementVerification(string(r.Status))
	return r
}
