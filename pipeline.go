package mailprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optimode/mailprobe/check"
	"github.com/optimode/mailprobe/internal/metrics"
	"github.com/optimode/mailprobe/internal/parse"
	"github.com/optimode/mailprobe/types"
)

const maxSMTPMessageLen = 100

// flow tells the pipeline whether to run the next stage.
type flow int

const (
	proceed flow = iota
	halt
)

// stage mutates the item state and decides whether the pipeline continues.
type stage func(ctx context.Context, it *item) flow

// item is the per-address state threaded through the stages.
type item struct {
	addr   parse.Address
	result Result
	smtp   types.SMTPOutcome
	log    logrus.FieldLogger
}

// terminate freezes the result as a hard failure.
func (it *item) terminate() flow {
	it.result.Score = check.Score(it.result.Checks)
	it.result.Status = types.StatusInvalid
	return halt
}

func (it *item) issue(s string) {
	if s != "" {
		it.result.Issues = append(it.result.Issues, s)
	}
}

// pipeline holds the stage components shared by every item of a batch.
// All fields are read-only while a batch runs.
type pipeline struct {
	dns      *check.DNSChecker
	prober   check.MailboxProber
	catchAll *check.CatchAllDetector
	dnsOpts  DNSOptions
	smtpOpts SMTPOptions
	metrics  *metrics.Metrics
}

func (p *pipeline) stages() []stage {
	return []stage{
		p.syntax,
		p.heuristics,
		p.domainExists,
		p.mailExchangers,
		p.probe,
		p.detectCatchAll,
		p.smtpVerdict,
		p.score,
	}
}

// run verifies one trimmed address. It stops at the first stage that halts.
func (p *pipeline) run(ctx context.Context, email string, log logrus.FieldLogger) Result {
	it := &item{
		addr:   parse.NewAddress(email),
		result: newResult(email),
		log:    log,
	}
	for _, s := range p.stages() {
		if s(ctx, it) == halt {
			break
		}
	}
	return it.result
}

func (p *pipeline) syntax(_ context.Context, it *item) flow {
	if !check.ValidAddress(it.addr) {
		it.issue("Invalid email format")
		it.log.Debug("syntax check failed")
		return it.terminate()
	}
	it.result.Checks.Syntax = true
	return proceed
}

// heuristics records the signals that need no network I/O, so that later
// hard failures still carry them.
func (p *pipeline) heuristics(_ context.Context, it *item) flow {
	c := &it.result.Checks
	if check.IsDisposable(it.addr.Domain) {
		c.Disposable = true
		it.issue("Disposable email service")
	}
	if check.IsRoleBased(it.addr.Local) {
		c.RoleBased = true
		it.issue("Role-based email (not personal)")
	}
	c.Suggestion = check.SuggestDomain(it.addr.DomainDisplay, check.DefaultTypoThreshold)
	return proceed
}

func (p *pipeline) domainExists(ctx context.Context, it *item) flow {
	start := time.Now()
	out := p.dns.CheckDomainExists(ctx, it.addr.Domain, p.dnsOpts.Timeout)
	p.metrics.ObserveStage("dns_a", time.Since(start))

	c := &it.result.Checks
	c.DNS = out.Resolved
	c.DNSCached = c.DNSCached || out.Cached
	if !out.Resolved {
		c.DNSError = out.ErrorKind
		it.issue(out.Err)
		it.log.WithField("stage", "dns_a").Debugf("domain check failed: %s", out.Err)
		return it.terminate()
	}
	return proceed
}

func (p *pipeline) mailExchangers(ctx context.Context, it *item) flow {
	start := time.Now()
	out := p.dns.ResolveMailExchangers(ctx, it.addr.Domain, p.dnsOpts.Timeout)
	p.metrics.ObserveStage("dns_mx", time.Since(start))

	c := &it.result.Checks
	c.HasMX = out.HasMX
	c.DNSCached = c.DNSCached || out.Cached
	if !out.HasMX {
		c.DNSError = out.ErrorKind
		it.issue(out.Err)
		it.log.WithField("stage", "dns_mx").Debugf("mx check failed: %s", out.Err)
		return it.terminate()
	}
	c.MXHost = out.Hosts[0]
	return proceed
}

func (p *pipeline) probe(ctx context.Context, it *item) flow {
	start := time.Now()
	out := p.prober.ProbeMailbox(ctx, it.result.Checks.MXHost, it.addr.String(), p.smtpOpts.Timeout)
	p.metrics.ObserveStage("smtp", time.Since(start))
	p.metrics.IncrementSMTPReply(replyClass(out))

	c := &it.result.Checks
	c.SMTP = out.Exists
	c.SMTPCode = out.Code
	c.SMTPMessage = truncate(out.Message, maxSMTPMessageLen)
	c.SMTPError = out.ErrorKind
	it.smtp = out

	it.log.WithFields(logrus.Fields{
		"stage": "smtp",
		"host":  c.MXHost,
		"code":  out.Code,
	}).Debugf("probe finished: %s", out.Exists)
	return proceed
}

// detectCatchAll probes a synthetic mailbox on the same host. It is skipped
// when the real probe never got a reply, since the host cannot answer the
// synthetic probe either.
func (p *pipeline) detectCatchAll(ctx context.Context, it *item) flow {
	if !it.smtp.ErrorKind.Reached() {
		return proceed
	}
	start := time.Now()
	it.result.Checks.CatchAll = p.catchAll.IsCatchAll(ctx, it.addr.Domain, it.result.Checks.MXHost, p.smtpOpts.CatchAllTimeout)
	p.metrics.ObserveStage("catch_all", time.Since(start))
	return proceed
}

// smtpVerdict turns the probe and catch-all signals into issues and ends
// the pipeline on a rejected mailbox.
func (p *pipeline) smtpVerdict(_ context.Context, it *item) flow {
	if it.result.Checks.CatchAll {
		it.issue("Catch-all domain - cannot verify individual mailbox")
		switch it.smtp.Exists {
		case types.False:
			it.issue("Mailbox rejected even on catch-all domain")
			return it.terminate()
		case types.Unknown:
			it.issue(it.smtp.Err)
		}
		if check.IsCommonProvider(it.addr.Domain) {
			it.issue(fmt.Sprintf("%s uses catch-all - verification less reliable", it.addr.Domain))
		}
		return proceed
	}

	switch it.smtp.Exists {
	case types.False:
		it.issue(it.smtp.Err)
		return it.terminate()
	case types.Unknown:
		it.issue(it.smtp.Err)
	}
	return proceed
}

func (p *pipeline) score(_ context.Context, it *item) flow {
	it.result.Score = check.Score(it.result.Checks)
	it.result.Status = check.StatusFor(it.result.Score)
	return proceed
}

// timeoutResult is returned for an address whose pipeline overran its
// deadline. Only the signals that need no I/O are filled in.
func timeoutResult(email string) Result {
	it := &item{addr: parse.NewAddress(email), result: newResult(email)}
	if check.ValidAddress(it.addr) {
		it.result.Checks.Syntax = true
		c := &it.result.Checks
		c.Disposable = check.IsDisposable(it.addr.Domain)
		c.RoleBased = check.IsRoleBased(it.addr.Local)
	}
	it.result.Checks.Timeout = true
	it.result.Issues = []string{"Verification timeout"}
	return it.result
}

func replyClass(out types.SMTPOutcome) string {
	if out.Exists == types.True {
		return "accepted"
	}
	return string(out.ErrorKind)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
