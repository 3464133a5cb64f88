package check

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/optimode/mailprobe/internal/smtpconn"
	"github.com/optimode/mailprobe/types"
)

const (
	// DefaultHeloDomain is the name announced in EHLO/HELO.
	DefaultHeloDomain = "mail.verification-service.com"
	// DefaultMailFrom is the envelope sender used for probes.
	DefaultMailFrom = "verify@verification-service.com"
	// DefaultSMTPPort is the MX delivery port.
	DefaultSMTPPort = 25
)

// SMTPConfig is the SMTP probe configuration.
type SMTPConfig struct {
	HeloDomain string
	MailFrom   string
	Port       int
	Dial       smtpconn.DialFunc // nil dials directly
}

// MailboxProber asks a mail exchanger whether it accepts a recipient.
type MailboxProber interface {
	ProbeMailbox(ctx context.Context, host, address string, timeout time.Duration) types.SMTPOutcome
}

// Prober performs one RCPT TO probe per call over a fresh connection.
// It never retries.
type Prober struct {
	cfg SMTPConfig
}

// NewProber fills zero fields of cfg with the defaults.
func NewProber(cfg SMTPConfig) *Prober {
	if cfg.HeloDomain == "" {
		cfg.HeloDomain = DefaultHeloDomain
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = DefaultMailFrom
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.Dial == nil {
		cfg.Dial = smtpconn.DefaultDial
	}
	return &Prober{cfg: cfg}
}

// ProbeMailbox connects to host, runs the envelope dialogue up to RCPT TO
// for address and classifies the reply. A single deadline of timeout
// covers the whole dialogue. The connection is closed before returning.
func (p *Prober) ProbeMailbox(ctx context.Context, host, address string, timeout time.Duration) types.SMTPOutcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(host, strconv.Itoa(p.cfg.Port))
	s, banner, err := smtpconn.Open(ctx, p.cfg.Dial, addr)
	if s != nil {
		defer func() { _ = s.Close() }()
	}
	if err != nil {
		return sessionFailure(err)
	}
	if !banner.Positive() {
		return envelopeRefused(banner)
	}

	r, err := s.Hello(p.cfg.HeloDomain)
	if err != nil {
		return sessionFailure(err)
	}
	if !r.Positive() {
		return envelopeRefused(r)
	}

	r, err = s.Mail(p.cfg.MailFrom)
	if err != nil {
		return sessionFailure(err)
	}
	if !r.Positive() {
		return envelopeRefused(r)
	}

	r, err = s.Rcpt(address)
	if err != nil {
		return sessionFailure(err)
	}
	return ClassifyRCPT(r.Code, r.Text())
}

// ClassifyRCPT maps a RCPT TO reply to an outcome.
func ClassifyRCPT(code int, text string) types.SMTPOutcome {
	out := types.SMTPOutcome{Code: code, Message: text}
	switch code {
	case 250, 251:
		out.Exists = types.True
	case 550, 551, 553, 554:
		out.Exists = types.False
		out.ErrorKind = types.SMTPErrRejected
		out.Err = "Mailbox does not exist"
	case 421, 450, 451, 452:
		out.ErrorKind = types.SMTPErrTemporary
		out.Err = "Temporary failure (greylisting or rate limiting)"
	default:
		out.ErrorKind = types.SMTPErrUncertain
		out.Err = fmt.Sprintf("Uncertain response code: %d", code)
	}
	return out
}

// envelopeRefused reports a negative banner, HELO or MAIL FROM reply. The
// server never got to answer the RCPT question, so this is connect-class.
func envelopeRefused(r smtpconn.Reply) types.SMTPOutcome {
	return types.SMTPOutcome{
		ErrorKind: types.SMTPErrConnect,
		Err:       fmt.Sprintf("Could not connect to mail server: %d %s", r.Code, r.Text()),
	}
}

func sessionFailure(err error) types.SMTPOutcome {
	kind := smtpconn.KindOf(err)
	out := types.SMTPOutcome{ErrorKind: kind}
	switch kind {
	case types.SMTPErrTimeout:
		out.Err = "Connection timeout"
	case types.SMTPErrConnect:
		out.Err = fmt.Sprintf("Could not connect to mail server: %v", err)
	case types.SMTPErrDisconnected:
		out.Err = "Server disconnected during verification"
	default:
		out.ErrorKind = types.SMTPErrProtocol
		out.Err = fmt.Sprintf("SMTP error: %v", err)
	}
	return out
}
