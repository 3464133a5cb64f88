// Package mailprobe estimates whether an email address is deliverable
// without sending mail. It checks syntax, looks up the domain's A and MX
// records, asks the best mail exchanger whether it accepts the recipient,
// probes for catch-all behaviour and folds the signals into a 0-100 score.
//
// Basic usage:
//
//	results, err := mailprobe.New().Verify(ctx, []string{"user@example.com"})
//
// Tuned:
//
//	v := mailprobe.New().
//	    WithDNS(mailprobe.DNSOptions{Timeout: 3 * time.Second, CacheTTL: time.Minute}).
//	    WithSMTP(mailprobe.SMTPOptions{
//	        HeloDomain: "mail.myapp.com",
//	        MailFrom:   "verify@myapp.com",
//	    }).
//	    WithConcurrency(mailprobe.ConcurrencyOptions{Workers: 5, ItemTimeout: 30 * time.Second})
//	results, err := v.Verify(ctx, addresses)
package mailprobe

import (
	"github.com/optimode/mailprobe/check"
	"github.com/optimode/mailprobe/internal/smtpconn"
	"github.com/optimode/mailprobe/types"
)

// Checks is a re-export from the types package so that consumers
// don't need to import the types package directly.
type Checks = types.Checks

// Resolver is a re-export of the DNS lookup interface accepted by WithResolver.
type Resolver = check.Resolver

// DialFunc is a re-export of the connection opener accepted by WithDialer.
type DialFunc = smtpconn.DialFunc

// Status is a re-export.
type Status = types.Status

// Tristate is a re-export.
type Tristate = types.Tristate

// Status constants re-exported.
const (
	StatusValid   = types.StatusValid
	StatusRisky   = types.StatusRisky
	StatusInvalid = types.StatusInvalid
)

// Tristate constants re-exported.
const (
	Unknown = types.Unknown
	True    = types.True
	False   = types.False
)
