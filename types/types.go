// Package types contains the shared types for mailprobe.
// This package does not import anything from other mailprobe packages
// to avoid circular imports.
package types

import "encoding/json"

// Status is the final classification of a verified address.
type Status string

const (
	StatusValid   Status = "valid"
	StatusRisky   Status = "risky"
	StatusInvalid Status = "invalid"
)

// Tristate is a boolean that may also be unknown.
// The zero value is Unknown.
type Tristate int8

const (
	Unknown Tristate = iota
	True
	False
)

// String returns "true", "false" or "unknown".
func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false and null.
func (t *Tristate) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch {
	case v == nil:
		*t = Unknown
	case *v:
		*t = True
	default:
		*t = False
	}
	return nil
}

// DNSErrorKind classifies a failed DNS lookup.
type DNSErrorKind string

const (
	DNSErrNone     DNSErrorKind = ""
	DNSErrNXDomain DNSErrorKind = "nxdomain"
	DNSErrNoAnswer DNSErrorKind = "no_answer"
	DNSErrTimeout  DNSErrorKind = "timeout"
	DNSErrOther    DNSErrorKind = "other"
)

// DNSOutcome is the result of the A-record existence check.
type DNSOutcome struct {
	Resolved  bool
	ErrorKind DNSErrorKind
	Err       string // human readable, empty when Resolved
	Cached    bool
}

// MXOutcome is the result of the mail exchanger lookup.
// Hosts are ordered by ascending preference with the root dot stripped.
type MXOutcome struct {
	HasMX     bool
	Hosts     []string
	ErrorKind DNSErrorKind
	Err       string
	Cached    bool
}

// SMTPErrorKind classifies a probe that did not end in acceptance.
type SMTPErrorKind string

const (
	SMTPErrNone         SMTPErrorKind = ""
	SMTPErrRejected     SMTPErrorKind = "rejected"
	SMTPErrTemporary    SMTPErrorKind = "temporary"
	SMTPErrUncertain    SMTPErrorKind = "uncertain"
	SMTPErrConnect      SMTPErrorKind = "connect"
	SMTPErrProtocol     SMTPErrorKind = "protocol"
	SMTPErrTimeout      SMTPErrorKind = "timeout"
	SMTPErrDisconnected SMTPErrorKind = "disconnected"
)

// Reached reports whether the probe got as far as an RCPT TO reply.
func (k SMTPErrorKind) Reached() bool {
	switch k {
	case SMTPErrNone, SMTPErrRejected, SMTPErrTemporary, SMTPErrUncertain:
		return true
	}
	return false
}

// SMTPOutcome is the result of a single RCPT TO probe.
type SMTPOutcome struct {
	Exists    Tristate
	Code      int // 0 when no RCPT reply was read
	Message   string
	ErrorKind SMTPErrorKind
	Err       string
}

// Checks holds the named signals gathered for one address.
// Fields left at their zero value mean the stage was not reached.
type Checks struct {
	Syntax      bool          `json:"syntax"`
	Disposable  bool          `json:"disposable"`
	RoleBased   bool          `json:"roleBased"`
	DNS         bool          `json:"dns"`
	HasMX       bool          `json:"hasMX"`
	MXHost      string        `json:"mxHost,omitempty"`
	SMTP        Tristate      `json:"smtp"`
	SMTPCode    int           `json:"smtpCode,omitempty"`
	SMTPMessage string        `json:"smtpMessage,omitempty"`
	CatchAll    bool          `json:"catchAll"`
	Suggestion  string        `json:"suggestion,omitempty"`
	DNSCached   bool          `json:"dnsCached,omitempty"`
	Timeout     bool          `json:"timeout,omitempty"`
	DNSError    DNSErrorKind  `json:"dnsError,omitempty"`
	SMTPError   SMTPErrorKind `json:"smtpError,omitempty"`
}
