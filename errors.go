package mailprobe

import "errors"

var (
	// ErrEmptyBatch is returned when Verify is called without addresses.
	ErrEmptyBatch = errors.New("mailprobe: no addresses to verify")

	// ErrBatchTooLarge is returned when Verify is called with more than
	// MaxBatchSize addresses.
	ErrBatchTooLarge = errors.New("mailprobe: too many addresses")

	// ErrInvalidSMTPOptions is returned when WithSMTP received options
	// that cannot be used for a probe.
	ErrInvalidSMTPOptions = errors.New("mailprobe: invalid SMTPOptions")
)
