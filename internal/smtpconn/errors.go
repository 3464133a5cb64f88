package smtpconn

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/optimode/mailprobe/types"
)

// KindOf maps an error returned by a Session to the probe error taxonomy.
func KindOf(err error) types.SMTPErrorKind {
	switch {
	case err == nil:
		return types.SMTPErrNone
	case errors.Is(err, ErrTimeout), isTimeout(err):
		return types.SMTPErrTimeout
	case errors.Is(err, ErrConnect):
		return types.SMTPErrConnect
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe), errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return types.SMTPErrDisconnected
	default:
		return types.SMTPErrProtocol
	}
}
