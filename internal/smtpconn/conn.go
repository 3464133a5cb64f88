// Package smtpconn speaks the client side of the SMTP envelope dialogue
// (banner, EHLO/HELO, MAIL FROM, RCPT TO, QUIT) over a single connection.
// A Session is used for exactly one probe and then closed.
package smtpconn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

const (
	maxLineLen    = 2048
	maxReplyLines = 64
	quitTimeout   = 2 * time.Second
)

var (
	// ErrConnect wraps failures to establish the TCP connection.
	ErrConnect = errors.New("smtp: could not connect")
	// ErrTimeout wraps any I/O failure that happened because the deadline passed.
	ErrTimeout = errors.New("smtp: timeout")
	// ErrProtocol is returned for replies that are not valid SMTP.
	ErrProtocol = errors.New("smtp: malformed reply")
)

// DialFunc opens a network connection. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// DefaultDial dials directly with a zero net.Dialer.
func DefaultDial(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}

// SOCKS5 returns a DialFunc that tunnels through the SOCKS5 proxy at addr.
// user and password may be empty.
func SOCKS5(addr, user, password string) (DialFunc, error) {
	var auth *proxy.Auth
	if user != "" || password != "" {
		auth = &proxy.Auth{User: user, Password: password}
	}
	d, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("socks5 dialer: context dialing not supported")
	}
	return cd.DialContext, nil
}

// Reply is a (possibly multi-line) SMTP server reply.
type Reply struct {
	Code  int
	Lines []string // text after the code on each line
}

// Text joins the reply lines with a single space.
func (r Reply) Text() string {
	return strings.Join(r.Lines, " ")
}

// Positive reports whether the reply is a 2xx completion.
func (r Reply) Positive() bool {
	return r.Code >= 200 && r.Code < 300
}

// Session is one SMTP connection.
type Session struct {
	ctx     context.Context
	netConn net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	stop    func() bool
}

// Open dials addr and reads the server banner. The connection deadline is
// taken from ctx, and the socket is closed as soon as ctx is done, so a
// silent server cannot hold the caller past its budget.
// The returned Session must be closed even when the banner is negative.
func Open(ctx context.Context, dial DialFunc, addr string) (*Session, Reply, error) {
	if dial == nil {
		dial = DefaultDial
	}
	netConn, err := dial(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return nil, Reply{}, fmt.Errorf("%w: connect to %s: %v", ErrTimeout, addr, err)
		}
		return nil, Reply{}, fmt.Errorf("%w to %s: %v", ErrConnect, addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = netConn.SetDeadline(deadline)
	}

	s := &Session{
		ctx:     ctx,
		netConn: netConn,
		reader:  bufio.NewReaderSize(netConn, maxLineLen),
		writer:  bufio.NewWriter(netConn),
	}
	s.stop = context.AfterFunc(ctx, func() { _ = netConn.Close() })

	banner, err := s.read()
	if err != nil {
		return s, Reply{}, fmt.Errorf("read banner: %w", err)
	}
	return s, banner, nil
}

// Hello sends EHLO and falls back to HELO when the server rejects EHLO
// with a permanent error.
func (s *Session) Hello(domain string) (Reply, error) {
	r, err := s.Cmd("EHLO %s", domain)
	if err != nil || r.Code < 500 {
		return r, err
	}
	return s.Cmd("HELO %s", domain)
}

// Mail sends MAIL FROM.
func (s *Session) Mail(from string) (Reply, error) {
	return s.Cmd("MAIL FROM:<%s>", from)
}

// Rcpt sends RCPT TO.
func (s *Session) Rcpt(to string) (Reply, error) {
	return s.Cmd("RCPT TO:<%s>", to)
}

// Cmd writes one command line and reads the reply.
func (s *Session) Cmd(format string, args ...any) (Reply, error) {
	line := fmt.Sprintf(format, args...)
	if strings.ContainsAny(line, "\r\n") {
		return Reply{}, fmt.Errorf("%w: command contains line break", ErrProtocol)
	}
	if _, err := s.writer.WriteString(line + "\r\n"); err != nil {
		return Reply{}, s.ioErr(err)
	}
	if err := s.writer.Flush(); err != nil {
		return Reply{}, s.ioErr(err)
	}
	return s.read()
}

// Close sends QUIT (best-effort, reply ignored) and closes the connection.
// Safe to call more than once.
func (s *Session) Close() error {
	if s.stop != nil {
		s.stop()
	}
	if s.ctx.Err() == nil {
		_ = s.netConn.SetDeadline(time.Now().Add(quitTimeout))
		if _, err := s.writer.WriteString("QUIT\r\n"); err == nil {
			_ = s.writer.Flush()
		}
	}
	err := s.netConn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// read reads a (possibly multi-line) SMTP reply.
func (s *Session) read() (Reply, error) {
	var reply Reply
	for i := 0; ; i++ {
		if i == maxReplyLines {
			return Reply{}, fmt.Errorf("%w: more than %d lines", ErrProtocol, maxReplyLines)
		}
		raw, err := s.reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			return Reply{}, fmt.Errorf("%w: line too long", ErrProtocol)
		}
		if err != nil {
			return Reply{}, s.ioErr(err)
		}
		line := strings.TrimRight(string(raw), "\r\n")

		code, more, text, err := parseLine(line)
		if err != nil {
			return Reply{}, err
		}
		if i > 0 && code != reply.Code {
			return Reply{}, fmt.Errorf("%w: code changed from %d to %d", ErrProtocol, reply.Code, code)
		}
		reply.Code = code
		reply.Lines = append(reply.Lines, text)
		if !more {
			return reply, nil
		}
	}
}

// parseLine splits "250-text" / "250 text" / "250".
func parseLine(line string) (code int, more bool, text string, err error) {
	if len(line) < 3 {
		return 0, false, "", fmt.Errorf("%w: line too short: %q", ErrProtocol, line)
	}
	code, convErr := strconv.Atoi(line[:3])
	if convErr != nil || code < 100 || code > 599 {
		return 0, false, "", fmt.Errorf("%w: invalid code %q", ErrProtocol, line[:3])
	}
	if len(line) == 3 {
		return code, false, "", nil
	}
	switch line[3] {
	case '-':
		more = true
	case ' ':
	default:
		return 0, false, "", fmt.Errorf("%w: bad separator in %q", ErrProtocol, line)
	}
	return code, more, line[4:], nil
}

// ioErr marks errors caused by the context or connection deadline as timeouts.
func (s *Session) ioErr(err error) error {
	if s.ctx.Err() != nil || isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
