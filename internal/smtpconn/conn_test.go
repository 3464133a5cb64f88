package smtpconn_test

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mailprobe/internal/smtpconn"
	"github.com/optimode/mailprobe/types"
)

// mockSMTPServer answers each command line by prefix on one end of a net.Pipe
// and records what it received.
func mockSMTPServer(server net.Conn, banner string, responses map[string]string, got chan<- string) {
	defer func() { _ = server.Close() }()

	_, _ = fmt.Fprintf(server, "%s\r\n", banner)

	r := bufio.NewReader(server)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		if got != nil {
			got <- cmd
		}
		if strings.HasPrefix(cmd, "QUIT") {
			_, _ = fmt.Fprintf(server, "221 Bye\r\n")
			return
		}
		for prefix, resp := range responses {
			if strings.HasPrefix(cmd, prefix) {
				_, _ = fmt.Fprintf(server, "%s\r\n", resp)
				break
			}
		}
	}
}

func pipeDial(banner string, responses map[string]string, got chan<- string) smtpconn.DialFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		client, server := net.Pipe()
		go mockSMTPServer(server, banner, responses, got)
		return client, nil
	}
}

func TestSession_Dialogue(t *testing.T) {
	got := make(chan string, 10)
	dial := pipeDial("220 mx.example.com ESMTP", map[string]string{
		"EHLO":      "250-mx.example.com\r\n250-PIPELINING\r\n250 SIZE 1000",
		"MAIL FROM": "250 2.1.0 Ok",
		"RCPT TO":   "250 2.1.5 Ok",
	}, got)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, banner, err := smtpconn.Open(ctx, dial, "mx.example.com:25")
	require.NoError(t, err)
	assert.Equal(t, 220, banner.Code)

	r, err := s.Hello("probe.test")
	require.NoError(t, err)
	assert.Equal(t, 250, r.Code)
	assert.Len(t, r.Lines, 3)

	r, err = s.Mail("verify@probe.test")
	require.NoError(t, err)
	assert.True(t, r.Positive())

	r, err = s.Rcpt("user@example.com")
	require.NoError(t, err)
	assert.Equal(t, 250, r.Code)
	assert.Equal(t, "2.1.5 Ok", r.Text())

	require.NoError(t, s.Close())

	assert.Equal(t, "EHLO probe.test", <-got)
	assert.Equal(t, "MAIL FROM:<verify@probe.test>", <-got)
	assert.Equal(t, "RCPT TO:<user@example.com>", <-got)
	assert.Equal(t, "QUIT", <-got)
}

func TestSession_HeloFallback(t *testing.T) {
	got := make(chan string, 10)
	dial := pipeDial("220 old.example.com", map[string]string{
		"EHLO": "502 Command not implemented",
		"HELO": "250 old.example.com",
	}, got)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, _, err := smtpconn.Open(ctx, dial, "old.example.com:25")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	r, err := s.Hello("probe.test")
	require.NoError(t, err)
	assert.Equal(t, 250, r.Code)
	assert.Equal(t, "EHLO probe.test", <-got)
	assert.Equal(t, "HELO probe.test", <-got)
}

func TestSession_DialError(t *testing.T) {
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	_, _, err := smtpconn.Open(context.Background(), dial, "mx.example.com:25")
	assert.ErrorIs(t, err, smtpconn.ErrConnect)
	assert.Equal(t, types.SMTPErrConnect, smtpconn.KindOf(err))
}

func TestSession_HangingServerTimesOut(t *testing.T) {
	// Server accepts but never sends a banner.
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			<-ctx.Done()
			_ = server.Close()
		}()
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	s, _, err := smtpconn.Open(ctx, dial, "mx.example.com:25")
	require.Error(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Close())
	assert.Equal(t, types.SMTPErrTimeout, smtpconn.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSession_Disconnect(t *testing.T) {
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			_, _ = fmt.Fprintf(server, "220 ready\r\n")
			_ = server.Close()
		}()
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, _, err := smtpconn.Open(ctx, dial, "mx.example.com:25")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.Hello("probe.test")
	require.Error(t, err)
	assert.Equal(t, types.SMTPErrDisconnected, smtpconn.KindOf(err))
}

func TestSession_MalformedReply(t *testing.T) {
	dial := pipeDial("hello there", nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, _, err := smtpconn.Open(ctx, dial, "mx.example.com:25")
	require.Error(t, err)
	defer func() { _ = s.Close() }()
	assert.ErrorIs(t, err, smtpconn.ErrProtocol)
	assert.Equal(t, types.SMTPErrProtocol, smtpconn.KindOf(err))
}

func TestSession_RejectsLineBreakInjection(t *testing.T) {
	dial := pipeDial("220 ready", map[string]string{"EHLO": "250 ok"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, _, err := smtpconn.Open(ctx, dial, "mx.example.com:25")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = s.Rcpt("a@b.com>\r\nDATA")
	assert.ErrorIs(t, err, smtpconn.ErrProtocol)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, types.SMTPErrNone, smtpconn.KindOf(nil))
	assert.Equal(t, types.SMTPErrDisconnected, smtpconn.KindOf(io.EOF))
	assert.Equal(t, types.SMTPErrTimeout, smtpconn.KindOf(context.DeadlineExceeded))
	assert.Equal(t, types.SMTPErrProtocol, smtpconn.KindOf(errors.New("weird")))
}

func TestSOCKS5(t *testing.T) {
	dial, err := smtpconn.SOCKS5("127.0.0.1:1080", "", "")
	require.NoError(t, err)
	assert.NotNil(t, dial)
}
