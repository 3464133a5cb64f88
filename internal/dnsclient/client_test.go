package dnsclient_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/mailprobe/internal/dnsclient"
	"github.com/optimode/mailprobe/types"
)

// startServer runs an in-process UDP nameserver with a small fixed zone.
func startServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := mdns.HandlerFunc(func(w mdns.ResponseWriter, r *mdns.Msg) {
		m := new(mdns.Msg)
		m.SetReply(r)
		q := r.Question[0]

		switch q.Name {
		case "example.test.":
			switch q.Qtype {
			case mdns.TypeA:
				rr, _ := mdns.NewRR("example.test. 300 IN A 192.0.2.10")
				m.Answer = append(m.Answer, rr)
			case mdns.TypeMX:
				rr1, _ := mdns.NewRR("example.test. 300 IN MX 20 mx2.example.test.")
				rr2, _ := mdns.NewRR("example.test. 300 IN MX 10 mx1.example.test.")
				m.Answer = append(m.Answer, rr1, rr2)
			}
		case "nomail.test.":
			if q.Qtype == mdns.TypeA {
				rr, _ := mdns.NewRR("nomail.test. 300 IN A 192.0.2.20")
				m.Answer = append(m.Answer, rr)
			}
		case "broken.test.":
			m.Rcode = mdns.RcodeServerFailure
		default:
			m.Rcode = mdns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	srv := &mdns.Server{PacketConn: pc, Handler: handler}
	started := make(chan struct{})
	srv.NotifyStartedFunc = func() { close(started) }
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func newClient(t *testing.T) *dnsclient.Client {
	return dnsclient.New(dnsclient.Config{
		Nameservers: []string{startServer(t)},
		Timeout:     2 * time.Second,
	})
}

func TestClient_LookupA(t *testing.T) {
	c := newClient(t)

	ips, err := c.LookupA(context.Background(), "example.test")
	require.NoError(t, err)
	require.Len(t, ips, 1)
	assert.Equal(t, "192.0.2.10", ips[0].String())
}

func TestClient_LookupMX(t *testing.T) {
	c := newClient(t)

	records, err := c.LookupMX(context.Background(), "example.test")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestClient_NXDomain(t *testing.T) {
	c := newClient(t)

	_, err := c.LookupA(context.Background(), "nonexistent-domain-xyz123.test")
	assert.ErrorIs(t, err, dnsclient.ErrNotFound)
	assert.Equal(t, types.DNSErrNXDomain, dnsclient.KindOf(err))
}

func TestClient_NoAnswer(t *testing.T) {
	c := newClient(t)

	_, err := c.LookupMX(context.Background(), "nomail.test")
	assert.ErrorIs(t, err, dnsclient.ErrNoAnswer)
	assert.Equal(t, types.DNSErrNoAnswer, dnsclient.KindOf(err))
}

func TestClient_ServerFailure(t *testing.T) {
	c := newClient(t)

	_, err := c.LookupA(context.Background(), "broken.test")
	assert.Error(t, err)
	assert.Equal(t, types.DNSErrOther, dnsclient.KindOf(err))
}

func TestClient_Timeout(t *testing.T) {
	// A socket that never answers.
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = pc.Close() }()

	c := dnsclient.New(dnsclient.Config{
		Nameservers: []string{pc.LocalAddr().String()},
		Timeout:     100 * time.Millisecond,
	})

	start := time.Now()
	_, err = c.LookupA(context.Background(), "example.test")
	assert.Error(t, err)
	assert.Equal(t, types.DNSErrTimeout, dnsclient.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_DefaultPort(t *testing.T) {
	c := dnsclient.New(dnsclient.Config{Nameservers: []string{"192.0.2.53"}})
	assert.Equal(t, []string{"192.0.2.53:53"}, c.Nameservers())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.DNSErrorKind
	}{
		{"nil", nil, types.DNSErrNone},
		{"not found", dnsclient.ErrNotFound, types.DNSErrNXDomain},
		{"no answer", dnsclient.ErrNoAnswer, types.DNSErrNoAnswer},
		{"timeout", dnsclient.ErrTimeout, types.DNSErrTimeout},
		{"context deadline", context.DeadlineExceeded, types.DNSErrTimeout},
		{"net timeout", &net.DNSError{Err: "i/o timeout", IsTimeout: true}, types.DNSErrTimeout},
		{"other", errors.New("boom"), types.DNSErrOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dnsclient.KindOf(tt.err))
		})
	}
}
