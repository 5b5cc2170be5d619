package session

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/vulnverified/redisbrute/internal/redistest"
)

func testOptions() Options {
	return Options{
		Timeout:      2 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 5 * time.Millisecond,
		MaxBackoff:   20 * time.Millisecond,
	}
}

// closingListener accepts connections and closes them straight away.
func closingListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().String()
}

func TestSendAndReceive_SingleExchange(t *testing.T) {
	srv := redistest.Start(t, redistest.Config{Password: "secret"})

	s, err := Connect(context.Background(), srv.Addr(), testOptions())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	reply, err := s.SendAndReceive(context.Background(), []byte("PING\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(reply), "-NOAUTH") {
		t.Errorf("reply = %q, want -NOAUTH prefix", reply)
	}

	reply, err = s.SendAndReceive(context.Background(), []byte("AUTH 'secret'\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(reply) != "+OK\r\n" {
		t.Errorf("reply = %q, want +OK", reply)
	}
	if s.Reconnects() != 0 {
		t.Errorf("reconnects = %d, want 0", s.Reconnects())
	}
}

func TestConnect_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = Connect(context.Background(), addr, testOptions())
	if err == nil {
		t.Fatal("expected error connecting to a closed port")
	}
	if !strings.Contains(err.Error(), addr) {
		t.Errorf("error %q should name the address", err)
	}
}

func TestSendAndReceive_ReconnectsAfterDrop(t *testing.T) {
	srv := redistest.Start(t, redistest.Config{DropConns: 1})

	s, err := Connect(context.Background(), srv.Addr(), testOptions())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	reply, err := s.SendAndReceive(context.Background(), []byte("PING\r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(reply) != "+PONG\r\n" {
		t.Errorf("reply = %q, want +PONG", reply)
	}
	if s.Reconnects() != 1 {
		t.Errorf("reconnects = %d, want 1", s.Reconnects())
	}
	if srv.Conns() != 2 {
		t.Errorf("server saw %d connections, want 2", srv.Conns())
	}
}

func TestSendAndReceive_RetriesExhausted(t *testing.T) {
	addr := closingListener(t)

	opts := testOptions()
	opts.MaxRetries = 2
	s, err := Connect(context.Background(), addr, opts)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	_, err = s.SendAndReceive(context.Background(), []byte("PING\r\n"))
	if err == nil {
		t.Fatal("expected error from a server that never answers")
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("error %v should match ErrRetriesExhausted", err)
	}

	var retryErr *RetryError
	if !errors.As(err, &retryErr) {
		t.Fatalf("error %v should be a *RetryError", err)
	}
	if retryErr.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", retryErr.Attempts)
	}
	if retryErr.Addr != addr {
		t.Errorf("addr = %q, want %q", retryErr.Addr, addr)
	}
}

func TestSendAndReceive_UnboundedStopsOnCancel(t *testing.T) {
	addr := closingListener(t)

	opts := testOptions()
	opts.MaxRetries = -1
	s, err := Connect(context.Background(), addr, opts)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = s.SendAndReceive(ctx, []byte("PING\r\n"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", o.Timeout, DefaultTimeout)
	}
	if o.RetryBackoff != DefaultRetryBackoff {
		t.Errorf("backoff = %v, want %v", o.RetryBackoff, DefaultRetryBackoff)
	}
	if o.Logger == nil {
		t.Error("logger should default to a no-op logger")
	}
}
