// Package session manages one request/response TCP connection to a target
// with bounded reconnect-and-retry on transport failure.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxRetries   = 5
	DefaultRetryBackoff = 250 * time.Millisecond
	DefaultMaxBackoff   = 5 * time.Second

	readBufferSize = 4096
)

// ErrRetriesExhausted is matched by every *RetryError.
var ErrRetriesExhausted = errors.New("retries exhausted")

var errEmptyReply = errors.New("empty reply")

// RetryError is returned when an exchange still fails after the configured
// number of reconnects.
type RetryError struct {
	Addr     string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s: %d attempts failed: %v", e.Addr, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}

// Options configures a Session.
type Options struct {
	// Timeout bounds the dial and each write/read of an exchange.
	Timeout time.Duration
	// MaxRetries is the number of reconnects per exchange. Negative means unbounded.
	MaxRetries int
	// RetryBackoff is the first pause between reconnects; it doubles up to MaxBackoff.
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
	Logger       *zap.Logger
}

// DefaultOptions returns the options used when a caller leaves fields zero.
func DefaultOptions() Options {
	return Options{
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: DefaultRetryBackoff,
		MaxBackoff:   DefaultMaxBackoff,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = d.RetryBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = d.MaxBackoff
	}
	if o.MaxBackoff < o.RetryBackoff {
		o.MaxBackoff = o.RetryBackoff
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Session is not safe for concurrent use; each worker owns its own.
type Session struct {
	addr   string
	opts   Options
	conn   net.Conn
	buf    []byte
	log    *zap.Logger
	redial atomic.Int64
}

// Connect dials addr. A failure here is returned as is; it is not retried.
func Connect(ctx context.Context, addr string, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	s := &Session{
		addr: addr,
		opts: opts,
		buf:  make([]byte, readBufferSize),
		log:  opts.Logger.With(zap.String("addr", addr)),
	}
	if err := s.dial(ctx); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return s, nil
}

// Addr returns the dialled address.
func (s *Session) Addr() string { return s.addr }

// Reconnects returns how many times the session re-dialled.
func (s *Session) Reconnects() int64 { return s.redial.Load() }

func (s *Session) dial(ctx context.Context) error {
	dialer := net.Dialer{Timeout: s.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *Session) drop() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// SendAndReceive writes payload and returns the bytes of a single read.
// A write error, read error or empty read breaks the session: it is
// re-dialled and the same exchange is retried with exponential backoff until
// it succeeds, MaxRetries is exceeded (*RetryError) or ctx is done.
func (s *Session) SendAndReceive(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	backoff := s.opts.RetryBackoff

	for retries := 0; ; retries++ {
		var err error
		if s.conn == nil {
			if err = s.dial(ctx); err == nil {
				s.redial.Add(1)
			}
		}
		if err == nil {
			var reply []byte
			reply, err = s.exchange(ctx, payload)
			if err == nil {
				return reply, nil
			}
			s.drop()
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if s.opts.MaxRetries >= 0 && retries >= s.opts.MaxRetries {
			return nil, &RetryError{Addr: s.addr, Attempts: retries + 1, Err: err}
		}

		s.log.Debug("exchange failed, reconnecting",
			zap.Int("attempt", retries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.opts.MaxBackoff {
			backoff = s.opts.MaxBackoff
		}
	}
}

func (s *Session) exchange(ctx context.Context, payload []byte) ([]byte, error) {
	conn := s.conn

	if err := conn.SetDeadline(time.Now().Add(s.opts.Timeout)); err != nil {
		return nil, err
	}
	// Unblock pending I/O as soon as ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	n, err := conn.Read(s.buf)
	if n == 0 {
		if err == nil {
			err = errEmptyReply
		}
		return nil, fmt.Errorf("read: %w", err)
	}

	reply := make([]byte, n)
	copy(reply, s.buf[:n])
	return reply, nil
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
