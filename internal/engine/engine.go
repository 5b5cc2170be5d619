package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vulnverified/redisbrute/internal/creds"
	"github.com/vulnverified/redisbrute/internal/protocol"
	"github.com/vulnverified/redisbrute/internal/session"
)

// Config holds the runtime configuration for a brute-force run.
type Config struct {
	Targets      []Target
	Users        []string
	PasswordFile string
	Workers      int

	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// TargetTimeout bounds the whole run against one target. Zero disables it.
	TargetTimeout time.Duration

	// StopOnSuccess ends a DEFAULT-mode target after its first valid password.
	StopOnSuccess bool
	Probe         protocol.ProbeKind
	SkipACLCheck  bool
}

// Deps holds the injectable collaborators of a run. Zero fields get defaults.
type Deps struct {
	Sink     ResultSink
	Dial     Dialer
	Resolver TargetResolver
	Logger   *zap.Logger
}

// ProgressReporter is called by the engine to report progress.
type ProgressReporter interface {
	Stage(num, total int, msg string)
	Detail(msg string)
	Warn(msg string)
	Found(cred FoundCredential)
}

type nopSink struct{}

func (nopSink) Record(FoundCredential) error { return nil }

func (cfg Config) validate() error {
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", cfg.Workers)
	}
	if cfg.PasswordFile == "" {
		return fmt.Errorf("password wordlist is required")
	}
	return nil
}

func (d Deps) withDefaults(cfg Config) Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Sink == nil {
		d.Sink = nopSink{}
	}
	if d.Dial == nil {
		opts := session.Options{
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       d.Logger,
		}
		d.Dial = func(ctx context.Context, addr string) (Conn, error) {
			s, err := session.Connect(ctx, addr, opts)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	return d
}

// Run processes every target in order. Per-target failures are recorded in
// the result; only configuration problems and an unreadable wordlist abort
// the run.
func Run(ctx context.Context, cfg Config, deps Deps, progress ProgressReporter) (*RunResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Probe == "" {
		cfg.Probe = protocol.ProbePing
	}

	f, err := os.Open(cfg.PasswordFile)
	if err != nil {
		return nil, fmt.Errorf("password wordlist: %w", err)
	}
	f.Close()

	deps = deps.withDefaults(cfg)

	mode := ModeDefault
	if len(cfg.Users) > 0 {
		mode = ModeACL
	}

	result := &RunResult{StartedAt: time.Now()}

	for i, t := range cfg.Targets {
		if ctx.Err() != nil {
			break
		}
		progress.Stage(i+1, len(cfg.Targets), fmt.Sprintf("Probing %s (%s mode)...", t, mode))

		run := &targetRun{
			cfg:      cfg,
			deps:     deps,
			progress: progress,
			mode:     mode,
			target:   t,
			log:      deps.Logger.With(zap.String("target", t.String())),
		}
		tr := run.run(ctx)
		result.Targets = append(result.Targets, tr)
		result.Found = append(result.Found, run.found...)

		if tr.Status == StatusError {
			progress.Warn(fmt.Sprintf("%s: %s", t, tr.Error))
		}
	}

	result.Interrupted = ctx.Err() != nil
	result.CompletedAt = time.Now()
	result.DurationSecs = result.CompletedAt.Sub(result.StartedAt).Seconds()
	result.Summary = buildSummary(result)

	return result, nil
}

// targetRun carries the state shared by the probe, producer and workers of
// one target.
type targetRun struct {
	cfg      Config
	deps     Deps
	progress ProgressReporter
	mode     AuthMode
	target   Target
	log      *zap.Logger

	attempts     atomic.Int64
	allRecovered atomic.Bool
	probeReply   string

	mu    sync.Mutex
	found []FoundCredential
}

func (r *targetRun) run(ctx context.Context) TargetResult {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if r.cfg.TargetTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.cfg.TargetTimeout)
		defer cancel()
	}

	status, err := r.execute(ctx)

	r.mu.Lock()
	found := len(r.found)
	r.mu.Unlock()

	tr := TargetResult{
		Target:            r.target,
		Status:            status,
		Mode:              r.mode,
		Attempts:          r.attempts.Load(),
		Found:             found,
		AllUsersRecovered: r.allRecovered.Load(),
		ProbeReply:        r.probeReply,
		DurationSecs:      time.Since(start).Seconds(),
	}
	if err != nil {
		tr.Status = StatusError
		tr.Error = err.Error()
	}

	r.log.Debug("target finished",
		zap.String("status", string(tr.Status)),
		zap.Int64("attempts", tr.Attempts),
		zap.Int("found", tr.Found),
	)
	return tr
}

func (r *targetRun) execute(ctx context.Context) (TargetStatus, error) {
	if r.target.IP == "" {
		r.target.IP = r.target.Host
	}
	if r.deps.Resolver != nil {
		resolved, err := r.deps.Resolver.Resolve(ctx, r.target)
		if err != nil {
			return StatusError, fmt.Errorf("resolve %s: %w", r.target.Host, err)
		}
		r.target = resolved
	}

	status, err := r.probe(ctx)
	if err != nil {
		return StatusError, err
	}
	switch status {
	case StatusNoAuth:
		r.progress.Detail(fmt.Sprintf("%s: no authentication required", r.target))
		return status, nil
	case StatusAmbiguous:
		r.progress.Warn(fmt.Sprintf("%s: ambiguous probe reply %q, skipping", r.target, r.probeReply))
		return status, nil
	}

	if err := r.brute(ctx); err != nil {
		return StatusAuthRequired, err
	}
	return StatusAuthRequired, nil
}

// probe classifies the target on a dedicated connection before any worker
// starts.
func (r *targetRun) probe(ctx context.Context) (TargetStatus, error) {
	conn, err := r.deps.Dial(ctx, r.target.Addr())
	if err != nil {
		return StatusError, err
	}
	defer conn.Close()

	status, reply, err := protocol.ProbeAuth(ctx, conn, r.cfg.Probe)
	r.probeReply = protocol.Summarize(reply)
	if err != nil {
		return StatusError, err
	}

	switch status {
	case protocol.StatusNoAuth:
		r.record(Sentinel, Sentinel)
		return StatusNoAuth, nil
	case protocol.StatusAmbiguous:
		return StatusAmbiguous, nil
	}

	if r.mode == ModeACL && !r.cfg.SkipACLCheck {
		if err := protocol.CheckACLSupport(ctx, conn); err != nil {
			return StatusError, err
		}
	}
	return StatusAuthRequired, nil
}

// brute runs the producer and the worker pool until the wordlist is
// exhausted, the username pool empties, or ctx ends.
func (r *targetRun) brute(ctx context.Context) error {
	var conns []Conn
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	for i := 0; i < r.cfg.Workers; i++ {
		conn, err := r.deps.Dial(ctx, r.target.Addr())
		if err != nil {
			return fmt.Errorf("worker %d: %w", i+1, err)
		}
		conns = append(conns, conn)
	}

	f, err := os.Open(r.cfg.PasswordFile)
	if err != nil {
		return fmt.Errorf("password wordlist: %w", err)
	}
	defer f.Close()

	r.progress.Detail(fmt.Sprintf("%s: authentication required, starting %d workers", r.target, len(conns)))

	queue := creds.NewQueue()
	pool := creds.NewPool(r.cfg.Users)

	stopCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(stopCtx)

	g.Go(func() error {
		n, err := creds.Produce(gctx, f, queue)
		if err != nil && gctx.Err() == nil {
			r.progress.Warn(fmt.Sprintf("%s: wordlist read stopped after %d passwords: %s", r.target, n, err))
		}
		r.log.Debug("producer finished", zap.Int("passwords", n))
		return nil
	})

	for i, conn := range conns {
		w := &worker{
			id:    i + 1,
			conn:  conn,
			run:   r,
			queue: queue,
			pool:  pool,
			stop:  stop,
		}
		g.Go(func() error {
			return w.drain(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("target timeout %s exceeded", r.cfg.TargetTimeout)
		}
		return err
	}
	return nil
}

func (r *targetRun) record(username, password string) {
	cred := FoundCredential{
		Timestamp: time.Now().UTC().Format(TimestampFormat),
		Host:      r.target.Host,
		IP:        r.target.IP,
		Port:      r.target.Port,
		Username:  username,
		Password:  password,
	}

	r.mu.Lock()
	r.found = append(r.found, cred)
	r.mu.Unlock()

	if err := r.deps.Sink.Record(cred); err != nil {
		r.progress.Warn(fmt.Sprintf("result sink: %s", err))
	}
	r.progress.Found(cred)
}

func buildSummary(result *RunResult) Summary {
	s := Summary{
		Targets: len(result.Targets),
		Found:   len(result.Found),
	}
	for _, t := range result.Targets {
		s.Attempts += t.Attempts
		switch t.Status {
		case StatusNoAuth:
			s.NoAuth++
		case StatusAuthRequired:
			s.AuthRequired++
		case StatusAmbiguous:
			s.Ambiguous++
		case StatusError:
			s.Failed++
		}
	}
	return s
}
