package engine

import (
	"context"
	"fmt"

	"github.com/vulnverified/redisbrute/internal/creds"
	"github.com/vulnverified/redisbrute/internal/protocol"
)

// worker owns one connection and drains the shared password queue.
type worker struct {
	id    int
	conn  Conn
	run   *targetRun
	queue *creds.Queue
	pool  *creds.Pool
	// stop ends the whole target run, not just this worker.
	stop context.CancelFunc
}

func (w *worker) drain(ctx context.Context) error {
	for {
		cand, ok, err := w.queue.Pop(ctx)
		if err != nil || !ok || ctx.Err() != nil {
			return nil
		}

		if w.run.mode == ModeACL {
			err = w.checkACL(ctx, cand)
		} else {
			err = w.checkDefault(ctx, cand)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("worker %d: %w", w.id, err)
		}
	}
}

func (w *worker) checkDefault(ctx context.Context, cand creds.Candidate) error {
	reply, err := w.conn.SendAndReceive(ctx, protocol.AuthCommand(cand.Escaped))
	if err != nil {
		return err
	}
	w.run.attempts.Add(1)

	if !protocol.IsOK(reply) {
		return nil
	}
	w.run.record(Sentinel, cand.Plain)

	if w.run.cfg.StopOnSuccess {
		w.run.progress.Detail(fmt.Sprintf("%s: password found, stopping", w.run.target))
		w.stop()
	}
	return nil
}

// checkACL tries one password against every remaining username and stops at
// the first match.
func (w *worker) checkACL(ctx context.Context, cand creds.Candidate) error {
	users := w.pool.Snapshot()
	if len(users) == 0 {
		w.stop()
		return nil
	}

	matched := ""
	for _, user := range users {
		reply, err := w.conn.SendAndReceive(ctx, protocol.ACLAuthCommand(creds.Escape(user), cand.Escaped))
		if err != nil {
			return err
		}
		w.run.attempts.Add(1)

		if protocol.IsOK(reply) {
			matched = user
			w.run.record(user, cand.Plain)
			break
		}
	}
	if matched == "" {
		return nil
	}

	removed, remaining := w.pool.Remove(matched)
	if removed == 0 {
		return nil
	}
	if remaining == 0 {
		w.run.allRecovered.Store(true)
		w.run.progress.Detail(fmt.Sprintf("%s: all users recovered", w.run.target))
		w.stop()
		return nil
	}
	w.run.progress.Detail(fmt.Sprintf("%s: %d user(s) remaining...", w.run.target, remaining))
	return nil
}
