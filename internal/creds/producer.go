package creds

import (
	"context"
	"io"

	"github.com/vulnverified/redisbrute/internal/wordlist"
)

// Produce streams passwords from r into q, escaping each line once, and
// closes q when the input is exhausted, unreadable, or ctx is done.
// It returns the number of candidates pushed.
func Produce(ctx context.Context, r io.Reader, q *Queue) (int, error) {
	defer q.Close()

	n := 0
	err := wordlist.Scan(ctx, r, func(line string) {
		if q.Push(NewCandidate(line)) {
			n++
		}
	})
	return n, err
}
