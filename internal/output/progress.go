// Package output handles all redisbrute CLI output formatting.
package output

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/vulnverified/redisbrute/internal/engine"
)

// Progress writes progress updates to stderr.
type Progress struct {
	w       io.Writer
	verbose bool
	silent  bool
	mu      sync.Mutex
	start   time.Time
}

// NewProgress creates a progress reporter.
func NewProgress(w io.Writer, verbose, silent bool) *Progress {
	return &Progress{
		w:       w,
		verbose: verbose,
		silent:  silent,
		start:   time.Now(),
	}
}

// Stage prints a target header like "[1/3] Probing 10.0.0.1:6379 (acl mode)..."
func (p *Progress) Stage(num, total int, msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%d/%d] %s\n", num, total, msg)
}

// Detail prints verbose detail (only in verbose mode).
func (p *Progress) Detail(msg string) {
	if !p.verbose || p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  %s\n", msg)
}

// Warn prints a warning to stderr.
func (p *Progress) Warn(msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  ! %s\n", msg)
}

// Found announces a confirmed credential as soon as it is recorded.
func (p *Progress) Found(cred engine.FoundCredential) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	addr := net.JoinHostPort(cred.Host, cred.Port)
	if cred.Username == engine.Sentinel && cred.Password == engine.Sentinel {
		fmt.Fprintf(p.w, "  + %s: no authentication required\n", addr)
		return
	}
	fmt.Fprintf(p.w, "  + %s: username=%s password=%s\n", addr, cred.Username, cred.Password)
}

// Complete prints the final duration.
func (p *Progress) Complete() {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start)
	fmt.Fprintf(p.w, "\nCompleted in %.1fs\n", elapsed.Seconds())
}
