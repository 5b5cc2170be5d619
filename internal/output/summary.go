package output

import (
	"fmt"
	"io"

	"github.com/vulnverified/redisbrute/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// WriteHeader prints the redisbrute banner.
func WriteHeader(w io.Writer, noColor bool) {
	if noColor {
		fmt.Fprintf(w, "redisbrute %s\n\n", Version)
	} else {
		fmt.Fprintf(w, "\033[1mredisbrute %s\033[0m\n\n", Version)
	}
}

// WriteSummary prints the post-run summary.
func WriteSummary(w io.Writer, result *engine.RunResult, noColor bool) {
	s := result.Summary

	fmt.Fprintln(w)
	if noColor {
		fmt.Fprintf(w, "Targets: %d (%d no-auth, %d auth-required, %d ambiguous, %d failed)\n",
			s.Targets, s.NoAuth, s.AuthRequired, s.Ambiguous, s.Failed)
		fmt.Fprintf(w, "Attempts: %d\n", s.Attempts)
		fmt.Fprintf(w, "Credentials found: %d\n", s.Found)
	} else {
		fmt.Fprintf(w, "\033[1mTargets:\033[0m %d (%d no-auth, %d auth-required, %d ambiguous, %d failed)\n",
			s.Targets, s.NoAuth, s.AuthRequired, s.Ambiguous, s.Failed)
		fmt.Fprintf(w, "\033[1mAttempts:\033[0m %d\n", s.Attempts)
		fmt.Fprintf(w, "\033[1mCredentials found:\033[0m %d\n", s.Found)
	}

	for _, t := range result.Targets {
		if t.AllUsersRecovered {
			fmt.Fprintf(w, "  %s: every username recovered\n", t.Target)
		}
	}

	if s.Failed > 0 {
		fmt.Fprintln(w)
		if noColor {
			fmt.Fprintf(w, "! %d target(s) failed\n", s.Failed)
		} else {
			fmt.Fprintf(w, "\033[31m!\033[0m %d target(s) failed\n", s.Failed)
		}
		for _, t := range result.Targets {
			if t.Status == engine.StatusError {
				fmt.Fprintf(w, "  %s: %s\n", t.Target, t.Error)
			}
		}
	}

	if result.Interrupted {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "! interrupted after %d of the requested targets\n", len(result.Targets))
	}
}
