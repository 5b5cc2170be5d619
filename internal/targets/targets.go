// Package targets parses Redis endpoints and resolves their hostnames.
package targets

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/vulnverified/redisbrute/internal/engine"
	"github.com/vulnverified/redisbrute/internal/wordlist"
	"github.com/vulnverified/redisbrute/pkg/ports"
)

// Parse accepts host, host:port, a bare IPv6 address or [v6]:port.
// A missing port defaults to the standard Redis port.
func Parse(s string) (engine.Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return engine.Target{}, fmt.Errorf("empty target")
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		host = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		if strings.Contains(host, ":") && net.ParseIP(host) == nil {
			return engine.Target{}, fmt.Errorf("invalid target %q", s)
		}
		port = ports.DefaultRedis
	}
	if host == "" {
		return engine.Target{}, fmt.Errorf("invalid target %q: missing host", s)
	}

	p, err := ports.Parse(port)
	if err != nil {
		return engine.Target{}, fmt.Errorf("invalid target %q: %w", s, err)
	}

	return engine.Target{Host: host, Port: strconv.Itoa(p), IP: host}, nil
}

// Load reads one target per line from path. Duplicates are dropped and the
// first-seen order is kept.
func Load(path string) ([]engine.Target, error) {
	lines, err := wordlist.Read(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(lines))
	var out []engine.Target
	for _, line := range lines {
		t, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if seen[t.String()] {
			continue
		}
		seen[t.String()] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no targets", path)
	}
	return out, nil
}
