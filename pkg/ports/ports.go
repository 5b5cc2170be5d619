// Package ports provides port helpers for Redis targets.
package ports

import (
	"fmt"
	"strconv"
	"strings"
)

// Redis is the standard Redis server port.
const Redis = 6379

// DefaultRedis is Redis formatted for host:port joining.
var DefaultRedis = strconv.Itoa(Redis)

// Parse validates a port string and returns it as an int.
func Parse(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty port")
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return port, nil
}
