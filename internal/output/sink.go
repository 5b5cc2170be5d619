package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vulnverified/redisbrute/internal/engine"
)

// FileSink appends one JSON object per found credential to a file.
type FileSink struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	path string
}

// NewFileSink truncates path, so a run never mixes with an earlier run's
// findings, even when it finds nothing.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return &FileSink{f: f, enc: json.NewEncoder(f), path: path}, nil
}

// Record writes cred and flushes it to disk.
func (s *FileSink) Record(cred engine.FoundCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(cred); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return s.f.Sync()
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
