package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWithWriter_Levels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"default hides debug", false, false},
		{"debug shows debug", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&buf, tt.debug)
			log.Debug("session redial", zap.String("addr", "127.0.0.1:6379"))
			log.Warn("sink write failed")
			log.Sync()

			out := buf.String()
			if got := strings.Contains(out, "session redial"); got != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "sink write failed") {
				t.Errorf("warning missing from output:\n%s", out)
			}
			if !strings.Contains(out, "redisbrute") {
				t.Errorf("logger name missing from output:\n%s", out)
			}
		})
	}
}

func TestNewWithWriter_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, true)
	log.Debug("exchange failed", zap.String("addr", "10.0.0.1:6379"), zap.Int("attempt", 2))
	log.Sync()

	out := buf.String()
	if !strings.Contains(out, "10.0.0.1:6379") || !strings.Contains(out, `"attempt"`) {
		t.Errorf("expected structured fields in output:\n%s", out)
	}
}
