package targets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vulnverified/redisbrute/internal/engine"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    engine.Target
		wantErr bool
	}{
		{"127.0.0.1:6379", engine.Target{Host: "127.0.0.1", Port: "6379", IP: "127.0.0.1"}, false},
		{"redis.internal", engine.Target{Host: "redis.internal", Port: "6379", IP: "redis.internal"}, false},
		{"redis.internal:7000", engine.Target{Host: "redis.internal", Port: "7000", IP: "redis.internal"}, false},
		{"  10.0.0.5:6380  ", engine.Target{Host: "10.0.0.5", Port: "6380", IP: "10.0.0.5"}, false},
		{"::1", engine.Target{Host: "::1", Port: "6379", IP: "::1"}, false},
		{"[::1]", engine.Target{Host: "::1", Port: "6379", IP: "::1"}, false},
		{"[fe80::1]:7001", engine.Target{Host: "fe80::1", Port: "7001", IP: "fe80::1"}, false},
		{"", engine.Target{}, true},
		{":6379", engine.Target{}, true},
		{"host:0", engine.Target{}, true},
		{"host:70000", engine.Target{}, true},
		{"host:abc", engine.Target{}, true},
		{"a:b:c", engine.Target{}, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error, got %+v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestTargetString(t *testing.T) {
	got, err := Parse("[::1]:7000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "[::1]:7000" {
		t.Errorf("String() = %q", got.String())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.txt")
	content := "# lab hosts\n10.0.0.1\n\n10.0.0.2:7000\n10.0.0.1:6379\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 targets after dedup, got %d: %+v", len(got), got)
	}
	if got[0].String() != "10.0.0.1:6379" || got[1].String() != "10.0.0.2:7000" {
		t.Errorf("unexpected targets: %+v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(bad, []byte("10.0.0.1\nhost:99999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for invalid port")
	}

	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte("# nothing\n\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); err == nil {
		t.Error("expected error for empty list")
	}
}
