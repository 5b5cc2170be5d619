package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redisbrute.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
target:
  list: "targets.txt"
  resolver: "10.0.0.53"
brute:
  users: "users.txt"
  passwords: "rockyou.txt"
  threads: 16
  timeout: "2s"
  target_timeout: "10m"
  probe: "echo"
output:
  file: "found.jsonl"
  no_color: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Target.List != "targets.txt" || cfg.Target.Resolver != "10.0.0.53" {
		t.Errorf("unexpected target section: %+v", cfg.Target)
	}
	if cfg.Brute.Threads != 16 {
		t.Errorf("Expected 16 threads, got %d", cfg.Brute.Threads)
	}
	if cfg.Brute.Timeout.Duration != 2*time.Second {
		t.Errorf("Expected timeout 2s, got %s", cfg.Brute.Timeout)
	}
	if cfg.Brute.TargetTimeout.Duration != 10*time.Minute {
		t.Errorf("Expected target timeout 10m, got %s", cfg.Brute.TargetTimeout)
	}
	if cfg.Brute.Probe != "echo" {
		t.Errorf("Expected probe 'echo', got '%s'", cfg.Brute.Probe)
	}
	if !cfg.Output.NoColor || cfg.Output.File != "found.jsonl" {
		t.Errorf("unexpected output section: %+v", cfg.Output)
	}

	// Keys absent from the file keep their defaults.
	def := Default()
	if cfg.Target.Address != def.Target.Address {
		t.Errorf("Expected default address, got %q", cfg.Target.Address)
	}
	if cfg.Brute.MaxRetries != def.Brute.MaxRetries {
		t.Errorf("Expected default max retries, got %d", cfg.Brute.MaxRetries)
	}
	if cfg.Brute.RetryBackoff != def.Brute.RetryBackoff {
		t.Errorf("Expected default backoff, got %s", cfg.Brute.RetryBackoff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeConfig(t, "brute:\n  timeout: \"soon\"\n")
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected error for invalid duration")
	}

	malformed := writeConfig(t, "brute: [\n")
	if _, err := LoadConfig(malformed); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Brute.Passwords = "pw.txt"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults with passwords", func(c *Config) {}, false},
		{"missing passwords", func(c *Config) { c.Brute.Passwords = "" }, true},
		{"no target", func(c *Config) { c.Target.Address = "" }, true},
		{"list only", func(c *Config) { c.Target.Address = ""; c.Target.List = "t.txt" }, false},
		{"zero threads", func(c *Config) { c.Brute.Threads = 0 }, true},
		{"zero timeout", func(c *Config) { c.Brute.Timeout = Duration{} }, true},
		{"negative retries", func(c *Config) { c.Brute.MaxRetries = -1 }, true},
		{"no retries", func(c *Config) { c.Brute.MaxRetries = 0 }, false},
		{"negative target timeout", func(c *Config) { c.Brute.TargetTimeout = Duration{-time.Second} }, true},
		{"echo probe", func(c *Config) { c.Brute.Probe = "echo" }, false},
		{"unknown probe", func(c *Config) { c.Brute.Probe = "info" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
