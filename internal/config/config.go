// Package config loads redisbrute settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vulnverified/redisbrute/internal/protocol"
	"github.com/vulnverified/redisbrute/internal/session"
)

// Config represents the top-level configuration structure.
type Config struct {
	Target TargetConfig `yaml:"target"`
	Brute  BruteConfig  `yaml:"brute"`
	Output OutputConfig `yaml:"output"`
}

// TargetConfig selects the endpoints to attack.
type TargetConfig struct {
	Address  string `yaml:"address"`  // host:port
	List     string `yaml:"list"`     // one target per line, overrides Address
	Resolver string `yaml:"resolver"` // nameserver host[:port]
}

// BruteConfig holds the wordlists and worker settings.
type BruteConfig struct {
	Users         string   `yaml:"users"`
	Passwords     string   `yaml:"passwords"`
	Threads       int      `yaml:"threads"`
	Timeout       Duration `yaml:"timeout"`
	MaxRetries    int      `yaml:"max_retries"`
	RetryBackoff  Duration `yaml:"retry_backoff"`
	TargetTimeout Duration `yaml:"target_timeout"`
	StopOnSuccess bool     `yaml:"stop_on_success"`
	Probe         string   `yaml:"probe"` // "ping" or "echo"
	SkipACLCheck  bool     `yaml:"skip_acl_check"`
}

// OutputConfig controls how results are reported.
type OutputConfig struct {
	File    string `yaml:"file"` // JSON lines of found credentials
	JSON    bool   `yaml:"json"`
	NoColor bool   `yaml:"no_color"`
	Silent  bool   `yaml:"silent"`
	Verbose bool   `yaml:"verbose"`
	Debug   bool   `yaml:"debug"`
}

// Duration wraps time.Duration for YAML unmarshalling from strings like "5s", "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Default returns the settings used when neither a file nor a flag sets a value.
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			Address: "127.0.0.1:6379",
		},
		Brute: BruteConfig{
			Threads:      5,
			Timeout:      Duration{session.DefaultTimeout},
			MaxRetries:   session.DefaultMaxRetries,
			RetryBackoff: Duration{session.DefaultRetryBackoff},
			Probe:        string(protocol.ProbePing),
		},
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads a YAML file over cfg. Keys missing from the file leave
// cfg untouched.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings that do not depend on the filesystem.
func (c *Config) Validate() error {
	if c.Brute.Passwords == "" {
		return fmt.Errorf("a password wordlist is required")
	}
	if c.Target.Address == "" && c.Target.List == "" {
		return fmt.Errorf("a target or target list is required")
	}
	if c.Brute.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Brute.Threads)
	}
	if c.Brute.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Brute.Timeout)
	}
	if c.Brute.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.Brute.MaxRetries)
	}
	if c.Brute.RetryBackoff.Duration < 0 || c.Brute.TargetTimeout.Duration < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if _, err := protocol.ParseProbeKind(c.Brute.Probe); err != nil {
		return err
	}
	return nil
}
