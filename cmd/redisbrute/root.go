package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vulnverified/redisbrute/internal/config"
	"github.com/vulnverified/redisbrute/internal/engine"
	"github.com/vulnverified/redisbrute/internal/logging"
	"github.com/vulnverified/redisbrute/internal/output"
	"github.com/vulnverified/redisbrute/internal/protocol"
	"github.com/vulnverified/redisbrute/internal/targets"
	"github.com/vulnverified/redisbrute/internal/wordlist"
)

var errTargetsFailed = errors.New("one or more targets failed")

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg := config.Default()
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "redisbrute",
		Short: "Recover Redis credentials from a password wordlist",
		Long: "Probe Redis targets for authentication and try a password wordlist against them, " +
			"either against the default user or against every name in a username list (Redis 6+ ACL).",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := applyConfigFile(cmd.Flags(), configPath, cfg); err != nil {
					return err
				}
			}

			noColor := cfg.Output.NoColor || !isTerminal(stdout)
			// Respect NO_COLOR env var.
			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				noColor = true
			}

			return run(cmd.Context(), cfg, stdout, stderr, noColor)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML config file (explicit flags take precedence)")
	flags.StringVarP(&cfg.Target.Address, "target", "T", cfg.Target.Address, "Target host:port")
	flags.StringVarP(&cfg.Target.List, "target-list", "l", "", "File with one target per line")
	flags.StringVar(&cfg.Target.Resolver, "resolver", "", "DNS server for target hostnames (host[:port])")
	flags.StringVarP(&cfg.Brute.Users, "users", "u", "", "Username list (enables ACL mode)")
	flags.StringVarP(&cfg.Brute.Passwords, "passwords", "p", "", "Password wordlist (required)")
	flags.IntVarP(&cfg.Brute.Threads, "threads", "t", cfg.Brute.Threads, "Concurrent connections per target")
	flags.DurationVar(&cfg.Brute.Timeout.Duration, "timeout", cfg.Brute.Timeout.Duration, "Dial and read/write timeout")
	flags.IntVar(&cfg.Brute.MaxRetries, "max-retries", cfg.Brute.MaxRetries, "Reconnects per command before a worker gives up")
	flags.DurationVar(&cfg.Brute.RetryBackoff.Duration, "retry-backoff", cfg.Brute.RetryBackoff.Duration, "Initial pause between reconnects")
	flags.DurationVar(&cfg.Brute.TargetTimeout.Duration, "target-timeout", 0, "Overall time limit per target (0 = none)")
	flags.BoolVar(&cfg.Brute.StopOnSuccess, "stop-on-success", false, "Stop a target after the first password found (default mode)")
	flags.StringVar(&cfg.Brute.Probe, "probe", cfg.Brute.Probe, "Auth probe command: ping or echo")
	flags.BoolVar(&cfg.Brute.SkipACLCheck, "skip-acl-check", false, "Do not check that the target supports two-argument AUTH")
	flags.StringVarP(&cfg.Output.File, "output-file", "o", "", "Write found credentials as JSON lines")
	flags.BoolVar(&cfg.Output.JSON, "json", false, "Output structured JSON to stdout")
	flags.BoolVar(&cfg.Output.NoColor, "no-color", false, "Disable terminal colors")
	flags.BoolVar(&cfg.Output.Silent, "silent", false, "Results only, no progress")
	flags.BoolVarP(&cfg.Output.Verbose, "verbose", "v", false, "Verbose per-target progress")
	flags.BoolVar(&cfg.Output.Debug, "debug", false, "Log connection diagnostics to stderr")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("redisbrute {{.Version}}\n")
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	return rootCmd
}

// applyConfigFile loads path into cfg and then re-applies every flag given
// on the command line, so flags win over the file.
func applyConfigFile(flags *pflag.FlagSet, path string, cfg *config.Config) error {
	changed := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := config.LoadInto(path, cfg); err != nil {
		return err
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("reapply --%s: %w", name, err)
		}
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, noColor bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	probe, err := protocol.ParseProbeKind(cfg.Brute.Probe)
	if err != nil {
		return err
	}

	log := logging.NewWithWriter(stderr, cfg.Output.Debug)
	defer log.Sync()

	tgts, err := loadTargets(cfg.Target)
	if err != nil {
		return err
	}

	var users []string
	if cfg.Brute.Users != "" {
		users, err = wordlist.Read(cfg.Brute.Users)
		if err != nil {
			return fmt.Errorf("username list: %w", err)
		}
	}

	deps := engine.Deps{
		Logger: log,
		Resolver: &targets.Resolver{
			Nameserver: cfg.Target.Resolver,
			Timeout:    cfg.Brute.Timeout.Duration,
		},
	}
	if cfg.Output.File != "" {
		sink, err := output.NewFileSink(cfg.Output.File)
		if err != nil {
			return err
		}
		defer sink.Close()
		deps.Sink = sink
	}

	// Progress output.
	showProgress := !cfg.Output.JSON && !cfg.Output.Silent
	progress := output.NewProgress(stderr, cfg.Output.Verbose, !showProgress)

	if showProgress {
		output.WriteHeader(stderr, noColor)
	}

	ecfg := engine.Config{
		Targets:       tgts,
		Users:         users,
		PasswordFile:  cfg.Brute.Passwords,
		Workers:       cfg.Brute.Threads,
		Timeout:       cfg.Brute.Timeout.Duration,
		MaxRetries:    cfg.Brute.MaxRetries,
		RetryBackoff:  cfg.Brute.RetryBackoff.Duration,
		TargetTimeout: cfg.Brute.TargetTimeout.Duration,
		StopOnSuccess: cfg.Brute.StopOnSuccess,
		Probe:         probe,
		SkipACLCheck:  cfg.Brute.SkipACLCheck,
	}

	result, err := engine.Run(ctx, ecfg, deps, progress)
	if err != nil {
		return err
	}

	if showProgress {
		progress.Complete()
	}

	// Output results.
	if cfg.Output.JSON {
		if err := output.WriteJSON(stdout, result); err != nil {
			return err
		}
	} else {
		output.WriteTable(stdout, result, noColor)
		if !cfg.Output.Silent {
			output.WriteTargetTable(stdout, result, noColor)
			output.WriteSummary(stdout, result, noColor)
		}
	}

	if result.Summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errTargetsFailed, result.Summary.Failed, result.Summary.Targets)
	}
	return nil
}

func loadTargets(tc config.TargetConfig) ([]engine.Target, error) {
	if tc.List != "" {
		return targets.Load(tc.List)
	}
	t, err := targets.Parse(tc.Address)
	if err != nil {
		return nil, err
	}
	return []engine.Target{t}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
