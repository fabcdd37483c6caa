package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evmjit/internal/jit"
)

// loadConfig resolves the session configuration: --config if given,
// otherwise the nearest evmjit.toml, otherwise the defaults. --target
// overrides the file.
func loadConfig(cmd *cobra.Command) (jit.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return jit.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return jit.Config{}, fmt.Errorf("failed to get working directory: %w", err)
		}
		found, ok, err := jit.FindConfig(wd)
		if err != nil {
			return jit.Config{}, err
		}
		if ok {
			path = found
		}
	}

	cfg := jit.DefaultConfig()
	if path != "" {
		if cfg, err = jit.LoadConfig(path); err != nil {
			return jit.Config{}, err
		}
	}
	if flags.Changed("target") {
		triple, err := flags.GetString("target")
		if err != nil {
			return jit.Config{}, fmt.Errorf("failed to get target flag: %w", err)
		}
		cfg.Target.Triple = triple
		if err := cfg.Validate(); err != nil {
			return jit.Config{}, err
		}
	}
	return cfg, nil
}

// openSession builds a compilation context for cmd with tracing and
// profiling wired in. The returned cleanup closes the session, then the
// tracer, then the profilers.
func openSession(cmd *cobra.Command) (*jit.Context, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	stopProfile, err := setupProfiling(cmd)
	if err != nil {
		return nil, nil, err
	}
	base, err := cfg.TraceSettings()
	if err != nil {
		stopProfile()
		return nil, nil, err
	}
	traceCfg, err := traceSettings(cmd, base)
	if err != nil {
		stopProfile()
		return nil, nil, err
	}
	stopTrace, err := setupTracing(cmd, traceCfg)
	if err != nil {
		stopProfile()
		return nil, nil, err
	}
	session, err := jit.New(cmd.Context(), cfg)
	if err != nil {
		stopTrace()
		stopProfile()
		return nil, nil, err
	}
	cleanup := func() {
		session.Close()
		stopTrace()
		stopProfile()
	}
	return session, cleanup, nil
}

// printTimings writes the provider timing summary when --timings is set.
func printTimings(cmd *cobra.Command, session *jit.Context) {
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !show {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), session.TimingSummary())
}
