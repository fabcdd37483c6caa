package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"evmjit/internal/trace"
)

func registerTraceFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("trace", "", "trace output file (\"-\" for stderr; .ndjson and .json select the format)")
	flags.String("trace-level", "", "trace level (off|error|session|provider|debug)")
	flags.String("trace-mode", "", "trace storage mode (stream|ring|both)")
	flags.Int("trace-ring-size", trace.DefaultRingSize, "ring buffer capacity")
	flags.Duration("trace-heartbeat", 0, "heartbeat interval (0 disables)")
}

// traceSettings merges the trace flags over base. Only flags the user set
// take effect.
func traceSettings(cmd *cobra.Command, base trace.Config) (trace.Config, error) {
	flags := cmd.Root().PersistentFlags()
	cfg := base

	if flags.Changed("trace") {
		out, err := flags.GetString("trace")
		if err != nil {
			return cfg, fmt.Errorf("failed to get trace flag: %w", err)
		}
		cfg.OutputPath = out
		// An explicit output without a level would otherwise trace nothing.
		if cfg.Level == trace.LevelOff && !flags.Changed("trace-level") {
			cfg.Level = trace.LevelSession
		}
	}
	if flags.Changed("trace-level") {
		s, err := flags.GetString("trace-level")
		if err != nil {
			return cfg, fmt.Errorf("failed to get trace-level flag: %w", err)
		}
		if cfg.Level, err = trace.ParseLevel(s); err != nil {
			return cfg, fmt.Errorf("invalid trace level: %w", err)
		}
	}
	if flags.Changed("trace-mode") {
		s, err := flags.GetString("trace-mode")
		if err != nil {
			return cfg, fmt.Errorf("failed to get trace-mode flag: %w", err)
		}
		if cfg.Mode, err = trace.ParseMode(s); err != nil {
			return cfg, fmt.Errorf("invalid trace mode: %w", err)
		}
	} else if flags.Changed("trace") && cfg.Mode == trace.ModeRing {
		cfg.Mode = trace.ModeStream
	}
	if flags.Changed("trace-ring-size") {
		n, err := flags.GetInt("trace-ring-size")
		if err != nil {
			return cfg, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
		}
		cfg.RingSize = n
	}
	hb, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return cfg, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}
	cfg.Heartbeat = hb
	return cfg, nil
}

// setupTracing creates the tracer described by cfg and attaches it to the
// command context. The returned cleanup stops the heartbeat, dumps the ring
// buffer in ring mode and closes the tracer.
func setupTracing(cmd *cobra.Command, cfg trace.Config) (func(), error) {
	if cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, cfg.Heartbeat)

	cleanup := func() {
		heartbeat.Stop()
		if ring, ok := tracer.(*trace.RingTracer); ok {
			if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
