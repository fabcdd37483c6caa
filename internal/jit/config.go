package jit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"evmjit/internal/layout"
	"evmjit/internal/trace"
)

// ConfigFileName is the file FindConfig looks for.
const ConfigFileName = "evmjit.toml"

// DefaultModuleName names the backend module when nothing else is configured.
const DefaultModuleName = "evm"

// Config configures a compilation session.
type Config struct {
	Module ModuleConfig `toml:"module"`
	Target TargetConfig `toml:"target"`
	Trace  TraceConfig  `toml:"trace"`
}

// ModuleConfig is the [module] table.
type ModuleConfig struct {
	Name string `toml:"name"`
}

// TargetConfig is the [target] table. Triple selects the layout rules.
type TargetConfig struct {
	Triple string `toml:"triple"`
}

// TraceConfig is the file form of trace.Config. Command-line flags take
// precedence over it.
type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

// DefaultConfig returns the configuration NewContext uses.
func DefaultConfig() Config {
	return Config{
		Module: ModuleConfig{Name: DefaultModuleName},
		Target: TargetConfig{Triple: layout.X86_64LinuxGNU().Triple},
		Trace:  TraceConfig{Level: trace.LevelOff.String(), Mode: trace.ModeRing.String()},
	}
}

// Validate checks every field that would otherwise fail later, deep inside
// session construction.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Module.Name) == "" {
		return errors.New("[module].name must not be empty")
	}
	if _, err := layout.TargetByTriple(c.Target.Triple); err != nil {
		return fmt.Errorf("[target].triple: %w", err)
	}
	if _, err := c.TraceSettings(); err != nil {
		return err
	}
	return nil
}

// TraceSettings converts the [trace] table into a trace.Config.
func (c Config) TraceSettings() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, fmt.Errorf("[trace].level: %w", err)
	}
	mode := trace.ModeRing
	if c.Trace.Mode != "" {
		if mode, err = trace.ParseMode(c.Trace.Mode); err != nil {
			return trace.Config{}, fmt.Errorf("[trace].mode: %w", err)
		}
	}
	if c.Trace.RingSize < 0 {
		return trace.Config{}, fmt.Errorf("[trace].ring_size must not be negative, got %d", c.Trace.RingSize)
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}

// LoadConfig reads an evmjit.toml file on top of DefaultConfig. Tables that
// are present must be complete; unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("module") && !meta.IsDefined("module", "name") {
		return Config{}, fmt.Errorf("%s: missing [module].name", path)
	}
	if meta.IsDefined("target") && !meta.IsDefined("target", "triple") {
		return Config{}, fmt.Errorf("%s: missing [target].triple", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindConfig walks up from startDir looking for evmjit.toml.
func FindConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}
