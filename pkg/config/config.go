// Package config loads the debugger configuration.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/nokia/red-debugger/pkg/debug"
)

// Environment variables overriding the configuration file.
const (
	EnvPauseOnError      = "RED_PAUSE_ON_ERROR"
	EnvStepIntoLibraries = "RED_STEP_INTO_LIBRARIES"
	EnvModelDir          = "RED_MODEL_DIR"
	EnvBreakpoints       = "RED_BREAKPOINTS"
	EnvLogLevel          = "RED_LOG_LEVEL"
	EnvLogFormat         = "RED_LOG_FORMAT"
)

// Config is the debugger configuration.
type Config struct {
	Preferences PreferencesConfig `yaml:"preferences"`
	ModelDir    string            `yaml:"model_dir"`
	Breakpoints string            `yaml:"breakpoints"`
	Log         LogConfig         `yaml:"log"`
}

// PreferencesConfig holds the debugger preferences.
type PreferencesConfig struct {
	PauseOnError          bool `yaml:"pause_on_error"`
	GoIntoLibraryKeywords bool `yaml:"go_into_library_keywords"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{Log: LogConfig{Level: "info", Format: "text"}}
}

// Load reads the configuration at path. An empty path gives the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with the variables lookup finds.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	bools := []struct {
		name string
		dst  *bool
	}{
		{EnvPauseOnError, &cfg.Preferences.PauseOnError},
		{EnvStepIntoLibraries, &cfg.Preferences.GoIntoLibraryKeywords},
	}
	for _, b := range bools {
		v, ok := lookup(b.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", b.name, err)
		}
		*b.dst = parsed
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{EnvModelDir, &cfg.ModelDir},
		{EnvBreakpoints, &cfg.Breakpoints},
		{EnvLogLevel, &cfg.Log.Level},
		{EnvLogFormat, &cfg.Log.Format},
	}
	for _, s := range strs {
		if v, ok := lookup(s.name); ok && v != "" {
			*s.dst = v
		}
	}
	return nil
}

// LoadDotEnv sets the variables of the .env file at path. Variables that are
// already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, val)
		}
	}
	return scanner.Err()
}

// Preferences are the debugger preferences of a running session. Pause on
// error may be switched while the session runs.
type Preferences struct {
	pauseOnError atomic.Bool
	goIntoLib    bool
}

// NewPreferences creates the session preferences from cfg.
func NewPreferences(cfg PreferencesConfig) *Preferences {
	p := &Preferences{goIntoLib: cfg.GoIntoLibraryKeywords}
	p.pauseOnError.Store(cfg.PauseOnError)
	return p
}

// SetPauseOnError switches pausing on erroneous frames.
func (p *Preferences) SetPauseOnError(on bool) { p.pauseOnError.Store(on) }

// Debugger returns the preferences in the form the debug controller reads.
func (p *Preferences) Debugger() debug.DebuggerPreferences {
	return debug.Preferences{PauseOnError: p.pauseOnError.Load, GoIntoLibKeywords: p.goIntoLib}
}
