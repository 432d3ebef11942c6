// Package config provides project configuration for dvc-matrix.
//
// Configuration lives in an optional .dvc-matrix.toml at the project root.
// Resolution order (later overrides earlier):
//  1. Built-in defaults
//  2. The project file
//  3. Environment (DVC_MATRIX_THEME)
//  4. Command-line flags, applied by the caller
//
// Each layer merges with (not replaces) the previous. Users only specify
// fields they want to change.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the project configuration file name.
const FileName = ".dvc-matrix.toml"

// Config holds the paths and defaults the commands operate on.
type Config struct {
	// Matrix is the matrix specification to expand.
	Matrix string `toml:"matrix"`

	// Pipeline is the rendered pipeline definition read by status.
	Pipeline string `toml:"pipeline"`

	// Lock is the DVC lock file recording the last execution.
	Lock string `toml:"lock"`

	// Output is where generate writes the materialized pipeline.
	Output string `toml:"output"`

	// Key selects what parameters are recovered from: "cmd" or "outs".
	Key string `toml:"key"`

	// Theme is the CLI color scheme: "auto", "dark" or "light".
	Theme string `toml:"theme"`

	// DVC is the dvc executable used for status queries.
	DVC string `toml:"dvc"`

	// LockTimeout bounds the wait for the output file lock.
	LockTimeout Duration `toml:"lock_timeout"`
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return d.Duration.String()
}

// Default returns the built-in configuration, matching the file names DVC
// uses.
func Default() *Config {
	return &Config{
		Matrix:      "dvc-matrix.yaml",
		Pipeline:    "dvc.yaml",
		Lock:        "dvc.lock",
		Output:      "dvc.yaml",
		Key:         "cmd",
		Theme:       "auto",
		DVC:         "dvc",
		LockTimeout: Duration{5 * time.Second},
	}
}

// Load resolves configuration for the project rooted at dir. A missing
// project file is not an error.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, FileName)
	override, err := loadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	merge(cfg, override)

	if theme := os.Getenv("DVC_MATRIX_THEME"); theme != "" {
		cfg.Theme = theme
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadFile decodes one configuration file.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// merge applies the non-zero fields of override to base.
func merge(base, override *Config) {
	if override == nil {
		return
	}
	if override.Matrix != "" {
		base.Matrix = override.Matrix
	}
	if override.Pipeline != "" {
		base.Pipeline = override.Pipeline
	}
	if override.Lock != "" {
		base.Lock = override.Lock
	}
	if override.Output != "" {
		base.Output = override.Output
	}
	if override.Key != "" {
		base.Key = override.Key
	}
	if override.Theme != "" {
		base.Theme = override.Theme
	}
	if override.DVC != "" {
		base.DVC = override.DVC
	}
	if override.LockTimeout.Duration > 0 {
		base.LockTimeout = override.LockTimeout
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Key {
	case "cmd", "outs":
	default:
		return fmt.Errorf("invalid key %q (want cmd or outs)", c.Key)
	}
	switch strings.ToLower(c.Theme) {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("invalid theme %q (want auto, dark or light)", c.Theme)
	}
	return nil
}
