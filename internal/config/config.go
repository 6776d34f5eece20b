// Package config loads user preferences from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/lian/grab/internal/pathx"
)

// ErrCodeInvalid means the config file could not be read or has a bad field.
const ErrCodeInvalid = "config_invalid"

const (
	DefaultDestination = "~/Desktop"
	DefaultStateDir    = "~/.local/state/grab"
	DefaultMaxDepth    = 3
	DefaultLimit       = 50
	DefaultDebounce    = 150 * time.Millisecond
)

// Error is a structured config error.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: config file %q: %v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: config file %q", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

type Search struct {
	Roots    []string      `yaml:"roots"`
	MaxDepth int           `yaml:"max_depth"`
	Limit    int           `yaml:"limit"`
	Locale   string        `yaml:"locale"`
	Debounce time.Duration `yaml:"debounce"`
}

type Transfer struct {
	KeepFailed bool `yaml:"keep_failed"`
	// Trash overrides the platform trash with an external command, e.g. ["trash-put"].
	Trash []string `yaml:"trash_command"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the effective configuration. Paths are stored as written; use the
// accessor methods for expanded values.
type Config struct {
	DefaultDestination string   `yaml:"default_destination"`
	StateDir           string   `yaml:"state_dir"`
	Search             Search   `yaml:"search"`
	Transfer           Transfer `yaml:"transfer"`
	Log                Log      `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DefaultDestination: DefaultDestination,
		StateDir:           DefaultStateDir,
		Search: Search{
			MaxDepth: DefaultMaxDepth,
			Limit:    DefaultLimit,
			Locale:   "und",
			Debounce: DefaultDebounce,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// DefaultPath returns grab/config.yaml under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "grab", "config.yaml")
}

// Load reads path on top of the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Default(), &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	if err := cfg.validate(); err != nil {
		return Default(), &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Search.MaxDepth < 1 {
		return fmt.Errorf("search.max_depth must be >= 1, got %d", c.Search.MaxDepth)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be > 0, got %d", c.Search.Limit)
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("search.debounce must be >= 0, got %s", c.Search.Debounce)
	}
	if _, err := language.Parse(c.Search.Locale); err != nil {
		return fmt.Errorf("search.locale: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// Destination returns the default destination with "~" expanded.
func (c Config) Destination() string {
	return pathx.ExpandHome(c.DefaultDestination)
}

// State returns the state directory with "~" expanded.
func (c Config) State() string {
	return pathx.ExpandHome(c.StateDir)
}

// LogFile is where the log is written when the terminal UI owns stdout.
func (c Config) LogFile() string {
	return filepath.Join(c.State(), "grab.log")
}

// Locale returns the parsed collation locale.
func (c Config) Locale() language.Tag {
	tag, err := language.Parse(c.Search.Locale)
	if err != nil {
		return language.Und
	}
	return tag
}

// Roots returns the configured search roots with "~" expanded, or nil for the defaults.
func (c Config) Roots() []string {
	if len(c.Search.Roots) == 0 {
		return nil
	}
	out := make([]string, len(c.Search.Roots))
	for i, r := range c.Search.Roots {
		out[i] = pathx.ExpandHome(r)
	}
	return out
}
