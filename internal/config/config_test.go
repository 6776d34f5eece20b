package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultDestination != DefaultDestination || cfg.Search.MaxDepth != 3 || cfg.Search.Limit != 50 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Search.Debounce != 150*time.Millisecond {
		t.Fatalf("debounce = %s", cfg.Search.Debounce)
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StateDir != DefaultStateDir {
		t.Fatalf("state_dir = %q", cfg.StateDir)
	}
}

func TestLoad_Overrides(t *testing.T) {
	p := writeConfig(t, `
default_destination: ~/Inbox
search:
  roots: [~/code, /srv]
  max_depth: 5
  debounce: 300ms
  locale: de
transfer:
  keep_failed: true
  trash_command: [trash-put]
log:
  level: debug
  format: console
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultDestination != "~/Inbox" || cfg.Search.MaxDepth != 5 || !cfg.Transfer.KeepFailed {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Search.Limit != DefaultLimit {
		t.Fatalf("unset limit should keep default, got %d", cfg.Search.Limit)
	}
	if cfg.Search.Debounce != 300*time.Millisecond {
		t.Fatalf("debounce = %s", cfg.Search.Debounce)
	}
	if cfg.Locale().String() != "de" {
		t.Fatalf("locale = %v", cfg.Locale())
	}
	if len(cfg.Transfer.Trash) != 1 || cfg.Transfer.Trash[0] != "trash-put" {
		t.Fatalf("trash = %v", cfg.Transfer.Trash)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "search: [unterminated"},
		{"unknown field", "destinaton: ~/x"},
		{"negative depth", "search:\n  max_depth: -1"},
		{"zero depth", "search:\n  max_depth: 0"},
		{"zero limit", "search:\n  limit: 0"},
		{"bad level", "log:\n  level: loud"},
		{"bad duration", "search:\n  debounce: soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeConfig(t, tt.content)
			cfg, err := Load(p)
			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if ce.Code != ErrCodeInvalid || ce.Path != p {
				t.Fatalf("err = %+v", ce)
			}
			if cfg.Search.Limit != DefaultLimit {
				t.Fatalf("invalid file must yield defaults, got %+v", cfg)
			}
		})
	}
}

func TestAccessorsExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := Default()
	cfg.Search.Roots = []string{"~/a", "/b"}
	if got := cfg.Destination(); got != filepath.Join(home, "Desktop") {
		t.Fatalf("Destination = %q", got)
	}
	if got := cfg.LogFile(); got != filepath.Join(home, ".local", "state", "grab", "grab.log") {
		t.Fatalf("LogFile = %q", got)
	}
	roots := cfg.Roots()
	if roots[0] != filepath.Join(home, "a") || roots[1] != "/b" {
		t.Fatalf("Roots = %v", roots)
	}
	if Default().Roots() != nil {
		t.Fatal("default roots should be nil")
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	if got := DefaultPath(); got != "/cfg/grab/config.yaml" {
		t.Fatalf("DefaultPath = %q", got)
	}
}
