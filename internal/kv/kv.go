// Package kv is the key-value persistence the grabbed-file store writes through.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/lian/grab/internal/fsx"
)

// Store is an asynchronous-friendly string key-value store.
type Store interface {
	// GetItem returns the stored value and whether the key exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}

var keyRE = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Dir stores one file per key under Root. Writes replace atomically.
type Dir struct {
	Root string
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: filepath.Clean(root)}
}

// Path returns the file backing key.
func (d *Dir) Path(key string) string {
	return filepath.Join(d.Root, key+".json")
}

func (d *Dir) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(ctx, key); err != nil {
		return "", false, err
	}
	b, err := os.ReadFile(d.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %q: %w", key, err)
	}
	return string(b), true, nil
}

func (d *Dir) SetItem(ctx context.Context, key, value string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if err := fsx.WriteFileAtomic(d.Root, key+".json", []byte(value), 0o600); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

func checkKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !keyRE.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// Memory is an in-process Store used by tests and dry runs.
type Memory struct {
	mu     sync.Mutex
	items  map[string]string
	Writes int
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	m.Writes++
	return nil
}
