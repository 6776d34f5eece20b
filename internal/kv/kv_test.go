package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDir_GetMissingKey(t *testing.T) {
	d := NewDir(t.TempDir())
	v, ok, err := d.GetItem(context.Background(), "grabbedFiles")
	if err != nil || ok || v != "" {
		t.Fatalf("got %q %v %v", v, ok, err)
	}
}

func TestDir_SetThenGet(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "state")
	d := NewDir(root)
	ctx := context.Background()

	if err := d.SetItem(ctx, "grabbedFiles", `[]`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	v, ok, err := d.GetItem(ctx, "grabbedFiles")
	if err != nil || !ok || v != `[]` {
		t.Fatalf("got %q %v %v", v, ok, err)
	}
	fi, err := os.Stat(d.Path("grabbedFiles"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v", fi.Mode().Perm())
	}
}

func TestDir_RejectsBadKeys(t *testing.T) {
	d := NewDir(t.TempDir())
	for _, k := range []string{"", "../x", "a/b"} {
		if err := d.SetItem(context.Background(), k, "v"); err == nil {
			t.Fatalf("expected error for key %q", k)
		}
	}
}

func TestDir_CancelledContext(t *testing.T) {
	d := NewDir(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.SetItem(ctx, "k", "v"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMemory_CountsWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.SetItem(ctx, "k", "a")
	_ = m.SetItem(ctx, "k", "b")
	v, ok, _ := m.GetItem(ctx, "k")
	if !ok || v != "b" || m.Writes != 2 {
		t.Fatalf("got %q %v writes=%d", v, ok, m.Writes)
	}
}
