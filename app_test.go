package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lian/grab/internal/config"
	"github.com/lian/grab/internal/notify"
	"github.com/lian/grab/internal/selection"
	"github.com/lian/grab/internal/transfer"
)

// fakeTrash pretends to trash files and records what it was given.
type fakeTrash struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeTrash) Relocate(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return "/trash/" + filepath.Base(path), nil
}

type testEnv struct {
	app   *app
	root  string
	trash *fakeTrash
}

// newTestEnv builds an app whose state, destination and search roots live in a
// temp dir. The file manager selection is empty.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.StateDir = filepath.Join(root, "state")
	cfg.DefaultDestination = filepath.Join(root, "dest")
	cfg.Search.Roots = []string{filepath.Join(root, "roots")}
	cfg.Search.Debounce = 0
	if err := os.MkdirAll(filepath.Join(root, "roots"), 0o755); err != nil {
		t.Fatal(err)
	}
	tr := &fakeTrash{}
	return &testEnv{
		app:   newApp(cfg, nil, selection.Static(nil), tr),
		root:  root,
		trash: tr,
	}
}

// files creates regular files under root/src and returns their paths.
func (e *testEnv) files(t *testing.T, names ...string) []string {
	t.Helper()
	dir := filepath.Join(e.root, "src")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
		out = append(out, p)
	}
	return out
}

// grab adds paths to the store and fails the test on anything but success.
func (e *testEnv) grab(t *testing.T, paths ...string) {
	t.Helper()
	_, n := e.app.grabFrom(context.Background(), selection.Static(paths), "Added")
	if n.Style != notify.Success {
		t.Fatalf("grab: %+v", n)
	}
}

func TestGrabFrom(t *testing.T) {
	env := newTestEnv(t)
	paths := env.files(t, "a.txt", "b.txt")
	ctx := context.Background()

	added, n := env.app.grabFrom(ctx, selection.Static(append(paths, env.root)), "Added")
	if added != 2 || n.Title != "Added 2 files" || n.Message != "Total: 2 grabbed files" {
		t.Fatalf("added=%d notice=%+v", added, n)
	}

	added, n = env.app.grabFrom(ctx, selection.Static(paths[:1]), "Grabbed")
	if added != 0 || n.Title != "Files already grabbed" {
		t.Fatalf("added=%d notice=%+v", added, n)
	}

	_, n = env.app.grabFrom(ctx, env.app.provider, "Grabbed")
	if n != notify.NoSelection() {
		t.Fatalf("empty selection notice = %+v", n)
	}

	_, n = env.app.grabFrom(ctx, selection.Static([]string{env.root}), "Grabbed")
	if n != notify.NoSelection() {
		t.Fatalf("directory-only selection notice = %+v", n)
	}
}

func TestGrabPersistsAcrossApps(t *testing.T) {
	env := newTestEnv(t)
	env.grab(t, env.files(t, "a.txt")...)

	other := newApp(env.app.cfg, nil, selection.Static(nil), env.trash)
	if n, ok := other.load(context.Background()); !ok {
		t.Fatalf("load: %+v", n)
	}
	if other.store.Len() != 1 {
		t.Fatalf("len = %d", other.store.Len())
	}
}

func TestLoadCorruptKeepsRunning(t *testing.T) {
	env := newTestEnv(t)
	if err := os.MkdirAll(filepath.Dir(env.app.statePath()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.app.statePath(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	n, ok := env.app.load(context.Background())
	if ok || n != notify.StoreCorrupt() {
		t.Fatalf("ok=%v notice=%+v", ok, n)
	}
	if env.app.store.Len() != 0 {
		t.Fatal("store should stay empty")
	}
}

func TestTransferToDefaultDestination(t *testing.T) {
	env := newTestEnv(t)
	env.grab(t, env.files(t, "a.txt", "b.txt")...)

	res, n := env.app.transfer(context.Background(), transfer.Move, "", nil)
	if res.Success != 2 || n.Title != "Moved 2 files" || n.Message != "All files moved successfully" {
		t.Fatalf("res=%+v notice=%+v", res, n)
	}
	if _, err := os.Stat(filepath.Join(env.root, "dest", "a.txt")); err != nil {
		t.Fatalf("moved file missing: %v", err)
	}
	if env.app.store.Len() != 0 {
		t.Fatal("store should be cleared after a move")
	}

	_, n = env.app.transfer(context.Background(), transfer.Copy, "", nil)
	if n.Title != "No files to copy" || n.Style != notify.Failure {
		t.Fatalf("empty notice = %+v", n)
	}
}

func TestTransferBadDestination(t *testing.T) {
	env := newTestEnv(t)
	env.grab(t, env.files(t, "a.txt")...)
	blocker := filepath.Join(env.root, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, n := env.app.transfer(context.Background(), transfer.Copy, blocker, nil)
	if n.Title != "Error copying files" {
		t.Fatalf("notice = %+v", n)
	}
}

func TestCopyPaths(t *testing.T) {
	env := newTestEnv(t)
	paths := env.files(t, "a.txt", "b.txt")
	env.grab(t, paths...)

	var got string
	orig := clipboardWrite
	clipboardWrite = func(s string) error { got = s; return nil }
	t.Cleanup(func() { clipboardWrite = orig })

	n := env.app.copyPaths()
	if n.Title != "Copied 2 paths" {
		t.Fatalf("notice = %+v", n)
	}
	if got != strings.Join(paths, "\n") {
		t.Fatalf("clipboard = %q", got)
	}
}

func TestOpen(t *testing.T) {
	env := newTestEnv(t)
	var opened string
	orig := openCommand
	t.Cleanup(func() { openCommand = orig })

	openCommand = func(path string) *exec.Cmd {
		opened = path
		return exec.Command("true")
	}
	if n := env.app.open(""); n.Style != notify.Info || opened != env.app.cfg.Destination() {
		t.Fatalf("notice=%+v opened=%q", n, opened)
	}

	openCommand = func(string) *exec.Cmd { return exec.Command("false") }
	if n := env.app.open("/nowhere"); n != notify.OpenFailed() {
		t.Fatalf("notice = %+v", n)
	}
}
