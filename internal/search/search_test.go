package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/language"
)

func mkdirs(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, r := range rels {
		if err := os.MkdirAll(filepath.Join(root, r), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", r, err)
		}
	}
}

func names(cs []FolderCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func newTestEngine(root string, limit int) *Engine {
	return NewEngine(Options{Home: root, Roots: []string{root}, Limit: limit})
}

func TestSearch_ExactMatchFirst(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "Downloads", "projects/down", "notes/Markdown", "Desktop")

	got, err := newTestEngine(root, 0).Search(context.Background(), "down")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"down", "Downloads", "Markdown"}
	if fmt.Sprint(names(got)) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", names(got), want)
	}
	if got[0].Path != filepath.Join(root, "projects", "down") || got[0].Depth != 1 || !got[0].IsDirectory {
		t.Fatalf("unexpected candidate: %+v", got[0])
	}
}

func TestSearch_CaseInsensitiveExact(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "aDOWNz", "DOWN")
	got, _ := newTestEngine(root, 0).Search(context.Background(), "down")
	if len(got) != 2 || got[0].Name != "DOWN" {
		t.Fatalf("got %v", names(got))
	}
}

func TestSearch_DepthBound(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "x0/x1/x2/x3/x4/x5")

	got, err := newTestEngine(root, 0).Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fmt.Sprint(names(got)) != "[x0 x1 x2 x3]" {
		t.Fatalf("got %v", names(got))
	}
	for _, c := range got {
		if c.Depth > DefaultMaxDepth {
			t.Fatalf("candidate beyond depth bound: %+v", c)
		}
	}
}

func TestSearch_RecursesThroughNonMatchingDirs(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "alpha/beta/target")
	got, _ := newTestEngine(root, 0).Search(context.Background(), "target")
	if len(got) != 1 || got[0].Depth != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestSearch_SkipsFiles(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "match-dir")
	if err := os.WriteFile(filepath.Join(root, "match.txt"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, _ := newTestEngine(root, 0).Search(context.Background(), "match")
	if fmt.Sprint(names(got)) != "[match-dir]" {
		t.Fatalf("got %v", names(got))
	}
}

func TestSearch_FollowsDirectorySymlinksAndSkipsBrokenOnes(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "real")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link-real")); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}
	_ = os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "link-broken"))

	got, _ := newTestEngine(root, 0).Search(context.Background(), "link")
	if fmt.Sprint(names(got)) != "[link-real]" {
		t.Fatalf("got %v", names(got))
	}
}

func TestSearch_ResultCap(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 60; i++ {
		mkdirs(t, root, fmt.Sprintf("dir%02d/sub", i))
	}

	got, err := newTestEngine(root, 0).Search(context.Background(), "dir")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != DefaultLimit {
		t.Fatalf("len = %d, want %d", len(got), DefaultLimit)
	}

	got, _ = newTestEngine(root, 5).Search(context.Background(), "dir")
	if fmt.Sprint(names(got)) != "[dir00 dir01 dir02 dir03 dir04]" {
		t.Fatalf("got %v", names(got))
	}
}

func TestSearch_UnreadableDirectoryIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	mkdirs(t, root, "locked/hidden-target", "open/visible-target")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	got, err := newTestEngine(root, 0).Search(context.Background(), "target")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fmt.Sprint(names(got)) != "[visible-target]" {
		t.Fatalf("got %v", names(got))
	}
}

func TestSearch_RootsVisitedOnce(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "music", "a/music-old")
	e := NewEngine(Options{Home: root, Roots: []string{root, root, filepath.Join(root, "missing")}})

	got, _ := e.Search(context.Background(), "music")
	if fmt.Sprint(names(got)) != "[music music-old]" {
		t.Fatalf("got %v", names(got))
	}
}

func TestSearch_Cancelled(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestEngine(root, 0).Search(ctx, "a"); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestSearch_BlankQueryListsCommonFolders(t *testing.T) {
	home := t.TempDir()
	mkdirs(t, home, "Desktop", "my docs")

	got, err := newTestEngine(home, 0).Search(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, c := range got {
		if c.Name == "my docs" {
			t.Fatalf("blank query matched %q as a substring", c.Name)
		}
	}
	if len(got) == 0 || got[0].Path != filepath.Join(home, "Desktop") {
		t.Fatalf("got %v", names(got))
	}

	got, err = newTestEngine(home, 0).Search(context.Background(), "y d")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fmt.Sprint(names(got)) != "[my docs]" {
		t.Fatalf("inner spaces are literal, got %v", names(got))
	}
}

func TestCommonFolders_OnlyExistingOnce(t *testing.T) {
	home := t.TempDir()
	mkdirs(t, home, "Desktop", "Downloads")
	if err := os.WriteFile(filepath.Join(home, "Music"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	e := NewEngine(Options{Home: home, Roots: []string{home}})
	got, err := e.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	seen := map[string]bool{}
	for _, c := range got {
		if seen[c.Path] {
			t.Fatalf("duplicate %q", c.Path)
		}
		seen[c.Path] = true
		if fi, err := os.Stat(c.Path); err != nil || !fi.IsDir() {
			t.Fatalf("candidate %q does not exist", c.Path)
		}
		if c.Name == "Music" || c.Name == "Documents" {
			t.Fatalf("unexpected %q", c.Name)
		}
	}
	for _, want := range []string{filepath.Join(home, "Desktop"), filepath.Join(home, "Downloads"), home} {
		if !seen[want] {
			t.Fatalf("missing %q in %v", want, names(got))
		}
	}
}

func TestRank_LocaleOrder(t *testing.T) {
	cs := []FolderCandidate{{Name: "cherry"}, {Name: "Banana"}, {Name: "apple"}, {Name: "Apple", Path: "/x"}}
	Rank(cs, "apple", language.Und)
	got := names(cs)
	if got[2] != "Banana" || got[3] != "cherry" {
		t.Fatalf("got %v", got)
	}
	if got[0] != "apple" && got[0] != "Apple" {
		t.Fatalf("exact matches must come first: %v", got)
	}
}

func TestRank_ExactBeforeAlphabetical(t *testing.T) {
	cs := []FolderCandidate{{Name: "abc"}, {Name: "zz"}, {Name: "zzz"}}
	Rank(cs, "ZZ", language.Und)
	if fmt.Sprint(names(cs)) != "[zz abc zzz]" {
		t.Fatalf("got %v", names(cs))
	}
}
