package grab

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecordFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "note.md")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := RecordFromPath(p)
	if err != nil {
		t.Fatalf("RecordFromPath: %v", err)
	}
	if r.Path != p || r.Name != "note.md" || r.Size != 5 || r.ModifiedAt.IsZero() {
		t.Fatalf("unexpected record: %+v", r)
	}

	if _, err := RecordFromPath(dir); err == nil {
		t.Fatalf("directories must be rejected")
	}
	if _, err := RecordFromPath(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("missing files must be rejected")
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5 MB"},
		{3 * 1024 * 1024 * 1024, "3 GB"},
	}
	for _, c := range cases {
		if got := FormatSize(c.in); got != c.want {
			t.Fatalf("FormatSize(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTotalSize(t *testing.T) {
	if got := TotalSize([]FileRecord{{Size: 2}, {Size: 40}}); got != 42 {
		t.Fatalf("got %d", got)
	}
}

func TestRecordFromPath_RejectsInvalidUTF8(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad\xffname.txt")
	// Some filesystems refuse the name; the record must be rejected either way.
	_ = os.WriteFile(p, []byte("x"), 0o644)

	if _, err := RecordFromPath(p); err == nil {
		t.Fatalf("expected an error for %q", p)
	}
}
