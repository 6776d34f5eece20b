// Package grab owns the persistent, ordered set of grabbed files.
package grab

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// FileRecord is one grabbed file. Two records are the same file iff their Path
// strings are byte-identical.
type FileRecord struct {
	Path       string
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// RecordFromPath stats p and builds a record for it. Only regular files (after
// following symlinks) qualify, and p must be valid UTF-8 so it survives the JSON
// state file unchanged.
func RecordFromPath(p string) (FileRecord, error) {
	if !utf8.ValidString(p) {
		return FileRecord{}, fmt.Errorf("%q is not a valid UTF-8 path", p)
	}
	info, err := os.Stat(p)
	if err != nil {
		return FileRecord{}, err
	}
	if !info.Mode().IsRegular() {
		return FileRecord{}, fmt.Errorf("%q is not a regular file", p)
	}
	return FileRecord{
		Path:       p,
		Name:       filepath.Base(p),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// TotalSize sums the sizes of records.
func TotalSize(records []FileRecord) int64 {
	var n int64
	for _, r := range records {
		n += r.Size
	}
	return n
}

// FormatSize renders a byte count as "0 B", "512 B", "1.5 KB", "3 MB", ...
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	s := fmt.Sprintf("%.1f", v)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		s = s[:len(s)-2]
	}
	return s + " " + units[i]
}
