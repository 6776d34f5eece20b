// Package pathx resolves user supplied paths and picks collision free file names.
package pathx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// homeDirFunc is swapped in tests to simulate an undeterminable home directory.
var homeDirFunc = userHomeDir

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

// HomeDir returns the current user's home directory, or "" if it cannot be determined.
func HomeDir() string {
	return homeDirFunc()
}

// ExpandHome replaces a leading "~" with the home directory.
//
// Only the first character is substituted, so "~foo" becomes "<home>foo". When the
// home directory is unknown the "~" is replaced by the empty string.
func ExpandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	return homeDirFunc() + p[1:]
}

// Normalize expands "~", cleans the path and makes it absolute. Surrounding spaces
// are part of the file name and are kept.
func Normalize(p string) (string, error) {
	p = ExpandHome(p)
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return abs, nil
}

// SplitExt splits a file name into stem and extension ("a.tar.gz" -> "a.tar", ".gz").
func SplitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// Uniquify returns destDir/fileName if nothing exists there, otherwise the first free
// "name (N).ext" with N counting up from 1.
//
// The loop has no upper bound; it ends as soon as the filesystem reports a free name.
func Uniquify(destDir, fileName string) string {
	candidate := filepath.Join(destDir, fileName)
	if !exists(candidate) {
		return candidate
	}
	stem, ext := SplitExt(fileName)
	for n := 1; ; n++ {
		candidate = filepath.Join(destDir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}

// exists uses Lstat so a dangling symlink still occupies its name.
func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
