// Package trash relocates files into the platform trash.
package trash

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/lian/grab/internal/fsx"
	"github.com/lian/grab/internal/pathx"
)

// ErrUnavailable wraps every failure to put a file into the trash.
var ErrUnavailable = errors.New("trash unavailable")

// Relocator moves a file into the trash and returns where it ended up (empty when
// the location is not known, e.g. for external commands).
type Relocator interface {
	Relocate(ctx context.Context, path string) (string, error)
}

func unavailable(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
}

// MacTrash renames files into ~/.Trash, the Finder trash for the boot volume.
type MacTrash struct {
	Dir string
}

func (m MacTrash) Relocate(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fi, err := os.Stat(m.Dir)
	if err != nil {
		return "", unavailable(path, err)
	}
	if !fi.IsDir() {
		return "", unavailable(path, fmt.Errorf("%s is not a directory", m.Dir))
	}
	dst := pathx.Uniquify(m.Dir, filepath.Base(path))
	if err := fsx.Rename(path, dst); err != nil {
		return "", unavailable(path, err)
	}
	return dst, nil
}

// Freedesktop implements the XDG trash layout: the file goes to Trash/files and a
// matching .trashinfo records its original path and deletion time.
type Freedesktop struct {
	// Root is the trash directory, normally $XDG_DATA_HOME/Trash.
	Root string
	Now  func() time.Time
}

func (f Freedesktop) Relocate(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", unavailable(path, err)
	}
	filesDir := filepath.Join(f.Root, "files")
	infoDir := filepath.Join(f.Root, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return "", unavailable(path, err)
		}
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	info := trashInfo(abs, now())

	stem, ext := pathx.SplitExt(filepath.Base(abs))
	for n := 0; ; n++ {
		name := stem + ext
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		dst := filepath.Join(filesDir, name)
		if _, err := os.Lstat(dst); err == nil {
			continue
		}
		infoPath := filepath.Join(infoDir, name+".trashinfo")
		fh, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", unavailable(path, err)
		}
		_, werr := fh.WriteString(info)
		if cerr := fh.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = os.Remove(infoPath)
			return "", unavailable(path, werr)
		}
		if err := fsx.Rename(abs, dst); err != nil {
			_ = os.Remove(infoPath)
			return "", unavailable(path, err)
		}
		return dst, nil
	}
}

func trashInfo(abs string, at time.Time) string {
	segs := strings.Split(abs, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		strings.Join(segs, "/"), at.Format("2006-01-02T15:04:05"))
}

// Command runs an external trash utility (e.g. "gio trash") with the path appended.
type Command struct {
	Argv []string
}

func (c Command) Relocate(ctx context.Context, path string) (string, error) {
	if len(c.Argv) == 0 {
		return "", unavailable(path, errors.New("no trash command configured"))
	}
	args := append(append([]string{}, c.Argv[1:]...), path)
	out, err := exec.CommandContext(ctx, c.Argv[0], args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return "", unavailable(path, fmt.Errorf("%s: %w", msg, err))
		}
		return "", unavailable(path, err)
	}
	return "", nil
}

// Default picks the relocator for the running platform: ~/.Trash on macOS, the
// freedesktop trash under the XDG data home elsewhere. A non-empty command
// overrides both.
func Default(home string, command []string) Relocator {
	if len(command) > 0 {
		return Command{Argv: command}
	}
	if runtime.GOOS == "darwin" {
		return MacTrash{Dir: filepath.Join(home, ".Trash")}
	}
	return Freedesktop{Root: filepath.Join(xdg.DataHome, "Trash")}
}
