// Package selection reads the file manager's current selection and turns it into
// grabbable records.
package selection

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/lian/grab/internal/grab"
	"github.com/lian/grab/internal/pathx"
)

// ErrNoSelection is returned when the file manager has nothing selected.
var ErrNoSelection = errors.New("no items selected")

// ErrUnsupported is returned by providers that cannot run on this platform.
var ErrUnsupported = errors.New("file manager selection is not available on this platform")

// Provider returns the paths currently selected in a file manager.
type Provider interface {
	Selected(ctx context.Context) ([]string, error)
}

// Static is a Provider over a fixed list of paths, e.g. command line arguments.
type Static []string

func (s Static) Selected(context.Context) ([]string, error) {
	if len(s) == 0 {
		return nil, ErrNoSelection
	}
	return []string(s), nil
}

// finderScript prints one POSIX path per selected Finder item.
const finderScript = `tell application "Finder"
	set out to ""
	repeat with i in (get selection)
		set out to out & POSIX path of (i as alias) & linefeed
	end repeat
	return out
end tell`

// commandFunc builds the osascript invocation; tests replace it.
var commandFunc = func(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, "osascript", "-e", finderScript)
}

// Finder asks macOS Finder for its selection through osascript.
type Finder struct{}

func (Finder) Selected(ctx context.Context) ([]string, error) {
	if runtime.GOOS != "darwin" {
		return nil, ErrUnsupported
	}
	return runSelectionCommand(commandFunc(ctx))
}

func runSelectionCommand(cmd *exec.Cmd) ([]string, error) {
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("finder selection: %s: %w", strings.TrimSpace(string(ee.Stderr)), err)
		}
		return nil, fmt.Errorf("finder selection: %w", err)
	}
	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSuffix(line, "\r"); line != "" {
			paths = append(paths, line)
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoSelection
	}
	return paths, nil
}

// Default returns the platform's selection provider.
func Default() Provider {
	return Finder{}
}

// Batch is the outcome of reading a selection.
type Batch struct {
	Records []grab.FileRecord
	// Skipped counts selected items that were not regular files or could not be read.
	Skipped int
}

// Collect reads p's selection and builds a record for every regular file in it.
// Items that are directories or inaccessible are skipped without aborting the
// batch. A provider failure is returned as the error with an empty batch; callers
// treat it as "nothing selected".
func Collect(ctx context.Context, p Provider, log *zap.Logger) (Batch, error) {
	if log == nil {
		log = zap.NewNop()
	}
	raw, err := p.Selected(ctx)
	if err != nil {
		log.Debug("selection unavailable", zap.Error(err))
		return Batch{}, err
	}

	var b Batch
	for _, item := range raw {
		path, err := pathx.Normalize(item)
		if err != nil {
			b.Skipped++
			log.Debug("skip selected item", zap.String("path", item), zap.Error(err))
			continue
		}
		r, err := grab.RecordFromPath(path)
		if err != nil {
			b.Skipped++
			log.Debug("skip selected item", zap.String("path", path), zap.Error(err))
			continue
		}
		b.Records = append(b.Records, r)
	}
	return b, nil
}
