package main

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/lian/grab/internal/config"
	"github.com/lian/grab/internal/grab"
	"github.com/lian/grab/internal/kv"
	"github.com/lian/grab/internal/notify"
	"github.com/lian/grab/internal/pathx"
	"github.com/lian/grab/internal/search"
	"github.com/lian/grab/internal/selection"
	"github.com/lian/grab/internal/transfer"
	"github.com/lian/grab/internal/trash"
)

// app wires the core packages together. Both the command line and the terminal UI
// drive it; every user visible outcome comes back as a notify.Notice.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	kv       *kv.Dir
	store    *grab.Store
	engine   *transfer.Engine
	folders  *search.Engine
	provider selection.Provider
}

// Seams for the desktop integrations; tests replace them.
var (
	openCommand = func(path string) *exec.Cmd {
		if runtime.GOOS == "darwin" {
			return exec.Command("open", path)
		}
		return exec.Command("xdg-open", path)
	}
	clipboardWrite = clipboard.WriteAll
)

func newApp(cfg config.Config, log *zap.Logger, provider selection.Provider, relocator trash.Relocator) *app {
	if log == nil {
		log = zap.NewNop()
	}
	dir := kv.NewDir(cfg.State())
	store := grab.NewStore(dir, log.Named("store"))
	if relocator == nil {
		relocator = trash.Default(pathx.HomeDir(), cfg.Transfer.Trash)
	}
	return &app{
		cfg:   cfg,
		log:   log,
		kv:    dir,
		store: store,
		engine: transfer.New(store, transfer.Options{
			Trash:      relocator,
			KeepFailed: cfg.Transfer.KeepFailed,
			Log:        log.Named("transfer"),
		}),
		folders: search.NewEngine(search.Options{
			Roots:    cfg.Roots(),
			MaxDepth: cfg.Search.MaxDepth,
			Limit:    cfg.Search.Limit,
			Locale:   cfg.Locale(),
			Log:      log.Named("search"),
		}),
		provider: provider,
	}
}

// statePath is the file the grabbed set lives in.
func (a *app) statePath() string {
	return a.kv.Path(grab.StorageKey)
}

// load reads the persisted set. A damaged file is logged and reported, and the
// current (possibly empty) set is kept.
func (a *app) load(ctx context.Context) (notify.Notice, bool) {
	if err := a.store.Load(ctx); err != nil {
		a.log.Error("load grabbed files", zap.String("path", a.statePath()), zap.Error(err))
		if grab.IsCorrupt(err) {
			return notify.StoreCorrupt(), false
		}
		return notify.Notice{Style: notify.Failure, Title: "Could not read grabbed files", Message: err.Error()}, false
	}
	return notify.Notice{}, true
}

// grabFrom adds the regular files selected in p. verb is "Grabbed" for the quick
// path and "Added" for an explicit add.
func (a *app) grabFrom(ctx context.Context, p selection.Provider, verb string) (int, notify.Notice) {
	batch, err := selection.Collect(ctx, p, a.log)
	if err != nil {
		if errors.Is(err, selection.ErrNoSelection) {
			return 0, notify.NoSelection()
		}
		a.log.Warn("read selection", zap.Error(err))
		return 0, notify.GrabFailed(verb)
	}
	if batch.Skipped > 0 {
		a.log.Info("skipped selected items", zap.Int("skipped", batch.Skipped))
	}
	if len(batch.Records) == 0 {
		return 0, notify.NoSelection()
	}

	added, err := a.store.Add(ctx, batch.Records)
	if err != nil {
		a.log.Error("save grabbed files", zap.Error(err))
		return 0, notify.GrabFailed(verb)
	}
	return len(added), notify.Grabbed(verb, len(added), a.store.Len())
}

func (a *app) remove(ctx context.Context, path string) notify.Notice {
	removed, err := a.store.Remove(ctx, path)
	if err != nil {
		a.log.Error("remove grabbed file", zap.String("path", path), zap.Error(err))
		return notify.Notice{Style: notify.Failure, Title: "Error removing file", Message: err.Error()}
	}
	if !removed {
		return notify.Notice{Style: notify.Failure, Title: "File not grabbed", Message: path}
	}
	return notify.Removed()
}

func (a *app) clear(ctx context.Context) notify.Notice {
	if err := a.store.Clear(ctx); err != nil {
		a.log.Error("clear grabbed files", zap.Error(err))
		return notify.Notice{Style: notify.Failure, Title: "Error clearing files", Message: err.Error()}
	}
	return notify.Cleared()
}

// destination resolves an explicit destination or falls back to the configured one.
func (a *app) destination(dest string) string {
	if strings.TrimSpace(dest) == "" {
		return a.cfg.Destination()
	}
	return dest
}

// transfer runs op and turns the outcome into a notice. A run that completed but
// could not persist the updated set still reports its counts.
func (a *app) transfer(ctx context.Context, op transfer.Op, dest string, obs transfer.Observer) (transfer.Result, notify.Notice) {
	if op != transfer.Trash {
		dest = a.destination(dest)
	}
	res, err := a.engine.Run(ctx, op, dest, obs)
	if err != nil {
		// Without items nothing was attempted: no files, busy, or a bad destination.
		if res.Items == nil {
			return res, notify.TransferFailed(op, err)
		}
		a.log.Error("transfer bookkeeping", zap.Error(err))
	}
	return res, notify.Transferred(res)
}

// open shows path (or the default destination) in the desktop file manager.
func (a *app) open(path string) notify.Notice {
	if path == "" {
		path = a.cfg.Destination()
	} else {
		path = pathx.ExpandHome(path)
	}
	if err := openCommand(path).Run(); err != nil {
		a.log.Warn("open destination", zap.String("path", path), zap.Error(err))
		return notify.OpenFailed()
	}
	return notify.Notice{Style: notify.Info, Title: "Opened", Message: path}
}

// copyPaths puts the grabbed paths on the clipboard, one per line.
func (a *app) copyPaths() notify.Notice {
	files := a.store.Snapshot()
	if len(files) == 0 {
		return notify.Notice{Style: notify.Failure, Title: "No files grabbed", Message: "Please grab some files first"}
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	if err := clipboardWrite(strings.Join(paths, "\n")); err != nil {
		a.log.Warn("clipboard", zap.Error(err))
		return notify.Notice{Style: notify.Failure, Title: "Clipboard unavailable", Message: err.Error()}
	}
	return notify.CopiedPaths(len(paths))
}
