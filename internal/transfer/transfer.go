// Package transfer moves, copies or trashes the whole grabbed set in one batch.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lian/grab/internal/fsx"
	"github.com/lian/grab/internal/grab"
	"github.com/lian/grab/internal/pathx"
	"github.com/lian/grab/internal/trash"
)

// Op is the kind of batch operation.
type Op int

const (
	Move Op = iota
	Copy
	Trash
)

func (o Op) String() string {
	switch o {
	case Move:
		return "move"
	case Copy:
		return "copy"
	case Trash:
		return "trash"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// ParseOp parses "move", "copy" or "trash".
func ParseOp(s string) (Op, error) {
	switch s {
	case "move":
		return Move, nil
	case "copy":
		return Copy, nil
	case "trash":
		return Trash, nil
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

// State is a step of a batch run.
type State int

const (
	Idle State = iota
	Resolving
	Ensuring
	Transferring
	Finalizing
	Reported
)

func (s State) String() string {
	return [...]string{"idle", "resolving", "ensuring", "transferring", "finalizing", "reported"}[s]
}

// Event is delivered to an Observer as a run progresses. Item is set for each
// finished file while Transferring.
type Event struct {
	State State
	Index int
	Total int
	Item  *ItemResult
}

// Observer receives progress events. It is called on the goroutine running Run.
type Observer func(Event)

// Per-file failure kinds.
const (
	KindMissing     = "source_missing"
	KindIO          = "io"
	KindCrossDevice = "cross_device"
	KindTrash       = "trash_unavailable"
	KindCancelled   = "cancelled"
)

// FileError is a per-file failure. It never aborts the batch.
type FileError struct {
	Kind string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %q: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// DestinationError means the destination directory could not be created. The run
// is aborted before any file is touched.
type DestinationError struct {
	Path string
	Err  error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("destination %q: %v", e.Path, e.Err)
}

func (e *DestinationError) Unwrap() error { return e.Err }

var (
	// ErrBusy is returned when a run starts while another one is in flight.
	ErrBusy = errors.New("a transfer is already running")
	// ErrNothingToTransfer is returned when no files are grabbed.
	ErrNothingToTransfer = errors.New("no files grabbed")
)

// ItemResult is the outcome for one record. Err is a *FileError or nil.
type ItemResult struct {
	Record grab.FileRecord
	Target string
	Err    error
}

// Result aggregates a run.
type Result struct {
	Op          Op
	Destination string
	Success     int
	Failed      int
	Items       []ItemResult
	// Remaining is the number of records left grabbed after the run.
	Remaining int
}

// Options configures an Engine.
type Options struct {
	Trash trash.Relocator
	// KeepFailed keeps records that failed to move or trash (and still exist)
	// instead of clearing the whole set after a partially successful run.
	KeepFailed bool
	Log        *zap.Logger
}

// Engine runs batch operations against a Store.
type Engine struct {
	store      *grab.Store
	trash      trash.Relocator
	keepFailed bool
	log        *zap.Logger

	running sync.Mutex
}

// New returns an Engine operating on store.
func New(store *grab.Store, opts Options) *Engine {
	e := &Engine{store: store, trash: opts.Trash, keepFailed: opts.KeepFailed, log: opts.Log}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Run executes op over the current grabbed set. destination is ignored for Trash.
//
// Every file is attempted independently; failures are counted in the result. After
// a Move or Trash with at least one success the grabbed set is cleared (or reduced
// to the failed records with KeepFailed). Copy never changes the set.
func (e *Engine) Run(ctx context.Context, op Op, destination string, obs Observer) (Result, error) {
	if !e.running.TryLock() {
		return Result{}, ErrBusy
	}
	defer e.running.Unlock()

	if obs == nil {
		obs = func(Event) {}
	}
	start := time.Now()
	res := Result{Op: op}

	records := e.store.Snapshot()
	if len(records) == 0 {
		return res, ErrNothingToTransfer
	}

	obs(Event{State: Resolving, Total: len(records)})
	if op != Trash {
		res.Destination = pathx.ExpandHome(destination)

		obs(Event{State: Ensuring, Total: len(records)})
		if err := ensureDir(res.Destination); err != nil {
			e.log.Error("destination unresolvable", zap.String("destination", res.Destination), zap.Error(err))
			res.Remaining = len(records)
			return res, &DestinationError{Path: res.Destination, Err: err}
		}
	} else if e.trash == nil {
		res.Remaining = len(records)
		return res, fmt.Errorf("%w: no relocator configured", trash.ErrUnavailable)
	}

	res.Items = make([]ItemResult, 0, len(records))
	for i, r := range records {
		item := ItemResult{Record: r}
		if err := ctx.Err(); err != nil {
			item.Err = &FileError{Kind: KindCancelled, Path: r.Path, Err: err}
		} else {
			item.Target, item.Err = e.transferOne(ctx, op, res.Destination, r)
		}
		if item.Err != nil {
			res.Failed++
			e.log.Warn("transfer failed", zap.Stringer("op", op), zap.String("path", r.Path), zap.Error(item.Err))
		} else {
			res.Success++
			e.log.Debug("transferred", zap.Stringer("op", op), zap.String("path", r.Path), zap.String("target", item.Target))
		}
		res.Items = append(res.Items, item)
		obs(Event{State: Transferring, Index: i, Total: len(records), Item: &res.Items[len(res.Items)-1]})
	}

	obs(Event{State: Finalizing, Total: len(records)})
	// Files already moved must leave the set even when the run was cancelled.
	err := e.finalize(context.WithoutCancel(ctx), &res)

	obs(Event{State: Reported, Total: len(records)})
	e.log.Info("transfer finished",
		zap.Stringer("op", op),
		zap.String("destination", res.Destination),
		zap.Int("success", res.Success),
		zap.Int("failed", res.Failed),
		zap.Int("remaining", res.Remaining),
		zap.Duration("took", time.Since(start)),
	)
	return res, err
}

func ensureDir(dir string) error {
	if dir == "" {
		return errors.New("empty destination")
	}
	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return errors.New("not a directory")
		}
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (e *Engine) transferOne(ctx context.Context, op Op, dest string, r grab.FileRecord) (string, error) {
	if _, err := os.Stat(r.Path); err != nil {
		return "", &FileError{Kind: KindMissing, Path: r.Path, Err: err}
	}

	switch op {
	case Trash:
		target, err := e.trash.Relocate(ctx, r.Path)
		if err != nil {
			return "", &FileError{Kind: KindTrash, Path: r.Path, Err: err}
		}
		return target, nil
	case Move:
		target := pathx.Uniquify(dest, r.Name)
		if err := fsx.Rename(r.Path, target); err != nil {
			kind := KindIO
			if fsx.IsCrossDevice(err) {
				kind = KindCrossDevice
			}
			return "", &FileError{Kind: kind, Path: r.Path, Err: err}
		}
		return target, nil
	case Copy:
		target := pathx.Uniquify(dest, r.Name)
		if err := fsx.CopyFile(r.Path, target); err != nil {
			return "", &FileError{Kind: KindIO, Path: r.Path, Err: err}
		}
		return target, nil
	}
	return "", &FileError{Kind: KindIO, Path: r.Path, Err: fmt.Errorf("unsupported operation %v", op)}
}

func (e *Engine) finalize(ctx context.Context, res *Result) error {
	if res.Op == Copy || res.Success == 0 {
		res.Remaining = e.store.Len()
		return nil
	}

	var err error
	if e.keepFailed {
		var keep []grab.FileRecord
		for _, it := range res.Items {
			if it.Err == nil {
				continue
			}
			if _, statErr := os.Stat(it.Record.Path); statErr == nil {
				keep = append(keep, it.Record)
			}
		}
		err = e.store.Replace(ctx, keep)
	} else {
		err = e.store.Clear(ctx)
	}
	res.Remaining = e.store.Len()
	if err != nil {
		return fmt.Errorf("update grabbed files: %w", err)
	}
	return nil
}
