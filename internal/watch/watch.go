// Package watch reports when a single file is replaced by another process.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events an atomic replace produces.
const DefaultDebounce = 100 * time.Millisecond

// Event says the watched file changed.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher watches one file. The parent directory is watched so that atomic
// rename-over writes are seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
	log      *zap.Logger

	events chan Event
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// New starts watching path. The parent directory is created if needed.
func New(path string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		fs:       fw,
		path:     filepath.Clean(path),
		debounce: debounce,
		log:      log,
		events:   make(chan Event, 1),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events delivers at most one pending event; bursts are coalesced. The channel is
// closed by Close.
func (w *Watcher) Events() <-chan Event { return w.events }

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
		close(w.events)
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		fire <-chan time.Time
		last Event
	)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod || filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.log.Debug("watched file event", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			last = Event{Path: w.path, Op: ev.Op}
			fire = time.After(w.debounce)
		case <-fire:
			fire = nil
			select {
			case w.events <- last:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.String("path", w.path), zap.Error(err))
		}
	}
}
