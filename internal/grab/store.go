package grab

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/lian/grab/internal/kv"
)

// StorageKey is the single key the grabbed set is persisted under.
const StorageKey = "grabbedFiles"

// Storage error kinds.
const (
	KindRead    = "storage_read"
	KindCorrupt = "storage_corrupt"
	KindWrite   = "storage_write"
)

// StorageError reports a failed load or save. Load failures leave the in-memory
// set untouched; save failures roll the in-memory set back.
type StorageError struct {
	Kind string
	Key  string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: key %q: %v", e.Kind, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is a StorageError of kind KindCorrupt.
func IsCorrupt(err error) bool {
	var e *StorageError
	return errors.As(err, &e) && e.Kind == KindCorrupt
}

// Store is the single owner of the grabbed-file set. All access goes through its
// methods; mutations hold the lock across update and save, so a second mutation
// waits until the previous one is persisted.
type Store struct {
	kv  kv.Store
	log *zap.Logger

	mu    sync.Mutex
	files []FileRecord
}

// NewStore returns an empty store persisting through s. Call Load to read state.
func NewStore(s kv.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: s, log: log}
}

// Load replaces the in-memory set with the persisted one. A missing key loads as
// empty. On failure the current set is kept and a *StorageError is returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.GetItem(ctx, StorageKey)
	if err != nil {
		s.log.Error("load grabbed files", zap.Error(err))
		return &StorageError{Kind: KindRead, Key: StorageKey, Err: err}
	}
	if !ok {
		s.files = nil
		return nil
	}
	files, err := Decode([]byte(raw))
	if err != nil {
		s.log.Error("grabbed files storage is corrupt, keeping current list",
			zap.Error(err), zap.Int("kept", len(s.files)))
		return &StorageError{Kind: KindCorrupt, Key: StorageKey, Err: err}
	}
	s.files = files
	s.log.Debug("loaded grabbed files", zap.Int("count", len(files)))
	return nil
}

// Save persists the full set.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := Encode(s.files)
	if err != nil {
		return &StorageError{Kind: KindWrite, Key: StorageKey, Err: err}
	}
	if err := s.kv.SetItem(ctx, StorageKey, string(data)); err != nil {
		s.log.Error("save grabbed files", zap.Error(err))
		return &StorageError{Kind: KindWrite, Key: StorageKey, Err: err}
	}
	s.log.Debug("saved grabbed files", zap.Int("count", len(s.files)))
	return nil
}

// commitLocked installs next, persists it and restores the previous set if the
// save fails.
func (s *Store) commitLocked(ctx context.Context, next []FileRecord) error {
	prev := s.files
	s.files = next
	if err := s.saveLocked(ctx); err != nil {
		s.files = prev
		return err
	}
	return nil
}

// Merge returns the candidates whose path is not already grabbed, in input order.
// Repeats within candidates are collapsed to their first occurrence.
func (s *Store) Merge(candidates []FileRecord) []FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeLocked(candidates)
}

func (s *Store) mergeLocked(candidates []FileRecord) []FileRecord {
	seen := make(map[string]struct{}, len(s.files)+len(candidates))
	for _, f := range s.files {
		seen[f.Path] = struct{}{}
	}
	var out []FileRecord
	for _, c := range candidates {
		if _, ok := seen[c.Path]; ok {
			continue
		}
		seen[c.Path] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Add appends the unique candidates after the existing records and persists.
// It returns the records actually added.
func (s *Store) Add(ctx context.Context, candidates []FileRecord) ([]FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.mergeLocked(candidates)
	if len(added) == 0 {
		return nil, nil
	}
	next := make([]FileRecord, 0, len(s.files)+len(added))
	next = append(next, s.files...)
	next = append(next, added...)
	if err := s.commitLocked(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info("grabbed files", zap.Int("added", len(added)), zap.Int("total", len(next)))
	return added, nil
}

// Remove drops the record whose path equals path and persists. It reports whether
// a record was removed.
func (s *Store) Remove(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, f := range s.files {
		if f.Path == path {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	next := make([]FileRecord, 0, len(s.files)-1)
	next = append(next, s.files[:idx]...)
	next = append(next, s.files[idx+1:]...)
	if err := s.commitLocked(ctx, next); err != nil {
		return false, err
	}
	s.log.Info("removed grabbed file", zap.String("path", path))
	return true, nil
}

// Clear empties the set and persists.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commitLocked(ctx, nil); err != nil {
		return err
	}
	s.log.Info("cleared grabbed files")
	return nil
}

// Replace swaps the whole set for records (deduplicated, order kept) and persists.
func (s *Store) Replace(ctx context.Context, records []FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	next := make([]FileRecord, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Path]; ok {
			continue
		}
		seen[r.Path] = struct{}{}
		next = append(next, r)
	}
	return s.commitLocked(ctx, next)
}

// Snapshot returns a copy of the current set.
func (s *Store) Snapshot() []FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FileRecord, len(s.files))
	copy(out, s.files)
	return out
}

// Len returns the number of grabbed files.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Filter returns the records whose name or path fuzzy-matches query
// (case-insensitive), best matches first. An empty query returns the snapshot.
func (s *Store) Filter(query string) []FileRecord {
	files := s.Snapshot()
	if query == "" {
		return files
	}

	names := make([]string, len(files))
	paths := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
		paths[i] = f.Path
	}

	best := make(map[int]int, len(files))
	for _, ranks := range []fuzzy.Ranks{fuzzy.RankFindFold(query, names), fuzzy.RankFindFold(query, paths)} {
		for _, r := range ranks {
			if d, ok := best[r.OriginalIndex]; !ok || r.Distance < d {
				best[r.OriginalIndex] = r.Distance
			}
		}
	}

	idx := make([]int, 0, len(best))
	for i := range best {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		if best[idx[a]] != best[idx[b]] {
			return best[idx[a]] < best[idx[b]]
		}
		return idx[a] < idx[b]
	})

	out := make([]FileRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, files[i])
	}
	return out
}
