// Package search finds destination folders by name under a few well-known roots.
package search

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lian/grab/internal/pathx"
)

const (
	// DefaultMaxDepth bounds how far below a root a candidate may sit. Children of a
	// root are depth 0.
	DefaultMaxDepth = 3
	// DefaultLimit caps the number of candidates a search collects and returns.
	DefaultLimit = 50
)

// FolderCandidate is a directory offered as a destination.
type FolderCandidate struct {
	Path        string
	Name        string
	IsDirectory bool
	Depth       int
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Home     string
	Roots    []string
	MaxDepth int
	Limit    int
	Locale   language.Tag
	Log      *zap.Logger
}

// Engine walks the roots looking for directories whose name contains the query.
// It is safe for concurrent use; each Search builds its own state.
type Engine struct {
	home     string
	roots    []string
	maxDepth int
	limit    int
	locale   language.Tag
	log      *zap.Logger
}

// DefaultRoots returns home, /Applications and /Users.
func DefaultRoots(home string) []string {
	var roots []string
	if home != "" {
		roots = append(roots, home)
	}
	return append(roots, "/Applications", "/Users")
}

// NewEngine builds an Engine from opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		home:     opts.Home,
		roots:    opts.Roots,
		maxDepth: opts.MaxDepth,
		limit:    opts.Limit,
		locale:   opts.Locale,
		log:      opts.Log,
	}
	if e.home == "" {
		e.home = pathx.HomeDir()
	}
	if len(e.roots) == 0 {
		e.roots = DefaultRoots(e.home)
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	if e.limit <= 0 {
		e.limit = DefaultLimit
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Limit returns the result cap.
func (e *Engine) Limit() int { return e.limit }

// pending is one worklist entry: a directory entry still to be inspected.
type pending struct {
	path  string
	name  string
	depth int
}

// Search returns folders whose name contains query (case-insensitive), exact
// name matches first and the rest in locale order. A query that is empty after
// trimming returns CommonFolders; any other query is matched as typed. Unreadable entries are skipped. The walk stops once Limit
// candidates are collected or ctx is cancelled; cancellation returns ctx.Err().
func (e *Engine) Search(ctx context.Context, query string) ([]FolderCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return e.CommonFolders(), nil
	}
	needle := strings.ToLower(query)

	results := make([]FolderCandidate, 0, e.limit)
	seen := make(map[string]struct{})

	for _, root := range e.roots {
		if len(results) >= e.limit {
			break
		}
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			continue
		}

		stack := e.children(root, 0, nil)
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if len(results) >= e.limit {
				break
			}

			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			fi, err := os.Stat(top.path)
			if err != nil {
				e.log.Debug("skip entry", zap.String("path", top.path), zap.Error(err))
				continue
			}
			if !fi.IsDir() {
				continue
			}

			if strings.Contains(strings.ToLower(top.name), needle) {
				if _, dup := seen[top.path]; !dup {
					seen[top.path] = struct{}{}
					results = append(results, FolderCandidate{
						Path:        top.path,
						Name:        top.name,
						IsDirectory: true,
						Depth:       top.depth,
					})
				}
			}

			if top.depth < e.maxDepth {
				stack = e.children(top.path, top.depth+1, stack)
			}
		}
	}

	Rank(results, query, e.locale)
	if len(results) > e.limit {
		results = results[:e.limit]
	}
	e.log.Debug("folder search", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

// children lists dir and pushes its entries onto stack in reverse name order, so
// popping visits them in name order and each branch is finished before its next
// sibling.
func (e *Engine) children(dir string, depth int, stack []pending) []pending {
	entries, err := os.ReadDir(dir)
	if err != nil {
		e.log.Debug("skip directory", zap.String("path", dir), zap.Error(err))
		return stack
	}
	for i := len(entries) - 1; i >= 0; i-- {
		name := entries[i].Name()
		stack = append(stack, pending{path: filepath.Join(dir, name), name: name, depth: depth})
	}
	return stack
}

// Rank orders candidates in place: case-insensitive exact name matches first,
// then by locale-aware name comparison, then by path.
func Rank(candidates []FolderCandidate, query string, tag language.Tag) {
	c := collate.New(tag)
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		ae := strings.EqualFold(a.Name, query)
		be := strings.EqualFold(b.Name, query)
		if ae != be {
			return ae
		}
		if r := c.CompareString(a.Name, b.Name); r != 0 {
			return r < 0
		}
		return a.Path < b.Path
	})
}

// CommonFolders returns the well-known folders that exist on disk, each once.
func (e *Engine) CommonFolders() []FolderCandidate {
	type known struct{ name, path string }
	var list []known
	if e.home != "" {
		for _, n := range []string{"Desktop", "Documents", "Downloads", "Pictures", "Music", "Movies"} {
			list = append(list, known{n, filepath.Join(e.home, n)})
		}
	}
	list = append(list, known{"Applications", "/Applications"})
	if e.home != "" {
		list = append(list, known{"Home", e.home})
	}

	seen := make(map[string]struct{}, len(list))
	var out []FolderCandidate
	for _, k := range list {
		if _, dup := seen[k.path]; dup {
			continue
		}
		fi, err := os.Stat(k.path)
		if err != nil || !fi.IsDir() {
			continue
		}
		seen[k.path] = struct{}{}
		out = append(out, FolderCandidate{Path: k.path, Name: k.name, IsDirectory: true})
	}
	return out
}
