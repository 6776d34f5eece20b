package search

import (
	"context"
	"sync"
)

// Ticket identifies one issued query. Results carry their ticket so the caller can
// tell whether they are still the freshest.
type Ticket struct {
	Seq   uint64
	Query string
}

// Tracker hands out tickets for successive queries. Beginning a new query cancels
// the previous one's context; only the latest ticket is current.
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin supersedes any in-flight query and returns the context the new search
// should run under together with its ticket.
func (t *Tracker) Begin(parent context.Context, query string) (context.Context, Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel
	t.seq++
	return ctx, Ticket{Seq: t.seq, Query: query}
}

// Current reports whether tk is the most recently issued ticket.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tk.Seq == t.seq
}

// Finish releases tk's context if it is still current.
func (t *Tracker) Finish(tk Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tk.Seq == t.seq && t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Stop cancels the in-flight query and invalidates every outstanding ticket.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.seq++
}
