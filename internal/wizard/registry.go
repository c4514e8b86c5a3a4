package wizard

import (
	"context"
	"sync"
)

// Registry keeps one Wizard per browser session.
type Registry struct {
	opts Options

	mu      sync.Mutex
	wizards map[string]*Wizard
}

// NewRegistry creates an empty registry whose wizards share opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, wizards: make(map[string]*Wizard)}
}

// Get returns the session's wizard, creating it on first use.
func (r *Registry) Get(sessionID string) *Wizard {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wizards[sessionID]; ok {
		return w
	}
	w := New(sessionID, r.opts)
	r.wizards[sessionID] = w
	return w
}

// Drop closes and forgets the session's wizard. Unknown sessions are ignored.
func (r *Registry) Drop(ctx context.Context, sessionID string) {
	r.mu.Lock()
	w, ok := r.wizards[sessionID]
	delete(r.wizards, sessionID)
	r.mu.Unlock()
	if ok {
		w.Close(ctx)
	}
}

// Prune drops every wizard whose session alive no longer recognizes and
// returns how many went.
func (r *Registry) Prune(ctx context.Context, alive func(ctx context.Context, sessionID string) bool) int {
	r.mu.Lock()
	ids := make([]string, 0, len(r.wizards))
	for id := range r.wizards {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	dropped := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if alive(ctx, id) {
			continue
		}
		r.Drop(ctx, id)
		dropped++
	}
	return dropped
}

// Len returns the number of live wizards.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.wizards)
}
