// Package workspace maps browser workspace ids to their console stores.
package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-payment-console/console"
	"github.com/jrsteele09/go-payment-console/metrics"
	"github.com/rs/zerolog/log"
)

const defaultIdleTimeout = 2 * time.Hour

// Factory builds the console store for a workspace id, restoring any persisted session.
type Factory func(ctx context.Context, id string) (*console.Store, error)

type Repo interface {
	Resolve(ctx context.Context, id string) (Workspace, error)
	Get(id string) (Workspace, bool)
	Remove(id string)
	Sweep() int
	RunSweeper(ctx context.Context, interval time.Duration)
	Len() int
}

// Workspace is one browser's console. Created is true when Resolve had to build it.
type Workspace struct {
	ID      string
	Console *console.Store
	Created bool
}

type entry struct {
	store    *console.Store
	lastSeen time.Time
}

// Registry is an in-memory Repo. Stores are built on first use and dropped after being idle.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry

	factory     Factory
	idleTimeout time.Duration
	now         func() time.Time
	metrics     *metrics.Metrics
}

var _ Repo = (*Registry)(nil)

type Option func(*Registry)

func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) { r.idleTimeout = d }
}

func WithNowFunc(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func NewRegistry(factory Factory, opts ...Option) *Registry {
	r := &Registry{
		entries:     make(map[string]*entry),
		factory:     factory,
		idleTimeout: defaultIdleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the workspace for id. An unknown but well-formed id is rebuilt under the
// same id so its persisted session can be restored; a missing or malformed id gets a new one.
func (r *Registry) Resolve(ctx context.Context, id string) (Workspace, error) {
	if ws, ok := r.Get(id); ok {
		return ws, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	store, err := r.factory(ctx, id)
	if err != nil {
		return Workspace{}, fmt.Errorf("[Resolve] build workspace %s: %w", id, err)
	}

	r.mu.Lock()
	if existing, ok := r.entries[id]; ok {
		// Lost a race with a concurrent Resolve for the same id.
		existing.lastSeen = r.now()
		r.mu.Unlock()
		return Workspace{ID: id, Console: existing.store}, nil
	}
	r.entries[id] = &entry{store: store, lastSeen: r.now()}
	n := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetWorkspaces(n)
	log.Debug().Str("workspace", id).Msg("workspace created")
	return Workspace{ID: id, Console: store, Created: true}, nil
}

// Get returns a live workspace and marks it as used.
func (r *Registry) Get(id string) (Workspace, bool) {
	if id == "" {
		return Workspace{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return Workspace{}, false
	}
	e.lastSeen = r.now()
	return Workspace{ID: id, Console: e.store}, true
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	n := len(r.entries)
	r.mu.Unlock()
	r.metrics.SetWorkspaces(n)
}

// Sweep drops workspaces idle for longer than the idle timeout. Their persisted sessions
// stay in storage and are restored if the browser comes back.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTimeout)
	r.mu.Lock()
	removed := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	n := len(r.entries)
	r.mu.Unlock()

	if removed > 0 {
		r.metrics.SetWorkspaces(n)
		log.Info().Int("removed", removed).Int("active", n).Msg("idle workspaces swept")
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
