// Package cache holds per-entity-family lists fetched from the backend.
package cache

import (
	"context"
	stderrors "errors"
	"slices"
	"sync"

	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/metrics"
	"github.com/rs/zerolog/log"
)

// ErrSuperseded is returned by a fetch whose result was discarded because a newer fetch started.
var ErrSuperseded = stderrors.New("cache: fetch superseded by a newer request")

type Identifiable interface {
	EntityID() int64
}

type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type Pagination struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// Page is one fetch result. Pagination is nil for unpaginated endpoints.
type Page[E any] struct {
	Items      []E
	Pagination *Pagination
}

// Fetcher loads a slice's items for query. query is whatever the slice was given, or nil.
type Fetcher[E any] func(ctx context.Context, query any) (Page[E], error)

// Snapshot is a consistent copy of a slice's state.
type Snapshot[E any] struct {
	Items      []E         `json:"items"`
	Selected   *E          `json:"selected"`
	Status     Status      `json:"status"`
	Error      string      `json:"error,omitempty"`
	Query      any         `json:"query,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Slice[E Identifiable] struct {
	name    string
	fetch   Fetcher[E]
	metrics *metrics.Metrics

	mu         sync.RWMutex
	seq        uint64
	items      []E
	selected   *int64
	status     Status
	err        string
	query      any
	pagination *Pagination
}

type options struct {
	metrics *metrics.Metrics
	query   any
}

type Option func(*options)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithQuery sets the initial query used when FetchAll is called without one.
func WithQuery(q any) Option {
	return func(o *options) { o.query = q }
}

func New[E Identifiable](name string, fetch Fetcher[E], opts ...Option) *Slice[E] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Slice[E]{
		name:    name,
		fetch:   fetch,
		metrics: o.metrics,
		items:   []E{},
		status:  StatusIdle,
		query:   o.query,
	}
}

func (s *Slice[E]) Name() string {
	return s.name
}

// FetchAll loads the slice and replaces its items wholesale. A nil query reuses the
// stored one. On failure the previous items stay in place. When a newer FetchAll has
// started meanwhile, the result is dropped and ErrSuperseded returned.
func (s *Slice[E]) FetchAll(ctx context.Context, query any) ([]E, error) {
	op := s.name + ".fetchAll"

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if query != nil {
		s.query = query
	}
	q := s.query
	s.status = StatusLoading
	s.mu.Unlock()

	page, err := s.fetch(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		log.Debug().Str("slice", s.name).Uint64("seq", seq).Msg("discarding superseded fetch")
		s.metrics.RecordCacheFetch(s.name, "superseded")
		return nil, ErrSuperseded
	}
	if err != nil {
		s.status = StatusFailed
		s.err = errors.Message(err)
		s.metrics.RecordCacheFetch(s.name, string(StatusFailed))
		if errors.IsKind(err, errors.KindFetch) {
			return nil, err
		}
		return nil, errors.Fetch(op, s.err, err)
	}

	s.items = slices.Clone(page.Items)
	if s.items == nil {
		s.items = []E{}
	}
	s.pagination = page.Pagination
	s.status = StatusSucceeded
	s.err = ""
	if s.selected != nil && s.indexOf(*s.selected) < 0 {
		s.selected = nil
	}
	s.metrics.RecordCacheFetch(s.name, string(StatusSucceeded))
	return slices.Clone(s.items), nil
}

// indexOf must be called with mu held.
func (s *Slice[E]) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(e E) bool { return e.EntityID() == id })
}

// AddLocal appends e, or replaces the entry with the same id.
func (s *Slice[E]) AddLocal(e E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(e.EntityID()); i >= 0 {
		s.items[i] = e
		return
	}
	s.items = append(s.items, e)
}

// UpdateLocal replaces the entry matching e's id. It is a no-op when there is none.
func (s *Slice[E]) UpdateLocal(e E) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(e.EntityID())
	if i < 0 {
		return false
	}
	s.items[i] = e
	return true
}

// Mutate applies fn to the entry with id in place.
func (s *Slice[E]) Mutate(id int64, fn func(*E)) (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		var zero E
		return zero, false
	}
	fn(&s.items[i])
	return s.items[i], true
}

// RemoveLocal drops the entry with id. It is a no-op when there is none.
func (s *Slice[E]) RemoveLocal(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(s.items, func(e E) bool { return e.EntityID() == id })
	if s.selected != nil && *s.selected == id {
		s.selected = nil
	}
}

// Select focuses the item with id, or clears the selection when it is not cached.
func (s *Slice[E]) Select(id int64) (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		s.selected = nil
		var zero E
		return zero, false
	}
	s.selected = &id
	return s.items[i], true
}

func (s *Slice[E]) Selected() (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedLocked()
}

func (s *Slice[E]) selectedLocked() (E, bool) {
	var zero E
	if s.selected == nil {
		return zero, false
	}
	i := s.indexOf(*s.selected)
	if i < 0 {
		return zero, false
	}
	return s.items[i], true
}

func (s *Slice[E]) Find(id int64) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero E
	return zero, false
}

func (s *Slice[E]) Items() []E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Slice[E]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Slice[E]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Slice[E]) SetQuery(q any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

func (s *Slice[E]) Query() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

func (s *Slice[E]) Snapshot() Snapshot[E] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot[E]{
		Items:      slices.Clone(s.items),
		Status:     s.status,
		Error:      s.err,
		Query:      s.query,
		Pagination: s.pagination,
	}
	if sel, ok := s.selectedLocked(); ok {
		snap.Selected = &sel
	}
	return snap
}

// Reset empties the slice and discards any fetch still in flight. The query is kept.
func (s *Slice[E]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.items = []E{}
	s.selected = nil
	s.status = StatusIdle
	s.err = ""
	s.pagination = nil
}
