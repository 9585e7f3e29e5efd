// Package ui holds the transient signals a console layout renders: busy indicator, toast and confirmation modal.
package ui

import (
	"context"
	"sync"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

const (
	defaultCancelText = "Cancel"
	defaultActionText = "Submit"
	initialActionText = "Update"
)

type Toast struct {
	Show     bool     `json:"show"`
	Message  string   `json:"message"`
	Severity Severity `json:"type"`
}

// Modal describes a confirmation dialog. Action runs when the user confirms.
type Modal struct {
	Show        bool                            `json:"show"`
	Title       string                          `json:"title"`
	Description string                          `json:"description"`
	CancelText  string                          `json:"cancelText"`
	ActionText  string                          `json:"actionText"`
	Action      func(ctx context.Context) error `json:"-"`
}

// State is what the layout reads.
type State struct {
	Loading bool  `json:"loading"`
	Toast   Toast `json:"toast"`
	Modal   Modal `json:"modal"`
}

type Store struct {
	mu      sync.Mutex
	flag    bool
	pending int
	toast   Toast
	modal   Modal
}

func New() *Store {
	return &Store{
		toast: Toast{Severity: SeverityInfo},
		modal: Modal{CancelText: defaultCancelText, ActionText: initialActionText},
	}
}

// SetLoading sets the busy flag directly. Concurrent operations sharing it can clear it
// early; BeginLoading does not have that problem.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flag = loading
}

// BeginLoading marks one operation as busy until the returned func is called.
// Calling it more than once has no further effect.
func (s *Store) BeginLoading() func() {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.pending--
			s.mu.Unlock()
		})
	}
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flag || s.pending > 0
}

// ShowToast replaces the current toast. An empty severity means info.
func (s *Store) ShowToast(message string, severity Severity) {
	if severity == "" {
		severity = SeverityInfo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast = Toast{Show: true, Message: message, Severity: severity}
}

func (s *Store) HideToast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toast.Show = false
}

func (s *Store) ShowModal(m Modal) {
	m.Show = true
	if m.CancelText == "" {
		m.CancelText = defaultCancelText
	}
	if m.ActionText == "" {
		m.ActionText = defaultActionText
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = m
}

// HideModal closes the modal and drops its action.
func (s *Store) HideModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal.Show = false
	s.modal.Action = nil
}

// ConfirmModal closes the modal and runs its action once. It reports false when no modal
// was open, and returns the action's error.
func (s *Store) ConfirmModal(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if !s.modal.Show {
		s.mu.Unlock()
		return false, nil
	}
	action := s.modal.Action
	s.modal.Show = false
	s.modal.Action = nil
	s.mu.Unlock()

	if action == nil {
		return true, nil
	}
	return true, action(ctx)
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.modal
	m.Action = nil
	return State{
		Loading: s.flag || s.pending > 0,
		Toast:   s.toast,
		Modal:   m,
	}
}

// HasModalAction reports whether the open modal would run something on confirm.
func (s *Store) HasModalAction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal.Show && s.modal.Action != nil
}
