// Package browser is a headless stand-in for the parts of a browser window
// the navigator talks to: the location bar, the session history stack and
// the viewport.
package browser

import (
	"errors"
	"sync"

	"github.com/comalice/pjaxnav/internal/primitives"
)

var (
	// ErrNoHistory is returned by Back and Forward at either end of the stack.
	ErrNoHistory = errors.New("no history entry in that direction")
	// ErrEmptyURL is returned when pushing a state without a URL.
	ErrEmptyURL = errors.New("history state has no url")
)

// PopStateFunc receives the state of the entry the session moved to.
type PopStateFunc func(primitives.HistoryState)

// Snapshot is the persistable form of the history stack.
type Snapshot struct {
	Href    string                    `json:"href" yaml:"href"`
	Index   int                       `json:"index" yaml:"index"`
	Entries []primitives.HistoryState `json:"entries" yaml:"entries"`
}

// Session holds one window's location, history and viewport.
type Session struct {
	mu      sync.Mutex
	href    string
	stack   []primitives.HistoryState
	index   int
	assigns []string

	scrollY          float64
	fullscreen       bool
	fullscreenOffset float64
	scrolledInto     []string

	onPop    PopStateFunc
	onAssign func(string)
}

// Option configures a Session.
type Option func(*Session)

// WithPopState sets the listener called after Back and Forward.
func WithPopState(fn PopStateFunc) Option {
	return func(s *Session) {
		s.onPop = fn
	}
}

// WithAssignHook is called whenever the session performs a full load.
func WithAssignHook(fn func(url string)) Option {
	return func(s *Session) {
		s.onAssign = fn
	}
}

// NewSession opens a window on href with a single history entry.
func NewSession(href string, opts ...Option) *Session {
	s := &Session{
		href:  href,
		stack: []primitives.HistoryState{{URL: href}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnPopState replaces the popstate listener.
func (s *Session) OnPopState(fn PopStateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPop = fn
}

func (s *Session) Href() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.href
}

// Assign performs a full page load of url.
func (s *Session) Assign(url string) {
	s.mu.Lock()
	s.assigns = append(s.assigns, url)
	s.stack = append(s.stack[:s.index+1], primitives.HistoryState{URL: url})
	s.index = len(s.stack) - 1
	s.href = url
	hook := s.onAssign
	s.mu.Unlock()

	if hook != nil {
		hook(url)
	}
}

// Assigned lists the URLs loaded with Assign, oldest first.
func (s *Session) Assigned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.assigns...)
}

// Push adds a history entry after the current one, dropping any forward
// entries, and moves the location to its URL.
func (s *Session) Push(state primitives.HistoryState) error {
	if state.URL == "" {
		return ErrEmptyURL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = append(s.stack[:s.index+1], state)
	s.index = len(s.stack) - 1
	s.href = state.URL
	return nil
}

// Replace overwrites the current history entry.
func (s *Session) Replace(state primitives.HistoryState) error {
	if state.URL == "" {
		return ErrEmptyURL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack[s.index] = state
	s.href = state.URL
	return nil
}

// State returns the state of the current history entry.
func (s *Session) State() primitives.HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack[s.index]
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}

func (s *Session) Back() error    { return s.traverse(-1) }
func (s *Session) Forward() error { return s.traverse(1) }

// traverse moves through the stack and fires popstate outside the lock so
// the listener may push new entries.
func (s *Session) traverse(delta int) error {
	s.mu.Lock()
	next := s.index + delta
	if next < 0 || next >= len(s.stack) {
		s.mu.Unlock()
		return ErrNoHistory
	}
	s.index = next
	state := s.stack[next]
	s.href = state.URL
	fn := s.onPop
	s.mu.Unlock()

	if fn != nil {
		fn(state)
	}
	return nil
}

// Snapshot copies the history stack.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Href:    s.href,
		Index:   s.index,
		Entries: append([]primitives.HistoryState(nil), s.stack...),
	}
}

// Restore replaces the history stack with snap.
func (s *Session) Restore(snap Snapshot) error {
	if len(snap.Entries) == 0 || snap.Index < 0 || snap.Index >= len(snap.Entries) {
		return errors.New("invalid history snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = append([]primitives.HistoryState(nil), snap.Entries...)
	s.index = snap.Index
	s.href = snap.Href
	if s.href == "" {
		s.href = s.stack[s.index].URL
	}
	return nil
}
