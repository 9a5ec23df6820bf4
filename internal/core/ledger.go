package core

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/pjaxnav/internal/primitives"
)

// Viewport reports where the reader is scrolled and whether the page is in
// fullscreen mode.
type Viewport interface {
	ScrollY() float64
	Fullscreen() bool
	// FullscreenOffset is the top offset of the fullscreen scroller.
	FullscreenOffset() float64
}

// Ledger is the append-only log of navigations. It also owns the pending
// navigation slot and the two navigation flags.
// Entries are handed out as copies; only the namespace may be backfilled.
type Ledger struct {
	mu               sync.RWMutex
	entries          []*primitives.Entry
	popActive        bool
	transitionActive bool
	queued           *primitives.Pending

	viewport Viewport
	push     func(primitives.Entry)
	pageview func(primitives.Entry)
	now      func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithViewport sets the scroll source used by Record.
func WithViewport(v Viewport) LedgerOption {
	return func(l *Ledger) {
		l.viewport = v
	}
}

// WithHistoryPush sets the hook that writes an entry to the browser history
// when recording in fullscreen mode.
func WithHistoryPush(push func(primitives.Entry)) LedgerOption {
	return func(l *Ledger) {
		l.push = push
	}
}

// WithPageviewHook sets a hook called for every recorded entry.
func WithPageviewHook(fn func(primitives.Entry)) LedgerOption {
	return func(l *Ledger) {
		l.pageview = fn
	}
}

// WithClock overrides time.Now for RecordedAt.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

// NewLedger creates an empty Ledger.
func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends a new entry for url and returns a copy of it.
// In fullscreen mode the address bar is not updated by the click path, so
// the entry is pushed to history here, except for history pops.
func (l *Ledger) Record(url, namespace, title string, origin primitives.Origin) primitives.Entry {
	var (
		offset     float64
		fullscreen bool
	)
	if l.viewport != nil {
		fullscreen = l.viewport.Fullscreen()
		if fullscreen {
			offset = l.viewport.FullscreenOffset()
		} else {
			offset = l.viewport.ScrollY()
		}
	}

	e := &primitives.Entry{
		ID:             uuid.NewString(),
		URL:            url,
		Namespace:      namespace,
		PageTitle:      title,
		ScrollPosition: offset,
		Origin:         origin,
		RecordedAt:     l.now(),
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	out := *e
	if l.pageview != nil {
		l.pageview(out)
	}
	if fullscreen && origin != primitives.HistoryPop && l.push != nil {
		l.push(out)
	}
	return out
}

// Current returns the last entry, or nil.
func (l *Ledger) Current() *primitives.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.at(len(l.entries) - 1)
}

// Previous returns the second-to-last entry, or nil with fewer than 2 entries.
func (l *Ledger) Previous() *primitives.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.at(len(l.entries) - 2)
}

func (l *Ledger) at(i int) *primitives.Entry {
	if i < 0 || i >= len(l.entries) {
		return nil
	}
	e := *l.entries[i]
	return &e
}

// Entries returns a snapshot copy in navigation order.
func (l *Ledger) Entries() []primitives.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]primitives.Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = *e
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Backfill sets the namespace of entry id once the content has loaded. It
// reports false when the entry is unknown or already has a namespace.
func (l *Ledger) Backfill(id, namespace string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if e.ID != id {
			continue
		}
		if e.Namespace != "" {
			return false
		}
		e.Namespace = namespace
		return true
	}
	return false
}

func (l *Ledger) SetPopActive(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.popActive = active
}

func (l *Ledger) PopActive() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.popActive
}

func (l *Ledger) SetTransitionActive(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.transitionActive = active
}

func (l *Ledger) TransitionActive() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.transitionActive
}

// Queued returns the pending navigation, if any.
func (l *Ledger) Queued() (primitives.Pending, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.queued == nil {
		return primitives.Pending{}, false
	}
	return *l.queued, true
}

// SetQueued overwrites the pending navigation.
func (l *Ledger) SetQueued(p primitives.Pending) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queued = &p
}

// TakeQueued returns and clears the pending navigation.
func (l *Ledger) TakeQueued() (primitives.Pending, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queued == nil {
		return primitives.Pending{}, false
	}
	p := *l.queued
	l.queued = nil
	return p, true
}

func (l *Ledger) ClearQueued() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queued = nil
}
