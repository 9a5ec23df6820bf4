// Package core provides the runtime core of the navigation engine: the event
// bus, the navigation ledger and the response cache.
// All types are safe for concurrent use.
package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/comalice/pjaxnav/internal/primitives"
)

var ErrUnknownEvent = errors.New("unknown event name")

// Listener receives lifecycle events.
type Listener func(primitives.Event)

// ListenerID identifies a registration for Off.
type ListenerID string

type registration struct {
	id ListenerID
	fn Listener
}

// Bus delivers lifecycle events synchronously to listeners in registration
// order. A listener that panics is logged and skipped; later listeners still
// run.
type Bus struct {
	mu        sync.RWMutex
	listeners map[primitives.EventName][]registration
	logger    *slog.Logger
}

// NewBus creates a Bus. A nil logger falls back to slog.Default().
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		listeners: make(map[primitives.EventName][]registration),
		logger:    logger,
	}
}

// On registers fn for name.
func (b *Bus) On(name primitives.EventName, fn Listener) (ListenerID, error) {
	if !name.Valid() {
		return "", fmt.Errorf("on %q: %w", name, ErrUnknownEvent)
	}
	if fn == nil {
		return "", errors.New("nil listener")
	}
	id := ListenerID(uuid.NewString())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[name] = append(b.listeners[name], registration{id: id, fn: fn})
	return id, nil
}

// Off removes a registration. Unknown IDs are ignored.
func (b *Bus) Off(name primitives.EventName, id ListenerID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.listeners[name]
	for i, r := range regs {
		if r.id == id {
			b.listeners[name] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Trigger delivers evt to every listener registered for evt.Name. Listeners
// may register or remove listeners; changes apply from the next Trigger.
func (b *Bus) Trigger(evt primitives.Event) {
	b.mu.RLock()
	regs := b.listeners[evt.Name]
	b.mu.RUnlock()

	for _, r := range regs {
		b.deliver(r, evt)
	}
}

// Count returns the number of listeners for name.
func (b *Bus) Count(name primitives.EventName) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[name])
}

func (b *Bus) deliver(r registration, evt primitives.Event) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("event listener panicked",
				slog.String("event", string(evt.Name)),
				slog.String("listener", string(r.id)),
				slog.Any("panic", p),
			)
		}
	}()
	r.fn(evt)
}
