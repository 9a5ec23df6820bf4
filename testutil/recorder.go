package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/comalice/pjaxnav/internal/core"
	"github.com/comalice/pjaxnav/internal/primitives"
)

// Subscriber is anything lifecycle listeners can be registered on.
type Subscriber interface {
	On(name primitives.EventName, fn core.Listener) (core.ListenerID, error)
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []primitives.Event
}

// Record subscribes a new Recorder to the whole vocabulary.
func Record(t testing.TB, sub Subscriber) *Recorder {
	t.Helper()
	r := &Recorder{}
	for _, name := range primitives.EventNames {
		if _, err := sub.On(name, r.Listen); err != nil {
			t.Fatalf("subscribe %s: %v", name, err)
		}
	}
	return r
}

// Listen is a core.Listener.
func (r *Recorder) Listen(e primitives.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []primitives.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]primitives.Event(nil), r.events...)
}

// Names lists event names in delivery order.
func (r *Recorder) Names() []primitives.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]primitives.EventName, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

// Count is the number of events named name.
func (r *Recorder) Count(name primitives.EventName) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Last returns the newest event named name.
func (r *Recorder) Last(name primitives.EventName) (primitives.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return primitives.Event{}, false
}

// Reset forgets recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t testing.TB, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, msg)
		}
		time.Sleep(time.Millisecond)
	}
}
