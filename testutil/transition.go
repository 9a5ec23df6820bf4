package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/comalice/pjaxnav/internal/dom"
	"github.com/comalice/pjaxnav/internal/primitives"
)

// ManualTransition waits for the incoming container and then blocks until
// the test calls Complete or Abort.
type ManualTransition struct {
	unmount func(*html.Node)
	started chan *primitives.Session
	release chan error

	mu   sync.Mutex
	runs int
}

// NewManualTransition builds a transition. unmount, when set, removes the
// outgoing container on completion.
func NewManualTransition(unmount func(*html.Node)) *ManualTransition {
	return &ManualTransition{
		unmount: unmount,
		started: make(chan *primitives.Session, 16),
		release: make(chan error, 16),
	}
}

// Factory returns the transition for every navigation.
func (m *ManualTransition) Factory() func() primitives.Transition {
	return func() primitives.Transition { return m }
}

func (m *ManualTransition) Run(ctx context.Context, s *primitives.Session) error {
	m.mu.Lock()
	m.runs++
	m.mu.Unlock()
	m.started <- s

	incoming, err := s.WaitIncoming(ctx)
	if err != nil {
		return err
	}
	select {
	case err := <-m.release:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	dom.SetStyle(incoming, "visibility", "visible")
	if m.unmount != nil {
		m.unmount(s.Outgoing)
	}
	return nil
}

// Complete lets one waiting run finish.
func (m *ManualTransition) Complete() { m.release <- nil }

// Abort makes one waiting run fail with err.
func (m *ManualTransition) Abort(err error) { m.release <- err }

// Runs is the number of times Run was called.
func (m *ManualTransition) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

// Started returns the session of the next run, failing the test after timeout.
func (m *ManualTransition) Started(t testing.TB, timeout time.Duration) *primitives.Session {
	t.Helper()
	select {
	case s := <-m.started:
		return s
	case <-time.After(timeout):
		t.Fatalf("transition not started within %s", timeout)
		return nil
	}
}
