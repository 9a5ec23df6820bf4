package primitives

import (
	"context"
	"errors"

	"golang.org/x/net/html"
)

// ErrNoIncoming is returned when the load of the incoming container failed.
var ErrNoIncoming = errors.New("incoming container was not delivered")

// Session is what a transition sees of one navigation.
type Session struct {
	// URL is the requested address, fragment included.
	URL      string
	Outgoing *html.Node
	// Incoming yields the mounted, hidden container once, or is closed
	// without a value when the load fails.
	Incoming   <-chan *html.Node
	Origin     Origin
	Current    *Entry
	Previous   *Entry
	Fullscreen bool
}

// WaitIncoming blocks until the incoming container is available.
func (s *Session) WaitIncoming(ctx context.Context) (*html.Node, error) {
	select {
	case n, ok := <-s.Incoming:
		if !ok || n == nil {
			return nil, ErrNoIncoming
		}
		return n, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Transition animates the swap from the outgoing to the incoming container.
// Run returns once the incoming container is visible and the outgoing one
// is gone, or when ctx is done.
type Transition interface {
	Run(ctx context.Context, s *Session) error
}

// TransitionFunc adapts a function to Transition.
type TransitionFunc func(ctx context.Context, s *Session) error

func (f TransitionFunc) Run(ctx context.Context, s *Session) error {
	return f(ctx, s)
}
