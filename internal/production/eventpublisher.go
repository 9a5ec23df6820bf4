package production

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/comalice/pjaxnav/internal/core"
	"github.com/comalice/pjaxnav/internal/primitives"
)

// PublishedEvent is a lifecycle event without its document nodes, safe to
// hand to another goroutine.
type PublishedEvent struct {
	Name        primitives.EventName `json:"name"`
	URL         string               `json:"url,omitempty"`
	PreviousURL string               `json:"previousUrl,omitempty"`
	Namespace   string               `json:"namespace,omitempty"`
	Origin      string               `json:"origin,omitempty"`
	At          time.Time            `json:"at"`
}

// Subscriber registers lifecycle listeners.
type Subscriber interface {
	On(name primitives.EventName, fn core.Listener) (core.ListenerID, error)
}

// ChannelPublisher forwards events to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch      chan<- PublishedEvent
	dropped atomic.Int64
	now     func() time.Time
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- PublishedEvent) *ChannelPublisher {
	return &ChannelPublisher{ch: ch, now: time.Now}
}

// Attach subscribes the publisher to every lifecycle event.
func (p *ChannelPublisher) Attach(sub Subscriber) ([]core.ListenerID, error) {
	ids := make([]core.ListenerID, 0, len(primitives.EventNames))
	for _, name := range primitives.EventNames {
		id, err := sub.On(name, p.listen)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *ChannelPublisher) listen(evt primitives.Event) {
	_ = p.Publish(context.Background(), evt)
}

func (p *ChannelPublisher) Publish(ctx context.Context, evt primitives.Event) error {
	out := PublishedEvent{Name: evt.Name, At: p.now()}
	if evt.Current != nil {
		out.URL = evt.Current.URL
		out.Namespace = evt.Current.Namespace
		out.Origin = evt.Current.Origin.String()
	}
	if evt.Previous != nil {
		out.PreviousURL = evt.Previous.URL
	}

	select {
	case p.ch <- out:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped.Add(1)
		return nil // Non-blocking drop
	}
}

// Dropped counts events lost to a full channel.
func (p *ChannelPublisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
