// Tests for ChannelPublisher delivery and bus integration.
package production

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/pjaxnav/internal/core"
	"github.com/comalice/pjaxnav/internal/primitives"
)

func TestChannelPublisher_Delivery(t *testing.T) {
	ch := make(chan PublishedEvent, 10)
	p := NewChannelPublisher(ch)

	event := primitives.NewEvent(primitives.InitStateChange,
		&primitives.Entry{URL: "http://site/b", Namespace: "b", Origin: primitives.UserClick},
		&primitives.Entry{URL: "http://site/a"},
	)

	if err := p.Publish(context.Background(), event); err != nil {
		t.Errorf("Publish failed: %v", err)
	}

	select {
	case got := <-ch:
		if got.Name != primitives.InitStateChange {
			t.Errorf("Event name mismatch: got %q", got.Name)
		}
		if got.URL != "http://site/b" || got.PreviousURL != "http://site/a" {
			t.Errorf("URLs mismatch: got %q <- %q", got.URL, got.PreviousURL)
		}
		if got.Origin != "click" || got.Namespace != "b" {
			t.Errorf("origin=%q namespace=%q", got.Origin, got.Namespace)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No event delivered")
	}
}

func TestChannelPublisher_BackpressureDrop(t *testing.T) {
	ch := make(chan PublishedEvent, 1)
	p := NewChannelPublisher(ch)
	ch <- PublishedEvent{} // Fill buffer

	event := primitives.NewEvent(primitives.TransitionCompleted, nil, nil)
	if err := p.Publish(context.Background(), event); err != nil {
		t.Errorf("Publish on full channel failed: %v", err)
	}
	if p.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", p.Dropped())
	}
}

func TestChannelPublisher_Close(t *testing.T) {
	ch := make(chan PublishedEvent, 1)
	p := NewChannelPublisher(ch)

	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
}

func TestChannelPublisher_Integration_Bus(t *testing.T) {
	publishCh := make(chan PublishedEvent, 10)
	publisher := NewChannelPublisher(publishCh)
	bus := core.NewBus(nil)

	ids, err := publisher.Attach(bus)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != len(primitives.EventNames) {
		t.Errorf("attached %d listeners", len(ids))
	}

	bus.Trigger(primitives.NewEvent(primitives.NewPageReady, &primitives.Entry{URL: "http://site/b"}, nil))

	select {
	case got := <-publishCh:
		if got.Name != primitives.NewPageReady || got.URL != "http://site/b" {
			t.Errorf("got %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No published event received")
	}
}
