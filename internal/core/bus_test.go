package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/comalice/pjaxnav/internal/primitives"
)

func TestBus_RegistrationOrder(t *testing.T) {
	b := NewBus(nil)
	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		if _, err := b.On(primitives.TransitionCompleted, func(primitives.Event) { got = append(got, i) }); err != nil {
			t.Fatal(err)
		}
	}
	b.Trigger(primitives.NewEvent(primitives.TransitionCompleted, nil, nil))
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", got)
	}
}

func TestBus_PassesPayloadThrough(t *testing.T) {
	b := NewBus(nil)
	cur := &primitives.Entry{URL: "http://site.test/b"}
	prev := &primitives.Entry{URL: "http://site.test/a"}

	var seen primitives.Event
	_, _ = b.On(primitives.NewPageReady, func(e primitives.Event) { seen = e })

	evt := primitives.NewEvent(primitives.NewPageReady, cur, prev)
	evt.HTML = "<html></html>"
	b.Trigger(evt)

	if seen.Current != cur || seen.Previous != prev || seen.HTML != "<html></html>" {
		t.Errorf("payload mismatch: %+v", seen)
	}
}

func TestBus_PanickingListenerIsContained(t *testing.T) {
	b := NewBus(nil)
	var after bool
	_, _ = b.On(primitives.InitStateChange, func(primitives.Event) { panic("listener bug") })
	_, _ = b.On(primitives.InitStateChange, func(primitives.Event) { after = true })

	b.Trigger(primitives.NewEvent(primitives.InitStateChange, nil, nil))
	if !after {
		t.Error("listener after the panicking one did not run")
	}
}

func TestBus_Off(t *testing.T) {
	b := NewBus(nil)
	calls := 0
	id, _ := b.On(primitives.LinkClicked, func(primitives.Event) { calls++ })
	b.Off(primitives.LinkClicked, id)
	b.Off(primitives.LinkClicked, "not-registered")

	b.Trigger(primitives.Event{Name: primitives.LinkClicked})
	if calls != 0 {
		t.Errorf("removed listener called %d times", calls)
	}
	if b.Count(primitives.LinkClicked) != 0 {
		t.Errorf("Count = %d after Off", b.Count(primitives.LinkClicked))
	}
}

func TestBus_OnlyMatchingName(t *testing.T) {
	b := NewBus(nil)
	calls := 0
	_, _ = b.On(primitives.NewPageReady, func(primitives.Event) { calls++ })
	b.Trigger(primitives.NewEvent(primitives.TransitionCompleted, nil, nil))
	if calls != 0 {
		t.Errorf("listener for another event called")
	}
}

func TestBus_UnknownEvent(t *testing.T) {
	b := NewBus(nil)
	_, err := b.On("pageLoaded", func(primitives.Event) {})
	if !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("got %v, want ErrUnknownEvent", err)
	}
}

func TestBus_ListenerMayUnsubscribeDuringTrigger(t *testing.T) {
	b := NewBus(nil)
	var id ListenerID
	calls := 0
	id, _ = b.On(primitives.TransitionCompleted, func(primitives.Event) {
		calls++
		b.Off(primitives.TransitionCompleted, id)
	})
	second := 0
	_, _ = b.On(primitives.TransitionCompleted, func(primitives.Event) { second++ })

	b.Trigger(primitives.NewEvent(primitives.TransitionCompleted, nil, nil))
	b.Trigger(primitives.NewEvent(primitives.TransitionCompleted, nil, nil))
	if calls != 1 || second != 2 {
		t.Errorf("calls=%d second=%d, want 1 and 2", calls, second)
	}
}

func TestBus_Concurrent(t *testing.T) {
	b := NewBus(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := b.On(primitives.NewPageReady, func(primitives.Event) {})
			b.Trigger(primitives.NewEvent(primitives.NewPageReady, nil, nil))
			b.Off(primitives.NewPageReady, id)
		}()
	}
	wg.Wait()
	if n := b.Count(primitives.NewPageReady); n != 0 {
		t.Errorf("Count = %d after all Off", n)
	}
}
