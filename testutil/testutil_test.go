package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/comalice/pjaxnav/internal/core"
	"github.com/comalice/pjaxnav/internal/primitives"
)

func TestFetcher_PagesAndFailures(t *testing.T) {
	boom := errors.New("boom")
	f := NewFetcher().Page("http://site/a", "<a>").Fail("http://site/b", boom)

	if body, err := f.Fetch(context.Background(), "http://site/a"); err != nil || body != "<a>" {
		t.Errorf("a: body=%q err=%v", body, err)
	}
	if _, err := f.Fetch(context.Background(), "http://site/b"); !errors.Is(err, boom) {
		t.Errorf("b: err=%v", err)
	}
	if _, err := f.Fetch(context.Background(), "http://site/c"); err == nil {
		t.Error("unknown page should fail")
	}
	if f.Count("http://site/a") != 1 || len(f.Calls()) != 3 {
		t.Errorf("calls = %v", f.Calls())
	}
}

func TestFetcher_Gate(t *testing.T) {
	f := NewFetcher().Page("http://site/a", "<a>").Gate("http://site/a")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.Fetch(context.Background(), "http://site/a")
	}()

	select {
	case <-done:
		t.Fatal("gated fetch returned before release")
	case <-time.After(20 * time.Millisecond):
	}
	f.Release("http://site/a")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch not released")
	}
}

func TestFetcher_GateHonorsContext(t *testing.T) {
	f := NewFetcher().Gate("http://site/a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Fetch(ctx, "http://site/a"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestManualTransition(t *testing.T) {
	var unmounted *html.Node
	m := NewManualTransition(func(n *html.Node) { unmounted = n })

	out := &html.Node{Type: html.ElementNode, Data: "div"}
	in := &html.Node{Type: html.ElementNode, Data: "div"}
	ch := make(chan *html.Node, 1)
	ch <- in
	s := &primitives.Session{Outgoing: out, Incoming: ch}

	done := make(chan error, 1)
	go func() { done <- m.Factory()().Run(context.Background(), s) }()

	if got := m.Started(t, time.Second); got != s {
		t.Fatal("unexpected session")
	}
	m.Complete()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if unmounted != out {
		t.Error("outgoing container not unmounted")
	}
	if m.Runs() != 1 {
		t.Errorf("runs = %d", m.Runs())
	}
}

func TestRecorder(t *testing.T) {
	bus := core.NewBus(nil)
	r := Record(t, bus)

	bus.Trigger(primitives.NewEvent(primitives.InitStateChange, nil, nil))
	bus.Trigger(primitives.NewEvent(primitives.TransitionCompleted, &primitives.Entry{URL: "u"}, nil))

	names := r.Names()
	if len(names) != 2 || names[0] != primitives.InitStateChange {
		t.Errorf("names = %v", names)
	}
	if e, ok := r.Last(primitives.TransitionCompleted); !ok || e.Current.URL != "u" {
		t.Errorf("last = %+v", e)
	}
	r.Reset()
	if r.Count(primitives.InitStateChange) != 0 {
		t.Error("reset did not clear")
	}
}
