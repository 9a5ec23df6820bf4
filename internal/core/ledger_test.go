package core

import (
	"fmt"
	"testing"

	"github.com/comalice/pjaxnav/internal/primitives"
)

type fakeViewport struct {
	scrollY    float64
	fullscreen bool
	offset     float64
}

func (v *fakeViewport) ScrollY() float64          { return v.scrollY }
func (v *fakeViewport) Fullscreen() bool          { return v.fullscreen }
func (v *fakeViewport) FullscreenOffset() float64 { return v.offset }

func TestLedger_CurrentPrevious(t *testing.T) {
	l := NewLedger()
	if l.Current() != nil || l.Previous() != nil {
		t.Fatal("empty ledger should have no current/previous")
	}

	l.Record("url1", "namespace1", "", primitives.Programmatic)
	if cur := l.Current(); cur == nil || cur.URL != "url1" || cur.Namespace != "namespace1" {
		t.Errorf("current = %+v, want url1/namespace1", cur)
	}
	if l.Previous() != nil {
		t.Error("previous should be nil with one entry")
	}

	l.Record("url2", "", "", primitives.UserClick)
	cur, prev := l.Current(), l.Previous()
	if cur.URL != "url2" || cur.Namespace != "" {
		t.Errorf("current = %+v", cur)
	}
	if prev.URL != "url1" || prev.Namespace != "namespace1" {
		t.Errorf("previous = %+v", prev)
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d", l.Len())
	}
}

func TestLedger_ReturnsCopies(t *testing.T) {
	l := NewLedger()
	l.Record("url1", "", "", primitives.Programmatic)
	cur := l.Current()
	cur.URL = "mutated"
	if l.Current().URL != "url1" {
		t.Error("ledger entry mutated through returned copy")
	}
}

func TestLedger_ScrollCapture(t *testing.T) {
	v := &fakeViewport{scrollY: 120, offset: -340}
	l := NewLedger(WithViewport(v))

	e := l.Record("a", "", "", primitives.UserClick)
	if e.ScrollPosition != 120 {
		t.Errorf("window scroll = %v, want 120", e.ScrollPosition)
	}

	v.fullscreen = true
	e = l.Record("b", "", "", primitives.UserClick)
	if e.ScrollPosition != -340 {
		t.Errorf("fullscreen scroll = %v, want -340", e.ScrollPosition)
	}
}

func TestLedger_FullscreenPushesUnlessPop(t *testing.T) {
	v := &fakeViewport{}
	var pushed []string
	l := NewLedger(WithViewport(v), WithHistoryPush(func(e primitives.Entry) { pushed = append(pushed, e.URL) }))

	l.Record("a", "", "", primitives.UserClick)
	v.fullscreen = true
	l.Record("b", "", "", primitives.UserClick)
	l.Record("c", "", "", primitives.HistoryPop)

	if len(pushed) != 1 || pushed[0] != "b" {
		t.Errorf("pushed = %v, want [b]", pushed)
	}
}

func TestLedger_PageviewHook(t *testing.T) {
	var views []string
	l := NewLedger(WithPageviewHook(func(e primitives.Entry) { views = append(views, e.URL) }))
	l.Record("a", "", "A", primitives.Programmatic)
	l.Record("b", "", "B", primitives.UserClick)
	if len(views) != 2 {
		t.Errorf("pageviews = %v", views)
	}
}

func TestLedger_BackfillOnce(t *testing.T) {
	l := NewLedger()
	e := l.Record("a", "", "", primitives.UserClick)
	if !l.Backfill(e.ID, "home") {
		t.Fatal("first backfill refused")
	}
	if l.Backfill(e.ID, "other") {
		t.Error("second backfill accepted")
	}
	if l.Backfill("missing", "x") {
		t.Error("unknown id accepted")
	}
	if got := l.Current().Namespace; got != "home" {
		t.Errorf("namespace = %q", got)
	}
}

func TestLedger_QueuedSlotOverwrites(t *testing.T) {
	l := NewLedger()
	if _, ok := l.Queued(); ok {
		t.Fatal("fresh slot not empty")
	}
	l.SetQueued(primitives.Pending{URL: "a"})
	l.SetQueued(primitives.Pending{URL: "b", Origin: primitives.HistoryPop})
	p, ok := l.Queued()
	if !ok || p.URL != "b" || p.Origin != primitives.HistoryPop {
		t.Errorf("queued = %+v, %v", p, ok)
	}
	p, ok = l.TakeQueued()
	if !ok || p.URL != "b" {
		t.Errorf("take = %+v, %v", p, ok)
	}
	if _, ok := l.Queued(); ok {
		t.Error("slot not cleared by TakeQueued")
	}
	l.SetQueued(primitives.Pending{URL: "c"})
	l.ClearQueued()
	if _, ok := l.TakeQueued(); ok {
		t.Error("slot not cleared by ClearQueued")
	}
}

func TestLedger_Flags(t *testing.T) {
	l := NewLedger()
	l.SetPopActive(true)
	l.SetTransitionActive(true)
	if !l.PopActive() || !l.TransitionActive() {
		t.Error("flags not set")
	}
	l.SetPopActive(false)
	l.SetTransitionActive(false)
	if l.PopActive() || l.TransitionActive() {
		t.Error("flags not reset")
	}
}

func TestLedger_Concurrent(t *testing.T) {
	l := NewLedger()
	const N = 100
	done := make(chan bool)
	for i := 0; i < N; i++ {
		go func(i int) {
			l.Record(fmt.Sprintf("url%d", i), "", "", primitives.UserClick)
			l.Current()
			l.Previous()
			done <- true
		}(i)
	}
	for i := 0; i < N; i++ {
		<-done
	}
	if l.Len() != N {
		t.Errorf("Len = %d, want %d", l.Len(), N)
	}
}
