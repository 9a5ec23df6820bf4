package transition

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/comalice/pjaxnav/internal/browser"
	"github.com/comalice/pjaxnav/internal/dom"
	"github.com/comalice/pjaxnav/internal/primitives"
)

const livePage = `<html><head><title>Home</title></head><body id="page-1" class="home">
<div id="barba-wrapper"><div class="barba-container" data-namespace="home">old</div></div>
</body></html>`

const nextPage = `<html><head><title>Next</title></head><body id="page-2" class="next wide">
<div id="barba-wrapper"><div class="barba-container" data-namespace="next"><p id="part">new</p></div></div>
</body></html>`

type fixture struct {
	doc      *dom.Document
	view     *browser.Session
	outgoing *html.Node
	incoming *html.Node
	h        *HideShow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := dom.New(livePage, dom.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	out, err := doc.Container()
	if err != nil {
		t.Fatal(err)
	}
	page, err := doc.Parse(nextPage)
	if err != nil {
		t.Fatal(err)
	}
	doc.ApplyPage(page)
	if err := doc.Mount(page.Container); err != nil {
		t.Fatal(err)
	}
	view := browser.NewSession("http://site/")
	return &fixture{
		doc:      doc,
		view:     view,
		outgoing: out,
		incoming: page.Container,
		h:        NewHideShow(doc, WithScroller(view), WithFrameInterval(time.Millisecond), WithStep(0.25)),
	}
}

func (f *fixture) session(origin primitives.Origin, url string) (*primitives.Session, chan *html.Node) {
	ch := make(chan *html.Node, 1)
	return &primitives.Session{
		URL:      url,
		Outgoing: f.outgoing,
		Incoming: ch,
		Origin:   origin,
	}, ch
}

func TestHideShow_SwapsContainers(t *testing.T) {
	f := newFixture(t)
	s, ch := f.session(primitives.UserClick, "http://site/next#part")
	ch <- f.incoming

	if err := f.h.Run(context.Background(), s); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if f.outgoing.Parent != nil {
		t.Error("outgoing container should be removed")
	}
	if got := f.doc.Style(f.incoming, "visibility"); got != "visible" {
		t.Errorf("incoming visibility = %q", got)
	}
	if got := f.doc.Style(f.incoming, "opacity"); got != "1" {
		t.Errorf("incoming opacity = %q", got)
	}
	if got := f.doc.Style(f.outgoing, "opacity"); got != "0" {
		t.Errorf("outgoing opacity = %q", got)
	}
	if got := f.doc.BodyClasses(); got != "next wide" {
		t.Errorf("body classes = %q", got)
	}

	scrolled := f.view.ScrolledInto()
	if len(scrolled) != 2 || scrolled[0] != "barba-wrapper" || scrolled[1] != "part" {
		t.Errorf("scrolled into = %v", scrolled)
	}
}

func TestHideShow_PopRestoresFullscreenScroll(t *testing.T) {
	f := newFixture(t)
	f.view.SetFullscreen(true)

	var positions []float64
	rec := scrollRecorder{to: func(y float64) { positions = append(positions, y) }}
	f.h = NewHideShow(f.doc, WithScroller(rec), WithFrameInterval(time.Millisecond), WithStep(0.5))

	s, ch := f.session(primitives.HistoryPop, "http://site/next")
	s.Fullscreen = true
	s.Previous = &primitives.Entry{URL: "http://site/next", ScrollPosition: -420}
	ch <- f.incoming

	if err := f.h.Run(context.Background(), s); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(positions) != 2 || positions[0] != 420 || positions[1] != 0 {
		t.Errorf("scroll positions = %v, want [420 0]", positions)
	}
}

func TestHideShow_FailsWhenIncomingClosed(t *testing.T) {
	f := newFixture(t)
	s, ch := f.session(primitives.Programmatic, "http://site/next")
	close(ch)

	err := f.h.Run(context.Background(), s)
	if !errors.Is(err, primitives.ErrNoIncoming) {
		t.Fatalf("err = %v, want ErrNoIncoming", err)
	}
	if f.outgoing.Parent == nil {
		t.Error("outgoing container must stay when the load failed")
	}
}

func TestHideShow_ReturnsOnCancel(t *testing.T) {
	f := newFixture(t)
	s, _ := f.session(primitives.UserClick, "http://site/next")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.h.Run(ctx, s) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type scrollRecorder struct {
	to func(float64)
}

func (r scrollRecorder) ScrollTo(y float64)    { r.to(y) }
func (r scrollRecorder) ScrollIntoView(string) {}
