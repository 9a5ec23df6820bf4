// Package transition holds the stock transitions.
package transition

import (
	"context"
	"math"
	"strconv"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/pjaxnav/internal/primitives"
)

const (
	// DefaultFrameInterval approximates one animation frame.
	DefaultFrameInterval = 16 * time.Millisecond
	// DefaultStep is the opacity change per frame.
	DefaultStep = 0.05
)

// Document is the part of the live page a HideShow touches.
type Document interface {
	Style(n *html.Node, prop string) string
	SetStyle(n *html.Node, prop, val string)
	ApplyBodyClasses()
	Unmount(n *html.Node)
}

// Scroller moves the viewport. In fullscreen mode ScrollTo moves the
// fullscreen element instead of the window.
type Scroller interface {
	ScrollTo(y float64)
	ScrollIntoView(id string)
}

type nopScroller struct{}

func (nopScroller) ScrollTo(float64)      {}
func (nopScroller) ScrollIntoView(string) {}

// HideShow fades the old container out while the new one loads, then fades
// the new one in.
type HideShow struct {
	doc       Document
	scroll    Scroller
	frame     time.Duration
	steps     int
	wrapperID string
}

// Option configures a HideShow.
type Option func(*HideShow)

func WithFrameInterval(d time.Duration) Option {
	return func(h *HideShow) {
		if d > 0 {
			h.frame = d
		}
	}
}

// WithStep sets the opacity change per frame.
func WithStep(step float64) Option {
	return func(h *HideShow) {
		if step > 0 && step <= 1 {
			h.steps = int(math.Round(1 / step))
		}
	}
}

func WithScroller(s Scroller) Option {
	return func(h *HideShow) {
		if s != nil {
			h.scroll = s
		}
	}
}

// WithWrapperID names the element scrolled into view on forward navigations.
func WithWrapperID(id string) Option {
	return func(h *HideShow) {
		h.wrapperID = id
	}
}

func NewHideShow(doc Document, opts ...Option) *HideShow {
	h := &HideShow{
		doc:       doc,
		scroll:    nopScroller{},
		frame:     DefaultFrameInterval,
		steps:     int(math.Round(1 / DefaultStep)),
		wrapperID: "barba-wrapper",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run implements primitives.Transition.
func (h *HideShow) Run(ctx context.Context, s *primitives.Session) error {
	var incoming *html.Node

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.WaitIncoming(gctx)
		incoming = n
		return err
	})
	g.Go(func() error {
		if err := h.fadeOut(gctx, s.Outgoing); err != nil {
			return err
		}
		switch {
		case s.Origin != primitives.HistoryPop:
			h.scroll.ScrollIntoView(h.wrapperID)
		case s.Fullscreen && s.Previous != nil:
			h.scroll.ScrollTo(math.Abs(s.Previous.ScrollPosition))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	h.doc.ApplyBodyClasses()
	h.doc.SetStyle(incoming, "display", "none")
	h.doc.SetStyle(incoming, "opacity", "0")
	h.doc.SetStyle(incoming, "visibility", "visible")
	if err := h.fadeIn(ctx, incoming); err != nil {
		return err
	}

	h.doc.Unmount(s.Outgoing)
	h.scroll.ScrollTo(0)
	if frag := primitives.Fragment(s.URL); frag != "" {
		h.scroll.ScrollIntoView(frag)
	}
	return nil
}

func (h *HideShow) fadeOut(ctx context.Context, el *html.Node) error {
	if el == nil {
		return nil
	}
	h.doc.SetStyle(el, "opacity", "1")
	return h.animate(ctx, func(i int) {
		h.doc.SetStyle(el, "opacity", h.opacity(h.steps-i))
	})
}

func (h *HideShow) fadeIn(ctx context.Context, el *html.Node) error {
	h.doc.SetStyle(el, "opacity", "0")
	h.doc.SetStyle(el, "display", "block")
	return h.animate(ctx, func(i int) {
		h.doc.SetStyle(el, "opacity", h.opacity(i))
	})
}

// animate calls frame once per tick for i in 1..steps.
func (h *HideShow) animate(ctx context.Context, frame func(i int)) error {
	ticker := time.NewTicker(h.frame)
	defer ticker.Stop()

	for i := 1; i <= h.steps; i++ {
		select {
		case <-ticker.C:
			frame(i)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (h *HideShow) opacity(i int) string {
	return strconv.FormatFloat(float64(i)/float64(h.steps), 'f', -1, 64)
}
