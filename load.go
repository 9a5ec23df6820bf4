package pjaxnav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/comalice/pjaxnav/internal/core"
	"github.com/comalice/pjaxnav/internal/fsm"
	"github.com/comalice/pjaxnav/internal/primitives"
)

// navigate sends a request through the state machine and starts the load
// sequence when the machine entered TransitionInProgress for it.
func (n *Navigator) navigate(ctx context.Context, req *request) (Outcome, error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return Ignored, ErrClosed
	}
	_, err := n.machine.Send(ctx, fsm.Event{ID: evNavigate, Payload: req})
	if req.run != nil {
		n.wg.Add(2)
	}
	n.notify()
	n.mu.Unlock()

	if err != nil {
		return Ignored, fmt.Errorf("navigate %s: %w", req.url, err)
	}
	n.logger.Debug("navigation request",
		slog.String("url", req.url),
		slog.String("origin", req.origin.String()),
		slog.String("outcome", req.outcome.String()),
	)
	if req.run != nil {
		n.launch(ctx, req.run)
	}
	return req.outcome, nil
}

// notDuplicate guards Idle -> TransitionInProgress.
func (n *Navigator) notDuplicate(_ context.Context, evt *fsm.Event, _, _ fsm.StateID) (bool, error) {
	req := evt.Payload.(*request)
	if cur := n.ledger.Current(); cur != nil && cur.URL == primitives.CleanURL(req.url) {
		req.outcome = Duplicate
		return false, nil
	}
	return true, nil
}

// begin is the entry action of TransitionInProgress.
func (n *Navigator) begin(ctx context.Context, evt *fsm.Event, _, _ fsm.StateID) error {
	req := evt.Payload.(*request)
	outgoing, err := n.doc.Container()
	if err != nil {
		return err
	}

	n.ledger.ClearQueued()
	n.ledger.SetTransitionActive(true)
	n.ledger.SetPopActive(req.origin == HistoryPop)
	fullscreen := n.fullscreen()
	n.pushState(req, fullscreen)

	entry := n.ledger.Record(primitives.CleanURL(req.url), "", n.doc.Title(), req.origin)
	navCtx, cancel := context.WithCancel(n.ctx)
	req.run = &navigation{
		url:        req.url,
		origin:     req.origin,
		entry:      entry,
		previous:   n.ledger.Previous(),
		outgoing:   outgoing,
		fullscreen: fullscreen,
		ctx:        navCtx,
		cancel:     cancel,
	}
	req.outcome = Started
	return nil
}

// enqueue is the internal transition taken while busy.
func (n *Navigator) enqueue(_ context.Context, evt *fsm.Event, _, _ fsm.StateID) error {
	req := evt.Payload.(*request)
	if p, ok := n.ledger.Queued(); ok && primitives.CleanURL(p.URL) == primitives.CleanURL(req.url) {
		req.outcome = Dropped
		return nil
	}
	n.ledger.SetQueued(primitives.Pending{URL: req.url, Origin: req.origin})
	n.pushState(req, n.fullscreen())
	req.outcome = Queued
	return nil
}

// finish is the exit action of TransitionInProgress.
func (n *Navigator) finish(context.Context, *fsm.Event, fsm.StateID, fsm.StateID) error {
	n.ledger.SetTransitionActive(false)
	n.ledger.SetPopActive(false)
	return nil
}

func (n *Navigator) fullscreen() bool {
	return n.viewport != nil && n.viewport.Fullscreen()
}

// pushState writes the address of a click or programmatic navigation to
// history. In fullscreen mode the ledger does it instead.
func (n *Navigator) pushState(req *request, fullscreen bool) {
	if n.history == nil || req.origin == HistoryPop || fullscreen {
		return
	}
	state := HistoryState{
		URL:               req.url,
		Title:             n.doc.Title(),
		PageID:            n.doc.PageID(),
		CurrentMenuItemID: n.doc.CurrentMenuItem(),
	}
	if err := n.history.Push(state); err != nil {
		n.logger.Warn("push history state", slog.String("url", req.url), slog.Any("error", err))
	}
}

// pushEntry is the ledger's fullscreen history hook.
func (n *Navigator) pushEntry(e Entry) {
	if n.history == nil {
		return
	}
	state := HistoryState{
		URL:               e.URL,
		Title:             e.PageTitle,
		PageID:            n.doc.PageID(),
		CurrentMenuItemID: n.doc.CurrentMenuItem(),
	}
	if err := n.history.Push(state); err != nil {
		n.logger.Warn("push history state", slog.String("url", e.URL), slog.Any("error", err))
	}
}

// launch announces a started navigation and runs its load and transition.
func (n *Navigator) launch(ctx context.Context, nav *navigation) {
	_, nav.span = n.tracer.Start(ctx, "pjaxnav.navigate", trace.WithAttributes(
		attribute.String("url.full", nav.url),
		attribute.String("pjaxnav.origin", nav.origin.String()),
	))
	n.logger.Info("navigation started", slog.String("url", nav.url), slog.String("origin", nav.origin.String()))

	cur := nav.entry
	n.bus.Trigger(primitives.NewEvent(InitStateChange, &cur, nav.previous))

	incoming := make(chan *html.Node, 1)
	resp := n.response(trace.ContextWithSpan(n.ctx, nav.span), nav.url)

	go func() {
		defer n.wg.Done()
		n.load(nav, resp, incoming)
	}()
	go func() {
		defer n.wg.Done()
		n.transit(nav, incoming)
	}()
}

// response returns the cached response for url or starts fetching it.
func (n *Navigator) response(ctx context.Context, url string) *core.Response {
	key := primitives.CleanURL(url)
	if r := n.cache.Get(key); r != nil {
		return r
	}
	r := core.NewResponse()
	if stored := n.cache.Set(key, r); stored != r {
		return stored
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		body, err := n.fetcher.Fetch(ctx, key)
		r.Resolve(body, err)
	}()
	return r
}

// load waits for the page, mounts its container hidden and hands it to the
// transition.
func (n *Navigator) load(nav *navigation, resp *core.Response, incoming chan<- *html.Node) {
	body, err := resp.Wait(nav.ctx)
	if err != nil {
		if nav.ctx.Err() != nil {
			close(incoming)
			return
		}
		n.fail(nav, incoming, err)
		return
	}

	page, err := n.doc.Parse(body)
	if err != nil {
		n.fail(nav, incoming, err)
		return
	}
	n.doc.ApplyPage(page)
	if err := n.doc.Mount(page.Container); err != nil {
		n.fail(nav, incoming, err)
		return
	}
	if !n.cacheEnabled {
		n.cache.Reset()
	}

	cur := nav.entry
	if n.ledger.Backfill(cur.ID, page.Namespace) {
		cur.Namespace = page.Namespace
	}
	evt := primitives.NewEvent(NewPageReady, &cur, nav.previous)
	evt.Container = page.Container
	evt.HTML = page.HTML
	n.bus.Trigger(evt)

	incoming <- page.Container
}

// fail falls back to a full page load of the navigation's URL.
func (n *Navigator) fail(nav *navigation, incoming chan<- *html.Node, err error) {
	n.logger.Warn("page load failed, falling back to full load",
		slog.String("url", nav.url),
		slog.Any("error", err),
	)
	nav.span.RecordError(err)
	nav.span.SetStatus(codes.Error, err.Error())

	n.mu.Lock()
	n.ledger.ClearQueued()
	n.mu.Unlock()

	n.location.Assign(nav.url)
	close(incoming)
	nav.cancel()
}

// transit runs the transition, then leaves TransitionInProgress and starts
// the pending navigation if there is one.
func (n *Navigator) transit(nav *navigation, incoming <-chan *html.Node) {
	s := &Session{
		URL:        nav.url,
		Outgoing:   nav.outgoing,
		Incoming:   incoming,
		Origin:     nav.origin,
		Current:    &nav.entry,
		Previous:   nav.previous,
		Fullscreen: nav.fullscreen,
	}
	err := n.newTransition().Run(nav.ctx, s)
	n.settle(nav, err)
}

func (n *Navigator) settle(nav *navigation, runErr error) {
	defer nav.span.End()

	n.mu.Lock()
	if _, err := n.machine.Send(nav.ctx, fsm.Event{ID: evSettle}); err != nil {
		n.logger.Error("leave transition state", slog.Any("error", err))
	}
	var (
		next    primitives.Pending
		pending bool
	)
	if runErr == nil && !n.closed {
		next, pending = n.ledger.TakeQueued()
	} else {
		n.ledger.ClearQueued()
	}
	// Wait holds until completion has been announced and the pending
	// navigation, if any, has started.
	n.settling = runErr == nil
	cur, prev := n.ledger.Current(), n.ledger.Previous()
	n.notify()
	n.mu.Unlock()
	nav.cancel()

	if runErr != nil {
		if !errors.Is(runErr, primitives.ErrNoIncoming) && !errors.Is(runErr, context.Canceled) {
			n.logger.Warn("transition failed", slog.String("url", nav.url), slog.Any("error", runErr))
			nav.span.RecordError(runErr)
		}
		return
	}

	n.logger.Info("navigation completed", slog.String("url", cur.URL))
	n.bus.Trigger(primitives.NewEvent(TransitionCompleted, cur, prev))

	if pending {
		if _, err := n.navigate(n.ctx, newRequest(next.URL, next.Origin)); err != nil {
			n.logger.Warn("start queued navigation", slog.String("url", next.URL), slog.Any("error", err))
		}
	}
	n.mu.Lock()
	n.settling = false
	n.notify()
	n.mu.Unlock()
}
