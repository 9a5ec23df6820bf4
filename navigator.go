package pjaxnav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/comalice/pjaxnav/internal/core"
	"github.com/comalice/pjaxnav/internal/dom"
	"github.com/comalice/pjaxnav/internal/fsm"
	"github.com/comalice/pjaxnav/internal/primitives"
	"github.com/comalice/pjaxnav/internal/transition"
)

var (
	ErrNotStarted = errors.New("navigator not started")
	ErrClosed     = errors.New("navigator closed")

	ErrMissingWrapper   = dom.ErrMissingWrapper
	ErrMissingContainer = dom.ErrMissingContainer
)

const (
	stateIdle fsm.StateID = iota + 1
	stateBusy
)

const (
	evNavigate fsm.EventID = iota + 1
	evSettle
)

// request is the payload of evNavigate. The machine's guard and actions
// fill in the outcome, and run when a navigation starts.
type request struct {
	url     string
	origin  Origin
	outcome Outcome
	run     *navigation
}

func newRequest(url string, origin Origin) *request {
	return &request{url: url, origin: origin, outcome: Ignored}
}

// navigation is one started load sequence.
type navigation struct {
	url        string
	origin     Origin
	entry      Entry
	previous   *Entry
	outgoing   *html.Node
	fullscreen bool

	ctx    context.Context
	cancel context.CancelFunc
	span   trace.Span
}

// Navigator owns the navigation state of one page session.
type Navigator struct {
	doc      Document
	fetcher  Fetcher
	location Location
	history  History
	viewport Viewport

	logger        *slog.Logger
	tracer        trace.Tracer
	newTransition TransitionFactory
	cacheEnabled  bool
	ignoreClass   string
	guards        []LinkGuard
	pageview      func(Entry)

	bus    *core.Bus
	ledger *core.Ledger
	cache  *core.Cache

	mu       sync.Mutex
	machine  *fsm.Machine
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	closed   bool
	settling bool
	changed  chan struct{}
	wg       sync.WaitGroup
}

// New creates a Navigator over a live document. Call Start before routing
// clicks or history pops to it.
func New(doc Document, fetcher Fetcher, location Location, opts ...Option) (*Navigator, error) {
	if doc == nil || fetcher == nil || location == nil {
		return nil, errors.New("pjaxnav: document, fetcher and location are required")
	}
	n := &Navigator{
		doc:          doc,
		fetcher:      fetcher,
		location:     location,
		logger:       slog.Default(),
		tracer:       otel.Tracer("github.com/comalice/pjaxnav"),
		cacheEnabled: true,
		ignoreClass:  DefaultIgnoreClass,
		changed:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.newTransition == nil {
		n.newTransition = n.defaultTransition()
	}

	ledgerOpts := []core.LedgerOption{core.WithHistoryPush(n.pushEntry)}
	if n.viewport != nil {
		ledgerOpts = append(ledgerOpts, core.WithViewport(n.viewport))
	}
	if n.pageview != nil {
		ledgerOpts = append(ledgerOpts, core.WithPageviewHook(n.pageview))
	}
	n.bus = core.NewBus(n.logger)
	n.ledger = core.NewLedger(ledgerOpts...)
	n.cache = core.NewCache()

	idle := &fsm.State{ID: stateIdle, Name: "Idle", Initial: true}
	busy := &fsm.State{ID: stateBusy, Name: "TransitionInProgress"}
	idle.On(evNavigate, busy, n.notDuplicate, nil)
	busy.OnEntry(n.begin).OnExit(n.finish)
	busy.On(evNavigate, nil, nil, n.enqueue)
	busy.On(evSettle, idle, nil, nil)

	m, err := fsm.NewMachine(idle, busy)
	if err != nil {
		return nil, fmt.Errorf("build state machine: %w", err)
	}
	n.machine = m
	return n, nil
}

// Start validates the document, records the initial page and announces it
// with initStateChange, newPageReady and transitionCompleted.
func (n *Navigator) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	if n.started {
		n.mu.Unlock()
		return nil
	}
	if _, err := n.doc.Wrapper(); err != nil {
		n.mu.Unlock()
		return fmt.Errorf("start: %w", err)
	}
	container, err := n.doc.Container()
	if err != nil {
		n.mu.Unlock()
		return fmt.Errorf("start: %w", err)
	}
	if err := n.doc.MarkLive(); err != nil {
		n.mu.Unlock()
		return fmt.Errorf("start: %w", err)
	}
	if err := n.machine.Start(ctx); err != nil {
		n.mu.Unlock()
		return fmt.Errorf("start: %w", err)
	}

	href := n.location.Href()
	entry := n.ledger.Record(primitives.CleanURL(href), n.doc.Namespace(container), n.doc.Title(), Programmatic)
	n.ctx, n.cancel = context.WithCancel(context.WithoutCancel(ctx))
	n.started = true
	n.notify()
	n.mu.Unlock()

	n.bus.Trigger(primitives.NewEvent(InitStateChange, &entry, nil))
	ready := primitives.NewEvent(NewPageReady, &entry, nil)
	ready.Container = container
	ready.HTML = n.doc.HTML()
	n.bus.Trigger(ready)
	n.bus.Trigger(primitives.NewEvent(TransitionCompleted, &entry, nil))

	if n.history != nil {
		state := HistoryState{
			URL:               href,
			PageID:            n.doc.PageID(),
			CurrentMenuItemID: n.doc.CurrentMenuItem(),
		}
		if err := n.history.Replace(state); err != nil {
			n.logger.Warn("write initial history state", slog.String("url", href), slog.Any("error", err))
		}
	}
	n.logger.Info("navigator started", slog.String("url", entry.URL), slog.String("namespace", entry.Namespace))
	return nil
}

// GoTo navigates to rawURL, resolved against the current location.
func (n *Navigator) GoTo(ctx context.Context, rawURL string) (Outcome, error) {
	if err := n.ready(); err != nil {
		return Ignored, err
	}
	target, err := primitives.Resolve(n.location.Href(), rawURL)
	if err != nil {
		return Ignored, fmt.Errorf("goto %q: %w", rawURL, err)
	}
	if n.history == nil {
		n.location.Assign(target)
		return Reloaded, nil
	}
	return n.navigate(ctx, newRequest(target, Programmatic))
}

// HandleClick routes a document click. Clicks the navigator takes over have
// their default action prevented and propagation stopped.
func (n *Navigator) HandleClick(ctx context.Context, c *Click) (Outcome, error) {
	if err := n.ready(); err != nil {
		return Ignored, err
	}
	if c == nil || c.Target == nil {
		return Ignored, nil
	}
	link, ok := n.doc.ClosestLink(c.Target, n.ignoreClass)
	if !ok {
		return Ignored, nil
	}

	switch n.ShouldFollow(c, link) {
	case Reject:
		return Ignored, nil
	case SamePage:
		c.PreventDefault()
		return Suppressed, nil
	}

	c.StopPropagation()
	c.PreventDefault()
	n.bus.Trigger(primitives.Event{Name: LinkClicked, Link: link.Node, Click: c})

	target, err := primitives.Resolve(n.location.Href(), link.Href)
	if err != nil {
		return Ignored, fmt.Errorf("click %q: %w", link.Href, err)
	}
	return n.navigate(ctx, newRequest(target, UserClick))
}

// HandlePopState routes a history traversal. The location has already
// moved; state is the payload of the entry moved to.
func (n *Navigator) HandlePopState(ctx context.Context, state HistoryState) (Outcome, error) {
	if err := n.ready(); err != nil {
		return Ignored, err
	}
	if state.CurrentMenuItemID != "" {
		n.doc.SetCurrentMenuItem(state.CurrentMenuItemID)
	}
	return n.navigate(ctx, newRequest(n.location.Href(), HistoryPop))
}

// Wait blocks until no navigation is running or pending.
func (n *Navigator) Wait(ctx context.Context) error {
	for {
		n.mu.Lock()
		_, queued := n.ledger.Queued()
		idle := !n.started || (n.machine.In(stateIdle) && !queued && !n.settling)
		ch := n.changed
		n.mu.Unlock()

		if idle {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels running loads and transitions and waits for them to return.
func (n *Navigator) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	cancel := n.cancel
	n.notify()
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	n.wg.Wait()
}

// On registers a lifecycle listener.
func (n *Navigator) On(name EventName, fn Listener) (ListenerID, error) {
	return n.bus.On(name, fn)
}

func (n *Navigator) Off(name EventName, id ListenerID) {
	n.bus.Off(name, id)
}

// Current returns the newest ledger entry.
func (n *Navigator) Current() *Entry { return n.ledger.Current() }

// Previous returns the entry before the newest one.
func (n *Navigator) Previous() *Entry { return n.ledger.Previous() }

// Entries returns the ledger in navigation order.
func (n *Navigator) Entries() []Entry { return n.ledger.Entries() }

// Queued returns the URL waiting for the running navigation, if any.
func (n *Navigator) Queued() (string, bool) {
	p, ok := n.ledger.Queued()
	return p.URL, ok
}

func (n *Navigator) TransitionActive() bool { return n.ledger.TransitionActive() }
func (n *Navigator) PopActive() bool        { return n.ledger.PopActive() }

// Busy reports whether a navigation owns the document.
func (n *Navigator) Busy() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.machine.In(stateBusy)
}

// CachedResponses is the number of URLs in the response cache.
func (n *Navigator) CachedResponses() int { return n.cache.Len() }

func (n *Navigator) ready() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case n.closed:
		return ErrClosed
	case !n.started:
		return ErrNotStarted
	}
	return nil
}

// notify wakes Wait callers. Callers hold n.mu.
func (n *Navigator) notify() {
	close(n.changed)
	n.changed = make(chan struct{})
}

func (n *Navigator) defaultTransition() TransitionFactory {
	td, ok := n.doc.(transition.Document)
	if !ok {
		return func() Transition { return TransitionFunc(swap(n.doc)) }
	}
	return func() Transition {
		var opts []transition.Option
		if s, ok := n.viewport.(transition.Scroller); ok {
			opts = append(opts, transition.WithScroller(s))
		}
		return transition.NewHideShow(td, opts...)
	}
}

// swap shows the incoming container and drops the outgoing one, without
// animation.
func swap(doc Document) func(context.Context, *Session) error {
	return func(ctx context.Context, s *Session) error {
		incoming, err := s.WaitIncoming(ctx)
		if err != nil {
			return err
		}
		dom.SetStyle(incoming, "visibility", "visible")
		doc.Unmount(s.Outgoing)
		return nil
	}
}
