package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/pjaxnav"
	"github.com/comalice/pjaxnav/internal/browser"
	"github.com/comalice/pjaxnav/internal/dom"
	"github.com/comalice/pjaxnav/internal/extensibility"
	"github.com/comalice/pjaxnav/internal/platform/config"
	"github.com/comalice/pjaxnav/internal/primitives"
	"github.com/comalice/pjaxnav/internal/production"
	"github.com/comalice/pjaxnav/internal/transition"
	"github.com/comalice/pjaxnav/internal/transport"
)

const settleTimeout = 30 * time.Second

var errQuit = errors.New("quit")

// shell is one headless browsing session driven by text commands.
type shell struct {
	id        string
	nav       *pjaxnav.Navigator
	doc       *dom.Document
	win       *browser.Session
	events    chan production.PublishedEvent
	publisher *production.ChannelPublisher
	listeners []pjaxnav.ListenerID
	persister production.Persister
	vis       production.DefaultVisualizer
	logger    *slog.Logger
	out       io.Writer
	drained   chan struct{}
}

func newShell(ctx context.Context, cfg config.Config, startURL string, logger *slog.Logger, out io.Writer) (*shell, error) {
	fetcher := transport.NewHTTPFetcher(
		transport.WithTimeout(cfg.FetchTimeout),
		transport.WithHeader(cfg.RequestHeader),
	)
	markup, err := fetcher.Fetch(ctx, startURL)
	if err != nil {
		return nil, fmt.Errorf("load start page: %w", err)
	}

	opts := dom.DefaultOptions()
	opts.WrapperID = cfg.WrapperID
	opts.ContainerClass = cfg.ContainerClass
	opts.NamespaceAttr = cfg.NamespaceAttr
	doc, err := dom.New(markup, opts)
	if err != nil {
		return nil, err
	}

	s := &shell{
		id:      uuid.NewString(),
		doc:     doc,
		logger:  logger,
		out:     out,
		events:  make(chan production.PublishedEvent, 64),
		drained: make(chan struct{}),
	}
	s.win = browser.NewSession(startURL, browser.WithAssignHook(func(url string) {
		logger.Warn("full page load", slog.String("url", url))
	}))

	if cfg.HistoryDir != "" {
		s.persister, err = production.NewPersister(cfg.HistoryFormat, cfg.HistoryDir)
		if err != nil {
			return nil, err
		}
	}

	guards, err := extensibility.ParseGuards(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	hideShow := func() primitives.Transition {
		return transition.NewHideShow(doc,
			transition.WithScroller(s.win),
			transition.WithFrameInterval(cfg.FrameInterval),
			transition.WithWrapperID(cfg.WrapperID),
		)
	}
	navOpts := []pjaxnav.Option{
		pjaxnav.WithLogger(logger),
		pjaxnav.WithHistory(s.win),
		pjaxnav.WithViewport(s.win),
		pjaxnav.WithCache(cfg.CacheEnabled),
		pjaxnav.WithIgnoreClass(cfg.IgnoreClass),
		pjaxnav.WithTransition(extensibility.Logged(hideShow, logger)),
		pjaxnav.WithPageviewHook(func(e pjaxnav.Entry) {
			logger.Info("pageview", slog.String("url", e.URL), slog.String("origin", e.Origin.String()))
		}),
	}
	for _, g := range guards {
		navOpts = append(navOpts, pjaxnav.WithLinkGuard(g))
	}

	s.nav, err = pjaxnav.New(doc, fetcher, s.win, navOpts...)
	if err != nil {
		return nil, err
	}
	s.win.OnPopState(func(state pjaxnav.HistoryState) {
		if _, err := s.nav.HandlePopState(ctx, state); err != nil {
			logger.Warn("popstate", slog.Any("error", err))
		}
	})

	s.publisher = production.NewChannelPublisher(s.events)
	if s.listeners, err = s.publisher.Attach(s.nav); err != nil {
		return nil, err
	}
	go s.drain()

	if err := s.nav.Start(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *shell) drain() {
	defer close(s.drained)
	for evt := range s.events {
		s.logger.Debug("event", slog.String("name", string(evt.Name)), slog.String("url", evt.URL))
	}
}

// Close stops the navigator and the event feed.
func (s *shell) Close() {
	s.nav.Close()
	for i, id := range s.listeners {
		s.nav.Off(primitives.EventNames[i], id)
	}
	_ = s.publisher.Close()
	<-s.drained
}

// Run reads commands from in until quit, EOF or ctx is done.
func (s *shell) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(s.out, "type help for commands")
	for {
		fmt.Fprint(s.out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := s.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(s.out, "go <url> | click <id> | back | forward | tour <interval> <url>... | where | ledger | dot | save | quit")
		return nil
	case "quit", "exit":
		return errQuit
	case "go":
		if len(args) != 1 {
			return errors.New("usage: go <url>")
		}
		out, err := s.nav.GoTo(ctx, args[0])
		if err != nil {
			return err
		}
		return s.settle(ctx, out)
	case "click":
		if len(args) != 1 {
			return errors.New("usage: click <id>")
		}
		el := s.doc.ElementByID(args[0])
		if el == nil {
			return fmt.Errorf("no element #%s", args[0])
		}
		c := &pjaxnav.Click{Target: el, Button: 1}
		out, err := s.nav.HandleClick(ctx, c)
		if err != nil {
			return err
		}
		if !c.DefaultPrevented {
			fmt.Fprintln(s.out, "not intercepted: the browser would follow it")
		}
		return s.settle(ctx, out)
	case "back", "forward":
		move := s.win.Back
		if cmd == "forward" {
			move = s.win.Forward
		}
		if err := move(); err != nil {
			return err
		}
		return s.settle(ctx, pjaxnav.Started)
	case "tour":
		if len(args) < 2 {
			return errors.New("usage: tour <interval> <url>...")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return err
		}
		src := extensibility.NewTourSource(args[1:], d, false)
		defer src.Stop()
		if err := extensibility.Pump(ctx, src, s.nav, s.logger); err != nil {
			return err
		}
		return s.settle(ctx, pjaxnav.Started)
	case "where":
		s.where()
		return nil
	case "ledger":
		for i, e := range s.nav.Entries() {
			fmt.Fprintf(s.out, "%3d %-12s %-10s %s\n", i, e.Origin, e.Namespace, e.URL)
		}
		return nil
	case "dot":
		fmt.Fprint(s.out, s.vis.ExportDOT(s.nav.Entries()))
		return nil
	case "save":
		return s.save(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (s *shell) settle(ctx context.Context, out pjaxnav.Outcome) error {
	fmt.Fprintln(s.out, out)
	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if err := s.nav.Wait(ctx); err != nil {
		return err
	}
	s.where()
	return nil
}

func (s *shell) where() {
	cur := s.nav.Current()
	if cur == nil {
		return
	}
	fmt.Fprintf(s.out, "%s [%s] %q\n", s.win.Href(), cur.Namespace, s.doc.Title())
}

func (s *shell) save(ctx context.Context) error {
	if s.persister == nil {
		return errors.New("history dir not configured")
	}
	snap := production.SessionSnapshot{
		SessionID: s.id,
		History:   s.win.Snapshot(),
		Entries:   s.nav.Entries(),
		SavedAt:   time.Now(),
	}
	if err := s.persister.Save(ctx, snap); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved session %s\n", s.id)
	return nil
}
