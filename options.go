package pjaxnav

import (
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/pjaxnav/internal/dom"
)

// DefaultIgnoreClass marks links the navigator must leave alone.
const DefaultIgnoreClass = "no-barba"

// LinkGuard vetoes a link that passed the built-in checks by returning false.
type LinkGuard func(link dom.Link, target *url.URL) bool

// Option configures a Navigator.
type Option func(*Navigator)

func WithLogger(l *slog.Logger) Option {
	return func(n *Navigator) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithHistory enables pushState navigation. Without it every click is left
// to the browser and GoTo performs a full load.
func WithHistory(h History) Option {
	return func(n *Navigator) {
		n.history = h
	}
}

func WithViewport(v Viewport) Option {
	return func(n *Navigator) {
		n.viewport = v
	}
}

// WithTransition selects the transition built for each navigation.
func WithTransition(f TransitionFactory) Option {
	return func(n *Navigator) {
		n.newTransition = f
	}
}

// WithCache toggles response caching. When disabled the cache is cleared
// after every successful load, so in-flight requests are still shared.
func WithCache(enabled bool) Option {
	return func(n *Navigator) {
		n.cacheEnabled = enabled
	}
}

// WithIgnoreClass sets the class that excludes a link and its descendants.
func WithIgnoreClass(class string) Option {
	return func(n *Navigator) {
		n.ignoreClass = class
	}
}

// WithLinkGuard adds a check run after the built-in link filter.
func WithLinkGuard(g LinkGuard) Option {
	return func(n *Navigator) {
		if g != nil {
			n.guards = append(n.guards, g)
		}
	}
}

// WithPageviewHook is called with every entry added to the ledger.
func WithPageviewHook(fn func(Entry)) Option {
	return func(n *Navigator) {
		n.pageview = fn
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(n *Navigator) {
		if t != nil {
			n.tracer = t
		}
	}
}
