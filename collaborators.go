package pjaxnav

import (
	"context"

	"golang.org/x/net/html"

	"github.com/comalice/pjaxnav/internal/core"
	"github.com/comalice/pjaxnav/internal/dom"
)

// Fetcher loads page markup. It must fail for anything but HTTP 200.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Document is the live page.
type Document interface {
	Wrapper() (*html.Node, error)
	Container() (*html.Node, error)
	MarkLive() error
	Parse(markup string) (*dom.Page, error)
	ApplyPage(p *dom.Page)
	Mount(node *html.Node) error
	Unmount(node *html.Node)
	Namespace(node *html.Node) string
	Title() string
	PageID() string
	CurrentMenuItem() string
	SetCurrentMenuItem(id string)
	ClosestLink(target *html.Node, ignoreClass string) (dom.Link, bool)
	HTML() string
}

// History is the browser session history.
type History interface {
	Push(state HistoryState) error
	Replace(state HistoryState) error
	State() HistoryState
}

// Location is the address bar.
type Location interface {
	Href() string
	// Assign performs a full, non-PJAX page load.
	Assign(url string)
}

// Viewport reports the scroll position and fullscreen mode.
type Viewport = core.Viewport
