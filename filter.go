package pjaxnav

import (
	"net/url"

	"github.com/comalice/pjaxnav/internal/dom"
	"github.com/comalice/pjaxnav/internal/primitives"
)

// Decision is the result of the link filter.
type Decision int

const (
	// Reject leaves the click to the browser.
	Reject Decision = iota
	// SamePage prevents the default action and does nothing else.
	SamePage
	// Follow navigates to the link.
	Follow
)

func (d Decision) String() string {
	switch d {
	case SamePage:
		return "same-page"
	case Follow:
		return "follow"
	default:
		return "reject"
	}
}

// ShouldFollow decides whether a click on link is handled by the navigator.
func (n *Navigator) ShouldFollow(c *Click, link dom.Link) Decision {
	if n.history == nil || link.Href == "" {
		return Reject
	}
	if c != nil && c.Modified() {
		return Reject
	}
	if link.Target == "_blank" {
		return Reject
	}

	current, err := url.Parse(n.location.Href())
	if err != nil {
		return Reject
	}
	target, err := current.Parse(link.Href)
	if err != nil {
		return Reject
	}
	if !primitives.SameOrigin(current, target) {
		return Reject
	}

	samePage := primitives.CleanURL(target.String()) == primitives.CleanURL(current.String())
	// Anchor jumps within the page stay native.
	if samePage && primitives.HasFragment(link.Href) {
		return Reject
	}
	if link.Download {
		return Reject
	}
	if samePage {
		return SamePage
	}
	if link.Ignored {
		return Reject
	}
	for _, guard := range n.guards {
		if !guard(link, target) {
			return Reject
		}
	}
	return Follow
}
