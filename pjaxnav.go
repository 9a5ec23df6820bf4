// Package pjaxnav orchestrates PJAX navigation: it intercepts in-page link
// clicks, history pops and programmatic requests, fetches the target page,
// swaps its content container into the live document and runs a transition
// between the two containers.
//
// One navigation owns the document at a time. Requests arriving meanwhile go
// to a single pending slot; the latest one wins and starts when the current
// transition completes.
package pjaxnav

import (
	"github.com/comalice/pjaxnav/internal/core"
	"github.com/comalice/pjaxnav/internal/primitives"
)

type (
	Entry          = primitives.Entry
	Event          = primitives.Event
	EventName      = primitives.EventName
	Click          = primitives.Click
	Origin         = primitives.Origin
	HistoryState   = primitives.HistoryState
	Session        = primitives.Session
	Transition     = primitives.Transition
	TransitionFunc = primitives.TransitionFunc
	Listener       = core.Listener
	ListenerID     = core.ListenerID
)

const (
	InitStateChange     = primitives.InitStateChange
	NewPageReady        = primitives.NewPageReady
	TransitionCompleted = primitives.TransitionCompleted
	LinkClicked         = primitives.LinkClicked
)

const (
	Programmatic = primitives.Programmatic
	UserClick    = primitives.UserClick
	HistoryPop   = primitives.HistoryPop
)

// TransitionFactory builds a fresh transition for each navigation.
type TransitionFactory func() Transition

// Outcome reports what a navigation request turned into.
type Outcome int

const (
	// Started: the request began a navigation.
	Started Outcome = iota
	// Queued: a navigation is running; the request took the pending slot.
	Queued
	// Dropped: the request matched the URL already pending.
	Dropped
	// Duplicate: the request targets the current page.
	Duplicate
	// Ignored: the click is left to the browser.
	Ignored
	// Suppressed: a click on a link to the current page; the default
	// action was prevented and nothing else happened.
	Suppressed
	// Reloaded: history is unavailable, the location performed a full load.
	Reloaded
)

func (o Outcome) String() string {
	switch o {
	case Started:
		return "started"
	case Queued:
		return "queued"
	case Dropped:
		return "dropped"
	case Duplicate:
		return "duplicate"
	case Ignored:
		return "ignored"
	case Suppressed:
		return "suppressed"
	case Reloaded:
		return "reloaded"
	default:
		return "unknown"
	}
}
