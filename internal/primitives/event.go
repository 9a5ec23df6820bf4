// Event provides the lifecycle event primitive delivered by the event bus.
//
// The vocabulary is fixed: InitStateChange, NewPageReady, TransitionCompleted
// and LinkClicked. Which payload fields are set depends on the name:
//
//	InitStateChange      Current, Previous
//	NewPageReady         Current, Previous, Container, HTML
//	TransitionCompleted  Current, Previous
//	LinkClicked          Link, Click
//
// Events are passed by value. Consumers MUST NOT mutate the nodes they carry
// outside of the transition that owns them.
package primitives

import "golang.org/x/net/html"

// EventName names one of the lifecycle events.
type EventName string

const (
	InitStateChange     EventName = "initStateChange"
	NewPageReady        EventName = "newPageReady"
	TransitionCompleted EventName = "transitionCompleted"
	LinkClicked         EventName = "linkClicked"
)

// EventNames lists the vocabulary in declaration order.
var EventNames = []EventName{InitStateChange, NewPageReady, TransitionCompleted, LinkClicked}

// Valid reports whether n belongs to the vocabulary.
func (n EventName) Valid() bool {
	for _, known := range EventNames {
		if n == known {
			return true
		}
	}
	return false
}

type Event struct {
	Name      EventName
	Current   *Entry
	Previous  *Entry
	Container *html.Node
	HTML      string
	Link      *html.Node
	Click     *Click
}

// NewEvent creates a lifecycle event carrying the current and previous entries.
func NewEvent(name EventName, current, previous *Entry) Event {
	return Event{
		Name:     name,
		Current:  current,
		Previous: previous,
	}
}

// Click describes a pointer activation on the document.
type Click struct {
	Target *html.Node
	// Button follows MouseEvent.which: 1 primary, 2 middle, 3 secondary.
	Button int
	Meta   bool
	Ctrl   bool
	Shift  bool
	Alt    bool

	DefaultPrevented   bool
	PropagationStopped bool
}

// PreventDefault marks the click as handled so the native navigation is skipped.
func (c *Click) PreventDefault() { c.DefaultPrevented = true }

// StopPropagation marks the click as consumed.
func (c *Click) StopPropagation() { c.PropagationStopped = true }

// Modified reports a non-primary button or any modifier key.
func (c *Click) Modified() bool {
	return c.Button > 1 || c.Meta || c.Ctrl || c.Shift || c.Alt
}
