// Package fsm is a small flat state machine: states with entry and exit
// actions, event-triggered transitions with optional guard and action, and
// internal transitions (nil target) that run only their action.
//
// A Machine is not safe for concurrent use; callers serialize Send.
package fsm

import (
	"context"
	"errors"
)

type StateID int
type EventID int

type Event struct {
	ID      EventID
	Payload any
}

type Action func(ctx context.Context, evt *Event, from StateID, to StateID) error
type Guard func(ctx context.Context, evt *Event, from StateID, to StateID) (bool, error)

type State struct {
	ID          StateID
	Name        string
	Transitions []*Transition
	EntryAction Action
	ExitAction  Action
	Initial     bool
}

type Transition struct {
	Event  EventID
	Source *State
	Target *State // nil --> internal transition
	Guard  Guard  // nil --> always
	Action Action // nil --> do nothing
}

type Machine struct {
	states  map[StateID]*State
	initial *State
	current *State
	started bool
}

var (
	ErrNoStates     = errors.New("no states provided")
	ErrNilState     = errors.New("nil state")
	ErrDuplicateID  = errors.New("duplicate state ID")
	ErrManyInitial  = errors.New("more than one initial state")
	ErrNotStarted   = errors.New("machine not started")
	ErrUnknownState = errors.New("transition target not registered")
)

//
// Public API
//

func (s *State) OnEntry(action Action) *State {
	s.EntryAction = action
	return s
}

func (s *State) OnExit(action Action) *State {
	s.ExitAction = action
	return s
}

// On registers a transition for evt. A nil target makes it internal.
func (s *State) On(evt EventID, target *State, guard Guard, action Action) *State {
	s.Transitions = append(s.Transitions, &Transition{
		Event:  evt,
		Source: s,
		Target: target,
		Guard:  guard,
		Action: action,
	})
	return s
}

func NewMachine(states ...*State) (*Machine, error) {
	if len(states) == 0 {
		return nil, ErrNoStates
	}
	m := &Machine{states: map[StateID]*State{}}

	var initial *State
	for _, s := range states {
		if s == nil {
			return nil, ErrNilState
		}
		if _, exists := m.states[s.ID]; exists {
			return nil, ErrDuplicateID
		}
		m.states[s.ID] = s
		if s.Initial {
			if initial != nil {
				return nil, ErrManyInitial
			}
			initial = s
		}
	}
	if initial == nil {
		initial = states[0] // First state is assigned as initial.
	}
	m.initial = initial

	for _, s := range states {
		for _, t := range s.Transitions {
			if t == nil {
				continue
			}
			if t.Source == nil {
				t.Source = s
			}
			if t.Target != nil {
				if _, ok := m.states[t.Target.ID]; !ok {
					return nil, ErrUnknownState
				}
			}
		}
	}
	return m, nil
}

// Start enters the initial state. Calling it again is a no-op.
func (m *Machine) Start(ctx context.Context) error {
	if m.started {
		return nil
	}
	m.current = m.initial
	m.started = true
	return m.current.enterState(ctx, nil, m.current.ID, m.current.ID)
}

// Send delivers evt and reports whether a transition fired. Events with no
// matching transition, or whose guard refuses, are ignored.
func (m *Machine) Send(ctx context.Context, evt Event) (bool, error) {
	if !m.started {
		return false, ErrNotStarted
	}

	t := m.pickTransition(m.current, &evt)
	if t == nil {
		return false, nil
	}

	next, fired, err := t.doTransition(ctx, &evt)
	if err != nil {
		return false, err
	}
	m.current = next
	return fired, nil
}

// Current returns the active state ID.
func (m *Machine) Current() StateID {
	if m.current == nil {
		return m.initial.ID
	}
	return m.current.ID
}

// In reports whether id is the active state.
func (m *Machine) In(id StateID) bool {
	return m.started && m.current.ID == id
}

//
// Helper Functions (internal API)
//

func (s *State) enterState(ctx context.Context, evt *Event, from StateID, to StateID) error {
	if s.EntryAction != nil {
		return s.EntryAction(ctx, evt, from, to)
	}
	return nil
}

func (s *State) exitState(ctx context.Context, evt *Event, from StateID, to StateID) error {
	if s.ExitAction != nil {
		return s.ExitAction(ctx, evt, from, to)
	}
	return nil
}

// pickTransition grabs the _first_ transition registered for the event.
func (m *Machine) pickTransition(s *State, evt *Event) *Transition {
	for _, t := range s.Transitions {
		if t == nil || t.Event != evt.ID {
			continue
		}
		return t
	}
	return nil
}

func (t *Transition) targetID() StateID {
	if t.Target == nil {
		return t.Source.ID
	}
	return t.Target.ID
}

// doTransition evaluates a transition and returns the resulting state.
func (t *Transition) doTransition(ctx context.Context, evt *Event) (*State, bool, error) {
	from, to := t.Source.ID, t.targetID()

	if t.Guard != nil {
		pass, err := t.Guard(ctx, evt, from, to)
		if err != nil || !pass {
			return t.Source, false, err
		}
	}

	// Internal transition: action only, no exit/entry.
	if t.Target == nil {
		if t.Action != nil {
			if err := t.Action(ctx, evt, from, to); err != nil {
				return t.Source, false, err
			}
		}
		return t.Source, true, nil
	}

	if err := t.Source.exitState(ctx, evt, from, to); err != nil {
		return t.Source, false, err
	}

	if t.Action != nil {
		if err := t.Action(ctx, evt, from, to); err != nil {
			// Rewind to previous state.
			if err := t.Source.enterState(ctx, nil, from, to); err != nil {
				return t.Source, false, err
			}
			return t.Source, false, err
		}
	}

	if err := t.Target.enterState(ctx, evt, from, to); err != nil {
		return t.Source, false, err
	}
	return t.Target, true, nil
}
