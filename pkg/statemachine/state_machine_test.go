package statemachine

import (
	"testing"
)

type ConnState string

const (
	ConnIdle       ConnState = "IDLE"
	ConnDialing    ConnState = "DIALING"
	ConnActive     ConnState = "ACTIVE"
	ConnClosed     ConnState = "CLOSED"
	ConnReconnects ConnState = "RECONNECTING"
)

func newTestMachine() *StateMachine[ConnState] {
	sm := NewWithState(ConnIdle)
	sm.Allow(ConnIdle, ConnDialing).
		Allow(ConnDialing, ConnActive, ConnClosed).
		Allow(ConnActive, ConnReconnects, ConnClosed).
		Allow(ConnReconnects, ConnActive, ConnClosed)
	return sm
}

func TestStateMachine_Basic(t *testing.T) {
	sm := newTestMachine()

	if sm.Current() != ConnIdle {
		t.Errorf("expected current state %v, got %v", ConnIdle, sm.Current())
	}

	if err := sm.TransitTo(ConnDialing); err != nil {
		t.Errorf("expected transition to succeed, got %v", err)
	}
	if sm.Current() != ConnDialing {
		t.Errorf("expected current state %v, got %v", ConnDialing, sm.Current())
	}

	// undeclared transition
	if err := sm.TransitTo(ConnReconnects); err == nil {
		t.Error("expected transition to fail, but it succeeded")
	}
}

func TestStateMachine_CanTransitTo(t *testing.T) {
	sm := newTestMachine()

	if !sm.CanTransitTo(ConnDialing) {
		t.Error("expected to be able to transit to DIALING")
	}
	if sm.CanTransitTo(ConnActive) {
		t.Error("expected NOT to be able to transit to ACTIVE from IDLE")
	}
}

func TestStateMachine_Hooks(t *testing.T) {
	sm := newTestMachine()

	var transitions []string
	var entered []ConnState

	sm.OnTransition(func(from, to ConnState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	})
	sm.OnEnter(ConnActive, func(s ConnState) {
		entered = append(entered, s)
	})

	if err := sm.TransitTo(ConnDialing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sm.TransitTo(ConnActive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transitions) != 2 {
		t.Errorf("expected 2 transition hook calls, got %d", len(transitions))
	}
	if len(entered) != 1 || entered[0] != ConnActive {
		t.Errorf("expected one enter hook for ACTIVE, got %v", entered)
	}
}

func TestStateMachine_History(t *testing.T) {
	sm := newTestMachine()
	_ = sm.TransitTo(ConnDialing)
	_ = sm.TransitTo(ConnActive)
	_ = sm.TransitTo(ConnClosed)

	h := sm.History()
	if len(h) != 3 {
		t.Fatalf("expected 3 records, got %d", len(h))
	}
	if h[0].From != ConnIdle || h[2].To != ConnClosed {
		t.Errorf("unexpected history: %+v", h)
	}
}
