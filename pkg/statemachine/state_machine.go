// Package statemachine provides a small, thread-safe finite state machine
// with declared transitions and enter/transition hooks.
package statemachine

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// TransitionHook is invoked after a state transition occurs.
type TransitionHook[T comparable] func(from, to T)

// StateHook is invoked when entering a state.
type StateHook[T comparable] func(state T)

// TransitionRecord records one transition in the machine's history.
type TransitionRecord[T comparable] struct {
	From      T
	To        T
	Timestamp time.Time
}

// StateMachine is a generic finite state machine. Transitions must be
// declared with Allow before they can be taken; undeclared transitions fail.
type StateMachine[T comparable] struct {
	mu sync.RWMutex

	current     T
	transitions map[T][]T

	onTransition []TransitionHook[T]
	onEnter      map[T][]StateHook[T]

	history        []TransitionRecord[T]
	maxHistorySize int
}

// NewWithState creates a StateMachine starting in the given state.
func NewWithState[T comparable](initial T) *StateMachine[T] {
	return &StateMachine[T]{
		current:        initial,
		transitions:    make(map[T][]T),
		onEnter:        make(map[T][]StateHook[T]),
		maxHistorySize: 64,
	}
}

// Allow declares valid transitions from a source state.
func (sm *StateMachine[T]) Allow(from T, to ...T) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, target := range to {
		if !slices.Contains(sm.transitions[from], target) {
			sm.transitions[from] = append(sm.transitions[from], target)
		}
	}
	return sm
}

// OnTransition registers a hook invoked after every successful transition.
func (sm *StateMachine[T]) OnTransition(hook TransitionHook[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onTransition = append(sm.onTransition, hook)
	return sm
}

// OnEnter registers a hook invoked after the machine enters the given state.
func (sm *StateMachine[T]) OnEnter(state T, hook StateHook[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onEnter[state] = append(sm.onEnter[state], hook)
	return sm
}

// Current returns the current state.
func (sm *StateMachine[T]) Current() T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// CanTransitTo reports whether a transition from the current state to the
// given state is declared.
func (sm *StateMachine[T]) CanTransitTo(to T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Contains(sm.transitions[sm.current], to)
}

// TransitTo moves the machine to the given state. It returns an error when
// the transition was not declared. Hooks run after the state is updated,
// outside the lock.
func (sm *StateMachine[T]) TransitTo(to T) error {
	sm.mu.Lock()
	from := sm.current
	if !slices.Contains(sm.transitions[from], to) {
		sm.mu.Unlock()
		return fmt.Errorf("invalid transition from %v to %v", from, to)
	}
	sm.current = to
	sm.history = append(sm.history, TransitionRecord[T]{From: from, To: to, Timestamp: time.Now()})
	if len(sm.history) > sm.maxHistorySize {
		sm.history = sm.history[len(sm.history)-sm.maxHistorySize:]
	}
	transitionHooks := make([]TransitionHook[T], len(sm.onTransition))
	copy(transitionHooks, sm.onTransition)
	enterHooks := make([]StateHook[T], len(sm.onEnter[to]))
	copy(enterHooks, sm.onEnter[to])
	sm.mu.Unlock()

	for _, hook := range transitionHooks {
		hook(from, to)
	}
	for _, hook := range enterHooks {
		hook(to)
	}
	return nil
}

// History returns a copy of the recorded transitions, oldest first.
func (sm *StateMachine[T]) History() []TransitionRecord[T] {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]TransitionRecord[T], len(sm.history))
	copy(out, sm.history)
	return out
}
