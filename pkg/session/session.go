// Package session reconciles a client's view of its identity with the
// server. It applies an authoritative HTTP snapshot first, then upgrades to
// the realtime stream, so the client never renders from a realtime push it
// has not anchored with a snapshot.
package session

import (
	"context"

	"github.com/plinth-io/plinth/pkg/statemachine"
)

// State is the reconciliation phase of a client session.
type State string

const (
	StateUnknown               State = "UNKNOWN"
	StateServerSnapshotApplied State = "SNAPSHOT_APPLIED"
	StateRealtimeConnecting    State = "REALTIME_CONNECTING"
	StateRealtimeActive        State = "REALTIME_ACTIVE"
	StateUnauthenticated       State = "UNAUTHENTICATED"
)

// Snapshot is the identity the server reports for the session holder.
type Snapshot struct {
	UserId string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	OrgId  string `json:"orgId"`
}

// Stream is an open realtime identity stream.
type Stream interface {
	// Next blocks until the server pushes an identity update.
	Next(ctx context.Context) (*Snapshot, error)
	Close() error
}

// Control is the optional mutation surface of a Transport. Transports that
// implement it let the reconciler drive org switches and logout.
type Control interface {
	// SwitchOrg asks the server to change the caller's current org.
	SwitchOrg(ctx context.Context, orgId string) error

	// Logout invalidates the server-side session.
	Logout(ctx context.Context) error
}

// Transport abstracts the server endpoints the reconciler talks to.
type Transport interface {
	// FetchSnapshot returns the authoritative identity for the session,
	// or ErrUnauthenticated when the session is absent or rejected.
	FetchSnapshot(ctx context.Context) (*Snapshot, error)

	// ExchangeToken trades the session for a short-lived realtime token.
	ExchangeToken(ctx context.Context) (string, error)

	// Dial opens the realtime stream with a realtime token.
	Dial(ctx context.Context, token string) (Stream, error)
}

// newSessionMachine declares the legal reconciliation transitions.
func newSessionMachine() *statemachine.StateMachine[State] {
	sm := statemachine.NewWithState(StateUnknown)
	sm.Allow(StateUnknown, StateServerSnapshotApplied, StateUnauthenticated)
	sm.Allow(StateServerSnapshotApplied, StateRealtimeConnecting, StateUnauthenticated)
	sm.Allow(StateRealtimeConnecting, StateRealtimeActive, StateServerSnapshotApplied, StateUnauthenticated)
	sm.Allow(StateRealtimeActive, StateServerSnapshotApplied, StateUnauthenticated)
	// StateUnauthenticated is terminal: no transitions out
	return sm
}
