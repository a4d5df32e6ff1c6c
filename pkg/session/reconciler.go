package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/plinth-io/plinth/pkg/log"
	"github.com/plinth-io/plinth/pkg/retry"
	"github.com/plinth-io/plinth/pkg/statemachine"
)

// ErrUnauthenticated is returned by transports when the server rejects the
// session. It is terminal: the reconciler stops instead of retrying.
var ErrUnauthenticated = errors.New("session: unauthenticated")

// Options tune reconciler behavior.
type Options struct {
	// OnState observes every state transition.
	OnState func(from, to State)

	// OnIdentity observes every applied identity snapshot, from HTTP and
	// realtime alike.
	OnIdentity func(s *Snapshot)

	// ReconnectBackoff paces stream redials. Defaults to exponential
	// starting at 500ms capped at 30s.
	ReconnectBackoff retry.Backoff

	// MaxSnapshotAttempts bounds the initial snapshot fetch. Defaults to 5.
	MaxSnapshotAttempts int
}

// Reconciler drives a session from Unknown to RealtimeActive and keeps it
// there, demoting to the last applied snapshot whenever the stream drops.
type Reconciler struct {
	transport Transport
	sm        *statemachine.StateMachine[State]
	opts      Options

	mu       sync.RWMutex
	identity *Snapshot
	stream   Stream

	changes chan *Snapshot
}

func NewReconciler(transport Transport, opts Options) *Reconciler {
	if opts.ReconnectBackoff == nil {
		opts.ReconnectBackoff = retry.Exponential(500*time.Millisecond, 30*time.Second)
	}
	if opts.MaxSnapshotAttempts <= 0 {
		opts.MaxSnapshotAttempts = 5
	}

	r := &Reconciler{
		transport: transport,
		sm:        newSessionMachine(),
		opts:      opts,
		changes:   make(chan *Snapshot, 16),
	}
	if opts.OnState != nil {
		r.sm.OnTransition(func(from, to State) {
			opts.OnState(from, to)
		})
	}
	return r
}

// State returns the current reconciliation state.
func (r *Reconciler) State() State {
	return r.sm.Current()
}

// Identity returns the last applied snapshot, nil before the first one.
func (r *Reconciler) Identity() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.identity
}

// Changes streams applied snapshots. The channel is buffered; a slow
// consumer loses intermediate snapshots, never the latest Identity().
func (r *Reconciler) Changes() <-chan *Snapshot {
	return r.changes
}

// SwitchOrg changes the current org server-side, then drops the realtime
// stream so the next dial exchanges a credential bound to the new org.
func (r *Reconciler) SwitchOrg(ctx context.Context, orgId string) error {
	control, ok := r.transport.(Control)
	if !ok {
		return errors.New("session: transport does not support org switch")
	}
	if err := control.SwitchOrg(ctx, orgId); err != nil {
		return err
	}
	r.dropStream()
	return nil
}

// Logout clears local state before the server call returns, so callers
// observe Unauthenticated immediately.
func (r *Reconciler) Logout(ctx context.Context) error {
	_ = r.sm.TransitTo(StateUnauthenticated)
	r.mu.Lock()
	r.identity = nil
	r.mu.Unlock()
	r.dropStream()

	if control, ok := r.transport.(Control); ok {
		return control.Logout(ctx)
	}
	return nil
}

func (r *Reconciler) dropStream() {
	r.mu.Lock()
	stream := r.stream
	r.stream = nil
	r.mu.Unlock()
	if stream != nil {
		_ = stream.Close()
	}
}

// Run reconciles until ctx is canceled or the session turns out to be
// unauthenticated. It returns nil on cancellation and ErrUnauthenticated
// when the server rejected the session.
func (r *Reconciler) Run(ctx context.Context) error {
	if err := r.applyServerSnapshot(ctx); err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			_ = r.sm.TransitTo(StateUnauthenticated)
			return ErrUnauthenticated
		}
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if r.sm.Current() == StateUnauthenticated {
			return ErrUnauthenticated
		}

		err := r.runStreamOnce(ctx)
		switch {
		case err == nil:
			// stream closed cleanly, fall back to snapshot and redial
		case errors.Is(err, ErrUnauthenticated):
			_ = r.sm.TransitTo(StateUnauthenticated)
			return ErrUnauthenticated
		case ctx.Err() != nil:
			return nil
		default:
			log.Debugw("realtime stream dropped", "error", err)
		}

		if s := r.sm.Current(); s != StateServerSnapshotApplied && s != StateUnauthenticated {
			_ = r.sm.TransitTo(StateServerSnapshotApplied)
		}
	}
}

// applyServerSnapshot fetches the authoritative snapshot with bounded
// retries and applies it.
func (r *Reconciler) applyServerSnapshot(ctx context.Context) error {
	var snap *Snapshot
	err := retry.Do(ctx, func(ctx context.Context) error {
		s, err := r.transport.FetchSnapshot(ctx)
		if err != nil {
			return err
		}
		snap = s
		return nil
	},
		retry.WithMaxAttempts(r.opts.MaxSnapshotAttempts),
		retry.WithRetryIf(func(err error) bool {
			return !errors.Is(err, ErrUnauthenticated)
		}),
	)
	if err != nil {
		return err
	}

	r.setIdentity(snap)
	return r.sm.TransitTo(StateServerSnapshotApplied)
}

// runStreamOnce performs one token exchange, dial, and read loop. It
// returns when the stream ends; the caller decides whether to redial.
func (r *Reconciler) runStreamOnce(ctx context.Context) error {
	if err := r.sm.TransitTo(StateRealtimeConnecting); err != nil {
		return err
	}

	var stream Stream
	err := retry.Do(ctx, func(ctx context.Context) error {
		token, err := r.transport.ExchangeToken(ctx)
		if err != nil {
			return err
		}
		s, err := r.transport.Dial(ctx, token)
		if err != nil {
			return err
		}
		stream = s
		return nil
	},
		retry.WithMaxAttempts(0), // dial until canceled or unauthenticated
		retry.WithBackoff(r.opts.ReconnectBackoff),
		retry.WithRetryIf(func(err error) bool {
			return !errors.Is(err, ErrUnauthenticated)
		}),
	)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.stream = stream
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		if r.stream == stream {
			r.stream = nil
		}
		r.mu.Unlock()
		_ = stream.Close()
	}()

	if err := r.sm.TransitTo(StateRealtimeActive); err != nil {
		return err
	}

	for {
		snap, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		r.setIdentity(snap)
	}
}

func (r *Reconciler) setIdentity(s *Snapshot) {
	r.mu.Lock()
	r.identity = s
	r.mu.Unlock()

	select {
	case r.changes <- s:
	default:
	}

	if r.opts.OnIdentity != nil {
		r.opts.OnIdentity(s)
	}
}
