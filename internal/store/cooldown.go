package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"skysentry/internal/kv"
	"skysentry/internal/types"
)

// DefaultCooldownWindow suppresses repeat alerts of one type. The periodic
// check interval is shorter than meaningful weather changes, so without this
// gate the same condition would re-fire every cycle.
const DefaultCooldownWindow = 2 * time.Minute

// CooldownGate tracks the last-fired timestamp per alert type and decides
// whether a new alert of that type may be dispatched. State is persisted so
// suppression survives process restarts. Types are independent: firing one
// never affects another's cooldown.
type CooldownGate struct {
	mu     sync.Mutex
	kv     kv.Store
	window time.Duration
	clock  types.Clock
}

// NewCooldownGate creates a gate with the given suppression window. A zero
// window falls back to DefaultCooldownWindow.
func NewCooldownGate(store kv.Store, window time.Duration, clock types.Clock) *CooldownGate {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &CooldownGate{kv: store, window: window, clock: clock}
}

// Window returns the configured suppression window.
func (g *CooldownGate) Window() time.Duration { return g.window }

// ShouldFire reports whether an alert of type t is outside its cooldown
// window. An alert recorded at t0 is suppressed strictly before t0+window and
// allowed at t0+window exactly and after. A type that has never fired is
// always allowed.
func (g *CooldownGate) ShouldFire(ctx context.Context, t types.AlertType) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	lastFired, ok, err := g.lastFired(ctx, t)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return g.clock.Now().Sub(lastFired) >= g.window, nil
}

// RecordFired persists now as the last-fired time for type t. Callers invoke
// it only after a successful dispatch, so a failed dispatch keeps the type
// eligible for the next cycle.
func (g *CooldownGate) RecordFired(ctx context.Context, t types.AlertType) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UTC()
	if err := g.kv.Put(ctx, t.CooldownKey(), []byte(now.Format(time.RFC3339Nano))); err != nil {
		return types.PersistenceError(fmt.Sprintf("recording cooldown for %s", t), err)
	}
	return nil
}

// lastFired reads the persisted timestamp for t. The second result is false
// when the type has never fired. Callers must hold g.mu.
func (g *CooldownGate) lastFired(ctx context.Context, t types.AlertType) (time.Time, bool, error) {
	data, err := g.kv.Get(ctx, t.CooldownKey())
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, types.PersistenceError(fmt.Sprintf("reading cooldown for %s", t), err)
	}

	ts, err := time.Parse(time.RFC3339Nano, string(data))
	if err != nil {
		// Corrupted state: treat as never fired rather than suppressing forever.
		return time.Time{}, false, nil
	}
	return ts, true, nil
}
