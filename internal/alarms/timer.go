package alarms

import (
	"context"
	"sync"
	"time"

	"skysentry/internal/types"
)

// FireFunc is invoked on its own goroutine when a registered instant arrives.
type FireFunc func(key string)

// InProcessTimer implements the wake-timer facility with in-memory
// time.AfterFunc registrations. It provides the replace-on-register and
// idempotent-cancel semantics of the durable facility but, like any
// process-local timer, loses registrations on restart; the scheduler's
// boot-time RescheduleAll compensates for that.
type InProcessTimer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   FireFunc
	clock  types.Clock
}

var _ types.WakeTimer = (*InProcessTimer)(nil)

// NewInProcessTimer creates a timer that calls fire when a registration's
// instant arrives.
func NewInProcessTimer(fire FireFunc, clock types.Clock) *InProcessTimer {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &InProcessTimer{
		timers: make(map[string]*time.Timer),
		fire:   fire,
		clock:  clock,
	}
}

// RegisterAt schedules fire(key) at the given instant, atomically replacing
// any prior registration for the same key. Instants in the past fire
// immediately.
func (t *InProcessTimer) RegisterAt(_ context.Context, key string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.timers[key]; ok {
		existing.Stop()
		delete(t.timers, key)
	}

	delay := at.Sub(t.clock.Now())
	if delay < 0 {
		delay = 0
	}

	var tm *time.Timer
	tm = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if current, ok := t.timers[key]; !ok || current != tm {
			// A replace or cancel won the race against this expiry; the
			// registration it belonged to no longer exists.
			t.mu.Unlock()
			return
		}
		delete(t.timers, key)
		t.mu.Unlock()
		t.fire(key)
	})
	t.timers[key] = tm
	return nil
}

// Cancel stops and removes the registration for key. Cancelling an unknown
// key is a no-op. A cancelled registration never delivers: an expiry that
// raced the cancel finds its map entry gone and returns without firing. The
// only delivery that can still land is one whose fire callback had already
// claimed the entry, and the fire handler's own disabled/missing checks make
// that harmless.
func (t *InProcessTimer) Cancel(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
	return nil
}

// Pending returns the number of live registrations, for introspection and
// tests.
func (t *InProcessTimer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
