package store

import (
	"context"
	"testing"
	"time"

	"skysentry/internal/kv"
	"skysentry/internal/types"
)

// fakeClock returns a settable instant.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGate(window time.Duration) (*CooldownGate, *fakeClock, kv.Store) {
	clock := &fakeClock{now: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)}
	backend := kv.NewMemoryStore()
	return NewCooldownGate(backend, window, clock), clock, backend
}

func TestCooldownNeverFiredAllows(t *testing.T) {
	gate, _, _ := newTestGate(2 * time.Minute)
	ok, err := gate.ShouldFire(context.Background(), types.AlertRainSoon)
	if err != nil {
		t.Fatalf("ShouldFire: %v", err)
	}
	if !ok {
		t.Error("a type that never fired must be allowed")
	}
}

func TestCooldownWindowBoundary(t *testing.T) {
	ctx := context.Background()
	gate, clock, _ := newTestGate(2 * time.Minute)

	if err := gate.RecordFired(ctx, types.AlertRainSoon); err != nil {
		t.Fatalf("RecordFired: %v", err)
	}

	// Strictly inside the window: suppressed.
	clock.Advance(2*time.Minute - time.Second)
	ok, err := gate.ShouldFire(ctx, types.AlertRainSoon)
	if err != nil {
		t.Fatalf("ShouldFire: %v", err)
	}
	if ok {
		t.Error("fire inside the window must be suppressed")
	}

	// Exactly at the window edge: allowed.
	clock.Advance(time.Second)
	ok, err = gate.ShouldFire(ctx, types.AlertRainSoon)
	if err != nil {
		t.Fatalf("ShouldFire: %v", err)
	}
	if !ok {
		t.Error("fire exactly at the window edge must be allowed")
	}
}

func TestCooldownTypesAreIndependent(t *testing.T) {
	ctx := context.Background()
	gate, clock, _ := newTestGate(2 * time.Minute)

	if err := gate.RecordFired(ctx, types.AlertUVHigh); err != nil {
		t.Fatalf("RecordFired: %v", err)
	}
	clock.Advance(10 * time.Second)

	ok, err := gate.ShouldFire(ctx, types.AlertAirQuality)
	if err != nil {
		t.Fatalf("ShouldFire: %v", err)
	}
	if !ok {
		t.Error("firing one type must not suppress another")
	}
}

func TestCooldownSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	gate, clock, backend := newTestGate(2 * time.Minute)

	if err := gate.RecordFired(ctx, types.AlertSuddenChange); err != nil {
		t.Fatalf("RecordFired: %v", err)
	}
	clock.Advance(30 * time.Second)

	// A fresh gate over the same backend simulates a process restart.
	restarted := NewCooldownGate(backend, 2*time.Minute, clock)
	ok, err := restarted.ShouldFire(ctx, types.AlertSuddenChange)
	if err != nil {
		t.Fatalf("ShouldFire: %v", err)
	}
	if ok {
		t.Error("suppression must survive a restart")
	}
}

func TestCooldownCorruptedStateTreatedAsNeverFired(t *testing.T) {
	ctx := context.Background()
	gate, _, backend := newTestGate(2 * time.Minute)

	if err := backend.Put(ctx, types.AlertRainSoon.CooldownKey(), []byte("not a timestamp")); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := gate.ShouldFire(ctx, types.AlertRainSoon)
	if err != nil {
		t.Fatalf("ShouldFire: %v", err)
	}
	if !ok {
		t.Error("corrupted state must not suppress forever")
	}
}

func TestCooldownZeroWindowUsesDefault(t *testing.T) {
	gate, _, _ := newTestGate(0)
	if gate.Window() != DefaultCooldownWindow {
		t.Errorf("got window %v, want %v", gate.Window(), DefaultCooldownWindow)
	}
}
