package alarms

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fireRecorder collects fire callbacks across goroutines.
type fireRecorder struct {
	mu    sync.Mutex
	keys  []string
	fired chan string
}

func newFireRecorder() *fireRecorder {
	return &fireRecorder{fired: make(chan string, 16)}
}

func (r *fireRecorder) record(key string) {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
	r.fired <- key
}

func (r *fireRecorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case key := <-r.fired:
		return key
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fire")
		return ""
	}
}

func TestInProcessTimerFiresPastInstantImmediately(t *testing.T) {
	rec := newFireRecorder()
	timer := NewInProcessTimer(rec.record, nil)

	at := time.Now().Add(-time.Minute)
	if err := timer.RegisterAt(context.Background(), "a1", at); err != nil {
		t.Fatalf("register: %v", err)
	}

	if key := rec.wait(t); key != "a1" {
		t.Errorf("fired %q, want a1", key)
	}
	if timer.Pending() != 0 {
		t.Errorf("fired registration must be removed, pending=%d", timer.Pending())
	}
}

func TestInProcessTimerReplaceOnRegister(t *testing.T) {
	rec := newFireRecorder()
	timer := NewInProcessTimer(rec.record, nil)
	ctx := context.Background()

	// First registration far out, second replaces it.
	if err := timer.RegisterAt(ctx, "a1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := timer.RegisterAt(ctx, "a1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if timer.Pending() != 1 {
		t.Errorf("expected one pending registration, got %d", timer.Pending())
	}
}

func TestInProcessTimerStaleExpiryDoesNotEvictReplacement(t *testing.T) {
	rec := newFireRecorder()
	timer := NewInProcessTimer(rec.record, nil)
	ctx := context.Background()

	if err := timer.RegisterAt(ctx, "a1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("register: %v", err)
	}
	timer.mu.Lock()
	first := timer.timers["a1"]
	timer.mu.Unlock()

	// Replace, then force the stopped first timer to expire anyway. That is
	// the interleaving where an in-flight expiry loses the race to a
	// re-registration: it must neither remove the replacement nor deliver.
	if err := timer.RegisterAt(ctx, "a1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	first.Reset(0)

	select {
	case key := <-rec.fired:
		t.Fatalf("stale expiry delivered fire(%q)", key)
	case <-time.After(50 * time.Millisecond):
	}
	if timer.Pending() != 1 {
		t.Fatalf("replacement registration lost, pending=%d", timer.Pending())
	}

	// The surviving registration is still the replacement: cancel removes it.
	if err := timer.Cancel(ctx, "a1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if timer.Pending() != 0 {
		t.Errorf("expected no pending registrations, got %d", timer.Pending())
	}
}

func TestInProcessTimerCancel(t *testing.T) {
	rec := newFireRecorder()
	timer := NewInProcessTimer(rec.record, nil)
	ctx := context.Background()

	if err := timer.RegisterAt(ctx, "a1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := timer.Cancel(ctx, "a1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if timer.Pending() != 0 {
		t.Errorf("expected no pending registrations, got %d", timer.Pending())
	}

	// Cancelling again, and cancelling an unknown key, are no-ops.
	if err := timer.Cancel(ctx, "a1"); err != nil {
		t.Errorf("second cancel: %v", err)
	}
	if err := timer.Cancel(ctx, "never-registered"); err != nil {
		t.Errorf("unknown cancel: %v", err)
	}
}

func TestInProcessTimerIndependentKeys(t *testing.T) {
	rec := newFireRecorder()
	timer := NewInProcessTimer(rec.record, nil)
	ctx := context.Background()

	if err := timer.RegisterAt(ctx, "soon", time.Now().Add(10*time.Millisecond)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := timer.RegisterAt(ctx, "later", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("register: %v", err)
	}

	if key := rec.wait(t); key != "soon" {
		t.Errorf("fired %q, want soon", key)
	}
	if timer.Pending() != 1 {
		t.Errorf("the hour-out registration must survive, pending=%d", timer.Pending())
	}
}
