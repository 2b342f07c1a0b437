package alarms

import (
	"context"
	"fmt"
	"testing"
	"time"

	"skysentry/internal/types"
)

// --- Test Doubles ---

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...any)       {}
func (nopLogger) Error(string, ...any)      {}
func (nopLogger) Warn(string, ...any)       {}
func (nopLogger) With(...any) types.Logger  { return nopLogger{} }

// fakeTimer records registrations and cancels, keeping at most one
// registration per key like the real facility.
type fakeTimer struct {
	registered map[string]time.Time
	cancels    []string
	failKeys   map[string]bool
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{registered: make(map[string]time.Time), failKeys: make(map[string]bool)}
}

func (t *fakeTimer) RegisterAt(_ context.Context, key string, at time.Time) error {
	if t.failKeys[key] {
		return fmt.Errorf("simulated timer failure")
	}
	t.registered[key] = at
	return nil
}

func (t *fakeTimer) Cancel(_ context.Context, key string) error {
	t.cancels = append(t.cancels, key)
	delete(t.registered, key)
	return nil
}

func schedAlarm(id string, hour, minute int, days types.DayMask) *types.AlarmDefinition {
	return &types.AlarmDefinition{
		ID:        id,
		Hour:      hour,
		Minute:    minute,
		Days:      days,
		Enabled:   true,
		Category:  types.AlarmUmbrella,
		Condition: types.Umbrella{},
	}
}

// --- NextFire ---

func TestNextFireLaterToday(t *testing.T) {
	// Tuesday 2025-06-03, 08:00 UTC.
	now := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	alarm := schedAlarm("a", 9, 30, types.DayMaskAll)

	next, ok := NextFire(alarm, now)
	if !ok {
		t.Fatal("expected a fire instant")
	}
	want := time.Date(2025, 6, 3, 9, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
}

func TestNextFireSkipsToMaskedDay(t *testing.T) {
	// Tuesday 09:00, alarm fires Mondays only at 07:00: next Monday is six
	// days out.
	now := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	alarm := schedAlarm("a", 7, 0, types.DayMask(0).With(time.Monday))

	next, ok := NextFire(alarm, now)
	if !ok {
		t.Fatal("expected a fire instant")
	}
	want := time.Date(2025, 6, 9, 7, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
	if next.Weekday() != time.Monday {
		t.Errorf("fires on %v, want Monday", next.Weekday())
	}
}

func TestNextFireTimeAlreadyPassedToday(t *testing.T) {
	// Tuesday 10:00, daily alarm at 07:00: tomorrow.
	now := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)
	alarm := schedAlarm("a", 7, 0, types.DayMaskAll)

	next, _ := NextFire(alarm, now)
	want := time.Date(2025, 6, 4, 7, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
}

func TestNextFireExactBoundaryCountsAsPast(t *testing.T) {
	// Now is exactly the alarm instant; it must schedule the next occurrence,
	// not today again.
	now := time.Date(2025, 6, 3, 7, 0, 0, 0, time.UTC)
	alarm := schedAlarm("a", 7, 0, types.DayMaskAll)

	next, _ := NextFire(alarm, now)
	want := time.Date(2025, 6, 4, 7, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
}

func wakeAlarm(id string, hour, minute, lead int, days types.DayMask) *types.AlarmDefinition {
	a := schedAlarm(id, hour, minute, days)
	a.Category = types.AlarmWakeUpEarly
	a.Condition = types.WakeUpEarly{LeadMinutes: lead, Trigger: types.TriggerAnyAdverse}
	return a
}

func TestNextFireWakeUpEarlySubtractsLead(t *testing.T) {
	// Tuesday 05:00, daily wake-up-early at 07:00 with a 30 minute lead:
	// the wake fires at 06:30, ahead of the nominal alarm time.
	now := time.Date(2025, 6, 3, 5, 0, 0, 0, time.UTC)
	alarm := wakeAlarm("a", 7, 0, 30, types.DayMaskAll)

	next, ok := NextFire(alarm, now)
	if !ok {
		t.Fatal("expected a fire instant")
	}
	want := time.Date(2025, 6, 3, 6, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
}

func TestNextFireWakeLeadCrossesMidnight(t *testing.T) {
	// Monday-only alarm at 00:20 with a 30 minute lead wakes on Sunday
	// evening; the day mask is checked against the nominal Monday, not the
	// shifted fire day. 2025-06-08 is a Sunday.
	now := time.Date(2025, 6, 8, 20, 0, 0, 0, time.UTC)
	alarm := wakeAlarm("a", 0, 20, 30, types.DayMask(0).With(time.Monday))

	next, ok := NextFire(alarm, now)
	if !ok {
		t.Fatal("expected a fire instant")
	}
	want := time.Date(2025, 6, 8, 23, 50, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
}

func TestNextFireWakeLeadAlreadyPassedRollsForward(t *testing.T) {
	// 06:30 with a daily 07:00 alarm and a 60 minute lead: today's wake
	// instant (06:00) is already past, so the next one is tomorrow's.
	now := time.Date(2025, 6, 3, 6, 30, 0, 0, time.UTC)
	alarm := wakeAlarm("a", 7, 0, 60, types.DayMaskAll)

	next, _ := NextFire(alarm, now)
	want := time.Date(2025, 6, 4, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
}

func TestNextFireEmptyMask(t *testing.T) {
	alarm := schedAlarm("a", 7, 0, 0)
	if _, ok := NextFire(alarm, time.Now()); ok {
		t.Error("empty mask must not produce a fire instant")
	}
}

// --- Scheduler ---

func TestScheduleRegistersNextInstant(t *testing.T) {
	timer := newFakeTimer()
	clock := &fakeClock{now: time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)}
	s := NewScheduler(timer, clock, nopLogger{})

	alarm := schedAlarm("a1", 9, 0, types.DayMaskAll)
	if err := s.Schedule(context.Background(), alarm); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	at, ok := timer.registered["a1"]
	if !ok {
		t.Fatal("no registration for a1")
	}
	want := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Errorf("registered at %v, want %v", at, want)
	}
}

func TestScheduleDisabledIsNoop(t *testing.T) {
	timer := newFakeTimer()
	s := NewScheduler(timer, &fakeClock{now: time.Now()}, nopLogger{})

	alarm := schedAlarm("a1", 9, 0, types.DayMaskAll)
	alarm.Enabled = false
	if err := s.Schedule(context.Background(), alarm); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(timer.registered) != 0 {
		t.Errorf("disabled alarm must not register, got %v", timer.registered)
	}
}

func TestRescheduleLeavesOneRegistration(t *testing.T) {
	timer := newFakeTimer()
	clock := &fakeClock{now: time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)}
	s := NewScheduler(timer, clock, nopLogger{})

	alarm := schedAlarm("a1", 9, 0, types.DayMaskAll)
	for i := 0; i < 3; i++ {
		if err := s.Reschedule(context.Background(), alarm); err != nil {
			t.Fatalf("reschedule %d: %v", i, err)
		}
	}
	if len(timer.registered) != 1 {
		t.Errorf("expected exactly one registration, got %d", len(timer.registered))
	}
}

func TestRescheduleDisabledCancels(t *testing.T) {
	timer := newFakeTimer()
	clock := &fakeClock{now: time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)}
	s := NewScheduler(timer, clock, nopLogger{})

	alarm := schedAlarm("a1", 9, 0, types.DayMaskAll)
	if err := s.Schedule(context.Background(), alarm); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	alarm.Enabled = false
	if err := s.Reschedule(context.Background(), alarm); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if len(timer.registered) != 0 {
		t.Errorf("disabled alarm must end unregistered, got %v", timer.registered)
	}
}

func TestRescheduleAllIsolatesFailures(t *testing.T) {
	timer := newFakeTimer()
	timer.failKeys["bad"] = true
	clock := &fakeClock{now: time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)}
	s := NewScheduler(timer, clock, nopLogger{})

	all := []*types.AlarmDefinition{
		schedAlarm("good", 9, 0, types.DayMaskAll),
		schedAlarm("bad", 9, 0, types.DayMaskAll),
	}
	if err := s.RescheduleAll(context.Background(), all); err != nil {
		t.Errorf("partial failure must not error: %v", err)
	}
	if _, ok := timer.registered["good"]; !ok {
		t.Error("healthy alarm must still be registered")
	}
}

func TestRescheduleAllTotalFailureErrors(t *testing.T) {
	timer := newFakeTimer()
	timer.failKeys["a"] = true
	timer.failKeys["b"] = true
	s := NewScheduler(timer, &fakeClock{now: time.Now()}, nopLogger{})

	all := []*types.AlarmDefinition{
		schedAlarm("a", 9, 0, types.DayMaskAll),
		schedAlarm("b", 9, 0, types.DayMaskAll),
	}
	if err := s.RescheduleAll(context.Background(), all); err == nil {
		t.Error("expected error when every alarm fails")
	}
}
