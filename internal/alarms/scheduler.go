// Package alarms implements the smart-alarm half of the engine: computing
// the next eligible fire instant for a recurring alarm, keeping exactly one
// durable wake-timer registration per alarm, reacting to timer fires, and
// re-deriving every registration from the store after a host restart.
package alarms

import (
	"context"
	"fmt"
	"time"

	"skysentry/internal/types"
)

// Scheduler owns the wake-timer registrations for all alarms. An alarm is
// either unscheduled or has exactly one pending registration keyed by its id;
// registering again for the same id replaces the prior registration.
//
// Registrations are volatile: the alarm store is the source of truth and
// RescheduleAll rebuilds every registration from it after a restart.
type Scheduler struct {
	timer  types.WakeTimer
	clock  types.Clock
	logger types.Logger
}

// NewScheduler creates a Scheduler on the given wake-timer facility.
func NewScheduler(timer types.WakeTimer, clock types.Clock, logger types.Logger) *Scheduler {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Scheduler{timer: timer, clock: clock, logger: logger}
}

// NextFire computes the next eligible fire instant for the alarm relative to
// now: the earliest day within the next 7 (today included) whose weekday bit
// is set and whose fire instant is strictly in the future. An instant exactly
// equal to now counts as already past, so a fire on the boundary cannot
// double-schedule itself.
//
// Wake-up-early alarms fire LeadMinutes ahead of the alarm's nominal time,
// possibly on the previous calendar day; the weekday bit is always checked
// against the nominal day the user configured.
//
// The second result is false only for an empty day mask, which validation
// rejects before persistence.
func NextFire(alarm *types.AlarmDefinition, now time.Time) (time.Time, bool) {
	lead := wakeLead(alarm)
	nominal := time.Date(now.Year(), now.Month(), now.Day(), alarm.Hour, alarm.Minute, 0, 0, now.Location())
	for d := 0; d <= 7; d++ {
		candidate := nominal.AddDate(0, 0, d)
		if !alarm.Days.Has(candidate.Weekday()) {
			continue
		}
		if fire := candidate.Add(-lead); fire.After(now) {
			return fire, true
		}
	}
	return time.Time{}, false
}

// wakeLead returns the early-wake offset for wake-up-early alarms, zero for
// every other category.
func wakeLead(alarm *types.AlarmDefinition) time.Duration {
	if cond, ok := alarm.Condition.(types.WakeUpEarly); ok && cond.LeadMinutes > 0 {
		return time.Duration(cond.LeadMinutes) * time.Minute
	}
	return 0
}

// Schedule registers the alarm's next fire instant. Disabled alarms are a
// no-op: disabling goes through Cancel, this is just the guard.
func (s *Scheduler) Schedule(ctx context.Context, alarm *types.AlarmDefinition) error {
	if !alarm.Enabled {
		return nil
	}

	next, ok := NextFire(alarm, s.clock.Now())
	if !ok {
		return types.NewAppError(types.ErrCodeValidationDayMask,
			fmt.Sprintf("alarm %s has no schedulable day", alarm.ID), nil)
	}

	if err := s.timer.RegisterAt(ctx, alarm.ID, next); err != nil {
		return fmt.Errorf("scheduling alarm %s: %w", alarm.ID, err)
	}

	s.logger.Info("alarm scheduled",
		"alarm_id", alarm.ID,
		"category", string(alarm.Category),
		"next_fire", next.Format(time.RFC3339),
	)
	return nil
}

// Cancel unregisters the alarm's pending wake timer. Idempotent: cancelling
// an alarm with no registration succeeds. After Cancel returns, the
// registration can no longer deliver a stale fire.
func (s *Scheduler) Cancel(ctx context.Context, alarmID string) error {
	if err := s.timer.Cancel(ctx, alarmID); err != nil {
		return fmt.Errorf("cancelling alarm %s: %w", alarmID, err)
	}
	return nil
}

// Reschedule cancels any pending registration and schedules the next
// occurrence. Used after every fire and after any edit.
func (s *Scheduler) Reschedule(ctx context.Context, alarm *types.AlarmDefinition) error {
	if err := s.Cancel(ctx, alarm.ID); err != nil {
		return err
	}
	return s.Schedule(ctx, alarm)
}

// RescheduleAll re-derives every registration from the given alarms. This is
// the restart-recovery path: wake-timer registrations do not survive a host
// reboot, so the store's persisted truth is re-projected once after boot.
// Failures on individual alarms are logged and do not abort the rest.
func (s *Scheduler) RescheduleAll(ctx context.Context, alarms []*types.AlarmDefinition) error {
	var failed int
	for _, alarm := range alarms {
		if err := s.Reschedule(ctx, alarm); err != nil {
			failed++
			s.logger.Error("failed to reschedule alarm during recovery",
				"alarm_id", alarm.ID,
				"error", err,
			)
		}
	}

	s.logger.Info("alarm recovery complete",
		"total", len(alarms),
		"failed", failed,
	)
	if failed == len(alarms) && failed > 0 {
		return fmt.Errorf("rescheduling failed for all %d alarms", failed)
	}
	return nil
}
