package alarms

import (
	"context"
	"fmt"

	"skysentry/internal/rules"
	"skysentry/internal/types"
)

// AlarmLoader abstracts the alarm-store read the fire handler needs.
type AlarmLoader interface {
	GetByID(ctx context.Context, id string) (*types.AlarmDefinition, error)
}

// SnapshotSource supplies the most recent cached weather snapshot. A nil
// snapshot with nil error means no data has been cached yet.
type SnapshotSource interface {
	Current(ctx context.Context) (*types.WeatherSnapshot, error)
}

// Rescheduler abstracts the scheduler operation the fire handler needs.
type Rescheduler interface {
	Reschedule(ctx context.Context, alarm *types.AlarmDefinition) error
}

// FireHandler reacts to a wake-timer fire for a single alarm: evaluate the
// alarm's weather gate against the cached snapshot, notify if it holds, and
// always reschedule the next occurrence. Alarms are not cooldown-gated; their
// own recurrence already limits them to one fire per scheduled occurrence.
type FireHandler struct {
	alarms    AlarmLoader
	snapshots SnapshotSource
	scheduler Rescheduler
	sink      types.NotificationSink
	logger    types.Logger
}

// NewFireHandler wires a FireHandler.
func NewFireHandler(
	alarms AlarmLoader,
	snapshots SnapshotSource,
	scheduler Rescheduler,
	sink types.NotificationSink,
	logger types.Logger,
) *FireHandler {
	return &FireHandler{
		alarms:    alarms,
		snapshots: snapshots,
		scheduler: scheduler,
		sink:      sink,
		logger:    logger,
	}
}

// HandleFire processes one wake-timer delivery for the given alarm id.
//
// A missing or disabled alarm is a defensive no-op: deletion and disabling
// cancel the registration, so reaching here means the cancel raced the fire.
// Everything else ends in Reschedule, whether or not the condition held — a
// miss must not disable future occurrences.
func (h *FireHandler) HandleFire(ctx context.Context, alarmID string) error {
	alarm, err := h.alarms.GetByID(ctx, alarmID)
	if err != nil {
		if types.IsNotFound(err) {
			h.logger.Warn("wake timer fired for unknown alarm", "alarm_id", alarmID)
			return nil
		}
		return fmt.Errorf("loading alarm %s on fire: %w", alarmID, err)
	}
	if !alarm.Enabled {
		h.logger.Warn("wake timer fired for disabled alarm", "alarm_id", alarmID)
		return nil
	}

	snap, err := h.snapshots.Current(ctx)
	if err != nil {
		// A broken cache read degrades to the no-data path rather than
		// swallowing the fire entirely.
		h.logger.Error("snapshot cache read failed on alarm fire",
			"alarm_id", alarmID,
			"error", err,
		)
		snap = nil
	}

	switch {
	case snap == nil:
		h.dispatch(ctx, alarm, degradedNotification(alarm))
	case rules.Evaluate(alarm.Condition, snap):
		h.dispatch(ctx, alarm, alarmNotification(alarm, snap))
	default:
		h.logger.Info("alarm condition not met, skipping notification",
			"alarm_id", alarmID,
			"category", string(alarm.Category),
		)
	}

	if err := h.scheduler.Reschedule(ctx, alarm); err != nil {
		return fmt.Errorf("rescheduling alarm %s after fire: %w", alarmID, err)
	}
	return nil
}

// dispatch shows the notification, logging failures. Dispatch errors never
// block rescheduling: the user sees either a correct notification or none.
func (h *FireHandler) dispatch(ctx context.Context, alarm *types.AlarmDefinition, n types.Notification) {
	if err := h.sink.Show(ctx, n); err != nil {
		h.logger.Error("alarm notification dispatch failed",
			"alarm_id", alarm.ID,
			"notification_id", n.ID,
			"error", err,
		)
		return
	}
	h.logger.Info("alarm notification dispatched",
		"alarm_id", alarm.ID,
		"category", string(alarm.Category),
		"notification_id", n.ID,
	)
}

// degradedNotification is shown when a scheduled alarm fires with no cached
// snapshot available: conditions fail closed, but the user still hears about
// the occurrence.
func degradedNotification(alarm *types.AlarmDefinition) types.Notification {
	title := alarm.Title
	if title == "" {
		title = "Weather alarm"
	}
	return rules.BuildAlarmNotification(alarm.Category, types.SeverityLow,
		title,
		"No recent weather data is available. Check conditions manually.",
	)
}

// alarmNotification builds the category-specific title and body from the
// snapshot that satisfied the alarm's condition.
func alarmNotification(alarm *types.AlarmDefinition, snap *types.WeatherSnapshot) types.Notification {
	title := alarm.Title
	severity := types.SeverityMedium
	var body string

	switch alarm.Category {
	case types.AlarmWakeUpEarly:
		severity = types.SeverityHigh
		if title == "" {
			title = "Wake up early"
		}
		body = fmt.Sprintf("Adverse weather ahead (%s, %.1f°). Leave earlier than usual.",
			snap.Category, snap.Temperature)
	case types.AlarmUmbrella:
		if title == "" {
			title = "Umbrella reminder"
		}
		body = fmt.Sprintf("Rain expected (%s). Take an umbrella today.", snap.Category)
	case types.AlarmUV:
		if title == "" {
			title = "UV alert"
		}
		body = fmt.Sprintf("UV index is %.0f. Use sun protection.", snap.UVIndex)
	case types.AlarmAirQuality:
		if title == "" {
			title = "Air quality alert"
		}
		body = fmt.Sprintf("Air quality index is %d. Consider a mask or staying indoors.", snap.AQI)
	case types.AlarmIcyRoads:
		severity = types.SeverityHigh
		if title == "" {
			title = "Icy roads warning"
		}
		body = fmt.Sprintf("%.1f° with %s. Roads may be icy, drive carefully.",
			snap.Temperature, snap.Category)
	case types.AlarmTemperature:
		if title == "" {
			title = "Temperature alert"
		}
		body = fmt.Sprintf("Temperature is %.1f° (feels like %.1f°).",
			snap.Temperature, snap.FeelsLike)
	default:
		if title == "" {
			title = "Weather alarm"
		}
		body = fmt.Sprintf("Current conditions: %s, %.1f°.", snap.Category, snap.Temperature)
	}

	return rules.BuildAlarmNotification(alarm.Category, severity, title, body)
}
