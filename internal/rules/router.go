package rules

import (
	"skysentry/internal/types"
)

// Route is the presentation decision for a severity: where the notification
// goes, how the OS should prioritize it, and how the device vibrates.
type Route struct {
	Channel   types.ChannelType
	Priority  types.NotifyPriority
	Vibration types.VibrationPattern
}

// RouteSeverity maps a severity to its presentation route. The mapping is
// total and deterministic: unknown severities fall back to the quiet route so
// corrupted input degrades to the least intrusive presentation.
func RouteSeverity(s types.Severity) Route {
	switch s {
	case types.SeverityCritical, types.SeverityHigh:
		return Route{
			Channel:   types.ChannelUrgent,
			Priority:  types.PriorityHigh,
			Vibration: types.VibrationStrong,
		}
	case types.SeverityMedium:
		return Route{
			Channel:   types.ChannelNormal,
			Priority:  types.PriorityDefault,
			Vibration: types.VibrationModerate,
		}
	case types.SeverityLow:
		return Route{
			Channel:   types.ChannelQuiet,
			Priority:  types.PriorityLow,
			Vibration: types.VibrationNone,
		}
	default:
		return Route{
			Channel:   types.ChannelQuiet,
			Priority:  types.PriorityLow,
			Vibration: types.VibrationNone,
		}
	}
}

// BuildAlertNotification routes an alert record into a presentation-ready
// notification. The ID derives from the alert type, so a repeat of the same
// type replaces the visible notification instead of stacking.
func BuildAlertNotification(rec types.AlertRecord) types.Notification {
	route := RouteSeverity(rec.Severity)
	return types.Notification{
		ID:        rec.Type.NotificationID(),
		Channel:   route.Channel,
		Priority:  route.Priority,
		Title:     rec.Title,
		Body:      rec.Body,
		Vibration: route.Vibration,
	}
}

// BuildAlarmNotification routes an alarm fire into a notification. The ID
// derives from the alarm category.
func BuildAlarmNotification(category types.AlarmCategory, severity types.Severity, title, body string) types.Notification {
	route := RouteSeverity(severity)
	return types.Notification{
		ID:        category.NotificationID(),
		Channel:   route.Channel,
		Priority:  route.Priority,
		Title:     title,
		Body:      body,
		Vibration: route.Vibration,
	}
}
