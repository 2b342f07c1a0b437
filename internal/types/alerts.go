package types

// AlertRecord is the ephemeral output of an alert rule or an alarm fire:
// everything the notification surface needs, before routing. It is never
// persisted; only the cooldown timestamp derived from Type survives a cycle.
type AlertRecord struct {
	Type     AlertType
	Severity Severity
	Title    string
	Body     string
}

// VibrationPattern is a sequence of off/on millisecond durations handed to
// the notification surface, matching the platform vibrate API shape.
type VibrationPattern []int64

var (
	// VibrationStrong is used for high and critical severities.
	VibrationStrong = VibrationPattern{0, 500, 200, 500, 200, 500}
	// VibrationModerate is used for medium severity.
	VibrationModerate = VibrationPattern{0, 300, 150, 300}
	// VibrationNone suppresses vibration for low severity.
	VibrationNone = VibrationPattern(nil)
)

// Notification is the routed, presentation-ready payload handed to the
// notification surface. ID is stable per alert type or alarm category, so the
// surface replaces rather than stacks repeat notifications.
type Notification struct {
	ID        int              `json:"id"`
	Channel   ChannelType      `json:"channel"`
	Priority  NotifyPriority   `json:"priority"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Vibration VibrationPattern `json:"vibration,omitempty"`
}
