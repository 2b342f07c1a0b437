package types

// AlarmCategory identifies the kind of smart alarm. The set is closed;
// adding a category requires updating the Condition union, the evaluator,
// and the notification ID mapping.
type AlarmCategory string

const (
	AlarmWakeUpEarly AlarmCategory = "wake_up_early"
	AlarmUmbrella    AlarmCategory = "umbrella_reminder"
	AlarmUV          AlarmCategory = "uv_alert"
	AlarmAirQuality  AlarmCategory = "air_quality_alert"
	AlarmIcyRoads    AlarmCategory = "icy_roads_alert"
	AlarmTemperature AlarmCategory = "temperature_alert"
)

// AllAlarmCategories lists every valid category, used by validation and tests.
var AllAlarmCategories = []AlarmCategory{
	AlarmWakeUpEarly,
	AlarmUmbrella,
	AlarmUV,
	AlarmAirQuality,
	AlarmIcyRoads,
	AlarmTemperature,
}

// Valid reports whether c is a member of the closed category set.
func (c AlarmCategory) Valid() bool {
	switch c {
	case AlarmWakeUpEarly, AlarmUmbrella, AlarmUV, AlarmAirQuality, AlarmIcyRoads, AlarmTemperature:
		return true
	}
	return false
}

// NotificationID returns the stable OS notification identifier for alarm
// notifications of this category. Re-dispatching the same category replaces
// the prior notification; distinct categories never collide. Alarm IDs live
// in the 2000 block, alert-rule IDs in the 1000 block (see AlertType).
func (c AlarmCategory) NotificationID() int {
	switch c {
	case AlarmWakeUpEarly:
		return 2001
	case AlarmUmbrella:
		return 2002
	case AlarmUV:
		return 2003
	case AlarmAirQuality:
		return 2004
	case AlarmIcyRoads:
		return 2005
	case AlarmTemperature:
		return 2006
	default:
		// Unknown categories are rejected at validation time; this value is
		// only reachable for corrupted persisted data.
		return 2000
	}
}

// AlertType identifies one of the orchestrator's always-on alert rules.
// It keys both cooldown state and notification identifiers.
type AlertType string

const (
	AlertRainSoon     AlertType = "rain_soon"
	AlertUVHigh       AlertType = "uv_high"
	AlertAirQuality   AlertType = "air_quality_poor"
	AlertSuddenChange AlertType = "sudden_change"
)

// AllAlertTypes lists every alert-rule type.
var AllAlertTypes = []AlertType{
	AlertRainSoon,
	AlertUVHigh,
	AlertAirQuality,
	AlertSuddenChange,
}

// CooldownKey derives the persistence key for this type's cooldown state.
// The derivation is switch-based over the closed enum rather than built from
// arbitrary strings, so two types can never silently share a key.
func (t AlertType) CooldownKey() string {
	switch t {
	case AlertRainSoon:
		return "cooldown:rain_soon"
	case AlertUVHigh:
		return "cooldown:uv_high"
	case AlertAirQuality:
		return "cooldown:air_quality_poor"
	case AlertSuddenChange:
		return "cooldown:sudden_change"
	default:
		return "cooldown:unknown"
	}
}

// NotificationID returns the stable OS notification identifier for alerts of
// this type. See AlarmCategory.NotificationID for the ID block layout.
func (t AlertType) NotificationID() int {
	switch t {
	case AlertRainSoon:
		return 1001
	case AlertUVHigh:
		return 1002
	case AlertAirQuality:
		return 1003
	case AlertSuddenChange:
		return 1004
	default:
		return 1000
	}
}

// Severity ranks how disruptive an alert presentation should be.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ChannelType identifies the notification channel an alert is routed to.
type ChannelType string

const (
	ChannelUrgent ChannelType = "urgent"
	ChannelNormal ChannelType = "default"
	ChannelQuiet  ChannelType = "quiet"
)

// NotifyPriority is the OS-level priority hint attached to a notification.
type NotifyPriority string

const (
	PriorityHigh    NotifyPriority = "high"
	PriorityDefault NotifyPriority = "default"
	PriorityLow     NotifyPriority = "low"
)

// Comparator defines the comparison applied by the Temperature condition.
type Comparator string

const (
	CmpGT  Comparator = "gt"
	CmpLT  Comparator = "lt"
	CmpEQ  Comparator = "eq"
	CmpGTE Comparator = "gte"
	CmpLTE Comparator = "lte"
)

// Valid reports whether c is a recognized comparator.
func (c Comparator) Valid() bool {
	switch c {
	case CmpGT, CmpLT, CmpEQ, CmpGTE, CmpLTE:
		return true
	}
	return false
}

// TriggerType selects which adverse-weather predicate gates a wake-up-early
// alarm. AnyAdverse is the generic catch-all: rain, high UV, poor air, or icy
// conditions.
type TriggerType string

const (
	TriggerRain       TriggerType = "rain"
	TriggerUV         TriggerType = "uv"
	TriggerAirQuality TriggerType = "air_quality"
	TriggerIcyRoads   TriggerType = "icy_roads"
	TriggerAnyAdverse TriggerType = "any_adverse"
)

// Valid reports whether t is a recognized trigger type.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerRain, TriggerUV, TriggerAirQuality, TriggerIcyRoads, TriggerAnyAdverse:
		return true
	}
	return false
}
