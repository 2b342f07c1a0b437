// Package types defines the domain model shared by every SkySentry engine
// component: weather snapshots, smart alarm definitions with their condition
// union, alert records, typed errors, and the small interfaces that keep the
// engine host-independent.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Location is a geographic coordinate with an optional display name.
type Location struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name,omitempty"`
}

// ConditionCategory is the normalized textual weather category reported by
// the provider ("rain", "clear", "snow", ...). Always lower-case.
type ConditionCategory string

const (
	CategoryClear        ConditionCategory = "clear"
	CategoryClouds       ConditionCategory = "clouds"
	CategoryRain         ConditionCategory = "rain"
	CategoryDrizzle      ConditionCategory = "drizzle"
	CategoryShower       ConditionCategory = "shower"
	CategorySnow         ConditionCategory = "snow"
	CategorySleet        ConditionCategory = "sleet"
	CategoryThunderstorm ConditionCategory = "thunderstorm"
	CategoryMist         ConditionCategory = "mist"
)

// NormalizeCategory lower-cases and trims a provider-reported category.
func NormalizeCategory(s string) ConditionCategory {
	return ConditionCategory(strings.ToLower(strings.TrimSpace(s)))
}

// IsRainLike reports whether the category indicates falling rain of any kind.
func (c ConditionCategory) IsRainLike() bool {
	switch c {
	case CategoryRain, CategoryDrizzle, CategoryShower, CategoryThunderstorm:
		return true
	}
	return false
}

// IsFreezingPrecip reports whether the category counts toward icy-road risk.
func (c ConditionCategory) IsFreezingPrecip() bool {
	switch c {
	case CategoryRain, CategorySnow, CategorySleet:
		return true
	}
	return false
}

// WeatherSnapshot is an immutable view of current conditions at a location.
// Produced by the weather provider and consumed read-only by every rule.
type WeatherSnapshot struct {
	Temperature       float64           `json:"temperature"`
	FeelsLike         float64           `json:"feels_like"`
	Humidity          int               `json:"humidity"`
	WindSpeed         float64           `json:"wind_speed"`
	Precipitation     float64           `json:"precipitation"`
	RainProbability   float64           `json:"rain_probability"`
	UVIndex           float64           `json:"uv_index"`
	AQI               int               `json:"aqi"`
	DominantPollutant string            `json:"dominant_pollutant,omitempty"`
	Category          ConditionCategory `json:"category"`
	CapturedAt        time.Time         `json:"captured_at"`
	Location          Location          `json:"location"`
}

// AirQuality is the air-quality provider result.
type AirQuality struct {
	AQI               int    `json:"aqi"`
	DominantPollutant string `json:"dominant_pollutant"`
}

// AlarmDefinition is the persisted identity of a smart alarm: a recurring
// time-of-day/day-of-week schedule plus one weather condition that gates
// whether the alarm actually notifies when it fires.
//
// The definition is owned exclusively by the alarm store; the scheduler holds
// only the ID for its wake-timer registrations.
type AlarmDefinition struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Hour     int           `json:"hour"`
	Minute   int           `json:"minute"`
	Days     DayMask       `json:"days"`
	Enabled  bool          `json:"enabled"`
	Category AlarmCategory `json:"category"`

	// Condition is the weather gate, one variant per category.
	Condition Condition `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// alarmJSON is the persisted form of AlarmDefinition with the condition
// flattened into its envelope encoding.
type alarmJSON struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Hour      int             `json:"hour"`
	Minute    int             `json:"minute"`
	Days      DayMask         `json:"days"`
	Enabled   bool            `json:"enabled"`
	Category  AlarmCategory   `json:"category"`
	Condition json.RawMessage `json:"condition"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarshalJSON encodes the alarm with its condition envelope inline.
func (a AlarmDefinition) MarshalJSON() ([]byte, error) {
	cond, err := MarshalCondition(a.Condition)
	if err != nil {
		return nil, fmt.Errorf("alarm %s: %w", a.ID, err)
	}
	return json.Marshal(alarmJSON{
		ID:        a.ID,
		Title:     a.Title,
		Hour:      a.Hour,
		Minute:    a.Minute,
		Days:      a.Days,
		Enabled:   a.Enabled,
		Category:  a.Category,
		Condition: cond,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	})
}

// UnmarshalJSON decodes the alarm and rehydrates the concrete condition.
func (a *AlarmDefinition) UnmarshalJSON(data []byte) error {
	var raw alarmJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("alarm: decoding: %w", err)
	}
	cond, err := UnmarshalCondition(raw.Condition)
	if err != nil {
		return fmt.Errorf("alarm %s: %w", raw.ID, err)
	}
	a.ID = raw.ID
	a.Title = raw.Title
	a.Hour = raw.Hour
	a.Minute = raw.Minute
	a.Days = raw.Days
	a.Enabled = raw.Enabled
	a.Category = raw.Category
	a.Condition = cond
	a.CreatedAt = raw.CreatedAt
	a.UpdatedAt = raw.UpdatedAt
	return nil
}

// Validate checks structural invariants before the alarm is persisted.
func (a *AlarmDefinition) Validate() error {
	if a.ID == "" {
		return NewAppError(ErrCodeValidationMissingField, "alarm id is required", nil)
	}
	if a.Hour < 0 || a.Hour > 23 {
		return NewAppError(ErrCodeValidationTimeOfDay, fmt.Sprintf("hour %d out of range", a.Hour), nil)
	}
	if a.Minute < 0 || a.Minute > 59 {
		return NewAppError(ErrCodeValidationTimeOfDay, fmt.Sprintf("minute %d out of range", a.Minute), nil)
	}
	if !a.Days.Valid() {
		return NewAppError(ErrCodeValidationDayMask, fmt.Sprintf("day mask %#x invalid", uint8(a.Days)), nil)
	}
	if !a.Category.Valid() {
		return NewAppError(ErrCodeValidationCategory, fmt.Sprintf("unknown category %q", a.Category), nil)
	}
	if a.Condition == nil {
		return NewAppError(ErrCodeValidationCondition, "alarm condition is required", nil)
	}
	if cond, ok := a.Condition.(WakeUpEarly); ok {
		// The lead offset shifts the fire instant backwards; more than a day
		// would let a wake fire before the previous occurrence's nominal time.
		if cond.LeadMinutes < 0 || cond.LeadMinutes > 24*60 {
			return NewAppError(ErrCodeValidationCondition,
				fmt.Sprintf("lead minutes %d out of range", cond.LeadMinutes), nil)
		}
	}
	return nil
}

// TimeOfDay renders the alarm time as HH:MM for titles and logs.
func (a *AlarmDefinition) TimeOfDay() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}
