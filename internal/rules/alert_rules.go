package rules

import (
	"fmt"
	"time"

	"skysentry/internal/types"
)

// Rule thresholds for the always-on alert rules.
const (
	// RainSoonLookahead is how far into the hourly forecast the rain rule looks.
	RainSoonLookahead = 3 * time.Hour

	// RainSoonProbability is the minimum rain probability (%) that fires the rule.
	RainSoonProbability = 60.0

	// rainSoonHeavyProbability upgrades the rain alert to high severity.
	rainSoonHeavyProbability = 85.0

	// UVHighThreshold is the UV index that fires the UV rule during peak hours.
	UVHighThreshold = 8.0

	// uvExtremeThreshold upgrades the UV alert to high severity.
	uvExtremeThreshold = 11.0

	// UVPeakStartHour and UVPeakEndHour bound the local-time window in which
	// the UV rule is active. Outside it, high UV readings are stale or
	// irrelevant.
	UVPeakStartHour = 10
	UVPeakEndHour   = 16

	// AQIPoorThreshold fires the air-quality rule.
	AQIPoorThreshold = 150

	// aqiSevereThreshold and aqiHazardousThreshold upgrade severity.
	aqiSevereThreshold    = 200
	aqiHazardousThreshold = 300

	// SuddenChangeDelta is the temperature swing between consecutive cycles
	// that fires the change rule; SuddenChangeMajorDelta upgrades severity.
	SuddenChangeDelta      = 5.0
	SuddenChangeMajorDelta = 10.0
)

// RuleInput carries whatever the fan-out collected this cycle. Any field may
// be nil/empty when its provider call failed or timed out; a rule whose
// required input is missing skips silently.
type RuleInput struct {
	Current  *types.WeatherSnapshot
	Hourly   []types.WeatherSnapshot
	UV       *float64
	Air      *types.AirQuality
	PrevTemp *float64
}

// AlertRule is one always-on orchestrator rule. Evaluate returns nil when the
// rule does not fire or its required input is absent.
type AlertRule interface {
	Type() types.AlertType
	Evaluate(in RuleInput) *types.AlertRecord
}

// DefaultRules returns the engine's rule set in evaluation order. The order
// has no semantic weight; severity only affects presentation.
func DefaultRules(clock types.Clock) []AlertRule {
	if clock == nil {
		clock = types.RealClock{}
	}
	return []AlertRule{
		RainSoonRule{},
		UVHighRule{Clock: clock},
		AirQualityRule{},
		SuddenChangeRule{},
	}
}

// RainSoonRule fires when the hourly forecast shows likely rain within the
// lookahead window.
type RainSoonRule struct{}

func (RainSoonRule) Type() types.AlertType { return types.AlertRainSoon }

func (RainSoonRule) Evaluate(in RuleInput) *types.AlertRecord {
	if len(in.Hourly) == 0 {
		return nil
	}

	var horizon time.Time
	if !in.Hourly[0].CapturedAt.IsZero() {
		horizon = in.Hourly[0].CapturedAt.Add(RainSoonLookahead)
	}

	peak := 0.0
	var peakAt time.Time
	for _, h := range in.Hourly {
		if !horizon.IsZero() && h.CapturedAt.After(horizon) {
			break
		}
		prob := h.RainProbability
		if prob < RainSoonProbability && h.Category.IsRainLike() {
			// Some providers report a rainy category without a probability.
			prob = RainSoonProbability
		}
		if prob > peak {
			peak = prob
			peakAt = h.CapturedAt
		}
	}

	if peak < RainSoonProbability {
		return nil
	}

	severity := types.SeverityMedium
	if peak >= rainSoonHeavyProbability {
		severity = types.SeverityHigh
	}

	body := fmt.Sprintf("Rain likely in the next %d hours (%.0f%% chance). Take an umbrella.",
		int(RainSoonLookahead.Hours()), peak)
	if !peakAt.IsZero() {
		body = fmt.Sprintf("Rain likely around %s (%.0f%% chance). Take an umbrella.",
			peakAt.Local().Format("15:04"), peak)
	}

	return &types.AlertRecord{
		Type:     types.AlertRainSoon,
		Severity: severity,
		Title:    "Rain coming soon",
		Body:     body,
	}
}

// UVHighRule fires on a high UV index during local peak sun hours.
type UVHighRule struct {
	Clock types.Clock
}

func (UVHighRule) Type() types.AlertType { return types.AlertUVHigh }

func (r UVHighRule) Evaluate(in RuleInput) *types.AlertRecord {
	if in.UV == nil {
		return nil
	}

	hour := r.Clock.Now().Local().Hour()
	if hour < UVPeakStartHour || hour >= UVPeakEndHour {
		return nil
	}

	uv := *in.UV
	if uv < UVHighThreshold {
		return nil
	}

	severity := types.SeverityMedium
	if uv >= uvExtremeThreshold {
		severity = types.SeverityHigh
	}

	return &types.AlertRecord{
		Type:     types.AlertUVHigh,
		Severity: severity,
		Title:    "High UV levels",
		Body:     fmt.Sprintf("UV index is %.0f. Use sun protection if you go outside.", uv),
	}
}

// AirQualityRule fires when the air-quality index crosses the poor threshold.
type AirQualityRule struct{}

func (AirQualityRule) Type() types.AlertType { return types.AlertAirQuality }

func (AirQualityRule) Evaluate(in RuleInput) *types.AlertRecord {
	if in.Air == nil {
		return nil
	}

	aqi := in.Air.AQI
	if aqi <= AQIPoorThreshold {
		return nil
	}

	severity := types.SeverityMedium
	switch {
	case aqi > aqiHazardousThreshold:
		severity = types.SeverityCritical
	case aqi > aqiSevereThreshold:
		severity = types.SeverityHigh
	}

	body := fmt.Sprintf("Air quality index is %d. Consider limiting outdoor activity.", aqi)
	if in.Air.DominantPollutant != "" {
		body = fmt.Sprintf("Air quality index is %d (dominant pollutant: %s). Consider limiting outdoor activity.",
			aqi, in.Air.DominantPollutant)
	}

	return &types.AlertRecord{
		Type:     types.AlertAirQuality,
		Severity: severity,
		Title:    "Poor air quality",
		Body:     body,
	}
}

// SuddenChangeRule fires when the temperature swings sharply between two
// consecutive cycles. The previous temperature is the only state any rule
// carries, persisted by the orchestrator after this rule has run.
type SuddenChangeRule struct{}

func (SuddenChangeRule) Type() types.AlertType { return types.AlertSuddenChange }

func (SuddenChangeRule) Evaluate(in RuleInput) *types.AlertRecord {
	if in.Current == nil || in.PrevTemp == nil {
		return nil
	}

	delta := in.Current.Temperature - *in.PrevTemp
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	if abs < SuddenChangeDelta {
		return nil
	}

	severity := types.SeverityMedium
	if abs >= SuddenChangeMajorDelta {
		severity = types.SeverityHigh
	}

	direction := "risen"
	if delta < 0 {
		direction = "dropped"
	}

	return &types.AlertRecord{
		Type:     types.AlertSuddenChange,
		Severity: severity,
		Title:    "Sudden temperature change",
		Body: fmt.Sprintf("Temperature has %s %.1f° since the last check (now %.1f°).",
			direction, abs, in.Current.Temperature),
	}
}
