// Package rules contains the pure decision logic of the engine: the condition
// evaluator gating smart alarms, the always-on alert rules run by the
// orchestrator, and the severity router mapping alert severity to a
// presentation channel.
package rules

import (
	"skysentry/internal/types"
)

// Default trigger thresholds for wake-up-early delegation. These mirror the
// standalone condition defaults so a wake-up alarm behaves like the matching
// dedicated alarm.
const (
	wakeTriggerUV      = 7.0
	wakeTriggerAQI     = 150
	wakeTriggerIcyTemp = 0.0
)

// tempEqualTolerance is the band within which CmpEQ considers two
// temperatures equal. Exact float equality would make EQ alarms unusable.
const tempEqualTolerance = 1.0

// Evaluate reports whether the condition holds for the snapshot. It is total
// and side-effect-free: a nil condition, a nil snapshot, or an unrecognized
// variant all evaluate false, so insufficient data can never wake the user.
// The caller is responsible for a degraded-mode notification when a scheduled
// alarm fires with no snapshot at all.
func Evaluate(cond types.Condition, snap *types.WeatherSnapshot) bool {
	if cond == nil || snap == nil {
		return false
	}

	switch c := cond.(type) {
	case types.Umbrella:
		return snap.Category.IsRainLike() || snap.Precipitation > 0

	case types.UVThreshold:
		return snap.UVIndex >= c.Value

	case types.AQIThreshold:
		return snap.AQI > c.Value

	case types.IcyRoads:
		return snap.Temperature <= c.TemperatureThreshold && snap.Category.IsFreezingPrecip()

	case types.Temperature:
		return compareTemperature(snap.Temperature, c.Threshold, c.Comparator)

	case types.WakeUpEarly:
		return evaluateTrigger(c.Trigger, snap)

	default:
		return false
	}
}

// compareTemperature applies the comparator. CmpEQ uses tempEqualTolerance
// instead of exact equality.
func compareTemperature(observed, threshold float64, cmp types.Comparator) bool {
	switch cmp {
	case types.CmpGT:
		return observed > threshold
	case types.CmpLT:
		return observed < threshold
	case types.CmpGTE:
		return observed >= threshold
	case types.CmpLTE:
		return observed <= threshold
	case types.CmpEQ:
		diff := observed - threshold
		if diff < 0 {
			diff = -diff
		}
		return diff <= tempEqualTolerance
	default:
		return false
	}
}

// evaluateTrigger delegates a wake-up-early trigger to the matching standalone
// predicate, or to the any-adverse union.
func evaluateTrigger(trigger types.TriggerType, snap *types.WeatherSnapshot) bool {
	switch trigger {
	case types.TriggerRain:
		return Evaluate(types.Umbrella{}, snap)
	case types.TriggerUV:
		return Evaluate(types.UVThreshold{Value: wakeTriggerUV}, snap)
	case types.TriggerAirQuality:
		return Evaluate(types.AQIThreshold{Value: wakeTriggerAQI}, snap)
	case types.TriggerIcyRoads:
		return Evaluate(types.IcyRoads{TemperatureThreshold: wakeTriggerIcyTemp}, snap)
	case types.TriggerAnyAdverse:
		return Evaluate(types.Umbrella{}, snap) ||
			Evaluate(types.UVThreshold{Value: wakeTriggerUV}, snap) ||
			Evaluate(types.AQIThreshold{Value: wakeTriggerAQI}, snap) ||
			Evaluate(types.IcyRoads{TemperatureThreshold: wakeTriggerIcyTemp}, snap)
	default:
		return false
	}
}
