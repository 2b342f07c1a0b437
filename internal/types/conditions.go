package types

import (
	"encoding/json"
	"fmt"
)

// ConditionKind tags the concrete variant of a Condition for persistence.
type ConditionKind string

const (
	KindWakeUpEarly  ConditionKind = "wake_up_early"
	KindUmbrella     ConditionKind = "umbrella"
	KindUVThreshold  ConditionKind = "uv_threshold"
	KindAQIThreshold ConditionKind = "aqi_threshold"
	KindIcyRoads     ConditionKind = "icy_roads"
	KindTemperature  ConditionKind = "temperature"
)

// Condition is the weather predicate attached to a smart alarm. It is a
// sealed union: the only implementations live in this file, and the evaluator
// type-switches over them exhaustively. Values are immutable once constructed.
type Condition interface {
	Kind() ConditionKind
	isCondition()
}

// WakeUpEarly fires when the referenced trigger predicate currently holds,
// prompting the user to get up LeadMinutes earlier than usual.
type WakeUpEarly struct {
	LeadMinutes int         `json:"lead_minutes"`
	Trigger     TriggerType `json:"trigger"`
}

// Umbrella fires on rain-like conditions or measurable precipitation.
// It carries no thresholds.
type Umbrella struct{}

// UVThreshold fires when the UV index reaches Value.
type UVThreshold struct {
	Value float64 `json:"value"`
}

// AQIThreshold fires when the air-quality index exceeds Value.
type AQIThreshold struct {
	Value int `json:"value"`
}

// IcyRoads fires when the temperature is at or below TemperatureThreshold
// while rain, snow or sleet is falling.
type IcyRoads struct {
	TemperatureThreshold float64 `json:"temperature_threshold"`
}

// Temperature fires when the comparator holds between the observed
// temperature and Threshold. CmpEQ uses a 1.0 degree tolerance.
type Temperature struct {
	Threshold  float64    `json:"threshold"`
	Comparator Comparator `json:"comparator"`
}

func (WakeUpEarly) Kind() ConditionKind  { return KindWakeUpEarly }
func (Umbrella) Kind() ConditionKind     { return KindUmbrella }
func (UVThreshold) Kind() ConditionKind  { return KindUVThreshold }
func (AQIThreshold) Kind() ConditionKind { return KindAQIThreshold }
func (IcyRoads) Kind() ConditionKind     { return KindIcyRoads }
func (Temperature) Kind() ConditionKind  { return KindTemperature }

func (WakeUpEarly) isCondition()  {}
func (Umbrella) isCondition()     {}
func (UVThreshold) isCondition()  {}
func (AQIThreshold) isCondition() {}
func (IcyRoads) isCondition()     {}
func (Temperature) isCondition()  {}

// conditionEnvelope is the persisted JSON form: a type tag plus the variant's
// own fields. The envelope keeps stored alarms readable and lets the decoder
// pick the concrete struct without reflection tricks.
type conditionEnvelope struct {
	Type    ConditionKind   `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalCondition encodes a Condition into its JSON envelope.
func MarshalCondition(c Condition) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("condition: cannot marshal nil condition")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("condition: marshaling %s payload: %w", c.Kind(), err)
	}
	return json.Marshal(conditionEnvelope{Type: c.Kind(), Payload: payload})
}

// UnmarshalCondition decodes a JSON envelope back into the concrete variant.
// Unknown type tags are an error: persisted data from a newer version must
// not be silently reinterpreted.
func UnmarshalCondition(data []byte) (Condition, error) {
	var env conditionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("condition: decoding envelope: %w", err)
	}

	decode := func(dst any) error {
		if len(env.Payload) == 0 {
			return nil
		}
		return json.Unmarshal(env.Payload, dst)
	}

	switch env.Type {
	case KindWakeUpEarly:
		var c WakeUpEarly
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("condition: decoding %s: %w", env.Type, err)
		}
		return c, nil
	case KindUmbrella:
		return Umbrella{}, nil
	case KindUVThreshold:
		var c UVThreshold
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("condition: decoding %s: %w", env.Type, err)
		}
		return c, nil
	case KindAQIThreshold:
		var c AQIThreshold
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("condition: decoding %s: %w", env.Type, err)
		}
		return c, nil
	case KindIcyRoads:
		var c IcyRoads
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("condition: decoding %s: %w", env.Type, err)
		}
		return c, nil
	case KindTemperature:
		var c Temperature
		if err := decode(&c); err != nil {
			return nil, fmt.Errorf("condition: decoding %s: %w", env.Type, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("condition: unknown type %q", env.Type)
	}
}

// DefaultCondition returns the canonical condition for an alarm category,
// used when a create request supplies thresholds but the client relies on
// engine defaults.
func DefaultCondition(category AlarmCategory) (Condition, error) {
	switch category {
	case AlarmWakeUpEarly:
		return WakeUpEarly{LeadMinutes: 30, Trigger: TriggerAnyAdverse}, nil
	case AlarmUmbrella:
		return Umbrella{}, nil
	case AlarmUV:
		return UVThreshold{Value: 8}, nil
	case AlarmAirQuality:
		return AQIThreshold{Value: 150}, nil
	case AlarmIcyRoads:
		return IcyRoads{TemperatureThreshold: 0}, nil
	case AlarmTemperature:
		return Temperature{Threshold: 0, Comparator: CmpLTE}, nil
	default:
		return nil, fmt.Errorf("condition: no default for category %q", category)
	}
}
