// Package engine implements the periodic alert orchestrator: on each wake it
// fans out the provider calls under one bounded deadline, runs every alert
// rule against whatever data arrived, gates dispatch through the cooldown
// store, and persists the observations the next cycle and the alarm fire
// handler depend on.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"skysentry/internal/rules"
	"skysentry/internal/types"
)

// DefaultCycleDeadline bounds one cycle's data collection.
const DefaultCycleDeadline = 30 * time.Second

// CooldownGate abstracts the per-alert-type suppression decisions.
type CooldownGate interface {
	ShouldFire(ctx context.Context, t types.AlertType) (bool, error)
	RecordFired(ctx context.Context, t types.AlertType) error
}

// EvalState abstracts the persisted previous-temperature scalar.
type EvalState interface {
	PreviousTemperature(ctx context.Context) (float64, bool, error)
	SetPreviousTemperature(ctx context.Context, temp float64) error
}

// SnapshotWriter abstracts the snapshot cache writes performed at the end of
// a cycle.
type SnapshotWriter interface {
	SetCurrent(ctx context.Context, snap *types.WeatherSnapshot) error
	SetHourly(ctx context.Context, hours []types.WeatherSnapshot) error
}

// Metrics records cycle observability. Implementations must be non-blocking
// best-effort; a noop implementation is used where no telemetry is wired.
type Metrics interface {
	RecordCycle(ctx context.Context, duration time.Duration, timedOut bool)
	RecordDispatch(ctx context.Context, alertType types.AlertType, suppressed bool)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RecordCycle(context.Context, time.Duration, bool)      {}
func (NoopMetrics) RecordDispatch(context.Context, types.AlertType, bool) {}

// Orchestrator is the periodic alert engine.
type Orchestrator struct {
	provider types.WeatherProvider
	location types.LocationResolver
	cooldown CooldownGate
	state    EvalState
	cache    SnapshotWriter
	sink     types.NotificationSink
	ruleSet  []rules.AlertRule
	metrics  Metrics

	deadline time.Duration
	clock    types.Clock
	logger   types.Logger
}

// OrchestratorConfig holds the dependencies for creating an Orchestrator.
type OrchestratorConfig struct {
	Provider types.WeatherProvider
	Location types.LocationResolver
	Cooldown CooldownGate
	State    EvalState
	Cache    SnapshotWriter
	Sink     types.NotificationSink
	Rules    []rules.AlertRule
	Metrics  Metrics
	Deadline time.Duration
	Clock    types.Clock
	Logger   types.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = DefaultCycleDeadline
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	ruleSet := cfg.Rules
	if ruleSet == nil {
		ruleSet = rules.DefaultRules(clock)
	}
	return &Orchestrator{
		provider: cfg.Provider,
		location: cfg.Location,
		cooldown: cfg.Cooldown,
		state:    cfg.State,
		cache:    cfg.Cache,
		sink:     cfg.Sink,
		ruleSet:  ruleSet,
		metrics:  metrics,
		deadline: deadline,
		clock:    clock,
		logger:   cfg.Logger,
	}
}

// collected holds whatever the fan-out gathered. Each field is written by
// exactly one goroutine before Wait returns, so no further synchronization
// is needed when reading them afterwards.
type collected struct {
	current *types.WeatherSnapshot
	hourly  []types.WeatherSnapshot
	uv      *float64
	air     *types.AirQuality
}

// RunCycle executes one orchestration cycle. Partial provider failures are
// isolated: rules whose input is missing skip silently. The returned error is
// nil when the cycle completed within the deadline, wraps
// context.DeadlineExceeded when the overall collection deadline elapsed (so
// the periodic runtime may retry), and is a hard failure on persistence
// errors.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	return o.RunCycleWithDeadline(ctx, o.deadline)
}

// RunCycleWithDeadline runs one cycle with a per-invocation collection
// deadline, overriding the configured one. A non-positive deadline falls back
// to the configured value.
func (o *Orchestrator) RunCycleWithDeadline(ctx context.Context, deadline time.Duration) error {
	if deadline <= 0 {
		deadline = o.deadline
	}
	started := o.clock.Now()

	loc, err := o.location.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolving location: %w", err)
	}

	data, timedOut := o.collect(ctx, loc, deadline)

	// The change rule must see the previous cycle's temperature; the new one
	// is persisted only after evaluation.
	var prevTemp *float64
	if temp, ok, err := o.state.PreviousTemperature(ctx); err != nil {
		o.logger.Error("reading previous temperature, change rule skipped", "error", err)
	} else if ok {
		prevTemp = &temp
	}

	input := rules.RuleInput{
		Current:  data.current,
		Hourly:   data.hourly,
		UV:       data.uv,
		Air:      data.air,
		PrevTemp: prevTemp,
	}

	if err := o.evaluateAndDispatch(ctx, input); err != nil {
		return err
	}

	if err := o.persistObservations(ctx, data); err != nil {
		return err
	}

	duration := o.clock.Now().Sub(started)
	o.metrics.RecordCycle(ctx, duration, timedOut)
	o.logger.Info("orchestrator cycle complete",
		"duration_ms", duration.Milliseconds(),
		"timed_out", timedOut,
		"have_current", data.current != nil,
		"have_hourly", len(data.hourly) > 0,
		"have_uv", data.uv != nil,
		"have_air", data.air != nil,
	)

	if timedOut {
		return fmt.Errorf("cycle data collection deadline elapsed: %w", context.DeadlineExceeded)
	}
	return nil
}

// collect fans out the four provider calls concurrently and joins them under
// the cycle deadline. Each call's failure is independent: it is logged and
// its slot stays nil. The second result reports whether the overall deadline
// elapsed before every call finished.
func (o *Orchestrator) collect(ctx context.Context, loc types.Location, deadline time.Duration) (collected, bool) {
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var data collected
	var g errgroup.Group

	g.Go(func() error {
		snap, err := o.provider.Current(callCtx, loc)
		if err != nil {
			o.logCallFailure("current_weather", err)
			return nil
		}
		data.current = snap
		return nil
	})
	g.Go(func() error {
		hours, err := o.provider.HourlyForecast(callCtx, loc)
		if err != nil {
			o.logCallFailure("hourly_forecast", err)
			return nil
		}
		data.hourly = hours
		return nil
	})
	g.Go(func() error {
		uv, err := o.provider.UVIndex(callCtx, loc)
		if err != nil {
			o.logCallFailure("uv_index", err)
			return nil
		}
		data.uv = &uv
		return nil
	})
	g.Go(func() error {
		air, err := o.provider.AirQuality(callCtx, loc)
		if err != nil {
			o.logCallFailure("air_quality", err)
			return nil
		}
		data.air = &air
		return nil
	})

	// Errors are swallowed above, so Wait only blocks until all calls finish
	// or abandon their work at the deadline.
	_ = g.Wait()

	return data, callCtx.Err() != nil
}

// logCallFailure logs one provider call failure at the level its taxonomy
// deserves: no-data is expected for some locations, transports are warnings.
func (o *Orchestrator) logCallFailure(call string, err error) {
	switch {
	case types.IsNoData(err):
		o.logger.Info("provider has no data, dependent rules skipped", "call", call)
	default:
		o.logger.Warn("provider call failed, dependent rules skipped", "call", call, "error", err)
	}
}

// evaluateAndDispatch runs every rule against the input and dispatches
// whatever the cooldown gate allows. Dispatch failures are logged and do not
// record a fire, so the alert stays eligible next cycle. Cooldown persistence
// failures are hard errors.
func (o *Orchestrator) evaluateAndDispatch(ctx context.Context, input rules.RuleInput) error {
	for _, rule := range o.ruleSet {
		rec := rule.Evaluate(input)
		if rec == nil {
			continue
		}

		allowed, err := o.cooldown.ShouldFire(ctx, rec.Type)
		if err != nil {
			return fmt.Errorf("cooldown check for %s: %w", rec.Type, err)
		}
		if !allowed {
			o.metrics.RecordDispatch(ctx, rec.Type, true)
			o.logger.Info("alert suppressed by cooldown", "alert_type", string(rec.Type))
			continue
		}

		n := rules.BuildAlertNotification(*rec)
		if err := o.sink.Show(ctx, n); err != nil {
			o.logger.Error("alert dispatch failed",
				"alert_type", string(rec.Type),
				"notification_id", n.ID,
				"error", err,
			)
			continue
		}

		o.metrics.RecordDispatch(ctx, rec.Type, false)
		o.logger.Info("alert dispatched",
			"alert_type", string(rec.Type),
			"severity", string(rec.Severity),
			"notification_id", n.ID,
		)

		if err := o.cooldown.RecordFired(ctx, rec.Type); err != nil {
			return fmt.Errorf("recording cooldown for %s: %w", rec.Type, err)
		}
	}
	return nil
}

// persistObservations caches the collected snapshots for alarm fires and
// stores the observed temperature for the next cycle's change detection.
func (o *Orchestrator) persistObservations(ctx context.Context, data collected) error {
	if data.current != nil {
		// Enrich the cached snapshot with this cycle's UV/AQI readings so alarm
		// conditions can evaluate against one coherent snapshot.
		snap := *data.current
		if data.uv != nil {
			snap.UVIndex = *data.uv
		}
		if data.air != nil {
			snap.AQI = data.air.AQI
			snap.DominantPollutant = data.air.DominantPollutant
		}
		if err := o.cache.SetCurrent(ctx, &snap); err != nil {
			return fmt.Errorf("caching current snapshot: %w", err)
		}
		if err := o.state.SetPreviousTemperature(ctx, snap.Temperature); err != nil {
			return fmt.Errorf("persisting observed temperature: %w", err)
		}
	}
	if len(data.hourly) > 0 {
		if err := o.cache.SetHourly(ctx, data.hourly); err != nil {
			return fmt.Errorf("caching hourly forecast: %w", err)
		}
	}
	return nil
}
