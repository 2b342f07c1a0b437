// Package main is the entry point for the SkySentry engine daemon.
//
// The engine owns the periodic alert cycle and the alarm wake timers. On
// startup it re-derives every wake-timer registration from the alarm store
// (registrations are volatile and do not survive a restart), then runs the
// orchestrator on its check interval and a reconcile loop that picks up alarm
// edits made through the API process.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"skysentry/internal/alarms"
	"skysentry/internal/config"
	"skysentry/internal/engine"
	"skysentry/internal/kv"
	"skysentry/internal/notify"
	"skysentry/internal/store"
	"skysentry/internal/types"
	"skysentry/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := types.NewSlogLogger(newLogger(cfg.LogLevel))
	logger.Info("skysentry engine starting",
		"environment", cfg.Environment,
		"check_interval", cfg.Engine.CheckInterval.String(),
		"cycle_deadline", cfg.Engine.CycleDeadline.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Key-value backend: Postgres when DATABASE_URL is set, in-memory for
	// local development.
	kvStore, cleanup, err := newKVStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	codec, err := kv.NewCodec()
	if err != nil {
		return fmt.Errorf("creating snapshot codec: %w", err)
	}

	alarmStore := store.NewAlarmStore(kvStore)
	cooldown := store.NewCooldownGate(kvStore, cfg.Engine.CooldownWindow, nil)
	evalState := store.NewEvalState(kvStore)
	snapshots := store.NewSnapshotCache(kvStore, codec)

	provider := weather.NewProvider(weather.ProviderConfig{
		HTTPClient: &http.Client{Timeout: cfg.Weather.RequestTimeout},
		BaseURL:    cfg.Weather.BaseURL,
		APIKey:     cfg.Weather.APIKey,
		UserAgent:  cfg.Weather.UserAgent,
		Retry:      weather.DefaultRetryPolicy(),
	})

	resolver := weather.StaticResolver{Location: types.Location{
		Lat:         cfg.Engine.DefaultLat,
		Lon:         cfg.Engine.DefaultLon,
		DisplayName: cfg.Engine.DefaultName,
	}}

	sink, metrics, err := newAWSIntegrations(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Alarm side: in-process wake timers, restored from the store at boot.
	scheduler := newAlarmPipeline(alarmStore, snapshots, sink, logger)

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	all, err := alarmStore.GetAll(bootCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("loading alarms for recovery: %w", err)
	}
	if err := scheduler.RescheduleAll(bootCtx, all); err != nil {
		logger.Error("alarm recovery incomplete", "error", err)
	}
	cancel()

	// Alert side: periodic orchestrator cycles.
	orchestrator := engine.NewOrchestrator(engine.OrchestratorConfig{
		Provider: provider,
		Location: resolver,
		Cooldown: cooldown,
		State:    evalState,
		Cache:    snapshots,
		Sink:     sink,
		Metrics:  metrics,
		Deadline: cfg.Engine.CycleDeadline,
		Logger:   logger,
	})

	ticker := engine.NewTickerScheduler(orchestrator, cfg.Engine.CheckInterval, logger)
	go ticker.Start(ctx)
	go reconcileLoop(ctx, cfg.Engine.ReconcileInterval, alarmStore, scheduler, logger)

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping engine")
	return nil
}

// newAlarmPipeline wires the fire handler, scheduler and timer. The timer
// delivers fires into the handler, and the handler reschedules through the
// scheduler, so construction happens in two steps with a late-bound handler.
func newAlarmPipeline(
	alarmStore *store.AlarmStore,
	snapshots *store.SnapshotCache,
	sink types.NotificationSink,
	logger types.Logger,
) *alarms.Scheduler {
	var handler *alarms.FireHandler
	timer := alarms.NewInProcessTimer(func(key string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := handler.HandleFire(ctx, key); err != nil {
			logger.Error("alarm fire handling failed", "alarm_id", key, "error", err)
		}
	}, nil)
	scheduler := alarms.NewScheduler(timer, nil, logger)
	handler = alarms.NewFireHandler(alarmStore, snapshots, scheduler, sink, logger)
	return scheduler
}

// reconcileLoop periodically re-projects wake-timer registrations from the
// alarm store so edits made by the API process take effect in the engine.
func reconcileLoop(ctx context.Context, interval time.Duration, alarmStore *store.AlarmStore, scheduler *alarms.Scheduler, logger types.Logger) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			all, err := alarmStore.GetAll(ctx)
			if err != nil {
				logger.Error("reconcile: loading alarms", "error", err)
				continue
			}
			if err := scheduler.RescheduleAll(ctx, all); err != nil {
				logger.Error("reconcile: rescheduling", "error", err)
			}
		}
	}
}

// newKVStore opens the Postgres-backed store, or the in-memory one when no
// database is configured.
func newKVStore(ctx context.Context, cfg *config.Config) (kv.Store, func(), error) {
	if cfg.Database.URL == "" {
		return kv.NewMemoryStore(), func() {}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}
	return kv.NewPostgresStore(pool), pool.Close, nil
}

// newAWSIntegrations builds the notification sink and metrics recorder.
// With no queue configured the sink logs notifications instead; with metrics
// disabled the recorder is a no-op.
func newAWSIntegrations(ctx context.Context, cfg *config.Config, logger types.Logger) (types.NotificationSink, engine.Metrics, error) {
	var sink types.NotificationSink = notify.NewLogSink(logger)
	var metrics engine.Metrics = engine.NoopMetrics{}

	if cfg.AWS.NotificationQueue == "" && !cfg.AWS.MetricsEnabled {
		return sink, metrics, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, nil, fmt.Errorf("loading AWS SDK config: %w", err)
	}

	if cfg.AWS.NotificationQueue != "" {
		client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		sink = notify.NewSQSSink(client, cfg.AWS.NotificationQueue, logger)
	}

	if cfg.AWS.MetricsEnabled {
		client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		metrics = notify.NewCloudWatchMetrics(client, logger)
	}

	return sink, metrics, nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
