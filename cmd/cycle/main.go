// Package main is the entrypoint for the alert-cycle Lambda function.
//
// The function runs one orchestrator cycle per invocation, driven by an
// EventBridge schedule. It is the serverless deployment of the same cycle the
// engine daemon runs on a ticker: fetch weather for the configured location,
// evaluate the alert rules against it, dispatch whatever fires, and persist
// the observations for the next invocation.
//
// This file handles dependency wiring (cold start) and delegates the cycle
// itself to internal/engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"skysentry/internal/config"
	"skysentry/internal/engine"
	"skysentry/internal/kv"
	"skysentry/internal/notify"
	"skysentry/internal/store"
	"skysentry/internal/types"
	"skysentry/internal/weather"
)

// CycleInput is the invocation payload. DeadlineOverride, when positive,
// replaces the configured cycle deadline for this invocation only; operators
// use it to let a manual run ride out a slow upstream.
type CycleInput struct {
	DeadlineOverride time.Duration `json:"deadline_override,omitempty"`
}

func main() {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	logger := types.NewSlogLogger(slogger)

	logger.Info("alert-cycle Lambda initializing (cold start)")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	codec, err := kv.NewCodec()
	if err != nil {
		logger.Error("failed to create snapshot codec", "error", err)
		os.Exit(1)
	}

	kvStore := kv.NewPostgresStore(pool)
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

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	var sink types.NotificationSink = notify.NewLogSink(logger)
	if cfg.AWS.NotificationQueue != "" {
		client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		sink = notify.NewSQSSink(client, cfg.AWS.NotificationQueue, logger)
	}

	var metrics engine.Metrics = engine.NoopMetrics{}
	if cfg.AWS.MetricsEnabled {
		metrics = notify.NewCloudWatchMetrics(cloudwatch.NewFromConfig(awsCfg), logger)
	}

	orchestrator := engine.NewOrchestrator(engine.OrchestratorConfig{
		Provider: provider,
		Location: weather.StaticResolver{Location: types.Location{
			Lat:         cfg.Engine.DefaultLat,
			Lon:         cfg.Engine.DefaultLon,
			DisplayName: cfg.Engine.DefaultName,
		}},
		Cooldown: cooldown,
		State:    evalState,
		Cache:    snapshots,
		Sink:     sink,
		Metrics:  metrics,
		Deadline: cfg.Engine.CycleDeadline,
		Logger:   logger,
	})

	logger.Info("alert-cycle Lambda initialized",
		"cycle_deadline", cfg.Engine.CycleDeadline.String(),
		"queue_configured", cfg.AWS.NotificationQueue != "",
	)

	lambda.Start(newHandler(orchestrator, cfg, logger))
}

// newHandler wraps one orchestrator cycle per invocation. A timed-out cycle
// is reported as a success with a degraded marker rather than a Lambda error:
// partial data was still evaluated and persisted, and EventBridge retrying
// the whole cycle would only repeat the slow upstream call.
func newHandler(orchestrator *engine.Orchestrator, cfg *config.Config, logger types.Logger) func(ctx context.Context, input CycleInput) (string, error) {
	return func(ctx context.Context, input CycleInput) (string, error) {
		deadline := cfg.Engine.CycleDeadline
		if input.DeadlineOverride > 0 {
			deadline = input.DeadlineOverride
			logger.Info("using deadline override", "deadline", deadline.String())
		}

		runCtx, cancel := context.WithTimeout(ctx, deadline+5*time.Second)
		defer cancel()

		start := time.Now()
		err := orchestrator.RunCycleWithDeadline(runCtx, deadline)
		elapsed := time.Since(start)

		switch {
		case err == nil:
			logger.Info("cycle complete", "elapsed_ms", elapsed.Milliseconds())
			return "ok", nil
		case ctx.Err() != nil:
			return "", fmt.Errorf("cycle aborted by lambda deadline: %w", err)
		default:
			logger.Warn("cycle completed degraded", "elapsed_ms", elapsed.Milliseconds(), "error", err)
			return "degraded", nil
		}
	}
}
