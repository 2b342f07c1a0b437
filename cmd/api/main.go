// Package main is the entry point for the SkySentry alarm API server.
//
// The API owns alarm CRUD. It shares the key-value store with the engine
// process; timer registrations live in the engine, which reconciles them from
// the store, so the API's scheduler only needs to satisfy the handler's
// contract without owning real timers.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"skysentry/internal/api"
	"skysentry/internal/api/handlers"
	"skysentry/internal/config"
	"skysentry/internal/kv"
	"skysentry/internal/store"
	"skysentry/internal/types"
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
	logger.Info("skysentry API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kvStore, cleanup, err := newKVStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	alarmStore := store.NewAlarmStore(kvStore)
	alarmHandler := handlers.NewAlarmHandler(alarmStore, deferredScheduler{}, nil, logger)

	srv := api.NewServer(api.ServerConfig{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger, alarmHandler)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped cleanly")
	return nil
}

// deferredScheduler satisfies the handler's scheduling contract in the API
// process. Timer registrations are owned by the engine process, which
// reconciles them from the shared store on its reconcile interval, so both
// operations are deliberate no-ops here.
type deferredScheduler struct{}

func (deferredScheduler) Reschedule(context.Context, *types.AlarmDefinition) error { return nil }
func (deferredScheduler) Cancel(context.Context, string) error                     { return nil }

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
