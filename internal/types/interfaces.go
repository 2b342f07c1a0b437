package types

import (
	"context"
	"log/slog"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Logger defines the structured logging interface used throughout the engine.
// Production code backs it with log/slog; tests use no-op implementations.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps a *slog.Logger as a Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) With(args ...any) Logger       { return &slogLogger{l: s.l.With(args...)} }

// WeatherProvider is the external weather data source. All calls honor the
// context deadline and return either a transient error (network/timeout) or a
// no-data error (nothing known for this location), distinguished via
// IsTransient / IsNoData.
type WeatherProvider interface {
	Current(ctx context.Context, loc Location) (*WeatherSnapshot, error)
	HourlyForecast(ctx context.Context, loc Location) ([]WeatherSnapshot, error)
	UVIndex(ctx context.Context, loc Location) (float64, error)
	AirQuality(ctx context.Context, loc Location) (AirQuality, error)
}

// LocationResolver supplies the coordinates the orchestrator evaluates rules
// for. Implementations must not block indefinitely waiting for a fix; a
// last-known or configured default location is an acceptable answer.
type LocationResolver interface {
	Resolve(ctx context.Context) (Location, error)
}

// NotificationSink is the notification-presentation surface. Dispatching a
// Notification with an ID already on screen replaces the prior one. Dispatch
// is fire-and-forget beyond the returned error.
type NotificationSink interface {
	Show(ctx context.Context, n Notification) error
}

// WakeTimer is the durable wake-timer facility: it resumes the engine at a
// wall-clock instant even if the process was not running at registration
// time. At most one registration exists per key; RegisterAt for an existing
// key atomically replaces the prior registration instead of erroring.
// Registrations do not survive a host restart, which is why the scheduler
// re-derives them from the alarm store at boot.
type WakeTimer interface {
	RegisterAt(ctx context.Context, key string, at time.Time) error
	Cancel(ctx context.Context, key string) error
}
