// Package config defines the global configuration for the SkySentry engine.
// Configuration is loaded once at process initialization and is immutable
// thereafter, following 12-Factor principles: values come from the OS
// environment, optionally seeded by a local .env file. A missing required
// value or an invalid format fails the process at startup.
package config

import (
	"time"
)

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig
	Database DatabaseConfig
	Weather  WeatherConfig
	Engine   EngineConfig
	AWS      AWSConfig
}

// ServerConfig holds the alarm API's HTTP settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the Postgres connection backing the kv store. An
// empty URL selects the in-memory store (local development only).
type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"5"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// WeatherConfig holds the weather provider endpoint and credentials.
type WeatherConfig struct {
	BaseURL        string        `envconfig:"WEATHER_BASE_URL" default:"https://api.openweathermap.org" validate:"required,url"`
	APIKey         string        `envconfig:"WEATHER_API_KEY" validate:"required"`
	UserAgent      string        `envconfig:"WEATHER_USER_AGENT" default:"SkySentry/1.0"`
	RequestTimeout time.Duration `envconfig:"WEATHER_REQUEST_TIMEOUT" default:"15s"`
}

// EngineConfig holds the orchestrator and alarm scheduling parameters.
type EngineConfig struct {
	// CheckInterval is the orchestrator period. It must be at least the
	// cooldown window; the loader rejects configurations where it is not.
	CheckInterval  time.Duration `envconfig:"ENGINE_CHECK_INTERVAL" default:"2m"`
	CycleDeadline  time.Duration `envconfig:"ENGINE_CYCLE_DEADLINE" default:"30s"`
	CooldownWindow time.Duration `envconfig:"ENGINE_COOLDOWN_WINDOW" default:"2m"`

	// ReconcileInterval is how often the engine re-derives wake-timer
	// registrations from the alarm store, picking up edits made through the
	// API process.
	ReconcileInterval time.Duration `envconfig:"ENGINE_RECONCILE_INTERVAL" default:"5m"`

	// Default location used when no live location source is available.
	DefaultLat  float64 `envconfig:"ENGINE_DEFAULT_LAT" default:"0" validate:"latitude"`
	DefaultLon  float64 `envconfig:"ENGINE_DEFAULT_LON" default:"0" validate:"longitude"`
	DefaultName string  `envconfig:"ENGINE_DEFAULT_LOCATION_NAME"`
}

// AWSConfig holds the optional AWS integrations. Empty values disable them:
// notifications fall back to the log sink and metrics to the noop recorder.
type AWSConfig struct {
	Region            string `envconfig:"AWS_REGION" default:"us-east-1"`
	NotificationQueue string `envconfig:"SQS_NOTIFICATIONS"`
	MetricsEnabled    bool   `envconfig:"CLOUDWATCH_METRICS_ENABLED" default:"false"`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}
