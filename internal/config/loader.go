// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs in recurrence math.
//  2. Load .env file via godotenv (non-fatal if absent, never overrides
//     existing environment variables).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Validate the struct using go-playground/validator, plus the
//     cross-field invariants validator tags cannot express.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType categorizes configuration failures for diagnostics.
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "parsing"
	ErrValidation ConfigErrorType = "validation"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load loads and validates the engine configuration.
func Load() (*Config, error) {
	// Recurrence math compares wall-clock instants; a drifting process
	// timezone would shift every computed fire time.
	time.Local = time.UTC

	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	if err := cfg.validateRelations(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateRelations enforces the cross-field invariants.
func (c *Config) validateRelations() error {
	if c.Engine.CheckInterval < c.Engine.CooldownWindow {
		return &ConfigError{
			Type: ErrValidation,
			Message: fmt.Sprintf(
				"ENGINE_CHECK_INTERVAL (%s) must not be tighter than ENGINE_COOLDOWN_WINDOW (%s); every alert would be perpetually suppressed",
				c.Engine.CheckInterval, c.Engine.CooldownWindow,
			),
		}
	}
	if c.Engine.CycleDeadline <= 0 {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "ENGINE_CYCLE_DEADLINE must be positive",
		}
	}
	if c.Environment != "local" && c.Database.URL == "" {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "DATABASE_URL is required outside local environment",
		}
	}
	return nil
}
