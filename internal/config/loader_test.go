package config

import (
	"errors"
	"testing"
	"time"
)

// setRequiredEnv sets the minimum environment for a successful Load.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("WEATHER_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Environment != "local" {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Engine.CheckInterval != 2*time.Minute {
		t.Errorf("check interval = %v, want 2m", cfg.Engine.CheckInterval)
	}
	if cfg.Engine.CooldownWindow != 2*time.Minute {
		t.Errorf("cooldown window = %v, want 2m", cfg.Engine.CooldownWindow)
	}
	if cfg.Weather.BaseURL == "" {
		t.Error("weather base url default missing")
	}
}

func TestLoadEnforcesUTC(t *testing.T) {
	setRequiredEnv(t)

	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if time.Local != time.UTC {
		t.Error("Load must pin the process timezone to UTC")
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("WEATHER_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error without WEATHER_API_KEY")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Type != ErrValidation {
		t.Errorf("expected validation ConfigError, got %v", err)
	}
}

func TestLoadRejectsIntervalTighterThanCooldown(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENGINE_CHECK_INTERVAL", "30s")
	t.Setenv("ENGINE_COOLDOWN_WINDOW", "2m")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error: interval tighter than cooldown window")
	}
}

func TestLoadRequiresDatabaseOutsideLocal(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error: DATABASE_URL required outside local")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/skysentry")
	if _, err := Load(); err != nil {
		t.Errorf("load with database url: %v", err)
	}
}

func TestLoadInvalidEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "carnival")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown environment")
	}
}
