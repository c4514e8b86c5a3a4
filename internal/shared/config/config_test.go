package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("MIN_DESCRIPTION_CHARS", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.Port != "3000" {
		t.Fatalf("expected port 3000, got %q", cfg.Port)
	}
	if cfg.SessionStore != "memory" {
		t.Fatalf("expected memory session store, got %q", cfg.SessionStore)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.MinDescriptionChars != 30 {
		t.Fatalf("expected 30 char minimum, got %d", cfg.MinDescriptionChars)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("SESSION_STORE", "PG")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("BACKEND_TIMEOUT_SECONDS", "15")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.SessionStore != "postgres" {
		t.Fatalf("expected postgres, got %q", cfg.SessionStore)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %s", cfg.SessionTTL)
	}
	if cfg.BackendTimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %s", cfg.BackendTimeout)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
}

func TestValidateProductionRequiresSecrets(t *testing.T) {
	cfg := Config{
		Env:            "production",
		BackendBaseURL: "http://backend",
		MaxUploadBytes: 1,
		SessionStore:   "memory",
	}
	err := cfg.Validate()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "SESSION_SECRET" {
		t.Fatalf("expected SESSION_SECRET error, got %q", cfgErr.Field)
	}
}

func TestValidatePostgresNeedsDatabaseURL(t *testing.T) {
	cfg := Config{
		Env:            "dev",
		BackendBaseURL: "http://backend",
		MaxUploadBytes: 1,
		SessionStore:   "postgres",
	}
	var cfgErr *ConfigError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) || cfgErr.Field != "DATABASE_URL" {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}
