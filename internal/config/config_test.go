package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Auth.TokenDuration != 24*time.Hour {
		t.Errorf("expected default token duration 24h, got %s", cfg.Auth.TokenDuration)
	}
	if cfg.Payments.Currency != "INR" {
		t.Errorf("expected default currency INR, got %q", cfg.Payments.Currency)
	}
	if cfg.Schedule.BudgetAlertCron == "" || cfg.Schedule.EMIReminderCron == "" {
		t.Error("expected default cron expressions")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  sqlite_path: /tmp/app.db
auth:
  jwt_secret: file-secret
  token_duration: 1h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.SQLitePath != "/tmp/app.db" {
		t.Errorf("expected db path from file, got %q", cfg.Database.SQLitePath)
	}
	if cfg.Auth.TokenDuration != time.Hour {
		t.Errorf("expected 1h token duration, got %s", cfg.Auth.TokenDuration)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
auth:
  jwt_secret: file-secret
`)
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("expected env secret, got %q", cfg.Auth.JWTSecret)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without jwt secret")
	}

	cfg.Auth.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Server.Port = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for bad port")
	}
}
