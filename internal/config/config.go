// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret     string        `yaml:"jwt_secret"`
		TokenDuration time.Duration `yaml:"token_duration"`
	} `yaml:"auth"`
	Payments struct {
		BaseURL       string `yaml:"base_url"`
		APIKey        string `yaml:"api_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		Currency      string `yaml:"currency"`
	} `yaml:"payments"`
	Mailer struct {
		APIURL    string `yaml:"api_url"`
		APIKey    string `yaml:"api_key"`
		FromEmail string `yaml:"from_email"`
	} `yaml:"mailer"`
	Schedule struct {
		BudgetAlertCron string `yaml:"budget_alert_cron"`
		EMIReminderCron string `yaml:"emi_reminder_cron"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenDuration = d
		}
	}
	if v := os.Getenv("PAYMENT_GATEWAY_URL"); v != "" {
		cfg.Payments.BaseURL = v
	}
	if v := os.Getenv("PAYMENT_GATEWAY_KEY"); v != "" {
		cfg.Payments.APIKey = v
	}
	if v := os.Getenv("PAYMENT_WEBHOOK_SECRET"); v != "" {
		cfg.Payments.WebhookSecret = v
	}
	if v := os.Getenv("MAILER_API_URL"); v != "" {
		cfg.Mailer.APIURL = v
	}
	if v := os.Getenv("MAILER_API_KEY"); v != "" {
		cfg.Mailer.APIKey = v
	}
	if v := os.Getenv("FROM_EMAIL"); v != "" {
		cfg.Mailer.FromEmail = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/expense_tracker.db"
	}
	if cfg.Auth.TokenDuration == 0 {
		cfg.Auth.TokenDuration = 24 * time.Hour
	}
	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = "INR"
	}
	if cfg.Schedule.BudgetAlertCron == "" {
		cfg.Schedule.BudgetAlertCron = "0 9 * * *"
	}
	if cfg.Schedule.EMIReminderCron == "" {
		cfg.Schedule.EMIReminderCron = "0 8 * * *"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid port")
	}
	return nil
}
