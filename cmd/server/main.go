package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/saks786/expense-tracker/internal/auth"
	"github.com/saks786/expense-tracker/internal/config"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/notifier"
	"github.com/saks786/expense-tracker/internal/payments"
	"github.com/saks786/expense-tracker/internal/scheduler"
	"github.com/saks786/expense-tracker/internal/service"
	"github.com/saks786/expense-tracker/internal/storage/sqlite"
	"github.com/saks786/expense-tracker/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := sqlite.New(cfg.Database.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	slog.Info("Database ready", "path", cfg.Database.SQLitePath)

	var mailer notifier.Mailer = notifier.Noop{}
	if cfg.Mailer.APIURL != "" {
		mailer = notifier.NewHTTPMailer(cfg.Mailer.APIURL, cfg.Mailer.APIKey, cfg.Mailer.FromEmail)
		slog.Info("Mail notifications enabled")
	}

	gateway := payments.NewHTTPGateway(cfg.Payments.BaseURL, cfg.Payments.APIKey, cfg.Payments.WebhookSecret)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)

	sched := scheduler.New(store, mailer)
	if err := sched.Start(cfg.Schedule.BudgetAlertCron, cfg.Schedule.EMIReminderCron); err != nil {
		return err
	}
	defer sched.Stop()

	mux := http.NewServeMux()
	service.New(store, authenticator, jwtManager, gateway, mailer, cfg.Payments.Currency).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.Logging(middleware.Metrics(mux, mux))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Server listening", "addr", addr)

	// h2c lets gRPC-web style clients and proxies speak HTTP/2 without TLS;
	// TLS termination happens upstream.
	h2s := &http2.Server{}
	return http.ListenAndServe(addr, h2c.NewHandler(handler, h2s))
}
