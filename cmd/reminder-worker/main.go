package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/healthfirst/scheduling-assistant/internal/clinic"
	appconfig "github.com/healthfirst/scheduling-assistant/internal/config"
	"github.com/healthfirst/scheduling-assistant/internal/notify"
	"github.com/healthfirst/scheduling-assistant/internal/observability/metrics"
	"github.com/healthfirst/scheduling-assistant/internal/reminder"
	"github.com/healthfirst/scheduling-assistant/internal/store"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// Standalone reminder sweep. Deployments that scale the API server
// horizontally run this as a single instance instead of the in-process
// sweep (RUN_REMINDER_SWEEP=false on the API).
func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		st = store.NewPostgresStore(pool, store.NoopLocker{}, logger)
	default:
		fs, err := store.NewFileStore(cfg.DataDir, logger)
		if err != nil {
			logger.Error("failed to open data directory", "error", err)
			os.Exit(1)
		}
		st = fs
	}

	info := clinic.Info{
		Name:    cfg.ClinicName,
		Address: cfg.ClinicAddress,
		Phone:   cfg.ClinicPhone,
		Email:   cfg.ClinicEmail,
	}
	emailSender, err := notify.BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build email sender", "error", err)
		os.Exit(1)
	}
	smsSender, err := notify.BuildSMSSender(cfg, logger)
	if err != nil {
		logger.Error("failed to build SMS sender", "error", err)
		os.Exit(1)
	}
	gateway := notify.NewGateway(emailSender, smsSender, info, cfg.IntakeFormURL, logger)

	sweep := reminder.NewSweep(st, gateway, logger, metrics.NewSchedulingMetrics(nil)).
		WithInterval(cfg.ReminderPollInterval).
		WithWindowDays(cfg.ReminderWindowDays)

	logger.Info("reminder worker starting", "sweep", sweep.String())
	go sweep.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("reminder worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
