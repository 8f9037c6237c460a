package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/healthfirst/scheduling-assistant/internal/api/router"
	"github.com/healthfirst/scheduling-assistant/internal/clinic"
	appconfig "github.com/healthfirst/scheduling-assistant/internal/config"
	"github.com/healthfirst/scheduling-assistant/internal/dialogue"
	"github.com/healthfirst/scheduling-assistant/internal/http/handlers"
	"github.com/healthfirst/scheduling-assistant/internal/notify"
	"github.com/healthfirst/scheduling-assistant/internal/observability/metrics"
	"github.com/healthfirst/scheduling-assistant/internal/reminder"
	"github.com/healthfirst/scheduling-assistant/internal/store"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

func main() {
	// Load .env if present; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scheduling-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store_backend", cfg.StoreBackend,
	)

	ctx := context.Background()

	st, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	m := metrics.NewSchedulingMetrics(nil)

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

	machine := dialogue.NewMachine(st, clinic.DefaultRoster(), gateway, info, logger, m)
	sessions := dialogue.NewSessionManager(machine)
	schedulingHandler := handlers.NewSchedulingHandler(sessions, st, gateway, m, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Scheduling:         schedulingHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if cfg.RunReminderSweep {
		sweep := reminder.NewSweep(st, gateway, logger, m).
			WithInterval(cfg.ReminderPollInterval).
			WithWindowDays(cfg.ReminderWindowDays)
		logger.Info("starting in-process reminder sweep", "sweep", sweep.String())
		go sweep.Run(sweepCtx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildStore selects the persistence backend. The file store is the
// default; postgres requires DATABASE_URL and optionally a Redis slot
// locker for multi-instance deployments.
func buildStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		locker := buildLocker(cfg, logger)
		return store.NewPostgresStore(pool, locker, logger), pool.Close, nil
	default:
		fs, err := store.NewFileStore(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

func buildLocker(cfg *appconfig.Config, logger *logging.Logger) store.SlotLocker {
	if cfg.RedisAddr == "" {
		logger.Info("no REDIS_ADDR configured, using in-process slot locking")
		return store.NoopLocker{}
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	logger.Info("using Redis slot locking", "addr", cfg.RedisAddr)
	return store.NewRedisSlotLocker(redis.NewClient(opts), 10*time.Second)
}
