package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tripledoble/internal/api"
	"tripledoble/internal/config"
	"tripledoble/internal/database"
	"tripledoble/internal/events"
	"tripledoble/internal/logging"
	"tripledoble/internal/messaging"
	"tripledoble/internal/metrics"
	"tripledoble/internal/repository"
	"tripledoble/internal/service"
	"tripledoble/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return err
	}

	db, err := database.New(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	eventBus := events.NewEventBus()

	reservations, err := service.NewReservationService(db, eventBus, cfg.Schedule, cfg.Pricing, cfg.Bot.MaxBookingDays, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("init reservation service")
		return err
	}
	users := service.NewUserService(db, cfg, &logger)

	startRefresher(ctx, cfg, reservations, redisClient, eventBus, logger)

	whatsapp := messaging.NewBuilder(cfg.WhatsApp.Number)
	httpServer := api.NewHTTPServer(cfg.API, reservations, users, whatsapp, logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// startRefresher keeps the availability snapshot current and fans local
// writes out to the Redis change channel for the other processes.
func startRefresher(
	ctx context.Context,
	cfg *config.Config,
	reservations *service.ReservationService,
	redisClient *redis.Client,
	bus *events.EventBus,
	logger zerolog.Logger,
) {
	var listener worker.ChangeListener
	if redisClient != nil {
		notifier := repository.NewChangeNotifier(redisClient, logger)
		listener = notifier
		forwardChanges(ctx, bus, notifier, logger)
	}

	refresher := worker.NewSnapshotRefresher(
		reservations,
		listener,
		bus,
		worker.RetryPolicy{},
		0,
		logger,
	)
	go refresher.Start(ctx)
}

// forwardChanges republishes local reservation events on the Redis change
// channel.
func forwardChanges(ctx context.Context, bus *events.EventBus, notifier *repository.ChangeNotifier, logger zerolog.Logger) {
	handler := func(ev *events.Event) error {
		var payload events.ReservationEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("decode reservation event")
			return nil
		}
		if err := notifier.PublishChange(ctx, payload); err != nil {
			logger.Warn().Err(err).Int64("reservation_id", payload.ReservationID).Msg("publish change notification")
		}
		return nil
	}

	bus.Subscribe(events.EventReservationCreated, handler)
	bus.Subscribe(events.EventReservationConfirmed, handler)
	bus.Subscribe(events.EventReservationRejected, handler)
	bus.Subscribe(events.EventReservationDeleted, handler)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
