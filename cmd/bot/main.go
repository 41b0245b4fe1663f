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

	"tripledoble/internal/bot"
	"tripledoble/internal/config"
	"tripledoble/internal/database"
	"tripledoble/internal/events"
	"tripledoble/internal/export"
	"tripledoble/internal/logging"
	"tripledoble/internal/metrics"
	"tripledoble/internal/models"
	"tripledoble/internal/repository"
	"tripledoble/internal/service"
	"tripledoble/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
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

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.New(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	eventBus := events.NewEventBus()

	reservations, err := service.NewReservationService(db, eventBus, cfg.Schedule, cfg.Pricing, cfg.Bot.MaxBookingDays, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации сервиса бронирования")
		return err
	}
	userService := service.NewUserService(db, cfg, &logger)

	exporter, err := export.New(cfg.Exports.Path, cfg.Schedule, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации экспорта")
		return err
	}

	startRefresher(ctx, reservations, redisClient, eventBus, logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	botMetrics := bot.NewMetrics()
	startMetrics(ctx, cfg, &logger)

	return startBot(ctx, cfg, stateService, reservations, userService, exporter, eventBus, botMetrics, &logger)
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
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
			return err
		}
	}
	return nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, time.Duration(models.DefaultRedisTTL)*time.Second)
	fallbackRepo := repository.NewMemoryStateRepository(time.Duration(models.DefaultRedisTTL) * time.Second)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

// startRefresher keeps the bot's availability snapshot in step with writes
// made by the API process, via the Redis change channel.
func startRefresher(
	ctx context.Context,
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
// channel so the API process refreshes its snapshot too.
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

func startBot(
	ctx context.Context,
	cfg *config.Config,
	stateService *service.StateService,
	reservations *service.ReservationService,
	userService *service.UserService,
	exporter *export.Exporter,
	eventBus *events.EventBus,
	botMetrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	if cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return os.ErrInvalid
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, stateService, reservations,
		userService, exporter, eventBus, botMetrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}
	defer telegramBot.Stop()

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
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
