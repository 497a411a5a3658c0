package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sunset_reminder_bot/internal/app"
	"sunset_reminder_bot/internal/domain/sun"
	"sunset_reminder_bot/internal/infra/config"
	idb "sunset_reminder_bot/internal/infra/database"
	"sunset_reminder_bot/internal/infra/logger"
	"sunset_reminder_bot/internal/infra/metrics"
	"sunset_reminder_bot/internal/infra/scheduler"
	"sunset_reminder_bot/internal/infra/telegram"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not load application configuration")
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"location":    cfg.Location.String(),
		"db_driver":   cfg.DatabaseDriver,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	store, err := idb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not open database")
	}
	defer store.Close()
	mainLogger.Info("Database connection established and schema ready")

	recorder := metrics.NewRecorder(prom.NewRegistry())
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", recorder.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := store.Ping(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLogger.WithError(err).Error("Metrics server stopped")
			}
		}()
		mainLogger.WithField("addr", cfg.MetricsAddr).Info("Metrics endpoint listening")
	}

	// Initialize Telegram Bot
	botLogger := logger.Component("telebot")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("Handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	deps := app.Deps{
		Location: cfg.Location,
		Store:    store,
		Notifier: telegram.NewTelebotAdapter(bot),
		Clock:    clockwork.NewRealClock(),
		Sun:      sun.Calculator{},
		Logger:   logger.Log.WithField("app", "sunset_reminder_bot"),
		Metrics:  recorder,
		Channels: app.Channels{
			Announce: cfg.AnnounceChannelID,
			Rent:     cfg.RentReminderChannelID,
		},
	}
	tracker := app.NewObligationTracker(deps, cfg.RentThresholdDays)
	loop := app.NewReminderLoop(deps, tracker, cfg.MaxPollInterval)
	subscriptions := app.NewSubscriptionService(store)

	// Register Handlers
	handlerLogger := logger.Component("telegram_handlers")
	telegram.NewBotCommands(cfg.Location, loop, handlerLogger).Register(bot)
	telegram.NewSubscriptionHandlers(ctx, subscriptions, handlerLogger).Register(bot)
	telegram.NewRentHandlers(ctx, tracker, handlerLogger).Register(bot)
	mainLogger.Info("Command handlers registered")

	reminderScheduler := scheduler.NewReminderScheduler(loop, tracker, subscriptions, cfg.Location, logger.Log.WithField("app", "sunset_reminder_bot"), cfg.CronSpecDailyDigest)
	if err := reminderScheduler.Start(ctx); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and scheduler are running")

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	reminderScheduler.Stop()
	bot.Stop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("Metrics server shutdown failed")
		}
		cancel()
	}
	mainLogger.Info("Application shut down gracefully")
}
