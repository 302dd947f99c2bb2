// Financial Planner Bot - Telegram assistant with idle-session expiry.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/dkravets/finbot/internal/api"
	"github.com/dkravets/finbot/internal/bot"
	"github.com/dkravets/finbot/internal/config"
	"github.com/dkravets/finbot/internal/session"
	"github.com/dkravets/finbot/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting bot",
		"bot_name", cfg.BotName,
		"session_timeout", cfg.SessionTimeout,
		"sweep_interval", cfg.SweepInterval)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		slog.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	tg.Debug = cfg.Debug
	slog.Info("Telegram connected", "username", tg.Self.UserName)

	notifier := bot.NewTimeoutNotifier(tg, cfg.TimeoutMinutes())
	manager := session.NewManager(repo, notifier, cfg.SessionTimeout,
		session.WithSweepInterval(cfg.SweepInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the background sweeper.
	manager.StartSweeper(ctx)

	// Start the update loop.
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := tg.GetUpdatesChan(updateCfg)

	b := bot.New(tg, repo, manager, cfg)
	go b.Run(ctx, updates)

	// Setup the ops router.
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	api.NewHealthHandler(repo).RegisterHealth(r)
	api.NewSessionHandler(repo, manager).RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Ops server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server failed", "error", err)
			stop()
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")
	tg.StopReceivingUpdates()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Ops server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Bot stopped successfully")
}
