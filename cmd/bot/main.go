// Package main contains the entrypoint for the TgAnalyzer bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/kryli/TgAnalyzer/internal/bot"
	"github.com/kryli/TgAnalyzer/internal/bot/handlers"
	"github.com/kryli/TgAnalyzer/internal/bot/tasks"
	"github.com/kryli/TgAnalyzer/internal/cache"
	"github.com/kryli/TgAnalyzer/internal/config"
	"github.com/kryli/TgAnalyzer/internal/database"
	"github.com/kryli/TgAnalyzer/internal/gemini"
	"github.com/kryli/TgAnalyzer/internal/ingest"
	"github.com/kryli/TgAnalyzer/internal/logger"
	"github.com/kryli/TgAnalyzer/internal/mlsvc"
	"github.com/kryli/TgAnalyzer/internal/pipeline"
	"github.com/kryli/TgAnalyzer/internal/session"
	"github.com/kryli/TgAnalyzer/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components (config, logger, db, analysis
// capabilities, bot, scheduler), handles graceful shutdown, and returns an
// exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	ml := mlsvc.NewClient(cfg.MLService.BaseURL, cfg.MLService.Timeout, log)

	caps := pipeline.Capabilities{
		Clusterer:    ml,
		Projector:    ml,
		TopicModeler: ml,
	}
	if cfg.Gemini.APIKey != "" {
		gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
		if err != nil {
			log.Error("Failed to initialize Gemini client", "error", err)
			return 1
		}
		caps.Embedder = gemClient
		caps.Narrative = gemClient
	} else {
		log.Warn("Gemini API key not configured; clustering and narrative summary disabled")
	}

	pipe := pipeline.New(caps, cfg.Pipeline.NarrativeEnabled, log)
	results := cache.New(log)
	sessions := session.NewManager()
	fetcher := ingest.NewArchiveFetcher(store, cfg.Pipeline.DataDir, log)

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Cache:    results,
		Sessions: sessions,
		Fetcher:  fetcher,
		Pipeline: pipe,
	}
	tDeps := tasks.TaskDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewAnalyzeHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(tasks.RegisterAllTasks(tDeps), log)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewService(tg, sched, log)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
