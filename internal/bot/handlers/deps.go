package handlers

import (
	"log/slog"

	"github.com/kryli/TgAnalyzer/internal/cache"
	"github.com/kryli/TgAnalyzer/internal/config"
	"github.com/kryli/TgAnalyzer/internal/database"
	"github.com/kryli/TgAnalyzer/internal/ingest"
	"github.com/kryli/TgAnalyzer/internal/pipeline"
	"github.com/kryli/TgAnalyzer/internal/session"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Cache    *cache.ResultCache
	Sessions *session.Manager
	Fetcher  ingest.Fetcher
	Pipeline *pipeline.Pipeline
}
