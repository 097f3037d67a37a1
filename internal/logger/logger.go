// Package logger provides structured logging for TgAnalyzer using slog,
// plus a Telegram bot middleware that logs inbound updates.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLogger creates a slog Logger with the given level and format and sets
// it as the process default.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// Middleware returns a bot middleware that logs each update with its chat,
// sender, a short text preview, and handling duration.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()

			entry := log.With("update_id", update.ID)
			if update.Message != nil {
				entry = entry.With(
					"message_id", update.Message.ID,
					"chat_id", update.Message.Chat.ID,
					"text_preview", preview(update.Message.Text, 50),
				)
				if update.Message.From != nil {
					entry = entry.With("user_id", update.Message.From.ID)
				}
			}

			entry.InfoContext(ctx, "Processing update")
			next(ctx, b, update)
			entry.InfoContext(ctx, "Finished processing update", "duration", time.Since(start))
		}
	}
}

func preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
