// Package tasks defines the scheduled background jobs of the bot.
package tasks

import (
	"context"
	"log/slog"

	"github.com/kryli/TgAnalyzer/internal/config"
	"github.com/kryli/TgAnalyzer/internal/database"
)

// Task is the function signature every scheduled task implements.
type Task func(ctx context.Context) error

// Definition couples a task with its cron schedule.
type Definition struct {
	Schedule string
	Run      Task
}

// TaskDeps bundles the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
}
