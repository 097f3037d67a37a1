package tasks

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// NewResultsCleanupTask returns a task that removes analysis run directories
// and raw corpus files older than the configured retention period.
func NewResultsCleanupTask(deps TaskDeps) Task {
	log := deps.Logger.With("task", "results_cleanup")

	return func(ctx context.Context) error {
		retention := time.Duration(deps.Config.Pipeline.RetentionDays) * 24 * time.Hour
		if retention <= 0 {
			log.Debug("Retention disabled, nothing to clean")
			return nil
		}
		cutoff := time.Now().Add(-retention)

		removed := 0
		for _, dir := range []string{
			filepath.Join(deps.Config.Pipeline.DataDir, "results"),
			filepath.Join(deps.Config.Pipeline.DataDir, "raw"),
		} {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			removed += cleanDir(dir, cutoff, log)
		}

		log.Info("Results cleanup finished", "removed", removed)
		return nil
	}
}

func cleanDir(dir string, cutoff time.Time, log *slog.Logger) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("Failed to read cleanup directory", "dir", dir, "error", err)
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Warn("Failed to remove expired entry", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}
