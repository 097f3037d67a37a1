package tasks

import (
	"context"
	"fmt"
)

// NewSQLMaintenanceTask returns a task that vacuums and analyzes the archive
// database to keep queries fast.
func NewSQLMaintenanceTask(deps TaskDeps) Task {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.Info("Starting database maintenance")

		if err := deps.Store.RunMaintenance(ctx); err != nil {
			return fmt.Errorf("database maintenance failed: %w", err)
		}

		log.Info("Database maintenance finished")
		return nil
	}
}
