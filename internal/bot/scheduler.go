package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"github.com/kryli/TgAnalyzer/internal/bot/tasks"
)

// Scheduler runs registered background tasks on their cron schedules.
type Scheduler struct {
	scheduler gocron.Scheduler
	tasks     map[string]tasks.Definition
	log       *slog.Logger
}

// NewScheduler creates a Scheduler for the given task definitions.
func NewScheduler(defs map[string]tasks.Definition, logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		tasks:     defs,
		log:       logger.With("component", "scheduler"),
	}, nil
}

// Start schedules all tasks and starts the scheduler. It blocks until the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	for name, def := range s.tasks {
		if def.Schedule == "" {
			s.log.Warn("Task has no schedule, skipping", "task", name)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(def.Schedule, false),
			gocron.NewTask(func() {
				s.log.Debug("Running scheduled task", "task", name)
				if err := def.Run(ctx); err != nil {
					s.log.Error("Scheduled task failed", "task", name, "error", err)
				}
			}),
			gocron.WithName(name),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule task %q: %w", name, err)
		}
		s.log.Info("Scheduled task", "task", name, "cron", def.Schedule)
	}

	s.scheduler.Start()
	<-ctx.Done()
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
