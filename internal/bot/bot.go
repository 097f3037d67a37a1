// Package bot wires the Telegram listener and the background scheduler into
// a single supervised service.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"
)

// Service supervises the Telegram long-poll loop and the task scheduler.
type Service struct {
	tg        *tgbot.Bot
	scheduler *Scheduler
	log       *slog.Logger
}

// NewService assembles a Service from an already configured bot and scheduler.
func NewService(tg *tgbot.Bot, scheduler *Scheduler, logger *slog.Logger) *Service {
	return &Service{
		tg:        tg,
		scheduler: scheduler,
		log:       logger.With("component", "bot_service"),
	}
}

// Run starts the scheduler and the Telegram update loop and blocks until the
// context is cancelled or one of the components fails.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.scheduler.Start(gctx); err != nil {
			return fmt.Errorf("scheduler failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.log.Info("Starting Telegram update loop")
		s.tg.Start(gctx)
		s.log.Info("Telegram update loop stopped")
		return nil
	})

	err := g.Wait()
	if stopErr := s.scheduler.Stop(); stopErr != nil {
		s.log.Error("Failed to stop scheduler cleanly", "error", stopErr)
	}
	return err
}
