package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the archive operations used by the rest of the application.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage records a group message. Re-delivered messages
	// (same chat and message id) are ignored.
	SaveMessage(ctx context.Context, msg *ArchivedMessage) error

	// RecentMessagesByChatKey returns up to limit most recent messages for
	// a chat username (without @ or link prefix), oldest first.
	RecentMessagesByChatKey(ctx context.Context, chatKey string, limit int) ([]ArchivedMessage, error)

	// RunMaintenance performs VACUUM and ANALYZE.
	RunMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{db: db, logger: logger.With("component", "store")}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveMessage(ctx context.Context, msg *ArchivedMessage) error {
	if msg == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if msg.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if strings.TrimSpace(msg.Content) == "" {
		return fmt.Errorf("message must have non-empty content")
	}
	msg.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO archived_messages
            (created_at, chat_id, chat_username, message_id, sender_id, sender_username, sender_name, sent_at, content)
        VALUES
            (:created_at, :chat_id, :chat_username, :message_id, :sender_id, :sender_username, :sender_name, :sent_at, :content)
        ON CONFLICT (chat_id, message_id) DO NOTHING;
    `
	if _, err := s.db.NamedExecContext(ctx, query, msg); err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "chat_id", msg.ChatID, "error", err)
		return fmt.Errorf("failed to save message (chat %d): %w", msg.ChatID, err)
	}
	return nil
}

func (s *sqlxStore) RecentMessagesByChatKey(ctx context.Context, chatKey string, limit int) ([]ArchivedMessage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	// Newest first for the LIMIT, then reversed so callers get corpus order.
	query := `
        SELECT * FROM archived_messages
        WHERE chat_username = ? COLLATE NOCASE
        ORDER BY sent_at DESC, message_id DESC
        LIMIT ?;
    `
	var rows []ArchivedMessage
	if err := s.db.SelectContext(ctx, &rows, query, chatKey, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching messages", "chat_key", chatKey, "error", err)
		return nil, fmt.Errorf("failed to fetch messages for %q: %w", chatKey, err)
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}
