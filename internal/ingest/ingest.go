// Package ingest turns a chat link or handle into a persisted corpus file
// for one analysis run. The production fetcher draws on the message archive
// the bot builds while it is a member of the group.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kryli/TgAnalyzer/internal/corpus"
	"github.com/kryli/TgAnalyzer/internal/database"
)

// Fetcher retrieves a bounded message sample for a chat and persists it as a
// corpus file, returning the file path.
type Fetcher interface {
	Fetch(ctx context.Context, chatKey string, limit int) (string, error)
}

// NormalizeChatKey canonicalizes a user-supplied chat link or handle:
// "https://t.me/MyGroup", "@MyGroup", and "mygroup" all map to "mygroup".
func NormalizeChatKey(raw string) string {
	key := strings.TrimSpace(raw)
	key = strings.TrimPrefix(key, "https://t.me/")
	key = strings.TrimPrefix(key, "http://t.me/")
	key = strings.TrimPrefix(key, "t.me/")
	key = strings.TrimPrefix(key, "@")
	key = strings.TrimSuffix(key, "/")
	return strings.ToLower(key)
}

// ArchiveFetcher reads recent messages for a chat from the archive store and
// writes them as a timestamped raw corpus file.
type ArchiveFetcher struct {
	store  database.Store
	rawDir string
	logger *slog.Logger
}

// NewArchiveFetcher creates a fetcher writing corpus files under
// <dataDir>/raw.
func NewArchiveFetcher(store database.Store, dataDir string, logger *slog.Logger) *ArchiveFetcher {
	return &ArchiveFetcher{
		store:  store,
		rawDir: filepath.Join(dataDir, "raw"),
		logger: logger.With("component", "archive_fetcher"),
	}
}

// Fetch pulls up to limit messages for the chat and persists them. An empty
// result is an ingestion failure: the pipeline has nothing to run on.
func (f *ArchiveFetcher) Fetch(ctx context.Context, chatKey string, limit int) (string, error) {
	key := NormalizeChatKey(chatKey)
	rows, err := f.store.RecentMessagesByChatKey(ctx, key, limit)
	if err != nil {
		return "", fmt.Errorf("%w: %v", corpus.ErrIngestion, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: no archived messages for chat %q", corpus.ErrIngestion, key)
	}

	messages := make([]corpus.Message, 0, len(rows))
	for _, r := range rows {
		text := strings.TrimSpace(r.Content)
		if text == "" {
			continue
		}
		m := corpus.Message{
			ID:             r.MessageID,
			SenderID:       r.SenderID,
			SenderUsername: r.SenderUsername,
			SenderName:     r.SenderName,
			Text:           text,
		}
		if m.SenderName == "" {
			m.SenderName = "Unknown"
		}
		if r.SentAt.Valid {
			t := r.SentAt.Time
			m.Date = &t
		}
		messages = append(messages, m)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: chat %q has no messages with text", corpus.ErrIngestion, key)
	}

	if err := os.MkdirAll(f.rawDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating raw dir: %v", corpus.ErrIngestion, err)
	}
	path := filepath.Join(f.rawDir, fmt.Sprintf("chat_%s.json", time.Now().Format("20060102_150405")))
	if err := corpus.Save(messages, path); err != nil {
		return "", fmt.Errorf("%w: %v", corpus.ErrIngestion, err)
	}

	f.logger.InfoContext(ctx, "Corpus persisted", "chat_key", key, "messages", len(messages), "path", path)
	return path, nil
}
