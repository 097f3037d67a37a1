// Package corpus defines the message collection that a single analysis run
// operates on, together with its JSON persistence format. The on-disk layout
// is a plain array of message objects and is shared with the raw files the
// ingestion side writes.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrIngestion marks a hard corpus-loading failure. The pipeline does not
// start when the corpus cannot be loaded or is empty.
var ErrIngestion = errors.New("corpus ingestion failed")

// Message is a single chat message as persisted in a corpus file.
// Timestamp is nullable; messages without a parseable timestamp are kept for
// text analysis but excluded from activity-by-date aggregation.
type Message struct {
	ID             int64      `json:"id"`
	Date           *time.Time `json:"date"`
	SenderID       int64      `json:"sender_id"`
	SenderUsername string     `json:"sender_username,omitempty"`
	SenderName     string     `json:"sender_name"`
	Text           string     `json:"text"`
}

// dateLayouts are tried in order when decoding a message timestamp.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON decodes a message, treating the date leniently: a missing,
// null, or unparseable date becomes nil instead of failing the whole corpus.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		Date json.RawMessage `json:"date"`
		*alias
	}{alias: (*alias)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Date = parseMessageDate(aux.Date)
	return nil
}

func parseMessageDate(raw json.RawMessage) *time.Time {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil || s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Load reads and validates a corpus file. It returns ErrIngestion (wrapped)
// when the file is missing, unreadable, not a JSON array, or empty. Partial
// corpora are never returned.
func Load(path string) ([]Message, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIngestion, path, err)
	}

	var messages []Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrIngestion, path, err)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: %s contains no messages", ErrIngestion, path)
	}
	return messages, nil
}

// Save writes messages as an indented JSON array, matching the raw files
// produced at download time.
func Save(messages []Message, path string) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing corpus %s: %w", path, err)
	}
	return nil
}

// Texts returns the trimmed text of every message with non-empty text,
// preserving corpus order. Only these texts participate in analysis.
func Texts(messages []Message) []string {
	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		if t := strings.TrimSpace(m.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}
