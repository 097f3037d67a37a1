package database

import (
	"database/sql"
	"time"
)

// ArchivedMessage is one group-chat message recorded by the bot. The archive
// is the source that analysis corpora are drawn from.
type ArchivedMessage struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID         int64        `db:"chat_id"`
	ChatUsername   string       `db:"chat_username"`
	MessageID      int64        `db:"message_id"`
	SenderID       int64        `db:"sender_id"`
	SenderUsername string       `db:"sender_username"`
	SenderName     string       `db:"sender_name"`
	SentAt         sql.NullTime `db:"sent_at"`
	Content        string       `db:"content"`
}
