package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/kryli/TgAnalyzer/internal/config"
	"github.com/kryli/TgAnalyzer/internal/session"
)

// newTestBot returns a bot instance talking to a stubbed API server so
// handlers can run without the real Telegram backend.
func newTestBot(t *testing.T) *bot.Bot {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":42,"type":"private"}}}`))
	}))
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test-token", bot.WithSkipGetMe(), bot.WithServerURL(srv.URL))
	if err != nil {
		t.Fatalf("creating test bot: %v", err)
	}
	return b
}

func TestStartHandlerResetsSessionByUserID(t *testing.T) {
	t.Parallel()

	sessions := session.NewManager()
	const userID, chatID = int64(7), int64(42)

	// Sessions are keyed by user ID; the entry under the chat ID stands in
	// for another user and must survive this user's /start.
	sessions.Set(userID, session.State{Status: session.StatusReady})
	sessions.Set(chatID, session.State{Status: session.StatusReady})

	deps := HandlerDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   &config.Config{},
		Sessions: sessions,
	}
	update := &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   1,
			From: &models.User{ID: userID},
			Chat: models.Chat{ID: chatID, Type: models.ChatTypePrivate},
			Text: "/start",
		},
	}

	NewStartHandler(deps)(context.Background(), newTestBot(t), update)

	if got := sessions.Get(userID).Status; got != session.StatusNoChat {
		t.Errorf("sender's session status = %v, want %v", got, session.StatusNoChat)
	}
	if got := sessions.Get(chatID).Status; got != session.StatusReady {
		t.Errorf("unrelated session was reset, status = %v, want %v", got, session.StatusReady)
	}
}
