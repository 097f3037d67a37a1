package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/kryli/TgAnalyzer/internal/cache"
	"github.com/kryli/TgAnalyzer/internal/database"
	"github.com/kryli/TgAnalyzer/internal/ingest"
	"github.com/kryli/TgAnalyzer/internal/pipeline"
	"github.com/kryli/TgAnalyzer/internal/session"
	"github.com/kryli/TgAnalyzer/internal/text"
)

// Menu button labels shown after an analysis completes.
const (
	ButtonUserActivity    = "📊 User Activity"
	ButtonMessageActivity = "📝 Message Activity"
	ButtonRestart         = "🔄 Restart Analysis"
)

const runDirTimestamp = "20060102_150405"

type analyzeHandler struct {
	deps HandlerDeps
}

// NewAnalyzeHandler creates the default message handler. In group chats it
// archives messages for later analysis; in private chats it drives the
// link-submit / report / menu conversation.
func NewAnalyzeHandler(deps HandlerDeps) bot.HandlerFunc {
	return analyzeHandler{deps}.Handle
}

func (h analyzeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "analyze")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message or sender", "update_id", update.ID)
		return
	}

	if msg.Chat.Type == models.ChatTypeGroup || msg.Chat.Type == models.ChatTypeSupergroup {
		h.archiveGroupMessage(ctx, msg)
		return
	}
	if msg.Chat.Type != models.ChatTypePrivate {
		return
	}

	input := strings.TrimSpace(msg.Text)
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch {
	case input == ButtonUserActivity:
		h.sendChart(ctx, b, chatID, userID, pipeline.ArtifactUserActivity)
	case input == ButtonMessageActivity:
		h.sendChart(ctx, b, chatID, userID, pipeline.ArtifactMessageActivity)
	case input == ButtonRestart:
		h.restart(ctx, b, chatID, userID)
	case isChatLink(input):
		h.runAnalysis(ctx, b, chatID, userID, input)
	default:
		h.reply(ctx, b, chatID, h.deps.Config.Messages.InvalidLink)
	}
}

// isChatLink reports whether the input looks like a chat reference the bot
// can resolve: a t.me URL or an @username.
func isChatLink(s string) bool {
	return strings.HasPrefix(s, "https://t.me/") || strings.HasPrefix(s, "@")
}

// archiveGroupMessage records a group message in the archive store so it can
// later serve as corpus material.
func (h analyzeHandler) archiveGroupMessage(ctx context.Context, msg *models.Message) {
	log := h.deps.Logger.With("handler", "analyze")

	content := msg.Text
	if content == "" {
		content = msg.Caption
	}
	if strings.TrimSpace(content) == "" {
		return
	}

	senderName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	record := &database.ArchivedMessage{
		ChatID:         msg.Chat.ID,
		ChatUsername:   msg.Chat.Username,
		MessageID:      int64(msg.ID),
		SenderID:       msg.From.ID,
		SenderUsername: msg.From.Username,
		SenderName:     senderName,
		SentAt:         sql.NullTime{Time: time.Unix(int64(msg.Date), 0).UTC(), Valid: msg.Date != 0},
		Content:        content,
	}
	if err := h.deps.Store.SaveMessage(ctx, record); err != nil {
		log.ErrorContext(ctx, "Failed to archive group message", "error", err, "chat_id", msg.Chat.ID, "message_id", msg.ID)
	}
}

// runAnalysis resolves the submitted link through the result cache, running
// the full pipeline on a miss, then delivers the report and menu.
func (h analyzeHandler) runAnalysis(ctx context.Context, b *bot.Bot, chatID, userID int64, link string) {
	log := h.deps.Logger.With("handler", "analyze")
	key := ingest.NormalizeChatKey(link)

	current := h.deps.Sessions.Get(userID)
	if current.Status == session.StatusProcessing {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.Processing)
		return
	}

	h.reply(ctx, b, chatID, h.deps.Config.Messages.Processing)
	h.deps.Sessions.Set(userID, session.State{Status: session.StatusProcessing})

	entry, err := h.deps.Cache.GetOrRun(ctx, key, func(ctx context.Context) (*cache.Entry, error) {
		return h.executeRun(ctx, key)
	})
	if err != nil {
		log.ErrorContext(ctx, "Analysis failed", "error", err, "chat_key", key, "user_id", userID)
		h.deps.Sessions.Reset(userID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	h.deliverReport(ctx, b, chatID, entry)
	h.deps.Sessions.Set(userID, session.State{Status: session.StatusReady, ChartPaths: entry.ChartPaths})
	h.sendMenu(ctx, b, chatID)
}

// executeRun fetches a fresh corpus and runs the pipeline over it, producing
// a cache entry for the chat key.
func (h analyzeHandler) executeRun(ctx context.Context, key string) (*cache.Entry, error) {
	corpusPath, err := h.deps.Fetcher.Fetch(ctx, key, h.deps.Config.Pipeline.FetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching corpus for %q: %w", key, err)
	}

	runDir := filepath.Join(h.deps.Config.Pipeline.DataDir, "results",
		fmt.Sprintf("%s_%s", key, time.Now().Format(runDirTimestamp)))
	result, err := h.deps.Pipeline.Run(ctx, corpusPath, runDir)
	if err != nil {
		return nil, err
	}

	reportPath := result.ReportPath
	if result.Manifest.Present(pipeline.ArtifactNarrative) {
		reportPath = result.Manifest.PathOf(pipeline.ArtifactNarrative)
	}

	return &cache.Entry{
		ReportPath: reportPath,
		ChartPaths: result.ChartPaths,
		CreatedAt:  time.Now(),
	}, nil
}

// deliverReport reads the stored report and sends it as MarkdownV2 chunks.
func (h analyzeHandler) deliverReport(ctx context.Context, b *bot.Bot, chatID int64, entry *cache.Entry) {
	log := h.deps.Logger.With("handler", "analyze")

	raw, err := os.ReadFile(entry.ReportPath)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read stored report", "error", err, "path", entry.ReportPath)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	formatted := text.FormatReport(string(raw))
	for _, chunk := range text.Chunk(formatted, text.MaxMessageLength) {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      chunk,
			ParseMode: models.ParseModeMarkdown,
		})
		if err != nil {
			log.WarnContext(ctx, "MarkdownV2 send failed, retrying as plain text", "error", err, "chat_id", chatID)
			h.reply(ctx, b, chatID, chunk)
		}
	}
}

// sendMenu shows the post-analysis reply keyboard.
func (h analyzeHandler) sendMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	keyboard := &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: ButtonUserActivity}, {Text: ButtonMessageActivity}},
			{{Text: ButtonRestart}},
		},
		ResizeKeyboard: true,
	}
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.Messages.ChooseOption,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send menu", "error", err, "chat_id", chatID)
	}
}

// sendChart uploads one of the session's chart artifacts. Menu actions are
// honored only when results are ready.
func (h analyzeHandler) sendChart(ctx context.Context, b *bot.Bot, chatID, userID int64, artifact string) {
	log := h.deps.Logger.With("handler", "analyze")

	state := h.deps.Sessions.Get(userID)
	if state.Status != session.StatusReady {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.AskForLink)
		return
	}

	path, ok := state.ChartPaths[artifact]
	if !ok {
		h.reply(ctx, b, chatID, h.deps.Config.Messages.ChartMissing)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open chart file", "error", err, "path", path)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.ChartMissing)
		return
	}
	defer f.Close()

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo:  &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send chart photo", "error", err, "chat_id", chatID)
		h.reply(ctx, b, chatID, h.deps.Config.Messages.GeneralError)
	}
}

// restart clears the user's session and removes the reply keyboard.
func (h analyzeHandler) restart(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	h.deps.Sessions.Reset(userID)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.Messages.RestartDone,
		ReplyMarkup: &models.ReplyKeyboardRemove{RemoveKeyboard: true},
	})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send restart confirmation", "error", err, "chat_id", chatID)
	}
}

func (h analyzeHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, message string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: message})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
