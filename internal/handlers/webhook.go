package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lembrabot/lembrabot/internal/logger"
	"github.com/lembrabot/lembrabot/internal/services/telegram"
	"go.uber.org/zap"
)

// CommandRouter turns a chat message into a reply. Implemented by the
// bot router.
type CommandRouter interface {
	HandleMessage(ctx context.Context, chatID int64, text string) (string, error)
}

// ReplySender sends reply text back to a chat. Implemented by the
// Telegram client.
type ReplySender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// WebhookHandler receives Telegram update pushes.
type WebhookHandler struct {
	router CommandRouter
	sender ReplySender
	logger *zap.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(router CommandRouter, sender ReplySender, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		router: router,
		sender: sender,
		logger: log,
	}
}

// HandleUpdate processes one webhook push. Telegram retries deliveries
// that do not answer 200, so processing errors are logged and swallowed
// rather than returned: a bad message must not be redelivered forever.
func (h *WebhookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid update payload")
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		respondJSON(w, http.StatusOK, map[string]any{"handled": false})
		return
	}

	chatID := update.Message.Chat.ID
	reply, err := h.router.HandleMessage(r.Context(), chatID, update.Message.Text)
	if err != nil {
		h.logger.Error("webhook_command_failed",
			zap.Int64("chat_id", chatID),
			zap.String("text", logger.SanitizeMessageText(update.Message.Text)),
			zap.Error(err))
		respondJSON(w, http.StatusOK, map[string]any{"handled": false})
		return
	}

	if reply != "" {
		if err := h.sender.SendMessage(r.Context(), chatID, reply); err != nil {
			h.logger.Error("webhook_reply_failed",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"handled": reply != ""})
}
