package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tversu/timing-bot/internal/infrastructure/external/telegram"
	"github.com/tversu/timing-bot/pkg/logger"
)

// SecretTokenHeader carries the secret passed to setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxUpdateSize bounds a single webhook payload.
const maxUpdateSize = 1 << 20

// UpdateFunc processes one decoded update.
type UpdateFunc func(ctx context.Context, update *telegram.Update) error

// TelegramWebhook receives updates pushed by Telegram.
type TelegramWebhook struct {
	secret string
	handle UpdateFunc
	logger *logger.Logger
}

// NewTelegramWebhook creates the webhook endpoint. An empty secret accepts
// every request.
func NewTelegramWebhook(secret string, handle UpdateFunc, log *logger.Logger) *TelegramWebhook {
	if log == nil {
		log = logger.Nop()
	}
	return &TelegramWebhook{secret: secret, handle: handle, logger: log}
}

// ServeHTTP implements http.Handler.
func (h *TelegramWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
	}

	var update telegram.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateSize)).Decode(&update); err != nil {
		h.logger.Warn("malformed webhook payload", logger.Err(err))
		http.Error(w, `{"error":"invalid_update"}`, http.StatusBadRequest)
		return
	}

	// Handler errors are already reported to the user and logged by the bot.
	// Telegram would only redeliver the same update, so the answer stays 200.
	if err := h.handle(r.Context(), &update); err != nil {
		h.logger.Debug("webhook update failed",
			logger.Int64("update_id", update.UpdateID),
			logger.Err(err),
		)
	}
	w.WriteHeader(http.StatusOK)
}
