package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	pkgerrors "bettersaved/pkg/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	maxUpdateBytes    = 1 << 20
)

// UpdateDispatcher handles one decoded chat update
type UpdateDispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update) error
}

// WebhookHandler receives chat updates pushed by Telegram
type WebhookHandler struct {
	dispatcher UpdateDispatcher
	secret     string
	errs       *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewWebhookHandler creates a new webhook handler. An empty secret disables the header check.
func NewWebhookHandler(dispatcher UpdateDispatcher, secret string, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		dispatcher: dispatcher,
		secret:     secret,
		errs:       errs,
		logger:     logger,
	}
}

// Receive handles POST /webhook/telegram.
// Processing failures still answer 200 so Telegram does not redeliver the update.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.errs.HandleStatus(w, r, http.StatusUnauthorized, "Invalid webhook secret")
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		h.errs.HandleStatus(w, r, http.StatusBadRequest, "Invalid update payload")
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), update); err != nil {
		h.logger.Error("Failed to process update",
			zap.Int("updateID", update.UpdateID),
			zap.Error(err),
		)
	}
	w.WriteHeader(http.StatusOK)
}
