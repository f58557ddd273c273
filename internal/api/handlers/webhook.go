package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/atomisadev/karma-app/internal/api/middleware"
	"github.com/atomisadev/karma-app/internal/jobs"
	"github.com/atomisadev/karma-app/internal/store"
)

// WebhookHandler receives aggregator webhooks and turns them into
// sync jobs.
type WebhookHandler struct {
	users     store.Users
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(users store.Users, publisher jobs.Publisher, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		users:     users,
		publisher: publisher,
		log:       log,
	}
}

// PlaidWebhook handles POST /webhook/plaid
//
// Delivery is at-least-once upstream, so the only work done inline is
// resolving the item owner and enqueueing a sync job. The sync itself
// is idempotent.
func (h *WebhookHandler) PlaidWebhook(w http.ResponseWriter, r *http.Request) {
	var event struct {
		WebhookType string `json:"webhook_type"`
		WebhookCode string `json:"webhook_code"`
		ItemID      string `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil || event.ItemID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if event.WebhookType != "TRANSACTIONS" {
		middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true, "ignored": true})
		return
	}

	user, err := h.users.GetByItemID(r.Context(), event.ItemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Unknown items are acknowledged so the aggregator stops
			// retrying.
			middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true, "unknownItem": true})
			return
		}
		h.log.Error().Err(err).Str("item_id", event.ItemID).Msg("Failed to resolve webhook item")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.log.Info().
		Str("webhook_code", event.WebhookCode).
		Str("user_id", user.UserID).
		Msg("Transactions webhook received")

	switch event.WebhookCode {
	case "SYNC_UPDATES_AVAILABLE", "INITIAL_UPDATE", "HISTORICAL_UPDATE", "DEFAULT_UPDATE", "TRANSACTIONS_REMOVED":
		job := &jobs.SyncJob{
			UserID:  user.UserID,
			ItemID:  event.ItemID,
			Trigger: event.WebhookCode,
		}
		if err := h.publisher.PublishSync(r.Context(), job); err != nil {
			h.log.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to enqueue sync job")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
			return
		}
		h.log.Info().Str("job_id", job.JobID).Str("user_id", user.UserID).Msg("Sync job enqueued")
	default:
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
