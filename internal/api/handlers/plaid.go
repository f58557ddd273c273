package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atomisadev/karma-app/internal/api/middleware"
	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/plaidsync"
	"github.com/atomisadev/karma-app/internal/store"
)

// PlaidHandler handles bank link and transaction endpoints.
type PlaidHandler struct {
	sync         *plaidsync.Engine
	users        store.Users
	transactions store.Transactions
	sink         plaidsync.TransactionSink
	log          zerolog.Logger
}

// NewPlaidHandler creates a new plaid handler.
func NewPlaidHandler(sync *plaidsync.Engine, users store.Users, transactions store.Transactions, sink plaidsync.TransactionSink, log zerolog.Logger) *PlaidHandler {
	return &PlaidHandler{
		sync:         sync,
		users:        users,
		transactions: transactions,
		sink:         sink,
		log:          log,
	}
}

// CreateLinkToken handles POST /api/plaid/createLinkToken
func (h *PlaidHandler) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	token, err := h.sync.CreateLinkToken(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to create link token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create link token")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"linkToken": token})
}

// ExchangePublicToken handles POST /api/plaid/exchangePublicToken
func (h *PlaidHandler) ExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req struct {
		PublicToken string `json:"publicToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicToken == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	itemID, err := h.sync.Link(r.Context(), userID, req.PublicToken)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to exchange public token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to exchange public token")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"itemId": itemID,
	})
}

// ListTransactions handles GET /api/plaid/transactions
func (h *PlaidHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	query := r.URL.Query()
	var start, end civil.Date
	var err error

	if s := query.Get("startDate"); s != "" {
		start, err = civil.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid startDate format")
			return
		}
	}
	if s := query.Get("endDate"); s != "" {
		end, err = civil.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid endDate format")
			return
		}
	}

	transactions, err := h.transactions.ListRange(r.Context(), userID, start, end)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"transactions": transactions})
}

// Status handles GET /api/plaid/status
func (h *PlaidHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"linked": user.Linked(),
		"itemId": user.ItemID,
	})
}

// Sync handles POST /api/plaid/sync: an explicit on-demand sync.
func (h *PlaidHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	if err := h.sync.Synchronize(r.Context(), userID); err != nil {
		if errors.Is(err, plaidsync.ErrNotLinked) {
			middleware.WriteError(w, http.StatusConflict, "No linked bank account")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Sync failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Sync failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SandboxCreateTransactions handles POST /api/plaid/sandbox/createTransactions
// Manual transactions bypass the aggregator but still flow through the
// same path new synced transactions take.
func (h *PlaidHandler) SandboxCreateTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req struct {
		Transactions []struct {
			Description     string  `json:"description"`
			Amount          float64 `json:"amount"`
			DatePosted      string  `json:"datePosted"`
			ISOCurrencyCode string  `json:"isoCurrencyCode"`
		} `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txs := make([]domain.Transaction, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		date, err := civil.ParseDate(t.DatePosted)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid datePosted %q", t.DatePosted))
			return
		}
		currency := t.ISOCurrencyCode
		if currency == "" {
			currency = "USD"
		}
		txs = append(txs, domain.Transaction{
			ExternalID:     fmt.Sprintf("manual-tx-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
			AccountID:      "manual-account",
			UserID:         userID,
			Amount:         t.Amount,
			Date:           date,
			Name:           t.Description,
			PaymentChannel: domain.ChannelManual,
			Category:       []string{"Manual", "Custom"},
			CurrencyCode:   currency,
			Status:         domain.StatusCleared,
		})
	}

	if err := h.transactions.InsertMany(r.Context(), txs); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to insert manual transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	for i := range txs {
		if err := h.sink.OnNewTransaction(r.Context(), userID, &txs[i]); err != nil {
			h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to evaluate manual transaction")
		}
	}

	h.log.Info().Int("count", len(txs)).Str("user_id", userID).Msg("Manual transactions created")
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SandboxFireWebhook handles POST /api/plaid/sandbox/fireWebhook
func (h *PlaidHandler) SandboxFireWebhook(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	if err := h.sync.FireSandboxWebhook(r.Context(), userID); err != nil {
		if errors.Is(err, plaidsync.ErrNotLinked) {
			middleware.WriteError(w, http.StatusConflict, "No linked bank account")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to fire sandbox webhook")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to fire sandbox webhook")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
