package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/atomisadev/karma-app/internal/api/middleware"
	"github.com/atomisadev/karma-app/internal/classifier"
	"github.com/atomisadev/karma-app/internal/insight"
)

// InsightHandler handles model-backed advice endpoints.
type InsightHandler struct {
	advisor *insight.Advisor
	log     zerolog.Logger
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(advisor *insight.Advisor, log zerolog.Logger) *InsightHandler {
	return &InsightHandler{
		advisor: advisor,
		log:     log,
	}
}

// GetInsight handles POST /api/insight
func (h *InsightHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	result, err := h.advisor.Ask(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, classifier.ErrUnavailable) {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Insight service unavailable")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate insight")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate financial insight")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}
