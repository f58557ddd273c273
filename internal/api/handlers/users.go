package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atomisadev/karma-app/internal/api/middleware"
	"github.com/atomisadev/karma-app/internal/auth"
	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/plaidsync"
	"github.com/atomisadev/karma-app/internal/seed"
	"github.com/atomisadev/karma-app/internal/store"
)

// UsersHandler handles account and profile endpoints.
type UsersHandler struct {
	users  store.Users
	seeder *seed.Generator
	sync   *plaidsync.Engine
	tokens *auth.TokenManager
	log    zerolog.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users store.Users, seeder *seed.Generator, sync *plaidsync.Engine, tokens *auth.TokenManager, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{
		users:  users,
		seeder: seeder,
		sync:   sync,
		tokens: tokens,
		log:    log,
	}
}

// Register handles POST /api/auth/register
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := &domain.UserState{
		UserID:     uuid.NewString(),
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		KarmaScore: domain.KarmaDefault,
		Budgets:    map[string]float64{},
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		h.log.Error().Err(err).Str("email", req.Email).Msg("Failed to create user")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, exp, err := h.tokens.Generate(user.UserID, user.Email)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to issue token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	h.log.Info().Str("user_id", user.UserID).Msg("User registered")
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"userId":    user.UserID,
		"token":     token,
		"expiresAt": exp.Format(time.RFC3339),
	})
}

// Me handles GET /api/user/me
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
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

	budgets := user.Budgets
	if budgets == nil {
		budgets = map[string]float64{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"userId":              user.UserID,
		"email":               user.Email,
		"firstName":           user.FirstName,
		"lastName":            user.LastName,
		"onboardingCompleted": user.OnboardingCompleted,
		"budgets":             budgets,
		"karmaScore":          user.KarmaScore,
		"activeChallenge":     user.ActiveChallenge,
	})
}

// UpdateBudgets handles PATCH /api/user/budgets
func (h *UsersHandler) UpdateBudgets(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req struct {
		Budgets map[string]float64 `json:"budgets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Budgets == nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.users.SetBudgets(r.Context(), userID, req.Budgets); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to update budgets")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update budgets")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// CompleteOnboarding handles POST /api/user/onboarding/complete
func (h *UsersHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	// Body is optional; budgets may be set in the same call.
	var req struct {
		Budgets map[string]float64 `json:"budgets"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.Budgets != nil {
		if err := h.users.SetBudgets(r.Context(), userID, req.Budgets); err != nil {
			h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to set budgets")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to set budgets")
			return
		}
	}

	if err := h.users.SetOnboardingCompleted(r.Context(), userID); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to complete onboarding")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to complete onboarding")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// UseSeedTransactions handles POST /api/user/useSeedTransactions
//
// Drops the bank link along with every synced transaction, then seeds
// a fresh synthetic batch.
func (h *UsersHandler) UseSeedTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	if err := h.sync.Disconnect(r.Context(), userID); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to disconnect")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	res, err := h.seeder.Replace(r.Context(), userID, 0)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to seed transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"seeded": res.Seeded,
	})
}
