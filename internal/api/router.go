// Package api wires handlers into the HTTP router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/atomisadev/karma-app/internal/api/handlers"
	"github.com/atomisadev/karma-app/internal/api/middleware"
	"github.com/atomisadev/karma-app/internal/auth"
	"github.com/atomisadev/karma-app/internal/metrics"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Plaid   *handlers.PlaidHandler
	Users   *handlers.UsersHandler
	Webhook *handlers.WebhookHandler
	Jobs    *handlers.JobsHandler
	Insight *handlers.InsightHandler
}

// NewRouter builds the full route tree. Webhooks and health stay
// outside the auth boundary.
func NewRouter(h Handlers, tokens *auth.TokenManager, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Post("/webhook/plaid", h.Webhook.PlaidWebhook)
	r.Post("/api/auth/register", h.Users.Register)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokens))

		r.Route("/api/plaid", func(r chi.Router) {
			r.Post("/createLinkToken", h.Plaid.CreateLinkToken)
			r.Post("/exchangePublicToken", h.Plaid.ExchangePublicToken)
			r.Get("/transactions", h.Plaid.ListTransactions)
			r.Get("/status", h.Plaid.Status)
			r.Post("/sync", h.Plaid.Sync)
			r.Post("/sandbox/createTransactions", h.Plaid.SandboxCreateTransactions)
			r.Post("/sandbox/fireWebhook", h.Plaid.SandboxFireWebhook)
		})

		r.Route("/api/user", func(r chi.Router) {
			r.Get("/me", h.Users.Me)
			r.Patch("/budgets", h.Users.UpdateBudgets)
			r.Post("/onboarding/complete", h.Users.CompleteOnboarding)
			r.Post("/useSeedTransactions", h.Users.UseSeedTransactions)
		})

		r.Route("/api/jobs", func(r chi.Router) {
			r.Get("/", h.Jobs.ListJobs)
			r.Get("/{jobID}", h.Jobs.GetJob)
		})

		r.Post("/api/insight", h.Insight.GetInsight)
	})

	return r
}
