package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atomisadev/karma-app/internal/api"
	"github.com/atomisadev/karma-app/internal/api/handlers"
	"github.com/atomisadev/karma-app/internal/auth"
	"github.com/atomisadev/karma-app/internal/classifier"
	"github.com/atomisadev/karma-app/internal/config"
	"github.com/atomisadev/karma-app/internal/insight"
	"github.com/atomisadev/karma-app/internal/jobs"
	"github.com/atomisadev/karma-app/internal/jobs/inmemory"
	"github.com/atomisadev/karma-app/internal/karma"
	"github.com/atomisadev/karma-app/internal/ledger"
	"github.com/atomisadev/karma-app/internal/logger"
	"github.com/atomisadev/karma-app/internal/metrics"
	"github.com/atomisadev/karma-app/internal/plaidsync"
	"github.com/atomisadev/karma-app/internal/seed"
	"github.com/atomisadev/karma-app/internal/store/mongo"
)

const tokenTTL = 24 * time.Hour

func main() {
	cfg := config.Load()
	log := logger.New()
	metrics.Init()

	ctx := context.Background()

	db, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer db.Close(context.Background())

	gateway, err := classifier.NewGeminiGateway(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create classifier gateway")
	}

	users := db.Users()
	transactions := db.Transactions()

	karmaEngine := karma.NewEngine(users, transactions, gateway)
	bank := ledger.NewPlaidLedger(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
	syncEngine := plaidsync.NewEngine(bank, users, transactions, karmaEngine)

	seeder, err := seed.NewGenerator(transactions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load merchant catalog")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, tokenTTL)
	advisor := insight.NewAdvisor(gateway)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 4).WithStore(jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		syncJob, ok := job.(*jobs.SyncJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		ctx = logger.WithContext(ctx, log)
		log.Info().
			Str("job_id", syncJob.JobID).
			Str("user_id", syncJob.UserID).
			Str("trigger", syncJob.Trigger).
			Msg("Processing sync job")

		if err := syncEngine.Synchronize(ctx, syncJob.UserID); err != nil {
			log.Error().
				Err(err).
				Str("job_id", syncJob.JobID).
				Str("user_id", syncJob.UserID).
				Msg("Sync job failed")
			return err
		}

		log.Info().Str("job_id", syncJob.JobID).Str("user_id", syncJob.UserID).Msg("Sync job completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	h := api.Handlers{
		Plaid:   handlers.NewPlaidHandler(syncEngine, users, transactions, karmaEngine, log),
		Users:   handlers.NewUsersHandler(users, seeder, syncEngine, tokens, log),
		Webhook: handlers.NewWebhookHandler(users, jobQueue, log),
		Jobs:    handlers.NewJobsHandler(jobStore, log),
		Insight: handlers.NewInsightHandler(advisor, log),
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.NewRouter(h, tokens, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
