package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atomisadev/karma-app/internal/classifier"
	"github.com/atomisadev/karma-app/internal/config"
	"github.com/atomisadev/karma-app/internal/jobs"
	"github.com/atomisadev/karma-app/internal/jobs/inmemory"
	"github.com/atomisadev/karma-app/internal/karma"
	"github.com/atomisadev/karma-app/internal/ledger"
	"github.com/atomisadev/karma-app/internal/logger"
	"github.com/atomisadev/karma-app/internal/metrics"
	"github.com/atomisadev/karma-app/internal/plaidsync"
	"github.com/atomisadev/karma-app/internal/store/mongo"
)

func main() {
	cfg := config.Load()
	log := logger.New()
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// In production, this would be replaced with a hosted queue.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 4).WithStore(jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
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

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}
