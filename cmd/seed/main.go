package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/atomisadev/karma-app/internal/config"
	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/logger"
	"github.com/atomisadev/karma-app/internal/seed"
	"github.com/atomisadev/karma-app/internal/store"
	"github.com/atomisadev/karma-app/internal/store/mongo"
)

// Seeds synthetic transactions for a user, creating the user document
// first when it does not exist yet.
func main() {
	var (
		userID  = flag.String("user", "", "user id to seed transactions for")
		email   = flag.String("email", "", "email for the user document when it has to be created")
		count   = flag.Int("count", 0, "number of transactions (0 picks a random count)")
		replace = flag.Bool("replace", false, "delete existing transactions before seeding")
	)
	flag.Parse()

	log := logger.New()

	if *userID == "" {
		log.Fatal().Msg("-user is required")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	db, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer db.Close(context.Background())

	users := db.Users()
	if _, err := users.Get(ctx, *userID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Fatal().Err(err).Msg("Failed to load user")
		}
		user := &domain.UserState{
			UserID:     *userID,
			Email:      *email,
			KarmaScore: domain.KarmaDefault,
			Budgets:    map[string]float64{},
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatal().Err(err).Msg("Failed to create user")
		}
		log.Info().Str("user_id", *userID).Msg("User created")
	}

	seeder, err := seed.NewGenerator(db.Transactions())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load merchant catalog")
	}

	var res seed.Result
	if *replace {
		res, err = seeder.Replace(ctx, *userID, *count)
	} else {
		res, err = seeder.SeedIfNone(ctx, *userID)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	if res.Message != "" {
		log.Info().Str("user_id", *userID).Msg(res.Message)
	}
	log.Info().Str("user_id", *userID).Int("seeded", res.Seeded).Msg("Done")
}
