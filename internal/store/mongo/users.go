package mongo

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/store"
)

// challengeDoc is the embedded active-challenge sub-document.
type challengeDoc struct {
	Instruction     string `bson:"instruction"`
	CategoryToAvoid string `bson:"category_to_avoid,omitempty"`
	DateSet         string `bson:"date_set"` // YYYY-MM-DD
}

// userDoc is the storage row for one user's state.
type userDoc struct {
	UserID              string             `bson:"user_id"`
	Email               string             `bson:"email,omitempty"`
	FirstName           string             `bson:"first_name,omitempty"`
	LastName            string             `bson:"last_name,omitempty"`
	AccessToken         string             `bson:"access_token,omitempty"`
	ItemID              string             `bson:"item_id,omitempty"`
	SyncCursor          string             `bson:"sync_cursor,omitempty"`
	KarmaScore          int                `bson:"karma_score"`
	ActiveChallenge     *challengeDoc      `bson:"active_challenge,omitempty"`
	Budgets             map[string]float64 `bson:"budgets,omitempty"`
	OnboardingCompleted bool               `bson:"onboarding_completed"`
}

func (d userDoc) toDomain() (*domain.UserState, error) {
	u := &domain.UserState{
		UserID:              d.UserID,
		Email:               d.Email,
		FirstName:           d.FirstName,
		LastName:            d.LastName,
		AccessToken:         d.AccessToken,
		ItemID:              d.ItemID,
		SyncCursor:          d.SyncCursor,
		KarmaScore:          domain.ClampKarma(d.KarmaScore),
		Budgets:             d.Budgets,
		OnboardingCompleted: d.OnboardingCompleted,
	}
	if d.ActiveChallenge != nil {
		dateSet, err := civil.ParseDate(d.ActiveChallenge.DateSet)
		if err != nil {
			return nil, fmt.Errorf("user %s: invalid challenge date %q: %w", d.UserID, d.ActiveChallenge.DateSet, err)
		}
		u.ActiveChallenge = &domain.Challenge{
			Instruction:     d.ActiveChallenge.Instruction,
			CategoryToAvoid: d.ActiveChallenge.CategoryToAvoid,
			DateSet:         dateSet,
		}
	}
	return u, nil
}

// UserRepository implements store.Users on MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

// Get implements store.Users.
func (r *UserRepository) Get(ctx context.Context, userID string) (*domain.UserState, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

// GetByItemID implements store.Users.
func (r *UserRepository) GetByItemID(ctx context.Context, itemID string) (*domain.UserState, error) {
	return r.findOne(ctx, bson.M{"item_id": itemID})
}

// Create implements store.Users.
func (r *UserRepository) Create(ctx context.Context, user *domain.UserState) error {
	score := user.KarmaScore
	if score == 0 {
		score = domain.KarmaDefault
	}
	doc := userDoc{
		UserID:              user.UserID,
		Email:               user.Email,
		FirstName:           user.FirstName,
		LastName:            user.LastName,
		KarmaScore:          domain.ClampKarma(score),
		Budgets:             user.Budgets,
		OnboardingCompleted: user.OnboardingCompleted,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("Create: user %s: %w", user.UserID, err)
	}
	return nil
}

// SetLink implements store.Users.
func (r *UserRepository) SetLink(ctx context.Context, userID, accessToken, itemID string) error {
	return r.update(ctx, userID, bson.M{
		"$set":   bson.M{"access_token": accessToken, "item_id": itemID},
		"$unset": bson.M{"sync_cursor": ""},
	})
}

// ClearLink implements store.Users.
func (r *UserRepository) ClearLink(ctx context.Context, userID string) error {
	return r.update(ctx, userID, bson.M{
		"$unset": bson.M{"access_token": "", "item_id": "", "sync_cursor": ""},
	})
}

// SetSyncCursor implements store.Users.
func (r *UserRepository) SetSyncCursor(ctx context.Context, userID, cursor string) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{"sync_cursor": cursor}})
}

// SetKarmaScore implements store.Users. The score is clamped once more
// at the boundary so an out-of-range value can never be persisted.
func (r *UserRepository) SetKarmaScore(ctx context.Context, userID string, score int) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{"karma_score": domain.ClampKarma(score)}})
}

// SetActiveChallenge implements store.Users.
func (r *UserRepository) SetActiveChallenge(ctx context.Context, userID string, c *domain.Challenge) error {
	if c == nil {
		return r.update(ctx, userID, bson.M{"$unset": bson.M{"active_challenge": ""}})
	}
	doc := challengeDoc{
		Instruction:     c.Instruction,
		CategoryToAvoid: c.CategoryToAvoid,
		DateSet:         c.DateSet.String(),
	}
	return r.update(ctx, userID, bson.M{"$set": bson.M{"active_challenge": doc}})
}

// SetBudgets implements store.Users.
func (r *UserRepository) SetBudgets(ctx context.Context, userID string, budgets map[string]float64) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{"budgets": budgets}})
}

// SetOnboardingCompleted implements store.Users.
func (r *UserRepository) SetOnboardingCompleted(ctx context.Context, userID string) error {
	return r.update(ctx, userID, bson.M{"$set": bson.M{"onboarding_completed": true}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.UserState, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("findOne: %w", err)
	}
	return doc.toDomain()
}

func (r *UserRepository) update(ctx context.Context, userID string, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update: user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Users = (*UserRepository)(nil)
