// Package store defines the persistence boundary: a document-store
// style API sufficient for upsert-by-external-id, date range queries
// and atomic field updates on the per-user state document.
package store

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"github.com/atomisadev/karma-app/internal/domain"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("store: not found")

// Transactions is the transaction collection boundary.
type Transactions interface {
	// Upsert inserts or fully overwrites the transaction keyed by its
	// external id. Applying the same transaction twice leaves storage
	// identical to applying it once.
	Upsert(ctx context.Context, tx *domain.Transaction) error

	// InsertMany inserts a batch of transactions (seed data, manual
	// entries). External ids are assumed fresh.
	InsertMany(ctx context.Context, txs []domain.Transaction) error

	// DeleteByExternalIDs removes the given external ids for a user.
	// Missing ids are not an error.
	DeleteByExternalIDs(ctx context.Context, userID string, externalIDs []string) error

	// DeleteByUser removes every transaction belonging to the user.
	DeleteByUser(ctx context.Context, userID string) error

	// ListRecent returns up to limit transactions for the user, newest
	// date first.
	ListRecent(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)

	// ListOnDate returns every stored transaction for the user dated
	// exactly date.
	ListOnDate(ctx context.Context, userID string, date civil.Date) ([]domain.Transaction, error)

	// ListRange returns transactions within [start, end] inclusive,
	// newest first. Zero-value bounds are open.
	ListRange(ctx context.Context, userID string, start, end civil.Date) ([]domain.Transaction, error)

	// CountByUser returns the number of stored transactions for a user.
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// Users is the per-user state collection boundary. Field updates are
// atomic on the single user document.
type Users interface {
	// Get returns the state for userID, or ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.UserState, error)

	// GetByItemID resolves the user owning an aggregator item id, or
	// ErrNotFound. Used for webhook routing.
	GetByItemID(ctx context.Context, itemID string) (*domain.UserState, error)

	// Create inserts a fresh user document with default karma.
	Create(ctx context.Context, user *domain.UserState) error

	// SetLink stores the aggregator link fields and resets the cursor.
	SetLink(ctx context.Context, userID, accessToken, itemID string) error

	// ClearLink removes the aggregator link and the sync cursor.
	ClearLink(ctx context.Context, userID string) error

	// SetSyncCursor durably advances the sync cursor.
	SetSyncCursor(ctx context.Context, userID, cursor string) error

	// SetKarmaScore writes the (already clamped) karma score.
	SetKarmaScore(ctx context.Context, userID string, score int) error

	// SetActiveChallenge stores the challenge; a nil challenge unsets
	// the field.
	SetActiveChallenge(ctx context.Context, userID string, c *domain.Challenge) error

	// SetBudgets replaces the per-category budget map.
	SetBudgets(ctx context.Context, userID string, budgets map[string]float64) error

	// SetOnboardingCompleted marks onboarding done.
	SetOnboardingCompleted(ctx context.Context, userID string) error
}
