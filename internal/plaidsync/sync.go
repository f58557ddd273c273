// Package plaidsync brings local transaction storage into agreement
// with the external ledger for one user, using cursor-based incremental
// pagination, and keeps the cursor durable.
package plaidsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/ledger"
	"github.com/atomisadev/karma-app/internal/locks"
	"github.com/atomisadev/karma-app/internal/logger"
	"github.com/atomisadev/karma-app/internal/metrics"
	"github.com/atomisadev/karma-app/internal/store"
)

var (
	// ErrNotLinked is returned when synchronize is attempted for a user
	// with no linked aggregator account. The caller's problem; never
	// retried internally.
	ErrNotLinked = errors.New("user has no linked account")

	// ErrSyncFailed wraps a page fetch or storage failure mid-sync. The
	// cursor is not advanced past the last successful page, so the
	// whole call is safe to retry.
	ErrSyncFailed = errors.New("synchronization failed")
)

// TransactionSink receives each persisted added/modified transaction,
// in page order, during a synchronize call. The karma engine is the
// production sink.
type TransactionSink interface {
	OnNewTransaction(ctx context.Context, userID string, tx *domain.Transaction) error
}

// Engine is the sync engine for the external ledger.
type Engine struct {
	ledger       ledger.Ledger
	users        store.Users
	transactions store.Transactions
	sink         TransactionSink
	userLocks    *locks.KeyedMutex
}

// NewEngine creates a sync engine. sink may be nil, in which case
// transactions are persisted without downstream evaluation.
func NewEngine(lg ledger.Ledger, users store.Users, transactions store.Transactions, sink TransactionSink) *Engine {
	return &Engine{
		ledger:       lg,
		users:        users,
		transactions: transactions,
		sink:         sink,
		userLocks:    locks.NewKeyedMutex(),
	}
}

// Synchronize pulls every pending page of changes for the user, upserts
// added and modified records, deletes removed ones, forwards each
// persisted record to the sink, and durably advances the cursor after
// every applied page.
//
// Pages are strictly sequential (each cursor depends on the previous
// page), so there is no intra-call parallelism; the per-user lock keeps
// two concurrent calls for the same user from interleaving. The call
// checks ctx between pages for cooperative cancellation.
func (e *Engine) Synchronize(ctx context.Context, userID string) error {
	unlock := e.userLocks.Lock(userID)
	defer unlock()

	log := logger.FromContext(ctx)

	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("Synchronize: load user %s: %w", userID, err)
	}
	if !user.Linked() {
		return fmt.Errorf("Synchronize: user %s: %w", userID, ErrNotLinked)
	}

	cursor := user.SyncCursor
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("Synchronize: user %s: %w", userID, err)
		}

		page, err := e.ledger.FetchPage(ctx, user.AccessToken, cursor)
		if err != nil {
			metrics.SyncFailures.Inc()
			return fmt.Errorf("Synchronize: user %s: %w: %v", userID, ErrSyncFailed, err)
		}

		if err := e.applyPage(ctx, userID, page); err != nil {
			metrics.SyncFailures.Inc()
			return fmt.Errorf("Synchronize: user %s: %w: %v", userID, ErrSyncFailed, err)
		}

		// The page is fully applied; its cursor is now the durable
		// resume point. Upserts are idempotent, so a crash between
		// applying and persisting only means re-applying one page.
		if err := e.users.SetSyncCursor(ctx, userID, page.NextCursor); err != nil {
			metrics.SyncFailures.Inc()
			return fmt.Errorf("Synchronize: user %s: persist cursor: %w: %v", userID, ErrSyncFailed, err)
		}
		cursor = page.NextCursor
		pages++
		metrics.SyncPagesTotal.Inc()

		if !page.HasMore {
			break
		}
	}

	log.Info().
		Str("user_id", userID).
		Int("pages", pages).
		Msg("Ledger sync completed")
	return nil
}

// applyPage upserts added+modified records, forwards each to the sink
// in the order the page reported them, then deletes removed ids.
func (e *Engine) applyPage(ctx context.Context, userID string, page *ledger.Page) error {
	for _, kind := range []struct {
		label string
		txs   []domain.Transaction
	}{
		{"added", page.Added},
		{"modified", page.Modified},
	} {
		for i := range kind.txs {
			tx := kind.txs[i]
			tx.UserID = userID

			if err := e.transactions.Upsert(ctx, &tx); err != nil {
				return fmt.Errorf("applyPage: upsert %s: %w", tx.ExternalID, err)
			}
			metrics.SyncTransactionsTotal.WithLabelValues(kind.label).Inc()

			if e.sink != nil {
				if err := e.sink.OnNewTransaction(ctx, userID, &tx); err != nil {
					return fmt.Errorf("applyPage: evaluate %s: %w", tx.ExternalID, err)
				}
			}
		}
	}

	if len(page.Removed) > 0 {
		if err := e.transactions.DeleteByExternalIDs(ctx, userID, page.Removed); err != nil {
			return fmt.Errorf("applyPage: delete removed: %w", err)
		}
		metrics.SyncTransactionsTotal.WithLabelValues("removed").Add(float64(len(page.Removed)))
	}

	return nil
}
