// Package karma maintains the per-user challenge state machine and the
// bounded karma score as new transactions arrive.
package karma

import (
	"context"
	"fmt"

	"github.com/atomisadev/karma-app/internal/classifier"
	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/locks"
	"github.com/atomisadev/karma-app/internal/logger"
	"github.com/atomisadev/karma-app/internal/metrics"
	"github.com/atomisadev/karma-app/internal/store"
)

// recentTransactionLimit bounds how much history is handed to the
// classifier when suggesting a challenge.
const recentTransactionLimit = 30

// Engine evaluates incoming transactions against the user's active
// challenge and opens new challenges on detected indulgences.
type Engine struct {
	users        store.Users
	transactions store.Transactions
	gateway      classifier.Gateway
	userLocks    *locks.KeyedMutex
}

// NewEngine creates a karma engine.
func NewEngine(users store.Users, transactions store.Transactions, gateway classifier.Gateway) *Engine {
	return &Engine{
		users:        users,
		transactions: transactions,
		gateway:      gateway,
		userLocks:    locks.NewKeyedMutex(),
	}
}

// OnNewTransaction runs the challenge state machine for one incoming
// transaction. The whole call holds the user's lock: two concurrent
// transactions can never both observe "no active challenge" or
// double-apply a karma delta.
//
// Classifier outages are invisible here; only persistence failures are
// returned.
func (e *Engine) OnNewTransaction(ctx context.Context, userID string, tx *domain.Transaction) error {
	unlock := e.userLocks.Lock(userID)
	defer unlock()

	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("OnNewTransaction: load user %s: %w", userID, err)
	}

	if ch := user.ActiveChallenge; ch != nil {
		switch {
		case tx.Date == ch.ChallengeDay():
			return e.evaluateChallengeDay(ctx, user, ch, tx)

		case ch.StaleAsOf(tx.Date):
			if err := e.resolveStale(ctx, user, ch); err != nil {
				return err
			}
			// The challenge is gone now; re-read state and let this
			// same transaction open a fresh one if it qualifies.
			user, err = e.users.Get(ctx, userID)
			if err != nil {
				return fmt.Errorf("OnNewTransaction: reload user %s: %w", userID, err)
			}

		default:
			// On or before the day the challenge was set: the
			// challenge targets the next day only.
			return nil
		}
	}

	if user.ActiveChallenge != nil {
		return nil
	}
	return e.maybeOpenChallenge(ctx, user, tx)
}

// evaluateChallengeDay handles a transaction dated exactly on the
// challenge day. A violation costs KarmaDelta and closes the
// challenge; a pass leaves it active for further challenge-day
// transactions.
func (e *Engine) evaluateChallengeDay(ctx context.Context, user *domain.UserState, ch *domain.Challenge, tx *domain.Transaction) error {
	if !e.violatesInstruction(ctx, ch.Instruction, tx) {
		return nil
	}

	score := domain.ClampKarma(user.KarmaScore - domain.KarmaDelta)
	if err := e.users.SetKarmaScore(ctx, user.UserID, score); err != nil {
		return fmt.Errorf("evaluateChallengeDay: update karma for %s: %w", user.UserID, err)
	}
	if err := e.users.SetActiveChallenge(ctx, user.UserID, nil); err != nil {
		return fmt.Errorf("evaluateChallengeDay: clear challenge for %s: %w", user.UserID, err)
	}

	metrics.ChallengesResolved.WithLabelValues("violated").Inc()
	logger.FromContext(ctx).Info().
		Str("user_id", user.UserID).
		Str("transaction_id", tx.ExternalID).
		Int("karma_score", score).
		Msg("Challenge violated")
	return nil
}

// resolveStale settles a challenge whose window has fully elapsed: it
// re-derives the outcome from the persisted challenge-day transactions,
// grants the success increment when none violated, and clears the
// challenge regardless.
func (e *Engine) resolveStale(ctx context.Context, user *domain.UserState, ch *domain.Challenge) error {
	dayTxs, err := e.transactions.ListOnDate(ctx, user.UserID, ch.ChallengeDay())
	if err != nil {
		return fmt.Errorf("resolveStale: list challenge-day transactions for %s: %w", user.UserID, err)
	}

	violated := false
	for i := range dayTxs {
		if e.violatesInstruction(ctx, ch.Instruction, &dayTxs[i]) {
			violated = true
			break
		}
	}

	outcome := "cleared"
	if !violated {
		score := domain.ClampKarma(user.KarmaScore + domain.KarmaDelta)
		if err := e.users.SetKarmaScore(ctx, user.UserID, score); err != nil {
			return fmt.Errorf("resolveStale: update karma for %s: %w", user.UserID, err)
		}
		user.KarmaScore = score
		outcome = "succeeded"
	}

	if err := e.users.SetActiveChallenge(ctx, user.UserID, nil); err != nil {
		return fmt.Errorf("resolveStale: clear challenge for %s: %w", user.UserID, err)
	}

	metrics.ChallengesResolved.WithLabelValues(outcome).Inc()
	logger.FromContext(ctx).Info().
		Str("user_id", user.UserID).
		Str("outcome", outcome).
		Int("karma_score", user.KarmaScore).
		Msg("Stale challenge resolved")
	return nil
}

// maybeOpenChallenge runs indulgence detection for a transaction when
// no challenge is active, and opens one when the classifier both flags
// the transaction and produces an instruction.
func (e *Engine) maybeOpenChallenge(ctx context.Context, user *domain.UserState, tx *domain.Transaction) error {
	// Income and refunds are never indulgences.
	if !tx.IsExpense() {
		return nil
	}

	if !e.isIndulgence(ctx, tx) {
		return nil
	}

	recent, err := e.transactions.ListRecent(ctx, user.UserID, recentTransactionLimit)
	if err != nil {
		return fmt.Errorf("maybeOpenChallenge: list recent transactions for %s: %w", user.UserID, err)
	}

	instruction := e.suggestChallenge(ctx, recent, tx)
	if instruction == "" {
		// Classifier failed or produced nothing: silent no-op.
		return nil
	}

	ch := &domain.Challenge{
		Instruction: instruction,
		DateSet:     tx.Date,
	}
	if err := e.users.SetActiveChallenge(ctx, user.UserID, ch); err != nil {
		return fmt.Errorf("maybeOpenChallenge: set challenge for %s: %w", user.UserID, err)
	}

	metrics.ChallengesOpened.Inc()
	logger.FromContext(ctx).Info().
		Str("user_id", user.UserID).
		Str("transaction_id", tx.ExternalID).
		Str("instruction", instruction).
		Str("date_set", ch.DateSet.String()).
		Msg("Challenge opened")
	return nil
}
