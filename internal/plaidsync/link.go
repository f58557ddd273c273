package plaidsync

import (
	"context"
	"fmt"

	"github.com/atomisadev/karma-app/internal/logger"
)

// CreateLinkToken starts the aggregator link flow for a user.
func (e *Engine) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	token, err := e.ledger.CreateLinkToken(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("CreateLinkToken: user %s: %w", userID, err)
	}
	return token, nil
}

// Link exchanges the public token produced by the link flow, stores the
// resulting access token and item id on the user, and runs the initial
// full synchronization so the local ledger starts populated.
func (e *Engine) Link(ctx context.Context, userID, publicToken string) (itemID string, err error) {
	res, err := e.ledger.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return "", fmt.Errorf("Link: user %s: %w", userID, err)
	}

	if err := e.users.SetLink(ctx, userID, res.AccessToken, res.ItemID); err != nil {
		return "", fmt.Errorf("Link: store link for %s: %w", userID, err)
	}

	logger.FromContext(ctx).Info().
		Str("user_id", userID).
		Str("item_id", res.ItemID).
		Msg("Account linked")

	if err := e.Synchronize(ctx, userID); err != nil {
		// The link itself stuck; the initial sync can be retried via
		// webhook or manually.
		return res.ItemID, fmt.Errorf("Link: initial sync for %s: %w", userID, err)
	}

	return res.ItemID, nil
}

// Disconnect removes the aggregator link, the cursor, and every synced
// transaction for the user. Used when switching to seeded data.
func (e *Engine) Disconnect(ctx context.Context, userID string) error {
	if err := e.users.ClearLink(ctx, userID); err != nil {
		return fmt.Errorf("Disconnect: clear link for %s: %w", userID, err)
	}
	if err := e.transactions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("Disconnect: delete transactions for %s: %w", userID, err)
	}
	logger.FromContext(ctx).Info().Str("user_id", userID).Msg("Account disconnected")
	return nil
}

// FireSandboxWebhook triggers a sandbox sync webhook for the user's
// linked item.
func (e *Engine) FireSandboxWebhook(ctx context.Context, userID string) error {
	user, err := e.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("FireSandboxWebhook: load user %s: %w", userID, err)
	}
	if !user.Linked() {
		return fmt.Errorf("FireSandboxWebhook: user %s: %w", userID, ErrNotLinked)
	}
	if err := e.ledger.FireSandboxWebhook(ctx, user.AccessToken); err != nil {
		return fmt.Errorf("FireSandboxWebhook: user %s: %w", userID, err)
	}
	return nil
}
