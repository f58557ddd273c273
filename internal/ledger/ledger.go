// Package ledger abstracts the external system of record for a user's
// bank transactions. One implementation exists, backed by Plaid; the
// interface keeps the sync engine testable without network access.
package ledger

import (
	"context"

	"github.com/atomisadev/karma-app/internal/domain"
)

// Page is one page of the aggregator's change stream. Added, Modified
// and Removed are disjoint; NextCursor is the cursor to request the
// following page (and the new durable cursor once the page has been
// applied).
type Page struct {
	Added      []domain.Transaction
	Modified   []domain.Transaction
	Removed    []string // external transaction ids
	HasMore    bool
	NextCursor string
}

// LinkResult is the outcome of exchanging a public token: the durable
// access token and the aggregator's item id for webhook routing.
type LinkResult struct {
	AccessToken string
	ItemID      string
}

// Ledger is the transaction aggregator boundary.
type Ledger interface {
	// FetchPage requests the next page of transaction changes. An empty
	// cursor means "from the beginning of history".
	FetchPage(ctx context.Context, accessToken, cursor string) (*Page, error)

	// CreateLinkToken starts the account-linking flow for a user.
	CreateLinkToken(ctx context.Context, userID string) (string, error)

	// ExchangePublicToken turns the public token produced by the link
	// flow into a durable access token.
	ExchangePublicToken(ctx context.Context, publicToken string) (*LinkResult, error)

	// FireSandboxWebhook asks the sandbox environment to emit a
	// sync-updates-available webhook for the linked item. Test aid only.
	FireSandboxWebhook(ctx context.Context, accessToken string) error
}
