package ledger

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/plaid/plaid-go/v27/plaid"

	"github.com/atomisadev/karma-app/internal/domain"
)

const clientName = "Karma"

// PlaidLedger implements Ledger on top of the Plaid API.
type PlaidLedger struct {
	api *plaid.APIClient
}

// NewPlaidLedger creates a Plaid-backed ledger client. env selects the
// Plaid environment ("sandbox" or "production"); anything else falls
// back to sandbox.
func NewPlaidLedger(clientID, secret, env string) *PlaidLedger {
	cfg := plaid.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	switch env {
	case "production":
		cfg.UseEnvironment(plaid.Production)
	default:
		cfg.UseEnvironment(plaid.Sandbox)
	}
	return &PlaidLedger{api: plaid.NewAPIClient(cfg)}
}

// FetchPage implements Ledger using /transactions/sync.
func (l *PlaidLedger) FetchPage(ctx context.Context, accessToken, cursor string) (*Page, error) {
	req := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		req.SetCursor(cursor)
	}

	resp, _, err := l.api.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("FetchPage: transactions sync: %w", err)
	}

	page := &Page{
		HasMore:    resp.GetHasMore(),
		NextCursor: resp.GetNextCursor(),
	}

	for _, tx := range resp.GetAdded() {
		mapped, err := mapTransaction(tx)
		if err != nil {
			return nil, fmt.Errorf("FetchPage: added: %w", err)
		}
		page.Added = append(page.Added, mapped)
	}
	for _, tx := range resp.GetModified() {
		mapped, err := mapTransaction(tx)
		if err != nil {
			return nil, fmt.Errorf("FetchPage: modified: %w", err)
		}
		page.Modified = append(page.Modified, mapped)
	}
	for _, removed := range resp.GetRemoved() {
		page.Removed = append(page.Removed, removed.GetTransactionId())
	}

	return page, nil
}

// CreateLinkToken implements Ledger.
func (l *PlaidLedger) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	user := plaid.LinkTokenCreateRequestUser{ClientUserId: userID}
	req := plaid.NewLinkTokenCreateRequest(clientName, "en", []plaid.CountryCode{plaid.COUNTRYCODE_US}, user)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := l.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", fmt.Errorf("CreateLinkToken: %w", err)
	}
	return resp.GetLinkToken(), nil
}

// ExchangePublicToken implements Ledger.
func (l *PlaidLedger) ExchangePublicToken(ctx context.Context, publicToken string) (*LinkResult, error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := l.api.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("ExchangePublicToken: %w", err)
	}
	return &LinkResult{
		AccessToken: resp.GetAccessToken(),
		ItemID:      resp.GetItemId(),
	}, nil
}

// FireSandboxWebhook implements Ledger.
func (l *PlaidLedger) FireSandboxWebhook(ctx context.Context, accessToken string) error {
	req := plaid.NewSandboxItemFireWebhookRequest(accessToken, "SYNC_UPDATES_AVAILABLE")
	_, _, err := l.api.PlaidApi.SandboxItemFireWebhook(ctx).SandboxItemFireWebhookRequest(*req).Execute()
	if err != nil {
		return fmt.Errorf("FireSandboxWebhook: %w", err)
	}
	return nil
}

// mapTransaction converts a raw aggregator transaction into the domain
// shape. Pending maps to the two-state settlement status.
func mapTransaction(tx plaid.Transaction) (domain.Transaction, error) {
	date, err := civil.ParseDate(tx.GetDate())
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("mapTransaction: transaction %s: invalid date %q: %w",
			tx.GetTransactionId(), tx.GetDate(), err)
	}

	status := domain.StatusCleared
	if tx.GetPending() {
		status = domain.StatusPending
	}

	return domain.Transaction{
		ExternalID:     tx.GetTransactionId(),
		AccountID:      tx.GetAccountId(),
		Amount:         tx.GetAmount(),
		Date:           date,
		Name:           tx.GetName(),
		PaymentChannel: domain.PaymentChannel(tx.GetPaymentChannel()),
		Category:       tx.GetCategory(),
		CurrencyCode:   tx.GetIsoCurrencyCode(),
		Status:         status,
	}, nil
}

var _ Ledger = (*PlaidLedger)(nil)
