package ledger

import (
	"testing"

	"github.com/plaid/plaid-go/v27/plaid"

	"github.com/atomisadev/karma-app/internal/domain"
)

func rawTransaction(id, date string, amount float64, pending bool) plaid.Transaction {
	tx := plaid.Transaction{}
	tx.SetTransactionId(id)
	tx.SetAccountId("account-1")
	tx.SetAmount(amount)
	tx.SetDate(date)
	tx.SetName("Coffee Shop")
	tx.SetPending(pending)
	tx.SetPaymentChannel("in store")
	tx.SetCategory([]string{"Food and Drink", "Coffee"})
	tx.SetIsoCurrencyCode("USD")
	return tx
}

func TestMapTransaction(t *testing.T) {
	got, err := mapTransaction(rawTransaction("tx-1", "2024-03-01", 6.75, false))
	if err != nil {
		t.Fatalf("mapTransaction() error = %v", err)
	}

	if got.ExternalID != "tx-1" {
		t.Errorf("ExternalID = %q, want tx-1", got.ExternalID)
	}
	if got.AccountID != "account-1" {
		t.Errorf("AccountID = %q, want account-1", got.AccountID)
	}
	if got.Amount != 6.75 {
		t.Errorf("Amount = %v, want 6.75", got.Amount)
	}
	if got.Date.String() != "2024-03-01" {
		t.Errorf("Date = %v, want 2024-03-01", got.Date)
	}
	if got.PaymentChannel != domain.PaymentChannel("in store") {
		t.Errorf("PaymentChannel = %q", got.PaymentChannel)
	}
	if len(got.Category) != 2 || got.Category[0] != "Food and Drink" {
		t.Errorf("Category = %v", got.Category)
	}
	if got.CurrencyCode != "USD" {
		t.Errorf("CurrencyCode = %q, want USD", got.CurrencyCode)
	}
	if got.Status != domain.StatusCleared {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusCleared)
	}
}

func TestMapTransactionPending(t *testing.T) {
	got, err := mapTransaction(rawTransaction("tx-2", "2024-03-02", 12.00, true))
	if err != nil {
		t.Fatalf("mapTransaction() error = %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, domain.StatusPending)
	}
}

func TestMapTransactionInvalidDate(t *testing.T) {
	_, err := mapTransaction(rawTransaction("tx-3", "not-a-date", 1.00, false))
	if err == nil {
		t.Fatal("Expected error for unparseable date")
	}
}
