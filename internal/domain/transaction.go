package domain

import (
	"cloud.google.com/go/civil"
)

// PaymentChannel describes how a transaction was made, using the
// aggregator's vocabulary plus the values this app generates itself.
type PaymentChannel string

const (
	ChannelInStore       PaymentChannel = "in store"
	ChannelOnline        PaymentChannel = "online"
	ChannelOther         PaymentChannel = "other"
	ChannelManual        PaymentChannel = "manual"
	ChannelDirectDeposit PaymentChannel = "direct deposit"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusCleared TransactionStatus = "cleared"
)

// Transaction represents one normalized ledger entry for a user.
// This is a domain struct, not a storage row; the store layer maps it
// into its own document schema.
//
// Amount follows the aggregator's sign convention: positive means money
// out (an expense), negative means money in (income or a refund).
type Transaction struct {
	ExternalID     string     // aggregator transaction id, unique and stable across syncs
	AccountID      string     // aggregator account id
	UserID         string     // owning user
	Amount         float64    // signed, positive = money out
	Date           civil.Date // calendar date, no time component
	Name           string     // merchant / description
	PaymentChannel PaymentChannel
	Category       []string // most-general first, may be empty
	CurrencyCode   string   // ISO currency code, may be empty
	Status         TransactionStatus
}

// IsExpense reports whether the transaction moves money out of the account.
func (t *Transaction) IsExpense() bool {
	return t.Amount > 0
}

// PrimaryCategory returns the most general category, or "Uncategorized"
// when the aggregator supplied none.
func (t *Transaction) PrimaryCategory() string {
	if len(t.Category) == 0 {
		return "Uncategorized"
	}
	return t.Category[0]
}
