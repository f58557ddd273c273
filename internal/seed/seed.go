// Package seed generates realistic synthetic transactions for users who
// have not linked a bank account, so the rest of the app has data to
// work with.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/logger"
	"github.com/atomisadev/karma-app/internal/store"
)

//go:embed merchants.json
var merchantsJSON []byte

// Merchant describes a spending pattern to sample transactions from.
type Merchant struct {
	Name        string     `json:"name"`
	Category    []string   `json:"category"`
	AmountRange [2]float64 `json:"amountRange"`
}

// Merchants decodes the embedded merchant catalog.
func Merchants() ([]Merchant, error) {
	var merchants []Merchant
	if err := json.Unmarshal(merchantsJSON, &merchants); err != nil {
		return nil, fmt.Errorf("Merchants: decode catalog: %w", err)
	}
	return merchants, nil
}

const (
	seedAccountID = "account-checking-01"
	historyDays   = 120
	minCount      = 90
	maxCount      = 100
)

// Result reports what a seeding operation did.
type Result struct {
	Seeded  int    `json:"seeded"`
	Message string `json:"message,omitempty"`
}

// Generator produces and persists synthetic transactions.
type Generator struct {
	transactions store.Transactions
	merchants    []Merchant
	rng          *rand.Rand
	today        func() civil.Date
}

// NewGenerator builds a Generator over the embedded merchant catalog.
func NewGenerator(transactions store.Transactions) (*Generator, error) {
	merchants, err := Merchants()
	if err != nil {
		return nil, err
	}
	return &Generator{
		transactions: transactions,
		merchants:    merchants,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		today:        func() civil.Date { return civil.DateOf(time.Now().UTC()) },
	}, nil
}

// Generate samples n transactions for the user. A non-positive n picks
// a count between 90 and 100.
func (g *Generator) Generate(userID string, n int) []domain.Transaction {
	if n <= 0 {
		n = minCount + g.rng.Intn(maxCount-minCount+1)
	}
	txs := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		m := g.merchants[g.rng.Intn(len(g.merchants))]
		txs = append(txs, g.buildTransaction(userID, m))
	}
	return txs
}

func (g *Generator) buildTransaction(userID string, m Merchant) domain.Transaction {
	base := roundCents(m.AmountRange[0] + g.rng.Float64()*(m.AmountRange[1]-m.AmountRange[0]))

	isTransfer := hasCategory(m.Category, "Transfer")
	isIncome := hasCategory(m.Category, "Deposit") || hasCategory(m.Category, "Payroll")

	incoming := isIncome || (isTransfer && g.rng.Float64() < 0.3)
	amount := base
	if incoming {
		amount = -base
	}

	daysBack := g.rng.Intn(historyDays)
	date := g.today().AddDays(-daysBack)

	status := domain.StatusCleared
	if daysBack <= 2 && g.rng.Float64() < 0.5 {
		status = domain.StatusPending
	}

	return domain.Transaction{
		ExternalID:     "seed-" + uuid.NewString(),
		AccountID:      seedAccountID,
		UserID:         userID,
		Amount:         amount,
		Date:           date,
		Name:           m.Name,
		PaymentChannel: g.randomChannel(),
		Category:       m.Category,
		CurrencyCode:   "USD",
		Status:         status,
	}
}

func (g *Generator) randomChannel() domain.PaymentChannel {
	channels := []domain.PaymentChannel{domain.ChannelInStore, domain.ChannelOnline, domain.ChannelOther}
	return channels[g.rng.Intn(len(channels))]
}

// SeedIfNone inserts synthetic transactions only when the user has
// none yet.
func (g *Generator) SeedIfNone(ctx context.Context, userID string) (Result, error) {
	existing, err := g.transactions.CountByUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("SeedIfNone: count for %s: %w", userID, err)
	}
	if existing > 0 {
		return Result{Seeded: 0, Message: "user already has transactions"}, nil
	}

	txs := g.Generate(userID, 0)
	if err := g.transactions.InsertMany(ctx, txs); err != nil {
		return Result{}, fmt.Errorf("SeedIfNone: insert for %s: %w", userID, err)
	}

	logger.FromContext(ctx).Info().
		Str("user_id", userID).
		Int("count", len(txs)).
		Msg("Seeded transactions")
	return Result{Seeded: len(txs)}, nil
}

// Replace deletes every transaction the user has and seeds a fresh
// batch. A non-positive count picks a random one.
func (g *Generator) Replace(ctx context.Context, userID string, count int) (Result, error) {
	if err := g.transactions.DeleteByUser(ctx, userID); err != nil {
		return Result{}, fmt.Errorf("Replace: delete for %s: %w", userID, err)
	}

	txs := g.Generate(userID, count)
	if len(txs) > 0 {
		if err := g.transactions.InsertMany(ctx, txs); err != nil {
			return Result{}, fmt.Errorf("Replace: insert for %s: %w", userID, err)
		}
	}

	logger.FromContext(ctx).Info().
		Str("user_id", userID).
		Int("count", len(txs)).
		Msg("Replaced transactions with seeded batch")
	return Result{Seeded: len(txs)}, nil
}

func hasCategory(categories []string, want string) bool {
	for _, c := range categories {
		if c == want {
			return true
		}
	}
	return false
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
