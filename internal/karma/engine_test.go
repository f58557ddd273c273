package karma_test

import (
	"context"
	"strings"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/atomisadev/karma-app/internal/classifier"
	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/karma"
	"github.com/atomisadev/karma-app/internal/store"
)

type mockUsers struct {
	store.Users
	GetFunc                func(ctx context.Context, userID string) (*domain.UserState, error)
	SetKarmaScoreFunc      func(ctx context.Context, userID string, score int) error
	SetActiveChallengeFunc func(ctx context.Context, userID string, c *domain.Challenge) error
}

func (m *mockUsers) Get(ctx context.Context, userID string) (*domain.UserState, error) {
	return m.GetFunc(ctx, userID)
}

func (m *mockUsers) SetKarmaScore(ctx context.Context, userID string, score int) error {
	if m.SetKarmaScoreFunc != nil {
		return m.SetKarmaScoreFunc(ctx, userID, score)
	}
	return nil
}

func (m *mockUsers) SetActiveChallenge(ctx context.Context, userID string, c *domain.Challenge) error {
	if m.SetActiveChallengeFunc != nil {
		return m.SetActiveChallengeFunc(ctx, userID, c)
	}
	return nil
}

type mockTransactions struct {
	store.Transactions
	ListRecentFunc func(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	ListOnDateFunc func(ctx context.Context, userID string, date civil.Date) ([]domain.Transaction, error)
}

func (m *mockTransactions) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockTransactions) ListOnDate(ctx context.Context, userID string, date civil.Date) ([]domain.Transaction, error) {
	if m.ListOnDateFunc != nil {
		return m.ListOnDateFunc(ctx, userID, date)
	}
	return nil, nil
}

type mockGateway struct {
	CompleteFunc func(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}

func (m *mockGateway) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	return m.CompleteFunc(ctx, systemInstruction, userPrompt)
}

// answerByPrompt routes classifier calls by what the prompt asks,
// mimicking the three judgment round trips.
func answerByPrompt(indulgence, suggestion, violation string) *mockGateway {
	return &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "challenge for tomorrow"):
				return suggestion, nil
			case strings.Contains(prompt, "indulgence"):
				return indulgence, nil
			default:
				return violation, nil
			}
		},
	}
}

var (
	day10 = civil.Date{Year: 2025, Month: 6, Day: 10}
	day11 = civil.Date{Year: 2025, Month: 6, Day: 11}
	day12 = civil.Date{Year: 2025, Month: 6, Day: 12}
)

func expenseOn(d civil.Date) *domain.Transaction {
	return &domain.Transaction{
		ExternalID: "tx-1",
		Amount:     7.21,
		Date:       d,
		Name:       "Starbucks",
		Category:   []string{"Food and Drink", "Restaurants", "Coffee Shop"},
	}
}

func TestOpensChallengeOnIndulgence(t *testing.T) {
	var setChallenge *domain.Challenge
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			return &domain.UserState{UserID: userID, KarmaScore: 500}, nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			setChallenge = c
			return nil
		},
	}
	txs := &mockTransactions{}
	gateway := answerByPrompt("yes",
		"Since you recently spent on Coffee Shop, your challenge for tomorrow is to avoid coffee shops.", "pass")

	engine := karma.NewEngine(users, txs, gateway)
	if err := engine.OnNewTransaction(context.Background(), "user-1", expenseOn(day10)); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}

	if setChallenge == nil {
		t.Fatal("expected a challenge to be opened")
	}
	if setChallenge.DateSet != day10 {
		t.Errorf("DateSet = %v, want %v", setChallenge.DateSet, day10)
	}
	if !strings.Contains(setChallenge.Instruction, "avoid coffee shops") {
		t.Errorf("unexpected instruction %q", setChallenge.Instruction)
	}
}

func TestIncomeNeverOpensChallenge(t *testing.T) {
	classifierCalled := false
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			return &domain.UserState{UserID: userID, KarmaScore: 500}, nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			t.Error("challenge should not be opened for income")
			return nil
		},
	}
	gateway := &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			classifierCalled = true
			return "yes", nil
		},
	}

	engine := karma.NewEngine(users, &mockTransactions{}, gateway)
	income := &domain.Transaction{Amount: -3200, Date: day10, Name: "PAYROLL DEPOSIT"}
	if err := engine.OnNewTransaction(context.Background(), "user-1", income); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}
	if classifierCalled {
		t.Error("classifier should not be consulted for income")
	}
}

func TestClassifierOutageIsSilent(t *testing.T) {
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			return &domain.UserState{UserID: userID, KarmaScore: 500}, nil
		},
		SetKarmaScoreFunc: func(ctx context.Context, userID string, score int) error {
			t.Error("karma should not change on classifier outage")
			return nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			t.Error("challenge state should not change on classifier outage")
			return nil
		},
	}
	gateway := &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			return "", classifier.ErrUnavailable
		},
	}

	engine := karma.NewEngine(users, &mockTransactions{}, gateway)
	if err := engine.OnNewTransaction(context.Background(), "user-1", expenseOn(day10)); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}
}

func TestSameDayTransactionLeavesChallengeAlone(t *testing.T) {
	active := &domain.Challenge{Instruction: "avoid coffee shops", DateSet: day10}
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			return &domain.UserState{UserID: userID, KarmaScore: 500, ActiveChallenge: active}, nil
		},
		SetKarmaScoreFunc: func(ctx context.Context, userID string, score int) error {
			t.Error("karma should not change on the day the challenge was set")
			return nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			t.Error("challenge should remain active on the day it was set")
			return nil
		},
	}
	gateway := &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			t.Error("classifier should not be consulted before the challenge day")
			return "", nil
		},
	}

	engine := karma.NewEngine(users, &mockTransactions{}, gateway)
	if err := engine.OnNewTransaction(context.Background(), "user-1", expenseOn(day10)); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}
}

func TestChallengeDayViolation(t *testing.T) {
	active := &domain.Challenge{Instruction: "avoid coffee shops", DateSet: day10}
	var gotScore int
	var cleared bool
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			return &domain.UserState{UserID: userID, KarmaScore: 500, ActiveChallenge: active}, nil
		},
		SetKarmaScoreFunc: func(ctx context.Context, userID string, score int) error {
			gotScore = score
			return nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			if c != nil {
				t.Errorf("expected challenge cleared, got %+v", c)
			}
			cleared = true
			return nil
		},
	}
	gateway := answerByPrompt("no", "", "violation")

	engine := karma.NewEngine(users, &mockTransactions{}, gateway)
	if err := engine.OnNewTransaction(context.Background(), "user-1", expenseOn(day11)); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}

	if gotScore != 475 {
		t.Errorf("karma after violation = %d, want 475", gotScore)
	}
	if !cleared {
		t.Error("challenge should be cleared after a violation")
	}
}

func TestChallengeDayViolationClampsAtFloor(t *testing.T) {
	active := &domain.Challenge{Instruction: "avoid coffee shops", DateSet: day10}
	var gotScore int
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			return &domain.UserState{UserID: userID, KarmaScore: 310, ActiveChallenge: active}, nil
		},
		SetKarmaScoreFunc: func(ctx context.Context, userID string, score int) error {
			gotScore = score
			return nil
		},
	}
	gateway := answerByPrompt("no", "", "violation")

	engine := karma.NewEngine(users, &mockTransactions{}, gateway)
	if err := engine.OnNewTransaction(context.Background(), "user-1", expenseOn(day11)); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}

	if gotScore != 300 {
		t.Errorf("karma after violation at 310 = %d, want clamped 300", gotScore)
	}
}

func TestChallengeDayPassKeepsChallengeActive(t *testing.T) {
	active := &domain.Challenge{Instruction: "avoid coffee shops", DateSet: day10}
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			return &domain.UserState{UserID: userID, KarmaScore: 500, ActiveChallenge: active}, nil
		},
		SetKarmaScoreFunc: func(ctx context.Context, userID string, score int) error {
			t.Error("karma should not change on a pass")
			return nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			t.Error("challenge should stay active for later challenge-day transactions")
			return nil
		},
	}
	gateway := answerByPrompt("no", "", "pass")

	engine := karma.NewEngine(users, &mockTransactions{}, gateway)
	tx := &domain.Transaction{Amount: 40, Date: day11, Name: "Whole Foods Market", Category: []string{"Shops"}}
	if err := engine.OnNewTransaction(context.Background(), "user-1", tx); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}
}

func TestStaleChallengeSuccess(t *testing.T) {
	active := &domain.Challenge{Instruction: "avoid coffee shops", DateSet: day10}
	state := &domain.UserState{UserID: "user-1", KarmaScore: 500, ActiveChallenge: active}

	var scores []int
	var challenges []*domain.Challenge
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			copy := *state
			return &copy, nil
		},
		SetKarmaScoreFunc: func(ctx context.Context, userID string, score int) error {
			scores = append(scores, score)
			state.KarmaScore = score
			return nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			challenges = append(challenges, c)
			state.ActiveChallenge = c
			return nil
		},
	}
	txs := &mockTransactions{
		ListOnDateFunc: func(ctx context.Context, userID string, d civil.Date) ([]domain.Transaction, error) {
			if d != day11 {
				t.Errorf("stale resolution scanned %v, want challenge day %v", d, day11)
			}
			return []domain.Transaction{
				{ExternalID: "tx-grocer", Amount: 52.10, Date: day11, Name: "Trader Joe's", Category: []string{"Shops"}},
			}, nil
		},
	}
	// Challenge-day transactions all pass; the stale-day transaction is
	// itself an indulgence and opens the next challenge.
	gateway := answerByPrompt("yes",
		"Since you recently spent on Coffee Shop, your challenge for tomorrow is to avoid fast food.", "pass")

	engine := karma.NewEngine(users, txs, gateway)
	if err := engine.OnNewTransaction(context.Background(), "user-1", expenseOn(day12)); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}

	if len(scores) != 1 || scores[0] != 525 {
		t.Errorf("scores = %v, want [525]", scores)
	}
	if len(challenges) != 2 {
		t.Fatalf("challenge updates = %d, want clear followed by open", len(challenges))
	}
	if challenges[0] != nil {
		t.Errorf("first update should clear the stale challenge, got %+v", challenges[0])
	}
	if challenges[1] == nil || challenges[1].DateSet != day12 {
		t.Errorf("second update should open a challenge dated %v, got %+v", day12, challenges[1])
	}
}

func TestStaleChallengeWithViolationClearsWithoutReward(t *testing.T) {
	active := &domain.Challenge{Instruction: "avoid coffee shops", DateSet: day10}
	state := &domain.UserState{UserID: "user-1", KarmaScore: 500, ActiveChallenge: active}

	var cleared bool
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			copy := *state
			return &copy, nil
		},
		SetKarmaScoreFunc: func(ctx context.Context, userID string, score int) error {
			t.Errorf("karma should not change, got update to %d", score)
			return nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			if c == nil {
				cleared = true
			}
			state.ActiveChallenge = c
			return nil
		},
	}
	txs := &mockTransactions{
		ListOnDateFunc: func(ctx context.Context, userID string, d civil.Date) ([]domain.Transaction, error) {
			return []domain.Transaction{
				{ExternalID: "tx-latte", Amount: 6.80, Date: day11, Name: "Starbucks", Category: []string{"Coffee Shop"}},
			}, nil
		},
	}
	gateway := &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			if strings.Contains(prompt, "indulgence") {
				return "no", nil
			}
			return "violation", nil
		},
	}

	engine := karma.NewEngine(users, txs, gateway)
	income := &domain.Transaction{Amount: -100, Date: day12, Name: "Mobile Check Deposit"}
	if err := engine.OnNewTransaction(context.Background(), "user-1", income); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}

	if !cleared {
		t.Error("stale violated challenge should still be cleared")
	}
}

func TestStaleSuccessClampsAtCeiling(t *testing.T) {
	active := &domain.Challenge{Instruction: "avoid coffee shops", DateSet: day10}
	state := &domain.UserState{UserID: "user-1", KarmaScore: 840, ActiveChallenge: active}

	var gotScore int
	users := &mockUsers{
		GetFunc: func(ctx context.Context, userID string) (*domain.UserState, error) {
			copy := *state
			return &copy, nil
		},
		SetKarmaScoreFunc: func(ctx context.Context, userID string, score int) error {
			gotScore = score
			state.KarmaScore = score
			return nil
		},
		SetActiveChallengeFunc: func(ctx context.Context, userID string, c *domain.Challenge) error {
			state.ActiveChallenge = c
			return nil
		},
	}
	txs := &mockTransactions{
		ListOnDateFunc: func(ctx context.Context, userID string, d civil.Date) ([]domain.Transaction, error) {
			return nil, nil
		},
	}
	gateway := answerByPrompt("no", "", "pass")

	engine := karma.NewEngine(users, txs, gateway)
	if err := engine.OnNewTransaction(context.Background(), "user-1", expenseOn(day12)); err != nil {
		t.Fatalf("OnNewTransaction() error = %v", err)
	}

	if gotScore != 850 {
		t.Errorf("karma after stale success at 840 = %d, want clamped 850", gotScore)
	}
}
