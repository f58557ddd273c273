package insight_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atomisadev/karma-app/internal/classifier"
	"github.com/atomisadev/karma-app/internal/insight"
)

type mockGateway struct {
	CompleteFunc func(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}

func (m *mockGateway) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	return m.CompleteFunc(ctx, systemInstruction, userPrompt)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose untouched", "Spend less on coffee.", "Spend less on coffee."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := insight.StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAskParsesBudgetJSON(t *testing.T) {
	g := &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			return "```json\n{\"Food and Drink\": 350.0, \"Travel\": 120.5}\n```", nil
		},
	}

	got, err := insight.NewAdvisor(g).Ask(context.Background(), "suggest a budget as JSON")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if got.Budget == nil {
		t.Fatal("expected a parsed budget")
	}
	if got.Budget["Food and Drink"] != 350.0 || got.Budget["Travel"] != 120.5 {
		t.Errorf("budget = %v", got.Budget)
	}
}

func TestAskProseHasNoBudget(t *testing.T) {
	g := &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			return "You spent a lot on delivery this month. Try cooking twice a week.", nil
		},
	}

	got, err := insight.NewAdvisor(g).Ask(context.Background(), "how am I doing?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if got.Budget != nil {
		t.Errorf("budget should be nil for prose answers, got %v", got.Budget)
	}
	if got.Text == "" {
		t.Error("expected the model text to be returned")
	}
}

func TestAskPropagatesUnavailable(t *testing.T) {
	g := &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			return "", classifier.ErrUnavailable
		},
	}

	_, err := insight.NewAdvisor(g).Ask(context.Background(), "anything")
	if !errors.Is(err, classifier.ErrUnavailable) {
		t.Errorf("Ask() error = %v, want ErrUnavailable", err)
	}
}
