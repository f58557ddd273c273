package classifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atomisadev/karma-app/internal/classifier"
)

type mockGateway struct {
	CompleteFunc func(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}

func (m *mockGateway) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	return m.CompleteFunc(ctx, systemInstruction, userPrompt)
}

func TestClassifyNormalizesOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "yes", "yes"},
		{"whitespace", "  yes\n", "yes"},
		{"upper case", "YES", "yes"},
		{"mixed", "  Violation \n", "violation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &mockGateway{
				CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
					return tt.raw, nil
				},
			}
			got, err := classifier.Classify(context.Background(), g, "sys", "prompt")
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyPropagatesUnavailable(t *testing.T) {
	g := &mockGateway{
		CompleteFunc: func(ctx context.Context, system, prompt string) (string, error) {
			return "", classifier.ErrUnavailable
		},
	}
	_, err := classifier.Classify(context.Background(), g, "sys", "prompt")
	if !errors.Is(err, classifier.ErrUnavailable) {
		t.Errorf("Classify() error = %v, want ErrUnavailable", err)
	}
}

func TestStripQuotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no quotes", "avoid coffee shops", "avoid coffee shops"},
		{"double quotes", `"Coffee Shop"`, "Coffee Shop"},
		{"single quotes", "'Fast Food'", "Fast Food"},
		{"curly quotes", "“Coffee Shop”", "Coffee Shop"},
		{"surrounding space", `  "Coffee Shop"  `, "Coffee Shop"},
		{"inner quote kept", `it's fine`, `it's fine`},
		{"unbalanced", `"Coffee Shop`, `"Coffee Shop`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifier.StripQuotes(tt.in); got != tt.want {
				t.Errorf("StripQuotes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
