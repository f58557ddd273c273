// Package insight produces free-form financial advice from the model,
// including budget suggestions returned as JSON.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atomisadev/karma-app/internal/classifier"
)

const systemInstruction = "You are a helpful and expert financial assistant. " +
	"Analyze the user's financial data and provide concise, actionable insights. " +
	"Your tone should be encouraging. If the user asks for a budget in JSON format, " +
	"you must respond with ONLY the valid JSON object and nothing else."

// Insight is the model's answer to a financial prompt. Budget carries
// the parsed object when the answer was a JSON budget suggestion.
type Insight struct {
	Text   string             `json:"insight"`
	Budget map[string]float64 `json:"budget,omitempty"`
}

// Advisor asks the model open-ended financial questions.
type Advisor struct {
	gateway classifier.Gateway
}

func NewAdvisor(gateway classifier.Gateway) *Advisor {
	return &Advisor{gateway: gateway}
}

// Ask sends the user's prompt through the model and returns the
// answer. Markdown code fences around JSON answers are stripped, and
// an answer that parses as a category-to-amount object is surfaced as
// a budget.
func (a *Advisor) Ask(ctx context.Context, prompt string) (Insight, error) {
	text, err := a.gateway.Complete(ctx, systemInstruction, prompt)
	if err != nil {
		return Insight{}, fmt.Errorf("Ask: %w", err)
	}

	trimmed := StripCodeFence(strings.TrimSpace(text))

	var budget map[string]float64
	if err := json.Unmarshal([]byte(trimmed), &budget); err != nil {
		budget = nil
	}

	return Insight{Text: text, Budget: budget}, nil
}

// StripCodeFence removes a surrounding markdown fence, including a
// language tag such as ```json.
func StripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i != -1 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i != -1 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
