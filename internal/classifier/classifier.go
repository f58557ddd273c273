// Package classifier wraps a single text-completion round trip against
// an external language model. The model is non-deterministic and
// unversioned, so callers never trust it for anything beyond a binary
// or templated-string decision and always define a deterministic
// fallback on failure.
package classifier

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned when the completion transport fails or
// times out. Call sites degrade to their safe default (false / nil)
// instead of propagating it further.
var ErrUnavailable = errors.New("classifier unavailable")

// Gateway is the capability the karma engine and insight service are
// built against. Implementations perform exactly one request/response
// completion per call, no streaming.
type Gateway interface {
	// Complete sends a system instruction plus a user prompt and
	// returns the model's trimmed response text.
	Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}

// Classify performs one completion and normalizes the output for a
// binary or keyword judgment: trimmed and lower-cased.
func Classify(ctx context.Context, g Gateway, systemInstruction, userPrompt string) (string, error) {
	text, err := g.Complete(ctx, systemInstruction, userPrompt)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}

// StripQuotes removes one layer of surrounding quote characters that
// models habitually add around a requested sentence.
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, "'", "“", "‘"} {
		closing := q
		switch q {
		case "“":
			closing = "”"
		case "‘":
			closing = "’"
		}
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, closing) && len(s) >= len(q)+len(closing) {
			return strings.TrimSpace(s[len(q) : len(s)-len(closing)])
		}
	}
	return s
}
