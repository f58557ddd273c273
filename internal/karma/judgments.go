package karma

import (
	"context"

	"github.com/atomisadev/karma-app/internal/classifier"
	"github.com/atomisadev/karma-app/internal/domain"
	"github.com/atomisadev/karma-app/internal/logger"
	"github.com/atomisadev/karma-app/internal/metrics"
)

// isIndulgence asks the classifier whether the transaction is a
// non-essential purchase. Only the literal "yes" counts; classifier
// failure degrades to false so an outage never opens a challenge.
func (e *Engine) isIndulgence(ctx context.Context, tx *domain.Transaction) bool {
	out, err := classifier.Classify(ctx, e.gateway, indulgenceSystemInstruction,
		buildIndulgencePrompt(tx.Name, tx.Category))
	if err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("transaction_id", tx.ExternalID).
			Msg("Indulgence classification unavailable, treating as non-indulgence")
		metrics.ClassifierCalls.WithLabelValues("indulgence", "error").Inc()
		return false
	}
	metrics.ClassifierCalls.WithLabelValues("indulgence", "ok").Inc()
	return out == "yes"
}

// suggestChallenge asks the classifier for a one-sentence challenge
// instruction. Returns "" on failure or empty output; the caller then
// silently skips challenge creation. The raw Complete call is used
// here so the instruction keeps its casing.
func (e *Engine) suggestChallenge(ctx context.Context, recent []domain.Transaction, indulgence *domain.Transaction) string {
	out, err := e.gateway.Complete(ctx, suggestSystemInstruction,
		buildSuggestPrompt(recent, indulgence))
	if err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("transaction_id", indulgence.ExternalID).
			Msg("Challenge suggestion unavailable, skipping challenge")
		metrics.ClassifierCalls.WithLabelValues("suggest", "error").Inc()
		return ""
	}
	metrics.ClassifierCalls.WithLabelValues("suggest", "ok").Inc()
	return classifier.StripQuotes(out)
}

// violatesInstruction asks the classifier whether the transaction
// violates the active challenge. Only the literal "violation" counts;
// anything else, including failure, is a pass.
func (e *Engine) violatesInstruction(ctx context.Context, instruction string, tx *domain.Transaction) bool {
	out, err := classifier.Classify(ctx, e.gateway, violationSystemInstruction,
		buildViolationPrompt(instruction, tx))
	if err != nil {
		logger.FromContext(ctx).Warn().
			Err(err).
			Str("transaction_id", tx.ExternalID).
			Msg("Violation check unavailable, treating as pass")
		metrics.ClassifierCalls.WithLabelValues("violation", "error").Inc()
		return false
	}
	metrics.ClassifierCalls.WithLabelValues("violation", "ok").Inc()
	return out == "violation"
}
