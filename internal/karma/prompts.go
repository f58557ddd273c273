package karma

import (
	"fmt"
	"strings"

	"github.com/atomisadev/karma-app/internal/domain"
)

// System instructions for the three judgments. Each pins the model to
// a narrow output contract; anything off-contract is treated as the
// safe default by the caller.
const (
	indulgenceSystemInstruction = "You are a highly specialized AI for classifying financial transactions. " +
		"Your only output is 'yes' or 'no'."

	suggestSystemInstruction = "You are a financial coach. Your task is to analyze a list of recent " +
		"transactions and issue a single one-day spending-avoidance challenge. " +
		"Respond with only the challenge sentence."

	violationSystemInstruction = "You judge if a transaction violates a challenge instruction. " +
		"Output only 'violation' or 'pass'."
)

// buildIndulgencePrompt asks whether a transaction is a non-essential
// purchase. Expected output: exactly "yes" or "no".
func buildIndulgencePrompt(name string, category []string) string {
	cat := "N/A"
	if len(category) > 0 {
		cat = strings.Join(category, ", ")
	}

	var b strings.Builder
	b.WriteString("Is the following transaction typically considered an \"indulgence\" or a non-essential purchase?\n")
	fmt.Fprintf(&b, "Transaction Name: %s\n", name)
	fmt.Fprintf(&b, "Category: %s\n", cat)
	b.WriteString("Answer with only \"yes\" or \"no\" in lowercase, without any other text or punctuation.")
	return b.String()
}

// buildSuggestPrompt asks for a one-sentence challenge derived from the
// user's recent spending and the indulgence that triggered the check.
// Expected output: one sentence following the fixed template.
func buildSuggestPrompt(recent []domain.Transaction, indulgence *domain.Transaction) string {
	var b strings.Builder
	b.WriteString("Given the user's recent spending history and a recent indulgence:\n")
	b.WriteString("Recent Transactions:\n")
	for i := range recent {
		tx := &recent[i]
		fmt.Fprintf(&b, "- %s (%s)\n", tx.Name, tx.PrimaryCategory())
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Recent Indulgence: %s (%s)\n\n", indulgence.Name, indulgence.PrimaryCategory())
	b.WriteString("Pick ONE specific, non-essential spending category from the history that the user could be challenged to avoid for one day. ")
	b.WriteString("The chosen category should be a common, recurring expense.\n")
	fmt.Fprintf(&b, "Respond with EXACTLY one sentence of the form: \"Since you recently spent on %s, your challenge for tomorrow is to avoid {category}.\"\n", indulgence.PrimaryCategory())
	b.WriteString("No other text, no quotes around the sentence.")
	return b.String()
}

// buildViolationPrompt asks whether a transaction semantically violates
// the challenge instruction. Expected output: exactly "violation" or
// "pass".
func buildViolationPrompt(instruction string, tx *domain.Transaction) string {
	cat := "N/A"
	if len(tx.Category) > 0 {
		cat = strings.Join(tx.Category, ", ")
	}

	var b strings.Builder
	b.WriteString("You are judging whether a financial transaction violates the user's challenge instruction.\n")
	fmt.Fprintf(&b, "Challenge (natural language): %s\n\n", instruction)
	b.WriteString("Transaction details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", tx.Name)
	fmt.Fprintf(&b, "- Category: %s\n", cat)
	fmt.Fprintf(&b, "- Amount: %.2f\n", tx.Amount)
	fmt.Fprintf(&b, "- Channel: %s\n\n", tx.PaymentChannel)
	b.WriteString("Rules:\n")
	b.WriteString("- Consider the semantic meaning of the transaction relative to the challenge.\n")
	b.WriteString("- If the transaction reasonably fits what the challenge asks to avoid, output \"violation\".\n")
	b.WriteString("- Otherwise output \"pass\".\n")
	b.WriteString("- Output ONLY one word: \"violation\" or \"pass\".")
	return b.String()
}
