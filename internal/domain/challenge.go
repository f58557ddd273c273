package domain

import (
	"cloud.google.com/go/civil"
)

// Challenge is a one-day spending-avoidance directive. At most one is
// active per user at any time. The challenge targets exactly the
// calendar day after DateSet; once any transaction is observed two or
// more days after DateSet the challenge is stale and must be resolved.
type Challenge struct {
	// Instruction is the natural-language directive, e.g.
	// "since you recently spent on entertainment, your challenge for
	// tomorrow is to avoid coffee shops."
	Instruction string

	// CategoryToAvoid is the older category-based representation. It is
	// still persisted when present but the engine judges violations
	// against Instruction only.
	CategoryToAvoid string

	// DateSet is the calendar date the challenge was created.
	DateSet civil.Date
}

// ChallengeDay returns the day the challenge applies to: the day
// immediately after DateSet.
func (c *Challenge) ChallengeDay() civil.Date {
	return c.DateSet.AddDays(1)
}

// StaleAsOf reports whether a transaction observed on date makes the
// challenge stale (the evaluation window has fully elapsed).
func (c *Challenge) StaleAsOf(date civil.Date) bool {
	return !date.Before(c.DateSet.AddDays(2))
}
