package domain

// Karma score bounds. The score is clamped into this range on every
// update and never leaves it, even transiently.
const (
	KarmaMin     = 300
	KarmaMax     = 850
	KarmaDefault = 500

	// KarmaDelta is the fixed adjustment applied when a challenge
	// resolves, in either direction.
	KarmaDelta = 25
)

// UserState is the single per-user document: identity, aggregator link,
// sync progress, karma score and the active challenge (if any).
type UserState struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string

	// Aggregator link. An empty AccessToken means "not linked".
	AccessToken string
	ItemID      string

	// SyncCursor is the opaque token marking progress through the
	// aggregator's change stream. Empty means "from the beginning".
	SyncCursor string

	KarmaScore      int
	ActiveChallenge *Challenge

	Budgets             map[string]float64
	OnboardingCompleted bool
}

// Linked reports whether the user has a linked aggregator account.
func (u *UserState) Linked() bool {
	return u.AccessToken != ""
}

// ClampKarma forces a score into the [KarmaMin, KarmaMax] range.
func ClampKarma(score int) int {
	if score < KarmaMin {
		return KarmaMin
	}
	if score > KarmaMax {
		return KarmaMax
	}
	return score
}
