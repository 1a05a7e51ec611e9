package entity

// MatchingCard is one side of a matching puzzle. The same phrase id appears on
// both sides; a pair is correct when the player joins the two halves of one
// phrase.
type MatchingCard struct {
	PhraseID int64
	Text     string
}

// MatchingRound is an issued puzzle: a matching session plus the two card
// lists the player sees. Left keeps selection order, right is shuffled.
type MatchingRound struct {
	Session *PracticeSession
	Left    []MatchingCard
	Right   []MatchingCard
}

// MatchSubmission is one pair the player claims to have matched.
type MatchSubmission struct {
	LeftID  int64
	RightID int64
}

// MatchVerdict is the per-pair outcome of a check. Error is set for pairs
// referencing phrases that were not part of the issued round; such pairs do
// not touch the session aggregates.
type MatchVerdict struct {
	LeftID  int64
	RightID int64
	Correct bool
	Error   string
}

// MatchingResult is the outcome of checking a batch of submissions.
type MatchingResult struct {
	Session       *PracticeSession
	Verdicts      []MatchVerdict
	CheckedPairs  int32
	CorrectPairs  int32
	PointsAwarded int32
}
