package entity

import "time"

// DefaultEaseFactor is the SM-2 starting ease for a fresh review.
const DefaultEaseFactor = 2.5

// ReviewState holds the spaced-repetition state for one (user, phrase) pair.
// There is at most one per pair; it is created lazily on the first answer.
type ReviewState struct {
	ID           int64
	UserID       int64
	PhraseID     int64
	Repetitions  int32
	IntervalDays int32
	EaseFactor   float64

	NextReviewAt time.Time

	TotalReviews   int32
	CorrectReviews int32
	LastReviewedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewReviewState returns the initial state for a pair: due immediately,
// interval one day, ease 2.5.
func NewReviewState(userID, phraseID int64, now time.Time) *ReviewState {
	return &ReviewState{
		UserID:       userID,
		PhraseID:     phraseID,
		Repetitions:  0,
		IntervalDays: 1,
		EaseFactor:   DefaultEaseFactor,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Accuracy returns the correct/total ratio, zero when nothing was reviewed yet.
func (r *ReviewState) Accuracy() float64 {
	if r.TotalReviews == 0 {
		return 0
	}
	return float64(r.CorrectReviews) / float64(r.TotalReviews)
}
