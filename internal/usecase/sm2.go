package usecase

import (
	"time"

	"github.com/eslsoft/parla/internal/entity"
)

const (
	// PassQuality is the lowest quality counted as a correct recall.
	PassQuality = 3
	// MinEaseFactor is the SM-2 floor for the ease factor.
	MinEaseFactor = 1.3

	minQuality = 0
	maxQuality = 5
)

// ApplySM2 computes the next review state for one answered flashcard. It is a
// pure transition: the input state is not mutated and persistence is the
// caller's concern.
//
// Quality outside [0,5] is rejected with entity.ErrInvalidQuality.
func ApplySM2(state entity.ReviewState, quality int, now time.Time) (entity.ReviewState, error) {
	if quality < minQuality || quality > maxQuality {
		return state, entity.ErrInvalidQuality
	}

	next := state
	next.TotalReviews++
	if quality >= PassQuality {
		next.CorrectReviews++
	}

	if quality < PassQuality {
		// Failed recall: back to the start, due again tomorrow.
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		// The new interval derives from the pre-update repetition count and
		// the pre-update ease factor.
		switch {
		case next.Repetitions == 0:
			next.IntervalDays = 1
		case next.Repetitions == 1:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int32(float64(next.IntervalDays) * next.EaseFactor)
		}
		next.Repetitions++
	}

	ef := next.EaseFactor + (0.1 - float64(maxQuality-quality)*(0.08+float64(maxQuality-quality)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	next.EaseFactor = ef

	next.NextReviewAt = now.AddDate(0, 0, int(next.IntervalDays))
	reviewed := now
	next.LastReviewedAt = &reviewed
	next.UpdatedAt = now

	return next, nil
}
