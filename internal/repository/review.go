package repository

import (
	"context"
	"time"

	"github.com/eslsoft/parla/internal/entity"
)

// ReviewRepository abstracts persistence for spaced-repetition review state.
type ReviewRepository interface {
	Create(ctx context.Context, state *entity.ReviewState) (*entity.ReviewState, error)
	Update(ctx context.Context, state *entity.ReviewState) (*entity.ReviewState, error)
	// GetByUserPhrase returns entity.ErrReviewNotFound when the pair has no state yet.
	GetByUserPhrase(ctx context.Context, userID, phraseID int64) (*entity.ReviewState, error)
	// ListDue returns states with NextReviewAt <= now, ordered ascending.
	ListDue(ctx context.Context, userID int64, now time.Time, limit int32) ([]*entity.ReviewState, error)
	ListByUser(ctx context.Context, userID int64, page Pagination) ([]*entity.ReviewState, int64, error)
}
