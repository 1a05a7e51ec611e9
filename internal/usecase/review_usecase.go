package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
	"github.com/eslsoft/parla/pkg/keymutex"
)

// DuePageSize caps how many due reviews a single query may return.
const DuePageSize = 20

// ReviewUsecase owns the spaced-repetition state of (user, phrase) pairs.
type ReviewUsecase interface {
	// SubmitReview applies one SM-2 answer, creating the pair state lazily.
	SubmitReview(ctx context.Context, userID, phraseID int64, quality int) (*entity.ReviewState, error)
	// ListDue returns reviews scheduled at or before now, earliest first.
	ListDue(ctx context.Context, userID int64, limit int32) ([]*entity.ReviewState, error)
	ListReviews(ctx context.Context, userID int64, page repository.Pagination) ([]*entity.ReviewState, int64, error)
}

// NewReviewUsecase wires the repository with default behaviour.
func NewReviewUsecase(repo repository.ReviewRepository) ReviewUsecase {
	return &reviewUsecase{
		repo:  repo,
		locks: keymutex.New(0),
		clock: time.Now,
	}
}

type reviewUsecase struct {
	repo  repository.ReviewRepository
	locks *keymutex.KeyMutex
	clock func() time.Time
}

func (u *reviewUsecase) SubmitReview(ctx context.Context, userID, phraseID int64, quality int) (*entity.ReviewState, error) {
	// Validate before taking the lock or touching state.
	if quality < minQuality || quality > maxQuality {
		return nil, entity.ErrInvalidQuality
	}

	unlock := u.locks.Lock(reviewKey(userID, phraseID))
	defer unlock()

	now := u.clock()
	created := false
	state, err := u.repo.GetByUserPhrase(ctx, userID, phraseID)
	switch {
	case errors.Is(err, entity.ErrReviewNotFound):
		state = entity.NewReviewState(userID, phraseID, now)
		created = true
	case err != nil:
		return nil, fmt.Errorf("load review state: %w", err)
	}

	next, err := ApplySM2(*state, quality, now)
	if err != nil {
		return nil, err
	}

	if created {
		return u.repo.Create(ctx, &next)
	}
	return u.repo.Update(ctx, &next)
}

func (u *reviewUsecase) ListDue(ctx context.Context, userID int64, limit int32) ([]*entity.ReviewState, error) {
	if limit <= 0 || limit > DuePageSize {
		limit = DuePageSize
	}
	return u.repo.ListDue(ctx, userID, u.clock(), limit)
}

func (u *reviewUsecase) ListReviews(ctx context.Context, userID int64, page repository.Pagination) ([]*entity.ReviewState, int64, error) {
	page.Normalize(DuePageSize, 100)
	return u.repo.ListByUser(ctx, userID, page)
}

func reviewKey(userID, phraseID int64) string {
	return fmt.Sprintf("review/%d/%d", userID, phraseID)
}
