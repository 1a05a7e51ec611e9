package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eslsoft/parla/internal/entity"
)

func newReviewUsecaseForTest(repo *fakeReviewRepo, now time.Time) *reviewUsecase {
	uc := NewReviewUsecase(repo).(*reviewUsecase)
	uc.clock = func() time.Time { return now }
	return uc
}

func TestSubmitReviewCreatesStateLazily(t *testing.T) {
	repo := newFakeReviewRepo()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	uc := newReviewUsecaseForTest(repo, now)

	state, err := uc.SubmitReview(context.Background(), 7, 101, 5)
	if err != nil {
		t.Fatalf("SubmitReview returned error: %v", err)
	}
	if state.ID == 0 {
		t.Error("expected persisted state to have an id")
	}
	if state.Repetitions != 1 || state.IntervalDays != 1 {
		t.Errorf("expected rep=1 interval=1, got rep=%d interval=%d", state.Repetitions, state.IntervalDays)
	}
	if state.TotalReviews != 1 || state.CorrectReviews != 1 {
		t.Errorf("expected 1/1 reviews, got %d/%d", state.CorrectReviews, state.TotalReviews)
	}
	if !state.NextReviewAt.Equal(now.AddDate(0, 0, 1)) {
		t.Errorf("expected next review tomorrow, got %v", state.NextReviewAt)
	}
}

func TestSubmitReviewUpdatesExistingState(t *testing.T) {
	repo := newFakeReviewRepo()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	uc := newReviewUsecaseForTest(repo, now)

	first, err := uc.SubmitReview(context.Background(), 7, 101, 5)
	if err != nil {
		t.Fatalf("first SubmitReview: %v", err)
	}
	second, err := uc.SubmitReview(context.Background(), 7, 101, 4)
	if err != nil {
		t.Fatalf("second SubmitReview: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same state id %d, got %d", first.ID, second.ID)
	}
	if second.IntervalDays != 6 || second.Repetitions != 2 {
		t.Errorf("expected interval=6 rep=2, got interval=%d rep=%d", second.IntervalDays, second.Repetitions)
	}
}

func TestSubmitReviewRejectsInvalidQualityBeforeMutation(t *testing.T) {
	repo := newFakeReviewRepo()
	uc := newReviewUsecaseForTest(repo, time.Now())

	_, err := uc.SubmitReview(context.Background(), 7, 101, 9)
	if !errors.Is(err, entity.ErrInvalidQuality) {
		t.Fatalf("expected ErrInvalidQuality, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Error("expected no state to be created for invalid input")
	}
}

func TestListDueCapsAndOrders(t *testing.T) {
	repo := newFakeReviewRepo()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	uc := newReviewUsecaseForTest(repo, now)

	for i := 0; i < DuePageSize+5; i++ {
		state := entity.NewReviewState(7, int64(200+i), now.Add(-time.Duration(i)*time.Hour))
		if _, err := repo.Create(context.Background(), state); err != nil {
			t.Fatalf("seed review: %v", err)
		}
	}
	// One in the future must not show up.
	future := entity.NewReviewState(7, 999, now.Add(48*time.Hour))
	if _, err := repo.Create(context.Background(), future); err != nil {
		t.Fatalf("seed future review: %v", err)
	}

	due, err := uc.ListDue(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("ListDue returned error: %v", err)
	}
	if len(due) != DuePageSize {
		t.Fatalf("expected %d due reviews, got %d", DuePageSize, len(due))
	}
	for i := 1; i < len(due); i++ {
		if due[i].NextReviewAt.Before(due[i-1].NextReviewAt) {
			t.Fatal("expected due reviews ordered by next review ascending")
		}
	}
	for _, state := range due {
		if state.PhraseID == 999 {
			t.Fatal("future review must not be listed as due")
		}
	}
}
