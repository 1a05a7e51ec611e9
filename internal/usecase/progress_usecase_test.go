package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/parla/internal/entity"
)

type progressFixture struct {
	progress   ProgressUsecase
	reviews    *fakeReviewRepo
	sessions   *fakeSessionRepo
	engagement *fakeEngagementRepo
	catalog    *fakePhraseCatalog
	now        *time.Time
}

func newProgressFixture() *progressFixture {
	now := time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reviewRepo := newFakeReviewRepo()
	sessionRepo := newFakeSessionRepo()
	engagementRepo := newFakeEngagementRepo()
	catalog := newFakePhraseCatalog(seedPhrases(1, 8)...)

	sessions := NewSessionUsecase(sessionRepo).(*sessionUsecase)
	sessions.clock = clock
	reviews := NewReviewUsecase(reviewRepo).(*reviewUsecase)
	reviews.clock = clock
	matching := NewMatchingUsecase(sessions, catalog)
	engagement := NewEngagementUsecase(engagementRepo, sessionRepo, logger).(*engagementUsecase)
	engagement.clock = clock

	return &progressFixture{
		progress:   NewProgressUsecase(sessions, reviews, matching, engagement, logger),
		reviews:    reviewRepo,
		sessions:   sessionRepo,
		engagement: engagementRepo,
		catalog:    catalog,
		now:        &now,
	}
}

func (f *progressFixture) startSession(t *testing.T, typ string) *entity.PracticeSession {
	t.Helper()
	session, err := f.sessions.Create(context.Background(), &entity.PracticeSession{
		UserID:    1,
		Type:      entity.SessionType(typ),
		StartedAt: *f.now,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

func TestSubmitAnswerUpdatesAllEngines(t *testing.T) {
	f := newProgressFixture()
	session := f.startSession(t, "flashcard")

	quality := 5
	result, err := f.progress.SubmitAnswer(context.Background(), SubmitAnswerCommand{
		UserID:     1,
		SessionID:  session.ID,
		PhraseID:   101,
		WasCorrect: true,
		Quality:    &quality,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer returned error: %v", err)
	}

	if result.PointsAwarded != DefaultBasePoints {
		t.Errorf("expected %d points, got %d", DefaultBasePoints, result.PointsAwarded)
	}
	if result.Session.CorrectAnswers != 1 || result.Session.PhrasesPracticed != 1 {
		t.Errorf("unexpected session aggregates: %+v", result.Session)
	}
	if result.Review == nil {
		t.Fatal("expected review state for flashcard answer with quality")
	}
	if result.Review.Repetitions != 1 || result.Review.IntervalDays != 1 {
		t.Errorf("expected rep=1 interval=1, got rep=%d interval=%d", result.Review.Repetitions, result.Review.IntervalDays)
	}
	if result.Engagement == nil {
		t.Fatal("expected engagement snapshot")
	}
	if result.Engagement.TotalPoints != int64(DefaultBasePoints) {
		t.Errorf("expected %d total points, got %d", DefaultBasePoints, result.Engagement.TotalPoints)
	}
	if result.Engagement.CurrentStreak != 1 {
		t.Errorf("expected streak 1, got %d", result.Engagement.CurrentStreak)
	}

	stats, err := f.engagement.ListDailyStats(context.Background(), 1, entity.DateOnly(*f.now), entity.DateOnly(*f.now))
	if err != nil {
		t.Fatalf("ListDailyStats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected one daily statistic, got %d", len(stats))
	}
	if stats[0].PhrasesPracticed != 1 || stats[0].CorrectAnswers != 1 {
		t.Errorf("unexpected daily counters: %+v", stats[0])
	}
}

func TestSubmitAnswerSkipsSchedulerOutsideFlashcards(t *testing.T) {
	f := newProgressFixture()
	session := f.startSession(t, "quiz")

	quality := 4
	result, err := f.progress.SubmitAnswer(context.Background(), SubmitAnswerCommand{
		UserID:     1,
		SessionID:  session.ID,
		PhraseID:   101,
		WasCorrect: true,
		Quality:    &quality,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer returned error: %v", err)
	}
	if result.Review != nil {
		t.Error("quiz answers must not touch the scheduler")
	}
	if len(f.reviews.items) != 0 {
		t.Error("expected no review state to be written")
	}
}

func TestSubmitAnswerRejectsInvalidQualityBeforeMutation(t *testing.T) {
	f := newProgressFixture()
	session := f.startSession(t, "flashcard")

	quality := 6
	_, err := f.progress.SubmitAnswer(context.Background(), SubmitAnswerCommand{
		UserID:     1,
		SessionID:  session.ID,
		PhraseID:   101,
		WasCorrect: true,
		Quality:    &quality,
	})
	if !errors.Is(err, entity.ErrInvalidQuality) {
		t.Fatalf("expected ErrInvalidQuality, got %v", err)
	}

	unchanged, err := f.sessions.GetByID(context.Background(), 1, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if unchanged.PhrasesPracticed != 0 {
		t.Error("invalid answer must not touch the session")
	}
	if len(f.sessions.details) != 0 {
		t.Error("invalid answer must not record a detail")
	}
}

func TestSubmitAnswerToleratesEngagementFailure(t *testing.T) {
	f := newProgressFixture()
	f.engagement.statErr = errors.New("statistics store down")
	session := f.startSession(t, "flashcard")

	result, err := f.progress.SubmitAnswer(context.Background(), SubmitAnswerCommand{
		UserID:     1,
		SessionID:  session.ID,
		PhraseID:   101,
		WasCorrect: true,
	})
	if err != nil {
		t.Fatalf("SubmitAnswer returned error: %v", err)
	}
	if result.Session.CorrectAnswers != 1 {
		t.Error("session write must survive engagement failure")
	}
}

func TestSubmitMatchesAggregatesEngagement(t *testing.T) {
	f := newProgressFixture()
	session := f.startSession(t, "matching")
	session.ModeData = map[string]any{modeKeyPhraseIDs: []int64{1, 2, 3}}
	if _, err := f.sessions.Update(context.Background(), session); err != nil {
		t.Fatalf("seed mode data: %v", err)
	}

	matches := []entity.MatchSubmission{
		{LeftID: 1, RightID: 1},
		{LeftID: 2, RightID: 3},
	}
	result, err := f.progress.SubmitMatches(context.Background(), 1, session.ID, matches)
	if err != nil {
		t.Fatalf("SubmitMatches returned error: %v", err)
	}
	if result.CheckedPairs != 2 || result.CorrectPairs != 1 {
		t.Fatalf("expected 2 checked / 1 correct, got %d/%d", result.CheckedPairs, result.CorrectPairs)
	}

	state, err := f.engagement.GetState(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state == nil || state.TotalPoints != int64(MatchingBasePoints) {
		t.Fatalf("expected %d total points, got %+v", MatchingBasePoints, state)
	}

	stats, err := f.engagement.ListDailyStats(context.Background(), 1, entity.DateOnly(*f.now), entity.DateOnly(*f.now))
	if err != nil {
		t.Fatalf("ListDailyStats: %v", err)
	}
	if len(stats) != 1 || stats[0].PhrasesPracticed != 2 || stats[0].CorrectAnswers != 1 {
		t.Fatalf("unexpected daily counters: %+v", stats)
	}
}

func TestCompleteSessionRecordsMinutes(t *testing.T) {
	f := newProgressFixture()
	session := f.startSession(t, "flashcard")

	*f.now = f.now.Add(7 * time.Minute)
	completed, err := f.progress.CompleteSession(context.Background(), 1, session.ID)
	if err != nil {
		t.Fatalf("CompleteSession returned error: %v", err)
	}
	if !completed.Completed {
		t.Fatal("expected session to be completed")
	}

	stats, err := f.engagement.ListDailyStats(context.Background(), 1, entity.DateOnly(*f.now), entity.DateOnly(*f.now))
	if err != nil {
		t.Fatalf("ListDailyStats: %v", err)
	}
	if len(stats) != 1 || stats[0].PracticeMinutes != 7 {
		t.Fatalf("expected 7 practice minutes, got %+v", stats)
	}
}
