package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
	"github.com/eslsoft/parla/pkg/keymutex"
)

var (
	streakAchievements = []struct {
		Threshold int32
		Type      entity.AchievementType
	}{
		{100, entity.AchievementStreak100},
		{30, entity.AchievementStreak30},
		{7, entity.AchievementStreak7},
	}

	pointsAchievements = []struct {
		Threshold int64
		Type      entity.AchievementType
	}{
		{10000, entity.AchievementPoints10000},
		{5000, entity.AchievementPoints5000},
		{1000, entity.AchievementPoints1000},
	}
)

const perfectSessionsThreshold = 10

// EngagementUsecase owns cross-session engagement state: streaks, points,
// daily statistics and achievements.
type EngagementUsecase interface {
	// RegisterActivity records that the user practiced today and maintains
	// the streak counters.
	RegisterActivity(ctx context.Context, userID int64) (*entity.UserEngagementState, error)
	// AddPoints adds points; non-positive amounts are a no-op returning the
	// current state.
	AddPoints(ctx context.Context, userID int64, amount int64) (*entity.UserEngagementState, error)
	// Unlock creates an achievement if absent, reporting whether it was new.
	Unlock(ctx context.Context, userID int64, typ entity.AchievementType) (bool, error)
	// RecordAnswer bumps today's statistic for one answered phrase.
	RecordAnswer(ctx context.Context, userID int64, wasCorrect bool) error
	// RecordSessionCompletion adds the session's practice minutes and runs
	// the perfect-session achievement check.
	RecordSessionCompletion(ctx context.Context, userID int64, session *entity.PracticeSession) error
	Snapshot(ctx context.Context, userID int64) (*entity.UserEngagementState, error)
	Achievements(ctx context.Context, userID int64) ([]*entity.Achievement, error)
	Leaderboard(ctx context.Context, page repository.Pagination) ([]*entity.UserEngagementState, int64, error)
	DailyStats(ctx context.Context, userID int64, from, to time.Time) ([]*entity.DailyStatistic, error)
	StatsSummary(ctx context.Context, userID int64, from, to time.Time) (*entity.StatsSummary, error)
}

// NewEngagementUsecase wires the repositories with default behaviour.
func NewEngagementUsecase(repo repository.EngagementRepository, sessions repository.SessionRepository, logger *logrus.Logger) EngagementUsecase {
	return &engagementUsecase{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
		locks:    keymutex.New(0),
		clock:    time.Now,
	}
}

type engagementUsecase struct {
	repo     repository.EngagementRepository
	sessions repository.SessionRepository
	logger   *logrus.Logger
	locks    *keymutex.KeyMutex
	clock    func() time.Time
}

func (u *engagementUsecase) RegisterActivity(ctx context.Context, userID int64) (*entity.UserEngagementState, error) {
	unlock := u.locks.Lock(engagementKey(userID))
	defer unlock()

	state, err := u.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := entity.DateOnly(u.clock())
	switch {
	case state.LastPracticeDate == nil:
		state.CurrentStreak = 1
	case entity.DaysBetween(*state.LastPracticeDate, today) == 0:
		// Already registered today; streak unchanged.
	case entity.DaysBetween(*state.LastPracticeDate, today) == 1:
		state.CurrentStreak++
	default:
		state.CurrentStreak = 1
	}
	state.LastPracticeDate = &today
	if state.LongestStreak < state.CurrentStreak {
		state.LongestStreak = state.CurrentStreak
	}

	state, err = u.repo.UpsertState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("save engagement state: %w", err)
	}

	maintained := state.CurrentStreak > 1
	if _, err := u.repo.UpsertDailyStat(ctx, userID, today, repository.DailyStatDelta{StreakMaintained: &maintained}); err != nil {
		return nil, fmt.Errorf("update daily statistic: %w", err)
	}

	u.checkStreakAchievements(ctx, state)
	return state, nil
}

func (u *engagementUsecase) AddPoints(ctx context.Context, userID int64, amount int64) (*entity.UserEngagementState, error) {
	unlock := u.locks.Lock(engagementKey(userID))
	defer unlock()

	state, err := u.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return state, nil
	}

	state.TotalPoints += amount
	state, err = u.repo.UpsertState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("save engagement state: %w", err)
	}

	today := entity.DateOnly(u.clock())
	if _, err := u.repo.UpsertDailyStat(ctx, userID, today, repository.DailyStatDelta{PointsEarned: amount}); err != nil {
		return nil, fmt.Errorf("update daily statistic: %w", err)
	}

	u.checkPointsAchievements(ctx, state)
	return state, nil
}

func (u *engagementUsecase) Unlock(ctx context.Context, userID int64, typ entity.AchievementType) (bool, error) {
	return u.repo.UnlockAchievement(ctx, userID, typ, u.clock())
}

func (u *engagementUsecase) RecordAnswer(ctx context.Context, userID int64, wasCorrect bool) error {
	delta := repository.DailyStatDelta{PhrasesPracticed: 1}
	if wasCorrect {
		delta.CorrectAnswers = 1
	}
	_, err := u.repo.UpsertDailyStat(ctx, userID, entity.DateOnly(u.clock()), delta)
	return err
}

func (u *engagementUsecase) RecordSessionCompletion(ctx context.Context, userID int64, session *entity.PracticeSession) error {
	if minutes := session.DurationSeconds / 60; minutes > 0 {
		delta := repository.DailyStatDelta{PracticeMinutes: minutes}
		if _, err := u.repo.UpsertDailyStat(ctx, userID, entity.DateOnly(u.clock()), delta); err != nil {
			return fmt.Errorf("update daily statistic: %w", err)
		}
	}
	u.checkPerfectSessions(ctx, userID, session)
	return nil
}

func (u *engagementUsecase) Snapshot(ctx context.Context, userID int64) (*entity.UserEngagementState, error) {
	return u.loadState(ctx, userID)
}

func (u *engagementUsecase) Achievements(ctx context.Context, userID int64) ([]*entity.Achievement, error) {
	return u.repo.ListAchievements(ctx, userID)
}

func (u *engagementUsecase) Leaderboard(ctx context.Context, page repository.Pagination) ([]*entity.UserEngagementState, int64, error) {
	page.Normalize(20, 100)
	return u.repo.Leaderboard(ctx, page)
}

func (u *engagementUsecase) DailyStats(ctx context.Context, userID int64, from, to time.Time) ([]*entity.DailyStatistic, error) {
	return u.repo.ListDailyStats(ctx, userID, entity.DateOnly(from), entity.DateOnly(to))
}

func (u *engagementUsecase) StatsSummary(ctx context.Context, userID int64, from, to time.Time) (*entity.StatsSummary, error) {
	daily, err := u.repo.ListDailyStats(ctx, userID, entity.DateOnly(from), entity.DateOnly(to))
	if err != nil {
		return nil, err
	}

	summary := &entity.StatsSummary{
		From: entity.DateOnly(from),
		To:   entity.DateOnly(to),
		Days: len(daily),
	}

	accuracies := make([]float64, 0, len(daily))
	points := make([]float64, 0, len(daily))
	for _, day := range daily {
		summary.PhrasesPracticed += int64(day.PhrasesPracticed)
		summary.CorrectAnswers += int64(day.CorrectAnswers)
		summary.PracticeMinutes += int64(day.PracticeMinutes)
		summary.PointsEarned += day.PointsEarned
		if day.PhrasesPracticed > 0 {
			accuracies = append(accuracies, float64(day.CorrectAnswers)/float64(day.PhrasesPracticed))
		}
		points = append(points, float64(day.PointsEarned))
	}

	if len(accuracies) > 0 {
		if mean, err := stats.Mean(accuracies); err == nil {
			summary.MeanDailyAccuracy = mean
		}
	}
	if len(points) > 0 {
		if median, err := stats.Median(points); err == nil {
			summary.MedianDailyPoints = median
		}
	}
	return summary, nil
}

func (u *engagementUsecase) loadState(ctx context.Context, userID int64) (*entity.UserEngagementState, error) {
	state, err := u.repo.GetState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load engagement state: %w", err)
	}
	if state == nil {
		state = entity.NewUserEngagementState(userID)
	}
	return state, nil
}

// Achievement checks are best effort: a failure is logged and swallowed so it
// can never roll back the streak or points write that triggered it.

func (u *engagementUsecase) checkStreakAchievements(ctx context.Context, state *entity.UserEngagementState) {
	for _, tier := range streakAchievements {
		if state.CurrentStreak < tier.Threshold {
			continue
		}
		if _, err := u.repo.UnlockAchievement(ctx, state.UserID, tier.Type, u.clock()); err != nil {
			u.logWarn(state.UserID, tier.Type, err)
		}
	}
}

func (u *engagementUsecase) checkPointsAchievements(ctx context.Context, state *entity.UserEngagementState) {
	for _, tier := range pointsAchievements {
		if state.TotalPoints < tier.Threshold {
			continue
		}
		if _, err := u.repo.UnlockAchievement(ctx, state.UserID, tier.Type, u.clock()); err != nil {
			u.logWarn(state.UserID, tier.Type, err)
		}
	}
}

func (u *engagementUsecase) checkPerfectSessions(ctx context.Context, userID int64, session *entity.PracticeSession) {
	if !session.Perfect() {
		return
	}
	count, err := u.sessions.CountPerfect(ctx, userID)
	if err != nil {
		u.logWarn(userID, entity.AchievementPerfect10, err)
		return
	}
	if count < perfectSessionsThreshold {
		return
	}
	if _, err := u.repo.UnlockAchievement(ctx, userID, entity.AchievementPerfect10, u.clock()); err != nil {
		u.logWarn(userID, entity.AchievementPerfect10, err)
	}
}

func (u *engagementUsecase) logWarn(userID int64, typ entity.AchievementType, err error) {
	if u.logger == nil {
		return
	}
	u.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"achievement": typ,
	}).Warnf("achievement check failed: %v", err)
}

func engagementKey(userID int64) string {
	return fmt.Sprintf("engagement/%d", userID)
}
