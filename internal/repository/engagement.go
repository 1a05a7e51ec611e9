package repository

import (
	"context"
	"time"

	"github.com/eslsoft/parla/internal/entity"
)

// DailyStatDelta describes an idempotent increment applied to one user's
// daily statistic row. Counters add onto the stored row; StreakMaintained
// overwrites the flag when non-nil.
type DailyStatDelta struct {
	PhrasesPracticed int32
	CorrectAnswers   int32
	PracticeMinutes  int32
	PointsEarned     int64
	StreakMaintained *bool
}

// EngagementRepository abstracts persistence for engagement state, daily
// statistics and achievements.
type EngagementRepository interface {
	// GetState returns the stored state or nil when the user has none yet.
	GetState(ctx context.Context, userID int64) (*entity.UserEngagementState, error)
	UpsertState(ctx context.Context, state *entity.UserEngagementState) (*entity.UserEngagementState, error)
	UpsertDailyStat(ctx context.Context, userID int64, date time.Time, delta DailyStatDelta) (*entity.DailyStatistic, error)
	ListDailyStats(ctx context.Context, userID int64, from, to time.Time) ([]*entity.DailyStatistic, error)
	// UnlockAchievement creates the record if absent and reports whether a new
	// one was created. Never updates an existing record.
	UnlockAchievement(ctx context.Context, userID int64, typ entity.AchievementType, at time.Time) (bool, error)
	ListAchievements(ctx context.Context, userID int64) ([]*entity.Achievement, error)
	// Leaderboard lists engagement states ordered by total points descending.
	Leaderboard(ctx context.Context, page Pagination) ([]*entity.UserEngagementState, int64, error)
}
