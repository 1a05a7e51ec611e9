package entity

import "time"

// AchievementType identifies a one-time unlockable milestone.
type AchievementType string

const (
	AchievementStreak7     AchievementType = "streak_7"
	AchievementStreak30    AchievementType = "streak_30"
	AchievementStreak100   AchievementType = "streak_100"
	AchievementPhrases50   AchievementType = "phrases_50"
	AchievementPhrases100  AchievementType = "phrases_100"
	AchievementPhrases500  AchievementType = "phrases_500"
	AchievementPerfect10   AchievementType = "perfect_10"
	AchievementSpeedDemon  AchievementType = "speed_demon"
	AchievementPolyglot    AchievementType = "polyglot"
	AchievementPoints1000  AchievementType = "points_1000"
	AchievementPoints5000  AchievementType = "points_5000"
	AchievementPoints10000 AchievementType = "points_10000"
)

// KnownAchievementTypes lists every supported achievement type.
var KnownAchievementTypes = []AchievementType{
	AchievementStreak7, AchievementStreak30, AchievementStreak100,
	AchievementPhrases50, AchievementPhrases100, AchievementPhrases500,
	AchievementPerfect10, AchievementSpeedDemon, AchievementPolyglot,
	AchievementPoints1000, AchievementPoints5000, AchievementPoints10000,
}

// UserEngagementState is the per-user cross-session engagement aggregate.
// Invariant: LongestStreak >= CurrentStreak.
type UserEngagementState struct {
	UserID           int64
	TotalPoints      int64
	CurrentStreak    int32
	LongestStreak    int32
	LastPracticeDate *time.Time
}

// NewUserEngagementState returns the zero state for a user who never practiced.
func NewUserEngagementState(userID int64) *UserEngagementState {
	return &UserEngagementState{UserID: userID}
}

// DailyStatistic is the per user, per calendar day activity aggregate.
// Rows accumulate across days and are never deleted.
type DailyStatistic struct {
	ID               int64
	UserID           int64
	Date             time.Time
	PhrasesPracticed int32
	CorrectAnswers   int32
	PracticeMinutes  int32
	PointsEarned     int64
	StreakMaintained bool
}

// Achievement is a write-once unlock record, unique per user and type.
type Achievement struct {
	ID         int64
	UserID     int64
	Type       AchievementType
	AchievedAt time.Time
}

// StatsSummary aggregates a range of daily statistics.
type StatsSummary struct {
	From              time.Time
	To                time.Time
	Days              int
	PhrasesPracticed  int64
	CorrectAnswers    int64
	PracticeMinutes   int64
	PointsEarned      int64
	MeanDailyAccuracy float64
	MedianDailyPoints float64
}

// DateOnly truncates a timestamp to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole calendar days from a to b (both truncated).
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
