package httpapi

import (
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/parla/internal/entity"
)

// JSON views of the domain entities. The wire shape is part of the API
// contract and decoupled from the entity structs on purpose.

type reviewView struct {
	ID             int64      `json:"id"`
	PhraseID       int64      `json:"phrase_id"`
	Repetitions    int32      `json:"repetitions"`
	IntervalDays   int32      `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	TotalReviews   int32      `json:"total_reviews"`
	CorrectReviews int32      `json:"correct_reviews"`
	Accuracy       float64    `json:"accuracy"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

func toReviewView(state *entity.ReviewState) reviewView {
	return reviewView{
		ID:             state.ID,
		PhraseID:       state.PhraseID,
		Repetitions:    state.Repetitions,
		IntervalDays:   state.IntervalDays,
		EaseFactor:     state.EaseFactor,
		NextReviewAt:   state.NextReviewAt,
		TotalReviews:   state.TotalReviews,
		CorrectReviews: state.CorrectReviews,
		Accuracy:       state.Accuracy(),
		LastReviewedAt: state.LastReviewedAt,
	}
}

type sessionView struct {
	ID               int64          `json:"id"`
	Type             string         `json:"type"`
	ModeData         map[string]any `json:"mode_data,omitempty"`
	PhrasesPracticed int32          `json:"phrases_practiced"`
	CorrectAnswers   int32          `json:"correct_answers"`
	IncorrectAnswers int32          `json:"incorrect_answers"`
	PointsEarned     int32          `json:"points_earned"`
	DurationSeconds  int32          `json:"duration_seconds"`
	Completed        bool           `json:"completed"`
	StartedAt        time.Time      `json:"started_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
}

func toSessionView(session *entity.PracticeSession) sessionView {
	return sessionView{
		ID:               session.ID,
		Type:             string(session.Type),
		ModeData:         session.ModeData,
		PhrasesPracticed: session.PhrasesPracticed,
		CorrectAnswers:   session.CorrectAnswers,
		IncorrectAnswers: session.IncorrectAnswers,
		PointsEarned:     session.PointsEarned,
		DurationSeconds:  session.DurationSeconds,
		Completed:        session.Completed,
		StartedAt:        session.StartedAt,
		CompletedAt:      session.CompletedAt,
	}
}

type engagementView struct {
	UserID           int64      `json:"user_id"`
	TotalPoints      int64      `json:"total_points"`
	CurrentStreak    int32      `json:"current_streak"`
	LongestStreak    int32      `json:"longest_streak"`
	LastPracticeDate *time.Time `json:"last_practice_date,omitempty"`
}

func toEngagementView(state *entity.UserEngagementState) *engagementView {
	if state == nil {
		return nil
	}
	return &engagementView{
		UserID:           state.UserID,
		TotalPoints:      state.TotalPoints,
		CurrentStreak:    state.CurrentStreak,
		LongestStreak:    state.LongestStreak,
		LastPracticeDate: state.LastPracticeDate,
	}
}

type achievementView struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	AchievedAt time.Time `json:"achieved_at"`
}

type dailyStatView struct {
	Date             string `json:"date"`
	PhrasesPracticed int32  `json:"phrases_practiced"`
	CorrectAnswers   int32  `json:"correct_answers"`
	PracticeMinutes  int32  `json:"practice_minutes"`
	PointsEarned     int64  `json:"points_earned"`
	StreakMaintained bool   `json:"streak_maintained"`
}

func toDailyStatView(stat *entity.DailyStatistic) dailyStatView {
	return dailyStatView{
		Date:             stat.Date.Format(time.DateOnly),
		PhrasesPracticed: stat.PhrasesPracticed,
		CorrectAnswers:   stat.CorrectAnswers,
		PracticeMinutes:  stat.PracticeMinutes,
		PointsEarned:     stat.PointsEarned,
		StreakMaintained: stat.StreakMaintained,
	}
}

type matchingCardView struct {
	PhraseID int64  `json:"phrase_id"`
	Text     string `json:"text"`
}

type matchingRoundView struct {
	Session sessionView        `json:"session"`
	Left    []matchingCardView `json:"left"`
	Right   []matchingCardView `json:"right"`
}

func toMatchingRoundView(round *entity.MatchingRound) matchingRoundView {
	toCards := func(cards []entity.MatchingCard) []matchingCardView {
		return lo.Map(cards, func(c entity.MatchingCard, _ int) matchingCardView {
			return matchingCardView{PhraseID: c.PhraseID, Text: c.Text}
		})
	}
	return matchingRoundView{
		Session: toSessionView(round.Session),
		Left:    toCards(round.Left),
		Right:   toCards(round.Right),
	}
}

type matchVerdictView struct {
	LeftID  int64  `json:"left_id"`
	RightID int64  `json:"right_id"`
	Correct bool   `json:"correct"`
	Error   string `json:"error,omitempty"`
}

type matchingResultView struct {
	Session       sessionView        `json:"session"`
	Verdicts      []matchVerdictView `json:"verdicts"`
	CheckedPairs  int32              `json:"checked_pairs"`
	CorrectPairs  int32              `json:"correct_pairs"`
	PointsAwarded int32              `json:"points_awarded"`
}

func toMatchingResultView(result *entity.MatchingResult) matchingResultView {
	return matchingResultView{
		Session: toSessionView(result.Session),
		Verdicts: lo.Map(result.Verdicts, func(v entity.MatchVerdict, _ int) matchVerdictView {
			return matchVerdictView{LeftID: v.LeftID, RightID: v.RightID, Correct: v.Correct, Error: v.Error}
		}),
		CheckedPairs:  result.CheckedPairs,
		CorrectPairs:  result.CorrectPairs,
		PointsAwarded: result.PointsAwarded,
	}
}

type pagedView[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}
