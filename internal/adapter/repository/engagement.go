package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
)

type engagementRepository struct {
	db *pgxpool.Pool
}

// NewEngagementRepository returns a Postgres-backed EngagementRepository.
func NewEngagementRepository(db *pgxpool.Pool) repository.EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) GetState(ctx context.Context, userID int64) (*entity.UserEngagementState, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, total_points, current_streak, longest_streak, last_practice_date
		FROM user_engagement
		WHERE user_id = $1`,
		userID,
	)
	state, err := scanEngagementState(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load engagement state: %w", err)
	}
	return state, nil
}

func (r *engagementRepository) UpsertState(ctx context.Context, state *entity.UserEngagementState) (*entity.UserEngagementState, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO user_engagement (user_id, total_points, current_streak, longest_streak, last_practice_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = EXCLUDED.total_points,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_practice_date = EXCLUDED.last_practice_date
		RETURNING user_id, total_points, current_streak, longest_streak, last_practice_date`,
		state.UserID, state.TotalPoints, state.CurrentStreak, state.LongestStreak, state.LastPracticeDate,
	)
	saved, err := scanEngagementState(row)
	if err != nil {
		return nil, fmt.Errorf("save engagement state: %w", err)
	}
	return saved, nil
}

func (r *engagementRepository) UpsertDailyStat(ctx context.Context, userID int64, date time.Time, delta repository.DailyStatDelta) (*entity.DailyStatistic, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO daily_statistics (
			user_id, date, phrases_practiced, correct_answers,
			practice_minutes, points_earned, streak_maintained
		) VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, false))
		ON CONFLICT (user_id, date) DO UPDATE SET
			phrases_practiced = daily_statistics.phrases_practiced + EXCLUDED.phrases_practiced,
			correct_answers = daily_statistics.correct_answers + EXCLUDED.correct_answers,
			practice_minutes = daily_statistics.practice_minutes + EXCLUDED.practice_minutes,
			points_earned = daily_statistics.points_earned + EXCLUDED.points_earned,
			streak_maintained = COALESCE($7, daily_statistics.streak_maintained)
		RETURNING id, user_id, date, phrases_practiced, correct_answers,
			practice_minutes, points_earned, streak_maintained`,
		userID, date, delta.PhrasesPracticed, delta.CorrectAnswers,
		delta.PracticeMinutes, delta.PointsEarned, delta.StreakMaintained,
	)
	stat, err := scanDailyStat(row)
	if err != nil {
		return nil, fmt.Errorf("upsert daily statistic: %w", err)
	}
	return stat, nil
}

func (r *engagementRepository) ListDailyStats(ctx context.Context, userID int64, from, to time.Time) ([]*entity.DailyStatistic, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, date, phrases_practiced, correct_answers,
			practice_minutes, points_earned, streak_maintained
		FROM daily_statistics
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list daily statistics: %w", err)
	}
	defer rows.Close()

	var result []*entity.DailyStatistic
	for rows.Next() {
		stat, err := scanDailyStat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily statistic: %w", err)
		}
		result = append(result, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily statistics: %w", err)
	}
	return result, nil
}

func (r *engagementRepository) UnlockAchievement(ctx context.Context, userID int64, typ entity.AchievementType, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO user_achievements (user_id, achievement_type, achieved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_type) DO NOTHING`,
		userID, typ, at,
	)
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *engagementRepository) ListAchievements(ctx context.Context, userID int64) ([]*entity.Achievement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, achievement_type, achieved_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY achieved_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var result []*entity.Achievement
	for rows.Next() {
		var item entity.Achievement
		if err := rows.Scan(&item.ID, &item.UserID, &item.Type, &item.AchievedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return result, nil
}

func (r *engagementRepository) Leaderboard(ctx context.Context, page repository.Pagination) ([]*entity.UserEngagementState, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM user_engagement`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count engagement states: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT user_id, total_points, current_streak, longest_streak, last_practice_date
		FROM user_engagement
		ORDER BY total_points DESC, user_id ASC
		LIMIT $1 OFFSET $2`,
		page.PageSize, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list leaderboard: %w", err)
	}
	defer rows.Close()

	var result []*entity.UserEngagementState
	for rows.Next() {
		state, err := scanEngagementState(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan engagement state: %w", err)
		}
		result = append(result, state)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate engagement states: %w", err)
	}
	return result, total, nil
}

func scanEngagementState(row pgx.Row) (*entity.UserEngagementState, error) {
	var state entity.UserEngagementState
	err := row.Scan(
		&state.UserID, &state.TotalPoints,
		&state.CurrentStreak, &state.LongestStreak, &state.LastPracticeDate,
	)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func scanDailyStat(row pgx.Row) (*entity.DailyStatistic, error) {
	var stat entity.DailyStatistic
	err := row.Scan(
		&stat.ID, &stat.UserID, &stat.Date,
		&stat.PhrasesPracticed, &stat.CorrectAnswers,
		&stat.PracticeMinutes, &stat.PointsEarned, &stat.StreakMaintained,
	)
	if err != nil {
		return nil, err
	}
	return &stat, nil
}
