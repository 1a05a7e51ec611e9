package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
)

type reviewRepository struct {
	db *pgxpool.Pool
}

// NewReviewRepository returns a Postgres-backed ReviewRepository.
func NewReviewRepository(db *pgxpool.Pool) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewColumns = `id, user_id, phrase_id, repetitions, interval_days, ease_factor,
	next_review_at, total_reviews, correct_reviews, last_reviewed_at, created_at, updated_at`

func (r *reviewRepository) Create(ctx context.Context, state *entity.ReviewState) (*entity.ReviewState, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO flashcard_reviews (
			user_id, phrase_id, repetitions, interval_days, ease_factor,
			next_review_at, total_reviews, correct_reviews, last_reviewed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+reviewColumns,
		state.UserID, state.PhraseID, state.Repetitions, state.IntervalDays, state.EaseFactor,
		state.NextReviewAt, state.TotalReviews, state.CorrectReviews, state.LastReviewedAt,
		state.CreatedAt, state.UpdatedAt,
	)
	created, err := scanReview(row)
	if err != nil {
		return nil, fmt.Errorf("insert review state: %w", err)
	}
	return created, nil
}

func (r *reviewRepository) Update(ctx context.Context, state *entity.ReviewState) (*entity.ReviewState, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE flashcard_reviews SET
			repetitions = $1, interval_days = $2, ease_factor = $3,
			next_review_at = $4, total_reviews = $5, correct_reviews = $6,
			last_reviewed_at = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10
		RETURNING `+reviewColumns,
		state.Repetitions, state.IntervalDays, state.EaseFactor,
		state.NextReviewAt, state.TotalReviews, state.CorrectReviews,
		state.LastReviewedAt, state.UpdatedAt,
		state.ID, state.UserID,
	)
	updated, err := scanReview(row)
	if err != nil {
		return nil, notFound(err, entity.ErrReviewNotFound)
	}
	return updated, nil
}

func (r *reviewRepository) GetByUserPhrase(ctx context.Context, userID, phraseID int64) (*entity.ReviewState, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+reviewColumns+`
		FROM flashcard_reviews
		WHERE user_id = $1 AND phrase_id = $2`,
		userID, phraseID,
	)
	state, err := scanReview(row)
	if err != nil {
		return nil, notFound(err, entity.ErrReviewNotFound)
	}
	return state, nil
}

func (r *reviewRepository) ListDue(ctx context.Context, userID int64, now time.Time, limit int32) ([]*entity.ReviewState, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM flashcard_reviews
		WHERE user_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC
		LIMIT $3`,
		userID, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list due reviews: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID int64, page repository.Pagination) ([]*entity.ReviewState, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM flashcard_reviews WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM flashcard_reviews
		WHERE user_id = $1
		ORDER BY next_review_at ASC, id ASC
		LIMIT $2 OFFSET $3`,
		userID, page.PageSize, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	states, err := collectReviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return states, total, nil
}

func scanReview(row pgx.Row) (*entity.ReviewState, error) {
	var state entity.ReviewState
	err := row.Scan(
		&state.ID, &state.UserID, &state.PhraseID,
		&state.Repetitions, &state.IntervalDays, &state.EaseFactor,
		&state.NextReviewAt, &state.TotalReviews, &state.CorrectReviews,
		&state.LastReviewedAt, &state.CreatedAt, &state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func collectReviews(rows pgx.Rows) ([]*entity.ReviewState, error) {
	var states []*entity.ReviewState
	for rows.Next() {
		state, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review states: %w", err)
	}
	return states, nil
}
