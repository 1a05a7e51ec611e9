package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
)

type sessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed SessionRepository.
func NewSessionRepository(db *pgxpool.Pool) repository.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, user_id, session_type, mode_data, phrases_practiced,
	correct_answers, incorrect_answers, points_earned, duration_seconds,
	completed, started_at, completed_at`

func (r *sessionRepository) Create(ctx context.Context, session *entity.PracticeSession) (*entity.PracticeSession, error) {
	modeData, err := marshalModeData(session.ModeData)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO practice_sessions (
			user_id, session_type, mode_data, phrases_practiced,
			correct_answers, incorrect_answers, points_earned, duration_seconds,
			completed, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+sessionColumns,
		session.UserID, session.Type, modeData, session.PhrasesPracticed,
		session.CorrectAnswers, session.IncorrectAnswers, session.PointsEarned, session.DurationSeconds,
		session.Completed, session.StartedAt, session.CompletedAt,
	)
	created, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return created, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.PracticeSession) (*entity.PracticeSession, error) {
	modeData, err := marshalModeData(session.ModeData)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
		UPDATE practice_sessions SET
			mode_data = $1, phrases_practiced = $2, correct_answers = $3,
			incorrect_answers = $4, points_earned = $5, duration_seconds = $6,
			completed = $7, completed_at = $8
		WHERE id = $9 AND user_id = $10
		RETURNING `+sessionColumns,
		modeData, session.PhrasesPracticed, session.CorrectAnswers,
		session.IncorrectAnswers, session.PointsEarned, session.DurationSeconds,
		session.Completed, session.CompletedAt,
		session.ID, session.UserID,
	)
	updated, err := scanSession(row)
	if err != nil {
		return nil, notFound(err, entity.ErrSessionNotFound)
	}
	return updated, nil
}

func (r *sessionRepository) GetByID(ctx context.Context, userID, id int64) (*entity.PracticeSession, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM practice_sessions
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	session, err := scanSession(row)
	if err != nil {
		return nil, notFound(err, entity.ErrSessionNotFound)
	}
	return session, nil
}

func (r *sessionRepository) AddDetail(ctx context.Context, detail *entity.PracticeSessionDetail) (*entity.PracticeSessionDetail, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO practice_session_details (
			session_id, phrase_id, was_correct, response_time_seconds, answered_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, phrase_id, was_correct, response_time_seconds, answered_at`,
		detail.SessionID, detail.PhraseID, detail.WasCorrect, detail.ResponseTimeSeconds, detail.AnsweredAt,
	)
	var created entity.PracticeSessionDetail
	if err := row.Scan(
		&created.ID, &created.SessionID, &created.PhraseID,
		&created.WasCorrect, &created.ResponseTimeSeconds, &created.AnsweredAt,
	); err != nil {
		return nil, fmt.Errorf("insert session detail: %w", err)
	}
	return &created, nil
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID int64, page repository.Pagination) ([]*entity.PracticeSession, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM practice_sessions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM practice_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, page.PageSize, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.PracticeSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, total, nil
}

func (r *sessionRepository) CountPerfect(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM practice_sessions
		WHERE user_id = $1 AND completed AND phrases_practiced > 0 AND incorrect_answers = 0`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count perfect sessions: %w", err)
	}
	return count, nil
}

func scanSession(row pgx.Row) (*entity.PracticeSession, error) {
	var (
		session entity.PracticeSession
		raw     []byte
	)
	err := row.Scan(
		&session.ID, &session.UserID, &session.Type, &raw,
		&session.PhrasesPracticed, &session.CorrectAnswers, &session.IncorrectAnswers,
		&session.PointsEarned, &session.DurationSeconds,
		&session.Completed, &session.StartedAt, &session.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &session.ModeData); err != nil {
			return nil, fmt.Errorf("decode mode data: %w", err)
		}
	}
	return &session, nil
}

func marshalModeData(modeData map[string]any) ([]byte, error) {
	if modeData == nil {
		return nil, nil
	}
	raw, err := json.Marshal(modeData)
	if err != nil {
		return nil, fmt.Errorf("encode mode data: %w", err)
	}
	return raw, nil
}
