package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
	"github.com/eslsoft/parla/pkg/keymutex"
)

const (
	// DefaultBasePoints is awarded per correct answer in regular sessions.
	DefaultBasePoints int32 = 10
	// MatchingBasePoints is awarded per correctly matched pair.
	MatchingBasePoints int32 = 8
)

// SessionUsecase owns the practice-session lifecycle: Open -> Completed.
type SessionUsecase interface {
	Start(ctx context.Context, userID int64, rawType string, modeData map[string]any) (*entity.PracticeSession, error)
	// RecordDetail appends one answer and updates the session aggregates.
	// Returns the detail, the updated session and the points awarded.
	RecordDetail(ctx context.Context, userID, sessionID, phraseID int64, wasCorrect bool, responseTimeSeconds *int32) (*entity.PracticeSessionDetail, *entity.PracticeSession, int32, error)
	// RecordMatch appends one matched-pair answer; correct pairs award
	// MatchingBasePoints and matches carry no response time.
	RecordMatch(ctx context.Context, userID, sessionID, phraseID int64, wasCorrect bool) (*entity.PracticeSessionDetail, *entity.PracticeSession, int32, error)
	Complete(ctx context.Context, userID, sessionID int64) (*entity.PracticeSession, error)
	Get(ctx context.Context, userID, sessionID int64) (*entity.PracticeSession, error)
	List(ctx context.Context, userID int64, page repository.Pagination) ([]*entity.PracticeSession, int64, error)
}

// NewSessionUsecase wires the repository with default behaviour.
func NewSessionUsecase(repo repository.SessionRepository) SessionUsecase {
	return &sessionUsecase{
		repo:  repo,
		locks: keymutex.New(0),
		clock: time.Now,
	}
}

type sessionUsecase struct {
	repo  repository.SessionRepository
	locks *keymutex.KeyMutex
	clock func() time.Time
}

func (u *sessionUsecase) Start(ctx context.Context, userID int64, rawType string, modeData map[string]any) (*entity.PracticeSession, error) {
	sessionType, err := entity.ParseSessionType(rawType)
	if err != nil {
		return nil, err
	}
	if modeData == nil {
		modeData = map[string]any{}
	}

	session := &entity.PracticeSession{
		UserID:    userID,
		Type:      sessionType,
		ModeData:  modeData,
		StartedAt: u.clock(),
	}
	return u.repo.Create(ctx, session)
}

func (u *sessionUsecase) RecordDetail(ctx context.Context, userID, sessionID, phraseID int64, wasCorrect bool, responseTimeSeconds *int32) (*entity.PracticeSessionDetail, *entity.PracticeSession, int32, error) {
	return u.recordDetail(ctx, userID, sessionID, phraseID, wasCorrect, responseTimeSeconds, DefaultBasePoints)
}

func (u *sessionUsecase) RecordMatch(ctx context.Context, userID, sessionID, phraseID int64, wasCorrect bool) (*entity.PracticeSessionDetail, *entity.PracticeSession, int32, error) {
	return u.recordDetail(ctx, userID, sessionID, phraseID, wasCorrect, nil, MatchingBasePoints)
}

// recordDetail is shared with the matching engine, which awards different base
// points per correct pair.
func (u *sessionUsecase) recordDetail(ctx context.Context, userID, sessionID, phraseID int64, wasCorrect bool, responseTimeSeconds *int32, basePoints int32) (*entity.PracticeSessionDetail, *entity.PracticeSession, int32, error) {
	unlock := u.locks.Lock(sessionKey(sessionID))
	defer unlock()

	session, err := u.repo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, 0, err
	}
	if session.Completed {
		return nil, nil, 0, entity.ErrSessionCompleted
	}

	detail := &entity.PracticeSessionDetail{
		SessionID:           session.ID,
		PhraseID:            phraseID,
		WasCorrect:          wasCorrect,
		ResponseTimeSeconds: responseTimeSeconds,
		AnsweredAt:          u.clock(),
	}
	detail, err = u.repo.AddDetail(ctx, detail)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("append session detail: %w", err)
	}

	var awarded int32
	session.PhrasesPracticed++
	if wasCorrect {
		session.CorrectAnswers++
		awarded = basePoints
		session.PointsEarned += awarded
	} else {
		session.IncorrectAnswers++
	}

	session, err = u.repo.Update(ctx, session)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("update session aggregates: %w", err)
	}
	return detail, session, awarded, nil
}

func (u *sessionUsecase) Complete(ctx context.Context, userID, sessionID int64) (*entity.PracticeSession, error) {
	unlock := u.locks.Lock(sessionKey(sessionID))
	defer unlock()

	session, err := u.repo.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, entity.ErrSessionCompleted
	}

	now := u.clock()
	session.Completed = true
	session.CompletedAt = &now
	if duration := now.Sub(session.StartedAt); duration > 0 {
		session.DurationSeconds = int32(duration.Seconds())
	}

	return u.repo.Update(ctx, session)
}

func (u *sessionUsecase) Get(ctx context.Context, userID, sessionID int64) (*entity.PracticeSession, error) {
	return u.repo.GetByID(ctx, userID, sessionID)
}

func (u *sessionUsecase) List(ctx context.Context, userID int64, page repository.Pagination) ([]*entity.PracticeSession, int64, error) {
	page.Normalize(20, 100)
	return u.repo.ListByUser(ctx, userID, page)
}

func sessionKey(sessionID int64) string {
	return fmt.Sprintf("session/%d", sessionID)
}
