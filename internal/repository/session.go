package repository

import (
	"context"

	"github.com/eslsoft/parla/internal/entity"
)

// SessionRepository abstracts persistence for practice sessions and their
// answer details.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.PracticeSession) (*entity.PracticeSession, error)
	Update(ctx context.Context, session *entity.PracticeSession) (*entity.PracticeSession, error)
	// GetByID scopes by owner and returns entity.ErrSessionNotFound otherwise.
	GetByID(ctx context.Context, userID, id int64) (*entity.PracticeSession, error)
	AddDetail(ctx context.Context, detail *entity.PracticeSessionDetail) (*entity.PracticeSessionDetail, error)
	ListByUser(ctx context.Context, userID int64, page Pagination) ([]*entity.PracticeSession, int64, error)
	// CountPerfect counts completed sessions with answers and no mistakes.
	CountPerfect(ctx context.Context, userID int64) (int64, error)
}
