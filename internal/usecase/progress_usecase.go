package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/parla/internal/entity"
)

// SubmitAnswerCommand is one answer event entering the engine.
type SubmitAnswerCommand struct {
	UserID              int64
	SessionID           int64
	PhraseID            int64
	WasCorrect          bool
	ResponseTimeSeconds *int32
	// Quality is optional; when set on a flashcard session the SM-2 scheduler
	// is updated for this (user, phrase) pair.
	Quality *int
}

// AnswerResult is the consolidated outcome of one answer event.
type AnswerResult struct {
	Detail        *entity.PracticeSessionDetail
	Session       *entity.PracticeSession
	Review        *entity.ReviewState
	Engagement    *entity.UserEngagementState
	PointsAwarded int32
}

// ProgressUsecase is the single entry point for answer events. It sequences
// session tracking, review scheduling and engagement updates; each entity
// update is atomic on its own, partial completion across entities is
// tolerated per the recovery policy.
type ProgressUsecase interface {
	SubmitAnswer(ctx context.Context, cmd SubmitAnswerCommand) (*AnswerResult, error)
	// SubmitMatches scores a matching batch and applies engagement updates.
	SubmitMatches(ctx context.Context, userID, sessionID int64, matches []entity.MatchSubmission) (*entity.MatchingResult, error)
	// CompleteSession closes the session and records its engagement effects.
	CompleteSession(ctx context.Context, userID, sessionID int64) (*entity.PracticeSession, error)
}

// NewProgressUsecase wires the three engines behind one facade.
func NewProgressUsecase(sessions SessionUsecase, reviews ReviewUsecase, matching MatchingUsecase, engagement EngagementUsecase, logger *logrus.Logger) ProgressUsecase {
	return &progressUsecase{
		sessions:   sessions,
		reviews:    reviews,
		matching:   matching,
		engagement: engagement,
		logger:     logger,
	}
}

type progressUsecase struct {
	sessions   SessionUsecase
	reviews    ReviewUsecase
	matching   MatchingUsecase
	engagement EngagementUsecase
	logger     *logrus.Logger
}

func (u *progressUsecase) SubmitAnswer(ctx context.Context, cmd SubmitAnswerCommand) (*AnswerResult, error) {
	// Validation happens before any mutation.
	if cmd.Quality != nil && (*cmd.Quality < minQuality || *cmd.Quality > maxQuality) {
		return nil, entity.ErrInvalidQuality
	}

	detail, session, awarded, err := u.sessions.RecordDetail(ctx, cmd.UserID, cmd.SessionID, cmd.PhraseID, cmd.WasCorrect, cmd.ResponseTimeSeconds)
	if err != nil {
		return nil, err
	}

	result := &AnswerResult{Detail: detail, Session: session, PointsAwarded: awarded}

	if session.Type == entity.SessionFlashcard && cmd.Quality != nil {
		review, err := u.reviews.SubmitReview(ctx, cmd.UserID, cmd.PhraseID, *cmd.Quality)
		if err != nil {
			return nil, err
		}
		result.Review = review
	}

	result.Engagement = u.applyEngagement(ctx, cmd.UserID, 1, boolToCount(cmd.WasCorrect), int64(awarded))
	return result, nil
}

func (u *progressUsecase) SubmitMatches(ctx context.Context, userID, sessionID int64, matches []entity.MatchSubmission) (*entity.MatchingResult, error) {
	result, err := u.matching.Check(ctx, userID, sessionID, matches)
	if err != nil {
		return nil, err
	}
	if result.CheckedPairs > 0 {
		u.applyEngagement(ctx, userID, result.CheckedPairs, result.CorrectPairs, int64(result.PointsAwarded))
	}
	return result, nil
}

func (u *progressUsecase) CompleteSession(ctx context.Context, userID, sessionID int64) (*entity.PracticeSession, error) {
	session, err := u.sessions.Complete(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := u.engagement.RecordSessionCompletion(ctx, userID, session); err != nil {
		u.logEngagementErr(userID, err)
	}
	return session, nil
}

// applyEngagement runs the engagement side of an answer batch. Engagement
// failures never undo the session or scheduler writes; they are logged and
// the caller gets whatever snapshot is available.
func (u *progressUsecase) applyEngagement(ctx context.Context, userID int64, answered, correct int32, points int64) *entity.UserEngagementState {
	for i := int32(0); i < answered; i++ {
		if err := u.engagement.RecordAnswer(ctx, userID, i < correct); err != nil {
			u.logEngagementErr(userID, err)
			break
		}
	}

	state, err := u.engagement.RegisterActivity(ctx, userID)
	if err != nil {
		u.logEngagementErr(userID, err)
	}

	if points > 0 {
		if updated, err := u.engagement.AddPoints(ctx, userID, points); err != nil {
			u.logEngagementErr(userID, err)
		} else {
			state = updated
		}
	}
	return state
}

func (u *progressUsecase) logEngagementErr(userID int64, err error) {
	if u.logger == nil {
		return
	}
	u.logger.WithField("user_id", userID).Warnf("engagement update failed: %v", err)
}

func boolToCount(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
