package entity

import (
	"strings"
	"time"
)

// SessionType identifies the practice mode of a session.
type SessionType string

const (
	SessionFlashcard SessionType = "flashcard"
	SessionTimed     SessionType = "timed"
	SessionMatching  SessionType = "matching"
	SessionQuiz      SessionType = "quiz"
)

// ParseSessionType converts an arbitrary string into a supported session type.
func ParseSessionType(raw string) (SessionType, error) {
	switch SessionType(strings.ToLower(strings.TrimSpace(raw))) {
	case SessionFlashcard:
		return SessionFlashcard, nil
	case SessionTimed:
		return SessionTimed, nil
	case SessionMatching:
		return SessionMatching, nil
	case SessionQuiz:
		return SessionQuiz, nil
	default:
		return "", ErrUnknownSessionType
	}
}

// PracticeSession aggregates the answers of one practice run.
// Lifecycle: created open, mutated by detail events, completed once (terminal).
// Invariant: PhrasesPracticed == CorrectAnswers + IncorrectAnswers.
type PracticeSession struct {
	ID       int64
	UserID   int64
	Type     SessionType
	ModeData map[string]any

	PhrasesPracticed int32
	CorrectAnswers   int32
	IncorrectAnswers int32
	PointsEarned     int32
	DurationSeconds  int32

	Completed   bool
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Perfect reports whether the session had answers and none of them wrong.
func (s *PracticeSession) Perfect() bool {
	return s.PhrasesPracticed > 0 && s.IncorrectAnswers == 0
}

// PracticeSessionDetail is the immutable record of a single answer.
type PracticeSessionDetail struct {
	ID                  int64
	SessionID           int64
	PhraseID            int64
	WasCorrect          bool
	ResponseTimeSeconds *int32
	AnsweredAt          time.Time
}
