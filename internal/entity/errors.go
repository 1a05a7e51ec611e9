package entity

import "errors"

// Domain errors for the progress and engagement aggregates.
var (
	ErrInvalidQuality      = errors.New("quality must be between 0 and 5")
	ErrUnknownSessionType  = errors.New("unknown session type")
	ErrInvalidPairCount    = errors.New("pair count must be positive")
	ErrSessionNotFound     = errors.New("practice session not found")
	ErrSessionCompleted    = errors.New("practice session already completed")
	ErrSessionTypeMismatch = errors.New("operation not valid for this session type")
	ErrPhraseNotFound      = errors.New("phrase not found")
	ErrReviewNotFound      = errors.New("flashcard review not found")
)
