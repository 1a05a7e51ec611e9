package repository

import (
	"context"

	"github.com/eslsoft/parla/internal/entity"
)

// PhraseCatalog is the consumed face of the external phrase service. The
// engine only needs point lookups and random samples for puzzle building.
type PhraseCatalog interface {
	// Get returns entity.ErrPhraseNotFound for unknown ids.
	Get(ctx context.Context, id int64) (*entity.Phrase, error)
	// SampleForUser returns up to n distinct phrases owned by the user.
	SampleForUser(ctx context.Context, userID int64, n int) ([]*entity.Phrase, error)
	// SampleGlobal returns up to n distinct phrases from the whole catalog.
	SampleGlobal(ctx context.Context, n int) ([]*entity.Phrase, error)
}
