package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// notFound maps pgx's empty-result error onto the domain sentinel for the
// entity being loaded; everything else passes through unchanged.
func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}
