package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/parla/internal/entity"
	"github.com/eslsoft/parla/internal/repository"
)

type phraseCatalog struct {
	db *pgxpool.Pool
}

// NewPhraseCatalog returns a Postgres-backed read-only phrase catalog.
func NewPhraseCatalog(db *pgxpool.Pool) repository.PhraseCatalog {
	return &phraseCatalog{db: db}
}

const phraseColumns = `id, user_id, original_text, translated_text, language, created_at`

func (c *phraseCatalog) Get(ctx context.Context, id int64) (*entity.Phrase, error) {
	row := c.db.QueryRow(ctx, `
		SELECT `+phraseColumns+`
		FROM phrases
		WHERE id = $1`,
		id,
	)
	phrase, err := scanPhrase(row)
	if err != nil {
		return nil, notFound(err, entity.ErrPhraseNotFound)
	}
	return phrase, nil
}

func (c *phraseCatalog) SampleForUser(ctx context.Context, userID int64, n int) ([]*entity.Phrase, error) {
	rows, err := c.db.Query(ctx, `
		SELECT `+phraseColumns+`
		FROM phrases
		WHERE user_id = $1
		ORDER BY random()
		LIMIT $2`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("sample user phrases: %w", err)
	}
	defer rows.Close()
	return collectPhrases(rows)
}

func (c *phraseCatalog) SampleGlobal(ctx context.Context, n int) ([]*entity.Phrase, error) {
	rows, err := c.db.Query(ctx, `
		SELECT `+phraseColumns+`
		FROM phrases
		ORDER BY random()
		LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("sample global phrases: %w", err)
	}
	defer rows.Close()
	return collectPhrases(rows)
}

func scanPhrase(row pgx.Row) (*entity.Phrase, error) {
	var phrase entity.Phrase
	err := row.Scan(
		&phrase.ID, &phrase.UserID,
		&phrase.OriginalText, &phrase.TranslatedText,
		&phrase.Language, &phrase.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &phrase, nil
}

func collectPhrases(rows pgx.Rows) ([]*entity.Phrase, error) {
	var phrases []*entity.Phrase
	for rows.Next() {
		phrase, err := scanPhrase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan phrase: %w", err)
		}
		phrases = append(phrases, phrase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phrases: %w", err)
	}
	return phrases, nil
}
