package entity

import "time"

// Phrase is a user's saved phrase with its translation. The catalog that owns
// phrases (search, categories, translation lookup) is an external collaborator;
// the engine only reads them for puzzles and review scheduling.
type Phrase struct {
	ID             int64
	UserID         int64
	OriginalText   string
	TranslatedText string
	Language       string
	CreatedAt      time.Time
}
