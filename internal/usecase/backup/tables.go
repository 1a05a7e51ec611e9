package backup

// columnKind drives value conversion between database/sql and NDJSON.
type columnKind int

const (
	kindBool columnKind = iota
	kindInt
	kindFloat
	kindString
	kindTime
	kindJSON
)

type column struct {
	Name      string
	Kind      columnKind
	Nullable  bool
	Increment bool
}

type table struct {
	Name    string
	Columns []column
	// ConflictColumns identify a row across databases (primary key or a
	// unique constraint); used to build the import upsert.
	ConflictColumns []string
}

// registry describes every table the engine owns, in dependency order so an
// import can satisfy foreign keys in one pass.
var registry = []table{
	{
		Name: "phrases",
		Columns: []column{
			{Name: "id", Kind: kindInt, Increment: true},
			{Name: "user_id", Kind: kindInt},
			{Name: "original_text", Kind: kindString},
			{Name: "translated_text", Kind: kindString},
			{Name: "language", Kind: kindString},
			{Name: "created_at", Kind: kindTime},
		},
		ConflictColumns: []string{"id"},
	},
	{
		Name: "flashcard_reviews",
		Columns: []column{
			{Name: "id", Kind: kindInt, Increment: true},
			{Name: "user_id", Kind: kindInt},
			{Name: "phrase_id", Kind: kindInt},
			{Name: "repetitions", Kind: kindInt},
			{Name: "interval_days", Kind: kindInt},
			{Name: "ease_factor", Kind: kindFloat},
			{Name: "next_review_at", Kind: kindTime},
			{Name: "total_reviews", Kind: kindInt},
			{Name: "correct_reviews", Kind: kindInt},
			{Name: "last_reviewed_at", Kind: kindTime, Nullable: true},
			{Name: "created_at", Kind: kindTime},
			{Name: "updated_at", Kind: kindTime},
		},
		ConflictColumns: []string{"user_id", "phrase_id"},
	},
	{
		Name: "practice_sessions",
		Columns: []column{
			{Name: "id", Kind: kindInt, Increment: true},
			{Name: "user_id", Kind: kindInt},
			{Name: "session_type", Kind: kindString},
			{Name: "mode_data", Kind: kindJSON, Nullable: true},
			{Name: "phrases_practiced", Kind: kindInt},
			{Name: "correct_answers", Kind: kindInt},
			{Name: "incorrect_answers", Kind: kindInt},
			{Name: "points_earned", Kind: kindInt},
			{Name: "duration_seconds", Kind: kindInt},
			{Name: "completed", Kind: kindBool},
			{Name: "started_at", Kind: kindTime},
			{Name: "completed_at", Kind: kindTime, Nullable: true},
		},
		ConflictColumns: []string{"id"},
	},
	{
		Name: "practice_session_details",
		Columns: []column{
			{Name: "id", Kind: kindInt, Increment: true},
			{Name: "session_id", Kind: kindInt},
			{Name: "phrase_id", Kind: kindInt},
			{Name: "was_correct", Kind: kindBool},
			{Name: "response_time_seconds", Kind: kindInt, Nullable: true},
			{Name: "answered_at", Kind: kindTime},
		},
		ConflictColumns: []string{"id"},
	},
	{
		Name: "user_engagement",
		Columns: []column{
			{Name: "user_id", Kind: kindInt},
			{Name: "total_points", Kind: kindInt},
			{Name: "current_streak", Kind: kindInt},
			{Name: "longest_streak", Kind: kindInt},
			{Name: "last_practice_date", Kind: kindTime, Nullable: true},
		},
		ConflictColumns: []string{"user_id"},
	},
	{
		Name: "daily_statistics",
		Columns: []column{
			{Name: "id", Kind: kindInt, Increment: true},
			{Name: "user_id", Kind: kindInt},
			{Name: "date", Kind: kindTime},
			{Name: "phrases_practiced", Kind: kindInt},
			{Name: "correct_answers", Kind: kindInt},
			{Name: "practice_minutes", Kind: kindInt},
			{Name: "points_earned", Kind: kindInt},
			{Name: "streak_maintained", Kind: kindBool},
		},
		ConflictColumns: []string{"user_id", "date"},
	},
	{
		Name: "user_achievements",
		Columns: []column{
			{Name: "id", Kind: kindInt, Increment: true},
			{Name: "user_id", Kind: kindInt},
			{Name: "achievement_type", Kind: kindString},
			{Name: "achieved_at", Kind: kindTime},
		},
		ConflictColumns: []string{"user_id", "achievement_type"},
	},
}

// TableNames lists every table the backup format covers.
func TableNames() []string {
	names := make([]string, len(registry))
	for i, tbl := range registry {
		names[i] = tbl.Name
	}
	return names
}

func (t *table) columnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

func (t *table) findColumn(name string) *column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}
