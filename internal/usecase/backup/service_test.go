package backup

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"
)

const sqliteSchema = `
CREATE TABLE phrases (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id         INTEGER NOT NULL,
    original_text   TEXT NOT NULL,
    translated_text TEXT NOT NULL,
    language        TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL
);
CREATE TABLE flashcard_reviews (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id          INTEGER NOT NULL,
    phrase_id        INTEGER NOT NULL,
    repetitions      INTEGER NOT NULL DEFAULT 0,
    interval_days    INTEGER NOT NULL DEFAULT 1,
    ease_factor      REAL NOT NULL DEFAULT 2.5,
    next_review_at   TEXT NOT NULL,
    total_reviews    INTEGER NOT NULL DEFAULT 0,
    correct_reviews  INTEGER NOT NULL DEFAULT 0,
    last_reviewed_at TEXT,
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL,
    UNIQUE (user_id, phrase_id)
);
CREATE TABLE practice_sessions (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id           INTEGER NOT NULL,
    session_type      TEXT NOT NULL,
    mode_data         TEXT,
    phrases_practiced INTEGER NOT NULL DEFAULT 0,
    correct_answers   INTEGER NOT NULL DEFAULT 0,
    incorrect_answers INTEGER NOT NULL DEFAULT 0,
    points_earned     INTEGER NOT NULL DEFAULT 0,
    duration_seconds  INTEGER NOT NULL DEFAULT 0,
    completed         INTEGER NOT NULL DEFAULT 0,
    started_at        TEXT NOT NULL,
    completed_at      TEXT
);
CREATE TABLE practice_session_details (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id            INTEGER NOT NULL REFERENCES practice_sessions (id) ON DELETE CASCADE,
    phrase_id             INTEGER NOT NULL,
    was_correct           INTEGER NOT NULL,
    response_time_seconds INTEGER,
    answered_at           TEXT NOT NULL
);
CREATE TABLE user_engagement (
    user_id            INTEGER PRIMARY KEY,
    total_points       INTEGER NOT NULL DEFAULT 0,
    current_streak     INTEGER NOT NULL DEFAULT 0,
    longest_streak     INTEGER NOT NULL DEFAULT 0,
    last_practice_date TEXT
);
CREATE TABLE daily_statistics (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id           INTEGER NOT NULL,
    date              TEXT NOT NULL,
    phrases_practiced INTEGER NOT NULL DEFAULT 0,
    correct_answers   INTEGER NOT NULL DEFAULT 0,
    practice_minutes  INTEGER NOT NULL DEFAULT 0,
    points_earned     INTEGER NOT NULL DEFAULT 0,
    streak_maintained INTEGER NOT NULL DEFAULT 0,
    UNIQUE (user_id, date)
);
CREATE TABLE user_achievements (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id          INTEGER NOT NULL,
    achievement_type TEXT NOT NULL,
    achieved_at      TEXT NOT NULL,
    UNIQUE (user_id, achievement_type)
);
`

func openTestDB(t *testing.T, dir, name string) (*sql.DB, string) {
	t.Helper()
	dsn := "file:" + filepath.Join(dir, name) + "?_fk=1&cache=shared"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Skipf("sqlite driver not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("skipping sqlite-dependent test: %v", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dsn
}

func seedData(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		`INSERT INTO phrases (user_id, original_text, translated_text, language, created_at)
		 VALUES (7, 'hola', 'hello', 'es', '2024-05-01T08:00:00Z'),
		        (7, 'adios', 'goodbye', 'es', '2024-05-01T08:05:00Z')`,
		`INSERT INTO flashcard_reviews (user_id, phrase_id, repetitions, interval_days, ease_factor,
			next_review_at, total_reviews, correct_reviews, last_reviewed_at, created_at, updated_at)
		 VALUES (7, 1, 2, 6, 2.6, '2024-05-07T08:00:00Z', 2, 2, '2024-05-01T08:00:00Z',
		         '2024-04-25T08:00:00Z', '2024-05-01T08:00:00Z')`,
		`INSERT INTO practice_sessions (user_id, session_type, mode_data, phrases_practiced,
			correct_answers, incorrect_answers, points_earned, duration_seconds, completed, started_at, completed_at)
		 VALUES (7, 'flashcard', '{"pair_count":3}', 3, 2, 1, 20, 120, 1,
		         '2024-05-01T08:00:00Z', '2024-05-01T08:02:00Z')`,
		`INSERT INTO practice_session_details (session_id, phrase_id, was_correct, response_time_seconds, answered_at)
		 VALUES (1, 1, 1, 4, '2024-05-01T08:00:30Z'),
		        (1, 2, 0, NULL, '2024-05-01T08:01:00Z')`,
		`INSERT INTO user_engagement (user_id, total_points, current_streak, longest_streak, last_practice_date)
		 VALUES (7, 1200, 4, 9, '2024-05-01T00:00:00Z')`,
		`INSERT INTO daily_statistics (user_id, date, phrases_practiced, correct_answers,
			practice_minutes, points_earned, streak_maintained)
		 VALUES (7, '2024-05-01T00:00:00Z', 3, 2, 2, 20, 1)`,
		`INSERT INTO user_achievements (user_id, achievement_type, achieved_at)
		 VALUES (7, 'streak_7', '2024-05-01T08:02:00Z')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

// snapshot reads every row of a table as scanned strings for comparison.
func snapshot(t *testing.T, db *sql.DB, tableName string) []map[string]any {
	t.Helper()
	rows, err := db.Query("SELECT * FROM " + tableName + " ORDER BY 1")
	if err != nil {
		t.Fatalf("snapshot %s: %v", tableName, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		t.Fatalf("columns %s: %v", tableName, err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range dest {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			t.Fatalf("scan %s: %v", tableName, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate %s: %v", tableName, err)
	}
	return result
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()

	srcDB, srcDSN := openTestDB(t, t.TempDir(), "src.db")
	seedData(t, srcDB)

	exporter, err := NewService("sqlite3", srcDSN)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	var buf bytes.Buffer
	if err := exporter.Export(ctx, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	dstDB, dstDSN := openTestDB(t, t.TempDir(), "dst.db")
	importer, err := NewService("sqlite3", dstDSN)
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}
	if err := importer.Import(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	for _, tbl := range TableNames() {
		src := snapshot(t, srcDB, tbl)
		dst := snapshot(t, dstDB, tbl)
		if !reflect.DeepEqual(src, dst) {
			t.Errorf("table %s mismatch after import:\nwant %#v\ngot  %#v", tbl, src, dst)
		}
	}
}

func TestServiceImportIsIdempotent(t *testing.T) {
	ctx := context.Background()

	srcDB, srcDSN := openTestDB(t, t.TempDir(), "src.db")
	seedData(t, srcDB)

	svc, err := NewService("sqlite3", srcDSN)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	var buf bytes.Buffer
	if err := svc.Export(ctx, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	// Importing a backup into its own source must not duplicate rows.
	if err := svc.Import(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("self import failed: %v", err)
	}

	var count int
	if err := srcDB.QueryRow("SELECT COUNT(*) FROM phrases").Scan(&count); err != nil {
		t.Fatalf("count phrases: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 phrases after re-import, got %d", count)
	}
}

func TestServiceExportTablesFilter(t *testing.T) {
	ctx := context.Background()

	srcDB, srcDSN := openTestDB(t, t.TempDir(), "src.db")
	seedData(t, srcDB)

	exporter, err := NewService("sqlite3", srcDSN)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	var buf bytes.Buffer
	if err := exporter.Export(ctx, &buf, WithTables([]string{"phrases"})); err != nil {
		t.Fatalf("filtered export failed: %v", err)
	}

	dstDB, dstDSN := openTestDB(t, t.TempDir(), "dst.db")
	importer, err := NewService("sqlite3", dstDSN)
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}
	if err := importer.Import(ctx, bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("filtered import failed: %v", err)
	}

	if rows := snapshot(t, dstDB, "phrases"); len(rows) != 2 {
		t.Fatalf("expected 2 phrases, got %d", len(rows))
	}
	if rows := snapshot(t, dstDB, "practice_sessions"); len(rows) != 0 {
		t.Fatalf("expected no sessions after filtered import, got %d", len(rows))
	}
}

func TestServiceRejectsUnknownTable(t *testing.T) {
	_, dsn := openTestDB(t, t.TempDir(), "src.db")
	svc, err := NewService("sqlite3", dsn)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf, WithTables([]string{"words"})); err == nil {
		t.Fatal("expected error for unknown table")
	}
}
