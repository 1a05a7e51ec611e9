package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func Test_loadSeedFile_filtersInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	payload := `[
		{"user_id": 1, "original_text": " hola ", "translated_text": "hello", "language": "es"},
		{"user_id": 0, "original_text": "dropped", "translated_text": "dropped"},
		{"user_id": 2, "original_text": "  ", "translated_text": "blank original"},
		{"user_id": 2, "original_text": "adios", "translated_text": "goodbye", "language": "es"}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	records, err := loadSeedFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records got %d", len(records))
	}
	if records[0].OriginalText != "hola" || records[0].TranslatedText != "hello" {
		t.Fatalf("expected trimmed first record, got %+v", records[0])
	}
	if records[1].UserID != 2 || records[1].OriginalText != "adios" {
		t.Fatalf("bad second record: %+v", records[1])
	}
}

func Test_loadSeedFile_badJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadSeedFile(path); err == nil {
		t.Fatal("expected error for malformed seed file")
	}
}

func Test_normalizeTables(t *testing.T) {
	got := normalizeTables([]string{" Phrases ", "", "USER_ENGAGEMENT", "  "})
	want := []string{"phrases", "user_engagement"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if normalizeTables(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
