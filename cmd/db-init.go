/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/eslsoft/parla/internal/infrastructure/config"
	"github.com/eslsoft/parla/internal/infrastructure/database"
)

// dbInitCmd applies the database schema and optionally seeds the phrase catalog.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Initialize the database schema and optionally seed phrases",
	Long:  "Applies the database migrations. With --seed, also loads phrases from a JSON file into the catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		seedPath, _ := cmd.Flags().GetString("seed")
		batch, _ := cmd.Flags().GetInt("batch")
		if err := runMigrations(); err != nil {
			return err
		}
		if seedPath == "" {
			return nil
		}
		return seedPhrases(cmd.Context(), seedPath, batch)
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().String("seed", "", "path to a JSON file with phrases to seed")
	dbInitCmd.Flags().Int("batch", 1000, "batch size for seed inserts")
}

// seedPhrase mirrors the phrases table columns the seed file may set.
type seedPhrase struct {
	UserID         int64  `json:"user_id"`
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
	Language       string `json:"language"`
}

func runMigrations() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pool, cleanup, err := database.NewConnection(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	log.Println("database migrations applied")
	return nil
}

func seedPhrases(ctx context.Context, path string, batchSize int) error {
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	records, err := loadSeedFile(path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Println("seed file contains no phrases")
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return err
	}
	defer pool.Close()

	if batchSize < 1 {
		batchSize = 1000
	}
	total := 0
	for offset := 0; offset < len(records); offset += batchSize {
		end := offset + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := insertSeedBatch(ctx, pool, records[offset:end]); err != nil {
			return err
		}
		total += end - offset
		log.Printf("seeded %d phrases", total)
	}
	log.Printf("seeding complete: %d phrases in %s", total, time.Since(start))
	return nil
}

func loadSeedFile(path string) ([]seedPhrase, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []seedPhrase
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	valid := records[:0]
	for _, r := range records {
		if r.UserID <= 0 {
			continue
		}
		r.OriginalText = strings.TrimSpace(r.OriginalText)
		r.TranslatedText = strings.TrimSpace(r.TranslatedText)
		if r.OriginalText == "" || r.TranslatedText == "" {
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

func insertSeedBatch(ctx context.Context, pool *pgxpool.Pool, records []seedPhrase) error {
	if len(records) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, r := range records {
		b.Queue(`INSERT INTO phrases (user_id, original_text, translated_text, language)
				VALUES ($1, $2, $3, $4)`,
			r.UserID, r.OriginalText, r.TranslatedText, r.Language)
	}
	br := pool.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}
