package persistence

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// lookupChunk keeps IN lists well below SQLite's variable limit.
const lookupChunk = 400

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore is the translation memory: finished translations keyed by
// backend, language pair and source text.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		// embed.FS paths always use forward slashes
		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func textHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// LookupTranslations returns the stored translation for every text found.
// Texts without a stored translation are absent from the map.
func (s *SQLiteStore) LookupTranslations(ctx context.Context, backend, source, target string, texts []string) (map[string]string, error) {
	found := make(map[string]string)

	byHash := make(map[string]string, len(texts))
	hashes := make([]string, 0, len(texts))
	for _, text := range texts {
		h := textHash(text)
		if _, ok := byHash[h]; ok {
			continue
		}
		byHash[h] = text
		hashes = append(hashes, h)
	}

	for start := 0; start < len(hashes); start += lookupChunk {
		chunk := hashes[start:min(start+lookupChunk, len(hashes))]

		args := make([]any, 0, len(chunk)+3)
		args = append(args, backend, source, target)
		for _, h := range chunk {
			args = append(args, h)
		}

		rows, err := s.db.QueryContext(
			ctx,
			`SELECT text_hash, translated_text
			 FROM translations
			 WHERE backend = ? AND source_lang = ? AND target_lang = ?
			   AND text_hash IN (`+placeholders(len(chunk))+`)`,
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("query translations: %w", err)
		}
		for rows.Next() {
			var h, translated string
			if err := rows.Scan(&h, &translated); err != nil {
				_ = rows.Close()
				return nil, err
			}
			found[byHash[h]] = translated
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return nil, err
		}
		_ = rows.Close()
	}
	return found, nil
}

// SaveTranslations upserts translations (source text -> translated text) in
// one transaction.
func (s *SQLiteStore) SaveTranslations(ctx context.Context, backend, source, target string, translations map[string]string) error {
	if len(translations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO translations (
			backend, source_lang, target_lang, text_hash, source_text, translated_text, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(backend, source_lang, target_lang, text_hash) DO UPDATE SET
			source_text=excluded.source_text,
			translated_text=excluded.translated_text,
			updated_at=excluded.updated_at`,
	)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now().Unix()
	for text, translated := range translations {
		if _, err := stmt.ExecContext(ctx, backend, source, target, textHash(text), text, translated, now); err != nil {
			return fmt.Errorf("save translation: %w", err)
		}
	}
	return tx.Commit()
}

// PruneTranslations deletes translations not refreshed since before.
func (s *SQLiteStore) PruneTranslations(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translations WHERE updated_at < ?`, before.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountTranslations returns the number of stored translations.
func (s *SQLiteStore) CountTranslations(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`).Scan(&n)
	return n, err
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
