package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/law-makers/appcrawl/pkg/models"
)

// SQLiteStore keeps page states in a SQLite file so a crawl's change-detection
// baseline survives restarts.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS page_states (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		captured_at TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Put inserts or overwrites the state for its URL.
func (s *SQLiteStore) Put(ctx context.Context, st models.PageState) error {
	query := `
	INSERT INTO page_states (url, title, captured_at, content_hash, excerpt)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		title = excluded.title,
		captured_at = excluded.captured_at,
		content_hash = excluded.content_hash,
		excerpt = excluded.excerpt
	`
	_, err := s.db.ExecContext(ctx, query,
		st.URL, st.Title, st.CapturedAt.UTC().Format(time.RFC3339Nano), st.ContentHash, st.Excerpt)
	if err != nil {
		return fmt.Errorf("failed to store page state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, url string) (models.PageState, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, title, captured_at, content_hash, excerpt FROM page_states WHERE url = ?`, url)

	st, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PageState{}, false, nil
	}
	if err != nil {
		return models.PageState{}, false, fmt.Errorf("failed to load page state: %w", err)
	}
	return st, true, nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]models.PageState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, captured_at, content_hash, excerpt FROM page_states ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query page states: %w", err)
	}
	defer rows.Close()

	var out []models.PageState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page state: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanState(r scanner) (models.PageState, error) {
	var st models.PageState
	var captured string
	if err := r.Scan(&st.URL, &st.Title, &captured, &st.ContentHash, &st.Excerpt); err != nil {
		return models.PageState{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, captured)
	if err != nil {
		return models.PageState{}, fmt.Errorf("parse captured_at %q: %w", captured, err)
	}
	st.CapturedAt = t
	return st, nil
}
