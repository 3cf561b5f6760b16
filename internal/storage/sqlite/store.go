package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS page_bindings (
	page_id    TEXT PRIMARY KEY,
	data_json  BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store provides SQLite-backed persistence for page bindings.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the store at path, creating the database and its schema when
// missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Bindings returns the stored bindings of a page. A page without stored
// bindings yields a nil map and no error.
func (s *Store) Bindings(ctx context.Context, pageID string) (map[string]any, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return nil, fmt.Errorf("page id is required")
	}

	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT data_json FROM page_bindings WHERE page_id = ?`, pageID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bindings: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode bindings for %q: %w", pageID, err)
	}
	return data, nil
}

// PutBindings replaces the stored bindings of a page.
func (s *Store) PutBindings(ctx context.Context, pageID string, data map[string]any) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return fmt.Errorf("page id is required")
	}
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode bindings for %q: %w", pageID, err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO page_bindings (page_id, data_json, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(page_id) DO UPDATE SET
		    data_json = excluded.data_json,
		    updated_at = excluded.updated_at`,
		pageID, payload, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put bindings: %w", err)
	}
	return nil
}

// DeleteBindings removes the stored bindings of a page.
func (s *Store) DeleteBindings(ctx context.Context, pageID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return fmt.Errorf("page id is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM page_bindings WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("delete bindings: %w", err)
	}
	return nil
}

// PageIDs lists the pages that have stored bindings, sorted by id.
func (s *Store) PageIDs(ctx context.Context) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT page_id FROM page_bindings ORDER BY page_id`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan page id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return ids, nil
}
