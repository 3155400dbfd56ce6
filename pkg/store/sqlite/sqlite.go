// Package sqlite implements store.Store on a local SQLite file, for
// development and offline use.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/typerush/textsvc/pkg/models"
	"github.com/typerush/textsvc/pkg/store"
)

// DefaultPageSize is the number of rows read per scan page.
const DefaultPageSize = 100

const createTextsTable = `
CREATE TABLE IF NOT EXISTS texts (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	content TEXT NOT NULL,
	length INTEGER
);
CREATE INDEX IF NOT EXISTS idx_texts_type_length ON texts(type, length);
`

// Store reads and writes the texts table.
type Store struct {
	db       *sql.DB
	pageSize int
}

// New opens the database and runs auto-migration.
func New(dbPath string, pageSize int) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	if _, err := db.Exec(createTextsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store db: %w", err)
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{db: db, pageSize: pageSize}, nil
}

// Scan pages through matching rows by rowid until a short page is read.
func (s *Store) Scan(ctx context.Context, f store.Filter) ([]models.TextItem, error) {
	query := `SELECT rowid, id, type, content, COALESCE(length, 0) FROM texts WHERE type = ? AND rowid > ?`
	if f.Length > 0 {
		query += ` AND length = ?`
	}
	query += ` ORDER BY rowid LIMIT ?`

	items := []models.TextItem{}
	var cursor int64
	for {
		args := []any{f.Type, cursor}
		if f.Length > 0 {
			args = append(args, f.Length)
		}
		args = append(args, s.pageSize)

		page, last, err := s.scanPage(ctx, query, args)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrBackendUnavailable, err)
		}
		items = append(items, page...)
		if len(page) < s.pageSize {
			return items, nil
		}
		cursor = last
	}
}

func (s *Store) scanPage(ctx context.Context, query string, args []any) ([]models.TextItem, int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("scan texts: %w", err)
	}
	defer rows.Close()

	var page []models.TextItem
	var last int64
	for rows.Next() {
		var it models.TextItem
		if err := rows.Scan(&last, &it.ID, &it.Type, &it.Content, &it.Length); err != nil {
			return nil, 0, fmt.Errorf("scan text row: %w", err)
		}
		page = append(page, it)
	}
	return page, last, rows.Err()
}

// Put inserts or replaces a single item.
func (s *Store) Put(ctx context.Context, it models.TextItem) error {
	var length any
	if it.Length > 0 {
		length = it.Length
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO texts (id, type, content, length) VALUES (?, ?, ?, ?)`,
		it.ID, it.Type, it.Content, length,
	)
	if err != nil {
		return fmt.Errorf("put text: %w", err)
	}
	return nil
}

// Import writes items in a single transaction.
func (s *Store) Import(ctx context.Context, items []models.TextItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO texts (id, type, content, length) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		var length any
		if it.Length > 0 {
			length = it.Length
		}
		if _, err := stmt.ExecContext(ctx, it.ID, it.Type, it.Content, length); err != nil {
			return fmt.Errorf("import %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
