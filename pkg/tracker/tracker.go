package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/typerush/textsvc/pkg/models"
)

// Tracker records and queries served generation requests.
type Tracker interface {
	// Record stores one generation outcome.
	Record(ctx context.Context, rec models.GenerationRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error)
	// Summary returns per-type aggregates.
	Summary(ctx context.Context) ([]models.GenerationSummary, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS generations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type INTEGER NOT NULL,
	count INTEGER NOT NULL,
	elapsed_ms REAL NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_generations_type ON generations(type);
`

// New creates a SQLiteTracker and runs auto-migration.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate tracker db: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// Record stores a generation record. A zero CreatedAt is set to now.
func (t *SQLiteTracker) Record(ctx context.Context, rec models.GenerationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = models.StatusOK
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO generations (type, count, elapsed_ms, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Type, rec.Count, rec.ElapsedMs, rec.Status, rec.Error, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

// Recent returns the latest records, newest first.
func (t *SQLiteTracker) Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, type, count, elapsed_ms, status, error, created_at
		 FROM generations ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var records []models.GenerationRecord
	for rows.Next() {
		var r models.GenerationRecord
		if err := rows.Scan(&r.ID, &r.Type, &r.Count, &r.ElapsedMs, &r.Status, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Summary aggregates records per content type.
func (t *SQLiteTracker) Summary(ctx context.Context) ([]models.GenerationSummary, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT type, COUNT(*),
		        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
		        AVG(elapsed_ms), MAX(elapsed_ms)
		 FROM generations GROUP BY type ORDER BY type`, models.StatusError,
	)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.GenerationSummary
	for rows.Next() {
		var s models.GenerationSummary
		if err := rows.Scan(&s.Type, &s.RequestCount, &s.ErrorCount, &s.AvgElapsedMs, &s.MaxElapsedMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Close closes the database.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}
