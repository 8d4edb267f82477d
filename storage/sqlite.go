// Package storage provides SQLite scan storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStorage implements ScanStorage using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Each connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			cycle INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			completed_at INTEGER NOT NULL,
			suppliers INTEGER NOT NULL,
			safe INTEGER NOT NULL,
			critical INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			suppressed INTEGER NOT NULL,
			avg_risk REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_scans_completed
		ON scans(completed_at DESC);

		CREATE TABLE IF NOT EXISTS scan_scores (
			scan_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (scan_id, position)
		);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveScan stores one record and its scores.
func (s *SqliteStorage) SaveScan(ctx context.Context, rec ScanRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO scans
			(id, cycle, started_at, completed_at, suppliers, safe, critical, skipped, suppressed, avg_risk)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Cycle, rec.StartedAt.UnixNano(), rec.CompletedAt.UnixNano(),
		rec.Suppliers, rec.Safe, rec.Critical, rec.Skipped, rec.Suppressed, rec.AvgRisk,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	// Clear existing scores for this scan
	if _, err := tx.ExecContext(ctx, "DELETE FROM scan_scores WHERE scan_id = ?", rec.ID); err != nil {
		return fmt.Errorf("failed to clear old scores: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO scan_scores (scan_id, position, score) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, score := range rec.Scores {
		if _, err := stmt.ExecContext(ctx, rec.ID, i, score); err != nil {
			return fmt.Errorf("failed to insert score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecentScans returns up to limit records, newest first.
func (s *SqliteStorage) RecentScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	query := `
		SELECT id, cycle, started_at, completed_at, suppliers, safe, critical, skipped, suppressed, avg_risk
		FROM scans ORDER BY completed_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var started, completed int64
		if err := rows.Scan(&rec.ID, &rec.Cycle, &started, &completed,
			&rec.Suppliers, &rec.Safe, &rec.Critical, &rec.Skipped, &rec.Suppressed, &rec.AvgRisk); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.StartedAt = time.Unix(0, started)
		rec.CompletedAt = time.Unix(0, completed)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}
	rows.Close()

	for i := range records {
		scores, err := s.scores(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Scores = scores
	}
	return records, nil
}

func (s *SqliteStorage) scores(ctx context.Context, scanID string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT score FROM scan_scores WHERE scan_id = ? ORDER BY position", scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// Summary aggregates all records.
func (s *SqliteStorage) Summary(ctx context.Context) (ScanSummary, error) {
	var sum ScanSummary
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(suppliers), 0), COALESCE(SUM(critical), 0), MAX(completed_at)
		FROM scans`).Scan(&sum.Scans, &sum.TotalScanned, &sum.TotalCritical, &last)
	if err != nil {
		return ScanSummary{}, fmt.Errorf("failed to summarize scans: %w", err)
	}
	if last.Valid {
		sum.LastScan = time.Unix(0, last.Int64)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, "SELECT AVG(score) FROM scan_scores").Scan(&avg); err != nil {
		return ScanSummary{}, fmt.Errorf("failed to average scores: %w", err)
	}
	if avg.Valid {
		sum.AvgRisk = avg.Float64
	}
	return sum, nil
}

// Reset removes every record.
func (s *SqliteStorage) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM scan_scores"); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM scans"); err != nil {
		return fmt.Errorf("failed to clear scans: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Verify SqliteStorage implements ScanStorage
var _ ScanStorage = (*SqliteStorage)(nil)
