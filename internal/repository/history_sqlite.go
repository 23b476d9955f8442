package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"imagination-site-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite.
type SQLiteHistoryRepository struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// NewSQLiteHistoryRepository opens (and creates) the history database at
// dbPath, e.g. "./data/history.db".
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_time_format=sqlite", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteHistoryRepository] Initialized with database: %s", dbPath)
	return &SQLiteHistoryRepository{db: db, path: dbPath}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS refresh_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		region TEXT NOT NULL,
		outcome TEXT NOT NULL,
		item_count INTEGER NOT NULL DEFAULT 0,
		total_visits INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_created_at ON refresh_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_history_region ON refresh_history(region);
	`
	_, err := db.Exec(query)
	return err
}

// Record inserts rec and sets its ID.
func (r *SQLiteHistoryRepository) Record(ctx context.Context, rec *model.RefreshRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO refresh_history (region, outcome, item_count, total_visits, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		rec.Region, rec.Outcome, rec.ItemCount, rec.TotalVisits,
		nullString(rec.ErrorMessage), rec.DurationMs, createdAtOrNow(rec))
	if err != nil {
		return fmt.Errorf("failed to insert refresh record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read record id: %w", err)
	}
	rec.ID = id
	return nil
}

// Recent returns the newest records first.
func (r *SQLiteHistoryRepository) Recent(ctx context.Context, limit int) ([]model.RefreshRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + historyColumns + ` FROM refresh_history ORDER BY created_at DESC, id DESC LIMIT ?`
	return queryRecords(ctx, r.db, query, clampLimit(limit))
}

// Stats returns counts per outcome and the database size.
func (r *SQLiteHistoryRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := map[string]interface{}{"backend": "sqlite", "path": r.path}
	if err := outcomeStats(ctx, r.db, stats); err != nil {
		return nil, err
	}

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// DeleteOlderThan removes records created before now minus age.
func (r *SQLiteHistoryRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-age).UTC()

	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (r *SQLiteHistoryRepository) Close() error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ HistoryRepository = (*SQLiteHistoryRepository)(nil)
