package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"imagination-site-api/internal/model"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLHistoryRepository implements HistoryRepository using MySQL.
type MySQLHistoryRepository struct {
	db *sql.DB
}

// NewMySQLHistoryRepository connects to MySQL. The DSN must set
// parseTime=true.
func NewMySQLHistoryRepository(dsn string) (*MySQLHistoryRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[MySQLHistoryRepository] Initialized")
	return &MySQLHistoryRepository{db: db}, nil
}

// Indexes are declared inline: the driver runs one statement per Exec.
func createMySQLTables(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS refresh_history (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		region VARCHAR(32) NOT NULL,
		outcome VARCHAR(16) NOT NULL,
		item_count INT NOT NULL DEFAULT 0,
		total_visits BIGINT NOT NULL DEFAULT 0,
		error_message TEXT,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL,
		INDEX idx_history_created_at (created_at),
		INDEX idx_history_region (region)
	)`
	_, err := db.ExecContext(ctx, query)
	return err
}

// Record inserts rec and sets its ID.
func (r *MySQLHistoryRepository) Record(ctx context.Context, rec *model.RefreshRecord) error {
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
func (r *MySQLHistoryRepository) Recent(ctx context.Context, limit int) ([]model.RefreshRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM refresh_history ORDER BY created_at DESC, id DESC LIMIT ?`
	return queryRecords(ctx, r.db, query, clampLimit(limit))
}

// Stats returns counts per outcome and pool usage.
func (r *MySQLHistoryRepository) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{"backend": "mysql"}
	if err := outcomeStats(ctx, r.db, stats); err != nil {
		return nil, err
	}

	dbStats := r.db.Stats()
	stats["connections"] = map[string]interface{}{
		"open":     dbStats.OpenConnections,
		"in_use":   dbStats.InUse,
		"idle":     dbStats.Idle,
		"max_open": dbStats.MaxOpenConnections,
	}
	return stats, nil
}

// DeleteOlderThan removes records created before now minus age.
func (r *MySQLHistoryRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UTC()

	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection pool.
func (r *MySQLHistoryRepository) Close() error {
	return r.db.Close()
}

var _ HistoryRepository = (*MySQLHistoryRepository)(nil)
