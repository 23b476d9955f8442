package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"imagination-site-api/internal/model"
)

const historyColumns = `id, region, outcome, item_count, total_visits, error_message, duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (model.RefreshRecord, error) {
	var rec model.RefreshRecord
	var errMsg sql.NullString
	err := row.Scan(
		&rec.ID,
		&rec.Region,
		&rec.Outcome,
		&rec.ItemCount,
		&rec.TotalVisits,
		&errMsg,
		&rec.DurationMs,
		&rec.CreatedAt,
	)
	if err != nil {
		return rec, err
	}
	rec.ErrorMessage = errMsg.String
	return rec, nil
}

func queryRecords(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]model.RefreshRecord, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []model.RefreshRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return records, nil
}

// outcomeStats fills total, per-outcome counts and the newest record time.
func outcomeStats(ctx context.Context, db *sql.DB, stats map[string]interface{}) error {
	rows, err := db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM refresh_history GROUP BY outcome")
	if err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}
	defer rows.Close()

	var total int64
	outcomes := map[string]int64{
		model.OutcomeLive:     0,
		model.OutcomeFallback: 0,
		model.OutcomeError:    0,
	}
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return fmt.Errorf("failed to scan history count: %w", err)
		}
		outcomes[outcome] = n
		total += n
	}
	if err := rows.Err(); err != nil {
		return err
	}
	stats["total_records"] = total
	stats["outcomes"] = outcomes

	var last sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT MAX(created_at) FROM refresh_history").Scan(&last); err == nil && last.Valid {
		stats["last_record"] = last.String
	}
	return nil
}

func createdAtOrNow(rec *model.RefreshRecord) time.Time {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return rec.CreatedAt.UTC()
}
