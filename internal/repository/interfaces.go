package repository

import (
	"context"
	"time"

	"imagination-site-api/internal/model"
)

// DefaultRecentLimit and MaxRecentLimit bound Recent.
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// HistoryRepository stores one record per region load.
type HistoryRepository interface {
	// Record inserts rec and sets its ID.
	Record(ctx context.Context, rec *model.RefreshRecord) error

	// Recent returns the newest records first.
	Recent(ctx context.Context, limit int) ([]model.RefreshRecord, error)

	// Stats returns counts per outcome and storage details.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// DeleteOlderThan removes records created before now minus age.
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)

	// Close closes the repository connection.
	Close() error
}

// clampLimit maps a requested limit onto (0, MaxRecentLimit].
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
