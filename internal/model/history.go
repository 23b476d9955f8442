package model

import "time"

// Regions a refresh record can refer to.
const (
	RegionGroup       = "group"
	RegionGames       = "games"
	RegionEvents      = "events"
	RegionMerchandise = "merchandise"
)

// Outcomes of a region load.
const (
	OutcomeLive     = "live"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// RefreshRecord represents one region load in the refresh_history table.
type RefreshRecord struct {
	ID           int64     `json:"id"`
	Region       string    `json:"region"`
	Outcome      string    `json:"outcome"`
	ItemCount    int       `json:"item_count"`
	TotalVisits  int64     `json:"total_visits"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
