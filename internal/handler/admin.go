package handler

import (
	"context"
	"log"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"imagination-site-api/internal/cache"
	"imagination-site-api/internal/model"
	"imagination-site-api/internal/repository"
	"imagination-site-api/pkg/apierror"
	"imagination-site-api/pkg/response"
)

// HistoryPruner prunes refresh history on demand.
type HistoryPruner interface {
	RunNow(ctx context.Context) (int64, error)
}

// AdminConfig holds the admin handler dependencies. Cache, History and
// Pruner may be nil when not configured.
type AdminConfig struct {
	Page           PageSource
	Cache          cache.Cache
	CacheType      string
	History        repository.HistoryRepository
	HistoryType    string
	Pruner         HistoryPruner
	RefreshTimeout time.Duration
}

// AdminHandler handles operator HTTP requests.
type AdminHandler struct {
	cfg       AdminConfig
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = time.Minute
	}
	return &AdminHandler{cfg: cfg, startTime: time.Now()}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["started"] = humanize.Time(h.startTime)
	stats["server_time"] = time.Now().Format(time.RFC3339)

	// Page state
	snap := h.cfg.Page.Snapshot()
	stats["page"] = map[string]interface{}{
		"policy":       snap.Policy,
		"ready":        snap.Ready,
		"games":        len(snap.Games),
		"total_visits": snap.TotalVisits,
		"last_updated": snap.LastUpdated,
	}

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc":       humanize.Bytes(memStats.Alloc),
		"total_alloc": humanize.Bytes(memStats.TotalAlloc),
		"sys":         humanize.Bytes(memStats.Sys),
		"heap_inuse":  humanize.Bytes(memStats.HeapInuse),
		"num_gc":      memStats.NumGC,
		"goroutines":  runtime.NumGoroutine(),
	}

	// Asset cache stats
	if h.cfg.Cache != nil {
		n, err := h.cfg.Cache.Len(ctx)
		if err == nil {
			stats["cache"] = map[string]interface{}{
				"type":    h.cfg.CacheType,
				"entries": n,
				"status":  "connected",
			}
		} else {
			stats["cache"] = map[string]interface{}{
				"type":   h.cfg.CacheType,
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["cache"] = map[string]interface{}{"status": "not_configured"}
	}

	// History stats
	if h.cfg.History != nil {
		historyStats, err := h.cfg.History.Stats(ctx)
		if err == nil {
			historyStats["status"] = "connected"
			historyStats["type"] = h.cfg.HistoryType
			stats["history"] = historyStats
		} else {
			stats["history"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["history"] = map[string]interface{}{"status": "not_configured"}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// RefreshResult is the outcome of a manual games refresh.
type RefreshResult struct {
	Outcome     string    `json:"outcome"`
	Games       int       `json:"games"`
	TotalVisits int64     `json:"total_visits"`
	LastUpdated time.Time `json:"last_updated"`
}

// Refresh handles POST /api/v1/admin/refresh
func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RefreshTimeout)
	defer cancel()

	outcome := h.cfg.Page.RefreshGames(ctx)
	log.Printf("[AdminHandler] Manual games refresh: %s", outcome)

	snap := h.cfg.Page.Snapshot()
	response.OK(w, RefreshResult{
		Outcome:     outcome,
		Games:       len(snap.Games),
		TotalVisits: snap.TotalVisits,
		LastUpdated: snap.LastUpdated,
	})
}

// History handles GET /api/v1/admin/history?limit=
func (h *AdminHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.cfg.History == nil {
		response.Error(w, apierror.ServiceUnavailable("refresh history is disabled"))
		return
	}

	limit := repository.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(w, apierror.BadRequest("limit must be a positive integer"))
			return
		}
		limit = min(n, repository.MaxRecentLimit)
	}

	records, err := h.cfg.History.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("[AdminHandler] Error reading history: %v", err)
		response.Error(w, apierror.InternalError("failed to read refresh history"))
		return
	}
	if records == nil {
		records = []model.RefreshRecord{}
	}

	response.List(w, records, limit, len(records))
}

// PruneHistory handles POST /api/v1/admin/history/prune
func (h *AdminHandler) PruneHistory(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Pruner == nil {
		response.Error(w, apierror.ServiceUnavailable("refresh history is disabled"))
		return
	}

	deleted, err := h.cfg.Pruner.RunNow(r.Context())
	if err != nil {
		log.Printf("[AdminHandler] Error pruning history: %v", err)
		response.Error(w, apierror.InternalError("failed to prune refresh history"))
		return
	}
	response.OK(w, map[string]int64{"deleted": deleted})
}
