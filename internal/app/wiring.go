// Package app builds the runtime components from configuration. Both the
// server and the pagectl CLI use it.
package app

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"imagination-site-api/internal/cache"
	"imagination-site-api/internal/config"
	"imagination-site-api/internal/page"
	"imagination-site-api/internal/repository"
	"imagination-site-api/internal/roblox"
)

// AssetCache is a cache that owns background resources.
type AssetCache interface {
	cache.Cache
	Close() error
}

// NewAssetCache returns the configured asset cache. A Redis cache that
// cannot be reached falls back to memory with a warning.
func NewAssetCache(cfg config.CacheConfig) (AssetCache, string) {
	if cfg.Type == "redis" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cache.DefaultKeyPrefix,
		})
		if err == nil {
			log.Println("Redis asset cache initialized")
			return rc, "redis"
		}
		log.Printf("Warning: Redis connection failed, using memory cache: %v", err)
	}
	log.Println("Memory asset cache initialized")
	return cache.NewMemoryCache(), "memory"
}

// NewHistory opens the configured refresh history store. It returns nil for
// type "none".
func NewHistory(cfg config.HistoryConfig) (repository.HistoryRepository, error) {
	var (
		repo repository.HistoryRepository
		err  error
	)
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "mysql":
		repo, err = repository.NewMySQLHistoryRepository(cfg.MySQLDSN())
	case "postgres", "postgresql":
		repo, err = repository.NewPostgresHistoryRepository(cfg.PostgresDSN())
	case "sqlite":
		repo, err = repository.NewSQLiteHistoryRepository(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown HISTORY_DB_TYPE %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// NewRobloxClient builds the upstream client. assets may be nil.
func NewRobloxClient(cfg config.RobloxConfig, assets cache.Cache, ttl time.Duration) *roblox.Client {
	opts := []roblox.Option{
		roblox.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		roblox.WithStrategy(roblox.Strategy(cfg.Strategy), cfg.RelayURL),
		roblox.WithBaseURLs(roblox.BaseURLs{
			Groups:     cfg.GroupsAPI,
			Games:      cfg.GamesAPI,
			Thumbnails: cfg.ThumbnailsAPI,
			Economy:    cfg.EconomyAPI,
		}),
		roblox.WithUserAgent(cfg.UserAgent),
	}
	if assets != nil {
		opts = append(opts, roblox.WithCache(assets, ttl))
	}
	return roblox.New(cfg.GroupID, opts...)
}

// NewController builds the page controller. history may be nil.
func NewController(cfg *config.Config, fetcher page.Fetcher, history page.Recorder) (*page.Controller, error) {
	policy, err := page.ParsePolicy(cfg.Page.FallbackPolicy)
	if err != nil {
		return nil, err
	}

	return page.NewController(fetcher, page.NewDocument(), page.Options{
		Title:           cfg.Page.Title,
		Policy:          policy,
		RefreshInterval: cfg.Page.RefreshInterval,
		FallbackDelay:   cfg.Page.FallbackDelay,
		LoadTimeout:     cfg.Page.LoadTimeout,
		History:         history,
	}), nil
}
