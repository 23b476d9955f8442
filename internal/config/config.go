package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Fallback policies.
const (
	PolicySilent  = "silent"
	PolicyVisible = "visible"
)

// Fetch strategies.
const (
	StrategyDirect = "direct"
	StrategyRelay  = "relay"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server  ServerConfig
	App     AppConfig
	Roblox  RobloxConfig
	Page    PageConfig
	Cache   CacheConfig
	History HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	StaticDir       string        `envconfig:"SERVER_STATIC_DIR" default:"./static"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"imagination-site"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"2.0.0"`
	AdminKey    string `envconfig:"ADMIN_KEY" default:""` // empty disables admin routes
}

// RobloxConfig holds upstream API settings.
type RobloxConfig struct {
	GroupID       string        `envconfig:"ROBLOX_GROUP_ID" default:"32858884"`
	GroupsAPI     string        `envconfig:"ROBLOX_GROUPS_API" default:"https://groups.roblox.com/v1"`
	GamesAPI      string        `envconfig:"ROBLOX_GAMES_API" default:"https://games.roblox.com/v2"`
	ThumbnailsAPI string        `envconfig:"ROBLOX_THUMBNAILS_API" default:"https://thumbnails.roblox.com/v1"`
	EconomyAPI    string        `envconfig:"ROBLOX_ECONOMY_API" default:"https://economy.roblox.com/v1"`
	RelayURL      string        `envconfig:"ROBLOX_RELAY_URL" default:"https://api.allorigins.win"`
	Strategy      string        `envconfig:"ROBLOX_FETCH_STRATEGY" default:"relay"` // direct or relay
	Timeout       time.Duration `envconfig:"ROBLOX_TIMEOUT" default:"10s"`
	UserAgent     string        `envconfig:"ROBLOX_USER_AGENT" default:"imagination-site/2.0"`
}

// PageConfig holds controller settings.
type PageConfig struct {
	Title           string        `envconfig:"PAGE_TITLE" default:"Imagination"`
	FallbackPolicy  string        `envconfig:"PAGE_FALLBACK_POLICY" default:"silent"` // silent or visible
	RefreshInterval time.Duration `envconfig:"PAGE_REFRESH_INTERVAL" default:"5m"`
	FallbackDelay   time.Duration `envconfig:"PAGE_FALLBACK_DELAY" default:"500ms"`
	LoadTimeout     time.Duration `envconfig:"PAGE_LOAD_TIMEOUT" default:"60s"`
}

// CacheConfig holds cache settings for per-game asset lookups.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"4m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// HistoryConfig holds refresh history storage settings.
type HistoryConfig struct {
	Type string `envconfig:"HISTORY_DB_TYPE" default:"sqlite"` // none, sqlite, mysql or postgres
	Path string `envconfig:"HISTORY_DB_PATH" default:"./data/history.db"`
	// MySQL / PostgreSQL settings
	Host     string `envconfig:"HISTORY_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"HISTORY_DB_PORT" default:"0"`
	Name     string `envconfig:"HISTORY_DB_NAME" default:"imagination"`
	User     string `envconfig:"HISTORY_DB_USER" default:"root"`
	Password string `envconfig:"HISTORY_DB_PASS" default:""`
	SSLMode  string `envconfig:"HISTORY_DB_SSLMODE" default:"disable"`

	Retention     time.Duration `envconfig:"HISTORY_RETENTION" default:"720h"`
	PruneInterval time.Duration `envconfig:"HISTORY_PRUNE_INTERVAL" default:"1h"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// MySQLDSN returns the MySQL data source name.
func (h *HistoryConfig) MySQLDSN() string {
	port := h.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		h.User, h.Password, h.Host, port, h.Name)
}

// PostgresDSN returns the PostgreSQL connection string.
func (h *HistoryConfig) PostgresDSN() string {
	port := h.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		h.User, h.Password, h.Host, port, h.Name, h.SSLMode)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Validate rejects values envconfig cannot check by itself.
func (c *Config) Validate() error {
	switch c.Page.FallbackPolicy {
	case PolicySilent, PolicyVisible:
	default:
		return fmt.Errorf("invalid PAGE_FALLBACK_POLICY %q (must be %q or %q)",
			c.Page.FallbackPolicy, PolicySilent, PolicyVisible)
	}

	switch c.Roblox.Strategy {
	case StrategyDirect, StrategyRelay:
	default:
		return fmt.Errorf("invalid ROBLOX_FETCH_STRATEGY %q (must be %q or %q)",
			c.Roblox.Strategy, StrategyDirect, StrategyRelay)
	}

	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CACHE_TYPE %q (must be memory or redis)", c.Cache.Type)
	}

	switch c.History.Type {
	case "none", "sqlite", "mysql", "postgres", "postgresql":
	default:
		return fmt.Errorf("invalid HISTORY_DB_TYPE %q", c.History.Type)
	}

	if c.Page.RefreshInterval <= 0 {
		return fmt.Errorf("PAGE_REFRESH_INTERVAL must be positive")
	}
	if c.Roblox.GroupID == "" {
		return fmt.Errorf("ROBLOX_GROUP_ID is required")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
