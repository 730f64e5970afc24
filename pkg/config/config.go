package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Screening engine
	Screening ScreeningConfig

	// Market data provider
	Finnhub FinnhubConfig

	// Fundamentals cache
	FundamentalsCache CacheConfig

	// Leaderboard persistence
	Store StoreConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// MongoDB
	Mongo MongoConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// ScreeningConfig holds the scoring rule and cycle settings
type ScreeningConfig struct {
	Market         string
	UniverseSize   int
	UniverseSource string // finnhub, html
	HTMLURL        string
	HTMLSelector   string

	CycleInterval time.Duration
	Workers       int
	SymbolTimeout time.Duration

	ThresholdChangePercent float64
	ValuationRatioCeiling  float64
	EnabledPredicates      []string

	WeekStart string // monday, sunday
	RankKey   string // change_percent, price
	Timezone  string

	DailyAdmitLimit  int // 0 = unlimited
	WeeklyAdmitLimit int // 0 = unlimited

	RuleFile string
}

// FinnhubConfig holds Finnhub API configuration
type FinnhubConfig struct {
	APIKey        string
	BaseURL       string
	RatePerMinute int
}

// CacheConfig bounds an in-memory cache
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// StoreConfig selects the leaderboard backend
type StoreConfig struct {
	Backend    string // memory, redis, postgres, mongo, sqlite
	SQLitePath string
	KeyPrefix  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Screening: ScreeningConfig{
			Market:         getEnv("UNIVERSE_MARKET", "US"),
			UniverseSize:   getEnvAsInt("UNIVERSE_SIZE", 20),
			UniverseSource: getEnv("UNIVERSE_SOURCE", "finnhub"),
			HTMLURL:        getEnv("UNIVERSE_HTML_URL", ""),
			HTMLSelector:   getEnv("UNIVERSE_HTML_SELECTOR", "table tbody tr td:first-child"),

			CycleInterval: getEnvAsDuration("CYCLE_INTERVAL", "3m"),
			Workers:       getEnvAsInt("FETCH_WORKERS", 5),
			SymbolTimeout: getEnvAsDuration("SYMBOL_TIMEOUT", "10s"),

			ThresholdChangePercent: getEnvAsFloat("THRESHOLD_CHANGE_PERCENT", 5),
			ValuationRatioCeiling:  getEnvAsFloat("VALUATION_RATIO_CEILING", 25),
			EnabledPredicates:      getEnvAsList("ENABLED_PREDICATES", "momentum,magnitude"),

			WeekStart: strings.ToLower(getEnv("WEEK_START", "monday")),
			RankKey:   strings.ToLower(getEnv("RANK_KEY", "change_percent")),
			Timezone:  getEnv("TIMEZONE", "Local"),

			DailyAdmitLimit:  getEnvAsInt("DAILY_ADMIT_LIMIT", 0),
			WeeklyAdmitLimit: getEnvAsInt("WEEKLY_ADMIT_LIMIT", 0),

			RuleFile: getEnv("RULE_FILE", ""),
		},

		Finnhub: FinnhubConfig{
			APIKey:        getEnv("FINNHUB_API_KEY", ""),
			BaseURL:       getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			RatePerMinute: getEnvAsInt("FINNHUB_RATE_PER_MINUTE", 60),
		},

		FundamentalsCache: CacheConfig{
			TTL:     getEnvAsDuration("FUNDAMENTALS_CACHE_TTL", "24h"),
			MaxSize: getEnvAsInt("FUNDAMENTALS_CACHE_SIZE", 1000),
		},

		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", "memory")),
			SQLitePath: getEnv("SQLITE_PATH", "movers.db"),
			KeyPrefix:  getEnv("STORE_KEY_PREFIX", "movers"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Mongo: MongoConfig{
			URI:         getEnv("MONGODB_URI", ""),
			Database:    getEnv("MONGODB_DATABASE", "movers"),
			MaxPoolSize: uint64(getEnvAsInt("MONGODB_MAX_POOL_SIZE", 10)),
			MinPoolSize: uint64(getEnvAsInt("MONGODB_MIN_POOL_SIZE", 2)),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	s := c.Screening
	if s.UniverseSize <= 0 {
		return fmt.Errorf("UNIVERSE_SIZE must be positive")
	}
	if s.CycleInterval <= 0 {
		return fmt.Errorf("CYCLE_INTERVAL must be positive")
	}
	if s.Workers <= 0 {
		return fmt.Errorf("FETCH_WORKERS must be positive")
	}
	if s.ValuationRatioCeiling <= 0 {
		return fmt.Errorf("VALUATION_RATIO_CEILING must be positive")
	}
	if s.DailyAdmitLimit < 0 || s.WeeklyAdmitLimit < 0 {
		return fmt.Errorf("admit limits must not be negative")
	}
	if s.WeekStart != "monday" && s.WeekStart != "sunday" {
		return fmt.Errorf("WEEK_START must be one of: monday, sunday")
	}
	if s.UniverseSource != "finnhub" && s.UniverseSource != "html" {
		return fmt.Errorf("UNIVERSE_SOURCE must be one of: finnhub, html")
	}
	if s.UniverseSource == "html" && s.HTMLURL == "" {
		return fmt.Errorf("UNIVERSE_HTML_URL is required when UNIVERSE_SOURCE=html")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	switch c.Store.Backend {
	case "memory", "sqlite":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: memory, redis, postgres, mongo, sqlite")
	}

	return nil
}

// Location resolves the configured time zone used for rollover boundaries
func (c *Config) Location() (*time.Location, error) {
	if c.Screening.Timezone == "" || c.Screening.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Screening.Timezone)
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks.
// An explicitly empty list is written as "none".
func getEnvAsList(key string, defaultValue string) []string {
	valueStr := getEnv(key, defaultValue)
	if strings.EqualFold(strings.TrimSpace(valueStr), "none") {
		return []string{}
	}

	var items []string
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
