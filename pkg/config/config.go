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

	// Analysis
	Analysis AnalysisConfig

	// Storage
	Store StoreConfig

	// Database (postgres store only)
	Database DatabaseConfig

	// Redis (price cache, shared rate limit)
	Redis RedisConfig

	// External APIs
	Yahoo YahooConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// AnalysisConfig holds beta estimation settings
type AnalysisConfig struct {
	BenchmarkTicker  string // passed verbatim to the price source
	Period           string // passed verbatim to the price source
	BetaMethod       string // covariance, regression
	MinSamples       int    // 최소 수익률 샘플 수 (>= 30)
	DuplicatePolicy  string // replace, accumulate
	FetchConcurrency int
}

// StoreConfig holds holdings and watchlist persistence settings
type StoreConfig struct {
	Backend       string // json, yaml, postgres
	PortfolioFile string
	WatchlistFile string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	SeriesTTL time.Duration
	QuoteTTL  time.Duration
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

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL       string
	RatePerSecond float64
	Timeout       time.Duration
}

// SchedulerConfig holds scheduled report settings
type SchedulerConfig struct {
	ReportCron string // 6-field cron (with seconds)
}

const (
	MinBetaSamples = 30

	BackendJSON     = "json"
	BackendYAML     = "yaml"
	BackendPostgres = "postgres"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()
	return fromEnv()
}

// LoadFrom reads an explicit env file before the environment; a missing file is an error
func LoadFrom(envFile string) (*Config, error) {
	if envFile == "" {
		return Load()
	}
	if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Analysis
		Analysis: AnalysisConfig{
			BenchmarkTicker:  getEnv("BENCHMARK_TICKER", "^GSPC"),
			Period:           getEnv("BENCHMARK_PERIOD", "2y"),
			BetaMethod:       strings.ToLower(getEnv("BETA_METHOD", "covariance")),
			MinSamples:       getEnvAsInt("BETA_MIN_SAMPLES", MinBetaSamples),
			DuplicatePolicy:  strings.ToLower(getEnv("DUPLICATE_POLICY", "replace")),
			FetchConcurrency: getEnvAsInt("FETCH_CONCURRENCY", 4),
		},

		// Storage
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnv("STORE_BACKEND", BackendJSON)),
			PortfolioFile: getEnv("PORTFOLIO_FILE", "portfolio_holdings.json"),
			WatchlistFile: getEnv("WATCHLIST_FILE", "watchlist.json"),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			Enabled:   getEnvAsBool("REDIS_ENABLED", false),
			SeriesTTL: getEnvAsDuration("REDIS_SERIES_TTL", "12h"),
			QuoteTTL:  getEnvAsDuration("REDIS_QUOTE_TTL", "1m"),
		},

		// External APIs
		Yahoo: YahooConfig{
			BaseURL:       strings.TrimRight(getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"), "/"),
			RatePerSecond: getEnvAsFloat("YAHOO_RATE_PER_SEC", 2),
			Timeout:       getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
		},

		// Scheduler
		Scheduler: SchedulerConfig{
			ReportCron: getEnv("REPORT_CRON", "0 30 16 * * 1-5"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Store.Backend {
	case BackendJSON, BackendYAML:
	case BackendPostgres:
		// Database URL is required only for the postgres store
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: json, yaml, postgres")
	}

	if c.Analysis.BetaMethod != "covariance" && c.Analysis.BetaMethod != "regression" {
		return fmt.Errorf("BETA_METHOD must be one of: covariance, regression")
	}
	if c.Analysis.DuplicatePolicy != "replace" && c.Analysis.DuplicatePolicy != "accumulate" {
		return fmt.Errorf("DUPLICATE_POLICY must be one of: replace, accumulate")
	}
	// Fail-closed: fewer than 30 samples never yields a beta
	if c.Analysis.MinSamples < MinBetaSamples {
		return fmt.Errorf("BETA_MIN_SAMPLES must be >= %d, got %d", MinBetaSamples, c.Analysis.MinSamples)
	}
	if c.Analysis.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1")
	}
	if c.Analysis.BenchmarkTicker == "" {
		return fmt.Errorf("BENCHMARK_TICKER must not be empty")
	}
	if c.Yahoo.RatePerSecond <= 0 {
		return fmt.Errorf("YAHOO_RATE_PER_SEC must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
