package config

import (
	"fmt"
	"net/url"
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

	// Database (feature/prediction tables)
	Database DatabaseConfig

	// Redis (rate limit, response cache, artifact store)
	Redis RedisConfig

	// Object storage for ingested parquet files and rendered predictions
	Storage StorageConfig

	// External market data
	MarketData MarketDataConfig

	// Local drop locations
	Paths PathsConfig

	// Pipeline
	PipelineConfigFile string // YAML, empty = built-in defaults
	Workers            int

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds feature store configuration.
// URL scheme selects the driver: postgres:// (pgx) or sqlite:// (modernc).
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Driver returns "postgres" or "sqlite" based on the URL scheme
func (d DatabaseConfig) Driver() string {
	switch {
	case strings.HasPrefix(d.URL, "sqlite:"), strings.HasPrefix(d.URL, "file:"):
		return "sqlite"
	default:
		return "postgres"
	}
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	URL         string // s3://bucket | file://dir | mem://name | redis://prefix
	ArtifactURL string // where rendered predictions live
	Endpoint    string // S3 endpoint (host:port)
	AccessKey   string
	SecretKey   string
	Region      string
	UseSSL      bool
}

// MarketDataConfig holds the price history source configuration
type MarketDataConfig struct {
	BaseURL   string
	RateLimit int // requests per second
	CacheTTL  time.Duration
	Timeout   time.Duration
}

// PathsConfig holds local input locations
type PathsConfig struct {
	DataRoot     string
	CashtagsFile string
	TwitterDir   string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	dataRoot := getEnv("DATA_ROOT", "data")

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
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

		Storage: StorageConfig{
			URL:         getEnv("STORAGE_URL", "file://"+filepath.Join(dataRoot, "remote")),
			ArtifactURL: getEnv("ARTIFACT_URL", "mem://predictions"),
			Endpoint:    getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
			AccessKey:   getEnv("S3_ACCESS_KEY", ""),
			SecretKey:   getEnv("S3_SECRET_KEY", ""),
			Region:      getEnv("S3_REGION", "us-east-1"),
			UseSSL:      getEnvAsBool("S3_USE_SSL", true),
		},

		MarketData: MarketDataConfig{
			BaseURL:   getEnv("MARKET_DATA_URL", "https://query1.finance.yahoo.com"),
			RateLimit: getEnvAsInt("MARKET_DATA_RATE_LIMIT", 2),
			CacheTTL:  getEnvAsDuration("MARKET_DATA_CACHE_TTL", "24h"),
			Timeout:   getEnvAsDuration("MARKET_DATA_TIMEOUT", "30s"),
		},

		Paths: PathsConfig{
			DataRoot:     dataRoot,
			CashtagsFile: getEnv("CASHTAGS_FILE", filepath.Join(dataRoot, "NASDAQ_100_cashtags.txt")),
			TwitterDir:   getEnv("TWITTER_DIR", filepath.Join(dataRoot, "TwitterData")),
		},

		PipelineConfigFile: getEnv("PIPELINE_CONFIG", ""),
		Workers:            getEnvAsInt("PIPELINE_WORKERS", 4),

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	for name, raw := range map[string]string{"STORAGE_URL": c.Storage.URL, "ARTIFACT_URL": c.Storage.ArtifactURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("%s must be a URL with a scheme, got %q", name, raw)
		}
	}

	if c.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be >= 1")
	}

	return nil
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
