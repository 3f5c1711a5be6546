package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	pkgRetry "github.com/theakash04/termify/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	IndexCfg      IndexConfig      `envPrefix:"INDEX_"`
	GenerationCfg GenerationConfig `envPrefix:"GENERATION_"`

	// Pipeline configuration
	IngestCfg  IngestConfig  `envPrefix:"INGEST_"`
	SessionCfg SessionConfig `envPrefix:"SESSION_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// IndexConfig holds connection and naming settings for the backing
// similarity-search service.
type IndexConfig struct {
	Addr             string               `env:"ADDR,notEmpty"`
	Password         string               `env:"PASSWORD"`
	DB               int                  `env:"DB" envDefault:"0"`
	PoolSize         int                  `env:"POOL_SIZE" envDefault:"10"`
	DefaultNamespace string               `env:"DEFAULT_NAMESPACE" envDefault:"termify"`
	DefaultService   string               `env:"DEFAULT_SERVICE" envDefault:"termify-search"`
	OpTimeout        time.Duration        `env:"OP_TIMEOUT" envDefault:"15s"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// GenerationConfig holds settings for the external text-generation service.
type GenerationConfig struct {
	HTTPClientConfig
	CompleteEndpoint  string               `env:"COMPLETE_ENDPOINT" envDefault:"/v1/complete"`
	SummarizeEndpoint string               `env:"SUMMARIZE_ENDPOINT" envDefault:"/v1/summarize"`
	Model             string               `env:"MODEL" envDefault:"mistral-large2"`
	Temperature       float64              `env:"TEMPERATURE" envDefault:"0.5"`
	TopP              float64              `env:"TOP_P" envDefault:"0.9"`
	SummaryMaxWords   int                  `env:"SUMMARY_MAX_WORDS" envDefault:"200"`
	Retry             pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// IngestConfig holds chunking and batch pipeline settings.
type IngestConfig struct {
	ChunkSize      int   `env:"CHUNK_SIZE" envDefault:"700"`
	ChunkOverlap   int   `env:"CHUNK_OVERLAP" envDefault:"50"`
	Workers        int   `env:"WORKERS" envDefault:"4"`
	RetrievalLimit int   `env:"RETRIEVAL_LIMIT" envDefault:"5"`
	MaxFileSize    int64 `env:"MAX_FILE_SIZE" envDefault:"5242880"` // 5 MiB
}

// SessionConfig holds per-session conversation state settings.
type SessionConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"30m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	return Load(*envFlag)
}

// Load resolves configuration from the two enumerated sources in order:
// the environment file fills gaps first, then the process environment wins.
// Missing required values fail here, at startup, not at first use.
func Load(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.IngestCfg.ChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("INGEST_CHUNK_SIZE must be positive, got %d", cfg.IngestCfg.ChunkSize))
	}

	if cfg.IngestCfg.ChunkOverlap < 0 || cfg.IngestCfg.ChunkOverlap >= cfg.IngestCfg.ChunkSize {
		errors = append(errors, fmt.Sprintf("INGEST_CHUNK_OVERLAP must be in [0, chunk size), got %d", cfg.IngestCfg.ChunkOverlap))
	}

	if cfg.IngestCfg.Workers < 1 || cfg.IngestCfg.Workers > 64 {
		errors = append(errors, fmt.Sprintf("INGEST_WORKERS must be between 1 and 64, got %d", cfg.IngestCfg.Workers))
	}

	if cfg.IngestCfg.RetrievalLimit < 1 || cfg.IngestCfg.RetrievalLimit > 100 {
		errors = append(errors, fmt.Sprintf("INGEST_RETRIEVAL_LIMIT must be between 1 and 100, got %d", cfg.IngestCfg.RetrievalLimit))
	}

	if cfg.GenerationCfg.Temperature < 0 || cfg.GenerationCfg.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("GENERATION_TEMPERATURE must be between 0 and 2, got %g", cfg.GenerationCfg.Temperature))
	}

	if cfg.GenerationCfg.TopP <= 0 || cfg.GenerationCfg.TopP > 1 {
		errors = append(errors, fmt.Sprintf("GENERATION_TOP_P must be in (0, 1], got %g", cfg.GenerationCfg.TopP))
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
