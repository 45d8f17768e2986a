package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all pipeline configuration
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Ingest     IngestConfig
	Chunking   ChunkingConfig
	Tracker    TrackerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Schedule   ScheduleConfig
	Embeddings EmbeddingsConfig

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// IngestConfig controls the document pipeline
type IngestConfig struct {
	// Workers bounds the number of documents processed concurrently
	Workers int `env:"INGEST_WORKERS" envDefault:"4"`
	// Source is "dir" or "s3"
	Source string `env:"INGEST_SOURCE" envDefault:"dir"`
	// SourceDir is the root of the XML tree when Source is "dir"
	SourceDir string `env:"INGEST_SOURCE_DIR" envDefault:"./data"`
	// LookupPath points at the flat lookup catalogue (optional)
	LookupPath string `env:"INGEST_LOOKUP_PATH" envDefault:""`
	// Languages restricts which xml:lang values are ingested
	Languages []string `env:"INGEST_LANGUAGES" envDefault:"en,fr" envSeparator:","`
	// Sink is "none" or "postgres"
	Sink string `env:"INGEST_SINK" envDefault:"none"`
	// Force re-chunks units the tracker already marked
	Force bool `env:"INGEST_FORCE" envDefault:"false"`
}

// AcceptsLanguage reports whether lang is in the configured language list
func (c *IngestConfig) AcceptsLanguage(lang string) bool {
	if len(c.Languages) == 0 {
		return true
	}
	for _, l := range c.Languages {
		if strings.EqualFold(strings.TrimSpace(l), lang) {
			return true
		}
	}
	return false
}

// UsesDatabase returns true if any component needs PostgreSQL
func (c *Config) UsesDatabase() bool {
	return c.Ingest.Sink == "postgres" || c.Tracker.Backend == "postgres"
}

// ChunkingConfig holds the token budgets for the legal-boundary chunker
type ChunkingConfig struct {
	MaxTokens     int `env:"CHUNK_MAX_TOKENS" envDefault:"512"`
	OverlapTokens int `env:"CHUNK_OVERLAP_TOKENS" envDefault:"64"`
}

// TrackerConfig selects the progress tracker backend
type TrackerConfig struct {
	// Backend is "memory", "postgres" or "redis"
	Backend       string `env:"TRACKER_BACKEND" envDefault:"memory"`
	KeyPrefix     string `env:"TRACKER_KEY_PREFIX" envDefault:"lims:progress:"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"lims"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"lims"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
	// Schema is put first on the search_path of every pooled connection
	Schema string `env:"POSTGRES_SCHEMA" envDefault:"lims"`
	// StatementTimeout caps a single statement; zero disables it
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"60s"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// StorageConfig holds S3/MinIO settings for the "s3" document source
type StorageConfig struct {
	Endpoint  string `env:"STORAGE_ENDPOINT" envDefault:""`
	AccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:""`
	SecretKey string `env:"STORAGE_SECRET_KEY" envDefault:""`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	Bucket    string `env:"STORAGE_BUCKET" envDefault:"legislation"`
	Prefix    string `env:"STORAGE_PREFIX" envDefault:""`
}

// IsConfigured returns true if storage credentials are present
func (s *StorageConfig) IsConfigured() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

// ScheduleConfig controls periodic re-ingestion
type ScheduleConfig struct {
	Enabled bool `env:"SCHEDULE_ENABLED" envDefault:"false"`
	// Cron uses seconds precision: "second minute hour dom month dow"
	Cron string `env:"SCHEDULE_CRON" envDefault:"0 0 3 * * *"`
	// Timeout bounds one scheduled run
	Timeout time.Duration `env:"SCHEDULE_TIMEOUT" envDefault:"2h"`
}

// EmbeddingsConfig controls the hand-off to the embedding service
type EmbeddingsConfig struct {
	Enabled   bool `env:"EMBEDDINGS_ENABLED" envDefault:"false"`
	BatchSize int  `env:"EMBEDDINGS_BATCH_SIZE" envDefault:"64"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Ingest.Workers < 1 {
		cfg.Ingest.Workers = 1
	}
	if cfg.Chunking.OverlapTokens >= cfg.Chunking.MaxTokens {
		cfg.Chunking.OverlapTokens = cfg.Chunking.MaxTokens / 5
	}
	return cfg, nil
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("workers", cfg.Ingest.Workers),
		slog.String("source", cfg.Ingest.Source),
		slog.String("sink", cfg.Ingest.Sink),
		slog.String("tracker", cfg.Tracker.Backend),
		slog.Int("chunk_max_tokens", cfg.Chunking.MaxTokens),
	)

	return cfg, nil
}
