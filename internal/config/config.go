package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the whole application configuration.
// Populated once from environment variables at process start and passed
// down through the container; nothing reads the environment after Load.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Upload   UploadConfig
	Import   ImportConfig
	Webhook  WebhookConfig
	MinIO    MinIOConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

// UploadConfig controls CSV upload handling.
type UploadConfig struct {
	Dir          string // local directory for uploaded files
	MaxSizeBytes int64  // reject uploads larger than this
	Backend      string // "local" or "minio"
}

// ImportConfig controls the bulk import pipeline.
type ImportConfig struct {
	BatchSize int // rows per transactional commit / progress checkpoint
}

// WebhookConfig controls outbound delivery.
type WebhookConfig struct {
	Timeout       time.Duration // per-request timeout
	MaxAttempts   int           // total delivery attempts incl. the first
	BackoffCapSec int           // backoff ceiling in seconds
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Product Importer API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "product_importer"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "./uploads"),
			MaxSizeBytes: int64(getEnvInt("MAX_UPLOAD_SIZE", 500000000)), // 500MB
			Backend:      getEnv("UPLOAD_BACKEND", "local"),
		},
		Import: ImportConfig{
			BatchSize: getEnvInt("IMPORT_BATCH_SIZE", 10000),
		},
		Webhook: WebhookConfig{
			Timeout:       time.Duration(getEnvInt("WEBHOOK_TIMEOUT_SEC", 10)) * time.Second,
			MaxAttempts:   getEnvInt("WEBHOOK_MAX_ATTEMPTS", 5),
			BackoffCapSec: getEnvInt("WEBHOOK_BACKOFF_CAP_SEC", 60),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "product-imports"),
			UseSSL:    false,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for obvious misconfiguration.
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	if c.Import.BatchSize < 1 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be >= 1")
	}

	if c.Webhook.MaxAttempts < 1 {
		return fmt.Errorf("WEBHOOK_MAX_ATTEMPTS must be >= 1")
	}

	if c.Upload.Backend != "local" && c.Upload.Backend != "minio" {
		return fmt.Errorf("UPLOAD_BACKEND must be 'local' or 'minio', got %q", c.Upload.Backend)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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
