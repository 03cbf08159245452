package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Blob storage backends
const (
	BlobBackendLocal = "local"
	BlobBackendS3    = "s3"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string
	// Sessions
	SessionSecret      string
	SessionIssuer      string
	SessionTTL         time.Duration // lifetime granted on creation and renewal
	SessionRenewWindow time.Duration // renew when less than this remains
	// Blob storage
	BlobBackend string
	BlobDir     string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
	// Archives
	ArchiveDir           string
	ArchiveTTL           time.Duration
	ArchiveSweepInterval time.Duration
	// Uploads
	MaxUploadBytes int64
	// Logging
	LogDir      string
	LogMaxFiles int
	SentryDSN   string
	// Debug flags
	Debug bool // Enables debug-level logging
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: tablePrefix,
		// Sessions
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionIssuer:      getEnv("SESSION_ISSUER", "docvault"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		SessionRenewWindow: getEnvDuration("SESSION_RENEW_WINDOW", 15*24*time.Hour),
		// Blob storage
		BlobBackend: getEnv("BLOB_BACKEND", BlobBackendLocal),
		BlobDir:     getEnv("BLOB_DIR", "./data/blobs"),
		S3Region:    getEnv("S3_REGION", ""),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		// Archives
		ArchiveDir:           getEnv("ARCHIVE_DIR", "./data/zips"),
		ArchiveTTL:           getEnvDuration("ARCHIVE_TTL", 60*time.Second),
		ArchiveSweepInterval: getEnvDuration("ARCHIVE_SWEEP_INTERVAL", 15*time.Second),
		// Uploads
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 100<<20),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: int(getEnvInt64("LOG_MAX_FILES", 10)),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnvBool("DEBUG", env != "prod"),
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	switch c.BlobBackend {
	case BlobBackendLocal:
		if c.BlobDir == "" {
			errs = append(errs, errors.New("BLOB_DIR is required for the local blob backend"))
		}
	case BlobBackendS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			errs = append(errs, errors.New("S3_BUCKET and S3_REGION are required for the s3 blob backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend))
	}
	if c.ArchiveDir == "" {
		errs = append(errs, errors.New("ARCHIVE_DIR is required"))
	}
	if c.SessionRenewWindow >= c.SessionTTL {
		errs = append(errs, errors.New("SESSION_RENEW_WINDOW must be shorter than SESSION_TTL"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production defaults
func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt64(key string, defaultValue int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", defaultValue)
		return defaultValue
	}
	return n
}
