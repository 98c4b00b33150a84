/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Export archive backends.
const (
	StorageFilesystem = "filesystem"
	StorageS3         = "s3"
	StorageNone       = "none"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string

	// Planner
	DrillsPath   string // empty uses the embedded catalog
	DefaultWeeks int

	// Plan read cache
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Event publishing; empty URL keeps events in process
	NATSURL     string
	NATSSubject string

	// Export archive
	StorageBackend    string
	ExportDir         string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string // For S3-compatible services (MinIO etc.)
	S3UsePathStyle    bool

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"COURTCYCLE_ENV", "PLANNER_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"COURTCYCLE_HTTP_BIND", "PLANNER_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"COURTCYCLE_HTTP_PORT", "PLANNER_HTTP_PORT", "PORT"}, 8080),
		DBBackend:   DatabaseBackend(strings.ToLower(getEnvAny([]string{"COURTCYCLE_DB_BACKEND", "PLANNER_DB_BACKEND"}, string(DatabaseSQLite)))),
		DBDSN:       getEnvAny([]string{"COURTCYCLE_DB_DSN", "PLANNER_DB_DSN"}, ""),

		DrillsPath:   getEnvAny([]string{"COURTCYCLE_DRILLS_PATH", "PLANNER_DRILLS_PATH"}, ""),
		DefaultWeeks: getEnvIntAny([]string{"COURTCYCLE_DEFAULT_WEEKS"}, 4),

		CacheEnabled:  getEnvBoolAny([]string{"COURTCYCLE_CACHE_ENABLED"}, false),
		RedisAddr:     getEnvAny([]string{"COURTCYCLE_REDIS_ADDR", "REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"COURTCYCLE_REDIS_PASSWORD", "REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"COURTCYCLE_REDIS_DB", "REDIS_DB"}, 0),

		NATSURL:     getEnvAny([]string{"COURTCYCLE_NATS_URL", "NATS_URL"}, ""),
		NATSSubject: getEnvAny([]string{"COURTCYCLE_NATS_SUBJECT"}, "courtcycle"),

		StorageBackend:    strings.ToLower(getEnvAny([]string{"COURTCYCLE_STORAGE_BACKEND"}, StorageFilesystem)),
		ExportDir:         getEnvAny([]string{"COURTCYCLE_EXPORT_DIR", "PLANNER_EXPORT_DIR"}, "./data"),
		S3AccessKeyID:     getEnvAny([]string{"COURTCYCLE_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"COURTCYCLE_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"COURTCYCLE_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"COURTCYCLE_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Endpoint:        getEnvAny([]string{"COURTCYCLE_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3UsePathStyle:    getEnvBoolAny([]string{"COURTCYCLE_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		TracingEnabled:    getEnvBoolAny([]string{"COURTCYCLE_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"COURTCYCLE_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"COURTCYCLE_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		if legacy := os.Getenv("DATABASE_URL"); legacy != "" {
			backend, dsn, err := parseDatabaseURL(legacy)
			if err != nil {
				return nil, err
			}
			cfg.DBBackend, cfg.DBDSN = backend, dsn
		}
	}
	if cfg.DBDSN == "" {
		if cfg.DBBackend != DatabaseSQLite {
			return nil, fmt.Errorf("COURTCYCLE_DB_DSN must be provided for the %s backend", cfg.DBBackend)
		}
		cfg.DBDSN = "courtcycle.db"
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid http port %d", cfg.HTTPPort)
	}
	if cfg.DefaultWeeks < 1 {
		return nil, fmt.Errorf("COURTCYCLE_DEFAULT_WEEKS must be at least 1, got %d", cfg.DefaultWeeks)
	}
	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("COURTCYCLE_TRACING_SAMPLE_RATE must be within [0, 1], got %v", cfg.TracingSampleRate)
	}

	switch cfg.StorageBackend {
	case StorageFilesystem, StorageNone:
	case StorageS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("COURTCYCLE_S3_BUCKET must be provided for the s3 storage backend")
		}
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

// parseDatabaseURL accepts the single URL form used by older deployments:
// sqlite:///path/to.db, postgres://... or postgresql://...
func parseDatabaseURL(raw string) (DatabaseBackend, string, error) {
	switch {
	case strings.HasPrefix(raw, "sqlite:///"):
		return DatabaseSQLite, strings.TrimPrefix(raw, "sqlite:///"), nil
	case strings.HasPrefix(raw, "sqlite://"):
		return DatabaseSQLite, strings.TrimPrefix(raw, "sqlite://"), nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DatabasePostgres, raw, nil
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL scheme in %q", raw)
	}
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"DATABASE_URL":       "use COURTCYCLE_DB_BACKEND and COURTCYCLE_DB_DSN",
		"PLANNER_ENV":        "use COURTCYCLE_ENV",
		"PLANNER_HTTP_BIND":  "use COURTCYCLE_HTTP_BIND",
		"PLANNER_HTTP_PORT":  "use COURTCYCLE_HTTP_PORT",
		"PLANNER_DB_BACKEND": "use COURTCYCLE_DB_BACKEND",
		"PLANNER_DB_DSN":     "use COURTCYCLE_DB_DSN",
		"PLANNER_EXPORT_DIR": "use COURTCYCLE_EXPORT_DIR",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	sort.Strings(warnings)
	return warnings
}

// ListenAddr returns host:port for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// IsProduction reports whether the process runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
