package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	DocmarkAPIKey string

	// Document library
	DBPath string

	// Upload limits
	MaxUploadBytes int64
	UploadRate     float64 // uploads per second, 0 disables limiting
	UploadBurst    int

	// Viewer sessions
	SessionTTL           time.Duration
	CleanupInterval      time.Duration
	CaseSensitiveDefault bool

	// Import
	CodeWrap             bool
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocmarkAPIKey: os.Getenv("DOCMARK_API_KEY"),

		DBPath: envOr("DB_PATH", "docmark.db"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		UploadRate:     envFloat("UPLOAD_RATE", 5),
		UploadBurst:    int(envInt64("UPLOAD_BURST", 10)),

		SessionTTL:           envDuration("SESSION_TTL", 30*time.Minute),
		CleanupInterval:      envDuration("CLEANUP_INTERVAL", 5*time.Minute),
		CaseSensitiveDefault: envBool("CASE_SENSITIVE_DEFAULT", false),

		CodeWrap:             envBool("CODE_WRAP", true),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.UploadBurst <= 0 {
		cfg.UploadBurst = 1
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocmarkAPIKey == "" {
		return fmt.Errorf("DOCMARK_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
