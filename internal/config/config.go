package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chumsley/keynote-summary/internal/render"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Rolling window for /api/stats
	StatsWindow time.Duration

	// Decoding
	DecodeWorkers int

	// Output
	Format      string
	Fingerprint bool
	SkipHidden  bool

	// Diagnostics
	LogLevel  string
	DumpEntry string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("KEYSUM_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB
		StatsWindow:    envDuration("STATS_WINDOW", time.Hour),

		DecodeWorkers: envInt("DECODE_WORKERS", 4),

		Format:      strings.ToLower(envOr("KEYSUM_FORMAT", string(render.FormatMarkdown))),
		Fingerprint: envBool("KEYSUM_FINGERPRINT", false),
		SkipHidden:  envBool("KEYSUM_SKIP_HIDDEN", false),

		LogLevel:  envOr("LOG_LEVEL", "warn"),
		DumpEntry: os.Getenv("KEYSUM_DUMP_ENTRY"),
	}

	if cfg.DecodeWorkers <= 0 {
		cfg.DecodeWorkers = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}

	return cfg
}

// Validate checks settings shared by the CLI and the server.
func (c Config) Validate() error {
	if _, err := render.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("KEYSUM_FORMAT: %w", err)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// ValidateServer additionally checks what the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("KEYSUM_API_KEY is required")
	}
	return nil
}

// Level returns the configured log level, or warn when it does not parse.
func (c Config) Level() slog.Level {
	lvl := slog.LevelWarn
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
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
