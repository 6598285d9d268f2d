package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/msgsplit/internal/splitter"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Splitting defaults
	DefaultMaxLen     int
	WhitespaceMode    string
	SplittableTags    []string
	NonSplittableTags []string
	TagsFile          string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state and stats
	JobTTL      time.Duration
	StatsWindow time.Duration

	// Result cache; empty RedisAddr selects the in-memory cache
	RedisAddr string
	RedisDB   int
	CacheTTL  time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("MSGSPLIT_API_KEY"),

		DefaultMaxLen:     envInt("DEFAULT_MAX_LEN", splitter.DefaultMaxLen),
		WhitespaceMode:    envOr("WHITESPACE_MODE", "split"),
		SplittableTags:    envList("SPLITTABLE_TAGS"),
		NonSplittableTags: envList("NON_SPLITTABLE_TAGS"),
		TagsFile:          os.Getenv("TAGS_FILE"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisDB:   envInt("REDIS_DB", 0),
		CacheTTL:  envDuration("CACHE_TTL", 24*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if cfg.RedisDB < 0 {
		cfg.RedisDB = 0
	}
	if cfg.CacheTTL < 0 {
		cfg.CacheTTL = 0
	}

	return cfg
}

// Validate checks the settings the server cannot start without. DefaultMaxLen
// is not clamped by Load so that a bad value is reported here.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("MSGSPLIT_API_KEY is required")
	}
	if c.DefaultMaxLen < 1 {
		return fmt.Errorf("DEFAULT_MAX_LEN must be a positive integer, got %d", c.DefaultMaxLen)
	}
	if _, err := splitter.ParseWhitespaceMode(c.WhitespaceMode); err != nil {
		return fmt.Errorf("WHITESPACE_MODE: %w", err)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got %q", c.LogFormat)
	}
	return nil
}

// TagOverrides merges the tag file (if any) with the tag lists from the
// environment. Environment lists are applied last.
func (c Config) TagOverrides() (map[string]bool, error) {
	var t TagOverrides
	if c.TagsFile != "" {
		var err error
		t, err = LoadTagOverrides(c.TagsFile)
		if err != nil {
			return nil, err
		}
	}
	out, err := t.Map()
	if err != nil {
		return nil, err
	}
	env, err := TagOverrides{Splittable: c.SplittableTags, NonSplittable: c.NonSplittableTags}.Map()
	if err != nil {
		return nil, fmt.Errorf("SPLITTABLE_TAGS/NON_SPLITTABLE_TAGS: %w", err)
	}
	for tag, v := range env {
		out[tag] = v
	}
	return out, nil
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

// envList splits a comma separated variable, dropping empty items.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
