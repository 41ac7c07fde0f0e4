package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth. Empty disables bearer-token checks.
	APIKey string

	// Sessions
	SessionTTL      time.Duration
	MaxSessions     int
	CleanupInterval time.Duration

	// Request limits
	MaxDocumentBytes int64

	// Markdown engine
	MarkdownExtensions []string
	HardWraps          bool

	// Render stats window
	StatsWindow time.Duration
}

// Load builds the configuration from defaults, then the TOML file named by
// NOTEDIT_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("NOTEDIT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("NOTEDIT_API_KEY", cfg.APIKey)
	cfg.SessionTTL = envDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.MaxSessions = envInt("MAX_SESSIONS", cfg.MaxSessions)
	cfg.CleanupInterval = envDuration("SESSION_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.MaxDocumentBytes = envInt64("MAX_DOCUMENT_BYTES", cfg.MaxDocumentBytes)
	cfg.MarkdownExtensions = envList("MARKDOWN_EXTENSIONS", cfg.MarkdownExtensions)
	cfg.HardWraps = envBool("MARKDOWN_HARD_WRAPS", cfg.HardWraps)
	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)

	cfg.fillDefaults()
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:             "8090",
		SessionTTL:       30 * time.Minute,
		MaxSessions:      1000,
		CleanupInterval:  time.Minute,
		MaxDocumentBytes: 5 << 20, // 5MB
		StatsWindow:      time.Hour,
	}
}

func (c *Config) fillDefaults() {
	d := Defaults()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = d.SessionTTL
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = d.MaxSessions
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.MaxDocumentBytes <= 0 {
		c.MaxDocumentBytes = d.MaxDocumentBytes
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = d.StatsWindow
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.CleanupInterval > c.SessionTTL {
		return fmt.Errorf("SESSION_CLEANUP_INTERVAL (%s) exceeds SESSION_TTL (%s)", c.CleanupInterval, c.SessionTTL)
	}
	return nil
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

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
