package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Vault
	VaultDir string

	// Auth (optional; empty disables auth)
	APIKey string

	// Indexing
	WatchDebounce   time.Duration
	ScanConcurrency int
	MaxFileBytes    int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8070"),

		VaultDir: os.Getenv("VAULT_DIR"),

		APIKey: os.Getenv("MATHDEX_API_KEY"),

		WatchDebounce:   envDuration("WATCH_DEBOUNCE", 250*time.Millisecond),
		ScanConcurrency: envInt("SCAN_CONCURRENCY", 8),
		MaxFileBytes:    envInt64("MAX_FILE_BYTES", 10485760), // 10MB
	}

	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 250 * time.Millisecond
	}
	if cfg.ScanConcurrency <= 0 {
		cfg.ScanConcurrency = 8
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 10485760
	}

	return cfg
}

func (c Config) Validate() error {
	if c.VaultDir == "" {
		return fmt.Errorf("VAULT_DIR is required")
	}
	info, err := os.Stat(c.VaultDir)
	if err != nil {
		return fmt.Errorf("VAULT_DIR: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("VAULT_DIR is not a directory: %s", c.VaultDir)
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
