package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultMonitorInterval is how long the alert monitor sleeps between cycles.
	DefaultMonitorInterval = 600 * time.Second
	// DefaultArbitrageMargin is the price multiplier below which a cross-world
	// listing counts as an arbitrage opportunity (0.9 = at least 10% cheaper).
	DefaultArbitrageMargin = 0.9
	// DefaultFetchConcurrency caps simultaneous upstream requests.
	DefaultFetchConcurrency = 8
	// DefaultHotItemVelocity is the sale-velocity threshold for "hot" items.
	DefaultHotItemVelocity = 5.0
)

// Config holds application settings (in-memory representation).
// Persisted as a JSON settings file in the working directory.
type Config struct {
	Language   string `json:"language"`
	DataCenter string `json:"data_center"`
	World      string `json:"world"`

	DiscordWebhookURL string `json:"discord_webhook_url"`
	DesktopAlerts     bool   `json:"desktop_alerts"`

	MonitorIntervalSeconds int     `json:"monitor_interval_seconds"`
	ArbitrageMargin        float64 `json:"arbitrage_margin"`
	FetchConcurrency       int     `json:"fetch_concurrency"`
	HotItemVelocity        float64 `json:"hot_item_velocity"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Language:               "en",
		DesktopAlerts:          true,
		MonitorIntervalSeconds: int(DefaultMonitorInterval / time.Second),
		ArbitrageMargin:        DefaultArbitrageMargin,
		FetchConcurrency:       DefaultFetchConcurrency,
		HotItemVelocity:        DefaultHotItemVelocity,
	}
}

// MonitorInterval returns the monitor sleep interval as a duration.
func (c *Config) MonitorInterval() time.Duration {
	if c.MonitorIntervalSeconds <= 0 {
		return DefaultMonitorInterval
	}
	return time.Duration(c.MonitorIntervalSeconds) * time.Second
}

// Load reads settings from path. A missing file returns defaults; a malformed
// file returns defaults plus an error so the caller can warn instead of
// silently resetting.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return Default(), fmt.Errorf("parse settings: %w", err)
	}
	if cfg.MonitorIntervalSeconds <= 0 {
		cfg.MonitorIntervalSeconds = int(DefaultMonitorInterval / time.Second)
	}
	if cfg.ArbitrageMargin <= 0 || cfg.ArbitrageMargin >= 1 {
		cfg.ArbitrageMargin = DefaultArbitrageMargin
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = DefaultFetchConcurrency
	}
	return cfg, nil
}

// Save writes settings to path atomically (temp file + rename).
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// ApplyEnv overrides file settings with environment variables when set.
// Pairs with godotenv so a .env file can configure a machine without
// touching the settings file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("FFU_DISCORD_WEBHOOK_URL"); v != "" {
		c.DiscordWebhookURL = v
	}
	if v := os.Getenv("FFU_MONITOR_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MonitorIntervalSeconds = n
		}
	}
	if v := os.Getenv("FFU_LANGUAGE"); v != "" {
		c.Language = v
	}
}
