package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default scan limits. The page size matches Telegram's per-message limit.
const (
	DefaultMaxConcurrent = 10
	DefaultPageSizeLimit = 4096
	DefaultLinesPerPage  = 10
	DefaultFetchTimeoutS = 20
)

// Config represents the application configuration
type Config struct {
	Scan struct {
		MaxConcurrent       int    `yaml:"max_concurrent"`
		PageSizeLimit       int    `yaml:"page_size_limit"`
		LinesPerPage        int    `yaml:"lines_per_page"`
		FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
		Fetcher             string `yaml:"fetcher"` // "rod" (default) or "static"
		Cron                string `yaml:"cron"`    // optional cron spec for scheduled scans
		ChatID              int64  `yaml:"chat_id"` // chat that receives scheduled scan reports
	} `yaml:"scan"`

	Bot struct {
		AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
		DataDir        string  `yaml:"data_dir"` // where uploaded import files are stored
	} `yaml:"bot"`

	Sheets struct {
		SpreadsheetURL  string `yaml:"spreadsheet_url"`
		CredentialsPath string `yaml:"credentials_path"`
	} `yaml:"sheets"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Scan.MaxConcurrent <= 0 {
		cfg.Scan.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Scan.PageSizeLimit <= 0 {
		cfg.Scan.PageSizeLimit = DefaultPageSizeLimit
	}
	if cfg.Scan.LinesPerPage <= 0 {
		cfg.Scan.LinesPerPage = DefaultLinesPerPage
	}
	if cfg.Scan.FetchTimeoutSeconds <= 0 {
		cfg.Scan.FetchTimeoutSeconds = DefaultFetchTimeoutS
	}
	if cfg.Scan.Fetcher == "" {
		cfg.Scan.Fetcher = "rod"
	}
	if cfg.Bot.DataDir == "" {
		cfg.Bot.DataDir = "/tmp/price-watcher"
	}
}

// FetchTimeout returns the per-page fetch timeout as a duration
func (cfg *Config) FetchTimeout() time.Duration {
	return time.Duration(cfg.Scan.FetchTimeoutSeconds) * time.Second
}

// IsUserAllowed reports whether the given Telegram user may use the bot.
// An empty allow list means the bot is open to everyone.
func (cfg *Config) IsUserAllowed(userID int64) bool {
	if len(cfg.Bot.AllowedUserIDs) == 0 {
		return true
	}
	for _, id := range cfg.Bot.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
