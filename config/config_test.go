package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Scan.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", cfg.Scan.MaxConcurrent, DefaultMaxConcurrent)
	}
	if cfg.Scan.PageSizeLimit != DefaultPageSizeLimit {
		t.Errorf("PageSizeLimit = %d, want %d", cfg.Scan.PageSizeLimit, DefaultPageSizeLimit)
	}
	if cfg.Scan.LinesPerPage != DefaultLinesPerPage {
		t.Errorf("LinesPerPage = %d, want %d", cfg.Scan.LinesPerPage, DefaultLinesPerPage)
	}
	if cfg.Scan.Fetcher != "rod" {
		t.Errorf("Fetcher = %q, want %q", cfg.Scan.Fetcher, "rod")
	}
}

func TestLoadConfig(t *testing.T) {
	content := `
scan:
  max_concurrent: 3
  lines_per_page: 5
  fetcher: static
  cron: "0 9 * * *"
  chat_id: 42
bot:
  allowed_user_ids: [100, 200]
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Scan.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", cfg.Scan.MaxConcurrent)
	}
	if cfg.Scan.LinesPerPage != 5 {
		t.Errorf("LinesPerPage = %d, want 5", cfg.Scan.LinesPerPage)
	}
	if cfg.Scan.Fetcher != "static" {
		t.Errorf("Fetcher = %q, want %q", cfg.Scan.Fetcher, "static")
	}
	if cfg.Scan.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", cfg.Scan.ChatID)
	}
	// Unset fields fall back to defaults
	if cfg.Scan.PageSizeLimit != DefaultPageSizeLimit {
		t.Errorf("PageSizeLimit = %d, want default %d", cfg.Scan.PageSizeLimit, DefaultPageSizeLimit)
	}
	if cfg.Scan.FetchTimeoutSeconds != DefaultFetchTimeoutS {
		t.Errorf("FetchTimeoutSeconds = %d, want default %d", cfg.Scan.FetchTimeoutSeconds, DefaultFetchTimeoutS)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}

func TestIsUserAllowed(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Bot.AllowedUserIDs = []int64{100, 200}

	if !cfg.IsUserAllowed(100) {
		t.Error("IsUserAllowed(100) = false, want true")
	}
	if cfg.IsUserAllowed(300) {
		t.Error("IsUserAllowed(300) = true, want false")
	}

	open := GetDefaultConfig()
	if !open.IsUserAllowed(300) {
		t.Error("IsUserAllowed with empty allow list = false, want true")
	}
}
