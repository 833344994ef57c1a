package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Download.Directory != "downloads" {
		t.Errorf("Expected default download directory to be downloads, got %s", config.Download.Directory)
	}
	if config.Download.CheckpointFile != "download_progress.json" {
		t.Errorf("Expected default checkpoint file to be download_progress.json, got %s", config.Download.CheckpointFile)
	}
	if config.Control.SkipSequence != "ss" {
		t.Errorf("Expected default skip sequence to be ss, got %s", config.Control.SkipSequence)
	}

	assert.Equal(t, int64(1*1024*1024), config.MinBytes())
	assert.Equal(t, int64(2000*1024*1024), config.MaxBytes())
	assert.Equal(t, int64(300)*1024*1024*1024, config.QuotaBytes())
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MEDIAFETCH_BASE_URL", "https://feed.example.com")
	t.Setenv("MEDIAFETCH_CHANNEL", "clips")
	t.Setenv("MEDIAFETCH_TOKEN", "secret")
	t.Setenv("MEDIAFETCH_REQUESTS_PER_MINUTE", "30")
	t.Setenv("MEDIAFETCH_DOWNLOAD_DIR", "/tmp/test-downloads")
	t.Setenv("MEDIAFETCH_MIN_SIZE_MB", "5")
	t.Setenv("MEDIAFETCH_MAX_SIZE_MB", "750.5")
	t.Setenv("MEDIAFETCH_MAX_DISK_GB", "0")
	t.Setenv("MEDIAFETCH_KEYBOARD", "false")
	t.Setenv("MEDIAFETCH_METRICS_ADDR", ":9999")
	t.Setenv("MEDIAFETCH_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	assert.Equal(t, "https://feed.example.com", config.Source.BaseURL)
	assert.Equal(t, "clips", config.Source.Channel)
	assert.Equal(t, "secret", config.Source.Token)
	assert.Equal(t, 30, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "/tmp/test-downloads", config.Download.Directory)
	assert.Equal(t, 5.0, config.Download.MinSizeMB)
	assert.Equal(t, 750.5, config.Download.MaxSizeMB)
	assert.Equal(t, int64(0), config.QuotaBytes())
	assert.False(t, config.Control.Keyboard)
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, ":9999", config.Metrics.ListenAddr)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("MEDIAFETCH_REQUESTS_PER_MINUTE", "lots")
	t.Setenv("MEDIAFETCH_MAX_SIZE_MB", "-3")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, 60, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, 2000.0, config.Download.MaxSizeMB)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
source:
  base_url: https://feed.example.com
  channel: archive
  page_size: 50
  request_timeout: 10s
download:
  directory: /data/videos
  min_size_mb: 2
  max_size_mb: 100
  max_disk_gb: 1.5
  poll_interval: 250ms
logging:
  level: warn
  file: logs/mediafetch.log
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	assert.Equal(t, "archive", config.Source.Channel)
	assert.Equal(t, 50, config.Source.PageSize)
	assert.Equal(t, 10*time.Second, config.Source.RequestTimeout)
	assert.Equal(t, "/data/videos", config.Download.Directory)
	assert.Equal(t, 250*time.Millisecond, config.Download.PollInterval)
	assert.Equal(t, int64(1.5*1024*1024*1024), config.QuotaBytes())
	assert.Equal(t, "warn", config.Logging.Level)

	// Untouched sections keep their defaults
	assert.Equal(t, "download_progress.json", config.Download.CheckpointFile)
	assert.Equal(t, "ss", config.Control.SkipSequence)
}

func TestLoadFromFileErrors(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("source: [unclosed"), 0644))
	assert.Error(t, config.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad base url", func(c *Config) { c.Source.BaseURL = "not a url" }, "base URL"},
		{"min above max", func(c *Config) { c.Download.MinSizeMB = 10; c.Download.MaxSizeMB = 5 }, "cannot exceed"},
		{"negative quota", func(c *Config) { c.Download.MaxDiskGB = -1 }, "quota"},
		{"empty directory", func(c *Config) { c.Download.Directory = "" }, "download directory"},
		{"empty checkpoint", func(c *Config) { c.Download.CheckpointFile = "" }, "checkpoint"},
		{"no skip sequence", func(c *Config) { c.Control.SkipSequence = "" }, "skip sequence"},
		{"no skip sequence without keyboard", func(c *Config) { c.Control.SkipSequence = ""; c.Control.Keyboard = false }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	config := DefaultConfig()
	config.Download.Directory = ""
	config.Logging.Level = "loud"

	err := config.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, len(strings.Split(err.Error(), "\n")))
}

func TestRequireSource(t *testing.T) {
	config := DefaultConfig()
	err := config.RequireSource()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL")
	assert.Contains(t, err.Error(), "channel")

	config.Source.BaseURL = "http://localhost:8080"
	config.Source.Channel = "clips"
	assert.NoError(t, config.RequireSource())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Source.Channel = "clips"
	config.Download.MaxDiskGB = 42
	if err := config.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "clips", loaded.Source.Channel)
	assert.Equal(t, 42.0, loaded.Download.MaxDiskGB)
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"channel":     "flagged",
		"dir":         "/flag/dir",
		"max-disk-gb": 0.0,
		"min-size-mb": 3.0,
		"no-keyboard": true,
		"log-level":   "error",
		"base-url":    "",
	})

	assert.Equal(t, "flagged", config.Source.Channel)
	assert.Equal(t, "/flag/dir", config.Download.Directory)
	assert.Equal(t, 0.0, config.Download.MaxDiskGB)
	assert.Equal(t, 3.0, config.Download.MinSizeMB)
	assert.False(t, config.Control.Keyboard)
	assert.Equal(t, "error", config.Logging.Level)
	assert.Empty(t, config.Source.BaseURL)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  channel: from-file\ndownload:\n  directory: file-dir\n"), 0644))

	t.Setenv("MEDIAFETCH_CHANNEL", "from-env")

	config, err := Load(path, map[string]interface{}{"dir": "flag-dir"})
	require.NoError(t, err)

	assert.Equal(t, "from-env", config.Source.Channel)
	assert.Equal(t, "flag-dir", config.Download.Directory)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MEDIAFETCH_LOG_LEVEL", "shouting")

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}
