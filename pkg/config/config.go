package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * 1024 * 1024
)

// Config holds all configuration options for mediafetch
type Config struct {
	// Message source connection
	Source SourceConfig `yaml:"source" json:"source"`

	// Rate limiting for source API calls
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry policy for source API calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Download directory, checkpoint and size bounds
	Download DownloadConfig `yaml:"download" json:"download"`

	// Interactive control input
	Control ControlConfig `yaml:"control" json:"control"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SourceConfig describes the message feed to read from
type SourceConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	Channel        string        `yaml:"channel" json:"channel"`
	Account        string        `yaml:"account" json:"account"`
	Token          string        `yaml:"token,omitempty" json:"-"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RetryConfig holds retry configuration for source requests
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Directory      string        `yaml:"directory" json:"directory"`
	CheckpointFile string        `yaml:"checkpoint_file" json:"checkpoint_file"`
	MinSizeMB      float64       `yaml:"min_size_mb" json:"min_size_mb"`
	MaxSizeMB      float64       `yaml:"max_size_mb" json:"max_size_mb"`
	MaxDiskGB      float64       `yaml:"max_disk_gb" json:"max_disk_gb"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// ControlConfig holds interactive control settings
type ControlConfig struct {
	Keyboard     bool   `yaml:"keyboard" json:"keyboard"`
	SkipSequence string `yaml:"skip_sequence" json:"skip_sequence"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// MetricsConfig controls the optional Prometheus listener
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	// ConsoleLevel overrides Level for the console sink only.
	ConsoleLevel string `yaml:"console_level" json:"console_level"`
	File         string `yaml:"file" json:"file"`
	MaxSize      int    `yaml:"max_size" json:"max_size"`
	MaxBackups   int    `yaml:"max_backups" json:"max_backups"`
	MaxAge       int    `yaml:"max_age" json:"max_age"`
	Compress     bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			PageSize:       100,
			RequestTimeout: 30 * time.Second,
			UserAgent:      "mediafetch/1.0",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Download: DownloadConfig{
			Directory:      "downloads",
			CheckpointFile: "download_progress.json",
			MinSizeMB:      1,
			MaxSizeMB:      2000,
			MaxDiskGB:      300,
			PollInterval:   100 * time.Millisecond,
		},
		Control: ControlConfig{
			Keyboard:     true,
			SkipSequence: "ss",
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9310",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   false,
		},
	}
}

// MinBytes returns the lower size bound in bytes.
func (c *Config) MinBytes() int64 { return int64(c.Download.MinSizeMB * bytesPerMB) }

// MaxBytes returns the upper size bound in bytes.
func (c *Config) MaxBytes() int64 { return int64(c.Download.MaxSizeMB * bytesPerMB) }

// QuotaBytes returns the download directory ceiling in bytes; 0 disables it.
func (c *Config) QuotaBytes() int64 { return int64(c.Download.MaxDiskGB * bytesPerGB) }

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Source
	setString(&c.Source.BaseURL, "MEDIAFETCH_BASE_URL")
	setString(&c.Source.Channel, "MEDIAFETCH_CHANNEL")
	setString(&c.Source.Account, "MEDIAFETCH_ACCOUNT")
	setString(&c.Source.Token, "MEDIAFETCH_TOKEN")
	setString(&c.Source.UserAgent, "MEDIAFETCH_USER_AGENT")
	if v, ok := envInt("MEDIAFETCH_PAGE_SIZE"); ok && v > 0 {
		c.Source.PageSize = v
	}

	// Rate limiting
	if v, ok := envInt("MEDIAFETCH_REQUESTS_PER_MINUTE"); ok && v > 0 {
		c.RateLimit.RequestsPerMinute = v
	}

	// Download
	setString(&c.Download.Directory, "MEDIAFETCH_DOWNLOAD_DIR")
	setString(&c.Download.CheckpointFile, "MEDIAFETCH_CHECKPOINT_FILE")
	if v, ok := envFloat("MEDIAFETCH_MIN_SIZE_MB"); ok && v >= 0 {
		c.Download.MinSizeMB = v
	}
	if v, ok := envFloat("MEDIAFETCH_MAX_SIZE_MB"); ok && v > 0 {
		c.Download.MaxSizeMB = v
	}
	if v, ok := envFloat("MEDIAFETCH_MAX_DISK_GB"); ok && v >= 0 {
		c.Download.MaxDiskGB = v
	}

	// Control
	if v := os.Getenv("MEDIAFETCH_KEYBOARD"); v != "" {
		c.Control.Keyboard = strings.ToLower(v) == "true"
	}

	// Notifications
	if v := os.Getenv("MEDIAFETCH_NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	// Metrics
	if v := os.Getenv("MEDIAFETCH_METRICS_ADDR"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddr = v
	}

	// Logging
	setString(&c.Logging.Level, "MEDIAFETCH_LOG_LEVEL")
	setString(&c.Logging.File, "MEDIAFETCH_LOG_FILE")

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	var val int
	if _, err := fmt.Sscanf(raw, "%d", &val); err != nil {
		return 0, false
	}
	return val, true
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	var val float64
	if _, err := fmt.Sscanf(raw, "%g", &val); err != nil {
		return 0, false
	}
	return val, true
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".mediafetch.yaml",
		".mediafetch.yml",
		filepath.Join(home, ".config", "mediafetch", "config.yaml"),
		filepath.Join(home, ".config", "mediafetch", "config.yml"),
		filepath.Join(home, ".mediafetch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Source.BaseURL != "" {
		if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid source base URL %q", c.Source.BaseURL))
		}
	}
	if c.Source.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Source.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
	}
	if c.Download.MinSizeMB < 0 {
		errs = append(errs, errors.New("minimum size cannot be negative"))
	}
	if c.Download.MaxSizeMB <= 0 {
		errs = append(errs, errors.New("maximum size must be positive"))
	}
	if c.Download.MinSizeMB > c.Download.MaxSizeMB {
		errs = append(errs, errors.New("minimum size cannot exceed maximum size"))
	}
	if c.Download.MaxDiskGB < 0 {
		errs = append(errs, errors.New("disk quota cannot be negative"))
	}
	if c.Download.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}

	if c.Control.Keyboard && c.Control.SkipSequence == "" {
		errs = append(errs, errors.New("skip sequence is required when keyboard control is enabled"))
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		errs = append(errs, errors.New("metrics listen address is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	if c.Logging.ConsoleLevel != "" && !validLogLevels[strings.ToLower(c.Logging.ConsoleLevel)] {
		errs = append(errs, errors.New("invalid console log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// RequireSource reports missing connection settings needed for a fetch run.
func (c *Config) RequireSource() error {
	var errs []error
	if c.Source.BaseURL == "" {
		errs = append(errs, errors.New("source base URL is required (MEDIAFETCH_BASE_URL or --base-url)"))
	}
	if c.Source.Channel == "" {
		errs = append(errs, errors.New("source channel is required (MEDIAFETCH_CHANNEL or --channel)"))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.Source.BaseURL = v
	}
	if v, ok := flags["channel"].(string); ok && v != "" {
		c.Source.Channel = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Source.Account = v
	}
	if v, ok := flags["dir"].(string); ok && v != "" {
		c.Download.Directory = v
	}
	if v, ok := flags["checkpoint"].(string); ok && v != "" {
		c.Download.CheckpointFile = v
	}
	if v, ok := flags["min-size-mb"].(float64); ok {
		c.Download.MinSizeMB = v
	}
	if v, ok := flags["max-size-mb"].(float64); ok {
		c.Download.MaxSizeMB = v
	}
	if v, ok := flags["max-disk-gb"].(float64); ok {
		c.Download.MaxDiskGB = v
	}
	if v, ok := flags["no-keyboard"].(bool); ok && v {
		c.Control.Keyboard = false
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddr = v
	}
	if v, ok := flags["notify"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".mediafetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
