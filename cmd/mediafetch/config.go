package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mediafetch/pkg/auth"
	"mediafetch/pkg/ui"
)

var forceInit bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage mediafetch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (MEDIAFETCH_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'mediafetch.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. The feed token is
masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd, showCmd, validateCmd)

	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
}

const exampleConfig = `# mediafetch configuration
#
# Every option can also be set with an environment variable prefixed with
# MEDIAFETCH_, for example MEDIAFETCH_BASE_URL or MEDIAFETCH_TOKEN.

source:
  # Feed server and channel to read (required)
  base_url: "https://feed.example.com"
  channel: "my-channel"

  # Stored account to take the token from ('mediafetch auth login').
  # Leave empty to use the most recently stored account.
  account: ""

  # Messages requested per page
  page_size: 100
  request_timeout: 30s
  user_agent: "mediafetch/1.0"

# Feed API calls per minute
rate_limit:
  requests_per_minute: 60

# Retries for failed feed calls, with exponential backoff
retry:
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s

download:
  directory: "downloads"
  checkpoint_file: "download_progress.json"

  # Videos outside these bounds are skipped
  min_size_mb: 1
  max_size_mb: 2000

  # Oldest files are deleted once the folder grows past this size.
  # 0 disables eviction.
  max_disk_gb: 300

  # How often a running transfer checks for a skip request
  poll_interval: 100ms

control:
  # Listen on the terminal for the skip sequence
  keyboard: true
  skip_sequence: "ss"

notifications:
  enabled: false
  on_complete: true
  on_error: true

# Prometheus metrics, /healthz and /status
metrics:
  enabled: false
  listen_addr: "127.0.0.1:9310"

logging:
  # debug, info, warn, error
  level: "info"
  # Console sink level, defaults to warn unless --verbose is given
  console_level: ""
  # Rotated log file, empty for console only
  file: ""
  max_size: 100
  max_backups: 5
  max_age: 30
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "mediafetch.yaml"
	}

	if _, err := os.Stat(configPath); err == nil && !forceInit {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(ui.Output, "\nNext steps:")
	fmt.Fprintln(ui.Output, "1. Set source.base_url and source.channel")
	fmt.Fprintln(ui.Output, "2. Store a token with 'mediafetch auth login'")
	fmt.Fprintln(ui.Output, "3. Run 'mediafetch config validate -c "+configPath+"'")
	fmt.Fprintln(ui.Output, "4. Start downloading with 'mediafetch fetch -c "+configPath+"'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(make(map[string]interface{}), "")
	if err != nil {
		return err
	}

	display := *cfg
	if display.Source.Token != "" {
		display.Source.Token = auth.MaskToken(display.Source.Token)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Output)
	fmt.Fprint(ui.Output, string(data))

	fmt.Fprintln(ui.Output, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Output, "1. Command line flags")
	fmt.Fprintln(ui.Output, "2. Environment variables (MEDIAFETCH_*)")
	fmt.Fprintln(ui.Output, "3. .env and ~/.mediafetch.env")
	if configFile != "" {
		fmt.Fprintf(ui.Output, "4. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Output, "4. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(ui.Output, "5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := loadConfig(make(map[string]interface{}), "")
	if err != nil {
		return err
	}

	var warnings []string
	if err := cfg.RequireSource(); err != nil {
		for _, e := range unwrapJoined(err) {
			warnings = append(warnings, e.Error())
		}
	}
	if cfg.Download.MaxDiskGB == 0 {
		warnings = append(warnings, "max_disk_gb is 0, the download folder can grow without limit")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(ui.Output, "  - %s\n", w)
		}
		fmt.Fprintln(ui.Output)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(ui.Output, "\nConfiguration summary:")
	fmt.Fprintf(ui.Output, "  Download directory: %s\n", cfg.Download.Directory)
	fmt.Fprintf(ui.Output, "  Checkpoint: %s\n", cfg.Download.CheckpointFile)
	fmt.Fprintf(ui.Output, "  Size filter: %.0f-%.0f MB\n", cfg.Download.MinSizeMB, cfg.Download.MaxSizeMB)
	fmt.Fprintf(ui.Output, "  Disk quota: %.0f GB\n", cfg.Download.MaxDiskGB)
	fmt.Fprintf(ui.Output, "  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Fprintf(ui.Output, "  Max attempts: %d\n", cfg.Retry.MaxAttempts)
	fmt.Fprintf(ui.Output, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// unwrapJoined splits an errors.Join result into its parts.
func unwrapJoined(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
