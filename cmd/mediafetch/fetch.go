package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mediafetch/internal/control"
	"mediafetch/internal/downloader"
	"mediafetch/internal/metrics"
	"mediafetch/pkg/auth"
	"mediafetch/pkg/checkpoint"
	"mediafetch/pkg/config"
	"mediafetch/pkg/fetcher"
	"mediafetch/pkg/filter"
	"mediafetch/pkg/logger"
	"mediafetch/pkg/ratelimit"
	"mediafetch/pkg/retry"
	"mediafetch/pkg/source/feed"
	"mediafetch/pkg/storage"
	"mediafetch/pkg/ui"
	"mediafetch/pkg/ui/tui"
)

var (
	// Fetch command flags
	baseURL     string
	accountName string
	outputDir   string
	cpFile      string
	minSizeMB   float64
	maxSizeMB   float64
	maxDiskGB   float64
	noKeyboard  bool
	useTUI      bool
	metricsAddr string
	notify      bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [channel]",
	Short: "Download every video posted to a channel",
	Long: `Download every video attachment posted to a channel, oldest first.

Progress is saved after every message to the checkpoint file, so an
interrupted run picks up where it stopped. Messages already handled are
never downloaded twice.

The feed token is taken from, in order:
  - the MEDIAFETCH_TOKEN environment variable or source.token in the config
  - the stored account named by --account
  - the most recently stored account ('mediafetch auth login')`,
	Example: `  # Download from a channel into ./downloads
  mediafetch fetch my-channel --base-url https://feed.example.com

  # Only videos between 10 MB and 500 MB, keep the folder under 50 GB
  mediafetch fetch my-channel --min-size-mb 10 --max-size-mb 500 --max-disk-gb 50

  # Full-screen interface with metrics on :9310
  mediafetch fetch my-channel --tui --metrics-addr :9310`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addFetchFlags(fetchCmd)
	addFetchFlags(rootCmd)
}

func addFetchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&baseURL, "base-url", "", "feed base URL")
	flags.StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	flags.StringVarP(&outputDir, "dir", "o", "", "download directory (default \"downloads\")")
	flags.StringVar(&cpFile, "checkpoint", "", "checkpoint file (default \"download_progress.json\")")
	flags.Float64Var(&minSizeMB, "min-size-mb", 0, "skip videos smaller than this")
	flags.Float64Var(&maxSizeMB, "max-size-mb", 0, "skip videos larger than this")
	flags.Float64Var(&maxDiskGB, "max-disk-gb", 0, "download directory quota, 0 disables eviction")
	flags.BoolVar(&noKeyboard, "no-keyboard", false, "do not listen for the skip sequence on stdin")
	flags.BoolVar(&useTUI, "tui", false, "use the full-screen terminal interface")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics and /status on this address")
	flags.BoolVar(&notify, "notify", false, "send a desktop notification when the run ends")
}

// fetchFlags collects the flags the user actually set.
func fetchFlags(cmd *cobra.Command, args []string) map[string]interface{} {
	set := cmd.Flags().Changed
	flags := make(map[string]interface{})
	if len(args) > 0 {
		flags["channel"] = args[0]
	}
	if set("base-url") {
		flags["base-url"] = baseURL
	}
	if set("account") {
		flags["account"] = accountName
	}
	if set("dir") {
		flags["dir"] = outputDir
	}
	if set("checkpoint") {
		flags["checkpoint"] = cpFile
	}
	if set("min-size-mb") {
		flags["min-size-mb"] = minSizeMB
	}
	if set("max-size-mb") {
		flags["max-size-mb"] = maxSizeMB
	}
	if set("max-disk-gb") {
		flags["max-disk-gb"] = maxDiskGB
	}
	if set("no-keyboard") {
		flags["no-keyboard"] = noKeyboard
	}
	if set("metrics-addr") {
		flags["metrics-addr"] = metricsAddr
	}
	if set("notify") {
		flags["notify"] = notify
	}
	return flags
}

func runFetch(cmd *cobra.Command, args []string) error {
	console := ""
	if useTUI {
		// The full-screen view owns the terminal; logs go to the file only.
		console = "disabled"
	}
	cfg, err := loadConfig(fetchFlags(cmd, args), console)
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("mediafetch starting")

	if err := resolveToken(cfg, log); err != nil {
		return err
	}
	if err := cfg.RequireSource(); err != nil {
		return err
	}

	store, err := storage.NewManager(cfg.Download.Directory, log)
	if err != nil {
		return err
	}
	if n, err := store.CleanPartials(); err != nil {
		log.WithError(err).Warn("Failed to remove partial downloads")
	} else if n > 0 {
		log.WithField("count", n).Info("Removed partial downloads from a previous run")
	}

	checkpoints := checkpoint.NewStore(cfg.Download.CheckpointFile, log)
	store.Exclude(checkpoints.Path())

	source := feed.NewSource(cfg.Source, ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute), retry.FromConfig(cfg.Retry, log), log)
	transfer := downloader.NewController(downloader.Options{PollInterval: cfg.Download.PollInterval}, log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	flag := &control.Flag{}
	listeners := []control.Listener{control.NewSignalListener()}
	reporters := fetcher.MultiReporter{ui.NewRunNotifier(ui.NewNotifier(), cfg.Notifications)}

	sourceName := cfg.Source.Channel + " @ " + cfg.Source.BaseURL
	var view *tui.TUI
	keyboard := false
	if useTUI {
		view = tui.NewTUI(sourceName, cfg.Download.Directory)
		listeners = append(listeners, view)
		reporters = append(reporters, view)
	} else {
		if cfg.Control.Keyboard {
			kl, err := control.NewTerminalKeyListener(os.Stdin, cfg.Control.SkipSequence, log)
			switch {
			case errors.Is(err, control.ErrNotTerminal):
				log.Debug("Stdin is not a terminal, skip sequence disabled")
			case err != nil:
				log.WithError(err).Warn("Keyboard control unavailable")
			default:
				listeners = append(listeners, kl)
				keyboard = true
			}
		}
		reporters = append(reporters, ui.NewProgressDisplay(ui.Output, verbose))
	}
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		reporters = append(reporters, metrics.NewReporter(m))
	}

	engine, err := fetcher.New(fetcher.Deps{
		Source:      source,
		Checkpoints: checkpoints,
		Storage:     store,
		Transfer:    transfer,
		Flag:        flag,
		Reporter:    reporters,
		Logger:      log,
	}, fetcher.Options{
		Filter:     filter.Criteria{MinSize: cfg.MinBytes(), MaxSize: cfg.MaxBytes()},
		QuotaBytes: cfg.QuotaBytes(),
	})
	if err != nil {
		return err
	}
	source.Client().SetHeader("X-Run-Id", engine.RunID())

	if m != nil {
		srv := metrics.NewServer(cfg.Metrics.ListenAddr, metrics.NewRouter(m, engine, log), log)
		if err := srv.Start(); err != nil {
			log.WithError(err).Warn("Metrics disabled")
		} else {
			defer func() {
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				srv.Shutdown(shutdownCtx)
			}()
		}
	}

	go control.Dispatch(ctx, control.Merge(ctx, listeners...), flag, cancel, func(ev control.Event) {
		log.WithField("event", ev.String()).Info("Control event received")
	})

	if view != nil {
		view.Start()
	} else {
		ui.PrintBanner(sourceName, cfg.Download.Directory, cfg.Control.SkipSequence, keyboard)
		if cp, err := checkpoints.Read(); err == nil && cp.LastID > 0 {
			ui.PrintInfo("Resuming from message ID", strconv.FormatInt(cp.LastID, 10))
		}
	}

	stats, runErr := engine.Run(ctx)

	if view != nil {
		if err := view.Wait(); err != nil {
			log.WithError(err).Error("Terminal interface failed")
		}
		fmt.Fprintln(ui.Output, ui.SummaryLine(stats))
	}

	if runErr != nil && !errors.Is(runErr, fetcher.ErrInterrupted) {
		return runErr
	}
	return nil
}

// resolveToken fills in the feed token from the credential stores when the
// configuration does not carry one.
func resolveToken(cfg *config.Config, log logger.Logger) error {
	if cfg.Source.Token != "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	account, err := manager.Resolve(cfg.Source.Account)
	if err != nil {
		if cfg.Source.Account != "" {
			return fmt.Errorf("account %q: %w (see 'mediafetch auth list')", cfg.Source.Account, err)
		}
		log.Warn("No feed token configured, connecting without one")
		return nil
	}

	cfg.Source.Token = account.Token
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = account.BaseURL
	}
	log.WithField("account", account.Name).Info("Using stored credentials")
	return nil
}
