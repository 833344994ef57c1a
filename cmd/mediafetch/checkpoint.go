package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediafetch/pkg/checkpoint"
	"mediafetch/pkg/logger"
	"mediafetch/pkg/ui"
)

var (
	checkpointPath string
	showJSON       bool
	assumeYes      bool
)

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and edit the resume checkpoint",
	Long: `Inspect and edit the checkpoint file that records which messages have
been handled.

Every command that changes the checkpoint first copies it to
<checkpoint>.backup.`,
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the checkpoint",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointShow,
}

var checkpointForgetCmd = &cobra.Command{
	Use:   "forget <id>...",
	Short: "Forget message ids so the next run downloads them again",
	Example: `  # Download messages 1200 and 1201 again
  mediafetch checkpoint forget 1200 1201`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheckpointForget,
}

var checkpointRetryCmd = &cobra.Command{
	Use:   "retry-failed",
	Short: "Forget every failed message so the next run tries it again",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointRetry,
}

var checkpointResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the checkpoint and start over",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointReset,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd, checkpointForgetCmd, checkpointRetryCmd, checkpointResetCmd)

	checkpointCmd.PersistentFlags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file (default from configuration)")
	checkpointShowCmd.Flags().BoolVar(&showJSON, "json", false, "print the raw checkpoint")
	checkpointResetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

func openCheckpointStore() (*checkpoint.Store, error) {
	flags := make(map[string]interface{})
	if checkpointPath != "" {
		flags["checkpoint"] = checkpointPath
	}
	cfg, err := loadConfig(flags, "")
	if err != nil {
		return nil, err
	}
	return checkpoint.NewStore(cfg.Download.CheckpointFile, logger.GetLogger()), nil
}

// readCheckpoint reads the stored checkpoint, reporting a friendly error
// when there is none yet.
func readCheckpoint(store *checkpoint.Store) (*checkpoint.Checkpoint, error) {
	cp, err := store.Read()
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no checkpoint at %s, nothing has been downloaded yet", store.Path())
	}
	return cp, err
}

// rewriteCheckpoint backs up the current file, then saves cp.
func rewriteCheckpoint(store *checkpoint.Store, cp *checkpoint.Checkpoint) error {
	backup, err := store.Backup()
	if err != nil {
		return err
	}
	if err := store.Save(cp); err != nil {
		return err
	}
	if backup != "" {
		ui.PrintInfo("Backup", backup)
	}
	return nil
}

func runCheckpointShow(cmd *cobra.Command, args []string) error {
	store, err := openCheckpointStore()
	if err != nil {
		return err
	}
	cp, err := readCheckpoint(store)
	if err != nil {
		return err
	}

	if showJSON {
		data, err := json.MarshalIndent(cp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format checkpoint: %w", err)
		}
		fmt.Fprintln(ui.Output, string(data))
		return nil
	}

	ui.PrintHighlight("Checkpoint")
	ui.PrintInfo("File", store.Path())
	ui.PrintInfo("Last message ID", strconv.FormatInt(cp.LastID, 10))
	ui.PrintInfo("Processed", strconv.Itoa(cp.Len()))

	failed := cp.Failed()
	ui.PrintInfo("Failed", strconv.Itoa(len(failed)))
	if len(failed) > 0 {
		fmt.Fprintf(ui.Output, "  %s\n", formatIDs(failed, 20))
		fmt.Fprintln(ui.Output, "\nRun 'mediafetch checkpoint retry-failed' to try them again.")
	}
	return nil
}

func runCheckpointForget(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	store, err := openCheckpointStore()
	if err != nil {
		return err
	}
	cp, err := readCheckpoint(store)
	if err != nil {
		return err
	}

	removed := cp.Forget(ids...)
	if removed == 0 {
		ui.PrintWarning("None of the ids are in the checkpoint")
		return nil
	}
	if err := rewriteCheckpoint(store, cp); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Forgot %d of %d ids; next run resumes after message %d", removed, len(ids), cp.LastID))
	return nil
}

func runCheckpointRetry(cmd *cobra.Command, args []string) error {
	store, err := openCheckpointStore()
	if err != nil {
		return err
	}
	cp, err := readCheckpoint(store)
	if err != nil {
		return err
	}

	ids := cp.RetryFailed()
	if len(ids) == 0 {
		ui.PrintInfo("Failed downloads", "none")
		return nil
	}
	if err := rewriteCheckpoint(store, cp); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("%d failed messages will be retried on the next run: %s", len(ids), formatIDs(ids, 10)))
	return nil
}

func runCheckpointReset(cmd *cobra.Command, args []string) error {
	store, err := openCheckpointStore()
	if err != nil {
		return err
	}
	if !store.Exists() {
		ui.PrintInfo("No checkpoint", store.Path())
		return nil
	}

	if !assumeYes {
		fmt.Fprintf(ui.Output, "Delete %s? Every message will be considered again. (y/N): ", store.Path())
		input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	backup, err := store.Backup()
	if err != nil {
		return err
	}
	if err := store.Delete(); err != nil {
		return err
	}
	ui.PrintSuccess("Checkpoint deleted, backup kept at " + backup)
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid message id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// formatIDs joins ids, eliding everything after the first limit.
func formatIDs(ids []int64, limit int) string {
	parts := make([]string, 0, limit+1)
	for i, id := range ids {
		if i == limit {
			parts = append(parts, fmt.Sprintf("... and %d more", len(ids)-limit))
			break
		}
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}
