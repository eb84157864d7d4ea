package watch

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	clicmd "github.com/scan-io-git/scanio-ide/internal/cmd"
	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/pkg/shared/errors"
)

// RunOptionsWatch holds the arguments for the watch command.
type RunOptionsWatch struct {
	Dir string `json:"dir,omitempty"`
}

// Global variables for configuration and command arguments
var (
	AppConfig         *config.Config
	logger            hclog.Logger
	watchOptions      RunOptionsWatch
	exampleWatchUsage = `  # Analyse every file saved under the current folder
  scanio-ide watch

  # Watch a specific project
  scanio-ide watch /path/to/project`
)

// WatchCmd represents the watch command.
var WatchCmd = &cobra.Command{
	Use:                   "watch [DIR]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleWatchUsage,
	Short:                 "Analyse files as they are saved",
	Long: `Keep a session open and analyse every file saved under DIR. Requests the
service rate limits are not reported. Stop with Ctrl+C.`,
	RunE: runWatchCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	if err := validateWatchArgs(&watchOptions, args); err != nil {
		logger.Error("invalid watch arguments", "error", err)
		return errors.NewCommandError(watchOptions, fmt.Errorf("invalid watch arguments: %w", err), 1)
	}
	if !config.GetBoolValue(AppConfig, "Analysis.AnalyzeOnSave", true) {
		err := fmt.Errorf("analysis on save is disabled in the configuration")
		logger.Error("nothing to watch", "error", err)
		return errors.NewCommandError(watchOptions, err, 1)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ext, _, err := clicmd.Activate(ctx, AppConfig, logger, os.Stdout, watchOptions.Dir)
	if err != nil {
		logger.Error("failed to activate", "error", err)
		return errors.NewCommandError(watchOptions, err, 1)
	}

	if err := ext.Connect(ctx); err != nil {
		logger.Error("failed to open a session", "error", err)
		_ = ext.Deactivate()
		return errors.NewCommandError(watchOptions, err, 1)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range ext.Bus.Events() {
			clicmd.LogEvent(ev, logger)
		}
	}()

	logger.Info("watching for saved files", "dir", watchOptions.Dir)
	runErr := ext.Run(ctx, watchOptions.Dir)

	// Deactivate closes the bus, which ends the event loop.
	if err := ext.Deactivate(); err != nil {
		logger.Warn("failed to deactivate", "error", err)
	}
	wg.Wait()

	if runErr != nil && !isCanceled(ctx, runErr) {
		logger.Error("watch command failed", "error", runErr)
		return errors.NewCommandError(watchOptions, runErr, 1)
	}
	logger.Info("watch stopped")
	return nil
}

// isCanceled reports whether err only reflects the shutdown of ctx.
func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil && stderrors.Is(err, context.Canceled)
}

func init() {
	WatchCmd.Flags().BoolP("help", "h", false, "Show help for the watch command.")
}
