package feedback

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-ide/internal/actions"
	clicmd "github.com/scan-io-git/scanio-ide/internal/cmd"
	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/pkg/shared/errors"
)

// RunOptionsFeedback holds the arguments shared by the discard and endorse commands.
type RunOptionsFeedback struct {
	Path string `json:"path,omitempty"`
	ID   string `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
}

// Global variables for configuration and command arguments
var (
	AppConfig      *config.Config
	logger         hclog.Logger
	discardOptions RunOptionsFeedback
	endorseOptions RunOptionsFeedback
	exampleDiscard = `  # Hide a finding and report it as a false positive
  scanio-ide discard --path /path/to/project/src/app.ts --id 5f1c

  # Name the finding by its store key, as printed by the list command
  scanio-ide discard --key /path/to/project/src/app.ts@@5f1c`
	exampleEndorse = `  # Confirm a finding as a real problem
  scanio-ide endorse --path /path/to/project/src/app.ts --id 5f1c`
)

// DiscardCmd represents the discard command.
var DiscardCmd = &cobra.Command{
	Use:                   "discard (--path PATH --id ID | --key KEY)",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleDiscard,
	Short:                 "Discard a stored finding",
	Long: `Mark a stored finding as discarded so it is no longer highlighted, and tell the
analysis service about the decision. Feedback failures are logged but do not
undo the local change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFeedbackCommand(cmd, actions.ActionDiscard, &discardOptions)
	},
}

// EndorseCmd represents the endorse command.
var EndorseCmd = &cobra.Command{
	Use:                   "endorse (--path PATH --id ID | --key KEY)",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleEndorse,
	Short:                 "Endorse a stored finding",
	Long: `Mark a stored finding as endorsed and tell the analysis service about the
decision. Endorsing a discarded finding brings its highlight back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFeedbackCommand(cmd, actions.ActionEndorse, &endorseOptions)
	},
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runFeedbackCommand(cmd *cobra.Command, action actions.Action, options *RunOptionsFeedback) error {
	if err := validateFeedbackArgs(options); err != nil {
		logger.Error("invalid feedback arguments", "action", action, "error", err)
		return errors.NewCommandError(*options, fmt.Errorf("invalid %s arguments: %w", action, err), 1)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ext, view, err := clicmd.Activate(ctx, AppConfig, logger, os.Stdout, "")
	if err != nil {
		logger.Error("failed to activate", "error", err)
		return errors.NewCommandError(*options, err, 1)
	}
	defer func() {
		if err := ext.Deactivate(); err != nil {
			logger.Warn("failed to deactivate", "error", err)
		}
	}()

	if _, ok := ext.Store.Get(findings.NewKey(options.Path, options.ID)); !ok {
		err := fmt.Errorf("%w: %s", actions.ErrUnknownFinding, findings.NewKey(options.Path, options.ID))
		logger.Error("nothing to update", "error", err)
		return errors.NewCommandError(*options, err, 1)
	}

	if err := ext.Connect(ctx); err != nil {
		logger.Error("failed to open a session", "error", err)
		return errors.NewCommandError(*options, err, 1)
	}

	view.SetActive(options.Path)
	switch action {
	case actions.ActionDiscard:
		err = ext.Actions.Discard(ctx, options.Path, options.ID)
	default:
		err = ext.Actions.Endorse(ctx, options.Path, options.ID)
	}
	if err != nil {
		logger.Error("feedback command failed", "action", action, "error", err)
		return errors.NewCommandError(*options, err, 1)
	}

	logger.Info("finding updated", "action", action, "path", options.Path, "id", options.ID)
	return nil
}

func init() {
	for _, c := range []struct {
		cmd     *cobra.Command
		options *RunOptionsFeedback
	}{
		{DiscardCmd, &discardOptions},
		{EndorseCmd, &endorseOptions},
	} {
		c.cmd.Flags().StringVarP(&c.options.Path, "path", "p", "", "File the finding belongs to.")
		c.cmd.Flags().StringVar(&c.options.ID, "id", "", "Identifier of the finding as reported by the service.")
		c.cmd.Flags().StringVarP(&c.options.Key, "key", "k", "", "Store key of the finding (PATH@@ID), instead of --path and --id.")
		c.cmd.Flags().BoolP("help", "h", false, fmt.Sprintf("Show help for the %s command.", c.cmd.Name()))
	}
}
