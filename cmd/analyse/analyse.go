package analyse

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-ide/internal/analyzer"
	clicmd "github.com/scan-io-git/scanio-ide/internal/cmd"
	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/internal/reconcile"
	"github.com/scan-io-git/scanio-ide/pkg/shared"
	"github.com/scan-io-git/scanio-ide/pkg/shared/errors"
)

// RunOptionsAnalyse holds the arguments for the analyse command.
type RunOptionsAnalyse struct {
	Path          string
	WorkspaceRoot string
	Quiet         bool
	JSON          bool
}

// Result is printed with --json.
type Result struct {
	Path     string             `json:"path"`
	Outcome  string             `json:"outcome"`
	Count    int                `json:"count"`
	Rejected int                `json:"rejected"`
	Findings []findings.Finding `json:"findings"`
}

// Global variables for configuration and command arguments
var (
	AppConfig           *config.Config
	logger              hclog.Logger
	analyseOptions      RunOptionsAnalyse
	exampleAnalyseUsage = `  # Analyse a file and print its highlights
  scanio-ide analyse /path/to/project/src/app.ts

  # Analyse a file outside a git repository, reporting paths relative to a folder
  scanio-ide analyse --workspace /path/to/project /path/to/project/src/app.ts

  # Print the outcome and findings as JSON
  scanio-ide analyse --json /path/to/project/src/app.ts`
)

// AnalyseCmd represents the analyse command.
var AnalyseCmd = &cobra.Command{
	Use:                   "analyse [--workspace PATH] [--quiet] [--json] PATH",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnalyseUsage,
	Short:                 "Submit a file to the analysis service and store its findings",
	Long: `Submit a file to the analysis service, wait for the job to finish and merge
the returned findings into the local finding store. Findings of other files are
left untouched. Highlights of the analysed file are printed to stdout.`,
	RunE: runAnalyseCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

// runAnalyseCommand executes the analyse command.
func runAnalyseCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	if err := validateAnalyseArgs(&analyseOptions, args); err != nil {
		logger.Error("invalid analyse arguments", "error", err)
		return errors.NewCommandError(analyseOptions, fmt.Errorf("invalid analyse arguments: %w", err), 1)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ext, view, err := clicmd.Activate(ctx, AppConfig, logger, os.Stdout, analyseOptions.WorkspaceRoot)
	if err != nil {
		logger.Error("failed to activate", "error", err)
		return errors.NewCommandError(analyseOptions, err, 1)
	}
	defer func() {
		if err := ext.Deactivate(); err != nil {
			logger.Warn("failed to deactivate", "error", err)
		}
	}()

	if err := ext.Connect(ctx); err != nil {
		logger.Error("failed to open a session", "error", err)
		return errors.NewCommandError(analyseOptions, err, 1)
	}

	view.SetActive(analyseOptions.Path)
	outcome, err := ext.Analyzer.Analyze(ctx, analyzer.Request{Path: analyseOptions.Path, Quiet: analyseOptions.Quiet})
	clicmd.LogEvents(ext.Bus, logger)
	if err != nil {
		logger.Error("analyse command failed", "error", err)
		return errors.NewCommandError(analyseOptions, err, 1)
	}

	if analyseOptions.JSON {
		result := Result{
			Path:     analyseOptions.Path,
			Outcome:  outcome.Kind.String(),
			Count:    outcome.Count,
			Rejected: outcome.Stats.Rejected(),
			Findings: ext.Store.ForPath(analyseOptions.Path),
		}
		if err := shared.PrintResultAsJSON(result); err != nil {
			logger.Error("error serializing JSON result", "error", err)
		}
	}

	if code := exitCode(outcome); code != 0 {
		return errors.NewCommandError(analyseOptions, fmt.Errorf("analysis finished with outcome %s", outcome), code)
	}

	logger.Info("analyse command completed successfully", "findings", outcome.Count, "rejected", outcome.Stats.Rejected())
	if others := ext.Store.OtherFilesWithUnviewed(analyseOptions.Path); len(others) > 0 {
		logger.Info("other files have unviewed findings", "files", len(others))
	}
	return nil
}

// Initialize flags for the analyse command.
func init() {
	AnalyseCmd.Flags().StringVarP(&analyseOptions.WorkspaceRoot, "workspace", "w", "", "Folder used as the project root for files outside a git repository.")
	AnalyseCmd.Flags().BoolVarP(&analyseOptions.Quiet, "quiet", "q", false, "Do not report the failure when the service rate limits the request.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.JSON, "json", false, "Print the outcome and findings as JSON.")
	AnalyseCmd.Flags().BoolP("help", "h", false, "Show help for the analyse command.")
}

// exitCode maps an outcome onto the process exit code.
func exitCode(outcome reconcile.Outcome) int {
	switch outcome.Kind {
	case reconcile.Completed:
		return 0
	case reconcile.RemoteFailure:
		return 3
	default:
		return 2
	}
}
