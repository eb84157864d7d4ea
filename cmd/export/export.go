package export

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-ide/cmd/version"
	clicmd "github.com/scan-io-git/scanio-ide/internal/cmd"
	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/sarif"
	"github.com/scan-io-git/scanio-ide/pkg/shared/errors"
)

const toolName = "scanio-ide"

// RunOptionsExport holds the arguments for the export command.
type RunOptionsExport struct {
	OutputPath       string `json:"output_path,omitempty"`
	Root             string `json:"root,omitempty"`
	IncludeDiscarded bool   `json:"include_discarded,omitempty"`
}

// Global variables for configuration and command arguments
var (
	AppConfig          *config.Config
	logger             hclog.Logger
	exportOptions      RunOptionsExport
	exampleExportUsage = `  # Export the stored findings as a SARIF report
  scanio-ide export -o findings.sarif

  # Export with paths relative to the project and keep discarded findings as suppressed results
  scanio-ide export -o findings.sarif --root /path/to/project --include-discarded`
)

// ExportCmd represents the export command.
var ExportCmd = &cobra.Command{
	Use:                   "export --output PATH [--root PATH] [--include-discarded]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleExportUsage,
	Short:                 "Export stored findings as a SARIF report",
	RunE:                  runExportCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runExportCommand(cmd *cobra.Command, args []string) error {
	if err := validateExportArgs(&exportOptions, args); err != nil {
		logger.Error("invalid export arguments", "error", err)
		return errors.NewCommandError(exportOptions, fmt.Errorf("invalid export arguments: %w", err), 1)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ext, _, err := clicmd.Activate(ctx, AppConfig, logger, nil, "")
	if err != nil {
		logger.Error("failed to activate", "error", err)
		return errors.NewCommandError(exportOptions, err, 1)
	}
	defer func() {
		if err := ext.Deactivate(); err != nil {
			logger.Warn("failed to deactivate", "error", err)
		}
	}()

	tool := sarif.ToolMetadata{Name: toolName, Version: &version.CoreVersion}
	report, err := sarif.BuildReport(ext.Store.Snapshot(), tool, sarif.BuildOptions{
		IncludeDiscarded: exportOptions.IncludeDiscarded,
		Root:             exportOptions.Root,
	}, logger)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		return errors.NewCommandError(exportOptions, err, 1)
	}

	if err := report.WriteReport(exportOptions.OutputPath); err != nil {
		logger.Error("failed to write report", "error", err)
		return errors.NewCommandError(exportOptions, err, 1)
	}

	logger.Info("report written", "path", exportOptions.OutputPath, "levels", report.CollectSeverityInfo())
	return nil
}

func init() {
	ExportCmd.Flags().StringVarP(&exportOptions.OutputPath, "output", "o", "", "Path of the SARIF file to write.")
	ExportCmd.Flags().StringVar(&exportOptions.Root, "root", "", "Report artifact locations relative to this folder.")
	ExportCmd.Flags().BoolVar(&exportOptions.IncludeDiscarded, "include-discarded", false, "Keep discarded findings as suppressed results.")
	ExportCmd.Flags().BoolP("help", "h", false, "Show help for the export command.")
}
