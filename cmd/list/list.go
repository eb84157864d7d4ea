package list

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	clicmd "github.com/scan-io-git/scanio-ide/internal/cmd"
	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/decorations"
	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/internal/git"
	"github.com/scan-io-git/scanio-ide/pkg/shared"
	"github.com/scan-io-git/scanio-ide/pkg/shared/errors"
)

// RunOptionsList holds the arguments for the list command.
type RunOptionsList struct {
	Path     string `json:"path,omitempty"`
	All      bool   `json:"all,omitempty"`
	JSON     bool   `json:"json,omitempty"`
	KeepNew  bool   `json:"keep_new,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// FileSummary describes the stored findings of one file.
type FileSummary struct {
	Path       string             `json:"path"`
	Project    string             `json:"project,omitempty"`
	Branch     string             `json:"branch,omitempty"`
	Visible    int                `json:"visible"`
	Discarded  int                `json:"discarded"`
	// Stale counts findings whose expiration has passed.
	Stale      int                `json:"stale"`
	Findings   []findings.Finding `json:"findings,omitempty"`
	// OtherFiles lists files that still have findings the user has not looked at.
	OtherFiles []string           `json:"other_files,omitempty"`
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	logger           hclog.Logger
	listOptions      RunOptionsList
	exampleListUsage = `  # Show the stored findings of a file and mark them as viewed
  scanio-ide list /path/to/project/src/app.ts

  # Show every stored finding as JSON
  scanio-ide list --all --json

  # Show the findings of a file without marking them as viewed
  scanio-ide list --keep-new /path/to/project/src/app.ts`
)

// ListCmd represents the list command.
var ListCmd = &cobra.Command{
	Use:                   "list [--all] [--json] [--keep-new] [PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleListUsage,
	Short:                 "Show stored findings",
	Long: `Show the findings stored for a file. Opening a file marks its findings as
viewed, and the files that still carry unviewed findings are listed afterwards.`,
	RunE: runListCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func runListCommand(cmd *cobra.Command, args []string) error {
	if err := validateListArgs(&listOptions, args); err != nil {
		logger.Error("invalid list arguments", "error", err)
		return errors.NewCommandError(listOptions, fmt.Errorf("invalid list arguments: %w", err), 1)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ext, view, err := clicmd.Activate(ctx, AppConfig, logger, os.Stdout, "")
	if err != nil {
		logger.Error("failed to activate", "error", err)
		return errors.NewCommandError(listOptions, err, 1)
	}
	defer func() {
		if err := ext.Deactivate(); err != nil {
			logger.Warn("failed to deactivate", "error", err)
		}
	}()

	var summaries []FileSummary
	if listOptions.All {
		summaries = summarizeAll(ext.Store.Snapshot(), time.Now())
	} else {
		summary := summarize(listOptions.Path, ext.Store.ForPath(listOptions.Path), time.Now())
		if ws, err := git.ResolveWorkspace(listOptions.Path, ""); err == nil {
			summary.Project = ws.Name
			if ws.BranchName != nil {
				summary.Branch = *ws.BranchName
			}
		} else {
			logger.Debug("failed to resolve workspace", "path", listOptions.Path, "error", err)
		}

		if !listOptions.KeepNew {
			n, err := ext.Store.MarkViewed(ctx, listOptions.Path)
			if err != nil {
				logger.Error("failed to mark findings as viewed", "error", err)
				return errors.NewCommandError(listOptions, err, 1)
			}
			logger.Debug("findings marked as viewed", "path", listOptions.Path, "count", n)
		}
		summary.OtherFiles = ext.Store.OtherFilesWithUnviewed(listOptions.Path)
		summaries = []FileSummary{summary}

		if !listOptions.JSON {
			view.SetActive(listOptions.Path)
			ranges := decorations.Render(ext.Store.Snapshot(), listOptions.Path)
			if err := view.ApplyDecorations(listOptions.Path, ranges); err != nil {
				logger.Warn("failed to render highlights", "path", listOptions.Path, "error", err)
			}
		}
	}

	if listOptions.JSON {
		if err := shared.PrintResultAsJSON(summaries); err != nil {
			logger.Error("error serializing JSON result", "error", err)
			return errors.NewCommandError(listOptions, err, 1)
		}
		return nil
	}

	printSummaries(summaries, time.Now())
	return nil
}

func summarize(path string, fs []findings.Finding, now time.Time) FileSummary {
	s := FileSummary{Path: path}
	for _, f := range fs {
		if f.Expired(now) {
			s.Stale++
		}
		if f.IsDiscarded {
			s.Discarded++
		} else {
			s.Visible++
		}
	}
	if listOptions.Detailed || listOptions.JSON {
		s.Findings = fs
	}
	return s
}

func summarizeAll(entries findings.Entries, now time.Time) []FileSummary {
	byPath := map[string][]findings.Finding{}
	var order []string
	for _, k := range entries.Keys() {
		f := entries[k]
		if _, ok := byPath[f.Path]; !ok {
			order = append(order, f.Path)
		}
		byPath[f.Path] = append(byPath[f.Path], f)
	}

	summaries := make([]FileSummary, 0, len(order))
	for _, p := range order {
		summaries = append(summaries, summarize(p, byPath[p], now))
	}
	return summaries
}

func printSummaries(summaries []FileSummary, now time.Time) {
	if len(summaries) == 0 {
		fmt.Println("no stored findings")
		return
	}
	for _, s := range summaries {
		fmt.Printf("%s: %d visible, %d discarded, %d stale\n", s.Path, s.Visible, s.Discarded, s.Stale)
		for _, f := range s.Findings {
			state := ""
			switch {
			case f.IsDiscarded:
				state = " [discarded]"
			case f.IsEndorsed:
				state = " [endorsed]"
			}
			if f.Expired(now) {
				state += " [stale]"
			}
			fmt.Printf("  %d-%d %s %s%s\n", f.StartLine, f.EndLine, f.Key(), f.Category, state)
		}
		if len(s.OtherFiles) > 0 {
			fmt.Println("other files with new findings:")
			for _, p := range s.OtherFiles {
				fmt.Printf("  %s\n", p)
			}
		}
	}
}

func init() {
	ListCmd.Flags().BoolVarP(&listOptions.All, "all", "a", false, "Show the findings of every stored file.")
	ListCmd.Flags().BoolVar(&listOptions.JSON, "json", false, "Print the result as JSON.")
	ListCmd.Flags().BoolVar(&listOptions.KeepNew, "keep-new", false, "Do not mark the findings of PATH as viewed.")
	ListCmd.Flags().BoolVarP(&listOptions.Detailed, "detailed", "d", false, "Print every finding, not only the counts.")
	ListCmd.Flags().BoolP("help", "h", false, "Show help for the list command.")
}
