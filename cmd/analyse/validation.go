package analyse

import (
	"fmt"

	clicmd "github.com/scan-io-git/scanio-ide/internal/cmd"
	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

// validateAnalyseArgs validates the arguments provided to the analyse command
// and resolves the target to an absolute path.
func validateAnalyseArgs(options *RunOptionsAnalyse, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("exactly one file to analyse must be provided")
	}

	path, err := clicmd.ResolveDocument(args[0])
	if err != nil {
		return err
	}
	options.Path = path

	if options.WorkspaceRoot != "" {
		root, err := files.AbsPath(options.WorkspaceRoot)
		if err != nil {
			return err
		}
		if _, err := files.EnsureWithinRoot(root, path); err != nil {
			return fmt.Errorf("the file must be inside the workspace: %w", err)
		}
		options.WorkspaceRoot = root
	}
	return nil
}
