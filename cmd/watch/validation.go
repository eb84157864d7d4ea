package watch

import (
	"fmt"
	"os"

	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

// validateWatchArgs resolves the folder to watch, defaulting to the working directory.
func validateWatchArgs(options *RunOptionsWatch, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("at most one folder can be watched")
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	abs, err := files.AbsPath(dir)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("path stat error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %q is not a directory", abs)
	}
	options.Dir = abs
	return nil
}
