package list

import (
	"fmt"

	clicmd "github.com/scan-io-git/scanio-ide/internal/cmd"
	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

// validateListArgs validates the arguments provided to the list command.
// A single path lists one file; without it the 'all' flag is required.
func validateListArgs(options *RunOptionsList, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("at most one file can be listed")
	}

	switch clicmd.DetermineMode(args) {
	case clicmd.ModeSinglePath:
		if options.All {
			return fmt.Errorf("'all' flag cannot be used together with a path")
		}
		abs, err := files.AbsPath(args[0])
		if err != nil {
			return err
		}
		options.Path = abs
	case clicmd.ModeFlags:
		if !options.All {
			return fmt.Errorf("a path or the 'all' flag must be specified")
		}
	}
	return nil
}
