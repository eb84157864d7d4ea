package export

import (
	"fmt"

	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

const defaultReportName = "scanio-ide.sarif"

// validateExportArgs validates the arguments provided to the export command.
// An output folder gets the default report name appended.
func validateExportArgs(options *RunOptionsExport, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("export takes no positional arguments")
	}
	if options.OutputPath == "" {
		return fmt.Errorf("'output' flag must be specified")
	}

	output, folder, err := files.DetermineFileFullPath(options.OutputPath, defaultReportName)
	if err != nil {
		return err
	}
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return err
	}
	options.OutputPath = output

	if options.Root != "" {
		if options.Root, err = files.AbsPath(options.Root); err != nil {
			return err
		}
	}
	return nil
}
