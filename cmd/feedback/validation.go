package feedback

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

// validateFeedbackArgs checks the flags of the discard and endorse commands.
// A finding is named either by --key or by --path and --id. Path is made
// absolute since stored keys are built from absolute paths.
func validateFeedbackArgs(options *RunOptionsFeedback) error {
	if options.Key != "" {
		if options.Path != "" || options.ID != "" {
			return fmt.Errorf("'key' flag cannot be used together with 'path' or 'id'")
		}
		path, id, ok := findings.ParseKey(findings.Key(options.Key))
		if !ok {
			return fmt.Errorf("key %q must have the form PATH%sID", options.Key, findings.KeySeparator)
		}
		options.Path, options.ID = path, id
	}

	if options.Path == "" {
		return fmt.Errorf("'path' flag must be specified")
	}
	if strings.TrimSpace(options.ID) == "" {
		return fmt.Errorf("'id' flag must be specified")
	}

	abs, err := files.AbsPath(options.Path)
	if err != nil {
		return err
	}
	options.Path = abs
	options.ID = strings.TrimSpace(options.ID)
	return nil
}
