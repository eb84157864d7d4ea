package shared

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// HasFlags reports whether any flag of flags was set on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	changed := false
	flags.Visit(func(*pflag.Flag) {
		changed = true
	})
	return changed
}

// PrintResultAsJSON writes result to stdout as indented JSON.
func PrintResultAsJSON(result interface{}) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("error serializing result: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
