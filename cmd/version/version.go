package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/pkg/shared"
)

// The version fields are set at build time with -ldflags.
var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
	asJSON        bool
)

// Versions holds version information for the application and its backend.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
	ServiceURL    string `json:"service_url,omitempty"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "version [--json]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version of the application",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := current()
			if asJSON {
				return shared.PrintResultAsJSON(v)
			}
			printVersionInfo(v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the version information as JSON.")
	return cmd
}

func current() Versions {
	v := Versions{
		Version:       CoreVersion,
		GolangVersion: GolangVersion,
		BuildTime:     BuildTime,
	}
	if v.GolangVersion == "unknown" {
		v.GolangVersion = runtime.Version()
	}
	if AppConfig != nil {
		v.ServiceURL = config.GetBaseURL(AppConfig)
	}
	return v
}

// printVersionInfo prints the version information of the application.
func printVersionInfo(v Versions) {
	fmt.Printf("Core Version: v%s\n", v.Version)
	if v.ServiceURL != "" {
		fmt.Printf("Analysis Service: %s\n", v.ServiceURL)
	}
	fmt.Printf("Go Version: %s\n", v.GolangVersion)
	fmt.Printf("Build Time: %s\n", v.BuildTime)
}
