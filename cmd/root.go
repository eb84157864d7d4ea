package cmd

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/scanio-ide/cmd/analyse"
	"github.com/scan-io-git/scanio-ide/cmd/export"
	"github.com/scan-io-git/scanio-ide/cmd/feedback"
	"github.com/scan-io-git/scanio-ide/cmd/list"
	"github.com/scan-io-git/scanio-ide/cmd/version"
	"github.com/scan-io-git/scanio-ide/cmd/watch"
	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/logger"
	"github.com/scan-io-git/scanio-ide/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	Logger    hclog.Logger
	rootCmd   = &cobra.Command{
		Use:                   "scanio-ide [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Scanio IDE runs static analysis on the files you edit.",
		Long: `Scanio IDE submits files to a remote static-analysis service, keeps the
returned findings in a local store and highlights them. Findings can be
discarded or endorsed, and the decision is reported back to the service.
`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml, SCANIO_IDE_CONFIG overrides)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(analyse.AnalyseCmd)
	rootCmd.AddCommand(feedback.DiscardCmd)
	rootCmd.AddCommand(feedback.EndorseCmd)
	rootCmd.AddCommand(list.ListCmd)
	rootCmd.AddCommand(watch.WatchCmd)
	rootCmd.AddCommand(export.ExportCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return errors.ExitCode(err)
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = os.Getenv("SCANIO_IDE_CONFIG")
	}
	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	Logger = logger.NewStderrLogger(AppConfig, "scanio-ide")

	version.Init(AppConfig)
	analyse.Init(AppConfig, Logger.Named("analyse"))
	feedback.Init(AppConfig, Logger.Named("feedback"))
	list.Init(AppConfig, Logger.Named("list"))
	watch.Init(AppConfig, Logger.Named("watch"))
	export.Init(AppConfig, Logger.Named("export"))
}
