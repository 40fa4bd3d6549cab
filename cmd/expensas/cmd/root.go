package cmd

import (
	"fmt"
	"os"

	"expensas-reconciler/pkg/errors"
	"expensas-reconciler/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "expensas",
	Short: "Payment reconciliation tool for community billing",
	Long: `Expensas matches incoming payment records against residents and their
outstanding invoices using fuzzy heuristics and a confidence score that
decides whether a match is auto-applied or queued for manual review.

Examples:
  expensas reconcile --payments payments.csv --residents residents.csv --invoices invoices.csv
  expensas reconcile --payments p.csv --residents r.csv --invoices i.csv --output-format json
  expensas version`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(4)
		}
	}

	viper.SetEnvPrefix("EXPENSAS")
	viper.AutomaticEnv()

	if viper.GetBool("verbose") {
		log, err := logger.NewLogger(&logger.Config{
			Level:  logger.DebugLevel,
			Format: logger.TextFormat,
		})
		if err == nil {
			logger.SetGlobalLogger(log)
		}
	}
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// ExitCode maps an error to the process exit code for scripted callers
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return errors.GetExitCode(err)
}
