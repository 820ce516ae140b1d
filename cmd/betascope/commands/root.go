package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "betascope",
	Short: "Portfolio beta analysis against a market benchmark",
	Long: `betascope CLI

Computes the beta of each holding against a benchmark index,
aggregates a value-weighted portfolio beta and classifies its risk.

Usage:
  go run ./cmd/betascope [command]

Examples:
  go run ./cmd/betascope holding add AAPL 50 --price 190
  go run ./cmd/betascope analyze
  go run ./cmd/betascope watchlist recommend --target 0.8
  go run ./cmd/betascope serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
