package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute the portfolio beta of the saved holdings",
	Long: `Loads the saved holdings, fetches price history for each holding and the
benchmark, estimates per-holding betas and prints the value-weighted
portfolio beta with its risk classification.

Holdings whose beta cannot be computed are listed as excluded.

Example:
  go run ./cmd/betascope analyze
  go run ./cmd/betascope analyze --output json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var analyzeOutput string

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "text", "output format (text|json)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeOutput != "text" && analyzeOutput != "json" {
		return fmt.Errorf("unknown output format %q (valid: text, json)", analyzeOutput)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.loadSaved(ctx); err != nil {
		return err
	}

	rep, err := a.session.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analyze portfolio: %w", err)
	}

	if analyzeOutput == "json" {
		return PrintJSON(rep)
	}
	PrintReport(rep)
	return nil
}
