package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// betaCmd represents the beta command
var betaCmd = &cobra.Command{
	Use:     "beta TICKER [TICKER...]",
	Short:   "Compute the beta of single tickers against the benchmark",
	Example: `  go run ./cmd/betascope beta AAPL MSFT KO`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runBeta,
}

func init() {
	rootCmd.AddCommand(betaCmd)
}

func runBeta(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	PrintTitle(fmt.Sprintf("Beta vs %s (%s)", a.analyzer.Benchmark(), a.analyzer.Period()))
	widths := []int{8, 7, 9, 6, 8, 22}
	PrintTableHeader([]string{"TICKER", "BETA", "ALPHA", "R²", "SAMPLES", "NOTE"}, widths)

	failed := 0
	for _, ticker := range args {
		res, err := a.analyzer.Beta(ctx, ticker)
		if err != nil {
			failed++
			a.log.WithError(err).WithTicker(ticker).Debug("Beta failed")
			PrintTableRow([]string{ticker, "-", "-", "-", "-", err.Error()}, widths)
			continue
		}
		PrintTableRow([]string{
			res.Ticker,
			FormatBeta(res.Beta),
			decimal4(res.Alpha),
			decimal2(res.RSquared),
			fmt.Sprintf("%d", res.SampleSize),
			string(res.Method),
		}, widths)
	}

	if failed == len(args) {
		return fmt.Errorf("no beta could be computed for %d ticker(s)", failed)
	}
	return nil
}
