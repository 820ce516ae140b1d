package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/watchlist"
)

// watchlistCmd represents the watchlist command
var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage the watchlist and get beta-balancing suggestions",
	Long: `Keeps a list of candidate tickers and ranks them for moving the
portfolio beta toward a target.

Subcommands:
  add        - add a ticker (must have a current quote)
  remove     - remove a ticker
  list       - show tickers with price, beta and risk level
  recommend  - rank tickers for reaching --target
  diversify  - count tickers per risk tier

Example:
  go run ./cmd/betascope watchlist add KO
  go run ./cmd/betascope watchlist recommend --target 0.8`,
}

var (
	watchlistAddCmd = &cobra.Command{
		Use:   "add TICKER",
		Short: "Add a ticker",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchlistAdd,
	}

	watchlistRemoveCmd = &cobra.Command{
		Use:   "remove TICKER",
		Short: "Remove a ticker",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchlistRemove,
	}

	watchlistListCmd = &cobra.Command{
		Use:   "list",
		Short: "Show tickers with price, beta and risk level",
		Args:  cobra.NoArgs,
		RunE:  runWatchlistList,
	}

	watchlistRecommendCmd = &cobra.Command{
		Use:   "recommend",
		Short: "Rank watchlist tickers for reaching the target beta",
		Args:  cobra.NoArgs,
		RunE:  runWatchlistRecommend,
	}

	watchlistDiversifyCmd = &cobra.Command{
		Use:   "diversify",
		Short: "Count watchlist tickers per risk tier",
		Args:  cobra.NoArgs,
		RunE:  runWatchlistDiversify,
	}
)

var targetBeta float64

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistRemoveCmd)
	watchlistCmd.AddCommand(watchlistListCmd)
	watchlistCmd.AddCommand(watchlistRecommendCmd)
	watchlistCmd.AddCommand(watchlistDiversifyCmd)

	watchlistRecommendCmd.Flags().Float64Var(&targetBeta, "target", watchlist.DefaultTargetBeta, "target portfolio beta")
}

func runWatchlistAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ticker := portfolio.NormalizeTicker(args[0])
	added, err := a.session.WatchlistAdd(ctx, ticker)
	if err != nil {
		return err
	}
	if !added {
		PrintInfo(fmt.Sprintf("%s is already on the watchlist", ticker))
		return nil
	}
	PrintSuccess(fmt.Sprintf("%s added to watchlist", ticker))
	return nil
}

func runWatchlistRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.session.WatchlistRemove(args[0]); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("%s removed from watchlist", portfolio.NormalizeTicker(args[0])))
	return nil
}

func runWatchlistList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.session.Optimizer().Entries(ctx)
	if err != nil {
		return err
	}
	PrintEntries(entries)
	return nil
}

func runWatchlistRecommend(cmd *cobra.Command, args []string) error {
	if targetBeta < 0 {
		return fmt.Errorf("target beta must be >= 0, got %v", targetBeta)
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
	plan, err := a.session.Recommend(ctx, targetBeta)
	if err != nil {
		return err
	}
	PrintPlan(plan)
	return nil
}

func runWatchlistDiversify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.session.Optimizer().Diversification(ctx)
	if err != nil {
		return err
	}
	PrintDiversification(d)
	return nil
}

// PrintEntries renders watchlist tickers
func PrintEntries(entries []watchlist.Entry) {
	if len(entries) == 0 {
		PrintInfo("Watchlist is empty. Add one with: betascope watchlist add TICKER")
		return
	}

	PrintTitle("Watchlist")
	widths := []int{8, 12, 7, 13}
	PrintTableHeader([]string{"TICKER", "PRICE", "BETA", "RISK"}, widths)
	for _, e := range entries {
		price, b := "-", "-"
		if e.CurrentPrice > 0 {
			price = FormatMoney(e.CurrentPrice)
		}
		if e.HasBeta() {
			b = FormatBeta(e.Beta)
		}
		PrintTableRow([]string{e.Ticker, price, b, string(e.RiskLevel)}, widths)
	}
}

// PrintPlan renders a beta-balancing plan
func PrintPlan(plan *watchlist.Plan) {
	PrintTitle("Beta Recommendations")
	PrintKeyValue("Current Beta", FormatBeta(plan.CurrentBeta), labelWidth)
	PrintKeyValue("Target Beta", FormatBeta(plan.TargetBeta), labelWidth)
	PrintKeyValue("Difference", FormatBeta(plan.BetaDifference), labelWidth)
	PrintSeparator()
	fmt.Fprintf(out, "  %s\n", plan.Message)

	if len(plan.Recommendations) == 0 {
		return
	}
	fmt.Fprintln(out)
	items := make([]string, 0, len(plan.Recommendations))
	for _, r := range plan.Recommendations {
		items = append(items, fmt.Sprintf("%s  beta %s  %s: %s", r.Ticker, FormatBeta(r.Beta), r.Impact, r.Reason))
	}
	PrintNumberedList(items)
}

// PrintDiversification renders the per-tier counts and suggestions
func PrintDiversification(d *watchlist.Diversification) {
	PrintTitle("Watchlist Diversification")
	PrintKeyValue("Total", fmt.Sprintf("%d", d.TotalStocks), labelWidth)
	PrintKeyValue("Conservative", fmt.Sprintf("%d", d.ConservativeCount), labelWidth)
	PrintKeyValue("Moderate", fmt.Sprintf("%d", d.ModerateCount), labelWidth)
	PrintKeyValue("Aggressive", fmt.Sprintf("%d", d.AggressiveCount), labelWidth)
	if d.UnknownCount > 0 {
		PrintKeyValue("Unknown", fmt.Sprintf("%d", d.UnknownCount), labelWidth)
	}
	if d.Message != "" {
		PrintSeparator()
		fmt.Fprintf(out, "  %s\n", d.Message)
	}

	for _, s := range d.Recommendations {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s: %s\n", s.Type, s.Message)
		items := make([]string, 0, len(s.Suggestions))
		for _, e := range s.Suggestions {
			items = append(items, fmt.Sprintf("%s (beta %s)", e.Ticker, FormatBeta(e.Beta)))
		}
		PrintList(items)
	}
}
