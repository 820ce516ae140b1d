package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/session"
)

// holdingCmd represents the holding command
var holdingCmd = &cobra.Command{
	Use:   "holding",
	Short: "Manage the saved portfolio holdings",
	Long: `Adds, updates and removes holdings of the saved portfolio.

Every subcommand loads the saved portfolio, applies the change and saves it.

Subcommands:
  add     - add a holding (price fetched when --price is omitted)
  update  - change shares and/or price
  remove  - remove a holding
  list    - show holdings with weights
  clear   - remove every holding

Example:
  go run ./cmd/betascope holding add AAPL 50 --price 190.25
  go run ./cmd/betascope holding add MSFT 20
  go run ./cmd/betascope holding update AAPL --shares 60
  go run ./cmd/betascope holding remove MSFT`,
}

var (
	holdingAddCmd = &cobra.Command{
		Use:   "add TICKER SHARES",
		Short: "Add a holding",
		Args:  cobra.ExactArgs(2),
		RunE:  runHoldingAdd,
	}

	holdingUpdateCmd = &cobra.Command{
		Use:   "update TICKER",
		Short: "Change shares and/or price of a holding",
		Args:  cobra.ExactArgs(1),
		RunE:  runHoldingUpdate,
	}

	holdingRemoveCmd = &cobra.Command{
		Use:   "remove TICKER",
		Short: "Remove a holding",
		Args:  cobra.ExactArgs(1),
		RunE:  runHoldingRemove,
	}

	holdingListCmd = &cobra.Command{
		Use:   "list",
		Short: "Show holdings",
		Args:  cobra.NoArgs,
		RunE:  runHoldingList,
	}

	holdingClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every holding",
		Args:  cobra.NoArgs,
		RunE:  runHoldingClear,
	}
)

var (
	holdingPrice  float64
	holdingShares float64
)

func init() {
	rootCmd.AddCommand(holdingCmd)
	holdingCmd.AddCommand(holdingAddCmd)
	holdingCmd.AddCommand(holdingUpdateCmd)
	holdingCmd.AddCommand(holdingRemoveCmd)
	holdingCmd.AddCommand(holdingListCmd)
	holdingCmd.AddCommand(holdingClearCmd)

	holdingAddCmd.Flags().Float64Var(&holdingPrice, "price", 0, "price per share (default: current quote)")
	holdingUpdateCmd.Flags().Float64Var(&holdingPrice, "price", 0, "new price per share")
	holdingUpdateCmd.Flags().Float64Var(&holdingShares, "shares", 0, "new share count")
}

// mutate loads the saved portfolio, applies fn and saves the result
func mutate(ctx context.Context, fn func(s *session.Session) error) (*app, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.loadSaved(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := fn(a.session); err != nil {
		a.Close()
		return nil, err
	}
	if _, err := a.session.Save(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func runHoldingAdd(cmd *cobra.Command, args []string) error {
	shares, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid share count %q: %w", args[1], err)
	}
	in := portfolio.FetchCurrent()
	if cmd.Flags().Changed("price") {
		in = portfolio.Given(holdingPrice)
	}

	ctx := cmd.Context()
	var added portfolio.Holding
	a, err := mutate(ctx, func(s *session.Session) error {
		h, err := s.Add(ctx, args[0], shares, in)
		added = h
		return err
	})
	if err != nil {
		return err
	}
	defer a.Close()

	PrintSuccess(fmt.Sprintf("Added %s shares of %s at %s (%s)",
		FormatShares(added.Shares), added.Ticker, FormatMoney(added.Price), FormatMoney(added.MarketValue())))
	return nil
}

func runHoldingUpdate(cmd *cobra.Command, args []string) error {
	var shares, price *float64
	if cmd.Flags().Changed("shares") {
		shares = &holdingShares
	}
	if cmd.Flags().Changed("price") {
		price = &holdingPrice
	}
	if shares == nil && price == nil {
		return fmt.Errorf("nothing to update: pass --shares and/or --price")
	}

	var updated portfolio.Holding
	a, err := mutate(cmd.Context(), func(s *session.Session) error {
		h, err := s.Update(args[0], shares, price)
		updated = h
		return err
	})
	if err != nil {
		return err
	}
	defer a.Close()

	PrintSuccess(fmt.Sprintf("Updated %s: %s shares at %s",
		updated.Ticker, FormatShares(updated.Shares), FormatMoney(updated.Price)))
	return nil
}

func runHoldingRemove(cmd *cobra.Command, args []string) error {
	a, err := mutate(cmd.Context(), func(s *session.Session) error {
		return s.Remove(args[0])
	})
	if err != nil {
		return err
	}
	defer a.Close()

	PrintSuccess(fmt.Sprintf("Removed %s", portfolio.NormalizeTicker(args[0])))
	return nil
}

func runHoldingClear(cmd *cobra.Command, args []string) error {
	a, err := mutate(cmd.Context(), func(s *session.Session) error {
		s.Clear()
		return nil
	})
	if err != nil {
		return err
	}
	defer a.Close()

	PrintSuccess("Portfolio cleared")
	return nil
}

func runHoldingList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.loadSaved(ctx); err != nil {
		return err
	}
	PrintSnapshot(a.session.Snapshot())
	return nil
}

// PrintSnapshot renders holdings with their share of total value
func PrintSnapshot(snap session.Snapshot) {
	if len(snap.Holdings) == 0 {
		PrintInfo("No holdings. Add one with: betascope holding add TICKER SHARES")
		return
	}

	PrintTitle("Portfolio Holdings")
	widths := []int{8, 10, 12, 14, 8}
	PrintTableHeader([]string{"TICKER", "SHARES", "PRICE", "VALUE", "WEIGHT"}, widths)
	for _, h := range snap.Holdings {
		PrintTableRow([]string{
			h.Ticker,
			FormatShares(h.Shares),
			FormatMoney(h.Price),
			FormatMoney(h.MarketValue()),
			FormatPercent(snap.Weights[h.Ticker]),
		}, widths)
	}
	PrintSeparator()
	PrintKeyValue("Total Value", FormatMoney(snap.TotalValue), labelWidth)
}
