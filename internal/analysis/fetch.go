package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/betascope/internal/contracts"
)

// FetchResult is the price history of one holding, or why it could not be fetched
type FetchResult struct {
	Ticker string
	Series *contracts.PriceSeries
	Err    error
}

// fetchAll fetches every ticker with at most Concurrency requests in flight.
// Per-ticker failures are captured in the result; only cancellation aborts.
// Results keep the order of tickers regardless of completion order.
func (a *Analyzer) fetchAll(ctx context.Context, tickers []string) ([]FetchResult, error) {
	results := make([]FetchResult, len(tickers))

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			results[i].Ticker = ticker
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			ps, err := a.source.FetchPrices(ctx, ticker, a.cfg.Period)
			if err != nil {
				a.logger.WithError(err).WithTicker(ticker).Warn("Failed to fetch prices")
				results[i].Err = err
				return nil
			}
			results[i].Series = ps
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	a.logger.WithFields(map[string]interface{}{
		"success": len(results) - failed,
		"failed":  failed,
		"workers": a.cfg.Concurrency,
	}).Debug("Price collection completed")

	return results, nil
}
