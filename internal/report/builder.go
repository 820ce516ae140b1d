package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/betascope/internal/aggregate"
	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/portfolio"
)

// Options tune the report warnings
type Options struct {
	Period                 string
	HighBetaThreshold      float64 // default 1.5
	ConcentrationThreshold float64 // default 0.3 of total value
}

// DefaultOptions returns the warning thresholds used by the CLI and API
func DefaultOptions(period string) Options {
	return Options{
		Period:                 period,
		HighBetaThreshold:      1.5,
		ConcentrationThreshold: 0.3,
	}
}

// Build assembles a PortfolioReport from a portfolio and per-ticker beta outcomes
// ⭐ SSOT: pure function (no I/O, no mutation); RunID/GeneratedAt are stamped by the caller
func Build(p *portfolio.Portfolio, outcomes map[string]contracts.BetaOutcome, opts Options) (*contracts.PortfolioReport, error) {
	if p == nil || p.IsEmpty() {
		return nil, &contracts.EmptyPortfolioError{}
	}
	if opts.HighBetaThreshold == 0 {
		opts.HighBetaThreshold = 1.5
	}
	if opts.ConcentrationThreshold == 0 {
		opts.ConcentrationThreshold = 0.3
	}

	holdings := sortByValue(p.Holdings())
	byTicker := make(map[string]portfolio.Holding, len(holdings))

	inputs := make([]aggregate.Input, len(holdings))
	for i, h := range holdings {
		byTicker[h.Ticker] = h
		outcome, ok := outcomes[h.Ticker]
		if !ok {
			outcome = contracts.BetaOutcome{Err: &contracts.NotFoundError{Ticker: h.Ticker, Where: "beta results"}}
		}
		inputs[i] = aggregate.Input{Ticker: h.Ticker, MarketValue: h.MarketValue(), Outcome: outcome}
	}

	agg, err := aggregate.Aggregate(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate portfolio beta: %w", err)
	}

	rep := &contracts.PortfolioReport{
		Benchmark:         p.Benchmark,
		Period:            opts.Period,
		PortfolioBeta:     agg.PortfolioBeta,
		RiskLevel:         agg.RiskLevel,
		RiskDescription:   aggregate.Describe(agg.RiskLevel),
		MarketSensitivity: aggregate.Sensitivity(agg.PortfolioBeta),
		TotalValue:        agg.TotalValue,
		CoveredValue:      agg.CoveredValue,
		Holdings:          make([]contracts.HoldingRow, 0, len(agg.Included)),
		Excluded:          agg.Excluded,
		Recommendations:   aggregate.Recommendations(agg.RiskLevel),
	}

	for _, in := range agg.Included {
		h := byTicker[in.Ticker]
		rep.Holdings = append(rep.Holdings, contracts.HoldingRow{
			Ticker:          h.Ticker,
			Shares:          h.Shares,
			Price:           h.Price,
			MarketValue:     in.MarketValue,
			Beta:            in.Result.Beta,
			Weight:          in.Weight,
			PortfolioWeight: in.PortfolioWeight,
			RSquared:        in.Result.RSquared,
			SampleSize:      in.Result.SampleSize,
		})
	}

	rep.Warnings = warnings(rep, opts)
	return rep, nil
}

// sortByValue orders holdings by market value descending, ties by ticker ascending
func sortByValue(holdings []portfolio.Holding) []portfolio.Holding {
	sort.SliceStable(holdings, func(i, j int) bool {
		vi, vj := holdings[i].MarketValue(), holdings[j].MarketValue()
		if vi != vj {
			return vi > vj
		}
		return holdings[i].Ticker < holdings[j].Ticker
	})
	return holdings
}

func warnings(rep *contracts.PortfolioReport, opts Options) []string {
	out := make([]string, 0)

	var highBeta []string
	for _, row := range rep.Holdings {
		if row.Beta > opts.HighBetaThreshold {
			highBeta = append(highBeta, row.Ticker)
		}
	}
	if len(highBeta) > 0 {
		out = append(out, fmt.Sprintf("HIGH BETA WARNING: %s have betas > %.1f; these stocks will amplify market movements significantly",
			strings.Join(highBeta, ", "), opts.HighBetaThreshold))
	}

	maxTicker, maxWeight := "", 0.0
	for _, row := range rep.Holdings {
		if row.PortfolioWeight > maxWeight {
			maxTicker, maxWeight = row.Ticker, row.PortfolioWeight
		}
	}
	for _, ex := range rep.Excluded {
		if ex.PortfolioWeight > maxWeight {
			maxTicker, maxWeight = ex.Ticker, ex.PortfolioWeight
		}
	}
	if maxWeight > opts.ConcentrationThreshold {
		out = append(out, fmt.Sprintf("CONCENTRATION WARNING: your largest holding (%s) represents %.1f%% of portfolio; consider diversifying to reduce concentration risk",
			maxTicker, maxWeight*100))
	}

	if len(rep.Excluded) > 0 {
		out = append(out, fmt.Sprintf("EXCLUDED: %s left out of the portfolio beta (%.1f%% of value); weights renormalised over the rest",
			strings.Join(rep.ExcludedTickers(), ", "), (1-rep.CoveredValue/rep.TotalValue)*100))
	}
	return out
}
