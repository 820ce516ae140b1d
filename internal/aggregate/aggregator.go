package aggregate

import (
	"fmt"

	"github.com/wonny/betascope/internal/contracts"
)

// =============================================================================
// Aggregator - 순수 계산기
// =============================================================================

// Input is one holding's market value and its beta outcome
type Input struct {
	Ticker      string
	MarketValue float64
	Outcome     contracts.BetaOutcome
}

// Included is a holding that contributed to the weighted beta
type Included struct {
	Ticker          string
	MarketValue     float64
	Result          contracts.BetaResult
	Weight          float64 // renormalised over included holdings
	PortfolioWeight float64 // share of total value
}

// Result is the portfolio beta plus an explicit account of what was left out
type Result struct {
	PortfolioBeta float64
	RiskLevel     contracts.RiskLevel
	TotalValue    float64
	CoveredValue  float64
	Included      []Included
	Excluded      []contracts.Exclusion
}

// Aggregate computes Σ weight(h) × beta(h) over holdings with a valid beta.
// Failed holdings drop out of both the sum and the denominator; input order is preserved.
func Aggregate(inputs []Input) (*Result, error) {
	if len(inputs) == 0 {
		return nil, &contracts.EmptyPortfolioError{}
	}

	res := &Result{
		Included: make([]Included, 0, len(inputs)),
		Excluded: make([]contracts.Exclusion, 0),
	}
	for _, in := range inputs {
		res.TotalValue += in.MarketValue
		if in.Outcome.OK() {
			res.CoveredValue += in.MarketValue
		}
	}

	for _, in := range inputs {
		portfolioWeight := 0.0
		if res.TotalValue > 0 {
			portfolioWeight = in.MarketValue / res.TotalValue
		}

		if !in.Outcome.OK() {
			res.Excluded = append(res.Excluded, exclusion(in, portfolioWeight))
			continue
		}

		weight := 0.0
		if res.CoveredValue > 0 {
			weight = in.MarketValue / res.CoveredValue
		}
		res.Included = append(res.Included, Included{
			Ticker:          in.Ticker,
			MarketValue:     in.MarketValue,
			Result:          *in.Outcome.Result,
			Weight:          weight,
			PortfolioWeight: portfolioWeight,
		})
		res.PortfolioBeta += weight * in.Outcome.Result.Beta
	}

	if len(res.Included) == 0 || res.CoveredValue <= 0 {
		return nil, fmt.Errorf("%w: %d of %d holdings excluded", contracts.ErrNoValidBeta, len(res.Excluded), len(inputs))
	}

	res.RiskLevel = Classify(res.PortfolioBeta)
	return res, nil
}

func exclusion(in Input, portfolioWeight float64) contracts.Exclusion {
	err := in.Outcome.Err
	if err == nil {
		// an outcome without result or error is treated as a missing beta
		err = &contracts.NotFoundError{Ticker: in.Ticker, Where: "beta results"}
	}
	return contracts.Exclusion{
		Ticker:          in.Ticker,
		MarketValue:     in.MarketValue,
		PortfolioWeight: portfolioWeight,
		Reason:          contracts.ReasonOf(err),
		Detail:          err.Error(),
	}
}
