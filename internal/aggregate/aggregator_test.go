package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/betascope/internal/contracts"
)

func ok(ticker string, beta float64) contracts.BetaOutcome {
	return contracts.BetaOutcome{Result: &contracts.BetaResult{Ticker: ticker, Beta: beta, SampleSize: 250}}
}

func failed(err error) contracts.BetaOutcome {
	return contracts.BetaOutcome{Err: err}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		beta float64
		want contracts.RiskLevel
	}{
		{-0.5, contracts.RiskConservative},
		{0, contracts.RiskConservative},
		{0.7999, contracts.RiskConservative},
		{0.8, contracts.RiskModerate},
		{1.0, contracts.RiskModerate},
		{1.2, contracts.RiskModerate},
		{1.2001, contracts.RiskAggressive},
		{3.4, contracts.RiskAggressive},
		{math.Inf(1), contracts.RiskAggressive},
		{math.Inf(-1), contracts.RiskConservative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.beta), "beta=%v", tt.beta)
	}
}

func TestClassify_Exhaustive(t *testing.T) {
	for b := -2.0; b <= 4.0; b += 0.0137 {
		switch Classify(b) {
		case contracts.RiskConservative, contracts.RiskModerate, contracts.RiskAggressive:
		default:
			t.Fatalf("beta %v has no tier", b)
		}
	}
}

func TestAggregate_Example(t *testing.T) {
	res, err := Aggregate([]Input{
		{Ticker: "AAPL", MarketValue: 10 * 150, Outcome: ok("AAPL", 1.2)},
		{Ticker: "MSFT", MarketValue: 5 * 300, Outcome: ok("MSFT", 0.9)},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.05, res.PortfolioBeta, 1e-12)
	assert.Equal(t, contracts.RiskModerate, res.RiskLevel)
	assert.Equal(t, 3000.0, res.TotalValue)
	assert.Equal(t, 3000.0, res.CoveredValue)
	require.Len(t, res.Included, 2)
	assert.InDelta(t, 0.5, res.Included[0].Weight, 1e-12)
	assert.InDelta(t, 0.5, res.Included[1].Weight, 1e-12)
	assert.Empty(t, res.Excluded)
}

func TestAggregate_SingleHolding(t *testing.T) {
	for _, beta := range []float64{0.3141592653589793, 1.0, 1.7320508075688772} {
		res, err := Aggregate([]Input{{Ticker: "X", MarketValue: 1234.56, Outcome: ok("X", beta)}})
		require.NoError(t, err)
		assert.Equal(t, beta, res.PortfolioBeta)
	}
}

func TestAggregate_RenormalisesOverValid(t *testing.T) {
	short := &contracts.AlignmentError{Ticker: "NEWCO", Overlap: 20, Need: 30}

	res, err := Aggregate([]Input{
		{Ticker: "AAPL", MarketValue: 1000, Outcome: ok("AAPL", 1.2)},
		{Ticker: "NEWCO", MarketValue: 2000, Outcome: failed(short)},
		{Ticker: "MSFT", MarketValue: 3000, Outcome: ok("MSFT", 0.8)},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.25*1.2+0.75*0.8, res.PortfolioBeta, 1e-12)
	assert.Equal(t, 6000.0, res.TotalValue)
	assert.Equal(t, 4000.0, res.CoveredValue)

	sum := 0.0
	for _, in := range res.Included {
		sum += in.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.5, res.Included[1].PortfolioWeight, 1e-12)

	require.Len(t, res.Excluded, 1)
	ex := res.Excluded[0]
	assert.Equal(t, "NEWCO", ex.Ticker)
	assert.Equal(t, contracts.ReasonInsufficientData, ex.Reason)
	assert.InDelta(t, 2000.0/6000.0, ex.PortfolioWeight, 1e-12)
	assert.NotEmpty(t, ex.Detail)
}

func TestAggregate_ExclusionReasons(t *testing.T) {
	res, err := Aggregate([]Input{
		{Ticker: "A", MarketValue: 100, Outcome: ok("A", 1)},
		{Ticker: "B", MarketValue: 100, Outcome: failed(&contracts.DegenerateVarianceError{Ticker: "B"})},
		{Ticker: "C", MarketValue: 100, Outcome: failed(&contracts.DataFetchError{Ticker: "C", Reason: "timeout"})},
		{Ticker: "D", MarketValue: 100, Outcome: contracts.BetaOutcome{}},
	})
	require.NoError(t, err)

	reasons := make(map[string]string)
	for _, ex := range res.Excluded {
		reasons[ex.Ticker] = ex.Reason
	}
	assert.Equal(t, map[string]string{
		"B": contracts.ReasonDegenerateVariance,
		"C": contracts.ReasonDataFetch,
		"D": contracts.ReasonMissingBeta,
	}, reasons)
}

func TestAggregate_Failures(t *testing.T) {
	_, err := Aggregate(nil)
	assert.ErrorIs(t, err, contracts.ErrEmptyPortfolio)

	_, err = Aggregate([]Input{
		{Ticker: "A", MarketValue: 100, Outcome: failed(&contracts.InsufficientDataError{Ticker: "A", Got: 5, Need: 30})},
	})
	assert.ErrorIs(t, err, contracts.ErrNoValidBeta)
}

func TestDescribeAndSensitivity(t *testing.T) {
	assert.Equal(t, "Similar volatility to market", Describe(contracts.RiskModerate))
	assert.Equal(t, "Lower volatility than market", Describe(contracts.RiskConservative))
	assert.Equal(t, "Higher volatility than market", Describe(contracts.RiskAggressive))
	assert.Equal(t, "For every 1% market move, portfolio moves 1.05%", Sensitivity(1.05))
	assert.Len(t, Recommendations(contracts.RiskAggressive), 3)
	assert.Nil(t, Recommendations(contracts.RiskUnknown))
}
