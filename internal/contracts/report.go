package contracts

import "time"

// =============================================================================
// Risk Level
// =============================================================================

// RiskLevel is the classification bucket of a portfolio beta
type RiskLevel string

const (
	RiskConservative RiskLevel = "Conservative"
	RiskModerate     RiskLevel = "Moderate"
	RiskAggressive   RiskLevel = "Aggressive"
	RiskUnknown      RiskLevel = "Unknown" // beta could not be computed (watchlist only)
)

// =============================================================================
// Beta Results
// =============================================================================

// BetaMethod selects how beta is estimated
type BetaMethod string

const (
	BetaCovariance BetaMethod = "covariance" // Cov(Ra, Rb) / Var(Rb)
	BetaRegression BetaMethod = "regression" // OLS slope of Ra on Rb
)

// BetaResult is the beta of one asset against the benchmark
type BetaResult struct {
	Ticker     string     `json:"ticker"`
	Beta       float64    `json:"beta"`
	Alpha      float64    `json:"alpha"`     // per-period intercept
	RSquared   float64    `json:"r_squared"` // confidence signal, does not gate beta
	SampleSize int        `json:"sample_size"`
	Method     BetaMethod `json:"method"`
}

// BetaOutcome is either a BetaResult or the reason it could not be computed
type BetaOutcome struct {
	Result *BetaResult
	Err    error
}

// OK reports whether the outcome carries a usable beta
func (o BetaOutcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// =============================================================================
// Portfolio Report
// =============================================================================

// HoldingRow is one included holding in a report
type HoldingRow struct {
	Ticker          string  `json:"ticker"`
	Shares          float64 `json:"shares"`
	Price           float64 `json:"price"`
	MarketValue     float64 `json:"market_value"`
	Beta            float64 `json:"beta"`
	Weight          float64 `json:"weight"`           // weight among holdings with a valid beta
	PortfolioWeight float64 `json:"portfolio_weight"` // share of total portfolio value
	RSquared        float64 `json:"r_squared"`
	SampleSize      int     `json:"sample_size"`
}

// Exclusion is a holding left out of the weighted beta
type Exclusion struct {
	Ticker          string  `json:"ticker"`
	MarketValue     float64 `json:"market_value"`
	PortfolioWeight float64 `json:"portfolio_weight"`
	Reason          string  `json:"reason"`
	Detail          string  `json:"detail"`
}

// PortfolioReport is the derived result of a beta analysis
// ⭐ SSOT: never persisted as source of truth, recomputed whenever holdings or prices change
type PortfolioReport struct {
	RunID       string    `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	Benchmark   string    `json:"benchmark"`
	Period      string    `json:"period"`

	PortfolioBeta     float64   `json:"portfolio_beta"`
	RiskLevel         RiskLevel `json:"risk_level"`
	RiskDescription   string    `json:"risk_description"`
	MarketSensitivity string    `json:"market_sensitivity"`

	TotalValue   float64 `json:"total_value"`
	CoveredValue float64 `json:"covered_value"` // value of holdings with a valid beta

	Holdings        []HoldingRow `json:"holdings"`
	Excluded        []Exclusion  `json:"excluded"`
	Warnings        []string     `json:"warnings"`
	Recommendations []string     `json:"recommendations"`
}

// ExcludedTickers returns the tickers left out of the aggregate
func (r *PortfolioReport) ExcludedTickers() []string {
	tickers := make([]string, len(r.Excluded))
	for i, e := range r.Excluded {
		tickers[i] = e.Ticker
	}
	return tickers
}

// Row finds an included holding by ticker
func (r *PortfolioReport) Row(ticker string) (*HoldingRow, bool) {
	for i := range r.Holdings {
		if r.Holdings[i].Ticker == ticker {
			return &r.Holdings[i], true
		}
	}
	return nil, false
}
