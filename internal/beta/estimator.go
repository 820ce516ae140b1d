package beta

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/series"
)

// Estimator computes the beta of an asset's returns against the benchmark's returns
// ⭐ SSOT: beta 계산은 여기서만 (pure, no I/O)
type Estimator struct {
	Method     contracts.BetaMethod
	MinSamples int
}

// NewEstimator creates an estimator; an empty method means covariance
func NewEstimator(method contracts.BetaMethod, minSamples int) (*Estimator, error) {
	if method == "" {
		method = contracts.BetaCovariance
	}
	if method != contracts.BetaCovariance && method != contracts.BetaRegression {
		return nil, fmt.Errorf("%w: beta method %q", contracts.ErrUnsupportedSetting, method)
	}
	if minSamples < series.MinReturns {
		minSamples = series.MinReturns
	}
	return &Estimator{Method: method, MinSamples: minSamples}, nil
}

// Estimate returns beta = Cov(Ra, Rb) / Var(Rb) using sample statistics (divisor n-1).
// Inputs must already be aligned: same length and identical timestamps.
func (e *Estimator) Estimate(asset, benchmark *contracts.ReturnSeries) (*contracts.BetaResult, error) {
	if asset.Len() != benchmark.Len() {
		return nil, &contracts.AlignmentError{
			Ticker: asset.Ticker,
			Detail: fmt.Sprintf("length mismatch: asset %d, benchmark %d", asset.Len(), benchmark.Len()),
		}
	}
	for i := range asset.Points {
		if !asset.Points[i].Time.Equal(benchmark.Points[i].Time) {
			return nil, &contracts.AlignmentError{
				Ticker: asset.Ticker,
				Detail: fmt.Sprintf("timestamp mismatch at index %d", i),
			}
		}
	}

	minSamples := e.MinSamples
	if minSamples <= 0 {
		minSamples = series.MinReturns
	}
	n := asset.Len()
	if n < minSamples {
		return nil, &contracts.InsufficientDataError{Ticker: asset.Ticker, Got: n, Need: minSamples}
	}

	ra := asset.Values()
	rb := benchmark.Values()

	varB := stat.Variance(rb, nil)
	if varB == 0 {
		return nil, &contracts.DegenerateVarianceError{Ticker: asset.Ticker}
	}

	var alpha, beta float64
	switch e.Method {
	case contracts.BetaRegression:
		alpha, beta = stat.LinearRegression(rb, ra, nil, false)
	default:
		beta = stat.Covariance(ra, rb, nil) / varB
		alpha = stat.Mean(ra, nil) - beta*stat.Mean(rb, nil)
	}

	method := e.Method
	if method == "" {
		method = contracts.BetaCovariance
	}

	return &contracts.BetaResult{
		Ticker:     asset.Ticker,
		Beta:       beta,
		Alpha:      alpha,
		RSquared:   rSquared(beta, varB, stat.Variance(ra, nil)),
		SampleSize: n,
		Method:     method,
	}, nil
}

// rSquared = beta² · Var(Rb) / Var(Ra); a flat asset explains nothing
func rSquared(beta, varB, varA float64) float64 {
	if varA == 0 {
		return 0
	}
	return beta * beta * varB / varA
}
