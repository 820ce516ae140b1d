package beta

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/series"
)

var start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func returnSeries(ticker string, values []float64) *contracts.ReturnSeries {
	points := make([]contracts.ReturnPoint, len(values))
	for i, v := range values {
		points[i] = contracts.ReturnPoint{Time: start.AddDate(0, 0, i), Value: v}
	}
	return &contracts.ReturnSeries{Ticker: ticker, Points: points}
}

func wave(n int, freq, amp float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = amp * math.Sin(float64(i)*freq)
	}
	return values
}

func pricesFrom(t *testing.T, ticker string, returns []float64) *contracts.PriceSeries {
	t.Helper()
	points := make([]contracts.PricePoint, len(returns)+1)
	p := 100.0
	points[0] = contracts.PricePoint{Time: start, Price: p}
	for i, r := range returns {
		p *= 1 + r
		points[i+1] = contracts.PricePoint{Time: start.AddDate(0, 0, i+1), Price: p}
	}
	ps, err := contracts.NewPriceSeries(ticker, points)
	require.NoError(t, err)
	return ps
}

func newEstimator(t *testing.T, method contracts.BetaMethod) *Estimator {
	t.Helper()
	e, err := NewEstimator(method, series.MinReturns)
	require.NoError(t, err)
	return e
}

func TestEstimate_SelfIsOne(t *testing.T) {
	bench := returnSeries("^GSPC", wave(100, 0.37, 0.012))
	asset := returnSeries("^GSPC", wave(100, 0.37, 0.012))

	for _, method := range []contracts.BetaMethod{contracts.BetaCovariance, contracts.BetaRegression} {
		res, err := newEstimator(t, method).Estimate(asset, bench)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, res.Beta, 1e-12, "method %s", method)
		assert.InDelta(t, 1.0, res.RSquared, 1e-12)
		assert.InDelta(t, 0.0, res.Alpha, 1e-12)
		assert.Equal(t, 100, res.SampleSize)
		assert.Equal(t, method, res.Method)
	}
}

func TestEstimate_KnownLinearRelation(t *testing.T) {
	rb := wave(60, 0.5, 0.01)
	ra := make([]float64, len(rb))
	for i, r := range rb {
		ra[i] = 0.0005 + 1.7*r
	}

	res, err := newEstimator(t, contracts.BetaCovariance).Estimate(returnSeries("X", ra), returnSeries("^GSPC", rb))
	require.NoError(t, err)
	assert.InDelta(t, 1.7, res.Beta, 1e-9)
	assert.InDelta(t, 0.0005, res.Alpha, 1e-12)
	assert.InDelta(t, 1.0, res.RSquared, 1e-9)
}

func TestEstimate_RegressionMatchesCovariance(t *testing.T) {
	rb := wave(80, 0.41, 0.011)
	ra := make([]float64, len(rb))
	noise := wave(80, 1.93, 0.004)
	for i := range rb {
		ra[i] = 0.8*rb[i] + noise[i]
	}
	asset, bench := returnSeries("X", ra), returnSeries("^GSPC", rb)

	cov, err := newEstimator(t, contracts.BetaCovariance).Estimate(asset, bench)
	require.NoError(t, err)
	reg, err := newEstimator(t, contracts.BetaRegression).Estimate(asset, bench)
	require.NoError(t, err)

	assert.InDelta(t, cov.Beta, reg.Beta, 1e-12)
	assert.InDelta(t, cov.Alpha, reg.Alpha, 1e-12)
	assert.Greater(t, cov.RSquared, 0.0)
	assert.Less(t, cov.RSquared, 1.0)
}

func TestEstimate_ScaleInvariance(t *testing.T) {
	benchPrices := pricesFrom(t, "^GSPC", wave(60, 0.33, 0.01))
	assetPrices := pricesFrom(t, "AAPL", wave(60, 0.29, 0.015))
	est := newEstimator(t, contracts.BetaCovariance)

	ra, rb, err := series.AlignedReturns(assetPrices, benchPrices, series.MinReturns)
	require.NoError(t, err)
	base, err := est.Estimate(ra, rb)
	require.NoError(t, err)

	for _, k := range []float64{0.01, 3, 1000} {
		scaled, err := assetPrices.Scale(k)
		require.NoError(t, err)
		ra2, rb2, err := series.AlignedReturns(scaled, benchPrices, series.MinReturns)
		require.NoError(t, err)
		res, err := est.Estimate(ra2, rb2)
		require.NoError(t, err)
		assert.InDelta(t, base.Beta, res.Beta, 1e-9, "k=%v", k)
	}
}

func TestEstimate_DegenerateVariance(t *testing.T) {
	flat := returnSeries("^GSPC", make([]float64, 40))
	asset := returnSeries("X", wave(40, 0.5, 0.01))

	res, err := newEstimator(t, contracts.BetaCovariance).Estimate(asset, flat)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, contracts.ErrDegenerateVariance)
}

func TestEstimate_Insufficient(t *testing.T) {
	res, err := newEstimator(t, contracts.BetaCovariance).Estimate(
		returnSeries("X", wave(29, 0.5, 0.01)),
		returnSeries("^GSPC", wave(29, 0.3, 0.01)),
	)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestEstimate_Misaligned(t *testing.T) {
	est := newEstimator(t, contracts.BetaCovariance)

	_, err := est.Estimate(returnSeries("X", wave(40, 0.5, 0.01)), returnSeries("^GSPC", wave(41, 0.3, 0.01)))
	assert.ErrorIs(t, err, contracts.ErrAlignment)

	shifted := returnSeries("X", wave(40, 0.5, 0.01))
	shifted.Points[10].Time = shifted.Points[10].Time.Add(time.Hour)
	_, err = est.Estimate(shifted, returnSeries("^GSPC", wave(40, 0.3, 0.01)))
	assert.ErrorIs(t, err, contracts.ErrAlignment)
	assert.NotErrorIs(t, err, contracts.ErrInsufficientData)
}

func TestNewEstimator(t *testing.T) {
	e, err := NewEstimator("", 10)
	require.NoError(t, err)
	assert.Equal(t, contracts.BetaCovariance, e.Method)
	assert.Equal(t, series.MinReturns, e.MinSamples, "minimum is never below 30")

	e, err = NewEstimator(contracts.BetaRegression, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, e.MinSamples)

	_, err = NewEstimator("robust", 30)
	assert.ErrorIs(t, err, contracts.ErrUnsupportedSetting)
}

func TestCache(t *testing.T) {
	c := NewCache()
	res := &contracts.BetaResult{Ticker: "AAPL", Beta: 1.2}

	_, ok := c.Get("AAPL", "a1", "b1")
	assert.False(t, ok)

	c.Put("AAPL", "a1", "b1", res)
	got, ok := c.Get("AAPL", "a1", "b1")
	require.True(t, ok)
	assert.Equal(t, 1.2, got.Beta)

	got.Beta = 9
	again, _ := c.Get("AAPL", "a1", "b1")
	assert.Equal(t, 1.2, again.Beta, "cached value is copied out")

	_, ok = c.Get("AAPL", "a2", "b1")
	assert.False(t, ok, "asset series changed")
	_, ok = c.Get("AAPL", "a1", "b2")
	assert.False(t, ok, "benchmark series changed")

	c.Invalidate("AAPL")
	assert.Equal(t, 0, c.Len())

	c.Put("AAPL", "a1", "b1", res)
	c.Put("MSFT", "m1", "b1", res)
	c.Reset()
	assert.Equal(t, 0, c.Len())
}
