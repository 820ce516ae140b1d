package watchlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/pkg/logger"
)

type stubMarket struct {
	betas  map[string]float64
	prices map[string]float64
}

func (s *stubMarket) Beta(ctx context.Context, ticker string) (*contracts.BetaResult, error) {
	b, ok := s.betas[ticker]
	if !ok {
		return nil, &contracts.InsufficientDataError{Ticker: ticker, Got: 5, Need: 30}
	}
	return &contracts.BetaResult{Ticker: ticker, Beta: b, SampleSize: 250}, nil
}

func (s *stubMarket) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	p, ok := s.prices[ticker]
	if !ok {
		return 0, &contracts.DataFetchError{Ticker: ticker, Reason: "no data returned"}
	}
	return p, nil
}

func newOptimizer(t *testing.T, tickers ...string) (*Optimizer, *stubMarket) {
	t.Helper()
	list := NewList(filepath.Join(t.TempDir(), "watchlist.json"))
	require.NoError(t, list.Save(tickers))

	m := &stubMarket{
		betas: map[string]float64{
			"NVDA": 1.8, "TSLA": 2.1, "AMD": 1.4, "KO": 0.6, "JNJ": 0.55,
			"PG": 0.9, "SPY": 1.0, "META": 1.25, "XOM": 0.85,
		},
		prices: map[string]float64{
			"NVDA": 120, "TSLA": 250, "AMD": 160, "KO": 62, "JNJ": 155,
			"PG": 165, "SPY": 560, "META": 590, "XOM": 118, "IPO": 20,
		},
	}
	return NewOptimizer(list, m, m, logger.Nop(), 3), m
}

func TestList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	l := NewList(path)

	got, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{}, got, "missing file is an empty watchlist")

	added, err := l.Add(" nvda ")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = l.Add("NVDA")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = l.Add("ko")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"NVDA\",\n  \"KO\"\n]\n", string(data))

	require.NoError(t, l.Remove("nvda"))
	got, err = l.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"KO"}, got)

	err = l.Remove("TSLA")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = l.Add("   ")
	assert.ErrorIs(t, err, contracts.ErrInvalidTicker)
}

func TestList_NormalizesHandWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	require.NoError(t, os.WriteFile(path, []byte(`["aapl", "AAPL", " msft", ""]`), 0o644))

	got, err := NewList(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)
}

func TestList_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o644))

	_, err := NewList(path).Load()
	assert.Error(t, err)
}

func TestOptimizer_Add(t *testing.T) {
	o, _ := newOptimizer(t)
	ctx := context.Background()

	added, err := o.Add(ctx, "nvda")
	require.NoError(t, err)
	assert.True(t, added)

	_, err = o.Add(ctx, "ZZZZ")
	assert.ErrorIs(t, err, contracts.ErrDataFetch)

	got, err := o.List().Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, got)
}

func TestEntries(t *testing.T) {
	o, _ := newOptimizer(t, "NVDA", "KO", "IPO", "GONE")

	entries, err := o.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "NVDA", entries[0].Ticker)
	assert.Equal(t, 120.0, entries[0].CurrentPrice)
	assert.Equal(t, contracts.RiskAggressive, entries[0].RiskLevel)
	assert.NoError(t, entries[0].Err)

	assert.Equal(t, contracts.RiskConservative, entries[1].RiskLevel)

	// price but no beta: flagged, not defaulted to zero
	assert.Equal(t, "IPO", entries[2].Ticker)
	assert.Equal(t, contracts.RiskUnknown, entries[2].RiskLevel)
	assert.False(t, entries[2].HasBeta())
	assert.ErrorIs(t, entries[2].Err, contracts.ErrInsufficientData)
	assert.NotEmpty(t, entries[2].Error)

	assert.Equal(t, contracts.RiskUnknown, entries[3].RiskLevel)
	assert.ErrorIs(t, entries[3].Err, contracts.ErrDataFetch)
}

func TestRecommend_Increase(t *testing.T) {
	o, _ := newOptimizer(t, "KO", "NVDA", "TSLA", "AMD", "PG", "META", "XOM", "IPO")

	plan, err := o.Recommend(context.Background(), 0.7, DefaultTargetBeta, []string{"tsla"})
	require.NoError(t, err)

	assert.Equal(t, "increase", plan.Action)
	assert.InDelta(t, 0.3, plan.BetaDifference, 1e-12)
	assert.Equal(t, "To increase portfolio beta from 0.700 to 1.000", plan.Message)

	require.Len(t, plan.Recommendations, MaxRecommendations)
	var tickers []string
	for _, r := range plan.Recommendations {
		tickers = append(tickers, r.Ticker)
	}
	assert.Equal(t, []string{"NVDA", "AMD", "META", "PG", "XOM"}, tickers)

	first := plan.Recommendations[0]
	assert.Equal(t, "Will increase portfolio beta", first.Impact)
	assert.Equal(t, "NVDA has high beta (1.80) - excellent for increasing portfolio volatility", first.Reason)
	assert.Equal(t, "AMD has moderate-high beta (1.40) - good for increasing portfolio volatility", plan.Recommendations[1].Reason)
	assert.Equal(t, "PG has moderate beta (0.90) - will help increase portfolio volatility", plan.Recommendations[3].Reason)
}

func TestRecommend_Decrease(t *testing.T) {
	entries := []Entry{
		{Ticker: "NVDA", Beta: 1.8, RiskLevel: contracts.RiskAggressive},
		{Ticker: "KO", Beta: 0.6, RiskLevel: contracts.RiskConservative},
		{Ticker: "PG", Beta: 0.9, RiskLevel: contracts.RiskModerate},
		{Ticker: "SPY", Beta: 1.0, RiskLevel: contracts.RiskModerate},
	}

	plan := Recommend(entries, 1.4, 1.0, nil)

	assert.Equal(t, "decrease", plan.Action)
	require.Len(t, plan.Recommendations, 4)
	assert.Equal(t, "KO", plan.Recommendations[0].Ticker)
	assert.Equal(t, "KO has low beta (0.60) - excellent for reducing portfolio volatility", plan.Recommendations[0].Reason)
	assert.Equal(t, "PG has moderate-low beta (0.90) - good for reducing portfolio volatility", plan.Recommendations[1].Reason)
	assert.Equal(t, "SPY has moderate beta (1.00) - will help reduce portfolio volatility", plan.Recommendations[2].Reason)
	assert.Equal(t, "Will increase portfolio beta", plan.Recommendations[3].Impact)
}

func TestRecommend_AlreadyClose(t *testing.T) {
	entries := []Entry{{Ticker: "KO", Beta: 0.6, RiskLevel: contracts.RiskConservative}}

	plan := Recommend(entries, 1.03, 1.0, nil)
	assert.Empty(t, plan.Action)
	assert.Empty(t, plan.Recommendations)
	assert.Equal(t, "Portfolio beta (1.030) is already close to target (1.000)", plan.Message)
}

func TestRecommend_NothingAvailable(t *testing.T) {
	entries := []Entry{
		{Ticker: "KO", Beta: 0.6, RiskLevel: contracts.RiskConservative},
		{Ticker: "IPO", RiskLevel: contracts.RiskUnknown},
	}

	plan := Recommend(entries, 1.5, 1.0, []string{"KO"})
	assert.Empty(t, plan.Recommendations)
	assert.Equal(t, "No stocks available in watchlist that are not already in portfolio", plan.Message)
}

func TestImpact(t *testing.T) {
	assert.Equal(t, "Will maintain portfolio beta", impact(1.1, 1.1))
	assert.Equal(t, "Will decrease portfolio beta", impact(0.9, 1.1))
}

func TestDiversify(t *testing.T) {
	o, _ := newOptimizer(t, "PG", "SPY", "XOM", "META", "IPO")

	d, err := o.Diversification(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, d.TotalStocks)
	assert.Equal(t, 0, d.ConservativeCount)
	assert.Equal(t, 3, d.ModerateCount)
	assert.Equal(t, 1, d.AggressiveCount)
	assert.Equal(t, 1, d.UnknownCount)

	require.Len(t, d.Recommendations, 1)
	assert.Equal(t, "Add Conservative Stocks", d.Recommendations[0].Type)
	require.Len(t, d.Recommendations[0].Suggestions, 2)
	assert.Equal(t, "PG", d.Recommendations[0].Suggestions[0].Ticker)
	assert.Equal(t, "XOM", d.Recommendations[0].Suggestions[1].Ticker)
}

func TestDiversify_NoGrowth(t *testing.T) {
	d := Diversify([]Entry{
		{Ticker: "KO", Beta: 0.6, RiskLevel: contracts.RiskConservative},
		{Ticker: "MSFT", Beta: 1.1, RiskLevel: contracts.RiskModerate},
	})

	require.Len(t, d.Recommendations, 1)
	assert.Equal(t, "Add Growth Stocks", d.Recommendations[0].Type)
	require.Len(t, d.Recommendations[0].Suggestions, 1)
	assert.Equal(t, "MSFT", d.Recommendations[0].Suggestions[0].Ticker)
}

func TestDiversify_Empty(t *testing.T) {
	d := Diversify(nil)
	assert.Equal(t, "No stocks in watchlist", d.Message)
	assert.Empty(t, d.Recommendations)
}
