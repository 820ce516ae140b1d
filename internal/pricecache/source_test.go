package pricecache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/pkg/logger"
	"github.com/wonny/betascope/pkg/redis"
)

// memCache mimics pkg/redis.Cache with JSON round-trips
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return false, errors.New("connection refused")
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

type countingSource struct {
	series     *contracts.PriceSeries
	quote      float64
	err        error
	priceCalls int
	quoteCalls int
}

func (c *countingSource) FetchPrices(ctx context.Context, ticker, period string) (*contracts.PriceSeries, error) {
	c.priceCalls++
	return c.series, c.err
}

func (c *countingSource) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	c.quoteCalls++
	return c.quote, c.err
}

func sampleSeries(t *testing.T) *contracts.PriceSeries {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ps, err := contracts.NewPriceSeries("AAPL", []contracts.PricePoint{
		{Time: start, Price: 180.1},
		{Time: start.AddDate(0, 0, 1), Price: 181.7},
		{Time: start.AddDate(0, 0, 4), Price: 179.9},
	})
	require.NoError(t, err)
	return ps
}

func TestFetchPrices_CachesSeries(t *testing.T) {
	next := &countingSource{series: sampleSeries(t)}
	cache := newMemCache()
	src := New(next, cache, logger.Nop(), 0, 0)
	ctx := context.Background()

	first, err := src.FetchPrices(ctx, "AAPL", "2y")
	require.NoError(t, err)
	second, err := src.FetchPrices(ctx, "AAPL", "2y")
	require.NoError(t, err)

	assert.Equal(t, 1, next.priceCalls)
	assert.Equal(t, first.Points(), second.Points())
	assert.True(t, first.At(0).Time.Equal(second.At(0).Time))
	assert.Equal(t, redis.TTLSeries, cache.ttls[redis.SeriesKey("AAPL", "2y")])

	_, err = src.FetchPrices(ctx, "AAPL", "5y")
	require.NoError(t, err)
	assert.Equal(t, 2, next.priceCalls, "period is part of the key")
}

func TestFetchPrices_ErrorsAreNotCached(t *testing.T) {
	next := &countingSource{err: &contracts.DataFetchError{Ticker: "ZZZZ", Reason: "no data"}}
	src := New(next, newMemCache(), logger.Nop(), time.Hour, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := src.FetchPrices(context.Background(), "ZZZZ", "2y")
		assert.ErrorIs(t, err, contracts.ErrDataFetch)
	}
	assert.Equal(t, 2, next.priceCalls)
}

func TestFetchPrices_CacheFailureFallsThrough(t *testing.T) {
	next := &countingSource{series: sampleSeries(t)}
	cache := newMemCache()
	cache.failGet = true
	src := New(next, cache, logger.Nop(), 0, 0)

	ps, err := src.FetchPrices(context.Background(), "AAPL", "2y")
	require.NoError(t, err)
	assert.Equal(t, 3, ps.Len())
}

func TestFetchCurrentPrice_Caches(t *testing.T) {
	next := &countingSource{quote: 187.25}
	cache := newMemCache()
	src := New(next, cache, logger.Nop(), 0, 30*time.Second)

	for i := 0; i < 3; i++ {
		price, err := src.FetchCurrentPrice(context.Background(), "AAPL")
		require.NoError(t, err)
		assert.Equal(t, 187.25, price)
	}
	assert.Equal(t, 1, next.quoteCalls)
	assert.Equal(t, 30*time.Second, cache.ttls[redis.QuoteKey("AAPL")])
}

func TestDisabledRedisIsPassThrough(t *testing.T) {
	next := &countingSource{series: sampleSeries(t), quote: 10}
	src := New(next, redis.NewCache(redis.Disabled(), "betascope"), logger.Nop(), 0, 0)

	for i := 0; i < 2; i++ {
		_, err := src.FetchPrices(context.Background(), "AAPL", "2y")
		require.NoError(t, err)
		_, err = src.FetchCurrentPrice(context.Background(), "AAPL")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, next.priceCalls)
	assert.Equal(t, 2, next.quoteCalls)
}
