package pricecache

import (
	"context"
	"time"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/pkg/logger"
	"github.com/wonny/betascope/pkg/redis"
)

// Cache is the subset of pkg/redis.Cache used here
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Source decorates a PriceSource with a shared cache.
// Cache failures are logged and fall through to the wrapped source.
type Source struct {
	next      contracts.PriceSource
	cache     Cache
	logger    *logger.Logger
	seriesTTL time.Duration
	quoteTTL  time.Duration
}

type cachedSeries struct {
	Ticker string                 `json:"ticker"`
	Points []contracts.PricePoint `json:"points"`
}

// New wraps next; zero TTLs fall back to the redis package defaults
func New(next contracts.PriceSource, cache Cache, log *logger.Logger, seriesTTL, quoteTTL time.Duration) *Source {
	if seriesTTL <= 0 {
		seriesTTL = redis.TTLSeries
	}
	if quoteTTL <= 0 {
		quoteTTL = redis.TTLQuote
	}
	return &Source{
		next:      next,
		cache:     cache,
		logger:    log.WithComponent("pricecache"),
		seriesTTL: seriesTTL,
		quoteTTL:  quoteTTL,
	}
}

// FetchPrices serves a cached history when present, otherwise fetches and stores it
func (s *Source) FetchPrices(ctx context.Context, ticker, period string) (*contracts.PriceSeries, error) {
	key := redis.SeriesKey(ticker, period)

	var hit cachedSeries
	found, err := s.cache.Get(ctx, key, &hit)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Price cache read failed")
	}
	if found {
		if ps, err := contracts.NewPriceSeries(ticker, hit.Points); err == nil {
			return ps, nil
		}
		s.logger.WithField("key", key).Warn("Discarding unusable cached series")
	}

	ps, err := s.next.FetchPrices(ctx, ticker, period)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, cachedSeries{Ticker: ps.Ticker(), Points: ps.Points()}, s.seriesTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Price cache write failed")
	}
	return ps, nil
}

// FetchCurrentPrice serves a short-lived cached quote when present
func (s *Source) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	key := redis.QuoteKey(ticker)

	var price float64
	found, err := s.cache.Get(ctx, key, &price)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Quote cache read failed")
	}
	if found && price > 0 {
		return price, nil
	}

	price, err = s.next.FetchCurrentPrice(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, key, price, s.quoteTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Quote cache write failed")
	}
	return price, nil
}
