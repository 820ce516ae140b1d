package contracts

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PricePoint is one observed price of a ticker
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// PriceSeries is a chronologically sorted price history for one ticker
// ⭐ Invariant: strictly increasing timestamps, positive finite prices, immutable once built
type PriceSeries struct {
	ticker string
	points []PricePoint
}

// NewPriceSeries validates and sorts points into a PriceSeries.
// Duplicate timestamps and non-positive prices are rejected, not repaired.
func NewPriceSeries(ticker string, points []PricePoint) (*PriceSeries, error) {
	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	for i, p := range sorted {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return nil, fmt.Errorf("%w: %s: price %v at %s", ErrInvalidPriceSeries,
				ticker, p.Price, p.Time.Format(time.DateOnly))
		}
		if i > 0 && p.Time.Equal(sorted[i-1].Time) {
			return nil, fmt.Errorf("%w: %s: duplicate timestamp %s", ErrInvalidPriceSeries,
				ticker, p.Time.Format(time.RFC3339))
		}
	}

	return &PriceSeries{ticker: ticker, points: sorted}, nil
}

// Ticker returns the series ticker
func (s *PriceSeries) Ticker() string { return s.ticker }

// Len returns the number of prices
func (s *PriceSeries) Len() int { return len(s.points) }

// At returns the i-th point
func (s *PriceSeries) At(i int) PricePoint { return s.points[i] }

// Points returns a copy of the points
func (s *PriceSeries) Points() []PricePoint {
	out := make([]PricePoint, len(s.points))
	copy(out, s.points)
	return out
}

// Latest returns the most recent point
func (s *PriceSeries) Latest() (PricePoint, bool) {
	if len(s.points) == 0 {
		return PricePoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// Scale returns a new series with every price multiplied by k (k > 0)
func (s *PriceSeries) Scale(k float64) (*PriceSeries, error) {
	scaled := make([]PricePoint, len(s.points))
	for i, p := range s.points {
		scaled[i] = PricePoint{Time: p.Time, Price: p.Price * k}
	}
	return NewPriceSeries(s.ticker, scaled)
}

// ReturnPoint is the simple return realised at Time (from the previous price to the price at Time)
type ReturnPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// ReturnSeries is a periodic return sequence derived from a PriceSeries
// ⭐ Invariant: len = len(prices) - 1, strictly increasing timestamps
type ReturnSeries struct {
	Ticker string        `json:"ticker"`
	Points []ReturnPoint `json:"points"`
}

// Len returns the number of returns
func (r *ReturnSeries) Len() int { return len(r.Points) }

// Values returns the return values in order
func (r *ReturnSeries) Values() []float64 {
	values := make([]float64, len(r.Points))
	for i, p := range r.Points {
		values[i] = p.Value
	}
	return values
}
