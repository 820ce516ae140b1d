package watchlist

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/betascope/internal/aggregate"
	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/pkg/logger"
)

const (
	// DefaultTargetBeta tracks the market
	DefaultTargetBeta = 1.0
	// CloseEnough is the |target - current| below which no trade is suggested
	CloseEnough = 0.05
	// MaxRecommendations caps the candidate list
	MaxRecommendations = 5
	maxSuggestions     = 3
)

// BetaSource computes a single ticker's beta against the benchmark
type BetaSource interface {
	Beta(ctx context.Context, ticker string) (*contracts.BetaResult, error)
}

// Entry is one watchlist ticker with its current market data
type Entry struct {
	Ticker       string              `json:"ticker"`
	CurrentPrice float64             `json:"current_price"`
	Beta         float64             `json:"beta"`
	RiskLevel    contracts.RiskLevel `json:"risk_level"`
	Error        string              `json:"error,omitempty"`
	Err          error               `json:"-"`
}

// HasBeta reports whether the beta could be computed
func (e Entry) HasBeta() bool {
	return e.RiskLevel != contracts.RiskUnknown
}

// Recommendation is a watchlist candidate for moving the portfolio beta
type Recommendation struct {
	Ticker       string              `json:"ticker"`
	CurrentPrice float64             `json:"current_price"`
	Beta         float64             `json:"beta"`
	RiskLevel    contracts.RiskLevel `json:"risk_level"`
	Impact       string              `json:"beta_impact"`
	Reason       string              `json:"reason"`
}

// Plan is the answer to "what should I add to reach the target beta"
type Plan struct {
	CurrentBeta     float64          `json:"current_beta"`
	TargetBeta      float64          `json:"target_beta"`
	BetaDifference  float64          `json:"beta_difference"`
	Action          string           `json:"action_needed,omitempty"` // increase or decrease
	Message         string           `json:"message"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Suggestion is one diversification hint
type Suggestion struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Suggestions []Entry `json:"suggestions"`
}

// Diversification counts the watchlist per risk tier
type Diversification struct {
	ConservativeCount int          `json:"conservative_count"`
	ModerateCount     int          `json:"moderate_count"`
	AggressiveCount   int          `json:"aggressive_count"`
	UnknownCount      int          `json:"unknown_count"`
	TotalStocks       int          `json:"total_stocks"`
	Message           string       `json:"message,omitempty"`
	Recommendations   []Suggestion `json:"recommendations"`
}

// Optimizer ranks watchlist tickers for beta balancing
// ⭐ SSOT: watchlist 기반 추천은 여기서만
type Optimizer struct {
	list        *List
	betas       BetaSource
	quotes      contracts.QuoteSource
	logger      *logger.Logger
	concurrency int
}

// NewOptimizer creates an Optimizer
func NewOptimizer(list *List, betas BetaSource, quotes contracts.QuoteSource, log *logger.Logger, concurrency int) *Optimizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Optimizer{
		list:        list,
		betas:       betas,
		quotes:      quotes,
		logger:      log.WithComponent("watchlist"),
		concurrency: concurrency,
	}
}

// List returns the underlying watchlist
func (o *Optimizer) List() *List {
	return o.list
}

// Add verifies that the ticker has a quote, then adds it.
// false means it was already listed.
func (o *Optimizer) Add(ctx context.Context, ticker string) (bool, error) {
	ticker = portfolio.NormalizeTicker(ticker)
	if ticker == "" {
		return false, fmt.Errorf("%w: empty ticker", contracts.ErrInvalidTicker)
	}
	listed, err := o.list.Contains(ticker)
	if err != nil || listed {
		return false, err
	}
	if _, err := o.quotes.FetchCurrentPrice(ctx, ticker); err != nil {
		return false, err
	}
	return o.list.Add(ticker)
}

// Entries returns every watchlist ticker with price, beta and risk level, in watchlist order.
// A failed beta leaves the entry at RiskUnknown with Err set.
func (o *Optimizer) Entries(ctx context.Context) ([]Entry, error) {
	tickers, err := o.list.Load()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(tickers))
	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			entries[i] = o.entry(ctx, ticker)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (o *Optimizer) entry(ctx context.Context, ticker string) Entry {
	e := Entry{Ticker: ticker, RiskLevel: contracts.RiskUnknown}

	price, priceErr := o.quotes.FetchCurrentPrice(ctx, ticker)
	if priceErr == nil {
		e.CurrentPrice = price
	}

	res, betaErr := o.betas.Beta(ctx, ticker)
	if betaErr == nil {
		e.Beta = res.Beta
		e.RiskLevel = aggregate.Classify(res.Beta)
	}

	if e.Err = errors.Join(priceErr, betaErr); e.Err != nil {
		e.Error = e.Err.Error()
		o.logger.WithError(e.Err).WithTicker(ticker).Warn("Watchlist ticker incomplete")
	}
	return e
}

// Recommend ranks watchlist tickers not already held for moving currentBeta toward target
func (o *Optimizer) Recommend(ctx context.Context, currentBeta, target float64, held []string) (*Plan, error) {
	entries, err := o.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return Recommend(entries, currentBeta, target, held), nil
}

// Recommend is the pure ranking behind Optimizer.Recommend
func Recommend(entries []Entry, currentBeta, target float64, held []string) *Plan {
	plan := &Plan{
		CurrentBeta:     currentBeta,
		TargetBeta:      target,
		BetaDifference:  target - currentBeta,
		Recommendations: []Recommendation{},
	}

	owned := make(map[string]bool, len(held))
	for _, t := range held {
		owned[portfolio.NormalizeTicker(t)] = true
	}
	candidates := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.HasBeta() && !owned[e.Ticker] {
			candidates = append(candidates, e)
		}
	}

	if len(candidates) == 0 {
		plan.Message = "No stocks available in watchlist that are not already in portfolio"
		return plan
	}

	if math.Abs(plan.BetaDifference) < CloseEnough {
		plan.Message = fmt.Sprintf("Portfolio beta (%.3f) is already close to target (%.3f)", currentBeta, target)
		return plan
	}

	if plan.BetaDifference > 0 {
		plan.Action = "increase"
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Beta > candidates[j].Beta })
	} else {
		plan.Action = "decrease"
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Beta < candidates[j].Beta })
	}

	if len(candidates) > MaxRecommendations {
		candidates = candidates[:MaxRecommendations]
	}
	for _, c := range candidates {
		plan.Recommendations = append(plan.Recommendations, Recommendation{
			Ticker:       c.Ticker,
			CurrentPrice: c.CurrentPrice,
			Beta:         c.Beta,
			RiskLevel:    c.RiskLevel,
			Impact:       impact(c.Beta, currentBeta),
			Reason:       reason(c, plan.Action),
		})
	}
	plan.Message = fmt.Sprintf("To %s portfolio beta from %.3f to %.3f", plan.Action, currentBeta, target)
	return plan
}

func impact(stockBeta, portfolioBeta float64) string {
	switch {
	case stockBeta > portfolioBeta:
		return "Will increase portfolio beta"
	case stockBeta < portfolioBeta:
		return "Will decrease portfolio beta"
	default:
		return "Will maintain portfolio beta"
	}
}

func reason(e Entry, action string) string {
	b := e.Beta
	if action == "increase" {
		switch {
		case b > 1.5:
			return fmt.Sprintf("%s has high beta (%.2f) - excellent for increasing portfolio volatility", e.Ticker, b)
		case b > aggregate.AggressiveAbove:
			return fmt.Sprintf("%s has moderate-high beta (%.2f) - good for increasing portfolio volatility", e.Ticker, b)
		default:
			return fmt.Sprintf("%s has moderate beta (%.2f) - will help increase portfolio volatility", e.Ticker, b)
		}
	}
	switch {
	case b < aggregate.ConservativeBelow:
		return fmt.Sprintf("%s has low beta (%.2f) - excellent for reducing portfolio volatility", e.Ticker, b)
	case b < 1.0:
		return fmt.Sprintf("%s has moderate-low beta (%.2f) - good for reducing portfolio volatility", e.Ticker, b)
	default:
		return fmt.Sprintf("%s has moderate beta (%.2f) - will help reduce portfolio volatility", e.Ticker, b)
	}
}

// Diversification counts the watchlist per tier and suggests filling empty tiers
func (o *Optimizer) Diversification(ctx context.Context) (*Diversification, error) {
	entries, err := o.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return Diversify(entries), nil
}

// Diversify is the pure tier count behind Optimizer.Diversification
func Diversify(entries []Entry) *Diversification {
	d := &Diversification{TotalStocks: len(entries), Recommendations: []Suggestion{}}
	if len(entries) == 0 {
		d.Message = "No stocks in watchlist"
		return d
	}

	var belowMarket, aboveMarket []Entry
	for _, e := range entries {
		switch e.RiskLevel {
		case contracts.RiskConservative:
			d.ConservativeCount++
		case contracts.RiskModerate:
			d.ModerateCount++
		case contracts.RiskAggressive:
			d.AggressiveCount++
		default:
			d.UnknownCount++
			continue
		}
		if e.Beta < 1.0 {
			belowMarket = append(belowMarket, e)
		}
		if e.Beta > 1.0 {
			aboveMarket = append(aboveMarket, e)
		}
	}

	if d.ConservativeCount == 0 {
		d.Recommendations = append(d.Recommendations, Suggestion{
			Type:        "Add Conservative Stocks",
			Message:     "Consider adding low-beta stocks for stability",
			Suggestions: firstN(belowMarket, maxSuggestions),
		})
	}
	if d.AggressiveCount == 0 {
		d.Recommendations = append(d.Recommendations, Suggestion{
			Type:        "Add Growth Stocks",
			Message:     "Consider adding high-beta stocks for growth potential",
			Suggestions: firstN(aboveMarket, maxSuggestions),
		})
	}
	return d
}

func firstN(entries []Entry, n int) []Entry {
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
