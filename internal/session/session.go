package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wonny/betascope/internal/analysis"
	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/store"
	"github.com/wonny/betascope/internal/watchlist"
	"github.com/wonny/betascope/pkg/logger"
)

// ErrNoBeta is returned by Recommend when the portfolio beta cannot be computed
var ErrNoBeta = errors.New("no portfolio holdings to analyze")

// Session owns the working portfolio shared by the CLI and the API
// ⭐ SSOT: 포트폴리오 변경과 분석은 mu 하나로 직렬화
type Session struct {
	mu        sync.Mutex
	portfolio *portfolio.Portfolio
	store     contracts.HoldingStore
	analyzer  *analysis.Analyzer
	quotes    contracts.QuoteSource
	optimizer *watchlist.Optimizer
	logger    *logger.Logger
}

// Snapshot is a read-only view of the portfolio
type Snapshot struct {
	Holdings   []portfolio.Holding
	Weights    map[string]float64
	TotalValue float64
	Revision   uint64
}

// New creates a session around p
func New(
	p *portfolio.Portfolio,
	holdingStore contracts.HoldingStore,
	analyzer *analysis.Analyzer,
	quotes contracts.QuoteSource,
	optimizer *watchlist.Optimizer,
	log *logger.Logger,
) *Session {
	return &Session{
		portfolio: p,
		store:     holdingStore,
		analyzer:  analyzer,
		quotes:    quotes,
		optimizer: optimizer,
		logger:    log.WithComponent("session"),
	}
}

// Optimizer returns the watchlist optimizer
func (s *Session) Optimizer() *watchlist.Optimizer {
	return s.optimizer
}

// Analyzer returns the analyzer
func (s *Session) Analyzer() *analysis.Analyzer {
	return s.analyzer
}

// Snapshot returns the current holdings sorted by ticker
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Holdings:   s.portfolio.Holdings(),
		Weights:    s.portfolio.Weights(),
		TotalValue: s.portfolio.TotalValue(),
		Revision:   s.portfolio.Revision(),
	}
}

// Add inserts a holding, fetching the current price when asked to
func (s *Session) Add(ctx context.Context, ticker string, shares float64, in portfolio.PriceInput) (portfolio.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.portfolio.AddWithInput(ctx, ticker, shares, in, s.quotes)
	if err != nil {
		return portfolio.Holding{}, err
	}
	s.logger.WithFields(map[string]interface{}{
		"ticker": h.Ticker,
		"shares": h.Shares,
		"price":  h.Price,
		"input":  in.String(),
	}).Info("Holding added")
	return h, nil
}

// Update changes shares and/or price of a holding
func (s *Session) Update(ticker string, shares, price *float64) (portfolio.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolio.Update(ticker, shares, price)
}

// Remove deletes a holding
func (s *Session) Remove(ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolio.RemoveHolding(ticker)
}

// Clear drops every holding
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio.Clear()
}

// Save writes the holdings to the store
func (s *Session) Save(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.portfolio.Records()
	if err := s.store.Save(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to save portfolio: %w", err)
	}
	s.logger.WithField("holdings", len(records)).Info("Portfolio saved")
	return len(records), nil
}

// Load replaces the holdings with what the store has.
// Returns store.ErrNoSavedPortfolio when nothing was saved yet.
func (s *Session) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoSavedPortfolio) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if err := s.portfolio.FromRecords(records); err != nil {
		return Snapshot{}, fmt.Errorf("saved portfolio is invalid: %w", err)
	}
	s.logger.WithField("holdings", len(records)).Info("Portfolio loaded")
	return s.snapshot(), nil
}

// Analyze runs the beta analysis on the current holdings
func (s *Session) Analyze(ctx context.Context) (*contracts.PortfolioReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzer.Analyze(ctx, s.portfolio)
}

// Recommend analyzes the portfolio, then ranks watchlist tickers toward target
func (s *Session) Recommend(ctx context.Context, target float64) (*watchlist.Plan, error) {
	s.mu.Lock()
	rep, err := s.analyzer.Analyze(ctx, s.portfolio)
	held := s.portfolio.Tickers()
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, contracts.ErrEmptyPortfolio) || errors.Is(err, contracts.ErrNoValidBeta) {
			return nil, fmt.Errorf("%w: %w", ErrNoBeta, err)
		}
		return nil, err
	}
	return s.optimizer.Recommend(ctx, rep.PortfolioBeta, target, held)
}

// WatchlistAdd validates and adds a ticker to the watchlist
func (s *Session) WatchlistAdd(ctx context.Context, ticker string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optimizer.Add(ctx, ticker)
}

// WatchlistRemove deletes a ticker from the watchlist
func (s *Session) WatchlistRemove(ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optimizer.List().Remove(ticker)
}
