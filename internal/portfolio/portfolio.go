package portfolio

import (
	"sort"

	"github.com/wonny/betascope/internal/contracts"
)

// Holding is one position owned by a Portfolio
type Holding struct {
	Ticker string
	Shares float64
	Price  float64
}

// MarketValue is always shares × price, never stored
func (h Holding) MarketValue() float64 {
	return h.Shares * h.Price
}

// Portfolio owns a set of holdings keyed by ticker
// ⭐ SSOT: 보유 종목 변경은 여기서만 (not safe for concurrent use; callers serialize)
type Portfolio struct {
	Benchmark string
	policy    DuplicatePolicy
	holdings  map[string]Holding
	revision  uint64
}

// New creates an empty portfolio measured against benchmark
func New(benchmark string, policy DuplicatePolicy) *Portfolio {
	if policy == "" {
		policy = PolicyReplace
	}
	return &Portfolio{
		Benchmark: benchmark,
		policy:    policy,
		holdings:  make(map[string]Holding),
	}
}

// Policy returns the duplicate-ticker policy
func (p *Portfolio) Policy() DuplicatePolicy {
	return p.policy
}

// AddHolding adds a position; an existing ticker is replaced or accumulated per policy
func (p *Portfolio) AddHolding(ticker string, shares, price float64) (Holding, error) {
	ticker = NormalizeTicker(ticker)
	if err := validateTicker(ticker); err != nil {
		return Holding{}, err
	}
	if err := validateQuantity(ticker, "shares", shares); err != nil {
		return Holding{}, err
	}
	if err := validateQuantity(ticker, "price", price); err != nil {
		return Holding{}, err
	}

	h := Holding{Ticker: ticker, Shares: shares, Price: price}
	if existing, ok := p.holdings[ticker]; ok && p.policy == PolicyAccumulate {
		h.Shares += existing.Shares
	}

	p.holdings[ticker] = h
	p.revision++
	return h, nil
}

// RemoveHolding drops a position
func (p *Portfolio) RemoveHolding(ticker string) error {
	ticker = NormalizeTicker(ticker)
	if _, ok := p.holdings[ticker]; !ok {
		return &contracts.NotFoundError{Ticker: ticker}
	}
	delete(p.holdings, ticker)
	p.revision++
	return nil
}

// UpdateShares changes the share count of an existing position
func (p *Portfolio) UpdateShares(ticker string, shares float64) (Holding, error) {
	ticker = NormalizeTicker(ticker)
	h, ok := p.holdings[ticker]
	if !ok {
		return Holding{}, &contracts.NotFoundError{Ticker: ticker}
	}
	if err := validateQuantity(ticker, "shares", shares); err != nil {
		return Holding{}, err
	}
	h.Shares = shares
	p.holdings[ticker] = h
	p.revision++
	return h, nil
}

// UpdatePrice changes the per-share price of an existing position
func (p *Portfolio) UpdatePrice(ticker string, price float64) (Holding, error) {
	ticker = NormalizeTicker(ticker)
	h, ok := p.holdings[ticker]
	if !ok {
		return Holding{}, &contracts.NotFoundError{Ticker: ticker}
	}
	if err := validateQuantity(ticker, "price", price); err != nil {
		return Holding{}, err
	}
	h.Price = price
	p.holdings[ticker] = h
	p.revision++
	return h, nil
}

// Update changes shares and/or price of an existing position in one step.
// Nil leaves the field as is; nothing changes unless every given value is valid.
func (p *Portfolio) Update(ticker string, shares, price *float64) (Holding, error) {
	ticker = NormalizeTicker(ticker)
	h, ok := p.holdings[ticker]
	if !ok {
		return Holding{}, &contracts.NotFoundError{Ticker: ticker}
	}
	if shares != nil {
		if err := validateQuantity(ticker, "shares", *shares); err != nil {
			return Holding{}, err
		}
		h.Shares = *shares
	}
	if price != nil {
		if err := validateQuantity(ticker, "price", *price); err != nil {
			return Holding{}, err
		}
		h.Price = *price
	}
	if shares == nil && price == nil {
		return h, nil
	}
	p.holdings[ticker] = h
	p.revision++
	return h, nil
}

// Clear removes every holding
func (p *Portfolio) Clear() {
	if len(p.holdings) == 0 {
		return
	}
	p.holdings = make(map[string]Holding)
	p.revision++
}

// Get returns a single position
func (p *Portfolio) Get(ticker string) (Holding, bool) {
	h, ok := p.holdings[NormalizeTicker(ticker)]
	return h, ok
}

// Holdings returns a copy of all positions sorted by ticker
func (p *Portfolio) Holdings() []Holding {
	out := make([]Holding, 0, len(p.holdings))
	for _, h := range p.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// Tickers returns the held tickers sorted
func (p *Portfolio) Tickers() []string {
	holdings := p.Holdings()
	tickers := make([]string, len(holdings))
	for i, h := range holdings {
		tickers[i] = h.Ticker
	}
	return tickers
}

// Len returns the number of positions
func (p *Portfolio) Len() int {
	return len(p.holdings)
}

// IsEmpty reports whether the portfolio has no positions
func (p *Portfolio) IsEmpty() bool {
	return len(p.holdings) == 0
}

// TotalValue sums market values
func (p *Portfolio) TotalValue() float64 {
	total := 0.0
	for _, h := range p.Holdings() {
		total += h.MarketValue()
	}
	return total
}

// Weights returns market-value weights; empty for an empty portfolio
func (p *Portfolio) Weights() map[string]float64 {
	weights := make(map[string]float64, len(p.holdings))
	total := p.TotalValue()
	if total <= 0 {
		return weights
	}
	for ticker, h := range p.holdings {
		weights[ticker] = h.MarketValue() / total
	}
	return weights
}

// Revision increases on every mutation; derived results keyed on it go stale when it moves
func (p *Portfolio) Revision() uint64 {
	return p.revision
}

// =============================================================================
// Persistence mapping
// =============================================================================

// Records converts holdings into the persistence shape, sorted by ticker
func (p *Portfolio) Records() []contracts.HoldingRecord {
	holdings := p.Holdings()
	records := make([]contracts.HoldingRecord, len(holdings))
	for i, h := range holdings {
		records[i] = contracts.HoldingRecord{Ticker: h.Ticker, Shares: h.Shares, PricePerShare: h.Price}
	}
	return records
}

// FromRecords replaces all holdings with the given records.
// Every record is validated first; on error the portfolio is left unchanged.
func (p *Portfolio) FromRecords(records []contracts.HoldingRecord) error {
	next := make(map[string]Holding, len(records))
	for _, r := range records {
		ticker := NormalizeTicker(r.Ticker)
		if err := validateTicker(ticker); err != nil {
			return err
		}
		if err := validateQuantity(ticker, "shares", r.Shares); err != nil {
			return err
		}
		if err := validateQuantity(ticker, "price", r.PricePerShare); err != nil {
			return err
		}
		next[ticker] = Holding{Ticker: ticker, Shares: r.Shares, Price: r.PricePerShare}
	}
	p.holdings = next
	p.revision++
	return nil
}
