package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/wonny/betascope/internal/contracts"
)

// JSONStore keeps holdings in a portfolio_holdings.json file:
//
//	{"AAPL": {"shares": 10, "price_per_share": 150, "market_value": 1500}}
//
// market_value is written for readers of the file and ignored on load.
type JSONStore struct {
	path string
}

type jsonHolding struct {
	Shares        float64 `json:"shares"`
	PricePerShare float64 `json:"price_per_share"`
	MarketValue   float64 `json:"market_value"`
}

// NewJSONStore creates a store backed by path
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads all holdings sorted by ticker
func (s *JSONStore) Load(ctx context.Context) ([]contracts.HoldingRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSavedPortfolio
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var raw map[string]jsonHolding
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	records := make([]contracts.HoldingRecord, 0, len(raw))
	for ticker, h := range raw {
		records = append(records, contracts.HoldingRecord{
			Ticker:        ticker,
			Shares:        h.Shares,
			PricePerShare: h.PricePerShare,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Ticker < records[j].Ticker })
	return records, nil
}

// Save replaces the file with records
func (s *JSONStore) Save(ctx context.Context, records []contracts.HoldingRecord) error {
	raw := make(map[string]jsonHolding, len(records))
	for _, r := range records {
		raw[r.Ticker] = jsonHolding{
			Shares:        r.Shares,
			PricePerShare: r.PricePerShare,
			MarketValue:   r.MarketValue(),
		}
	}

	// encoding/json sorts map keys, so the file is stable across saves
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode holdings: %w", err)
	}
	return WriteFileAtomic(s.path, append(data, '\n'))
}
