package watchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/store"
)

// List is the watchlist file: a JSON array of tickers
//
//	["NVDA", "KO", "TSLA"]
type List struct {
	path string
}

// NewList creates a watchlist backed by path
func NewList(path string) *List {
	return &List{path: path}
}

// Load returns the tickers in file order, uppercased and de-duplicated.
// A missing file is an empty watchlist.
func (l *List) Load() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist %s: %w", l.path, err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist %s: %w", l.path, err)
	}
	return normalize(raw), nil
}

// Save replaces the watchlist file
func (l *List) Save(tickers []string) error {
	data, err := json.MarshalIndent(normalize(tickers), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode watchlist: %w", err)
	}
	return store.WriteFileAtomic(l.path, append(data, '\n'))
}

// Contains reports whether ticker is on the watchlist
func (l *List) Contains(ticker string) (bool, error) {
	tickers, err := l.Load()
	if err != nil {
		return false, err
	}
	ticker = portfolio.NormalizeTicker(ticker)
	for _, t := range tickers {
		if t == ticker {
			return true, nil
		}
	}
	return false, nil
}

// Add appends ticker; false means it was already listed
func (l *List) Add(ticker string) (bool, error) {
	ticker = portfolio.NormalizeTicker(ticker)
	if ticker == "" {
		return false, fmt.Errorf("%w: empty ticker", contracts.ErrInvalidTicker)
	}
	tickers, err := l.Load()
	if err != nil {
		return false, err
	}
	for _, t := range tickers {
		if t == ticker {
			return false, nil
		}
	}
	return true, l.Save(append(tickers, ticker))
}

// Remove deletes ticker from the watchlist
func (l *List) Remove(ticker string) error {
	ticker = portfolio.NormalizeTicker(ticker)
	tickers, err := l.Load()
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t != ticker {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tickers) {
		return &contracts.NotFoundError{Ticker: ticker, Where: "watchlist"}
	}
	return l.Save(kept)
}

func normalize(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = portfolio.NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
