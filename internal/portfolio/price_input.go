package portfolio

import (
	"context"
	"fmt"

	"github.com/wonny/betascope/internal/contracts"
)

// PriceInput is either a caller-given price or a request to fetch the current quote
type PriceInput struct {
	value float64
	fetch bool
}

// Given uses v as the per-share price
func Given(v float64) PriceInput {
	return PriceInput{value: v}
}

// FetchCurrent asks Resolve to look up the latest quote
func FetchCurrent() PriceInput {
	return PriceInput{fetch: true}
}

// IsFetch reports whether the price must be looked up
func (in PriceInput) IsFetch() bool {
	return in.fetch
}

func (in PriceInput) String() string {
	if in.fetch {
		return "fetch-current"
	}
	return fmt.Sprintf("given(%v)", in.value)
}

// Resolve turns the input into a concrete price; the result is validated like any other price
func Resolve(ctx context.Context, ticker string, in PriceInput, quotes contracts.QuoteSource) (float64, error) {
	ticker = NormalizeTicker(ticker)
	if !in.fetch {
		if err := validateQuantity(ticker, "price", in.value); err != nil {
			return 0, err
		}
		return in.value, nil
	}

	if quotes == nil {
		return 0, &contracts.DataFetchError{Ticker: ticker, Reason: "no quote source configured"}
	}
	price, err := quotes.FetchCurrentPrice(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve current price: %w", err)
	}
	if err := validateQuantity(ticker, "price", price); err != nil {
		return 0, &contracts.DataFetchError{Ticker: ticker, Reason: "quote is not a usable price", Err: err}
	}
	return price, nil
}

// AddWithInput resolves the price input, then adds the holding
func (p *Portfolio) AddWithInput(ctx context.Context, ticker string, shares float64, in PriceInput, quotes contracts.QuoteSource) (Holding, error) {
	if err := validateQuantity(NormalizeTicker(ticker), "shares", shares); err != nil {
		return Holding{}, err
	}
	price, err := Resolve(ctx, ticker, in, quotes)
	if err != nil {
		return Holding{}, err
	}
	return p.AddHolding(ticker, shares, price)
}
