package contracts

import "context"

// PriceSource returns raw price history and current quotes
// ⭐ External collaborator: failures are reported as *DataFetchError
type PriceSource interface {
	FetchPrices(ctx context.Context, ticker, period string) (*PriceSeries, error)
	FetchCurrentPrice(ctx context.Context, ticker string) (float64, error)
}

// QuoteSource resolves a current market price
type QuoteSource interface {
	FetchCurrentPrice(ctx context.Context, ticker string) (float64, error)
}

// HoldingStore persists portfolio holdings
type HoldingStore interface {
	Load(ctx context.Context) ([]HoldingRecord, error)
	Save(ctx context.Context, records []HoldingRecord) error
}
