package contracts

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Taxonomy
// =============================================================================

// Sentinels for errors.Is. Typed errors below carry context and match these.
var (
	ErrInsufficientData   = errors.New("insufficient data")
	ErrAlignment          = errors.New("series alignment failed")
	ErrDegenerateVariance = errors.New("benchmark variance is zero")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrNotFound           = errors.New("not found")
	ErrEmptyPortfolio     = errors.New("portfolio is empty")
	ErrDataFetch          = errors.New("data fetch failed")
	ErrNoValidBeta        = errors.New("no holding has a valid beta")
	ErrInvalidPriceSeries = errors.New("invalid price series")
	ErrUnsupportedSetting = errors.New("unsupported setting")
	ErrInvalidTicker      = errors.New("invalid ticker")
)

// InsufficientDataError is returned when a series is too short to estimate beta.
type InsufficientDataError struct {
	Ticker string
	Got    int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: got %d, need %d", e.Ticker, e.Got, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// AlignmentError is returned when two series share too few timestamps.
// A short overlap is also insufficient data for the holding, so it matches both sentinels.
type AlignmentError struct {
	Ticker  string
	Overlap int
	Need    int
	Detail  string
}

func (e *AlignmentError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: alignment failed: %s", e.Ticker, e.Detail)
	}
	return fmt.Sprintf("%s: alignment failed: %d overlapping points, need %d", e.Ticker, e.Overlap, e.Need)
}

func (e *AlignmentError) Is(target error) bool {
	if target == ErrAlignment {
		return true
	}
	// mismatched timestamps are not a length problem
	return target == ErrInsufficientData && e.Detail == ""
}

// DegenerateVarianceError is returned when the benchmark returns are flat.
type DegenerateVarianceError struct {
	Ticker string
}

func (e *DegenerateVarianceError) Error() string {
	return fmt.Sprintf("%s: benchmark variance is zero, beta undefined", e.Ticker)
}

func (e *DegenerateVarianceError) Is(target error) bool {
	return target == ErrDegenerateVariance
}

// InvalidQuantityError is returned for non-positive or non-finite shares or prices.
type InvalidQuantityError struct {
	Ticker string
	Field  string // "shares" or "price"
	Value  float64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("%s: invalid %s %v: must be a positive number", e.Ticker, e.Field, e.Value)
}

func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// NotFoundError is returned when a ticker is absent from a portfolio or watchlist.
type NotFoundError struct {
	Ticker string
	Where  string
}

func (e *NotFoundError) Error() string {
	where := e.Where
	if where == "" {
		where = "portfolio"
	}
	return fmt.Sprintf("%s not found in %s", e.Ticker, where)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// EmptyPortfolioError is returned when a report is requested for a portfolio without holdings.
type EmptyPortfolioError struct{}

func (e *EmptyPortfolioError) Error() string {
	return "portfolio is empty: beta is undefined"
}

func (e *EmptyPortfolioError) Is(target error) bool {
	return target == ErrEmptyPortfolio
}

// DataFetchError wraps a Price Source failure (network, unknown ticker, no data).
type DataFetchError struct {
	Ticker string
	Reason string
	Err    error
}

func (e *DataFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: fetch failed: %s: %v", e.Ticker, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: fetch failed: %s", e.Ticker, e.Reason)
}

func (e *DataFetchError) Is(target error) bool {
	return target == ErrDataFetch
}

func (e *DataFetchError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Exclusion Reasons
// =============================================================================

// Stable reason codes used in reports and API responses.
const (
	ReasonInsufficientData   = "insufficient_data"
	ReasonAlignment          = "alignment"
	ReasonDegenerateVariance = "degenerate_variance"
	ReasonDataFetch          = "data_fetch"
	ReasonMissingBeta        = "missing_beta"
	ReasonError              = "error"
)

// ReasonOf maps an error to its reason code.
func ReasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataFetch):
		return ReasonDataFetch
	case errors.Is(err, ErrDegenerateVariance):
		return ReasonDegenerateVariance
	case errors.Is(err, ErrInsufficientData):
		return ReasonInsufficientData
	case errors.Is(err, ErrAlignment):
		return ReasonAlignment
	case errors.Is(err, ErrNotFound):
		return ReasonMissingBeta
	default:
		return ReasonError
	}
}
