package portfolio

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/betascope/internal/contracts"
)

// DuplicatePolicy decides what AddHolding does when the ticker is already held
// ⭐ SSOT: 중복 종목 정책은 여기서만 (default Replace)
type DuplicatePolicy string

const (
	// PolicyReplace overwrites the existing holding with the new shares and price
	PolicyReplace DuplicatePolicy = "replace"
	// PolicyAccumulate adds the new shares to the existing ones and moves the price to the new one
	PolicyAccumulate DuplicatePolicy = "accumulate"
)

// ParseDuplicatePolicy maps a config value to a policy; empty means replace
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyReplace:
		return PolicyReplace, nil
	case PolicyAccumulate:
		return PolicyAccumulate, nil
	default:
		return "", fmt.Errorf("%w: duplicate policy %q (valid: replace, accumulate)", contracts.ErrUnsupportedSetting, s)
	}
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// validateQuantity rejects zero, negative, NaN and infinite values
func validateQuantity(ticker, field string, v float64) error {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return &contracts.InvalidQuantityError{Ticker: ticker, Field: field, Value: v}
	}
	return nil
}

func validateTicker(ticker string) error {
	if ticker == "" {
		return fmt.Errorf("%w: ticker is required", contracts.ErrInvalidTicker)
	}
	return nil
}
