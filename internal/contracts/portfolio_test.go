package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestHoldingRecord_MarketValue(t *testing.T) {
	r := HoldingRecord{Ticker: "AAPL", Shares: 10, PricePerShare: 150}
	if mv := r.MarketValue(); mv != 1500 {
		t.Errorf("MarketValue() = %v, want 1500", mv)
	}
}

func TestRiskLevel_Constants(t *testing.T) {
	if RiskConservative != "Conservative" {
		t.Errorf("RiskConservative = %s", RiskConservative)
	}
	if RiskModerate != "Moderate" {
		t.Errorf("RiskModerate = %s", RiskModerate)
	}
	if RiskAggressive != "Aggressive" {
		t.Errorf("RiskAggressive = %s", RiskAggressive)
	}
}

func TestPortfolioReport_JSON(t *testing.T) {
	original := &PortfolioReport{
		Benchmark:     "^GSPC",
		Period:        "2y",
		PortfolioBeta: 1.05,
		RiskLevel:     RiskModerate,
		TotalValue:    3000,
		Holdings: []HoldingRow{
			{Ticker: "AAPL", Beta: 1.2, Weight: 0.5, MarketValue: 1500},
			{Ticker: "MSFT", Beta: 0.9, Weight: 0.5, MarketValue: 1500},
		},
		Excluded: []Exclusion{{Ticker: "NEW", Reason: ReasonInsufficientData}},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded PortfolioReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.PortfolioBeta != original.PortfolioBeta || decoded.RiskLevel != original.RiskLevel {
		t.Errorf("decoded = %+v", decoded)
	}
	if got := decoded.ExcludedTickers(); len(got) != 1 || got[0] != "NEW" {
		t.Errorf("ExcludedTickers() = %v", got)
	}
	if row, ok := decoded.Row("MSFT"); !ok || row.Beta != 0.9 {
		t.Errorf("Row(MSFT) = %v, %v", row, ok)
	}
}

func TestReasonOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"insufficient", &InsufficientDataError{Ticker: "X", Got: 5, Need: 30}, ReasonInsufficientData},
		{"short overlap", &AlignmentError{Ticker: "X", Overlap: 20, Need: 30}, ReasonInsufficientData},
		{"mismatch", &AlignmentError{Ticker: "X", Detail: "timestamps differ"}, ReasonAlignment},
		{"degenerate", &DegenerateVarianceError{Ticker: "X"}, ReasonDegenerateVariance},
		{"fetch", &DataFetchError{Ticker: "X", Reason: "no data"}, ReasonDataFetch},
		{"wrapped fetch", fmt.Errorf("outer: %w", &DataFetchError{Ticker: "X"}), ReasonDataFetch},
		{"not found", &NotFoundError{Ticker: "X"}, ReasonMissingBeta},
		{"other", errors.New("boom"), ReasonError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReasonOf(tt.err); got != tt.want {
				t.Errorf("ReasonOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypedErrors_Is(t *testing.T) {
	cause := errors.New("connection refused")
	fetch := &DataFetchError{Ticker: "AAPL", Reason: "transport", Err: cause}

	if !errors.Is(fetch, ErrDataFetch) {
		t.Error("DataFetchError should match ErrDataFetch")
	}
	if !errors.Is(fetch, cause) {
		t.Error("DataFetchError should unwrap to its cause")
	}
	if !errors.Is(&EmptyPortfolioError{}, ErrEmptyPortfolio) {
		t.Error("EmptyPortfolioError should match ErrEmptyPortfolio")
	}
	if !errors.Is(&InvalidQuantityError{Field: "shares"}, ErrInvalidQuantity) {
		t.Error("InvalidQuantityError should match ErrInvalidQuantity")
	}

	short := &AlignmentError{Ticker: "X", Overlap: 20, Need: 30}
	if !errors.Is(short, ErrAlignment) || !errors.Is(short, ErrInsufficientData) {
		t.Error("short overlap should match both ErrAlignment and ErrInsufficientData")
	}
	mismatch := &AlignmentError{Ticker: "X", Detail: "length mismatch"}
	if errors.Is(mismatch, ErrInsufficientData) {
		t.Error("timestamp mismatch should not match ErrInsufficientData")
	}
}
