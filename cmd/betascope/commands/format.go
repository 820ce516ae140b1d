package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/wonny/betascope/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// out is where command output goes (tests swap it)
var out io.Writer = os.Stdout

const (
	labelWidth      = 18
	displayCurrency = "USD"
)

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
}

// PrintTitle prints a boxed section title
func PrintTitle(title string) {
	fmt.Fprintln(out)
	PrintDoubleSeparator()
	fmt.Fprintf(out, "  %s\n", title)
	PrintSeparator()
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(out, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(out, "✅ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Fprintf(out, "ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(out, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	var b strings.Builder
	for i, val := range values {
		fmt.Fprintf(&b, "%-*s", widths[i], val)
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(out, "   • %s\n", item)
	}
}

// PrintNumberedList prints a numbered list
func PrintNumberedList(items []string) {
	for i, item := range items {
		fmt.Fprintf(out, "   %d. %s\n", i+1, item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Fprintf(out, "   %-*s : %s\n", keyWidth, key, value)
}

// PrintJSON writes v as indented JSON
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatMoney renders a USD amount rounded to cents, e.g. $12,345.60
func FormatMoney(amount float64) string {
	cur := money.GetCurrency(displayCurrency)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	cents := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(cents.IntPart(), displayCurrency).Display()
}

// FormatBeta renders a beta with three decimals
func FormatBeta(b float64) string {
	return decimal.NewFromFloat(b).StringFixed(3)
}

// FormatPercent renders a 0..1 fraction as a percentage with one decimal
func FormatPercent(f float64) string {
	return decimal.NewFromFloat(f).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// FormatShares drops trailing zeros from fractional share counts
func FormatShares(shares float64) string {
	return decimal.NewFromFloat(shares).String()
}

// PrintReport renders a portfolio report as text
func PrintReport(rep *contracts.PortfolioReport) {
	PrintTitle("Portfolio Beta Analysis")
	PrintKeyValue("Benchmark", rep.Benchmark, labelWidth)
	PrintKeyValue("Period", rep.Period, labelWidth)
	if rep.RunID != "" {
		PrintKeyValue("Run ID", rep.RunID, labelWidth)
	}
	PrintKeyValue("Portfolio Beta", FormatBeta(rep.PortfolioBeta), labelWidth)
	PrintKeyValue("Risk Level", string(rep.RiskLevel), labelWidth)
	PrintKeyValue("Total Value", FormatMoney(rep.TotalValue), labelWidth)
	if rep.CoveredValue != rep.TotalValue {
		PrintKeyValue("Covered Value", FormatMoney(rep.CoveredValue), labelWidth)
	}
	PrintSeparator()
	fmt.Fprintf(out, "  %s\n", rep.RiskDescription)
	fmt.Fprintf(out, "  %s\n", rep.MarketSensitivity)

	fmt.Fprintln(out)
	widths := []int{8, 10, 12, 14, 7, 8, 6}
	PrintTableHeader([]string{"TICKER", "SHARES", "PRICE", "VALUE", "BETA", "WEIGHT", "R²"}, widths)
	for _, row := range rep.Holdings {
		PrintTableRow([]string{
			row.Ticker,
			FormatShares(row.Shares),
			FormatMoney(row.Price),
			FormatMoney(row.MarketValue),
			FormatBeta(row.Beta),
			FormatPercent(row.Weight),
			decimal2(row.RSquared),
		}, widths)
	}

	if len(rep.Excluded) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  Excluded from portfolio beta:")
		items := make([]string, 0, len(rep.Excluded))
		for _, ex := range rep.Excluded {
			items = append(items, fmt.Sprintf("%s (%s, %s): %s",
				ex.Ticker, FormatMoney(ex.MarketValue), ex.Reason, ex.Detail))
		}
		PrintList(items)
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprintln(out)
		for _, w := range rep.Warnings {
			PrintWarning(w)
		}
	}

	if len(rep.Recommendations) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  Recommendations:")
		PrintNumberedList(rep.Recommendations)
	}
	PrintDoubleSeparator()
}

func decimal2(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

func decimal4(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(4)
}
