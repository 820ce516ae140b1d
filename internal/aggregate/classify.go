package aggregate

import (
	"fmt"

	"github.com/wonny/betascope/internal/contracts"
)

// Risk tier thresholds; both bounds are inclusive on Moderate
const (
	ConservativeBelow = 0.8
	AggressiveAbove   = 1.2
)

// Classify maps a beta to its risk tier.
// Anything neither below 0.8 nor above 1.2 is Moderate, so the mapping is total.
func Classify(beta float64) contracts.RiskLevel {
	switch {
	case beta < ConservativeBelow:
		return contracts.RiskConservative
	case beta > AggressiveAbove:
		return contracts.RiskAggressive
	default:
		return contracts.RiskModerate
	}
}

// Describe returns the one-line volatility description of a tier
func Describe(level contracts.RiskLevel) string {
	switch level {
	case contracts.RiskConservative:
		return "Lower volatility than market"
	case contracts.RiskModerate:
		return "Similar volatility to market"
	case contracts.RiskAggressive:
		return "Higher volatility than market"
	default:
		return "Beta unavailable"
	}
}

// Sensitivity explains beta as a response to a 1% market move
func Sensitivity(beta float64) string {
	return fmt.Sprintf("For every 1%% market move, portfolio moves %.2f%%", beta)
}

// Recommendations returns the standing advice for a tier
func Recommendations(level contracts.RiskLevel) []string {
	switch level {
	case contracts.RiskConservative:
		return []string{
			"Your portfolio is CONSERVATIVE with lower volatility than the market",
			"Consider adding some growth stocks if you want higher returns",
			"Good for risk-averse investors or those nearing retirement",
		}
	case contracts.RiskModerate:
		return []string{
			"Your portfolio has MODERATE risk with market-like volatility",
			"Well-balanced for most investors",
			"Consider rebalancing if individual stock weights become too concentrated",
		}
	case contracts.RiskAggressive:
		return []string{
			"Your portfolio is AGGRESSIVE with higher volatility than the market",
			"Higher potential returns but also higher risk",
			"Consider adding defensive stocks or bonds to reduce volatility",
		}
	default:
		return nil
	}
}
