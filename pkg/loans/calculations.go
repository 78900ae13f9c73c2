// Package loans provides the loan side of the calculation engine: EMI,
// amortization schedules and prepayment impact. Every function is pure; the
// package holds no state between calls.
package loans

import (
	"math"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
)

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateEMI calculates the equal monthly instalment for a loan using the
// reducing-balance formula. The result is not rounded.
func CalculateEMI(principal, annualRatePercent float64, tenureMonths int) (float64, error) {
	if err := validateLoanTerms(principal, annualRatePercent, tenureMonths); err != nil {
		return 0, err
	}

	r := MonthlyRate(annualRatePercent)
	if r == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(tenureMonths), nil
	}

	power := math.Pow(1+r, float64(tenureMonths))
	return principal * r * power / (power - 1), nil
}

// CalculateInterestPayment calculates the interest accruing on a balance over
// one month. This is the accrual primitive shared with payoff simulation.
func CalculateInterestPayment(balance, annualRatePercent float64) float64 {
	return balance * MonthlyRate(annualRatePercent)
}

// TotalInterest returns the interest paid over n instalments of emi against
// the given principal.
func TotalInterest(emi float64, tenureMonths int, principal float64) float64 {
	return emi*float64(tenureMonths) - principal
}

func validateLoanTerms(principal, annualRatePercent float64, tenureMonths int) error {
	if !mathutil.IsFinite(principal) || !mathutil.IsFinite(annualRatePercent) {
		return calcerr.Invalid("principal and rate must be finite numbers")
	}
	if principal <= 0 {
		return calcerr.Invalid("principal must be positive, got %.2f", principal)
	}
	if tenureMonths <= 0 {
		return calcerr.Invalid("tenure must be at least one month, got %d", tenureMonths)
	}
	if annualRatePercent < 0 {
		return calcerr.Invalid("annual rate cannot be negative, got %.4f", annualRatePercent)
	}
	return nil
}
