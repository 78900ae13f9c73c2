// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/datetime"
	"github.com/iwvelando/debt-engine/pkg/dti"
	"github.com/iwvelando/debt-engine/pkg/format"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
)

// ValidateLoanMaturity warns when a loan still carries a balance although its
// term ended on or before asOf.
func ValidateLoanMaturity(loanName, startDate, asOf string, termMonths int, outstanding float64) (string, error) {
	if !mathutil.IsPositive(outstanding) {
		return "", nil
	}
	start, err := datetime.ParseDate(startDate)
	if err != nil {
		return "", err
	}
	asOfT, err := datetime.ParseDate(asOf)
	if err != nil {
		return "", err
	}

	maturity := datetime.AddMonths(start, termMonths)
	if maturity.After(asOfT) {
		return "", nil
	}
	return fmt.Sprintf("Loan '%s' matured on %s but still has %s outstanding",
		loanName, maturity.Format(datetime.DateLayout), format.Indian(outstanding)), nil
}

// ValidateUtilization warns when a card is above the high utilization level.
func ValidateUtilization(cardName string, outstanding, limit float64) string {
	if limit <= 0 {
		return fmt.Sprintf("Credit card '%s' has no credit limit; utilization cannot be computed", cardName)
	}
	utilization := mathutil.CalculatePercentage(outstanding, limit)
	if utilization <= constants.HighUtilizationPercent {
		return ""
	}
	return fmt.Sprintf("Credit card '%s' utilization is %.1f%% (above %.0f%%)",
		cardName, utilization, constants.HighUtilizationPercent)
}

// ValidateBudget warns when the payoff budget cannot cover every minimum payment.
func ValidateBudget(budget, minimums float64) string {
	if budget <= 0 || budget >= minimums {
		return ""
	}
	return fmt.Sprintf("Monthly payoff budget %s is below the total minimum payments %s",
		format.Indian(budget), format.Indian(minimums))
}

// ValidateDTI warns when the debt-to-income ratio falls into the high band.
func ValidateDTI(ratio float64) string {
	band := dti.Classify(ratio)
	if band.Severity != dti.SeverityHigh {
		return ""
	}
	return fmt.Sprintf("Debt-to-income ratio is %.1f%% (%s)", ratio, band.Label)
}

// PortfolioValidator checks a whole portfolio for conditions worth warning about.
type PortfolioValidator struct {
	AsOf          string
	MonthlyIncome float64
	MonthlyBudget float64
	Loans         []LoanConfig
	Cards         []CardConfig
}

// LoanConfig is the subset of a loan the validator looks at.
type LoanConfig struct {
	Name        string
	StartDate   string
	Term        int
	Outstanding float64
	EMI         float64
}

// CardConfig is the subset of a credit card the validator looks at.
type CardConfig struct {
	Name        string
	Outstanding float64
	Limit       float64
	MinimumDue  float64
}

// ValidateAll validates the entire portfolio and returns warnings
func (pv *PortfolioValidator) ValidateAll() []string {
	var warnings []string
	obligations := 0.0

	for _, loan := range pv.Loans {
		if pv.AsOf != "" && loan.StartDate != "" {
			warning, err := ValidateLoanMaturity(loan.Name, loan.StartDate, pv.AsOf, loan.Term, loan.Outstanding)
			if err == nil && warning != "" {
				warnings = append(warnings, warning)
			}
		}
		if mathutil.IsPositive(loan.Outstanding) {
			obligations += loan.EMI
		}
	}

	for _, card := range pv.Cards {
		if warning := ValidateUtilization(card.Name, card.Outstanding, card.Limit); warning != "" {
			warnings = append(warnings, warning)
		}
		obligations += card.MinimumDue
	}

	if warning := ValidateBudget(pv.MonthlyBudget, obligations); warning != "" {
		warnings = append(warnings, warning)
	}

	if pv.MonthlyIncome > 0 {
		if warning := ValidateDTI(dti.Ratio(obligations, pv.MonthlyIncome)); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	return warnings
}
