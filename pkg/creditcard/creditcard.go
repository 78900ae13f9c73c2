// Package creditcard computes the statement metrics of a revolving credit
// line: utilization, minimum amount due and the interest charged over a
// billing period.
package creditcard

import (
	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
)

// CreditCard is a validated snapshot of a card account.
type CreditCard struct {
	Name               string
	CreditLimit        float64
	CurrentOutstanding float64 // may exceed the limit transiently
	InterestRateAPR    float64
	BillingCycleDate   int
	PaymentDueDate     int
	MinimumDuePercent  float64 // 0 means constants.DefaultMinimumDuePercent
}

// NewCreditCard validates a card record and applies the default minimum due
// percentage.
func NewCreditCard(card CreditCard) (CreditCard, error) {
	if card.MinimumDuePercent == 0 {
		card.MinimumDuePercent = constants.DefaultMinimumDuePercent
	}
	if err := card.Validate(); err != nil {
		return CreditCard{}, err
	}
	return card, nil
}

// Validate checks every field of the record.
func (c CreditCard) Validate() error {
	label := "credit card"
	if c.Name != "" {
		label += " " + c.Name
	}

	if !mathutil.IsFinite(c.CreditLimit) || c.CreditLimit <= 0 {
		return calcerr.Invalid("%s: credit limit must be positive, got %.2f", label, c.CreditLimit)
	}
	if !mathutil.IsFinite(c.CurrentOutstanding) || c.CurrentOutstanding < 0 {
		return calcerr.Invalid("%s: outstanding cannot be negative, got %.2f", label, c.CurrentOutstanding)
	}
	if !mathutil.IsFinite(c.InterestRateAPR) || c.InterestRateAPR < 0 {
		return calcerr.Invalid("%s: APR cannot be negative, got %.2f", label, c.InterestRateAPR)
	}
	if c.BillingCycleDate != 0 && (c.BillingCycleDate < 1 || c.BillingCycleDate > 31) {
		return calcerr.Invalid("%s: billing cycle date must be between 1 and 31, got %d", label, c.BillingCycleDate)
	}
	if c.PaymentDueDate != 0 && (c.PaymentDueDate < 1 || c.PaymentDueDate > 31) {
		return calcerr.Invalid("%s: payment due date must be between 1 and 31, got %d", label, c.PaymentDueDate)
	}
	if !mathutil.IsFinite(c.MinimumDuePercent) || c.MinimumDuePercent < 0 || c.MinimumDuePercent > constants.PercentageMultiplier {
		return calcerr.Invalid("%s: minimum due percent must be between 0 and 100, got %.2f", label, c.MinimumDuePercent)
	}
	return nil
}

// AvailableLimit is the unused part of the limit. It goes negative when the
// card is over its limit.
func (c CreditCard) AvailableLimit() float64 {
	return c.CreditLimit - c.CurrentOutstanding
}

// Utilization returns the outstanding as a percentage of the limit.
func (c CreditCard) Utilization() float64 {
	return Utilization(c.CurrentOutstanding, c.CreditLimit)
}

// MinimumDue returns the minimum payment of the current statement.
func (c CreditCard) MinimumDue() float64 {
	percent := c.MinimumDuePercent
	if percent == 0 {
		percent = constants.DefaultMinimumDuePercent
	}
	return MinimumDue(c.CurrentOutstanding, percent, constants.DefaultMinimumDueFloor)
}

// PeriodicInterest returns the interest charged on the current outstanding
// over the given number of days.
func (c CreditCard) PeriodicInterest(days int) float64 {
	return PeriodicInterest(c.CurrentOutstanding, c.InterestRateAPR, days)
}

// HighUtilization reports whether the card is above the utilization level
// that starts to hurt a credit score.
func (c CreditCard) HighUtilization() bool {
	return c.Utilization() > constants.HighUtilizationPercent
}

// Utilization returns outstanding / limit as a percentage. A non-positive
// limit yields 0 instead of a division by zero.
func Utilization(outstanding, limit float64) float64 {
	if limit < 0 {
		return 0
	}
	return mathutil.CalculatePercentage(outstanding, limit)
}

// MinimumDue returns the larger of minPercent of the outstanding and floor.
// The floor holds even when it exceeds a small outstanding. Nothing is due on
// a zero balance.
func MinimumDue(outstanding, minPercent, floor float64) float64 {
	if outstanding <= 0 {
		return 0
	}
	return mathutil.Max(mathutil.ApplyPercentage(outstanding, minPercent), floor)
}

// DefaultMinimumDue applies the usual 5% rule with a floor of 200.
func DefaultMinimumDue(outstanding float64) float64 {
	return MinimumDue(outstanding, constants.DefaultMinimumDuePercent, constants.DefaultMinimumDueFloor)
}

// PeriodicInterest returns the flat daily-rate interest on outstanding over
// days, rounded to whole units. Non-positive days default to a 30-day cycle.
func PeriodicInterest(outstanding, aprPercent float64, days int) float64 {
	if days <= 0 {
		days = constants.DaysPerMonth
	}
	if outstanding <= 0 || aprPercent <= 0 {
		return 0
	}
	dailyRate := aprPercent / constants.DaysPerYear / constants.PercentageMultiplier
	return mathutil.RoundUnits(outstanding * dailyRate * float64(days))
}
