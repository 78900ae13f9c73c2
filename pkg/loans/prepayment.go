package loans

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
)

// PrepaymentMode selects what a lump-sum prepayment shortens.
type PrepaymentMode string

const (
	// ReduceEMI keeps the remaining tenure and lowers the instalment.
	ReduceEMI PrepaymentMode = "reduce_emi"
	// ReduceTenure keeps the instalment and retires the loan sooner.
	ReduceTenure PrepaymentMode = "reduce_tenure"
)

// ParsePrepaymentMode accepts the canonical names plus common spellings
// ("emi", "tenure", "reduce-emi", "reduceTenure").
func ParsePrepaymentMode(value string) (PrepaymentMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)
	switch normalized {
	case "reduceemi", "emi":
		return ReduceEMI, nil
	case "reducetenure", "tenure", "":
		return ReduceTenure, nil
	default:
		return "", calcerr.Invalid("unknown prepayment mode %q", value)
	}
}

// PrepaymentResult describes the effect of a prepayment on the remaining plan.
// InterestSaved compares emi*n - balance before and after, so under
// ReduceTenure a prepayment too small to remove a whole instalment reports a
// negative saving: the shortened plan is still charged a full final EMI.
type PrepaymentResult struct {
	Mode                 PrepaymentMode `json:"mode"`
	Prepayment           float64        `json:"prepayment"`
	NewBalance           float64        `json:"newBalance"`
	CurrentEMI           float64        `json:"currentEmi"`
	NewEMI               float64        `json:"newEmi"`
	OriginalTenureMonths int            `json:"originalTenureMonths"`
	NewTenureMonths      int            `json:"newTenureMonths"`
	MonthsSaved          int            `json:"monthsSaved"`
	InterestSaved        float64        `json:"interestSaved"`
}

// PrepaymentImpact recomputes the remaining plan of a loan after a lump-sum
// prepayment. The instalment is always the unrounded closed-form EMI of the
// current balance, so ReduceTenure never drifts on a rounded stored value.
func PrepaymentImpact(currentBalance, annualRatePercent float64, remainingTenureMonths int, prepayment float64, mode PrepaymentMode) (PrepaymentResult, error) {
	currentEMI, err := CalculateEMI(currentBalance, annualRatePercent, remainingTenureMonths)
	if err != nil {
		return PrepaymentResult{}, err
	}
	if !mathutil.IsFinite(prepayment) || prepayment < 0 {
		return PrepaymentResult{}, calcerr.Invalid("prepayment cannot be negative, got %.2f", prepayment)
	}
	if prepayment > currentBalance && !mathutil.WithinTolerance(prepayment, currentBalance, constants.CurrencyTolerance) {
		return PrepaymentResult{}, calcerr.Invalid("prepayment %.2f exceeds outstanding balance %.2f", prepayment, currentBalance)
	}
	if mode != ReduceEMI && mode != ReduceTenure {
		return PrepaymentResult{}, calcerr.Invalid("unknown prepayment mode %q", mode)
	}

	result := PrepaymentResult{
		Mode:                 mode,
		Prepayment:           prepayment,
		CurrentEMI:           currentEMI,
		OriginalTenureMonths: remainingTenureMonths,
	}
	originalInterest := TotalInterest(currentEMI, remainingTenureMonths, currentBalance)

	newBalance := currentBalance - prepayment
	if mathutil.IsZero(newBalance) {
		// The prepayment retires the loan outright.
		result.MonthsSaved = remainingTenureMonths
		result.InterestSaved = mathutil.Round(originalInterest)
		return result, nil
	}
	result.NewBalance = newBalance

	switch mode {
	case ReduceEMI:
		newEMI, err := CalculateEMI(newBalance, annualRatePercent, remainingTenureMonths)
		if err != nil {
			return PrepaymentResult{}, err
		}
		result.NewEMI = newEMI
		result.NewTenureMonths = remainingTenureMonths
		result.InterestSaved = mathutil.Round(originalInterest - TotalInterest(newEMI, remainingTenureMonths, newBalance))

	case ReduceTenure:
		newTenure, err := TenureForPayment(newBalance, annualRatePercent, currentEMI)
		if err != nil {
			return PrepaymentResult{}, err
		}
		if newTenure > remainingTenureMonths {
			newTenure = remainingTenureMonths
		}
		result.NewEMI = currentEMI
		result.NewTenureMonths = newTenure
		result.MonthsSaved = remainingTenureMonths - newTenure
		result.InterestSaved = mathutil.Round(originalInterest - TotalInterest(currentEMI, newTenure, newBalance))
	}

	return result, nil
}

// TenureForPayment solves the EMI formula for the number of instalments of
// emi needed to retire balance. It fails with calcerr.ErrNonAmortizingLoan
// when emi does not exceed the monthly interest on balance.
func TenureForPayment(balance, annualRatePercent, emi float64) (int, error) {
	if !mathutil.IsFinite(balance) || balance <= 0 {
		return 0, calcerr.Invalid("balance must be positive, got %.2f", balance)
	}
	if !mathutil.IsFinite(emi) || emi <= 0 {
		return 0, calcerr.Invalid("instalment must be positive, got %.2f", emi)
	}
	if annualRatePercent < 0 {
		return 0, calcerr.Invalid("annual rate cannot be negative, got %.4f", annualRatePercent)
	}

	r := MonthlyRate(annualRatePercent)
	if r == 0 {
		return int(math.Ceil(balance/emi - constants.TenureEpsilon)), nil
	}

	interest := balance * r
	if emi <= interest {
		return 0, calcerr.NonAmortizing(emi, interest)
	}
	n := math.Log(emi/(emi-interest)) / math.Log(1+r)
	return int(math.Ceil(n - constants.TenureEpsilon)), nil
}

// String implements fmt.Stringer.
func (m PrepaymentMode) String() string {
	return string(m)
}

// Describe renders a one-line human summary of the result.
func (r PrepaymentResult) Describe() string {
	if r.NewTenureMonths == 0 {
		return fmt.Sprintf("prepaying %.2f closes the loan, saving %.2f interest", r.Prepayment, r.InterestSaved)
	}
	if r.Mode == ReduceEMI {
		return fmt.Sprintf("instalment falls from %.2f to %.2f, saving %.2f interest", r.CurrentEMI, r.NewEMI, r.InterestSaved)
	}
	return fmt.Sprintf("tenure falls from %d to %d months, saving %.2f interest", r.OriginalTenureMonths, r.NewTenureMonths, r.InterestSaved)
}
