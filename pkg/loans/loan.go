package loans

import (
	"fmt"
	"time"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/datetime"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
)

// Loan is a validated snapshot of a loan record supplied by the caller.
type Loan struct {
	Name                      string
	Principal                 float64
	OutstandingPrincipal      float64
	AnnualInterestRatePercent float64
	TenureMonths              int
	EMIAmount                 float64 // 0 means derive it from the other terms
	EMIDueDay                 int
	StartDate                 time.Time
	EndDate                   time.Time
}

// NewLoan validates a loan record and fills the derived fields: an unset due
// day defaults to the start day and an unset end date to start plus tenure.
func NewLoan(loan Loan) (Loan, error) {
	if loan.EMIDueDay == 0 && !loan.StartDate.IsZero() {
		loan.EMIDueDay = loan.StartDate.Day()
	}
	if loan.EndDate.IsZero() && !loan.StartDate.IsZero() {
		loan.EndDate = datetime.AddMonths(loan.StartDate, loan.TenureMonths)
	}
	if err := loan.Validate(); err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// Validate checks every field of the record.
func (l Loan) Validate() error {
	label := l.label()
	if err := validateLoanTerms(l.Principal, l.AnnualInterestRatePercent, l.TenureMonths); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if !mathutil.IsFinite(l.OutstandingPrincipal) || l.OutstandingPrincipal < 0 {
		return calcerr.Invalid("%s: outstanding principal cannot be negative", label)
	}
	if l.OutstandingPrincipal > l.Principal+constants.CurrencyTolerance {
		return calcerr.Invalid("%s: outstanding principal %.2f exceeds principal %.2f", label, l.OutstandingPrincipal, l.Principal)
	}
	if !mathutil.IsFinite(l.EMIAmount) || l.EMIAmount < 0 {
		return calcerr.Invalid("%s: stored EMI cannot be negative", label)
	}
	if l.EMIDueDay < 1 || l.EMIDueDay > 31 {
		return calcerr.Invalid("%s: EMI due day must be between 1 and 31, got %d", label, l.EMIDueDay)
	}
	if l.StartDate.IsZero() {
		return calcerr.Invalid("%s: start date is required", label)
	}
	if !l.EndDate.IsZero() && l.EndDate.Before(l.StartDate) {
		return calcerr.Invalid("%s: end date precedes start date", label)
	}
	return nil
}

// EMI returns the stored instalment, or the closed-form one when none is stored.
func (l Loan) EMI() (float64, error) {
	if l.EMIAmount > 0 {
		return l.EMIAmount, nil
	}
	return CalculateEMI(l.Principal, l.AnnualInterestRatePercent, l.TenureMonths)
}

// MonthlyInterest returns the interest accruing on the outstanding principal
// over one month.
func (l Loan) MonthlyInterest() float64 {
	return CalculateInterestPayment(l.OutstandingPrincipal, l.AnnualInterestRatePercent)
}

// Schedule builds the full schedule of the loan from disbursal, dated on the
// EMI due day. A stored EMI that cannot amortize the principal fails with
// calcerr.ErrNonAmortizingLoan.
func (l Loan) Schedule() (*Schedule, error) {
	emi, err := l.EMI()
	if err != nil {
		return nil, err
	}
	return newSchedule(l.Principal, l.AnnualInterestRatePercent, l.TenureMonths, emi, l.StartDate, l.EMIDueDay)
}

// RemainingTenure returns the instalments left as of asOf, never below one
// while principal is outstanding.
func (l Loan) RemainingTenure(asOf time.Time) int {
	remaining := l.TenureMonths - datetime.MonthsBetween(l.StartDate, asOf)
	if remaining > l.TenureMonths {
		remaining = l.TenureMonths
	}
	if remaining < 1 && l.OutstandingPrincipal > constants.CurrencyTolerance {
		remaining = 1
	}
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (l Loan) label() string {
	if l.Name == "" {
		return "loan"
	}
	return "loan " + l.Name
}
