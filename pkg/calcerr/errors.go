// Package calcerr defines the error taxonomy shared by the calculation
// packages. Every error returned by the engine wraps exactly one of the
// sentinels below, so callers branch with errors.Is.
package calcerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a non-positive principal or tenure, a negative
	// rate, a prepayment exceeding the balance, or a malformed record.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNonAmortizingLoan reports an instalment that does not cover the
	// interest accruing on the balance, so the balance would never fall.
	ErrNonAmortizingLoan = errors.New("non-amortizing loan")

	// ErrSimulationCapReached reports a payoff simulation that hit its month
	// cap with balances still open. The accompanying result is partial but valid.
	ErrSimulationCapReached = errors.New("simulation cap reached")
)

// Invalid returns an ErrInvalidInput carrying a formatted reason.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NonAmortizing returns an ErrNonAmortizingLoan carrying the offending amounts.
func NonAmortizing(payment, interest float64) error {
	return fmt.Errorf("%w: instalment %.2f does not exceed monthly interest %.2f", ErrNonAmortizingLoan, payment, interest)
}
