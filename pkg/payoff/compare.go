package payoff

import (
	"errors"
	"time"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
)

// Comparison sets the snowball and avalanche outcomes of the same debts side
// by side.
type Comparison struct {
	Snowball    *Strategy `json:"snowball"`
	Avalanche   *Strategy `json:"avalanche"`
	Recommended Ordering  `json:"recommended"`
	// InterestSaved and MonthsSaved are what avalanche saves over snowball;
	// negative when snowball comes out ahead.
	InterestSaved float64 `json:"interestSaved"`
	MonthsSaved   int     `json:"monthsSaved"`
}

// Compare simulates both orderings with the same budget and options. When
// either simulation hits the month cap the comparison is still returned,
// alongside an error wrapping calcerr.ErrSimulationCapReached.
func Compare(debts []Debt, budget float64, opts Options) (*Comparison, error) {
	if opts.Start.IsZero() {
		opts.Start = time.Now()
	}

	snowball, snowballErr := Simulate(debts, budget, Snowball, opts)
	if snowballErr != nil && !errors.Is(snowballErr, calcerr.ErrSimulationCapReached) {
		return nil, snowballErr
	}
	avalanche, avalancheErr := Simulate(debts, budget, Avalanche, opts)
	if avalancheErr != nil && !errors.Is(avalancheErr, calcerr.ErrSimulationCapReached) {
		return nil, avalancheErr
	}

	comparison := &Comparison{
		Snowball:      snowball,
		Avalanche:     avalanche,
		InterestSaved: mathutil.Round(snowball.TotalInterest - avalanche.TotalInterest),
		MonthsSaved:   snowball.Months - avalanche.Months,
		Recommended:   Snowball,
	}
	// Ties go to snowball.
	if comparison.InterestSaved > constants.CurrencyTolerance || comparison.MonthsSaved > 0 {
		comparison.Recommended = Avalanche
	}
	if avalanche.CapReached && !snowball.CapReached {
		comparison.Recommended = Snowball
	}

	return comparison, errors.Join(snowballErr, avalancheErr)
}
