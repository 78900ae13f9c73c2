// Package payoff simulates retiring several debts from a fixed monthly budget
// under the snowball and avalanche orderings.
//
// The model is minimum-payment-plus-waterfall: each month interest accrues
// on every open debt, each open debt receives its minimum payment in
// ordering sequence, and whatever budget is left falls through the debts in
// the same sequence. It answers "what would happen if" rather than
// computing a provably optimal schedule.
package payoff

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/datetime"
	"github.com/iwvelando/debt-engine/pkg/loans"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
)

// Ordering selects the sequence in which surplus budget is applied.
type Ordering string

const (
	// Snowball retires the smallest balance first.
	Snowball Ordering = "snowball"
	// Avalanche retires the highest interest rate first.
	Avalanche Ordering = "avalanche"
	// Custom keeps the caller's order.
	Custom Ordering = "custom"
)

// ParseOrdering accepts an ordering name in any case.
func ParseOrdering(value string) (Ordering, error) {
	switch Ordering(strings.ToLower(strings.TrimSpace(value))) {
	case Snowball:
		return Snowball, nil
	case Avalanche:
		return Avalanche, nil
	case Custom:
		return Custom, nil
	default:
		return "", calcerr.Invalid("unknown payoff ordering %q", value)
	}
}

// Debt is one input to a simulation.
type Debt struct {
	Name         string  `json:"name"`
	Balance      float64 `json:"balance"`
	InterestRate float64 `json:"interestRate"` // annual percent
	MinPayment   float64 `json:"minPayment"`
}

// Options tunes a simulation.
type Options struct {
	// MaxMonths caps the simulation; 0 means constants.DefaultMaxPayoffMonths.
	MaxMonths int
	// Start is the date month 0 corresponds to; zero means time.Now().
	Start time.Time
	// Timeline records one MonthRecord per simulated month. Off by default
	// so a simulation allocates nothing per month.
	Timeline bool
}

// DebtResult is the outcome for one debt, listed in the chosen ordering.
type DebtResult struct {
	Name             string    `json:"name"`
	Index            int       `json:"index"` // position in the input
	Order            int       `json:"order"` // 1-based position in the ordering
	Balance          float64   `json:"balance"`
	RemainingBalance float64   `json:"remainingBalance"`
	InterestRate     float64   `json:"interestRate"`
	MinPayment       float64   `json:"minPayment"`
	InterestPaid     float64   `json:"interestPaid"`
	TotalPaid        float64   `json:"totalPaid"`
	PayoffMonth      int       `json:"payoffMonth"` // 0 while unpaid
	PayoffDate       time.Time `json:"payoffDate"`
}

// Paid reports whether the debt was retired during the simulation.
func (d DebtResult) Paid() bool {
	return d.RemainingBalance == 0
}

// MonthRecord summarises one simulated month across all debts.
type MonthRecord struct {
	Month    int       `json:"month"`
	Date     time.Time `json:"date"`
	Interest float64   `json:"interest"`
	Paid     float64   `json:"paid"`
	Balance  float64   `json:"balance"` // total open balance at month end
}

// Strategy is the result of one simulation. It is built fresh per call.
type Strategy struct {
	Ordering       Ordering      `json:"ordering"`
	Debts          []DebtResult  `json:"debts"`
	MonthlyPayment float64       `json:"monthlyPayment"`
	Months         int           `json:"months"`
	PayoffDate     time.Time     `json:"payoffDate"`
	TotalInterest  float64       `json:"totalInterest"`
	TotalPaid      float64       `json:"totalPaid"`
	CapReached     bool          `json:"capReached"`
	Timeline       []MonthRecord `json:"timeline,omitempty"` // only with Options.Timeline
}

// MinimumPayments returns the sum of the minimum payments of the debts.
func MinimumPayments(debts []Debt) float64 {
	total := 0.0
	for _, d := range debts {
		total += d.MinPayment
	}
	return total
}

// Simulate runs the month-by-month payoff of debts from budget in the given
// ordering. When the month cap is hit with balances still open it returns
// the partial strategy together with an error wrapping
// calcerr.ErrSimulationCapReached.
func Simulate(debts []Debt, budget float64, ordering Ordering, opts Options) (*Strategy, error) {
	if err := validate(debts, budget, ordering, opts); err != nil {
		return nil, err
	}

	maxMonths := opts.MaxMonths
	if maxMonths == 0 {
		maxMonths = constants.DefaultMaxPayoffMonths
	}
	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}

	results := orderDebts(debts, ordering)
	balances := make([]float64, len(results))
	retired := make([]bool, len(results))
	open := 0
	for i := range results {
		balances[i] = results[i].Balance
		if balances[i] <= constants.CurrencyTolerance {
			balances[i] = 0
			retired[i] = true
			results[i].PayoffDate = start
			continue
		}
		open++
	}

	strategy := &Strategy{
		Ordering:       ordering,
		MonthlyPayment: budget,
	}

	month := 0
	for open > 0 && month < maxMonths {
		month++
		record := MonthRecord{Month: month, Date: datetime.AddMonths(start, month)}

		for i := range results {
			if retired[i] {
				continue
			}
			interest := loans.CalculateInterestPayment(balances[i], results[i].InterestRate)
			balances[i] += interest
			results[i].InterestPaid += interest
			record.Interest += interest
		}

		remaining := budget
		pay := func(i int, amount float64) {
			amount = mathutil.Min(amount, mathutil.Min(remaining, balances[i]))
			if amount <= 0 {
				return
			}
			balances[i] -= amount
			results[i].TotalPaid += amount
			record.Paid += amount
			remaining -= amount
		}
		for i := range results {
			if !retired[i] {
				pay(i, results[i].MinPayment)
			}
		}
		for i := range results {
			if remaining <= 0 {
				break
			}
			if !retired[i] {
				pay(i, remaining)
			}
		}

		for i := range results {
			if retired[i] {
				continue
			}
			if mathutil.IsPositive(balances[i]) {
				record.Balance += balances[i]
				continue
			}
			balances[i] = 0
			retired[i] = true
			results[i].PayoffMonth = month
			results[i].PayoffDate = record.Date
			open--
		}
		if opts.Timeline {
			strategy.Timeline = append(strategy.Timeline, record)
		}
	}

	strategy.Months = month
	for i := range results {
		results[i].RemainingBalance = mathutil.Round(balances[i])
		results[i].InterestPaid = mathutil.Round(results[i].InterestPaid)
		results[i].TotalPaid = mathutil.Round(results[i].TotalPaid)
		strategy.TotalInterest += results[i].InterestPaid
		strategy.TotalPaid += results[i].TotalPaid
	}
	strategy.TotalInterest = mathutil.Round(strategy.TotalInterest)
	strategy.TotalPaid = mathutil.Round(strategy.TotalPaid)
	strategy.Debts = results
	// On a cap hit this is the month the loop stopped, not a payoff.
	strategy.PayoffDate = datetime.AddMonths(start, month)

	if open > 0 {
		strategy.CapReached = true
		return strategy, fmt.Errorf("%w: %d of %d debts still open after %d months", calcerr.ErrSimulationCapReached, open, len(results), maxMonths)
	}
	return strategy, nil
}

// orderDebts copies debts into result records sorted by the ordering. Ties
// keep input order.
func orderDebts(debts []Debt, ordering Ordering) []DebtResult {
	results := make([]DebtResult, len(debts))
	for i, d := range debts {
		results[i] = DebtResult{
			Name:         d.Name,
			Index:        i,
			Balance:      d.Balance,
			InterestRate: d.InterestRate,
			MinPayment:   d.MinPayment,
		}
	}

	switch ordering {
	case Snowball:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Balance < results[j].Balance
		})
	case Avalanche:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].InterestRate > results[j].InterestRate
		})
	}

	for i := range results {
		results[i].Order = i + 1
	}
	return results
}

func validate(debts []Debt, budget float64, ordering Ordering, opts Options) error {
	if len(debts) == 0 {
		return calcerr.Invalid("at least one debt is required")
	}
	if !mathutil.IsFinite(budget) || budget <= 0 {
		return calcerr.Invalid("monthly budget must be positive, got %.2f", budget)
	}
	if ordering != Snowball && ordering != Avalanche && ordering != Custom {
		return calcerr.Invalid("unknown payoff ordering %q", ordering)
	}
	if opts.MaxMonths < 0 {
		return calcerr.Invalid("max months cannot be negative, got %d", opts.MaxMonths)
	}
	for i, d := range debts {
		label := d.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if !mathutil.IsFinite(d.Balance) || d.Balance < 0 {
			return calcerr.Invalid("debt %s: balance cannot be negative, got %.2f", label, d.Balance)
		}
		if !mathutil.IsFinite(d.InterestRate) || d.InterestRate < 0 {
			return calcerr.Invalid("debt %s: interest rate cannot be negative, got %.2f", label, d.InterestRate)
		}
		if !mathutil.IsFinite(d.MinPayment) || d.MinPayment < 0 {
			return calcerr.Invalid("debt %s: minimum payment cannot be negative, got %.2f", label, d.MinPayment)
		}
	}
	return nil
}
