// Package optimizer searches for the smallest monthly budget that retires a
// set of debts within a target number of months.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/format"
	"github.com/iwvelando/debt-engine/pkg/loans"
	"github.com/iwvelando/debt-engine/pkg/optimization"
	"github.com/iwvelando/debt-engine/pkg/payoff"
	"go.uber.org/zap"
)

// Config tunes the bisection.
type Config struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultConfig returns the bisection settings used by MinimumBudget.
func DefaultConfig() Config {
	return Config{
		MaxIterations: constants.DefaultOptimizerMaxIterations,
		Tolerance:     constants.DefaultOptimizerTolerance,
	}
}

// Runner bisects payoff budgets.
type Runner struct {
	logger *zap.Logger
	cfg    Config
}

type evaluation struct {
	value  float64
	months int
	capped bool
	target int
}

func (e evaluation) feasible() bool {
	return !e.capped && e.months <= e.target
}

// NewRunner constructs a Runner. Non-positive settings fall back to
// DefaultConfig.
func NewRunner(logger *zap.Logger, cfg Config) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaults.Tolerance
	}
	return &Runner{logger: logger, cfg: cfg}
}

// MinimumBudget finds the smallest budget, to the default tolerance, that
// retires every debt within targetMonths under ordering. current is the
// budget the caller has today and is only reported back.
func MinimumBudget(logger *zap.Logger, debts []payoff.Debt, ordering payoff.Ordering, targetMonths int, current float64, opts payoff.Options) (optimization.Summary, error) {
	return NewRunner(logger, DefaultConfig()).MinimumBudget(debts, ordering, targetMonths, current, opts)
}

// MinimumBudget bisects between the sum of the minimum payments and a budget
// that clears everything in one month.
func (r *Runner) MinimumBudget(debts []payoff.Debt, ordering payoff.Ordering, targetMonths int, current float64, opts payoff.Options) (optimization.Summary, error) {
	if targetMonths <= 0 {
		return optimization.Summary{}, calcerr.Invalid("target months must be positive, got %d", targetMonths)
	}
	if opts.MaxMonths > 0 && targetMonths > opts.MaxMonths {
		return optimization.Summary{}, calcerr.Invalid("target months %d exceeds the simulation cap of %d", targetMonths, opts.MaxMonths)
	}

	floor := math.Max(math.Ceil(payoff.MinimumPayments(debts)), 1)
	ceiling := oneMonthBudget(debts)
	if ceiling < floor {
		ceiling = floor
	}

	summary := optimization.Summary{
		Scope:        "portfolio",
		TargetName:   string(ordering),
		Field:        "monthlyBudget",
		Original:     current,
		Floor:        floor,
		Ceiling:      ceiling,
		TargetMonths: targetMonths,
	}
	if current > 0 {
		summary.OriginalDisplay = format.Currency(current)
	}

	lowerEval, err := r.evaluate(debts, ordering, floor, targetMonths, opts)
	if err != nil {
		return optimization.Summary{}, err
	}
	if lowerEval.feasible() {
		return r.finish(summary, lowerEval, true), nil
	}

	upperEval, err := r.evaluate(debts, ordering, ceiling, targetMonths, opts)
	if err != nil {
		return optimization.Summary{}, err
	}
	if !upperEval.feasible() {
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"unable to retire all debts within %d months for budgets between %s and %s",
			targetMonths, format.Currency(floor), format.Currency(ceiling)))
		return r.finish(summary, upperEval, false), nil
	}

	lower, upper := floor, ceiling
	for summary.Iterations < r.cfg.MaxIterations && upper-lower > r.cfg.Tolerance {
		mid := math.Floor(lower + (upper-lower)/2)
		if mid <= lower || mid >= upper {
			mid = lower + (upper-lower)/2
		}
		evalMid, err := r.evaluate(debts, ordering, mid, targetMonths, opts)
		if err != nil {
			return optimization.Summary{}, err
		}
		summary.Iterations++
		if evalMid.feasible() {
			upperEval = evalMid
			upper = mid
		} else {
			lower = mid
		}
	}

	converged := upper-lower <= r.cfg.Tolerance
	if !converged {
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"stopped after %d iterations with the budget between %s and %s",
			summary.Iterations, format.Currency(lower), format.Currency(upper)))
	}
	return r.finish(summary, upperEval, converged), nil
}

func (r *Runner) finish(summary optimization.Summary, eval evaluation, converged bool) optimization.Summary {
	summary.Value = eval.value
	summary.ValueDisplay = format.Currency(eval.value)
	summary.Months = eval.months
	summary.Headroom = eval.target - eval.months
	summary.Converged = converged && eval.feasible()

	r.logger.Info("optimizer computed minimum payoff budget",
		zap.String("op", "optimizer.MinimumBudget"),
		zap.String("ordering", summary.TargetName),
		zap.Int("targetMonths", summary.TargetMonths),
		zap.Float64("original", summary.Original),
		zap.Float64("optimized", summary.Value),
		zap.Float64("floor", summary.Floor),
		zap.Float64("ceiling", summary.Ceiling),
		zap.Int("months", summary.Months),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary
}

func (r *Runner) evaluate(debts []payoff.Debt, ordering payoff.Ordering, budget float64, target int, opts payoff.Options) (evaluation, error) {
	strategy, err := payoff.Simulate(debts, budget, ordering, opts)
	if err != nil && !errors.Is(err, calcerr.ErrSimulationCapReached) {
		return evaluation{}, err
	}
	r.logger.Debug("optimizer evaluated budget",
		zap.String("op", "optimizer.evaluate"),
		zap.Float64("budget", budget),
		zap.Int("months", strategy.Months),
		zap.Bool("capReached", strategy.CapReached),
	)
	return evaluation{
		value:  budget,
		months: strategy.Months,
		capped: strategy.CapReached,
		target: target,
	}, nil
}

// oneMonthBudget is a whole-unit budget that covers every balance plus the
// interest it accrues before the first payment.
func oneMonthBudget(debts []payoff.Debt) float64 {
	total := 0.0
	for _, d := range debts {
		total += d.Balance + loans.CalculateInterestPayment(d.Balance, d.InterestRate)
	}
	return math.Ceil(total) + 1
}
