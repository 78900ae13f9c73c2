// Package output provides utilities for formatting and displaying portfolio
// analysis results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/iwvelando/debt-engine/internal/analysis"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/format"
	"github.com/iwvelando/debt-engine/pkg/payoff"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(result *analysis.Analysis) {
	p := message.NewPrinter(language.English)

	fmt.Printf("--- Debt portfolio as of %s ---\n", result.AsOf.Format(constants.DateLayout))

	if len(result.Loans) > 0 {
		fmt.Printf("\nLoans\n")
		fmt.Printf("Name | Outstanding | Rate | EMI | Remaining | Total interest\n")
		fmt.Printf("____ | ___________ | ____ | ___ | _________ | ______________\n")
		for _, loan := range result.Loans {
			_, _ = p.Printf("%s | %s | %.2f%% | %s | %d months | %s\n",
				loan.Name, format.Currency(loan.Outstanding), loan.InterestRate,
				format.Currency(loan.EMI), loan.RemainingTenure, format.Currency(loan.Summary.TotalInterest))
			for _, prepayment := range loan.Prepayments {
				fmt.Printf("  prepay %s (%s): %s\n", format.Currency(prepayment.Prepayment), prepayment.Mode, prepayment.Describe())
			}
		}
	}

	if len(result.CreditCards) > 0 {
		fmt.Printf("\nCredit cards\n")
		fmt.Printf("Name | Outstanding | Limit | Utilization | Minimum due | Monthly interest\n")
		fmt.Printf("____ | ___________ | _____ | ___________ | ___________ | ________________\n")
		for _, card := range result.CreditCards {
			flag := ""
			if card.HighUtilization {
				flag = " (high)"
			}
			_, _ = p.Printf("%s | %s | %s | %.1f%%%s | %s | %s\n",
				card.Name, format.Currency(card.Outstanding), format.Currency(card.CreditLimit),
				card.Utilization, flag, format.Currency(card.MinimumDue), format.Currency(card.MonthlyInterest))
		}
	}

	fmt.Printf("\nTotal outstanding: %s (%s)\n", format.Currency(result.TotalOutstanding), format.Compact(result.TotalOutstanding))
	fmt.Printf("Monthly obligations: %s\n", format.Currency(result.MonthlyObligations))
	if result.MonthlyIncome > 0 {
		_, _ = p.Printf("Debt-to-income: %.1f%% (%s)\n", result.DTI, result.DTIBand.Label)
	}

	if result.Payoff != nil {
		fmt.Printf("\nPayoff with a monthly budget of %s\n", format.Currency(result.Payoff.Budget))
		if result.Payoff.Strategy != nil {
			printStrategy(p, result.Payoff.Strategy)
		}
		if c := result.Payoff.Comparison; c != nil {
			printStrategy(p, c.Snowball)
			printStrategy(p, c.Avalanche)
			_, _ = p.Printf("Avalanche saves %s in interest and %d months; recommended: %s\n",
				format.Currency(c.InterestSaved), c.MonthsSaved, c.Recommended)
		}
	}

	if s := result.Optimization; s != nil {
		fmt.Printf("\nMinimum budget to be debt-free within %d months (%s): %s", s.TargetMonths, s.TargetName, s.ValueDisplay)
		if s.OriginalDisplay != "" {
			fmt.Printf(" (current %s)", s.OriginalDisplay)
		}
		_, _ = p.Printf(" after %d iterations, converged: %t\n", s.Iterations, s.Converged)
		for _, note := range s.Notes {
			fmt.Printf("  note: %s\n", note)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings\n")
		for _, warning := range result.Warnings {
			fmt.Printf("- %s\n", warning)
		}
	}
}

func printStrategy(p *message.Printer, strategy *payoff.Strategy) {
	if strategy == nil {
		return
	}
	status := "debt-free " + strategy.PayoffDate.Format(constants.MonthLayout)
	if strategy.CapReached {
		status = "not debt-free within the cap"
	}
	_, _ = p.Printf("%s: %d months, interest %s, %s\n",
		strategy.Ordering, strategy.Months, format.Currency(strategy.TotalInterest), status)
	for _, debt := range strategy.Debts {
		if debt.Paid() {
			_, _ = p.Printf("  %d. %s paid off in month %d (%s)\n",
				debt.Order, debt.Name, debt.PayoffMonth, debt.PayoffDate.Format(constants.MonthLayout))
			continue
		}
		fmt.Printf("  %d. %s still owes %s\n", debt.Order, debt.Name, format.Currency(debt.RemainingBalance))
	}
}

// CsvFormat outputs one row per debt in comma-separated value format.
func CsvFormat(result *analysis.Analysis) error {
	w := csv.NewWriter(os.Stdout)
	_ = w.Write([]string{"type", "name", "outstanding", "interest_rate", "monthly_payment", "remaining_months", "utilization", "payoff_month"})

	payoffMonths := payoffMonthsByName(result)
	for _, loan := range result.Loans {
		_ = w.Write([]string{
			"loan",
			loan.Name,
			money(loan.Outstanding),
			money(loan.InterestRate),
			money(loan.EMI),
			strconv.Itoa(loan.RemainingTenure),
			"",
			payoffMonths[loan.Name],
		})
	}
	for _, card := range result.CreditCards {
		_ = w.Write([]string{
			"credit_card",
			card.Name,
			money(card.Outstanding),
			"",
			money(card.MinimumDue),
			"",
			money(card.Utilization),
			payoffMonths[card.Name],
		})
	}

	w.Flush()
	return w.Error()
}

// payoffMonthsByName returns the payoff month of each debt under the
// configured (or recommended) ordering.
func payoffMonthsByName(result *analysis.Analysis) map[string]string {
	months := make(map[string]string)
	if result.Payoff == nil {
		return months
	}
	strategy := result.Payoff.Strategy
	if c := result.Payoff.Comparison; c != nil {
		strategy = c.Snowball
		if c.Recommended == payoff.Avalanche {
			strategy = c.Avalanche
		}
	}
	if strategy == nil {
		return months
	}
	for _, debt := range strategy.Debts {
		if debt.Paid() {
			months[debt.Name] = strconv.Itoa(debt.PayoffMonth)
		}
	}
	return months
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// JSONFormat outputs the analysis as indented JSON.
func JSONFormat(result *analysis.Analysis) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
