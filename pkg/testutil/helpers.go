// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/debt-engine/internal/analysis"
	"github.com/iwvelando/debt-engine/internal/config"
	"github.com/iwvelando/debt-engine/pkg/payoff"
)

// FindLoan finds a loan by name in the analysis results.
// Returns a pointer to the loan if found, nil otherwise.
func FindLoan(results []analysis.LoanAnalysis, name string) *analysis.LoanAnalysis {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// FindCard finds a credit card by name in the analysis results.
func FindCard(results []analysis.CardAnalysis, name string) *analysis.CardAnalysis {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// FindDebt finds a debt by name in a payoff strategy.
func FindDebt(strategy *payoff.Strategy, name string) *payoff.DebtResult {
	if strategy == nil {
		return nil
	}
	for i := range strategy.Debts {
		if strategy.Debts[i].Name == name {
			return &strategy.Debts[i]
		}
	}
	return nil
}

// SamplePortfolio returns a small portfolio with one loan, one credit card and
// a payoff budget, pinned to 2025-06-01.
func SamplePortfolio() config.Configuration {
	outstanding := 60000.0
	return config.Configuration{
		AsOf:   "2025-06-01",
		Income: config.Income{Monthly: 50000},
		Loans: []config.Loan{
			{
				Name:                 "Car",
				Principal:            100000,
				OutstandingPrincipal: &outstanding,
				InterestRate:         10,
				Term:                 60,
				StartDate:            "2023-06-01",
				Prepayments:          []config.Prepayment{{Amount: 10000, Mode: "reduce_tenure"}},
			},
		},
		CreditCards: []config.CreditCard{
			{Name: "Rewards", CreditLimit: 100000, Outstanding: 45000, APR: 42},
		},
		Payoff: config.PayoffConfig{MonthlyBudget: 10000, Strategy: "compare"},
	}
}
