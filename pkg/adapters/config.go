// Package adapters turns loans and credit cards into the debts a payoff
// simulation works on.
package adapters

import (
	"fmt"

	"github.com/iwvelando/debt-engine/pkg/creditcard"
	"github.com/iwvelando/debt-engine/pkg/loans"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
	"github.com/iwvelando/debt-engine/pkg/payoff"
)

// DebtSource is anything that can take part in a payoff simulation.
type DebtSource interface {
	GetName() string
	GetBalance() float64
	GetInterestRate() float64
	GetMinPayment() (float64, error)
}

// LoanAdapter wraps loans.Loan to implement DebtSource
type LoanAdapter struct {
	Loan loans.Loan
}

// GetName returns the loan name
func (w LoanAdapter) GetName() string {
	return w.Loan.Name
}

// GetBalance returns the outstanding principal
func (w LoanAdapter) GetBalance() float64 {
	return w.Loan.OutstandingPrincipal
}

// GetInterestRate returns the annual interest rate in percent
func (w LoanAdapter) GetInterestRate() float64 {
	return w.Loan.AnnualInterestRatePercent
}

// GetMinPayment returns the EMI, which is the least the lender accepts.
func (w LoanAdapter) GetMinPayment() (float64, error) {
	emi, err := w.Loan.EMI()
	if err != nil {
		return 0, err
	}
	return mathutil.Round(emi), nil
}

// CardAdapter wraps creditcard.CreditCard to implement DebtSource
type CardAdapter struct {
	Card creditcard.CreditCard
}

// GetName returns the card name
func (w CardAdapter) GetName() string {
	return w.Card.Name
}

// GetBalance returns the current outstanding
func (w CardAdapter) GetBalance() float64 {
	return w.Card.CurrentOutstanding
}

// GetInterestRate returns the APR
func (w CardAdapter) GetInterestRate() float64 {
	return w.Card.InterestRateAPR
}

// GetMinPayment returns the minimum due of the current statement
func (w CardAdapter) GetMinPayment() (float64, error) {
	return mathutil.Round(w.Card.MinimumDue()), nil
}

// LoansToDebtSources converts loans.Loan slices to DebtSource slices
func LoansToDebtSources(items []loans.Loan) []DebtSource {
	if items == nil {
		return nil
	}

	var sources []DebtSource
	for _, loan := range items {
		sources = append(sources, LoanAdapter{Loan: loan})
	}
	return sources
}

// CardsToDebtSources converts creditcard.CreditCard slices to DebtSource slices
func CardsToDebtSources(cards []creditcard.CreditCard) []DebtSource {
	if cards == nil {
		return nil
	}

	var sources []DebtSource
	for _, card := range cards {
		sources = append(sources, CardAdapter{Card: card})
	}
	return sources
}

// ToDebts converts debt sources into payoff debts, keeping their order.
func ToDebts(sources []DebtSource) ([]payoff.Debt, error) {
	debts := make([]payoff.Debt, 0, len(sources))
	for _, source := range sources {
		minPayment, err := source.GetMinPayment()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source.GetName(), err)
		}
		debts = append(debts, payoff.Debt{
			Name:         source.GetName(),
			Balance:      source.GetBalance(),
			InterestRate: source.GetInterestRate(),
			MinPayment:   minPayment,
		})
	}
	return debts, nil
}

// PortfolioDebts lists every loan followed by every card as payoff debts.
func PortfolioDebts(items []loans.Loan, cards []creditcard.CreditCard) ([]payoff.Debt, error) {
	sources := append(LoansToDebtSources(items), CardsToDebtSources(cards)...)
	return ToDebts(sources)
}
