package config

import (
	"fmt"
	"strings"

	"github.com/iwvelando/debt-engine/pkg/creditcard"
	"github.com/iwvelando/debt-engine/pkg/datetime"
	"github.com/iwvelando/debt-engine/pkg/loans"
)

// ToLoan converts a configured loan into a validated pkg/loans.Loan.
func (l Loan) ToLoan() (loans.Loan, error) {
	start, err := datetime.ParseDate(l.StartDate)
	if err != nil {
		return loans.Loan{}, fmt.Errorf("loan %s: startDate: %w", l.Name, err)
	}

	loan := loans.Loan{
		Name:                      l.Name,
		Principal:                 l.Principal,
		OutstandingPrincipal:      l.Outstanding(),
		AnnualInterestRatePercent: l.InterestRate,
		TenureMonths:              l.Term,
		EMIAmount:                 l.EMI,
		EMIDueDay:                 l.EMIDueDay,
		StartDate:                 start,
	}
	if strings.TrimSpace(l.EndDate) != "" {
		end, err := datetime.ParseDate(l.EndDate)
		if err != nil {
			return loans.Loan{}, fmt.Errorf("loan %s: endDate: %w", l.Name, err)
		}
		loan.EndDate = end
	}

	return loans.NewLoan(loan)
}

// ToPrepaymentMode parses the configured mode. An empty mode means
// reduce_tenure.
func (p Prepayment) ToPrepaymentMode() (loans.PrepaymentMode, error) {
	return loans.ParsePrepaymentMode(p.Mode)
}

// ToCreditCard converts a configured card into a validated
// pkg/creditcard.CreditCard.
func (c CreditCard) ToCreditCard() (creditcard.CreditCard, error) {
	return creditcard.NewCreditCard(creditcard.CreditCard{
		Name:               c.Name,
		CreditLimit:        c.CreditLimit,
		CurrentOutstanding: c.Outstanding,
		InterestRateAPR:    c.APR,
		BillingCycleDate:   c.BillingCycleDate,
		PaymentDueDate:     c.PaymentDueDate,
		MinimumDuePercent:  c.MinimumDuePercent,
	})
}
