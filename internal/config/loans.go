package config

import (
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/creditcard"
	"github.com/iwvelando/debt-engine/pkg/loans"
	"github.com/iwvelando/debt-engine/pkg/validation"
)

// Loan indicates a loan and its parameters as written in the portfolio file.
type Loan struct {
	Name                 string       `yaml:"name" mapstructure:"name"`
	Principal            float64      `yaml:"principal" mapstructure:"principal"`
	OutstandingPrincipal *float64     `yaml:"outstandingPrincipal,omitempty" mapstructure:"outstandingPrincipal"` // unset means nothing repaid yet
	InterestRate         float64      `yaml:"interestRate" mapstructure:"interestRate"`                           // annual percent
	Term                 int          `yaml:"term" mapstructure:"term"`                                           // months
	EMI                  float64      `yaml:"emi,omitempty" mapstructure:"emi"`                                   // 0 derives it
	EMIDueDay            int          `yaml:"emiDueDay,omitempty" mapstructure:"emiDueDay"`
	StartDate            string       `yaml:"startDate" mapstructure:"startDate"`
	EndDate              string       `yaml:"endDate,omitempty" mapstructure:"endDate"`
	Prepayments          []Prepayment `yaml:"prepayments,omitempty" mapstructure:"prepayments"`
}

// Prepayment is a what-if lump sum against a loan's outstanding balance.
type Prepayment struct {
	Amount float64 `yaml:"amount" mapstructure:"amount"`
	Mode   string  `yaml:"mode,omitempty" mapstructure:"mode"` // reduce_emi, reduce_tenure
}

// CreditCard indicates a credit card account.
type CreditCard struct {
	Name              string  `yaml:"name" mapstructure:"name"`
	CreditLimit       float64 `yaml:"creditLimit" mapstructure:"creditLimit"`
	Outstanding       float64 `yaml:"outstanding" mapstructure:"outstanding"`
	APR               float64 `yaml:"apr" mapstructure:"apr"`
	BillingCycleDate  int     `yaml:"billingCycleDate,omitempty" mapstructure:"billingCycleDate"`
	PaymentDueDate    int     `yaml:"paymentDueDate,omitempty" mapstructure:"paymentDueDate"`
	MinimumDuePercent float64 `yaml:"minimumDuePercent,omitempty" mapstructure:"minimumDuePercent"`
}

// PayoffConfig drives the multi-debt payoff simulation.
type PayoffConfig struct {
	MonthlyBudget float64 `yaml:"monthlyBudget,omitempty" mapstructure:"monthlyBudget"`
	Strategy      string  `yaml:"strategy,omitempty" mapstructure:"strategy"` // snowball, avalanche, custom, compare
	MaxMonths     int     `yaml:"maxMonths,omitempty" mapstructure:"maxMonths"`
	TargetMonths  int     `yaml:"targetMonths,omitempty" mapstructure:"targetMonths"` // >0 runs the minimum budget optimizer
}

// Outstanding returns the configured outstanding principal, defaulting to the
// full principal.
func (l Loan) Outstanding() float64 {
	if l.OutstandingPrincipal == nil {
		return l.Principal
	}
	return *l.OutstandingPrincipal
}

// MonthlyEMI returns the configured EMI, or the closed-form one when none is
// set. Invalid terms yield 0; they are reported when the loan is converted.
func (l Loan) MonthlyEMI() float64 {
	if l.EMI > 0 {
		return l.EMI
	}
	emi, err := loans.CalculateEMI(l.Principal, l.InterestRate, l.Term)
	if err != nil {
		return 0
	}
	return emi
}

// MinimumDue returns the minimum payment of the card's current statement.
func (c CreditCard) MinimumDue() float64 {
	percent := c.MinimumDuePercent
	if percent == 0 {
		return creditcard.DefaultMinimumDue(c.Outstanding)
	}
	return creditcard.MinimumDue(c.Outstanding, percent, constants.DefaultMinimumDueFloor)
}

// ValidateConfiguration performs general validation of the portfolio and
// returns human-readable warnings. Hard errors surface during analysis.
func (c *Configuration) ValidateConfiguration() []string {
	validator := validation.PortfolioValidator{
		AsOf:          c.AsOf,
		MonthlyIncome: c.Income.Monthly,
		MonthlyBudget: c.Payoff.MonthlyBudget,
	}

	for _, loan := range c.Loans {
		validator.Loans = append(validator.Loans, validation.LoanConfig{
			Name:        loan.Name,
			StartDate:   loan.StartDate,
			Term:        loan.Term,
			Outstanding: loan.Outstanding(),
			EMI:         loan.MonthlyEMI(),
		})
	}

	for _, card := range c.CreditCards {
		validator.Cards = append(validator.Cards, validation.CardConfig{
			Name:        card.Name,
			Outstanding: card.Outstanding,
			Limit:       card.CreditLimit,
			MinimumDue:  card.MinimumDue(),
		})
	}

	return validator.ValidateAll()
}
