// Package analysis defines the data structures of a portfolio analysis and
// includes functions for computing it from a configuration.
package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/debt-engine/internal/config"
	"github.com/iwvelando/debt-engine/internal/optimizer"
	"github.com/iwvelando/debt-engine/pkg/adapters"
	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/creditcard"
	"github.com/iwvelando/debt-engine/pkg/dti"
	"github.com/iwvelando/debt-engine/pkg/loans"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
	"github.com/iwvelando/debt-engine/pkg/optimization"
	"github.com/iwvelando/debt-engine/pkg/payoff"
	"go.uber.org/zap"
)

// StrategyCompare asks for both orderings side by side.
const StrategyCompare = "compare"

// Analysis holds everything computed for one portfolio.
type Analysis struct {
	AsOf               time.Time             `json:"asOf"`
	Loans              []LoanAnalysis        `json:"loans"`
	CreditCards        []CardAnalysis        `json:"creditCards"`
	TotalOutstanding   float64               `json:"totalOutstanding"`
	MonthlyObligations float64               `json:"monthlyObligations"`
	MonthlyIncome      float64               `json:"monthlyIncome"`
	DTI                float64               `json:"dti"`
	DTIBand            dti.Band              `json:"dtiBand"`
	Payoff             *PayoffAnalysis       `json:"payoff,omitempty"`
	Optimization       *optimization.Summary `json:"optimization,omitempty"`
	Warnings           []string              `json:"warnings,omitempty"`
}

// LoanAnalysis is the computed view of one loan.
type LoanAnalysis struct {
	Name            string                    `json:"name"`
	Principal       float64                   `json:"principal"`
	Outstanding     float64                   `json:"outstanding"`
	InterestRate    float64                   `json:"interestRate"`
	TenureMonths    int                       `json:"tenureMonths"`
	RemainingTenure int                       `json:"remainingTenure"`
	EMI             float64                   `json:"emi"`
	MonthlyInterest float64                   `json:"monthlyInterest"`
	StartDate       time.Time                 `json:"startDate"`
	EndDate         time.Time                 `json:"endDate"`
	Summary         loans.ScheduleSummary     `json:"summary"`
	Prepayments     []loans.PrepaymentResult  `json:"prepayments,omitempty"`
	Schedule        []loans.AmortizationEntry `json:"-"`
}

// CardAnalysis is the computed view of one credit card.
type CardAnalysis struct {
	Name            string  `json:"name"`
	CreditLimit     float64 `json:"creditLimit"`
	Outstanding     float64 `json:"outstanding"`
	AvailableLimit  float64 `json:"availableLimit"`
	Utilization     float64 `json:"utilization"`
	HighUtilization bool    `json:"highUtilization"`
	MinimumDue      float64 `json:"minimumDue"`
	MonthlyInterest float64 `json:"monthlyInterest"`
}

// PayoffAnalysis holds either one strategy or a comparison of both orderings.
type PayoffAnalysis struct {
	Budget     float64            `json:"budget"`
	Strategy   *payoff.Strategy   `json:"strategy,omitempty"`
	Comparison *payoff.Comparison `json:"comparison,omitempty"`
	Warning    string             `json:"warning,omitempty"`
}

// GetAnalysis computes the analysis of a portfolio as of today, unless the
// configuration pins asOf.
func GetAnalysis(logger *zap.Logger, conf config.Configuration) (*Analysis, error) {
	return GetAnalysisWithFixedTime(logger, conf, time.Now())
}

// GetAnalysisWithFixedTime computes the analysis with fixedTime standing in
// for today.
func GetAnalysisWithFixedTime(logger *zap.Logger, conf config.Configuration, fixedTime time.Time) (*Analysis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	asOf, err := conf.AsOfDate(fixedTime)
	if err != nil {
		return nil, err
	}

	result := &Analysis{
		AsOf:          asOf,
		MonthlyIncome: conf.Income.Monthly,
		Warnings:      conf.ValidateConfiguration(),
	}

	var engineLoans []loans.Loan
	for _, loanConf := range conf.Loans {
		loan, err := loanConf.ToLoan()
		if err != nil {
			return nil, err
		}
		engineLoans = append(engineLoans, loan)

		loanAnalysis, notes, err := analyzeLoan(loan, loanConf.Prepayments, asOf)
		if err != nil {
			return nil, err
		}
		result.Warnings = append(result.Warnings, notes...)
		result.Loans = append(result.Loans, loanAnalysis)
		result.TotalOutstanding += loan.OutstandingPrincipal
		if mathutil.IsPositive(loan.OutstandingPrincipal) {
			result.MonthlyObligations += loanAnalysis.EMI
		}

		logger.Debug(fmt.Sprintf("analyzed loan %s", loan.Name),
			zap.String("op", "analysis.GetAnalysis"),
			zap.Float64("emi", loanAnalysis.EMI),
			zap.Int("remainingTenure", loanAnalysis.RemainingTenure),
		)
	}

	var engineCards []creditcard.CreditCard
	for _, cardConf := range conf.CreditCards {
		card, err := cardConf.ToCreditCard()
		if err != nil {
			return nil, err
		}
		engineCards = append(engineCards, card)

		cardAnalysis := analyzeCard(card)
		result.CreditCards = append(result.CreditCards, cardAnalysis)
		result.TotalOutstanding += card.CurrentOutstanding
		result.MonthlyObligations += cardAnalysis.MinimumDue
	}

	result.TotalOutstanding = mathutil.Round(result.TotalOutstanding)
	result.MonthlyObligations = mathutil.Round(result.MonthlyObligations)
	result.DTI = mathutil.Round(dti.Ratio(result.MonthlyObligations, result.MonthlyIncome))
	result.DTIBand = dti.Classify(result.DTI)

	if conf.Payoff.MonthlyBudget <= 0 && conf.Payoff.TargetMonths <= 0 {
		return result, nil
	}
	if len(engineLoans)+len(engineCards) == 0 {
		logger.Debug("skipping payoff simulation because the portfolio holds no debts",
			zap.String("op", "analysis.GetAnalysis"),
		)
		return result, nil
	}

	debts, err := adapters.PortfolioDebts(engineLoans, engineCards)
	if err != nil {
		return nil, err
	}
	opts := payoff.Options{MaxMonths: conf.Payoff.MaxMonths, Start: asOf}

	if conf.Payoff.MonthlyBudget > 0 {
		payoffAnalysis, err := analyzePayoff(debts, conf.Payoff, opts)
		if err != nil {
			return nil, err
		}
		if payoffAnalysis.Warning != "" {
			logger.Warn(payoffAnalysis.Warning, zap.String("op", "analysis.GetAnalysis"))
			result.Warnings = append(result.Warnings, payoffAnalysis.Warning)
		}
		result.Payoff = payoffAnalysis
	}

	if conf.Payoff.TargetMonths > 0 {
		ordering := payoff.Avalanche
		if !isCompare(conf.Payoff.Strategy) {
			ordering, err = payoff.ParseOrdering(conf.Payoff.Strategy)
			if err != nil {
				return nil, err
			}
		}
		summary, err := optimizer.MinimumBudget(logger, debts, ordering, conf.Payoff.TargetMonths, conf.Payoff.MonthlyBudget, opts)
		if err != nil {
			return nil, fmt.Errorf("optimizer: %w", err)
		}
		result.Optimization = &summary
	}

	return result, nil
}

func isCompare(strategy string) bool {
	strategy = strings.ToLower(strings.TrimSpace(strategy))
	return strategy == "" || strategy == StrategyCompare
}

func analyzeLoan(loan loans.Loan, prepayments []config.Prepayment, asOf time.Time) (LoanAnalysis, []string, error) {
	emi, err := loan.EMI()
	if err != nil {
		return LoanAnalysis{}, nil, fmt.Errorf("loan %s: %w", loan.Name, err)
	}
	schedule, err := loan.Schedule()
	if err != nil {
		return LoanAnalysis{}, nil, fmt.Errorf("loan %s: %w", loan.Name, err)
	}
	entries := loans.Collect(schedule)

	result := LoanAnalysis{
		Name:            loan.Name,
		Principal:       loan.Principal,
		Outstanding:     loan.OutstandingPrincipal,
		InterestRate:    loan.AnnualInterestRatePercent,
		TenureMonths:    loan.TenureMonths,
		RemainingTenure: loan.RemainingTenure(asOf),
		EMI:             mathutil.Round(emi),
		MonthlyInterest: mathutil.Round(loan.MonthlyInterest()),
		StartDate:       loan.StartDate,
		EndDate:         loan.EndDate,
		Summary:         loans.Summarize(entries),
		Schedule:        entries,
	}

	var notes []string
	for _, prepayment := range prepayments {
		mode, err := prepayment.ToPrepaymentMode()
		if err != nil {
			return LoanAnalysis{}, nil, fmt.Errorf("loan %s: %w", loan.Name, err)
		}
		if !mathutil.IsPositive(loan.OutstandingPrincipal) || result.RemainingTenure == 0 {
			notes = append(notes, fmt.Sprintf("Loan '%s' is already repaid; prepayment of %.2f skipped", loan.Name, prepayment.Amount))
			continue
		}
		impact, err := loans.PrepaymentImpact(loan.OutstandingPrincipal, loan.AnnualInterestRatePercent, result.RemainingTenure, prepayment.Amount, mode)
		if err != nil {
			return LoanAnalysis{}, nil, fmt.Errorf("loan %s: %w", loan.Name, err)
		}
		result.Prepayments = append(result.Prepayments, impact)
	}

	return result, notes, nil
}

func analyzeCard(card creditcard.CreditCard) CardAnalysis {
	return CardAnalysis{
		Name:            card.Name,
		CreditLimit:     card.CreditLimit,
		Outstanding:     card.CurrentOutstanding,
		AvailableLimit:  card.AvailableLimit(),
		Utilization:     mathutil.Round(card.Utilization()),
		HighUtilization: card.HighUtilization(),
		MinimumDue:      mathutil.Round(card.MinimumDue()),
		MonthlyInterest: card.PeriodicInterest(constants.DaysPerMonth),
	}
}

func analyzePayoff(debts []payoff.Debt, conf config.PayoffConfig, opts payoff.Options) (*PayoffAnalysis, error) {
	result := &PayoffAnalysis{Budget: conf.MonthlyBudget}

	var err error
	if isCompare(conf.Strategy) {
		result.Comparison, err = payoff.Compare(debts, conf.MonthlyBudget, opts)
	} else {
		ordering, parseErr := payoff.ParseOrdering(conf.Strategy)
		if parseErr != nil {
			return nil, parseErr
		}
		result.Strategy, err = payoff.Simulate(debts, conf.MonthlyBudget, ordering, opts)
	}

	if errors.Is(err, calcerr.ErrSimulationCapReached) {
		result.Warning = fmt.Sprintf("Payoff budget %.2f does not retire every debt within the simulation cap: %v", conf.MonthlyBudget, err)
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
