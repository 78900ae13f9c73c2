package loans

import (
	"iter"
	"time"

	"github.com/iwvelando/debt-engine/pkg/calcerr"
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/datetime"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// AmortizationEntry holds the values for one scheduled instalment. Monetary
// fields are rounded to whole currency units per entry.
type AmortizationEntry struct {
	Month              int       `json:"month"`
	Date               time.Time `json:"date"`
	OpeningBalance     float64   `json:"openingBalance"`
	EMI                float64   `json:"emi"`
	PrincipalComponent float64   `json:"principalComponent"`
	InterestComponent  float64   `json:"interestComponent"`
	ClosingBalance     float64   `json:"closingBalance"`
}

// Schedule lazily produces the amortization entries of a loan. It is finite
// and cannot be restarted: once Next reports false it stays exhausted.
type Schedule struct {
	emi         float64
	monthlyRate float64
	tenure      int
	start       time.Time
	dueDay      int
	balance     float64
	month       int
	done        bool
}

// NewSchedule prepares the schedule of a loan whose instalment is derived
// with CalculateEMI. The first entry is dated start.
func NewSchedule(principal, annualRatePercent float64, tenureMonths int, start time.Time) (*Schedule, error) {
	emi, err := CalculateEMI(principal, annualRatePercent, tenureMonths)
	if err != nil {
		return nil, err
	}
	return newSchedule(principal, annualRatePercent, tenureMonths, emi, start, start.Day())
}

// NewScheduleWithEMI prepares the schedule of a loan paying a stored
// instalment instead of the closed-form one. It fails with
// calcerr.ErrNonAmortizingLoan when the instalment does not exceed the first
// month's interest.
func NewScheduleWithEMI(principal, annualRatePercent float64, tenureMonths int, emi float64, start time.Time) (*Schedule, error) {
	if err := validateLoanTerms(principal, annualRatePercent, tenureMonths); err != nil {
		return nil, err
	}
	return newSchedule(principal, annualRatePercent, tenureMonths, emi, start, start.Day())
}

func newSchedule(principal, annualRatePercent float64, tenureMonths int, emi float64, start time.Time, dueDay int) (*Schedule, error) {
	if !mathutil.IsFinite(emi) || emi <= 0 {
		return nil, calcerr.Invalid("instalment must be a positive number, got %.2f", emi)
	}

	interest := CalculateInterestPayment(principal, annualRatePercent)
	if emi-interest <= 0 {
		return nil, calcerr.NonAmortizing(emi, interest)
	}

	return &Schedule{
		emi:         emi,
		monthlyRate: MonthlyRate(annualRatePercent),
		tenure:      tenureMonths,
		start:       start,
		dueDay:      dueDay,
		balance:     principal,
	}, nil
}

// EMI returns the unrounded instalment the schedule is built on.
func (s *Schedule) EMI() float64 {
	return s.emi
}

// Remaining returns the unrounded balance after the entries produced so far.
func (s *Schedule) Remaining() float64 {
	return s.balance
}

// Next produces the following entry, or false once the loan is retired or
// the tenure is exhausted.
func (s *Schedule) Next() (AmortizationEntry, bool) {
	if s.done || s.month >= s.tenure || s.balance <= 0 {
		s.done = true
		return AmortizationEntry{}, false
	}

	s.month++
	opening := s.balance
	interest := opening * s.monthlyRate
	principalPart := mathutil.Min(s.emi-interest, opening)
	if s.month == s.tenure {
		// The final instalment settles whatever floating residue is left.
		principalPart = opening
	}

	closing := mathutil.Max(0, opening-principalPart)
	if closing <= constants.CurrencyTolerance {
		closing = 0
	}
	s.balance = closing

	return AmortizationEntry{
		Month:              s.month,
		Date:               datetime.AddMonthsOnDay(s.start, s.month-1, s.dueDay),
		OpeningBalance:     mathutil.RoundUnits(opening),
		EMI:                mathutil.RoundUnits(principalPart + interest),
		PrincipalComponent: mathutil.RoundUnits(principalPart),
		InterestComponent:  mathutil.RoundUnits(interest),
		ClosingBalance:     mathutil.RoundUnits(closing),
	}, true
}

// All drains the remaining entries as an iterator.
func (s *Schedule) All() iter.Seq[AmortizationEntry] {
	return func(yield func(AmortizationEntry) bool) {
		for {
			entry, ok := s.Next()
			if !ok || !yield(entry) {
				return
			}
		}
	}
}

// GenerateSchedule creates a complete amortization schedule for a loan.
func GenerateSchedule(principal, annualRatePercent float64, tenureMonths int, start time.Time) ([]AmortizationEntry, error) {
	schedule, err := NewSchedule(principal, annualRatePercent, tenureMonths, start)
	if err != nil {
		return nil, err
	}
	return Collect(schedule), nil
}

// Collect drains a schedule into a slice.
func Collect(schedule *Schedule) []AmortizationEntry {
	entries := make([]AmortizationEntry, 0, schedule.tenure-schedule.month)
	for entry := range schedule.All() {
		entries = append(entries, entry)
	}
	return entries
}

// ScheduleSummary aggregates a generated schedule.
type ScheduleSummary struct {
	Instalments    int       `json:"instalments"`
	TotalPaid      float64   `json:"totalPaid"`
	TotalPrincipal float64   `json:"totalPrincipal"`
	TotalInterest  float64   `json:"totalInterest"`
	FinalDate      time.Time `json:"finalDate"`
}

// Summarize totals the entries of a schedule. Sums are taken in decimal so
// hundreds of rounded entries add up exactly.
func Summarize(entries []AmortizationEntry) ScheduleSummary {
	paid, principal, interest := decimal.Zero, decimal.Zero, decimal.Zero
	for _, entry := range entries {
		paid = paid.Add(decimal.NewFromFloat(entry.EMI))
		principal = principal.Add(decimal.NewFromFloat(entry.PrincipalComponent))
		interest = interest.Add(decimal.NewFromFloat(entry.InterestComponent))
	}

	summary := ScheduleSummary{
		Instalments:    len(entries),
		TotalPaid:      paid.InexactFloat64(),
		TotalPrincipal: principal.InexactFloat64(),
		TotalInterest:  interest.InexactFloat64(),
	}
	if len(entries) > 0 {
		summary.FinalDate = entries[len(entries)-1].Date
	}
	return summary
}
