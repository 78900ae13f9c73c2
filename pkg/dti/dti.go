// Package dti computes the debt-to-income ratio and maps it onto the
// lending bands used to describe a borrower's debt burden.
package dti

import (
	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/mathutil"
)

// Severity orders the bands from healthiest to most stretched.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityModerate
	SeverityElevated
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityModerate:
		return "moderate"
	case SeverityElevated:
		return "elevated"
	default:
		return "high"
	}
}

// MarshalText renders the severity by name in JSON and YAML output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Band is the classification of a DTI percentage.
type Band struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// Ratio returns total monthly debt payments as a percentage of monthly
// income. A non-positive income yields 0: the data is incomplete, which is
// not the same as a debt problem.
func Ratio(totalMonthlyDebt, monthlyIncome float64) float64 {
	if monthlyIncome < 0 {
		return 0
	}
	return mathutil.CalculatePercentage(totalMonthlyDebt, monthlyIncome)
}

// Classify maps a DTI percentage onto its band. Upper bounds are inclusive.
func Classify(percent float64) Band {
	switch {
	case percent <= constants.DTIExcellentMax:
		return Band{Label: "Excellent", Severity: SeverityLow}
	case percent <= constants.DTIGoodMax:
		return Band{Label: "Good", Severity: SeverityModerate}
	case percent <= constants.DTIFairMax:
		return Band{Label: "Fair", Severity: SeverityElevated}
	default:
		return Band{Label: "High", Severity: SeverityHigh}
	}
}
