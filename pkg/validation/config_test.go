package validation

import (
	"strings"
	"testing"
)

func TestValidateLoanMaturity(t *testing.T) {
	tests := []struct {
		name        string
		loanName    string
		startDate   string
		asOf        string
		termMonths  int
		outstanding float64
		expectWarn  bool
		expectError bool
	}{
		{
			name:        "Loan still running",
			loanName:    "Car",
			startDate:   "2023-01-10",
			asOf:        "2025-06-01",
			termMonths:  60,
			outstanding: 250000,
		},
		{
			name:        "Matured with balance",
			loanName:    "Personal",
			startDate:   "2020-01-10",
			asOf:        "2025-06-01",
			termMonths:  36,
			outstanding: 12000,
			expectWarn:  true,
		},
		{
			name:        "Matures exactly on asOf",
			loanName:    "Exact",
			startDate:   "2022-06-01",
			asOf:        "2025-06-01",
			termMonths:  36,
			outstanding: 500,
			expectWarn:  true,
		},
		{
			name:        "Matured and settled",
			loanName:    "Settled",
			startDate:   "2020-01-10",
			asOf:        "2025-06-01",
			termMonths:  36,
			outstanding: 0,
		},
		{
			name:        "Month-only start date",
			loanName:    "Monthly",
			startDate:   "2024-03",
			asOf:        "2025-06-01",
			termMonths:  120,
			outstanding: 900000,
		},
		{
			name:        "Invalid start date",
			loanName:    "Invalid",
			startDate:   "invalid-date",
			asOf:        "2025-06-01",
			termMonths:  60,
			outstanding: 1000,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, err := ValidateLoanMaturity(tt.loanName, tt.startDate, tt.asOf, tt.termMonths, tt.outstanding)

			if tt.expectError {
				if err == nil {
					t.Errorf("ValidateLoanMaturity() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateLoanMaturity() unexpected error = %v", err)
			}
			if tt.expectWarn && warning == "" {
				t.Errorf("ValidateLoanMaturity() expected warning but got none")
			}
			if !tt.expectWarn && warning != "" {
				t.Errorf("ValidateLoanMaturity() unexpected warning = %s", warning)
			}
			if tt.expectWarn && !strings.Contains(warning, tt.loanName) {
				t.Errorf("warning %q should name the loan", warning)
			}
		})
	}
}

func TestValidateUtilization(t *testing.T) {
	tests := []struct {
		name        string
		outstanding float64
		limit       float64
		expectWarn  bool
	}{
		{"Low utilization", 10000, 100000, false},
		{"At threshold", 30000, 100000, false},
		{"Above threshold", 50000, 100000, true},
		{"Over limit", 120000, 100000, true},
		{"Missing limit", 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateUtilization("Rewards", tt.outstanding, tt.limit)
			if (warning != "") != tt.expectWarn {
				t.Errorf("ValidateUtilization() = %q, expectWarn %v", warning, tt.expectWarn)
			}
		})
	}
}

func TestValidateBudget(t *testing.T) {
	if warning := ValidateBudget(5000, 8000); warning == "" {
		t.Error("ValidateBudget() expected a warning for a budget below minimums")
	} else if !strings.Contains(warning, "5,000.00") || !strings.Contains(warning, "8,000.00") {
		t.Errorf("ValidateBudget() = %q, expected both amounts", warning)
	}
	if warning := ValidateBudget(8000, 8000); warning != "" {
		t.Errorf("ValidateBudget() unexpected warning = %s", warning)
	}
	if warning := ValidateBudget(0, 8000); warning != "" {
		t.Errorf("ValidateBudget() without a budget should not warn, got %s", warning)
	}
}

func TestValidateDTI(t *testing.T) {
	if warning := ValidateDTI(43); warning != "" {
		t.Errorf("ValidateDTI(43) unexpected warning = %s", warning)
	}
	if warning := ValidateDTI(55); !strings.Contains(warning, "High") {
		t.Errorf("ValidateDTI(55) = %q, expected a High band warning", warning)
	}
}

func TestPortfolioValidator_ValidateAll(t *testing.T) {
	validator := &PortfolioValidator{
		AsOf:          "2025-06-01",
		MonthlyIncome: 80000,
		MonthlyBudget: 30000,
		Loans: []LoanConfig{
			{Name: "Home", StartDate: "2020-04-05", Term: 240, Outstanding: 3500000, EMI: 32000},
			{Name: "Old", StartDate: "2019-01-01", Term: 24, Outstanding: 4000, EMI: 5000},
		},
		Cards: []CardConfig{
			{Name: "Rewards", Outstanding: 60000, Limit: 100000, MinimumDue: 3000},
			{Name: "Fuel", Outstanding: 2000, Limit: 50000, MinimumDue: 200},
		},
	}

	warnings := validator.ValidateAll()

	expected := []string{"Loan 'Old'", "Credit card 'Rewards'", "Monthly payoff budget", "Debt-to-income"}
	if len(warnings) != len(expected) {
		t.Fatalf("expected %d warnings, got %d: %v", len(expected), len(warnings), warnings)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(warnings[i], prefix) {
			t.Errorf("warning %d = %q, expected prefix %q", i, warnings[i], prefix)
		}
	}
}

func TestPortfolioValidator_EmptyConfiguration(t *testing.T) {
	validator := &PortfolioValidator{}
	if warnings := validator.ValidateAll(); len(warnings) != 0 {
		t.Errorf("expected no warnings for an empty portfolio, got %v", warnings)
	}
}
