package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Large number", 12345.678, 12345.68},
		{"Negative number round down", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
		{"Very small negative", -0.001, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRoundUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"EMI of a one lakh loan", 8791.59, 8792},
		{"Monthly interest", 833.33, 833},
		{"Exact half rounds away from zero", 2.5, 3},
		{"Floating residue", 1e-9, 0},
		{"Negative", -7.6, -8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := RoundUnits(tt.input); result != tt.expected {
				t.Errorf("RoundUnits(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"Exactly zero", 0.0, true},
		{"Very small positive", 0.001, true},
		{"Very small negative", -0.001, true},
		{"Just above tolerance", 0.02, false},
		{"Just below negative tolerance", -0.02, false},
		{"Exactly tolerance", 0.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsZero(tt.input); result != tt.expected {
				t.Errorf("IsZero(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsPositive(t *testing.T) {
	if IsPositive(0.005) {
		t.Errorf("IsPositive(0.005) should be false within tolerance")
	}
	if !IsPositive(0.02) {
		t.Errorf("IsPositive(0.02) should be true")
	}
	if IsPositive(-5) {
		t.Errorf("IsPositive(-5) should be false")
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"Ordinary value", 1200.5, true},
		{"Zero", 0, true},
		{"NaN", math.NaN(), false},
		{"Positive infinity", math.Inf(1), false},
		{"Negative infinity", math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsFinite(tt.input); result != tt.expected {
				t.Errorf("IsFinite(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		a, b      float64
		tolerance float64
		expected  bool
	}{
		{"Equal values", 10, 10, 0.01, true},
		{"Within tolerance", 10, 10.5, 1, true},
		{"Outside tolerance", 10, 12, 1, false},
		{"Boundary", 10, 11, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := WithinTolerance(tt.a, tt.b, tt.tolerance); result != tt.expected {
				t.Errorf("WithinTolerance(%v, %v, %v) = %v, expected %v", tt.a, tt.b, tt.tolerance, result, tt.expected)
			}
		})
	}
}

func TestMinMax(t *testing.T) {
	if Min(3, 7) != 3 || Min(7, 3) != 3 {
		t.Errorf("Min returned wrong value")
	}
	if Max(3, 7) != 7 || Max(7, 3) != 7 {
		t.Errorf("Max returned wrong value")
	}
	if Min(-1, -1) != -1 || Max(-1, -1) != -1 {
		t.Errorf("Min/Max of equal values should return that value")
	}
}

func TestCalculatePercentage(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		total    float64
		expected float64
	}{
		{"Half", 50000, 100000, 50},
		{"Over limit", 120000, 100000, 120},
		{"Zero total", 500, 0, 0},
		{"Zero value", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculatePercentage(tt.value, tt.total)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("CalculatePercentage(%v, %v) = %v, expected %v", tt.value, tt.total, result, tt.expected)
			}
		})
	}
}

func TestApplyPercentage(t *testing.T) {
	if result := ApplyPercentage(50000, 5); math.Abs(result-2500) > 1e-9 {
		t.Errorf("ApplyPercentage(50000, 5) = %v, expected 2500", result)
	}
	if result := ApplyPercentage(100, 0); result != 0 {
		t.Errorf("ApplyPercentage(100, 0) = %v, expected 0", result)
	}
}
