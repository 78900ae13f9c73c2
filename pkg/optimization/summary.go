// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a single optimization directive.
type Summary struct {
	Scope           string   `json:"scope"`
	TargetName      string   `json:"targetName"`
	Field           string   `json:"field"`
	Original        float64  `json:"original"`
	Value           float64  `json:"value"`
	Floor           float64  `json:"floor"`
	Ceiling         float64  `json:"ceiling"`
	TargetMonths    int      `json:"targetMonths"`
	Months          int      `json:"months"`
	Headroom        int      `json:"headroom"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}

// Improved reports whether the optimized value is below the original one.
func (s Summary) Improved() bool {
	return s.Original > 0 && s.Value < s.Original
}
