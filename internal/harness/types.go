package harness

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`

	// Output is the compact new-form JSON produced, if any.
	Output string `json:"output,omitempty"`

	// Code and Path describe the error produced, if any.
	Code string `json:"code,omitempty"`
	Path string `json:"path,omitempty"`

	// Errors explains why the case failed. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// AddError adds a mismatch and marks the case as failed.
func (r *CaseResult) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Result is the outcome of a suite.
type Result struct {
	Suite  string       `json:"suite"`
	Pass   bool         `json:"pass"`
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
}

// NewResult creates a new passing result.
func NewResult(suite string) *Result {
	return &Result{
		Suite: suite,
		Pass:  true,
		Cases: []CaseResult{},
	}
}

// Add records a case outcome.
func (r *Result) Add(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if c.Pass {
		r.Passed++
		return
	}
	r.Failed++
	r.Pass = false
}
