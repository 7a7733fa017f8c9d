package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: every expectation matched.
	Pass bool `json:"pass"`

	// Dialect is the dialect the session rendered with.
	Dialect string `json:"dialect"`

	// SQL holds the composed text per requested query name.
	SQL map[string]string `json:"sql"`

	// ErrorCode categorizes the error the session reported, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorMessage is the text of that error.
	ErrorMessage string `json:"error_message,omitempty"`

	// Mismatches are the failed expectations, one per query or error check.
	Mismatches []Mismatch `json:"mismatches,omitempty"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		SQL:    map[string]string{},
		Errors: []string{},
	}
}

// AddMismatch records a failed expectation and its message.
func (r *Result) AddMismatch(m Mismatch) {
	r.Mismatches = append(r.Mismatches, m)
	r.AddError(m.String())
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
