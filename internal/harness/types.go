package harness

import "github.com/Flexbotic/AppKalkulator-v2/internal/model"

// QuoteOutcome is the result of pricing one scenario quote.
type QuoteOutcome struct {
	Name      string         `json:"name"`
	Workcell  string         `json:"workcell,omitempty"`
	Choice    string         `json:"choice,omitempty"`
	Formula   string         `json:"formula,omitempty"`
	Bindings  model.Bindings `json:"bindings,omitempty"`
	Price     *float64       `json:"price,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation and assertion
	// held.
	Pass bool `json:"pass"`

	// Quotes holds one outcome per scenario quote, in order.
	Quotes []QuoteOutcome `json:"quotes"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Quotes: []QuoteOutcome{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Total sums the prices of every successfully priced quote.
func (r *Result) Total() float64 {
	var total float64
	for _, q := range r.Quotes {
		if q.Price != nil {
			total += *q.Price
		}
	}
	return total
}
