package harness

import (
	"errors"
	"fmt"
	"math"

	"github.com/Flexbotic/AppKalkulator-v2/internal/compiler"
	"github.com/Flexbotic/AppKalkulator-v2/internal/expr"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/quote"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and compile the workcell definitions
//  2. Generate, fill, round-trip and decode the cost table
//  3. Price every quote and check its expectation
//  4. Evaluate assertions
//
// Setup failures (definitions, cost table) are returned as errors; failed
// expectations and assertions are recorded in the result.
func Run(scenario *Scenario) (*Result, error) {
	defs, err := compiler.LoadDefinitions(scenario.Definitions)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	idx, err := BuildCostIndex(defs, scenario.Costs)
	if err != nil {
		return nil, fmt.Errorf("failed to build cost table: %w", err)
	}

	result := NewResult()
	for _, step := range scenario.Quotes {
		outcome := runQuote(defs, idx, step)
		if msg := checkExpect(step, outcome); msg != "" {
			result.AddError(msg)
		}
		result.Quotes = append(result.Quotes, outcome)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, defs) {
		result.AddError(msg)
	}

	return result, nil
}

func runQuote(defs model.Definitions, idx *model.CostIndex, step QuoteStep) QuoteOutcome {
	outcome := QuoteOutcome{Name: step.Name}

	req := step.Request
	var err error
	if step.UseMaterials {
		req, err = quote.WithMaterialDefaults(defs, req)
	}

	var priced *quote.Priced
	if err == nil {
		priced, err = quote.Price(defs, idx, req)
	}
	if err != nil {
		outcome.ErrorCode = ErrorCode(err)
		outcome.Error = err.Error()
		return outcome
	}

	price := priced.Price
	outcome.Workcell = priced.Workcell
	outcome.Choice = priced.Choice
	outcome.Formula = priced.FormulaID
	outcome.Bindings = priced.Bindings
	outcome.Price = &price
	return outcome
}

// ErrorCode extracts the code of a quote or expression error, or "" for
// any other error.
func ErrorCode(err error) string {
	var qe *quote.Error
	if errors.As(err, &qe) {
		return string(qe.Code)
	}
	var ee *expr.Error
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return ""
}

func checkExpect(step QuoteStep, got QuoteOutcome) string {
	if step.Expect.Error != "" {
		if got.ErrorCode != step.Expect.Error {
			return fmt.Sprintf("quote %q: expected error %s, got %s", step.Name, step.Expect.Error, describe(got))
		}
		return ""
	}
	if got.Price == nil || !samePrice(*got.Price, *step.Expect.Price) {
		return fmt.Sprintf("quote %q: expected price %v, got %s", step.Name, *step.Expect.Price, describe(got))
	}
	return ""
}

func describe(o QuoteOutcome) string {
	if o.Price != nil {
		return fmt.Sprintf("price %v", *o.Price)
	}
	return fmt.Sprintf("error %q", o.Error)
}

// samePrice compares two prices already rounded to whole cents.
func samePrice(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
