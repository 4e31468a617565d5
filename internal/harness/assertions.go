package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Flexbotic/AppKalkulator-v2/internal/expr"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/rules"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Quotes   []QuoteOutcome // Priced quotes for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Quotes) > 0 {
		fmt.Fprintf(&buf, "\nQuotes:\n")
		for i, q := range e.Quotes {
			fmt.Fprintf(&buf, "  [%d] %s: %s\n", i+1, q.Name, describe(q))
		}
	}

	return buf.String()
}

// assertFormulas compares the allowed or default formula ids of a
// workcell under a choice with the expected list.
func assertFormulas(defs model.Definitions, a Assertion) error {
	wc, ok := defs[a.Workcell]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("workcell %d", a.Workcell),
			Actual:   "workcell is not defined",
		}
	}

	choice := choiceOrDefault(a.Choice)
	var formulas []*model.Formula
	if a.Type == AssertDefaultFormulas {
		formulas = rules.DefaultFormulas(wc, choice)
	} else {
		formulas = rules.AllowedFormulas(wc, choice)
	}
	got := make([]string, len(formulas))
	for i, f := range formulas {
		got[i] = f.ID
	}

	want := a.Formulas
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s %s=%s: %v", wc.Name, wc.ChoiceKey(), choice, want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

// assertTotal compares the sum of priced quotes, rounded to cents.
func assertTotal(result *Result, a Assertion) error {
	total := expr.Round(result.Total())
	if !samePrice(total, *a.Value) {
		return &AssertionError{
			Type:     AssertTotal,
			Expected: fmt.Sprintf("%v", *a.Value),
			Actual:   fmt.Sprintf("%v", total),
			Quotes:   result.Quotes,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, defs model.Definitions) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertAllowedFormulas, AssertDefaultFormulas:
			err = assertFormulas(defs, assertion)
		case AssertTotal:
			if assertion.Value == nil {
				err = fmt.Errorf("assertion[%d]: total requires a value", i)
			} else {
				err = assertTotal(result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
