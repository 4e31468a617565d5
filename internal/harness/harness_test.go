package harness

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flexbotic/AppKalkulator-v2/internal/costtable"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/quote"
	"github.com/Flexbotic/AppKalkulator-v2/internal/testutil"
)

func fixtureCosts() Costs {
	return Costs{
		Numbers: []CostNumber{
			{Workcell: testutil.OcynkID, Choice: "OGNIOWY", Formula: "by_kg", Key: "cena_kg", Value: 2.8},
			{Workcell: testutil.OcynkID, Choice: "GALWANICZNY", Formula: "by_dm2", Key: "cena_dm2", Value: 3.5},
		},
		Tables: []TableItem{
			{Workcell: testutil.MalowanieID, Formula: "by_dm2", Key: "cena_dm2", Item: "FARBA_PROSZKOWA", Value: 20.5},
		},
	}
}

func TestRunScenario(t *testing.T) {
	s, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Quotes, 8)

	require.NotNil(t, result.Quotes[0].Price)
	assert.Equal(t, 140.0, *result.Quotes[0].Price)
	assert.Equal(t, "by_kg", result.Quotes[1].Formula, "default formula picked")
	assert.Equal(t, "FORMULA_NOT_ALLOWED", result.Quotes[4].ErrorCode)
	assert.Nil(t, result.Quotes[4].Price)
	assert.InDelta(t, 429.28, result.Total(), 1e-9)
}

func TestRunRecordsFailedExpectations(t *testing.T) {
	s, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	wrong := 141.0
	s.Quotes[0].Expect.Price = &wrong
	s.Quotes[4].Expect.Error = "UNKNOWN_FORMULA"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, `quote "galwaniczny": expected price 141, got price 140`, result.Errors[0])
	assert.Contains(t, result.Errors[1], "expected error UNKNOWN_FORMULA, got error")
}

func TestRunIncompleteCostsFailsSetup(t *testing.T) {
	s, err := LoadScenario(scenarioPath)
	require.NoError(t, err)
	s.Costs.Tables = nil

	_, err = Run(s)
	require.Error(t, err)
	assert.True(t, costtable.IsMissingCostValue(err), "got %v", err)
}

func TestBuildCostIndex(t *testing.T) {
	idx, err := BuildCostIndex(testutil.Definitions(), fixtureCosts())
	require.NoError(t, err)

	v, ok := idx.Number(testutil.OcynkID, "GALWANICZNY", "by_dm2", "cena_dm2")
	require.True(t, ok)
	assert.Equal(t, 3.5, v)

	v, ok = idx.TableValue(testutil.MalowanieID, model.DefaultChoice, "by_dm2", "cena_dm2", "FARBA_PROSZKOWA")
	require.True(t, ok)
	assert.Equal(t, 20.5, v)
}

func TestBuildCostIndexBeyondPlaceholders(t *testing.T) {
	costs := fixtureCosts()
	costs.Tables = nil
	for i := range costtable.DefaultPlaceholderRows + 5 {
		costs.Tables = append(costs.Tables, TableItem{
			Workcell: testutil.MalowanieID,
			Formula:  "by_dm2",
			Key:      "cena_dm2",
			Item:     fmt.Sprintf("RAL %d", 9000+i),
			Value:    float64(i),
		})
	}

	idx, err := BuildCostIndex(testutil.Definitions(), costs)
	require.NoError(t, err)
	items := idx.TableItems(testutil.MalowanieID, model.DefaultChoice, "by_dm2", "cena_dm2")
	assert.Len(t, items, costtable.DefaultPlaceholderRows+5)
}

func TestFillCostsErrors(t *testing.T) {
	defs := testutil.Definitions()
	doc, err := costtable.GenerateTemplate(defs)
	require.NoError(t, err)

	err = FillCosts(doc, defs, Costs{Numbers: []CostNumber{{Workcell: 42, Formula: "f", Key: "k"}}})
	assert.ErrorContains(t, err, "workcell 42 is not defined")

	err = FillCosts(doc, defs, Costs{Numbers: []CostNumber{{Workcell: testutil.OcynkID, Formula: "by_m", Key: "k"}}})
	assert.ErrorContains(t, err, `no formula "by_m"`)

	err = FillCosts(doc, defs, Costs{Numbers: []CostNumber{
		{Workcell: testutil.OcynkID, Choice: "GALWANICZNY", Formula: "by_kg", Key: "cena_kg"},
	}})
	assert.ErrorContains(t, err, "has no row cena_kg", "by_kg is not listed under GALWANICZNY")

	err = FillCosts(doc, defs, Costs{Tables: []TableItem{
		{Workcell: testutil.MalowanieID, Choice: "INNY", Formula: "by_dm2", Key: "cena_dm2", Item: "x"},
	}})
	assert.ErrorContains(t, err, "has no block")
}

func TestErrorCode(t *testing.T) {
	_, err := quote.Resolve(testutil.Definitions(), model.NewCostIndex(), quote.Request{WorkcellID: 1})
	assert.Equal(t, "UNKNOWN_WORKCELL", ErrorCode(err))
	assert.Equal(t, "", ErrorCode(fmt.Errorf("plain")))
}

func TestEvaluateAssertions(t *testing.T) {
	defs := testutil.Definitions()
	price := 140.0
	result := NewResult()
	result.Quotes = append(result.Quotes, QuoteOutcome{Name: "a", Price: &price}, QuoteOutcome{Name: "b", Error: "boom"})

	total := 140.0
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertAllowedFormulas, Workcell: testutil.OcynkID, Choice: "OGNIOWY", Formulas: []string{"by_kg"}},
		{Type: AssertDefaultFormulas, Workcell: testutil.MalowanieID, Formulas: []string{"by_dm2"}},
		{Type: AssertTotal, Value: &total},
	}, defs)
	assert.Empty(t, errs)

	wrong := 1.0
	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertAllowedFormulas, Workcell: testutil.OcynkID, Choice: "OGNIOWY", Formulas: []string{"by_dm2"}},
		{Type: AssertAllowedFormulas, Workcell: 404},
		{Type: AssertTotal, Value: &wrong},
		{Type: AssertTotal},
		{Type: "final_state"},
	}, defs)
	require.Len(t, errs, 5)
	assert.Contains(t, errs[0], "Actual: [by_kg]")
	assert.Contains(t, errs[1], "workcell is not defined")
	assert.Contains(t, errs[2], "[2] b: error \"boom\"")
	assert.Contains(t, errs[3], "total requires a value")
	assert.Contains(t, errs[4], "unknown assertion type")
}

func TestAllowedFormulasEmptyList(t *testing.T) {
	wc := testutil.Ocynk()
	for i := range wc.Formulas {
		wc.Formulas[i].EnabledWhen = []model.Rule{{ParamKey: "typ_ocynku", Equals: "OGNIOWY"}}
	}
	defs := model.Definitions{wc.ID: wc}

	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertAllowedFormulas, Workcell: wc.ID, Choice: "GALWANICZNY"},
	}, defs)
	assert.Empty(t, errs)
}
