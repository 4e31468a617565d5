package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flexbotic/AppKalkulator-v2/internal/grid"
	"github.com/Flexbotic/AppKalkulator-v2/internal/harness"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
)

// decodeData unmarshals the data field of a JSON response into v.
func decodeData(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if v != nil {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return raw.CLIResponse
}

func TestWorkcellsText(t *testing.T) {
	out, err := execute(t, "workcells", defsDir)
	require.NoError(t, err)

	assert.Contains(t, out, "2 workcell(s)")
	assert.Contains(t, out, "   9  Malowanie - Malowanie proszkowe")
	assert.Contains(t, out, "  11  Ocynk - Ocynk ogniowy lub galwaniczny")
	assert.Less(t, strings.Index(out, "Malowanie"), strings.Index(out, "Ocynk"), "sorted by name")
}

func TestWorkcellsJSON(t *testing.T) {
	out, err := execute(t, "workcells", defsDir, "--format", "json")
	require.NoError(t, err)

	var list []model.WorkcellSummary
	resp := decodeData(t, out, &list)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, list, 2)
	assert.Equal(t, model.WorkcellSummary{ID: 9, Name: "Malowanie", Description: "Malowanie proszkowe"}, list[0])
}

func TestWorkcellsBadDefinitions(t *testing.T) {
	out, err := execute(t, "workcells", t.TempDir(), "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeData(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "NO_FILES", resp.Error.Code)
}

func TestParams(t *testing.T) {
	out, err := execute(t, "params", defsDir, "--workcell", "11")
	require.NoError(t, err)

	assert.Contains(t, out, "Ocynk (id=11)")
	assert.Contains(t, out, "User values:\n  kg: Masa [kg] [kg]\n  dm2: Powierzchnia [dm²] [dm2]\n")
	assert.Contains(t, out, "Cost-table values:\n  cena_kg: Cena [zł/kg] [zł/kg]\n")
	assert.NotContains(t, out, "Cost-table selections")

	out, err = execute(t, "params", defsDir, "--workcell", "9", "--format", "json")
	require.NoError(t, err)
	var summary model.ParameterSummary
	decodeData(t, out, &summary)
	require.Len(t, summary.CostTables, 1)
	assert.Equal(t, "Rodzaje farby", summary.CostTables[0].Table)
	assert.Empty(t, summary.CostNumbers)
}

func TestParamsUnknownWorkcell(t *testing.T) {
	out, err := execute(t, "params", defsDir, "--workcell", "404")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNKNOWN_WORKCELL]: workcell 404 is not defined")
}

func TestParamsRequiresWorkcell(t *testing.T) {
	_, err := execute(t, "params", defsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "workcell" not set`)
}

func TestFormulas(t *testing.T) {
	out, err := execute(t, "formulas", defsDir, "--workcell", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "typ_ocynku = OGNIOWY\n  * by_kg: Wycena (ogniowy) wg masy  [kg * cena_kg]\n")
	assert.Contains(t, out, "typ_ocynku = GALWANICZNY\n  * by_dm2:")

	out, err = execute(t, "formulas", defsDir, "--workcell", "11", "--choice", "GALWANICZNY", "--format", "json")
	require.NoError(t, err)
	var listings []FormulaListing
	decodeData(t, out, &listings)
	assert.Equal(t, []FormulaListing{{
		WorkcellID: 11,
		Workcell:   "Ocynk",
		ChoiceKey:  "typ_ocynku",
		Choice:     "GALWANICZNY",
		Allowed:    []string{"by_dm2"},
		Defaults:   []string{"by_dm2"},
	}}, listings)
}

func TestFormulasWithoutChoice(t *testing.T) {
	out, err := execute(t, "formulas", defsDir, "--workcell", "9", "--format", "json")
	require.NoError(t, err)
	var listings []FormulaListing
	decodeData(t, out, &listings)
	require.Len(t, listings, 1)
	assert.Equal(t, model.DefaultChoice, listings[0].ChoiceKey)
	assert.Equal(t, model.DefaultChoice, listings[0].Choice)
	assert.Equal(t, []string{"by_dm2"}, listings[0].Allowed)
}

func TestFormulasUnknownChoice(t *testing.T) {
	out, err := execute(t, "formulas", defsDir, "--workcell", "11", "--choice", "PROSZKOWY")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `has no typ_ocynku value "PROSZKOWY" (options: OGNIOWY, GALWANICZNY)`)
}

func TestTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	out, err := execute(t, "template", defsDir, "-o", path, "--format", "json")
	require.NoError(t, err)

	var result TemplateResult
	decodeData(t, out, &result)
	assert.Equal(t, path, result.Output)
	assert.Equal(t, 2, result.Workcells)
	assert.Equal(t, []string{"INDEX", "WC_Malowanie_cena_dm2", "WC__Ocynk"}, result.Sheets)

	doc, err := grid.OpenXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, result.Sheets, doc.SheetNames())
}

func TestTemplatePlaceholderRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	out, err := execute(t, "template", defsDir, "-o", path, "--placeholder-rows", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote cost-table template for 2 workcell(s)")

	doc, err := grid.OpenXLSX(path)
	require.NoError(t, err)
	sheet, ok := doc.Sheet("WC_Malowanie_cena_dm2")
	require.True(t, ok)
	// title, blank, block title, header, 3 placeholders, spacer
	assert.LessOrEqual(t, len(sheet.Rows), 8)

	_, err = execute(t, "template", defsDir, "-o", path, "--placeholder-rows", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTemplateRequiresOutput(t *testing.T) {
	_, err := execute(t, "template", defsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "output" not set`)
}

func TestCheckComplete(t *testing.T) {
	costs := writeCosts(t, filledCosts)

	out, err := execute(t, "check", defsDir, costs)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Cost table complete")
	assert.Contains(t, out, "Malowanie (id=9): 0 cost value(s), 1 table item(s)")
	assert.Contains(t, out, "Ocynk (id=11): 2 cost value(s), 0 table item(s)")

	out, err = execute(t, "check", defsDir, costs, "--format", "json")
	require.NoError(t, err)
	var result CheckResult
	decodeData(t, out, &result)
	assert.True(t, result.Valid)
	assert.Equal(t, []WorkcellCounts{
		{ID: 9, Name: "Malowanie", TableItems: 1},
		{ID: 11, Name: "Ocynk", CostNumbers: 2},
	}, result.Workcells)
}

func TestCheckMissingValues(t *testing.T) {
	costs := writeCosts(t, harness.Costs{Numbers: filledCosts.Numbers})

	out, err := execute(t, "check", defsDir, costs, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeData(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_COST_VALUE", resp.Error.Code)
	assert.Equal(t, []any{
		"Malowanie/DEFAULT/by_dm2/cena_dm2 (table Rodzaje farby)",
	}, resp.Error.Details)
}

func TestCheckBlankValue(t *testing.T) {
	costs := writeCosts(t, harness.Costs{Numbers: filledCosts.Numbers[:1], Tables: filledCosts.Tables})

	out, err := execute(t, "check", defsDir, costs, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeData(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_COST_VALUE", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "cena_dm2")
	assert.Nil(t, resp.Error.Details)
}

func TestCheckUnreadableWorkbook(t *testing.T) {
	out, err := execute(t, "check", defsDir, filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [READ_FAILED]")
}

const quoteRequest = `
lines:
  - workcell_id: 11
    choice: OGNIOWY
    items:
      - {material_id: 0, length_mm: 2000, qty: 5}
  - workcell_id: 9
    formula: by_dm2
    user_values: {dm2: 10}
    table_picks: {cena_dm2: FARBA_PROSZKOWA}
`

func TestQuoteJSON(t *testing.T) {
	costs := writeCosts(t, filledCosts)
	req := writeFile(t, "request.yaml", quoteRequest)

	out, err := execute(t, "quote", defsDir, costs, "--request", req, "--catalog", writeCatalog(t), "--format", "json")
	require.NoError(t, err)

	var result QuoteResult
	decodeData(t, out, &result)
	require.Len(t, result.Lines, 2)

	hot := result.Lines[0]
	assert.Equal(t, "quote-line", hot.ID)
	assert.Equal(t, "by_kg", hot.FormulaID, "default formula for OGNIOWY")
	assert.Equal(t, model.Bindings{"kg": 17.6, "cena_kg": 2.8}, hot.Bindings)
	assert.Equal(t, 49.28, hot.Price)
	require.Len(t, hot.Materials, 1)
	assert.Equal(t, 3.52, hot.Materials[0].MassKg)
	assert.Equal(t, 24.0, hot.Materials[0].AreaDm2)
	assert.Equal(t, 5, hot.Materials[0].Qty)

	paint := result.Lines[1]
	assert.Equal(t, model.DefaultChoice, paint.Choice)
	assert.Equal(t, 205.0, paint.Price)
	assert.Equal(t, map[string]string{"cena_dm2": "FARBA_PROSZKOWA"}, paint.TablePicks)

	assert.Equal(t, 254.28, result.Total)
}

func TestQuoteText(t *testing.T) {
	costs := writeCosts(t, filledCosts)
	req := writeFile(t, "request.yaml", `
lines:
  - workcell_id: 11
    choice: GALWANICZNY
    user_values: {dm2: 40}
  - workcell_id: 9
    formula: by_dm2
    user_values: {dm2: -5}
    table_picks: {cena_dm2: FARBA_PROSZKOWA}
`)

	out, err := execute(t, "quote", defsDir, costs, "-r", req)
	require.NoError(t, err)
	assert.Contains(t, out, "1. Ocynk [GALWANICZNY / by_dm2] dm2 * cena_dm2 = 140.00\n")
	assert.Contains(t, out, "     cena_dm2 = 3.5\n     dm2 = 40\n")
	assert.Contains(t, out, "2. Malowanie [DEFAULT / by_dm2] dm2 * cena_dm2 = -102.50\n")
	assert.Contains(t, out, "     ! dm2 = -5 is below the minimum 0\n")
	assert.Contains(t, out, "Total: 37.50\n")
}

func TestQuoteResolutionFailure(t *testing.T) {
	costs := writeCosts(t, filledCosts)
	req := writeFile(t, "request.yaml", `
lines:
  - workcell_id: 9
    formula: by_dm2
    user_values: {dm2: 10}
    table_picks: {cena_dm2: FARBA_PROSZKOWA}
  - workcell_id: 11
    choice: GALWANICZNY
    formula: by_kg
    user_values: {kg: 10}
`)

	out, err := execute(t, "quote", defsDir, costs, "-r", req, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeData(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORMULA_NOT_ALLOWED", resp.Error.Code)
	assert.True(t, strings.HasPrefix(resp.Error.Message, "line 2: "), resp.Error.Message)
}

func TestQuoteItemsNeedCatalog(t *testing.T) {
	costs := writeCosts(t, filledCosts)
	req := writeFile(t, "request.yaml", quoteRequest)

	out, err := execute(t, "quote", defsDir, costs, "-r", req)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "line 1: items need a material catalog (--catalog)")
}

func TestQuoteUnknownMaterial(t *testing.T) {
	costs := writeCosts(t, filledCosts)
	req := writeFile(t, "request.yaml", `
lines:
  - workcell_id: 11
    choice: OGNIOWY
    items: [{material_id: 3, length_mm: 1000}]
`)

	out, err := execute(t, "quote", defsDir, costs, "-r", req, "--catalog", writeCatalog(t))
	require.Error(t, err)
	assert.Contains(t, out, "line 1: material 3 is not in the catalog")
}

func TestQuoteBadRequestFile(t *testing.T) {
	costs := writeCosts(t, filledCosts)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", "lines:\n  - workcell_id: 11\n    formula_id: by_kg\n", "field formula_id not found"},
		{"no lines", "lines: []\n", "has no lines"},
		{"missing workcell", "lines:\n  - choice: OGNIOWY\n", "lines[0]: workcell_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := writeFile(t, "request.yaml", tt.body)
			out, err := execute(t, "quote", defsDir, costs, "-r", req)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestQuoteIncompleteCostTable(t *testing.T) {
	costs := writeCosts(t, harness.Costs{})
	req := writeFile(t, "request.yaml", quoteRequest)

	out, err := execute(t, "quote", defsDir, costs, "-r", req)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [MISSING_COST_VALUE]")
}
