package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
)

func compileOne(t *testing.T, src, path string) (*model.Workcell, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileWorkcell(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileWorkcellGalvanizing(t *testing.T) {
	wc, err := compileOne(t, `
		workcell: Ocynk: {
			id:          11
			description: "Galvanizing"
			choice: [{key: "typ_ocynku", label: "Typ ocynku", options: ["OGNIOWY", "GALWANICZNY"]}]

			formula: by_kg: {
				label: "Wycena wg masy"
				expr:  "kg * cena_kg"
				params: [
					{key: "kg", label: "Masa", unit: "kg", source: "user", feeds: "mass", min: 0},
					{key: "cena_kg", label: "Cena", unit: "zł/kg", source: "cost_table"},
				]
				enabled_when: [{param: "typ_ocynku", equals: "OGNIOWY"}]
				default_when: [{param: "typ_ocynku", equals: "OGNIOWY"}]
			}
			formula: by_dm2: {
				expr: "dm2 * cena_dm2"
				params: [
					{key: "dm2", source: "user"},
					{key: "cena_dm2", source: "cost_table"},
				]
				enabled_when: [{param: "typ_ocynku", equals: "GALWANICZNY"}]
			}
		}
	`, "workcell.Ocynk")
	require.NoError(t, err)

	assert.Equal(t, 11, wc.ID)
	assert.Equal(t, "Ocynk", wc.Name)
	assert.Equal(t, "Galvanizing", wc.Description)
	require.NotNil(t, wc.Choice)
	assert.Equal(t, "typ_ocynku", wc.Choice.Key)
	assert.Equal(t, []string{"OGNIOWY", "GALWANICZNY"}, wc.Choice.Options)

	require.Len(t, wc.Formulas, 2)
	byKg := wc.Formulas[0]
	assert.Equal(t, "by_kg", byKg.ID)
	assert.Equal(t, "Wycena wg masy", byKg.Label)
	assert.Equal(t, "kg * cena_kg", byKg.Expr)
	assert.Equal(t, []model.Rule{{ParamKey: "typ_ocynku", Equals: "OGNIOWY"}}, byKg.EnabledWhen)
	assert.Equal(t, []model.Rule{{ParamKey: "typ_ocynku", Equals: "OGNIOWY"}}, byKg.DefaultWhen)

	require.Len(t, byKg.Params, 2)
	kg, ok := byKg.Params[0].(model.UserNumber)
	require.True(t, ok)
	assert.Equal(t, model.FeedsMass, kg.Feeds)
	require.NotNil(t, kg.Min)
	assert.Equal(t, 0.0, *kg.Min)
	assert.Equal(t, model.CostNumber{Key: "cena_kg", Label: "Cena", Unit: "zł/kg"}, byKg.Params[1])

	byDm2 := wc.Formulas[1]
	assert.Equal(t, "by_dm2", byDm2.Label, "label defaults to the formula id")
	assert.Empty(t, byDm2.DefaultWhen)
	dm2 := byDm2.Params[0].(model.UserNumber)
	assert.Equal(t, "dm2", dm2.Label)
	assert.Equal(t, model.FeedsNone, dm2.Feeds)
	assert.Nil(t, dm2.Min)
}

func TestCompileWorkcellTablePickAndQuotedName(t *testing.T) {
	wc, err := compileOne(t, `
		workcell: "Malowanie proszkowe": {
			id: 9
			formula: by_dm2: {
				expr: "dm2 * cena_dm2"
				params: [
					{key: "dm2", source: "user"},
					{key: "cena_dm2", label: "Cena", unit: "zł/dm2", source: "cost_table", table: "Rodzaje farby"},
				]
			}
		}
	`, `workcell."Malowanie proszkowe"`)
	require.NoError(t, err)

	assert.Equal(t, "Malowanie proszkowe", wc.Name)
	assert.Nil(t, wc.Choice)
	assert.Equal(t, model.DefaultChoice, wc.ChoiceKey())
	assert.Equal(t, model.TablePick{Key: "cena_dm2", Label: "Cena", Unit: "zł/dm2", Table: "Rodzaje farby"}, wc.Formulas[0].Params[1])
}

func TestCompileWorkcellNameOverride(t *testing.T) {
	wc, err := compileOne(t, `
		workcell: giecie: {
			name: "Gięcie CNC"
			id: 4
			formula: flat: {expr: "cena", params: [{key: "cena", source: "cost_table"}]}
		}
	`, "workcell.giecie")
	require.NoError(t, err)
	assert.Equal(t, "Gięcie CNC", wc.Name)
}

func TestCompileWorkcellErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing id",
			src:   `workcell: X: { formula: f: {expr: "a", params: [{key: "a", source: "user"}]} }`,
			field: "id",
		},
		{
			name:  "non-integer id",
			src:   `workcell: X: { id: "7", formula: f: {expr: "a", params: [{key: "a", source: "user"}]} }`,
			field: "id",
		},
		{
			name:  "no formulas",
			src:   `workcell: X: { id: 1 }`,
			field: "formula",
		},
		{
			name:  "missing expression",
			src:   `workcell: X: { id: 1, formula: f: {params: [{key: "a", source: "user"}]} }`,
			field: "formula.f.expr",
		},
		{
			name:  "unknown source",
			src:   `workcell: X: { id: 1, formula: f: {expr: "a", params: [{key: "a", source: "erp"}]} }`,
			field: "formula.f.params.a.source",
		},
		{
			name:  "user param with table",
			src:   `workcell: X: { id: 1, formula: f: {expr: "a", params: [{key: "a", source: "user", table: "T"}]} }`,
			field: "formula.f.params.a.table",
		},
		{
			name:  "bad feeds",
			src:   `workcell: X: { id: 1, formula: f: {expr: "a", params: [{key: "a", source: "user", feeds: "masa"}]} }`,
			field: "formula.f.params.a.feeds",
		},
		{
			name:  "rule without equals",
			src:   `workcell: X: { id: 1, formula: f: {expr: "a", params: [{key: "a", source: "user"}], enabled_when: [{param: "t"}]} }`,
			field: "formula.f.enabled_when.equals",
		},
		{
			name:  "choice without options",
			src:   `workcell: X: { id: 1, choice: [{key: "t", options: []}], formula: f: {expr: "a", params: [{key: "a", source: "user"}]} }`,
			field: "choice.options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileOne(t, tt.src, "workcell.X")
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileWorkcellMultipleChoices(t *testing.T) {
	_, err := compileOne(t, `
		workcell: X: {
			id: 3
			choice: [
				{key: "a", options: ["1"]},
				{key: "b", options: ["2"]},
			]
			formula: f: {expr: "v", params: [{key: "v", source: "user"}]}
		}
	`, "workcell.X")
	require.Error(t, err)
	assert.True(t, IsDefinitionError(err, ErrCodeMultipleChoices))

	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.WorkcellID)
	assert.Equal(t, "X", de.Workcell)
}

func TestCompileWorkcellsKeepsDeclarationOrder(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		workcell: Zeta: { id: 2, formula: f: {expr: "a", params: [{key: "a", source: "user"}]} }
		workcell: Alfa: { id: 1, formula: f: {expr: "a", params: [{key: "a", source: "user"}]} }
	`)
	require.NoError(t, v.Err())

	wcs, err := CompileWorkcells(v)
	require.NoError(t, err)
	require.Len(t, wcs, 2)
	assert.Equal(t, "Zeta", wcs[0].Name)
	assert.Equal(t, "Alfa", wcs[1].Name)
}

func TestCompileWorkcellsWrapsErrorsWithName(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`workcell: Broken: { formula: f: {expr: "a", params: [{key: "a", source: "user"}]} }`)
	require.NoError(t, v.Err())

	_, err := CompileWorkcells(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workcell Broken")
	assert.Contains(t, err.Error(), "id is required")
}
