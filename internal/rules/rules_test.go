package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
)

func formula(id string, enabled, defaults []model.Rule) model.Formula {
	return model.Formula{ID: id, EnabledWhen: enabled, DefaultWhen: defaults}
}

func galvanizing() *model.Workcell {
	return &model.Workcell{
		ID:   11,
		Name: "Ocynk",
		Choice: &model.ChoiceParam{
			Key:     "typ_ocynku",
			Options: []string{"OGNIOWY", "GALWANICZNY"},
		},
		Formulas: []model.Formula{
			formula("by_kg",
				[]model.Rule{{ParamKey: "typ_ocynku", Equals: "OGNIOWY"}},
				[]model.Rule{{ParamKey: "typ_ocynku", Equals: "OGNIOWY"}}),
			formula("by_dm2",
				[]model.Rule{{ParamKey: "typ_ocynku", Equals: "GALWANICZNY"}},
				[]model.Rule{{ParamKey: "typ_ocynku", Equals: "GALWANICZNY"}}),
			formula("flat", nil, nil),
		},
	}
}

func TestNoChoiceWorkcell(t *testing.T) {
	open := formula("open", nil, nil)
	assert.True(t, IsFormulaAllowed(&open, model.DefaultChoice, model.DefaultChoice))

	gated := formula("gated", []model.Rule{{ParamKey: model.DefaultChoice, Equals: "X"}}, nil)
	assert.False(t, IsFormulaAllowed(&gated, model.DefaultChoice, model.DefaultChoice))
	assert.False(t, IsFormulaAllowed(&gated, model.DefaultChoice, "X"))

	other := formula("other", []model.Rule{{ParamKey: "typ_ocynku", Equals: "OGNIOWY"}}, nil)
	assert.True(t, IsFormulaAllowed(&other, model.DefaultChoice, model.DefaultChoice),
		"rules on keys other than DEFAULT are ignored")
}

func TestChoiceWorkcell(t *testing.T) {
	f := formula("by_kg", []model.Rule{{ParamKey: "typ_ocynku", Equals: "OGNIOWY"}}, nil)

	assert.True(t, IsFormulaAllowed(&f, "typ_ocynku", "OGNIOWY"))
	assert.False(t, IsFormulaAllowed(&f, "typ_ocynku", "GALWANICZNY"))
}

func TestChoiceWorkcellAnyMatchingRuleAllows(t *testing.T) {
	f := formula("both", []model.Rule{
		{ParamKey: "typ_ocynku", Equals: "OGNIOWY"},
		{ParamKey: "typ_ocynku", Equals: "GALWANICZNY"},
	}, nil)

	assert.True(t, IsFormulaAllowed(&f, "typ_ocynku", "OGNIOWY"))
	assert.True(t, IsFormulaAllowed(&f, "typ_ocynku", "GALWANICZNY"))
	assert.False(t, IsFormulaAllowed(&f, "typ_ocynku", "ZIMNY"))
}

func TestChoiceWorkcellIgnoresUnrelatedKeys(t *testing.T) {
	f := formula("odd", []model.Rule{{ParamKey: "kolor", Equals: "RAL9005"}}, nil)
	assert.True(t, IsFormulaAllowed(&f, "typ_ocynku", "OGNIOWY"))
	assert.True(t, IsFormulaAllowed(&f, "typ_ocynku", "GALWANICZNY"))

	mixed := formula("mixed", []model.Rule{
		{ParamKey: "kolor", Equals: "RAL9005"},
		{ParamKey: "typ_ocynku", Equals: "OGNIOWY"},
	}, nil)
	assert.True(t, IsFormulaAllowed(&mixed, "typ_ocynku", "OGNIOWY"))
	assert.False(t, IsFormulaAllowed(&mixed, "typ_ocynku", "GALWANICZNY"))
}

func TestAllowedFormulas(t *testing.T) {
	wc := galvanizing()

	ids := func(fs []*model.Formula) []string {
		var out []string
		for _, f := range fs {
			out = append(out, f.ID)
		}
		return out
	}

	assert.Equal(t, []string{"by_kg", "flat"}, ids(AllowedFormulas(wc, "OGNIOWY")))
	assert.Equal(t, []string{"by_dm2", "flat"}, ids(AllowedFormulas(wc, "GALWANICZNY")))
}

func TestDefaultFormulasReturnsFullMatchSet(t *testing.T) {
	wc := galvanizing()

	// "flat" has no default_when, so it matches like an ungated formula
	defaults := DefaultFormulas(wc, "GALWANICZNY")
	require.Len(t, defaults, 2)
	assert.Equal(t, "by_dm2", defaults[0].ID)
	assert.Equal(t, "flat", defaults[1].ID)

	wc.Formulas = wc.Formulas[:2]
	defaults = DefaultFormulas(wc, "OGNIOWY")
	require.Len(t, defaults, 1)
	assert.Equal(t, "by_kg", defaults[0].ID)

	assert.Empty(t, DefaultFormulas(wc, "ZIMNY"))
}

func TestDefaultRequiresAllowed(t *testing.T) {
	wc := &model.Workcell{
		ID: 1,
		Choice: &model.ChoiceParam{
			Key:     "typ",
			Options: []string{"A", "B"},
		},
		Formulas: []model.Formula{
			formula("f",
				[]model.Rule{{ParamKey: "typ", Equals: "A"}},
				[]model.Rule{{ParamKey: "typ", Equals: "B"}}),
		},
	}
	assert.Empty(t, DefaultFormulas(wc, "A"))
	assert.Empty(t, DefaultFormulas(wc, "B"))
}

func TestCombinations(t *testing.T) {
	wc := galvanizing()
	combos := Combinations(wc)
	require.Len(t, combos, 4)
	assert.Equal(t, "OGNIOWY", combos[0].Choice)
	assert.Equal(t, "by_kg", combos[0].Formula.ID)
	assert.Equal(t, "OGNIOWY", combos[1].Choice)
	assert.Equal(t, "flat", combos[1].Formula.ID)
	assert.Equal(t, "GALWANICZNY", combos[2].Choice)
	assert.Equal(t, "by_dm2", combos[2].Formula.ID)

	noChoice := &model.Workcell{ID: 9, Formulas: []model.Formula{formula("by_dm2", nil, nil)}}
	combos = Combinations(noChoice)
	require.Len(t, combos, 1)
	assert.Equal(t, model.DefaultChoice, combos[0].Choice)
}
