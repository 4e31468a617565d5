package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionsSorted(t *testing.T) {
	defs := Definitions{11: galvanizing(), 9: painting()}

	sorted := defs.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, 9, sorted[0].ID)
	assert.Equal(t, 11, sorted[1].ID)
}

func TestDefinitionsListSortsByNameIgnoringCase(t *testing.T) {
	defs := Definitions{11: galvanizing(), 9: painting()}

	list := defs.List()
	require.Len(t, list, 2)
	assert.Equal(t, "malowanie", list[0].Name)
	assert.Equal(t, "Ocynk", list[1].Name)
}

func TestDefinitionsParameters(t *testing.T) {
	defs := Definitions{11: galvanizing(), 9: painting()}

	summary, ok := defs.Parameters(11)
	require.True(t, ok)
	assert.Len(t, summary.UserNumbers, 2)
	assert.Len(t, summary.CostNumbers, 2)
	assert.Empty(t, summary.CostTables)
	assert.Equal(t, "kg", summary.UserNumbers[0].Key)
	assert.Equal(t, SourceUser, summary.UserNumbers[0].Source)
	assert.Equal(t, SourceCostTable, summary.CostNumbers[0].Source)

	summary, ok = defs.Parameters(9)
	require.True(t, ok)
	require.Len(t, summary.CostTables, 1)
	assert.Equal(t, "Rodzaje farby", summary.CostTables[0].Table)

	_, ok = defs.Parameters(404)
	assert.False(t, ok)
}

func TestDefinitionsParametersDeduplicatesKeys(t *testing.T) {
	wc := galvanizing()
	// Second formula reuses "kg"
	wc.Formulas[1].Params = append(wc.Formulas[1].Params, UserNumber{Key: "kg", Label: "Other"})
	defs := Definitions{11: wc}

	summary, _ := defs.Parameters(11)
	assert.Len(t, summary.UserNumbers, 2)
	assert.Equal(t, "Masa", summary.UserNumbers[0].Label)
}
