package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostIndexNumbers(t *testing.T) {
	idx := NewCostIndex()
	idx.SetNumber(11, "GALWANICZNY", "by_dm2", "cena_dm2", 3.5)

	v, ok := idx.Number(11, "GALWANICZNY", "by_dm2", "cena_dm2")
	assert.True(t, ok)
	assert.Equal(t, 3.5, v)

	_, ok = idx.Number(11, "OGNIOWY", "by_dm2", "cena_dm2")
	assert.False(t, ok)
	_, ok = idx.Number(12, "GALWANICZNY", "by_dm2", "cena_dm2")
	assert.False(t, ok)
}

func TestCostIndexTables(t *testing.T) {
	idx := NewCostIndex()
	idx.SetTableValue(9, DefaultChoice, "by_dm2", "cena_dm2", "FARBA_PROSZKOWA", 20.5)
	idx.SetTableValue(9, DefaultChoice, "by_dm2", "cena_dm2", "ZWYKLA", 12)
	idx.SetTableValue(9, DefaultChoice, "by_dm2", "cena_dm2", "ZWYKLA", 14)

	v, ok := idx.TableValue(9, DefaultChoice, "by_dm2", "cena_dm2", "ZWYKLA")
	assert.True(t, ok)
	assert.Equal(t, 14.0, v, "repeated item overwrites")

	assert.Equal(t, []string{"FARBA_PROSZKOWA", "ZWYKLA"}, idx.TableItems(9, DefaultChoice, "by_dm2", "cena_dm2"))

	_, ok = idx.TableValue(9, DefaultChoice, "by_dm2", "cena_dm2", "BRAK")
	assert.False(t, ok)
}

func TestCostIndexEnsureTable(t *testing.T) {
	idx := NewCostIndex()
	idx.EnsureTable(9, DefaultChoice, "by_dm2", "cena_dm2")

	_, exists := idx.Tables[9][DefaultChoice]["by_dm2"]["cena_dm2"]
	assert.True(t, exists)
	assert.Empty(t, idx.TableItems(9, DefaultChoice, "by_dm2", "cena_dm2"))
}

func TestNilCostIndexLookups(t *testing.T) {
	var idx *CostIndex
	_, ok := idx.Number(1, "a", "b", "c")
	assert.False(t, ok)
	_, ok = idx.TableValue(1, "a", "b", "c", "d")
	assert.False(t, ok)
	assert.Nil(t, idx.TableItems(1, "a", "b", "c"))
}

func TestBindingsKeys(t *testing.T) {
	b := Bindings{"dm2": 10, "cena_dm2": 20.5}
	assert.Equal(t, []string{"cena_dm2", "dm2"}, b.Keys())
}
