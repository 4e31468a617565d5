package model

import "slices"

// CostIndex is the decoded cost repository.
//
//	Numbers[workcell][choice][formula][param_key] -> value
//	Tables[workcell][choice][formula][table_param_key][item_name] -> value
//
// Built once per decode pass and read-only afterwards, so it is safe for
// concurrent readers.
type CostIndex struct {
	Numbers map[int]map[string]map[string]map[string]float64            `json:"numbers"`
	Tables  map[int]map[string]map[string]map[string]map[string]float64 `json:"tables"`
}

// NewCostIndex returns an empty index.
func NewCostIndex() *CostIndex {
	return &CostIndex{
		Numbers: make(map[int]map[string]map[string]map[string]float64),
		Tables:  make(map[int]map[string]map[string]map[string]map[string]float64),
	}
}

// Number looks up a CostNumber value.
func (c *CostIndex) Number(workcell int, choice, formula, key string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.Numbers[workcell][choice][formula][key]
	return v, ok
}

// TableValue looks up a TablePick item value.
func (c *CostIndex) TableValue(workcell int, choice, formula, key, item string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.Tables[workcell][choice][formula][key][item]
	return v, ok
}

// TableItems returns the item names of one table, sorted.
func (c *CostIndex) TableItems(workcell int, choice, formula, key string) []string {
	if c == nil {
		return nil
	}
	items := c.Tables[workcell][choice][formula][key]
	out := make([]string, 0, len(items))
	for name := range items {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// SetNumber stores a CostNumber value, creating intermediate maps.
// Only decoders call this, before the index is published.
func (c *CostIndex) SetNumber(workcell int, choice, formula, key string, v float64) {
	byChoice, ok := c.Numbers[workcell]
	if !ok {
		byChoice = make(map[string]map[string]map[string]float64)
		c.Numbers[workcell] = byChoice
	}
	byFormula, ok := byChoice[choice]
	if !ok {
		byFormula = make(map[string]map[string]float64)
		byChoice[choice] = byFormula
	}
	byKey, ok := byFormula[formula]
	if !ok {
		byKey = make(map[string]float64)
		byFormula[formula] = byKey
	}
	byKey[key] = v
}

// SetTableValue stores a TablePick item value, creating intermediate maps.
// A repeated item name overwrites the earlier value.
func (c *CostIndex) SetTableValue(workcell int, choice, formula, key, item string, v float64) {
	c.ensureTable(workcell, choice, formula, key)[item] = v
}

// EnsureTable creates an empty table so that a declared but empty block is
// distinguishable from a missing one.
func (c *CostIndex) EnsureTable(workcell int, choice, formula, key string) {
	c.ensureTable(workcell, choice, formula, key)
}

func (c *CostIndex) ensureTable(workcell int, choice, formula, key string) map[string]float64 {
	byChoice, ok := c.Tables[workcell]
	if !ok {
		byChoice = make(map[string]map[string]map[string]map[string]float64)
		c.Tables[workcell] = byChoice
	}
	byFormula, ok := byChoice[choice]
	if !ok {
		byFormula = make(map[string]map[string]map[string]float64)
		byChoice[choice] = byFormula
	}
	byKey, ok := byFormula[formula]
	if !ok {
		byKey = make(map[string]map[string]float64)
		byFormula[formula] = byKey
	}
	items, ok := byKey[key]
	if !ok {
		items = make(map[string]float64)
		byKey[key] = items
	}
	return items
}

// Bindings is the flat parameter-key to value mapping a formula is
// evaluated against. Built per quote request.
type Bindings map[string]float64

// Keys returns the binding names, sorted.
func (b Bindings) Keys() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
