package model

import (
	"slices"
	"strings"
)

// Definitions maps workcell id to its definition.
// Built once by the loader and passed explicitly to every later call.
type Definitions map[int]*Workcell

// Sorted returns the workcells ordered by id.
func (d Definitions) Sorted() []*Workcell {
	out := make([]*Workcell, 0, len(d))
	for _, wc := range d {
		out = append(out, wc)
	}
	slices.SortFunc(out, func(a, b *Workcell) int { return a.ID - b.ID })
	return out
}

// WorkcellSummary is the short listing form of a workcell.
type WorkcellSummary struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List returns workcell summaries sorted by name, case-insensitively.
func (d Definitions) List() []WorkcellSummary {
	out := make([]WorkcellSummary, 0, len(d))
	for _, wc := range d {
		out = append(out, WorkcellSummary{ID: wc.ID, Name: wc.Name, Description: wc.Description})
	}
	slices.SortFunc(out, func(a, b WorkcellSummary) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out
}

// ParameterEntry describes one parameter in a ParameterSummary.
type ParameterEntry struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Unit   string `json:"unit"`
	Source string `json:"source"`
	Table  string `json:"table,omitempty"`
}

// ParameterSummary groups every parameter a workcell's formulas use.
// Keys are deduplicated across formulas; the first declaration wins.
type ParameterSummary struct {
	UserNumbers []ParameterEntry `json:"user_numbers"`
	CostNumbers []ParameterEntry `json:"cost_numbers"`
	CostTables  []ParameterEntry `json:"cost_tables"`
}

// Parameters summarizes the parameters of workcell id.
func (d Definitions) Parameters(id int) (ParameterSummary, bool) {
	wc, ok := d[id]
	if !ok {
		return ParameterSummary{}, false
	}

	summary := ParameterSummary{
		UserNumbers: []ParameterEntry{},
		CostNumbers: []ParameterEntry{},
		CostTables:  []ParameterEntry{},
	}
	seen := map[ParamKind]map[string]bool{
		KindUserNumber: {},
		KindCostNumber: {},
		KindTablePick:  {},
	}

	for _, f := range wc.Formulas {
		for _, p := range f.Params {
			kind := p.Kind()
			if seen[kind][p.ParamKey()] {
				continue
			}
			seen[kind][p.ParamKey()] = true

			entry := ParameterEntry{
				Key:    p.ParamKey(),
				Label:  p.ParamLabel(),
				Unit:   p.ParamUnit(),
				Source: kind.Source(),
			}
			switch v := p.(type) {
			case UserNumber:
				summary.UserNumbers = append(summary.UserNumbers, entry)
			case CostNumber:
				summary.CostNumbers = append(summary.CostNumbers, entry)
			case TablePick:
				entry.Table = v.Table
				summary.CostTables = append(summary.CostTables, entry)
			default:
				panic("model: unknown param variant")
			}
		}
	}

	return summary, true
}
