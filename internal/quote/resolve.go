// Package quote turns a quote request into a resolved binding set and a
// price.
//
// Resolution is a pure value-binding step over immutable Definitions and
// CostIndex values: nothing is defaulted, and every gap is a typed error
// naming the workcell, choice, formula and key it concerns.
package quote

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
	"github.com/Flexbotic/AppKalkulator-v2/internal/rules"
)

// MaterialRef is a material attached to a quote line, with the mass and
// area already computed for one piece.
type MaterialRef struct {
	MaterialID int     `json:"material_id" yaml:"material_id"`
	MassKg     float64 `json:"mass_kg" yaml:"mass_kg"`
	AreaDm2    float64 `json:"area_dm2" yaml:"area_dm2"`
	Qty        int     `json:"qty" yaml:"qty"`
}

// Pieces returns Qty, treating zero as a single piece.
func (m MaterialRef) Pieces() int {
	if m.Qty <= 0 {
		return 1
	}
	return m.Qty
}

// Request is one workcell line of a quote as entered by the user.
//
// Choice may be empty for workcells without a choice parameter. FormulaID
// may be empty when the default_when rules single out one formula.
type Request struct {
	WorkcellID int                `json:"workcell_id" yaml:"workcell_id"`
	Choice     string             `json:"choice,omitempty" yaml:"choice"`
	FormulaID  string             `json:"formula,omitempty" yaml:"formula"`
	UserValues map[string]float64 `json:"user_values,omitempty" yaml:"user_values"`
	TablePicks map[string]string  `json:"table_picks,omitempty" yaml:"table_picks"`
	Materials  []MaterialRef      `json:"materials,omitempty" yaml:"materials"`
}

// Line is a resolved quote line: the formula to evaluate and the exact
// bindings it is evaluated against.
type Line struct {
	WorkcellID int               `json:"workcell_id"`
	Workcell   string            `json:"workcell"`
	Choice     string            `json:"choice"`
	FormulaID  string            `json:"formula"`
	Expr       string            `json:"expr"`
	Bindings   model.Bindings    `json:"bindings"`
	TablePicks map[string]string `json:"table_picks,omitempty"`
	Materials  []MaterialRef     `json:"materials,omitempty"`

	formula *model.Formula
}

// Formula returns the formula the line was resolved for.
func (l *Line) Formula() *model.Formula { return l.formula }

// Resolve binds every parameter of the requested formula:
//   - UserNumber: taken from UserValues; an absent value stays unbound.
//   - CostNumber: looked up in idx; a miss is UNRESOLVED_PARAMETER.
//   - TablePick: the item named in TablePicks is looked up in idx; no
//     selection is MISSING_TABLE_SELECTION, an unknown item is
//     UNKNOWN_TABLE_ITEM.
//
// Minimum values are not enforced here; see CheckMinimums.
func Resolve(defs model.Definitions, idx *model.CostIndex, req Request) (*Line, error) {
	wc, ok := defs[req.WorkcellID]
	if !ok {
		return nil, &Error{
			Code:       ErrCodeUnknownWorkcell,
			Message:    "workcell is not defined",
			WorkcellID: req.WorkcellID,
		}
	}

	choice, err := resolveChoice(wc, req.Choice)
	if err != nil {
		return nil, err
	}
	f, err := resolveFormula(wc, choice, req.FormulaID)
	if err != nil {
		return nil, err
	}

	fail := func(code ErrorCode, p model.Param, format string, args ...any) error {
		e := &Error{
			Code:       code,
			Message:    fmt.Sprintf(format, args...),
			WorkcellID: wc.ID,
			Workcell:   wc.Name,
			Choice:     choice,
			Formula:    f.ID,
			Key:        p.ParamKey(),
		}
		if tp, ok := p.(model.TablePick); ok {
			e.Table = tp.Table
			e.Item = req.TablePicks[tp.Key]
		}
		return e
	}

	bindings := make(model.Bindings, len(f.Params))
	picks := make(map[string]string)
	for _, p := range f.Params {
		switch p := p.(type) {
		case model.UserNumber:
			if v, ok := req.UserValues[p.Key]; ok {
				bindings[p.Key] = v
			}
		case model.CostNumber:
			v, ok := idx.Number(wc.ID, choice, f.ID, p.Key)
			if !ok {
				return nil, fail(ErrCodeUnresolvedParameter, p, "cost table has no value for this parameter")
			}
			bindings[p.Key] = v
		case model.TablePick:
			item := strings.TrimSpace(req.TablePicks[p.Key])
			if item == "" {
				return nil, fail(ErrCodeMissingTableSelection, p, "no item selected from table %q", p.Table)
			}
			v, ok := idx.TableValue(wc.ID, choice, f.ID, p.Key, item)
			if !ok {
				return nil, fail(ErrCodeUnknownTableItem, p, "item %q is not in table %q", item, p.Table)
			}
			bindings[p.Key] = v
			picks[p.Key] = item
		default:
			panic(fmt.Sprintf("quote: unknown param variant %T", p))
		}
	}

	slog.Debug("resolved quote line",
		"workcell", wc.Name, "choice", choice, "formula", f.ID, "bindings", len(bindings))

	return &Line{
		WorkcellID: wc.ID,
		Workcell:   wc.Name,
		Choice:     choice,
		FormulaID:  f.ID,
		Expr:       f.Expr,
		Bindings:   bindings,
		TablePicks: picks,
		Materials:  append([]MaterialRef(nil), req.Materials...),
		formula:    f,
	}, nil
}

func resolveChoice(wc *model.Workcell, choice string) (string, error) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		if wc.Choice == nil {
			return model.DefaultChoice, nil
		}
		return "", &Error{
			Code:       ErrCodeChoiceRequired,
			Message:    fmt.Sprintf("a value for %s is required (one of %s)", wc.Choice.Key, strings.Join(wc.Choice.Options, ", ")),
			WorkcellID: wc.ID,
			Workcell:   wc.Name,
		}
	}
	if !wc.HasChoiceValue(choice) {
		return "", &Error{
			Code:       ErrCodeUnknownChoice,
			Message:    fmt.Sprintf("%q is not an option of %s (expected one of %s)", choice, wc.ChoiceKey(), strings.Join(wc.ChoiceValues(), ", ")),
			WorkcellID: wc.ID,
			Workcell:   wc.Name,
			Choice:     choice,
		}
	}
	return choice, nil
}

func resolveFormula(wc *model.Workcell, choice, id string) (*model.Formula, error) {
	errFor := func(code ErrorCode, formula, format string, args ...any) error {
		return &Error{
			Code:       code,
			Message:    fmt.Sprintf(format, args...),
			WorkcellID: wc.ID,
			Workcell:   wc.Name,
			Choice:     choice,
			Formula:    formula,
		}
	}

	if id == "" {
		defaults := rules.DefaultFormulas(wc, choice)
		if len(defaults) != 1 {
			ids := make([]string, len(defaults))
			for i, f := range defaults {
				ids[i] = f.ID
			}
			return nil, errFor(ErrCodeFormulaRequired, "",
				"no formula given and %d default formulas match [%s]", len(defaults), strings.Join(ids, ", "))
		}
		return defaults[0], nil
	}

	f, ok := wc.Formula(id)
	if !ok {
		return nil, errFor(ErrCodeUnknownFormula, id, "formula is not defined")
	}
	if !rules.IsFormulaAllowed(f, wc.ChoiceKey(), choice) {
		return nil, errFor(ErrCodeFormulaNotAllowed, id, "formula is not allowed when %s = %s", wc.ChoiceKey(), choice)
	}
	return f, nil
}

// cloneValues copies a user-values map, never returning nil.
func cloneValues(m map[string]float64) map[string]float64 {
	if m == nil {
		return make(map[string]float64)
	}
	return maps.Clone(m)
}
