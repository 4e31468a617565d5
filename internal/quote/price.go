package quote

import (
	"fmt"
	"slices"

	"github.com/Flexbotic/AppKalkulator-v2/internal/expr"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
)

// Evaluate evaluates f's expression against bindings and rounds the result
// to two decimal places. Names outside bindings are unbound.
func Evaluate(f *model.Formula, bindings model.Bindings) (float64, error) {
	v, err := expr.Evaluate(f.Expr, bindings)
	if err != nil {
		return 0, fmt.Errorf("formula %s: %w", f.ID, err)
	}
	return v, nil
}

// Priced is a resolved line with its evaluated price.
type Priced struct {
	*Line
	Price float64 `json:"price"`
}

// Price resolves req and evaluates the selected formula.
func Price(defs model.Definitions, idx *model.CostIndex, req Request) (*Priced, error) {
	line, err := Resolve(defs, idx, req)
	if err != nil {
		return nil, err
	}
	v, err := Evaluate(line.Formula(), line.Bindings)
	if err != nil {
		return nil, fmt.Errorf("workcell %s choice %s: %w", line.Workcell, line.Choice, err)
	}
	return &Priced{Line: line, Price: v}, nil
}

// MaterialDefaults computes values for the formula's user numbers tagged
// as fed by materials: the summed mass (feeds: mass) or area (feeds: area)
// of every attached material times its piece count, rounded to two
// decimal places. It returns nil when no materials are attached.
func MaterialDefaults(f *model.Formula, materials []MaterialRef) map[string]float64 {
	if len(materials) == 0 {
		return nil
	}
	var mass, area float64
	for _, m := range materials {
		mass += m.MassKg * float64(m.Pieces())
		area += m.AreaDm2 * float64(m.Pieces())
	}

	out := make(map[string]float64)
	for _, p := range f.Params {
		u, ok := p.(model.UserNumber)
		if !ok {
			continue
		}
		switch u.Feeds {
		case model.FeedsMass:
			out[u.Key] = expr.Round(mass)
		case model.FeedsArea:
			out[u.Key] = expr.Round(area)
		}
	}
	return out
}

// WithMaterialDefaults returns a copy of req whose missing user values are
// filled from MaterialDefaults. Values the user entered are kept.
func WithMaterialDefaults(defs model.Definitions, req Request) (Request, error) {
	if len(req.Materials) == 0 {
		return req, nil
	}
	wc, ok := defs[req.WorkcellID]
	if !ok {
		return req, &Error{Code: ErrCodeUnknownWorkcell, Message: "workcell is not defined", WorkcellID: req.WorkcellID}
	}
	choice, err := resolveChoice(wc, req.Choice)
	if err != nil {
		return req, err
	}
	f, err := resolveFormula(wc, choice, req.FormulaID)
	if err != nil {
		return req, err
	}

	values := cloneValues(req.UserValues)
	for k, v := range MaterialDefaults(f, req.Materials) {
		if _, set := values[k]; !set {
			values[k] = v
		}
	}
	req.UserValues = values
	return req, nil
}

// Violation is a user value below its advisory minimum.
type Violation struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s = %v is below the minimum %v", v.Key, v.Value, v.Min)
}

// CheckMinimums lists the user values of f that fall below their declared
// minimum, ordered by key. Unset values are not reported.
func CheckMinimums(f *model.Formula, values map[string]float64) []Violation {
	var out []Violation
	for _, p := range f.Params {
		u, ok := p.(model.UserNumber)
		if !ok || u.Min == nil {
			continue
		}
		if v, set := values[u.Key]; set && v < *u.Min {
			out = append(out, Violation{Key: u.Key, Value: v, Min: *u.Min})
		}
	}
	slices.SortFunc(out, func(a, b Violation) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
	return out
}
