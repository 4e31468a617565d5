package compiler

import (
	"fmt"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
)

// CompileWorkcell parses a CUE value into a Workcell.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the workcell struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`workcell: Ocynk: { id: 11, ... }`)
//	wc, err := CompileWorkcell(v.LookupPath(cue.ParsePath("workcell.Ocynk")))
//
// The returned workcell is not validated; see ValidateWorkcell.
func CompileWorkcell(v cue.Value) (*model.Workcell, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	wc := &model.Workcell{Name: labelOf(v)}
	if name, ok, err := optionalString(v, "name"); err != nil {
		return nil, err
	} else if ok {
		wc.Name = name
	}
	if wc.Name == "" {
		return nil, &CompileError{Field: "name", Message: "workcell name is required", Pos: v.Pos()}
	}

	if pos := v.Pos(); pos.IsValid() && pos.Filename() != "" {
		wc.SourceFile = filepath.Base(pos.Filename())
	}

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return nil, &CompileError{Field: "id", Message: "id is required", Pos: v.Pos()}
	}
	id, err := idVal.Int64()
	if err != nil {
		return nil, &CompileError{Field: "id", Message: "id must be an integer", Pos: idVal.Pos()}
	}
	wc.ID = int(id)

	if wc.Description, _, err = optionalString(v, "description"); err != nil {
		return nil, err
	}

	if wc.Choice, err = parseChoice(v, wc); err != nil {
		return nil, err
	}

	if wc.Formulas, err = parseFormulas(v); err != nil {
		return nil, err
	}
	if len(wc.Formulas) == 0 {
		return nil, &CompileError{
			Field:   "formula",
			Message: "at least one formula is required",
			Pos:     v.Pos(),
		}
	}

	return wc, nil
}

// parseChoice reads the optional choice list. More than one entry is a
// definition error, not a compile error: the value is well-formed, the
// workcell is not.
func parseChoice(v cue.Value, wc *model.Workcell) (*model.ChoiceParam, error) {
	choiceVal := v.LookupPath(cue.ParsePath("choice"))
	if !choiceVal.Exists() {
		return nil, nil
	}

	iter, err := choiceVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var choices []*model.ChoiceParam
	for iter.Next() {
		item := iter.Value()
		c := &model.ChoiceParam{}
		if c.Key, err = requiredString(item, "key", "choice.key"); err != nil {
			return nil, err
		}
		if c.Label, _, err = optionalString(item, "label"); err != nil {
			return nil, err
		}
		if c.Label == "" {
			c.Label = c.Key
		}
		if c.Options, err = stringList(item, "options", "choice.options"); err != nil {
			return nil, err
		}
		if len(c.Options) == 0 {
			return nil, &CompileError{
				Field:   "choice.options",
				Message: fmt.Sprintf("choice %q needs at least one option", c.Key),
				Pos:     item.Pos(),
			}
		}
		choices = append(choices, c)
	}

	switch len(choices) {
	case 0:
		return nil, nil
	case 1:
		return choices[0], nil
	default:
		return nil, &DefinitionError{
			Code:       ErrCodeMultipleChoices,
			Message:    fmt.Sprintf("workcell declares %d choice parameters, at most one is allowed", len(choices)),
			WorkcellID: wc.ID,
			Workcell:   wc.Name,
			Pos:        choiceVal.Pos(),
		}
	}
}

// parseFormulas extracts formula definitions in declaration order.
func parseFormulas(v cue.Value) ([]model.Formula, error) {
	formulaVal := v.LookupPath(cue.ParsePath("formula"))
	if !formulaVal.Exists() {
		return nil, nil
	}

	iter, err := formulaVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var formulas []model.Formula
	for iter.Next() {
		id := selectorName(iter.Selector())
		fv := iter.Value()
		field := "formula." + id

		f := model.Formula{ID: id}
		if f.Label, _, err = optionalString(fv, "label"); err != nil {
			return nil, err
		}
		if f.Label == "" {
			f.Label = id
		}
		if f.Expr, err = requiredString(fv, "expr", field+".expr"); err != nil {
			return nil, err
		}
		if f.Params, err = parseParams(fv, field); err != nil {
			return nil, err
		}
		if f.EnabledWhen, err = parseRules(fv, "enabled_when", field); err != nil {
			return nil, err
		}
		if f.DefaultWhen, err = parseRules(fv, "default_when", field); err != nil {
			return nil, err
		}
		formulas = append(formulas, f)
	}
	return formulas, nil
}

// parseParams maps each param entry onto its variant. The source field
// decides user vs cost table; a table field turns a cost-table param into
// a table pick.
func parseParams(fv cue.Value, field string) ([]model.Param, error) {
	paramsVal := fv.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return nil, nil
	}

	iter, err := paramsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var params []model.Param
	for iter.Next() {
		pv := iter.Value()
		key, err := requiredString(pv, "key", field+".params.key")
		if err != nil {
			return nil, err
		}
		pf := fmt.Sprintf("%s.params.%s", field, key)

		label, _, err := optionalString(pv, "label")
		if err != nil {
			return nil, err
		}
		if label == "" {
			label = key
		}
		unit, _, err := optionalString(pv, "unit")
		if err != nil {
			return nil, err
		}
		source, err := requiredString(pv, "source", pf+".source")
		if err != nil {
			return nil, err
		}
		table, hasTable, err := optionalString(pv, "table")
		if err != nil {
			return nil, err
		}

		switch source {
		case model.SourceUser:
			if hasTable {
				return nil, &CompileError{
					Field:   pf + ".table",
					Message: "user parameters cannot reference a table",
					Pos:     pv.Pos(),
				}
			}
			p := model.UserNumber{Key: key, Label: label, Unit: unit, Feeds: model.FeedsNone}
			if p.Min, err = optionalFloat(pv, "min", pf+".min"); err != nil {
				return nil, err
			}
			if p.Feeds, err = parseFeeds(pv, pf); err != nil {
				return nil, err
			}
			params = append(params, p)

		case model.SourceCostTable:
			if hasTable {
				if table == "" {
					return nil, &CompileError{
						Field:   pf + ".table",
						Message: "table name must not be empty",
						Pos:     pv.Pos(),
					}
				}
				params = append(params, model.TablePick{Key: key, Label: label, Unit: unit, Table: table})
			} else {
				params = append(params, model.CostNumber{Key: key, Label: label, Unit: unit})
			}

		default:
			return nil, &CompileError{
				Field:   pf + ".source",
				Message: fmt.Sprintf("source must be %q or %q, got %q", model.SourceUser, model.SourceCostTable, source),
				Pos:     pv.Pos(),
			}
		}
	}
	return params, nil
}

func parseFeeds(pv cue.Value, pf string) (model.MaterialValue, error) {
	feeds, ok, err := optionalString(pv, "feeds")
	if err != nil || !ok {
		return model.FeedsNone, err
	}
	switch mv := model.MaterialValue(feeds); mv {
	case model.FeedsNone, model.FeedsMass, model.FeedsArea:
		return mv, nil
	default:
		return "", &CompileError{
			Field:   pf + ".feeds",
			Message: fmt.Sprintf("feeds must be one of none, mass, area; got %q", feeds),
			Pos:     pv.Pos(),
		}
	}
}

func parseRules(fv cue.Value, name, field string) ([]model.Rule, error) {
	rulesVal := fv.LookupPath(cue.ParsePath(name))
	if !rulesVal.Exists() {
		return nil, nil
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []model.Rule
	for iter.Next() {
		rv := iter.Value()
		var r model.Rule
		if r.ParamKey, err = requiredString(rv, "param", field+"."+name+".param"); err != nil {
			return nil, err
		}
		if r.Equals, err = requiredString(rv, "equals", field+"."+name+".equals"); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func requiredString(v cue.Value, path, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: field + " must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, path string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, &CompileError{Field: path, Message: path + " must be a string", Pos: fv.Pos()}
	}
	return s, true, nil
}

func optionalFloat(v cue.Value, path, field string) (*float64, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, nil
	}
	f, err := fv.Float64()
	if err != nil {
		return nil, &CompileError{Field: field, Message: field + " must be a number", Pos: fv.Pos()}
	}
	return &f, nil
}

func stringList(v cue.Value, path, field string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: field + " must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// labelOf returns the last path label of v (the workcell struct name).
func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return selectorName(sels[len(sels)-1])
}

// selectorName unquotes string labels so `"Malowanie proszkowe": {...}`
// yields the bare name.
func selectorName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel && sel.ConstraintType() < cue.PatternConstraint {
		return sel.Unquoted()
	}
	return sel.String()
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
