package compiler

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/Flexbotic/AppKalkulator-v2/internal/costtable"
	"github.com/Flexbotic/AppKalkulator-v2/internal/expr"
	"github.com/Flexbotic/AppKalkulator-v2/internal/model"
)

// DefinitionError reports a workcell definition that is well-formed CUE but
// violates a model invariant.
type DefinitionError struct {
	Code       DefinitionErrorCode `json:"code"`
	Message    string              `json:"message"`
	WorkcellID int                 `json:"workcell_id,omitempty"`
	Workcell   string              `json:"workcell,omitempty"`
	Formula    string              `json:"formula,omitempty"`
	Key        string              `json:"key,omitempty"`
	Pos        token.Pos           `json:"-"`
}

// DefinitionErrorCode categorizes definition errors.
type DefinitionErrorCode string

const (
	// ErrCodeDuplicateDefinition indicates two workcells share an id.
	ErrCodeDuplicateDefinition DefinitionErrorCode = "DUPLICATE_DEFINITION"

	// ErrCodeMultipleChoices indicates a workcell with more than one
	// choice parameter.
	ErrCodeMultipleChoices DefinitionErrorCode = "MULTIPLE_CHOICES"

	// ErrCodeSheetNameCollision indicates two sheets of the cost-table
	// document would get the same name.
	ErrCodeSheetNameCollision DefinitionErrorCode = "SHEET_NAME_COLLISION"

	// ErrCodeDuplicateFormula indicates a formula id used twice in a workcell.
	ErrCodeDuplicateFormula DefinitionErrorCode = "DUPLICATE_FORMULA"

	// ErrCodeDuplicateParam indicates a param key used twice in a formula.
	ErrCodeDuplicateParam DefinitionErrorCode = "DUPLICATE_PARAM"

	// ErrCodeInvalidExpression indicates a formula expression that does not
	// parse or references names that are not its parameters.
	ErrCodeInvalidExpression DefinitionErrorCode = "INVALID_EXPRESSION"

	// ErrCodeInvalidChoice indicates empty or repeated choice options.
	ErrCodeInvalidChoice DefinitionErrorCode = "INVALID_CHOICE"

	// ErrCodeInvalidID indicates a workcell id that is not a positive
	// integer.
	ErrCodeInvalidID DefinitionErrorCode = "INVALID_ID"

	// ErrCodeInvalidIdentifier indicates a choice key, choice option,
	// formula id, param key or table name that the cost-table document
	// cannot carry unchanged.
	ErrCodeInvalidIdentifier DefinitionErrorCode = "INVALID_IDENTIFIER"
)

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	where := e.Workcell
	if e.WorkcellID != 0 || e.Workcell != "" {
		where = fmt.Sprintf("%s (id=%d)", e.Workcell, e.WorkcellID)
	}
	if e.Formula != "" {
		where += " formula " + e.Formula
	}
	if e.Key != "" {
		where += " param " + e.Key
	}
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if where != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Code, where, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	return msg
}

// IsDefinitionError reports whether err is a DefinitionError with the given code.
func IsDefinitionError(err error, code DefinitionErrorCode) bool {
	var de *DefinitionError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// NewDefinitions indexes workcells by id and validates the set.
// Returns the first violation found.
func NewDefinitions(wcs ...*model.Workcell) (model.Definitions, error) {
	defs := make(model.Definitions, len(wcs))
	for _, wc := range wcs {
		if prev, ok := defs[wc.ID]; ok {
			return nil, &DefinitionError{
				Code:       ErrCodeDuplicateDefinition,
				Message:    fmt.Sprintf("id %d is already used by workcell %q", wc.ID, prev.Name),
				WorkcellID: wc.ID,
				Workcell:   wc.Name,
			}
		}
		defs[wc.ID] = wc
	}
	if errs := Validate(defs); len(errs) > 0 {
		return nil, errs[0]
	}
	return defs, nil
}

// Validate checks every workcell and the cross-workcell sheet naming.
// Returns all errors found (does not fail-fast), workcells in id order.
func Validate(defs model.Definitions) []*DefinitionError {
	var errs []*DefinitionError
	for _, wc := range defs.Sorted() {
		errs = append(errs, ValidateWorkcell(wc)...)
	}
	errs = append(errs, validateSheetNames(defs)...)
	return errs
}

// ValidateWorkcell checks the invariants of a single workcell.
func ValidateWorkcell(wc *model.Workcell) []*DefinitionError {
	var errs []*DefinitionError
	fail := func(code DefinitionErrorCode, formula, key, format string, args ...any) {
		errs = append(errs, &DefinitionError{
			Code:       code,
			Message:    fmt.Sprintf(format, args...),
			WorkcellID: wc.ID,
			Workcell:   wc.Name,
			Formula:    formula,
			Key:        key,
		})
	}

	if wc.ID <= 0 {
		fail(ErrCodeInvalidID, "", "", "workcell id must be a positive integer")
	}

	if wc.Choice != nil {
		key := wc.Choice.Key
		switch {
		case key == "":
			fail(ErrCodeInvalidChoice, "", "", "choice key must not be empty")
		case key == model.DefaultChoice:
			fail(ErrCodeInvalidIdentifier, "", key, "choice key %q is reserved for workcells without a choice", key)
		case !isCellText(key) || strings.ContainsAny(key, "=|"):
			fail(ErrCodeInvalidIdentifier, "", key, "choice key %q must be trimmed NFC text without '=' or '|'", key)
		}
		if len(wc.Choice.Options) == 0 {
			fail(ErrCodeInvalidChoice, "", key, "choice needs at least one option")
		}
		seen := make(map[string]bool)
		for _, opt := range wc.Choice.Options {
			switch {
			case opt == "":
				fail(ErrCodeInvalidChoice, "", key, "choice options must not be empty")
			case seen[opt]:
				fail(ErrCodeInvalidChoice, "", key, "option %q is listed twice", opt)
			case !isCellText(opt) || strings.Contains(opt, "|"):
				fail(ErrCodeInvalidIdentifier, "", key, "option %q must be trimmed NFC text without '|'", opt)
			}
			seen[opt] = true
		}
	}

	formulaIDs := make(map[string]bool)
	for i := range wc.Formulas {
		f := &wc.Formulas[i]
		if formulaIDs[f.ID] {
			fail(ErrCodeDuplicateFormula, f.ID, "", "formula id is declared twice")
		}
		formulaIDs[f.ID] = true
		if f.ID == "" || !isCellText(f.ID) || strings.ContainsFunc(f.ID, isFormulaIDBreak) {
			fail(ErrCodeInvalidIdentifier, f.ID, "", "formula id %q must be non-empty NFC text without spaces, '(' or '|'", f.ID)
		}

		keys := make(map[string]bool)
		for _, p := range f.Params {
			if keys[p.ParamKey()] {
				fail(ErrCodeDuplicateParam, f.ID, p.ParamKey(), "param key is declared twice")
			}
			keys[p.ParamKey()] = true
			if !expr.IsName(p.ParamKey()) {
				fail(ErrCodeInvalidIdentifier, f.ID, p.ParamKey(), "param key must be a name of letters, digits and '_'")
			}
			if tp, ok := p.(model.TablePick); ok && !isCellText(tp.Table) {
				fail(ErrCodeInvalidIdentifier, f.ID, tp.Key, "table name %q must be trimmed NFC text", tp.Table)
			}
		}

		e, err := expr.Parse(f.Expr)
		if err != nil {
			fail(ErrCodeInvalidExpression, f.ID, "", "%v", err)
			continue
		}
		for _, name := range e.Vars() {
			if !keys[name] {
				fail(ErrCodeInvalidExpression, f.ID, name, "expression references %q which is not a parameter of the formula", name)
			}
		}
	}
	return errs
}

// validateSheetNames rejects definition sets whose cost-table sheets would
// collide once sanitized, truncated and compared case-insensitively.
func validateSheetNames(defs model.Definitions) []*DefinitionError {
	var errs []*DefinitionError

	owners := make(map[string]costtable.SheetRef)
	for _, ref := range costtable.PlanSheets(defs) {
		key := costtable.SheetKey(ref.Name)
		prev, ok := owners[key]
		if !ok {
			owners[key] = ref
			continue
		}
		de := &DefinitionError{
			Code:    ErrCodeSheetNameCollision,
			Message: fmt.Sprintf("sheet name %q collides with %s", ref.Name, describeSheet(prev)),
			Key:     ref.ParamKey,
		}
		if ref.Workcell != nil {
			de.WorkcellID = ref.Workcell.ID
			de.Workcell = ref.Workcell.Name
		}
		errs = append(errs, de)
	}

	// Workcell names must also stay distinct for the INDEX lookup even when
	// a workcell emits no flat-cost sheet.
	names := make(map[string]*model.Workcell)
	for _, wc := range defs.Sorted() {
		key := costtable.SheetKey(costtable.WorkcellSheetName(wc.Name))
		prev, ok := names[key]
		if !ok {
			names[key] = wc
			continue
		}
		reported := slices.ContainsFunc(errs, func(e *DefinitionError) bool {
			return e.WorkcellID == wc.ID && e.Key == ""
		})
		if !reported {
			errs = append(errs, &DefinitionError{
				Code:       ErrCodeSheetNameCollision,
				Message:    fmt.Sprintf("name collides with workcell %q (id=%d) once sanitized", prev.Name, prev.ID),
				WorkcellID: wc.ID,
				Workcell:   wc.Name,
			})
		}
	}
	return errs
}

// isCellText reports whether s reads back from a cell unchanged: the
// decoder trims and NFC-normalizes every text cell.
func isCellText(s string) bool {
	return s == strings.TrimSpace(s) && norm.NFC.IsNormalString(s)
}

func isFormulaIDBreak(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == '|'
}

func describeSheet(ref costtable.SheetRef) string {
	switch {
	case ref.Workcell == nil:
		return "the " + ref.Name + " sheet"
	case ref.IsTable():
		return fmt.Sprintf("table sheet of workcell %q param %q", ref.Workcell.Name, ref.ParamKey)
	default:
		return fmt.Sprintf("cost sheet of workcell %q", ref.Workcell.Name)
	}
}
