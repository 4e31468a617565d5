package quote

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a failure to resolve a quote request into bindings.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	WorkcellID int       `json:"workcell_id,omitempty"`
	Workcell   string    `json:"workcell,omitempty"`
	Choice     string    `json:"choice,omitempty"`
	Formula    string    `json:"formula,omitempty"`
	Key        string    `json:"key,omitempty"`
	Table      string    `json:"table,omitempty"`
	Item       string    `json:"item,omitempty"`
}

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeUnknownWorkcell indicates a workcell id with no definition.
	ErrCodeUnknownWorkcell ErrorCode = "UNKNOWN_WORKCELL"

	// ErrCodeUnknownFormula indicates a formula id the workcell does not
	// declare.
	ErrCodeUnknownFormula ErrorCode = "UNKNOWN_FORMULA"

	// ErrCodeFormulaRequired indicates no formula was given and the
	// default_when rules do not single one out.
	ErrCodeFormulaRequired ErrorCode = "FORMULA_REQUIRED"

	// ErrCodeChoiceRequired indicates a choice workcell quoted without a
	// choice value.
	ErrCodeChoiceRequired ErrorCode = "CHOICE_REQUIRED"

	// ErrCodeUnknownChoice indicates a choice value outside the options.
	ErrCodeUnknownChoice ErrorCode = "UNKNOWN_CHOICE"

	// ErrCodeFormulaNotAllowed indicates a formula whose enabled_when rules
	// reject the choice.
	ErrCodeFormulaNotAllowed ErrorCode = "FORMULA_NOT_ALLOWED"

	// ErrCodeUnresolvedParameter indicates a cost-table gap for a
	// CostNumber parameter.
	ErrCodeUnresolvedParameter ErrorCode = "UNRESOLVED_PARAMETER"

	// ErrCodeMissingTableSelection indicates a TablePick parameter with no
	// item chosen.
	ErrCodeMissingTableSelection ErrorCode = "MISSING_TABLE_SELECTION"

	// ErrCodeUnknownTableItem indicates a chosen item absent from its table.
	ErrCodeUnknownTableItem ErrorCode = "UNKNOWN_TABLE_ITEM"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var scope []string
	if e.Workcell != "" {
		scope = append(scope, fmt.Sprintf("workcell %s (id=%d)", e.Workcell, e.WorkcellID))
	} else if e.WorkcellID != 0 {
		scope = append(scope, fmt.Sprintf("workcell id=%d", e.WorkcellID))
	}
	if e.Choice != "" {
		scope = append(scope, "choice "+e.Choice)
	}
	if e.Formula != "" {
		scope = append(scope, "formula "+e.Formula)
	}
	if e.Key != "" {
		scope = append(scope, "key "+e.Key)
	}
	if e.Table != "" {
		scope = append(scope, "table "+e.Table)
	}
	if e.Item != "" {
		scope = append(scope, "item "+e.Item)
	}
	if len(scope) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, strings.Join(scope, ", "), e.Message)
}

// IsResolutionError reports whether err is a quote resolution error with
// the given code.
func IsResolutionError(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsFormulaNotAllowed reports whether err rejects a formula for its choice.
func IsFormulaNotAllowed(err error) bool {
	return IsResolutionError(err, ErrCodeFormulaNotAllowed)
}

// IsUnresolvedParameter reports whether err is a cost-table gap.
func IsUnresolvedParameter(err error) bool {
	return IsResolutionError(err, ErrCodeUnresolvedParameter)
}

// IsMissingTableSelection reports whether err is a missing table pick.
func IsMissingTableSelection(err error) bool {
	return IsResolutionError(err, ErrCodeMissingTableSelection)
}
