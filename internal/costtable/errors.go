package costtable

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a cost-table decoding failure. It names the sheet, row and the
// (workcell, choice, formula, key) scope it concerns, as far as known.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Sheet      string    `json:"sheet,omitempty"`
	Row        int       `json:"row,omitempty"`
	WorkcellID int       `json:"workcell_id,omitempty"`
	Workcell   string    `json:"workcell,omitempty"`
	Choice     string    `json:"choice,omitempty"`
	Formula    string    `json:"formula,omitempty"`
	Key        string    `json:"key,omitempty"`

	// Missing lists every unfilled value for MISSING_COST_VALUE, as
	// "workcell/choice/formula/key".
	Missing []string `json:"missing,omitempty"`
}

// ErrorCode categorizes cost-table errors.
type ErrorCode string

const (
	// ErrCodeDocumentStructure indicates a missing INDEX sheet, a renamed
	// sheet or an out-of-place row.
	ErrCodeDocumentStructure ErrorCode = "DOCUMENT_STRUCTURE"

	// ErrCodeValueParse indicates a value cell that is not a number.
	ErrCodeValueParse ErrorCode = "VALUE_PARSE"

	// ErrCodeUnknownChoice indicates a choice value the workcell does not
	// declare.
	ErrCodeUnknownChoice ErrorCode = "UNKNOWN_CHOICE"

	// ErrCodeUnknownTable indicates a table block whose header names a
	// table the parameter does not declare.
	ErrCodeUnknownTable ErrorCode = "UNKNOWN_TABLE"

	// ErrCodeMissingCostValue indicates required cost values left blank.
	ErrCodeMissingCostValue ErrorCode = "MISSING_COST_VALUE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Code)
	if e.Sheet != "" {
		fmt.Fprintf(&b, " sheet %q", e.Sheet)
		if e.Row > 0 {
			fmt.Fprintf(&b, " row %d", e.Row)
		}
	}
	var scope []string
	if e.Workcell != "" {
		scope = append(scope, "workcell "+e.Workcell)
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
	if len(scope) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(scope, ", "))
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	return b.String()
}

// IsDocumentStructure reports whether err is a document structure error.
func IsDocumentStructure(err error) bool { return hasCode(err, ErrCodeDocumentStructure) }

// IsValueParse reports whether err is an unparseable value error.
func IsValueParse(err error) bool { return hasCode(err, ErrCodeValueParse) }

// IsUnknownChoice reports whether err is an unknown choice error.
func IsUnknownChoice(err error) bool { return hasCode(err, ErrCodeUnknownChoice) }

// IsUnknownTable reports whether err is an unknown table error.
func IsUnknownTable(err error) bool { return hasCode(err, ErrCodeUnknownTable) }

// IsMissingCostValue reports whether err is a missing cost value error.
func IsMissingCostValue(err error) bool { return hasCode(err, ErrCodeMissingCostValue) }

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
