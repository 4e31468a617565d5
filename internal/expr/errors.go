package expr

import (
	"errors"
	"fmt"
)

// Error represents a failure to parse or evaluate a pricing expression.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Expr is the expression source.
	Expr string

	// Pos is the byte offset in Expr where the problem was found.
	Pos int

	// Name is the offending identifier (for unbound variables).
	Name string
}

// ErrorCode categorizes expression errors.
type ErrorCode string

const (
	// ErrCodeSyntax indicates the expression does not parse.
	ErrCodeSyntax ErrorCode = "SYNTAX"

	// ErrCodeUnboundVariable indicates a name with no binding.
	ErrCodeUnboundVariable ErrorCode = "UNBOUND_VARIABLE"

	// ErrCodeEvaluation indicates a non-numeric result (division by zero,
	// infinity, NaN).
	ErrCodeEvaluation ErrorCode = "EVALUATION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("%s: %s (expr=%q, pos=%d)", e.Code, e.Message, e.Expr, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsSyntaxError reports whether err is an expression syntax error.
func IsSyntaxError(err error) bool {
	return hasCode(err, ErrCodeSyntax)
}

// IsUnboundVariable reports whether err is an unbound variable error.
func IsUnboundVariable(err error) bool {
	return hasCode(err, ErrCodeUnboundVariable)
}

// IsEvaluationError reports whether err is a non-numeric result error.
func IsEvaluationError(err error) bool {
	return hasCode(err, ErrCodeEvaluation)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
