package expr

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// PricePlaces is the number of decimal places a price is rounded to.
const PricePlaces = 2

// Eval evaluates the expression against vars. Only names present in vars
// are reachable; anything else is an unbound variable. The result is not
// rounded.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	v, err := e.root.eval(e.src, vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{
			Code:    ErrCodeEvaluation,
			Message: fmt.Sprintf("expression result is not a finite number (%v)", v),
			Expr:    e.src,
		}
	}
	return v, nil
}

// Evaluate parses src, evaluates it against vars and rounds the result to
// PricePlaces decimal places (half away from zero).
func Evaluate(src string, vars map[string]float64) (float64, error) {
	e, err := Parse(src)
	if err != nil {
		return 0, err
	}
	v, err := e.Eval(vars)
	if err != nil {
		return 0, err
	}
	return Round(v), nil
}

// Round rounds v to PricePlaces decimal places.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(PricePlaces).InexactFloat64()
}

func (n *numberNode) eval(string, map[string]float64) (float64, error) {
	return n.value, nil
}

func (n *varNode) eval(src string, vars map[string]float64) (float64, error) {
	v, ok := vars[n.name]
	if !ok {
		return 0, &Error{
			Code:    ErrCodeUnboundVariable,
			Message: fmt.Sprintf("name %q is not bound", n.name),
			Expr:    src,
			Pos:     n.pos,
			Name:    n.name,
		}
	}
	return v, nil
}

func (n *unaryNode) eval(src string, vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(src, vars)
	if err != nil {
		return 0, err
	}
	if n.op == tokMinus {
		return -v, nil
	}
	return v, nil
}

func (n *binaryNode) eval(src string, vars map[string]float64) (float64, error) {
	l, err := n.left.eval(src, vars)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(src, vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokPlus:
		return l + r, nil
	case tokMinus:
		return l - r, nil
	case tokStar:
		return l * r, nil
	case tokSlash:
		if r == 0 {
			return 0, &Error{
				Code:    ErrCodeEvaluation,
				Message: "division by zero",
				Expr:    src,
				Pos:     n.pos,
			}
		}
		return l / r, nil
	default:
		panic(fmt.Sprintf("expr: unknown operator %v", n.op))
	}
}

func (n *numberNode) collect(map[string]bool) {}

func (n *varNode) collect(names map[string]bool) { names[n.name] = true }

func (n *unaryNode) collect(names map[string]bool) { n.operand.collect(names) }

func (n *binaryNode) collect(names map[string]bool) {
	n.left.collect(names)
	n.right.collect(names)
}
