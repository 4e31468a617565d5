package expr

import (
	"fmt"
	"slices"
)

// node is an arithmetic expression tree node.
type node interface {
	eval(src string, vars map[string]float64) (float64, error)
	collect(names map[string]bool)
}

type numberNode struct {
	value float64
}

type varNode struct {
	name string
	pos  int
}

type unaryNode struct {
	op      tokenKind
	operand node
}

type binaryNode struct {
	op          tokenKind
	pos         int
	left, right node
}

// Expr is a parsed pricing expression.
// An Expr holds no reference to any environment; names resolve only
// against the bindings passed to Eval.
type Expr struct {
	src  string
	root node
}

// Parse parses src into an Expr.
//
// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("+" | "-") unary | primary
//	primary = number | name | "(" expr ")"
func Parse(src string) (*Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, p.errorf(p.peek(), "empty expression")
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s after expression", describe(tok))
	}
	return &Expr{src: src, root: root}, nil
}

// String returns the expression source.
func (e *Expr) String() string { return e.src }

// Vars returns the distinct names the expression references, sorted.
func (e *Expr) Vars() []string {
	names := make(map[string]bool)
	e.root.collect(names)
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

type parser struct {
	src  string
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	tok := p.toks[p.i]
	if tok.kind != tokEOF {
		p.i++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeSyntax,
		Message: fmt.Sprintf(format, args...),
		Expr:    p.src,
		Pos:     tok.pos,
	}
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPlus && tok.kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.kind, pos: tok.pos, left: left, right: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokStar && tok.kind != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.kind, pos: tok.pos, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	tok := p.peek()
	if tok.kind == tokPlus || tok.kind == tokMinus {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tok.kind, operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &numberNode{value: tok.num}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return nil, p.errorf(tok, "function calls are not supported (%s)", tok.text)
		}
		return &varNode{name: tok.text, pos: tok.pos}, nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' but found %s", describe(closing))
		}
		return inner, nil
	default:
		return nil, p.errorf(tok, "expected a number, name or '(' but found %s", describe(tok))
	}
}

func describe(tok token) string {
	if tok.kind == tokIdent || tok.kind == tokNumber {
		return fmt.Sprintf("%s %q", tok.kind, tok.text)
	}
	return tok.kind.String()
}
