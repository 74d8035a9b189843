// Package expr compiles the small arithmetic language used by emission-rate
// equations, e.g. "(0.0123 * age) + 0.5" or "np.maximum(0, 3.1 - 0.02 * (calendar_year - 2020))".
//
// Supported: numbers, the declared free variables, unary +/-, + - * /, ^ and **
// (right associative), parentheses, and the two-argument functions
// np.maximum / np.minimum (also max / min).
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrBadExpression is returned when an equation cannot be compiled.
var ErrBadExpression = errors.New("bad expression")

// Expr is a compiled equation. It is safe for concurrent use.
type Expr struct {
	src  string
	vars []string
	fn   func(args []float64) float64
}

// Compile parses src with vars as the only free names. Evaluation takes the
// variable values positionally in the same order.
func Compile(src string, vars ...string) (*Expr, error) {
	p := &parser{src: src, vars: vars}
	if err := p.tokenize(); err != nil {
		return nil, err
	}
	fn, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return &Expr{src: src, vars: vars, fn: fn}, nil
}

// MustCompile panics on error. Intended for literals in tests.
func MustCompile(src string, vars ...string) *Expr {
	e, err := Compile(src, vars...)
	if err != nil {
		panic(err)
	}
	return e
}

// Eval evaluates the expression.
func (e *Expr) Eval(args ...float64) float64 {
	if len(args) != len(e.vars) {
		panic(fmt.Sprintf("expr %q: got %d arguments, want %d", e.src, len(args), len(e.vars)))
	}
	return e.fn(args)
}

func (e *Expr) String() string { return e.src }

// Vars lists the free variables.
func (e *Expr) Vars() []string { return e.vars }

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	text string
	num  float64
	pos  int
}

type parser struct {
	src  string
	vars []string
	toks []token
	i    int
}

func (p *parser) errorf(format string, a ...any) error {
	return fmt.Errorf("%w: %q: %s", ErrBadExpression, p.src, fmt.Sprintf(format, a...))
}

func (p *parser) tokenize() error {
	s := p.src
	for i := 0; i < len(s); {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(s) && unicode.IsDigit(rune(s[i+1]))):
			j := i
			for j < len(s) && (unicode.IsDigit(rune(s[j])) || s[j] == '.') {
				j++
			}
			if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
				k := j + 1
				if k < len(s) && (s[k] == '+' || s[k] == '-') {
					k++
				}
				if k < len(s) && unicode.IsDigit(rune(s[k])) {
					j = k
					for j < len(s) && unicode.IsDigit(rune(s[j])) {
						j++
					}
				}
			}
			v, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return p.errorf("number %q at %d", s[i:j], i)
			}
			p.toks = append(p.toks, token{kind: tokNum, text: s[i:j], num: v, pos: i})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(s) && (unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j])) || s[j] == '_' || s[j] == '.') {
				j++
			}
			p.toks = append(p.toks, token{kind: tokIdent, text: s[i:j], pos: i})
			i = j
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			p.toks = append(p.toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", c):
			p.toks = append(p.toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			p.toks = append(p.toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			p.toks = append(p.toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			p.toks = append(p.toks, token{kind: tokComma, text: ",", pos: i})
			i++
		default:
			return p.errorf("unexpected character %q at %d", c, i)
		}
	}
	p.toks = append(p.toks, token{kind: tokEOF, pos: len(s)})
	return nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

type node = func(args []float64) float64

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		if t.text == "+" {
			left = func(a []float64) float64 { return l(a) + r(a) }
		} else {
			left = func(a []float64) float64 { return l(a) - r(a) }
		}
	}
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		if t.text == "*" {
			left = func(a []float64) float64 { return l(a) * r(a) }
		} else {
			left = func(a []float64) float64 { return l(a) / r(a) }
		}
	}
}

func (p *parser) unary() (node, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return func(a []float64) float64 { return -operand(a) }, nil
		}
		return operand, nil
	}
	return p.power()
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "^" {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return func(a []float64) float64 { return math.Pow(base(a), exp(a)) }, nil
	}
	return base, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		v := t.num
		return func([]float64) float64 { return v }, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, p.errorf("missing ')' for '(' at %d", t.pos)
		}
		return inner, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		for i, v := range p.vars {
			if v == t.text {
				idx := i
				return func(a []float64) float64 { return a[idx] }, nil
			}
		}
		return nil, p.errorf("unknown name %q (allowed %v)", t.text, p.vars)
	case tokEOF:
		return nil, p.errorf("unexpected end of expression")
	default:
		return nil, p.errorf("unexpected %q at %d", t.text, t.pos)
	}
}

func (p *parser) call(name token) (node, error) {
	var op func(x, y float64) float64
	switch name.text {
	case "np.maximum", "max":
		op = math.Max
	case "np.minimum", "min":
		op = math.Min
	default:
		return nil, p.errorf("unknown function %q", name.text)
	}
	p.next()
	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.next().kind != tokComma {
		return nil, p.errorf("%s takes two arguments", name.text)
	}
	y, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.next().kind != tokRParen {
		return nil, p.errorf("missing ')' after %s arguments", name.text)
	}
	return func(a []float64) float64 { return op(x(a), y(a)) }, nil
}
