package pixelmath

import (
	"sort"
	"strings"
)

type nodeKind int

const (
	nodeNumber nodeKind = iota
	nodeVar
	nodeNeg
	nodeBinary
	nodeCall
)

// Variable slots.
const (
	varT = iota
	varMean
	varMedian
	varMin
	varMax
)

var variables = map[string]int{
	"t":      varT,
	"mean":   varMean,
	"median": varMedian,
	"min":    varMin,
	"max":    varMax,
}

// arity bounds per function; clamp takes an optional upper bound.
var functions = map[string][2]int{
	"min":   {2, 2},
	"max":   {2, 2},
	"abs":   {1, 1},
	"sqrt":  {1, 1},
	"log":   {1, 1},
	"ln":    {1, 1},
	"log10": {1, 1},
	"exp":   {1, 1},
	"sin":   {1, 1},
	"cos":   {1, 1},
	"atan2": {2, 2},
	"clamp": {1, 2},
	"pow":   {2, 2},
	"avg":   {2, 2},
	"round": {1, 1},
	"floor": {1, 1},
	"ceil":  {1, 1},
	"iif":   {2, 2},
}

// Functions lists the supported function names, sorted.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type node struct {
	kind nodeKind
	num  float64 // nodeNumber
	slot int     // nodeVar
	op   byte    // nodeBinary
	fn   string  // nodeCall
	args []*node
}

// Expr is a parsed expression, safe for concurrent evaluation.
type Expr struct {
	src  string
	root *node
}

func (e *Expr) String() string { return e.src }

// Parse compiles src. Errors are *SyntaxError.
func Parse(src string) (*Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errorf(t.pos, "unexpected %s", t)
	}
	return &Expr{src: src, root: root}, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops string) (byte, bool) {
	t := p.peek()
	if t.kind == tokOp && strings.Contains(ops, t.text) {
		return t.text[0], true
	}
	return 0, false
}

func (p *parser) expect(op string) error {
	t := p.next()
	if t.kind != tokOp || t.text != op {
		return errorf(t.pos, "expected %q, found %s", op, t)
	}
	return nil
}

// expr := term (('+'|'-') term)*
func (p *parser) expr() (*node, error) {
	return p.binary("+-", p.term)
}

// term := power (('*'|'/') power)*
func (p *parser) term() (*node, error) {
	return p.binary("*/", p.power)
}

// power := unary ('^' unary)*
func (p *parser) power() (*node, error) {
	return p.binary("^", p.unary)
}

func (p *parser) binary(ops string, operand func() (*node, error)) (*node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp(ops)
		if !ok {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeBinary, op: op, args: []*node{left, right}}
	}
}

// unary := '-'? atom
func (p *parser) unary() (*node, error) {
	if _, ok := p.isOp("-"); ok {
		p.next()
		operand, err := p.atom()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeNeg, args: []*node{operand}}, nil
	}
	return p.atom()
}

// atom := number | variable | '(' expr ')' | funcname '(' expr (',' expr)? ')'
func (p *parser) atom() (*node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &node{kind: nodeNumber, num: t.num}, nil
	case tokVariable:
		slot, ok := variables[strings.ToLower(t.text)]
		if !ok {
			return nil, errorf(t.pos, "unknown variable %s", t)
		}
		return &node{kind: nodeVar, slot: slot}, nil
	case tokIdent:
		return p.call(t)
	case tokOp:
		if t.text == "(" {
			inner, err := p.expr()
			if err != nil {
				return nil, err
			}
			return inner, p.expect(")")
		}
	}
	return nil, errorf(t.pos, "unexpected %s", t)
}

func (p *parser) call(name token) (*node, error) {
	fn := strings.ToLower(name.text)
	arity, ok := functions[fn]
	if !ok {
		return nil, errorf(name.pos, "unknown function %q", name.text)
	}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []*node
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, more := p.isOp(","); !more {
			break
		}
		p.next()
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	switch {
	case len(args) >= arity[0] && len(args) <= arity[1]:
	case arity[0] == arity[1]:
		return nil, errorf(name.pos, "%s takes %d argument(s), got %d", fn, arity[0], len(args))
	default:
		return nil, errorf(name.pos, "%s takes %d to %d arguments, got %d", fn, arity[0], arity[1], len(args))
	}
	return &node{kind: nodeCall, fn: fn, args: args}, nil
}
