package expression

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrNotDifferentiable is returned by Derivative for text outside the
// arithmetic subset: comparisons, logic, strings and the like.
var ErrNotDifferentiable = errors.New("expression: cannot differentiate")

// Derivative is f'(x), differentiated symbolically from the text of f.
type Derivative struct {
	tree node
	err  error
}

// Derivative returns f' for e.
func (e *Expression) Derivative() Derivative { return e.deriv }

// Eval computes f'(x).
func (d Derivative) Eval(x float64) (float64, error) {
	if d.err != nil {
		return math.NaN(), d.err
	}
	return d.tree.eval(x), nil
}

func differentiate(text string) Derivative {
	tree, err := parseTree(text)
	if err != nil {
		return Derivative{err: fmt.Errorf("%w: %v", ErrNotDifferentiable, err)}
	}
	return Derivative{tree: tree.diff()}
}

// node is an arithmetic expression in x. Subtrees without x are folded into
// num when built, so a num is exactly a constant.
type node interface {
	eval(x float64) float64
	diff() node
}

type num float64

type variable struct{}

type negation struct{ u node }

type binary struct {
	op   byte // + - * / % ^
	l, r node
}

type call struct {
	name string
	arg  node
}

func (n num) eval(float64) float64 { return float64(n) }
func (num) diff() node              { return num(0) }

func (variable) eval(x float64) float64 { return x }
func (variable) diff() node             { return num(1) }

func (n negation) eval(x float64) float64 { return -n.u.eval(x) }
func (n negation) diff() node             { return negate(n.u.diff()) }

func (b binary) eval(x float64) float64 {
	l, r := b.l.eval(x), b.r.eval(x)
	switch b.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	case '%':
		return math.Mod(l, r)
	}
	return math.Pow(l, r)
}

func (b binary) diff() node {
	dl, dr := b.l.diff(), b.r.diff()
	switch b.op {
	case '+':
		return add(dl, dr)
	case '-':
		return sub(dl, dr)
	case '*':
		return add(mul(dl, b.r), mul(b.l, dr))
	case '/':
		return div(sub(mul(dl, b.r), mul(b.l, dr)), power(b.r, num(2)))
	case '%':
		return sub(dl, mul(dr, apply("trunc", div(b.l, b.r))))
	}

	// u^v
	if _, ok := b.r.(num); ok {
		return mul(mul(b.r, power(b.l, sub(b.r, num(1)))), dl)
	}
	if _, ok := b.l.(num); ok {
		return mul(mul(b, apply("ln", b.l)), dr)
	}
	return mul(b, add(mul(dr, apply("ln", b.l)), div(mul(b.r, dl), b.l)))
}

func (c call) eval(x float64) float64 { return funcByName(c.name)(c.arg.eval(x)) }

// diff applies the chain rule: outer'(u) · u'.
func (c call) diff() node {
	u := c.arg
	var outer node
	switch c.name {
	case "sin":
		outer = apply("cos", u)
	case "cos":
		outer = negate(apply("sin", u))
	case "tan":
		outer = div(num(1), power(apply("cos", u), num(2)))
	case "asin":
		outer = div(num(1), apply("sqrt", sub(num(1), power(u, num(2)))))
	case "acos":
		outer = negate(div(num(1), apply("sqrt", sub(num(1), power(u, num(2))))))
	case "atan":
		outer = div(num(1), add(num(1), power(u, num(2))))
	case "sinh":
		outer = apply("cosh", u)
	case "cosh":
		outer = apply("sinh", u)
	case "tanh":
		outer = sub(num(1), power(apply("tanh", u), num(2)))
	case "exp":
		outer = apply("exp", u)
	case "log", "ln":
		outer = div(num(1), u)
	case "log10":
		outer = div(num(1), mul(u, num(math.Ln10)))
	case "sqrt":
		outer = div(num(1), mul(num(2), apply("sqrt", u)))
	case "abs":
		outer = apply("sgn", u)
	default:
		// sgn and trunc are flat away from their jumps.
		outer = num(0)
	}
	return mul(outer, u.diff())
}

// helperFuncs appear only inside derivatives.
var helperFuncs = map[string]func(float64) float64{
	"sgn":   sign,
	"trunc": math.Trunc,
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return v
}

func funcByName(name string) func(float64) float64 {
	if fn, ok := unaryFuncs[name]; ok {
		return fn
	}
	return helperFuncs[name]
}

func apply(name string, u node) node {
	if a, ok := u.(num); ok {
		return num(funcByName(name)(float64(a)))
	}
	return call{name: name, arg: u}
}

func negate(u node) node {
	switch t := u.(type) {
	case num:
		return -t
	case negation:
		return t.u
	}
	return negation{u: u}
}

func add(l, r node) node {
	a, lc := l.(num)
	b, rc := r.(num)
	switch {
	case lc && rc:
		return a + b
	case lc && a == 0:
		return r
	case rc && b == 0:
		return l
	}
	return binary{op: '+', l: l, r: r}
}

func sub(l, r node) node {
	a, lc := l.(num)
	b, rc := r.(num)
	switch {
	case lc && rc:
		return a - b
	case rc && b == 0:
		return l
	case lc && a == 0:
		return negate(r)
	}
	return binary{op: '-', l: l, r: r}
}

func mul(l, r node) node {
	a, lc := l.(num)
	b, rc := r.(num)
	switch {
	case lc && rc:
		return a * b
	case lc && a == 0, rc && b == 0:
		return num(0)
	case lc && a == 1:
		return r
	case rc && b == 1:
		return l
	}
	return binary{op: '*', l: l, r: r}
}

func div(l, r node) node {
	a, lc := l.(num)
	b, rc := r.(num)
	switch {
	case lc && rc:
		return a / b
	case lc && a == 0:
		return num(0)
	case rc && b == 1:
		return l
	}
	return binary{op: '/', l: l, r: r}
}

func mod(l, r node) node {
	a, lc := l.(num)
	b, rc := r.(num)
	if lc && rc {
		return num(math.Mod(float64(a), float64(b)))
	}
	return binary{op: '%', l: l, r: r}
}

func power(l, r node) node {
	a, lc := l.(num)
	b, rc := r.(num)
	switch {
	case lc && rc:
		return num(math.Pow(float64(a), float64(b)))
	case rc && b == 0:
		return num(1)
	case rc && b == 1:
		return l
	}
	return binary{op: '^', l: l, r: r}
}

// parser reads the arithmetic subset of the govaluate grammar with the same
// precedence: a prefix minus binds to a single operand, then **, then
// * / %, then + -. Operators of one level associate to the left.
type parser struct {
	src string
	pos int
}

func parseTree(text string) (node, error) {
	p := &parser{src: text}
	n, err := p.sum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.unexpected()
	}
	return n, nil
}

func (p *parser) sum() (node, error) {
	l, err := p.product()
	if err != nil {
		return nil, err
	}
	for {
		var op func(node, node) node
		switch {
		case p.accept("+"):
			op = add
		case p.accept("-"):
			op = sub
		default:
			return l, nil
		}
		r, err := p.product()
		if err != nil {
			return nil, err
		}
		l = op(l, r)
	}
}

func (p *parser) product() (node, error) {
	l, err := p.power()
	if err != nil {
		return nil, err
	}
	for {
		var op func(node, node) node
		switch {
		case p.accept("*"):
			op = mul
		case p.accept("/"):
			op = div
		case p.accept("%"):
			op = mod
		default:
			return l, nil
		}
		r, err := p.power()
		if err != nil {
			return nil, err
		}
		l = op(l, r)
	}
}

func (p *parser) power() (node, error) {
	l, err := p.operand()
	if err != nil {
		return nil, err
	}
	for p.accept("**") {
		r, err := p.operand()
		if err != nil {
			return nil, err
		}
		l = power(l, r)
	}
	return l, nil
}

func (p *parser) operand() (node, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, errors.New("unexpected end of expression")
	}

	c := rune(p.src[p.pos])
	switch {
	case c == '-':
		p.pos++
		u, err := p.operand()
		if err != nil {
			return nil, err
		}
		return negate(u), nil
	case c == '(':
		p.pos++
		n, err := p.sum()
		if err != nil {
			return nil, err
		}
		if !p.accept(")") {
			return nil, p.unexpected()
		}
		return n, nil
	case isNumeric(c):
		start := p.pos
		for p.pos < len(p.src) && isNumeric(rune(p.src[p.pos])) {
			p.pos++
		}
		v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return nil, err
		}
		return num(v), nil
	case unicode.IsLetter(c):
		start := p.pos
		for p.pos < len(p.src) && isNameChar(rune(p.src[p.pos])) {
			p.pos++
		}
		return p.identifier(p.src[start:p.pos])
	}
	return nil, p.unexpected()
}

func (p *parser) identifier(name string) (node, error) {
	if name == Variable {
		return variable{}, nil
	}
	if c, ok := constants[name]; ok {
		return num(c), nil
	}

	args, err := p.arguments()
	if err != nil {
		return nil, err
	}
	if name == "pow" {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow: want 2 arguments, got %d", len(args))
		}
		return power(args[0], args[1]), nil
	}
	if _, ok := unaryFuncs[name]; !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: want 1 argument, got %d", name, len(args))
	}
	return apply(name, args[0]), nil
}

func (p *parser) arguments() ([]node, error) {
	if !p.accept("(") {
		return nil, p.unexpected()
	}
	var args []node
	for {
		arg, err := p.sum()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.accept(")") {
			return args, nil
		}
		if !p.accept(",") {
			return nil, p.unexpected()
		}
	}
}

func (p *parser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) unexpected() error {
	if p.pos >= len(p.src) {
		return errors.New("unexpected end of expression")
	}
	return fmt.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
}

func isNumeric(c rune) bool { return unicode.IsDigit(c) || c == '.' }

func isNameChar(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}
