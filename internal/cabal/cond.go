package cabal

import (
	"fmt"
	"strings"

	"github.com/soenkehahn/packdeps/internal/platform"
	"github.com/soenkehahn/packdeps/internal/version"
)

// env is the fixed environment conditionals are evaluated against: the
// target platform plus every declared flag at its default value.
type env struct {
	id    platform.Identity
	flags map[string]bool
}

// condExpr is a condition over the environment. Leaves test the operating
// system, architecture, compiler or a flag; combinators are &&, || and !.
type condExpr interface {
	eval(e *env) (bool, error)
}

type condLit bool

func (c condLit) eval(*env) (bool, error) {
	return bool(c), nil
}

type condOS struct {
	name string
}

func (c condOS) eval(e *env) (bool, error) {
	if strings.EqualFold(c.name, e.id.OS) {
		return true, nil
	}
	// "darwin" and "osx" name the same platform.
	return isDarwin(c.name) && isDarwin(e.id.OS), nil
}

func isDarwin(name string) bool {
	return strings.EqualFold(name, "osx") || strings.EqualFold(name, "darwin")
}

type condArch struct {
	name string
}

func (c condArch) eval(e *env) (bool, error) {
	return strings.EqualFold(c.name, e.id.Arch), nil
}

type condImpl struct {
	compiler string
	rng      version.Range // nil accepts any compiler version
}

func (c condImpl) eval(e *env) (bool, error) {
	if !strings.EqualFold(c.compiler, e.id.Compiler) {
		return false, nil
	}
	if c.rng == nil {
		return true, nil
	}
	return c.rng.Satisfies(e.id.CompilerVersion), nil
}

type condFlag struct {
	name string
}

func (c condFlag) eval(e *env) (bool, error) {
	v, ok := e.flags[strings.ToLower(c.name)]
	if !ok {
		return false, fmt.Errorf("undeclared flag %q", c.name)
	}
	return v, nil
}

type condNot struct {
	x condExpr
}

func (c condNot) eval(e *env) (bool, error) {
	v, err := c.x.eval(e)
	return !v, err
}

type condAnd struct {
	l, r condExpr
}

func (c condAnd) eval(e *env) (bool, error) {
	l, err := c.l.eval(e)
	if err != nil {
		return false, err
	}
	if !l {
		return false, nil
	}
	return c.r.eval(e)
}

type condOr struct {
	l, r condExpr
}

func (c condOr) eval(e *env) (bool, error) {
	l, err := c.l.eval(e)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return c.r.eval(e)
}

// parseCond parses a condition expression like
//
//	os(linux) && !flag(small_base) || impl(ghc >= 8.0)
//
// with ! binding tighter than &&, which binds tighter than ||.
func parseCond(s string) (condExpr, error) {
	p := &condParser{input: s}
	p.next()
	x, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", s, err)
	}
	if p.tok != "" {
		return nil, fmt.Errorf("invalid condition %q: trailing %q", s, p.tok)
	}
	return x, nil
}

type condParser struct {
	input string
	tok   string
}

func (p *condParser) next() {
	p.input = strings.TrimLeft(p.input, " \t")
	if p.input == "" {
		p.tok = ""
		return
	}

	switch {
	case strings.HasPrefix(p.input, "&&"), strings.HasPrefix(p.input, "||"):
		p.tok = p.input[:2]
		p.input = p.input[2:]
		return
	case p.input[0] == '(' || p.input[0] == ')' || p.input[0] == '!':
		p.tok = p.input[:1]
		p.input = p.input[1:]
		return
	}

	i := 0
	for i < len(p.input) && isIdentChar(p.input[i]) {
		i++
	}
	if i == 0 {
		p.tok = p.input[:1]
		p.input = p.input[1:]
		return
	}
	p.tok = p.input[:i]
	p.input = p.input[i:]
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-' || c == '_'
}

func (p *condParser) parseOr() (condExpr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok == "||" {
		p.next()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = condOr{l, r}
	}
	return l, nil
}

func (p *condParser) parseAnd() (condExpr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok == "&&" {
		p.next()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = condAnd{l, r}
	}
	return l, nil
}

func (p *condParser) parseUnary() (condExpr, error) {
	switch p.tok {
	case "":
		return nil, fmt.Errorf("unexpected end of condition")
	case "!":
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return condNot{x}, nil
	case "(":
		p.next()
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok != ")" {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.next()
		return x, nil
	}

	ident := p.tok
	lower := strings.ToLower(ident)
	p.next()

	if lower == "true" {
		return condLit(true), nil
	}
	if lower == "false" {
		return condLit(false), nil
	}

	if p.tok != "(" {
		return nil, fmt.Errorf("expected ( after %q", ident)
	}
	arg, err := p.rawArgument()
	if err != nil {
		return nil, err
	}

	switch lower {
	case "os":
		return condOS{name: strings.TrimSpace(arg)}, nil
	case "arch":
		return condArch{name: strings.TrimSpace(arg)}, nil
	case "flag":
		return condFlag{name: strings.TrimSpace(arg)}, nil
	case "impl":
		return parseImpl(arg)
	}
	return nil, fmt.Errorf("unknown predicate %q", ident)
}

// rawArgument consumes the current "(" and returns the raw text up to its
// matching ")". impl arguments embed version ranges which have their own
// parenthesized grammar, so the argument cannot be tokenized here.
func (p *condParser) rawArgument() (string, error) {
	// p.tok is "(": the remaining input starts inside the argument.
	depth := 1
	for i := 0; i < len(p.input); i++ {
		switch p.input[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				arg := p.input[:i]
				p.input = p.input[i+1:]
				p.next()
				return arg, nil
			}
		}
	}
	return "", fmt.Errorf("missing closing parenthesis")
}

func parseImpl(arg string) (condExpr, error) {
	arg = strings.TrimSpace(arg)
	i := 0
	for i < len(arg) && isIdentChar(arg[i]) {
		i++
	}
	if i == 0 {
		return nil, fmt.Errorf("impl without compiler name")
	}

	compiler := arg[:i]
	rest := strings.TrimSpace(arg[i:])
	if rest == "" {
		return condImpl{compiler: compiler}, nil
	}

	rng, err := version.ParseRange(rest)
	if err != nil {
		return nil, err
	}
	return condImpl{compiler: compiler, rng: rng}, nil
}
