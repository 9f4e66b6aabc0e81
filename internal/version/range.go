package version

import (
	"fmt"
	"strings"
)

// Range is an immutable predicate over versions. Ranges are built from the
// comparison primitives ==, <, <=, > and >=, the wildcard form ==X.Y.*
// (equivalent to >=X.Y && <X.Y+1), the caret form ^>=X.Y.Z (equivalent to
// >=X.Y.Z && <X.Y+1) and the combinators && and ||. "-any" accepts every
// version.
type Range interface {
	// Satisfies reports whether v is accepted by the range.
	Satisfies(v Version) bool

	String() string
}

// Any returns the range accepting every version.
func Any() Range {
	return anyVersion{}
}

type anyVersion struct{}

func (anyVersion) Satisfies(Version) bool { return true }
func (anyVersion) String() string         { return "-any" }

type comparison struct {
	op string // one of "==", "<", "<=", ">", ">="
	v  Version
}

func (c comparison) Satisfies(v Version) bool {
	cmp := Compare(v, c.v)
	switch c.op {
	case "==":
		return cmp == 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

func (c comparison) String() string {
	return c.op + c.v.String()
}

// wildcard is ==X.Y.*: the half-open interval [X.Y, X.Y+1).
type wildcard struct {
	v Version
}

func (w wildcard) Satisfies(v Version) bool {
	return Compare(v, w.v) >= 0 && Compare(v, bump(w.v)) < 0
}

func (w wildcard) String() string {
	return "==" + w.v.String() + ".*"
}

// bump returns the smallest version above every v.* version: the declared
// components with the last one incremented.
func bump(v Version) Version {
	up := make(Version, len(v))
	copy(up, v)
	up[len(up)-1]++
	return up
}

// majorUpper returns the exclusive upper bound of a caret range: the first
// two components with the second incremented (X.Y.Z maps to X.Y+1, a lone
// X maps to X.1).
func majorUpper(v Version) Version {
	if len(v) == 1 {
		return Version{v[0], 1}
	}
	return Version{v[0], v[1] + 1}
}

type conj struct {
	l, r Range
}

func (c conj) Satisfies(v Version) bool {
	return c.l.Satisfies(v) && c.r.Satisfies(v)
}

func (c conj) String() string {
	return group(c.l) + " && " + group(c.r)
}

type disj struct {
	l, r Range
}

func (d disj) Satisfies(v Version) bool {
	return d.l.Satisfies(v) || d.r.Satisfies(v)
}

func (d disj) String() string {
	return group(d.l) + " || " + group(d.r)
}

func group(r Range) string {
	switch r.(type) {
	case conj, disj:
		return "(" + r.String() + ")"
	}
	return r.String()
}

// ParseRange parses a version range. The empty string is rejected: an empty
// range is not representable, callers wanting "anything" pass "-any".
func ParseRange(s string) (Range, error) {
	p := &rangeParser{input: s}
	p.next()
	if p.tok == "" {
		return nil, fmt.Errorf("empty version range")
	}

	r, err := p.parseDisj()
	if err != nil {
		return nil, fmt.Errorf("invalid version range %q: %w", s, err)
	}
	if p.tok != "" {
		return nil, fmt.Errorf("invalid version range %q: trailing %q", s, p.tok)
	}

	return r, nil
}

// rangeParser is a recursive-descent parser over the token stream. Grammar,
// loosest binding first:
//
//	disj   := conj ("||" conj)*
//	conj   := atom ("&&" atom)*
//	atom   := "(" disj ")" | "-any" | op version
type rangeParser struct {
	input string
	tok   string // current token, "" at end of input
}

var rangeOps = []string{"^>=", "==", "<=", ">=", "<", ">", "&&", "||", "(", ")"}

// next advances to the following token. Tokens are operators, parentheses,
// "-any" and version literals (digits, dots and a trailing wildcard star).
func (p *rangeParser) next() {
	p.input = strings.TrimLeft(p.input, " \t")
	if p.input == "" {
		p.tok = ""
		return
	}

	for _, op := range rangeOps {
		if strings.HasPrefix(p.input, op) {
			p.tok = op
			p.input = p.input[len(op):]
			return
		}
	}
	if strings.HasPrefix(p.input, "-any") {
		p.tok = "-any"
		p.input = p.input[len("-any"):]
		return
	}

	i := 0
	for i < len(p.input) {
		c := p.input[i]
		if (c < '0' || c > '9') && c != '.' && c != '*' {
			break
		}
		i++
	}
	if i == 0 {
		// Unrecognized character: emit it as its own token so it is
		// rejected instead of reading like end of input.
		p.tok = p.input[:1]
		p.input = p.input[1:]
		return
	}
	p.tok = p.input[:i]
	p.input = p.input[i:]
}

func (p *rangeParser) parseDisj() (Range, error) {
	l, err := p.parseConj()
	if err != nil {
		return nil, err
	}
	for p.tok == "||" {
		p.next()
		r, err := p.parseConj()
		if err != nil {
			return nil, err
		}
		l = disj{l, r}
	}
	return l, nil
}

func (p *rangeParser) parseConj() (Range, error) {
	l, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.tok == "&&" {
		p.next()
		r, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		l = conj{l, r}
	}
	return l, nil
}

func (p *rangeParser) parseAtom() (Range, error) {
	switch p.tok {
	case "":
		return nil, fmt.Errorf("unexpected end of range")
	case "(":
		p.next()
		r, err := p.parseDisj()
		if err != nil {
			return nil, err
		}
		if p.tok != ")" {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.next()
		return r, nil
	case "-any":
		p.next()
		return anyVersion{}, nil
	case "==", "<", "<=", ">", ">=", "^>=":
		op := p.tok
		p.next()
		return p.parseComparison(op)
	}
	return nil, fmt.Errorf("unexpected token %q", p.tok)
}

func (p *rangeParser) parseComparison(op string) (Range, error) {
	lit := p.tok
	if lit == "" {
		return nil, fmt.Errorf("missing version after %q", op)
	}
	p.next()

	if star, ok := strings.CutSuffix(lit, ".*"); ok {
		if op != "==" {
			return nil, fmt.Errorf("wildcard version after %q", op)
		}
		v, err := Parse(star)
		if err != nil {
			return nil, err
		}
		return wildcard{v}, nil
	}

	v, err := Parse(lit)
	if err != nil {
		return nil, err
	}
	if op == "^>=" {
		// ^>=X.Y.Z is sugar for >=X.Y.Z && <X.Y+1.
		return conj{comparison{">=", v}, comparison{"<", majorUpper(v)}}, nil
	}
	return comparison{op, v}, nil
}
