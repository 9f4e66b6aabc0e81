// Package cabal extracts flat package descriptors from raw cabal metadata.
// The grammar is indentation-based: top-level fields, named sections
// (library, executable, flag, ...) and conditional blocks gated by
// platform and flag predicates. Conditionals are resolved eagerly against
// a platform identity, never left deferred.
package cabal

import "strings"

// field is one "name: value" entry. Names are lower-cased; continuation
// lines are joined with newlines.
type field struct {
	name  string
	value string
}

// section is a named stanza ("library", "executable foo", "if os(linux)")
// with its own nested block.
type section struct {
	kind string // lower-cased keyword
	arg  string // remainder of the header line, e.g. the condition of an if
	body *block
}

// block is one indentation level: its fields and subsections, in order.
type block struct {
	fields   []field
	sections []*section
}

// get returns the first value of the named field, or "".
func (b *block) get(name string) string {
	for _, f := range b.fields {
		if f.name == name {
			return f.value
		}
	}
	return ""
}

var sectionKeywords = []string{
	"library",
	"executable",
	"test-suite",
	"benchmark",
	"foreign-library",
	"flag",
	"common",
	"source-repository",
	"custom-setup",
	"if",
	"elif",
	"else",
}

// parse decodes cabal text into a block tree. It is total: unrecognized
// lines are dropped rather than failing, matching the lenient decode stage.
func parse(text string) *block {
	ls := splitLines(text)
	pos := 0
	nodes := buildTree(ls, &pos, 0)
	return interpret(nodes)
}

type line struct {
	indent int
	text   string
}

func splitLines(text string) []line {
	var out []line
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimLeft(raw, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		indent := 0
		for _, c := range raw {
			if c == ' ' {
				indent++
			} else if c == '\t' {
				indent += 8
			} else {
				break
			}
		}
		out = append(out, line{indent: indent, text: trimmed})
	}
	return out
}

// lineNode is a line plus every following line indented deeper than it.
type lineNode struct {
	text     string
	children []*lineNode
}

func buildTree(ls []line, pos *int, indent int) []*lineNode {
	var nodes []*lineNode
	for *pos < len(ls) && ls[*pos].indent >= indent {
		cur := ls[*pos].indent
		n := &lineNode{text: ls[*pos].text}
		*pos++
		if *pos < len(ls) && ls[*pos].indent > cur {
			n.children = buildTree(ls, pos, ls[*pos].indent)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func interpret(nodes []*lineNode) *block {
	b := &block{}
	for _, n := range nodes {
		if kind, arg, ok := sectionHeader(n.text); ok {
			b.sections = append(b.sections, &section{
				kind: kind,
				arg:  arg,
				body: interpret(n.children),
			})
			continue
		}
		if name, value, ok := fieldLine(n.text); ok {
			b.fields = append(b.fields, field{
				name:  name,
				value: joinContinuation(value, n.children),
			})
		}
	}
	return b
}

func sectionHeader(text string) (kind, arg string, ok bool) {
	lower := strings.ToLower(text)
	for _, k := range sectionKeywords {
		if lower == k {
			return k, "", true
		}
		// "if os(linux)" but also "if(os(linux))".
		if strings.HasPrefix(lower, k+" ") || (k == "if" && strings.HasPrefix(lower, "if(")) {
			return k, strings.TrimSpace(text[len(k):]), true
		}
	}
	return "", "", false
}

func fieldLine(text string) (name, value string, ok bool) {
	idx := strings.Index(text, ":")
	if idx <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(text[:idx])
	if strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(text[idx+1:]), true
}

func joinContinuation(value string, children []*lineNode) string {
	parts := []string{value}
	var flatten func(ns []*lineNode)
	flatten = func(ns []*lineNode) {
		for _, n := range ns {
			parts = append(parts, n.text)
			flatten(n.children)
		}
	}
	flatten(children)
	for len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	return strings.Join(parts, "\n")
}
