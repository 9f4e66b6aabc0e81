package cabal

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/soenkehahn/packdeps/internal/models"
	"github.com/soenkehahn/packdeps/internal/platform"
	"github.com/soenkehahn/packdeps/internal/version"
)

// DeprecationMarker in a synopsis excludes the package from search results.
const DeprecationMarker = "(deprecated)"

// LoadDescriptor extracts a flattened descriptor from one release's raw
// metadata. Conditional sections are resolved against id with every flag at
// its declared default. The second return is false when the metadata cannot
// be parsed or its conditionals cannot be resolved; a partial descriptor is
// never returned.
func LoadDescriptor(data []byte, id platform.Identity) (*models.DescInfo, bool) {
	// Lenient decode: invalid byte sequences are replaced, never fatal.
	text := strings.ToValidUTF8(string(data), string(utf8.RuneError))
	b := parse(text)

	name := firstLine(b.get("name"))
	if name == "" {
		return nil, false
	}
	ver, err := version.Parse(firstLine(b.get("version")))
	if err != nil {
		logrus.Debugf("Skipping %s: %v", name, err)
		return nil, false
	}

	e := &env{id: id, flags: flagDefaults(b)}
	deps, err := collectDeps(b, e, commonStanzas(b), map[string]bool{})
	if err != nil {
		logrus.Debugf("Skipping %s-%s: %v", name, ver, err)
		return nil, false
	}

	author := b.get("author")
	maintainer := b.get("maintainer")

	return &models.DescInfo{
		ID:       models.PackageID{Name: name, Version: ver},
		Deps:     deps,
		Haystack: strings.ToLower(author + maintainer + name),
		Synopsis: b.get("synopsis"),
	}, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// flagDefaults collects every declared flag at its default value. Cabal
// flags default to true when no default field is given.
func flagDefaults(b *block) map[string]bool {
	flags := make(map[string]bool)
	for _, sec := range b.sections {
		if sec.kind != "flag" || sec.arg == "" {
			continue
		}
		def := !strings.EqualFold(firstLine(sec.body.get("default")), "false")
		flags[strings.ToLower(sec.arg)] = def
	}
	return flags
}

// commonStanzas collects every top-level common stanza by its lower-cased
// name, for resolution of import fields.
func commonStanzas(b *block) map[string]*block {
	commons := make(map[string]*block)
	for _, sec := range b.sections {
		if sec.kind == "common" && sec.arg != "" {
			commons[strings.ToLower(sec.arg)] = sec.body
		}
	}
	return commons
}

// collectDeps flattens every build-depends reachable for the environment:
// top-level fields (old-style packages), library and executable stanzas,
// whichever branches of their conditional blocks hold under e, and any
// common stanzas pulled in through import fields. Test-suite and benchmark
// stanzas are not built by default and contribute nothing. imported guards
// against import cycles and is reset at each stanza boundary, so two
// stanzas importing the same common each receive its dependencies.
func collectDeps(b *block, e *env, commons map[string]*block, imported map[string]bool) ([]models.Dependency, error) {
	deps := []models.Dependency{}

	for _, f := range b.fields {
		switch f.name {
		case "build-depends":
			ds, err := parseDeps(f.value)
			if err != nil {
				return nil, err
			}
			deps = append(deps, ds...)
		case "import":
			ds, err := importedDeps(f.value, e, commons, imported)
			if err != nil {
				return nil, err
			}
			deps = append(deps, ds...)
		}
	}

	for i := 0; i < len(b.sections); i++ {
		sec := b.sections[i]
		switch sec.kind {
		case "library", "executable", "foreign-library":
			ds, err := collectDeps(sec.body, e, commons, map[string]bool{})
			if err != nil {
				return nil, err
			}
			deps = append(deps, ds...)
		case "if":
			body, next, err := resolveChain(b.sections, i, e)
			if err != nil {
				return nil, err
			}
			i = next
			if body != nil {
				ds, err := collectDeps(body, e, commons, imported)
				if err != nil {
					return nil, err
				}
				deps = append(deps, ds...)
			}
		}
	}

	return deps, nil
}

// importedDeps resolves an import field's comma-separated common stanza
// names. Common stanzas may themselves import earlier ones; a name already
// pulled into the current stanza is not expanded twice.
func importedDeps(value string, e *env, commons map[string]*block, imported map[string]bool) ([]models.Dependency, error) {
	var deps []models.Dependency
	for _, name := range strings.Split(strings.ReplaceAll(value, "\n", " "), ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		body, ok := commons[name]
		if !ok {
			return nil, fmt.Errorf("import of undeclared common stanza %q", name)
		}
		if imported[name] {
			continue
		}
		imported[name] = true

		ds, err := collectDeps(body, e, commons, imported)
		if err != nil {
			return nil, err
		}
		deps = append(deps, ds...)
	}
	return deps, nil
}

// resolveChain evaluates an if/elif/else chain starting at index i and
// returns the body of the first branch that holds (nil when none does) plus
// the index of the chain's last section.
func resolveChain(sections []*section, i int, e *env) (*block, int, error) {
	var chosen *block
	decided := false

	cond, err := parseCond(sections[i].arg)
	if err != nil {
		return nil, i, err
	}
	hold, err := cond.eval(e)
	if err != nil {
		return nil, i, err
	}
	if hold {
		chosen = sections[i].body
		decided = true
	}

	for i+1 < len(sections) {
		sec := sections[i+1]
		if sec.kind == "elif" {
			i++
			if decided {
				continue
			}
			cond, err := parseCond(sec.arg)
			if err != nil {
				return nil, i, err
			}
			hold, err := cond.eval(e)
			if err != nil {
				return nil, i, err
			}
			if hold {
				chosen = sec.body
				decided = true
			}
			continue
		}
		if sec.kind == "else" {
			i++
			if !decided {
				chosen = sec.body
			}
		}
		break
	}

	return chosen, i, nil
}

// parseDeps splits a build-depends value into (name, range) pairs. Order
// and duplicates are preserved. An item without a constraint accepts any
// version.
func parseDeps(value string) ([]models.Dependency, error) {
	value = strings.ReplaceAll(value, "\n", " ")

	var deps []models.Dependency
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		i := 0
		for i < len(item) && isIdentChar(item[i]) {
			i++
		}
		if i == 0 {
			return nil, fmt.Errorf("invalid dependency %q", item)
		}
		name := item[:i]

		rng := version.Any()
		if rest := strings.TrimSpace(item[i:]); rest != "" {
			var err error
			rng, err = version.ParseRange(rest)
			if err != nil {
				return nil, err
			}
		}

		deps = append(deps, models.Dependency{Name: name, Range: rng})
	}

	return deps, nil
}
