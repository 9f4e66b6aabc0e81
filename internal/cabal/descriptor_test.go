package cabal

import (
	"strings"
	"testing"

	"github.com/soenkehahn/packdeps/internal/platform"
	"github.com/soenkehahn/packdeps/internal/version"
)

func testIdentity() platform.Identity {
	return platform.Identity{
		OS:              "linux",
		Arch:            "x86_64",
		Compiler:        "ghc",
		CompilerVersion: version.Version{9, 4, 8},
	}
}

const simpleCabal = `name:           yackage
version:        0.5.1
synopsis:       Personal Hackage replacement
author:         Michael Snoyman
maintainer:     michael@example.com
build-type:     Simple

library
  build-depends: base >=4 && <5
               , bytestring
               , containers ==0.6.*
  exposed-modules: Yackage
`

func TestLoadDescriptorSimple(t *testing.T) {
	di, ok := LoadDescriptor([]byte(simpleCabal), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}

	if di.ID.Name != "yackage" {
		t.Errorf("name = %q, want yackage", di.ID.Name)
	}
	if di.ID.Version.String() != "0.5.1" {
		t.Errorf("version = %s, want 0.5.1", di.ID.Version)
	}
	if di.Synopsis != "Personal Hackage replacement" {
		t.Errorf("synopsis = %q", di.Synopsis)
	}

	wantDeps := []string{"base", "bytestring", "containers"}
	if len(di.Deps) != len(wantDeps) {
		t.Fatalf("got %d deps %v, want %d", len(di.Deps), di.Deps, len(wantDeps))
	}
	for i, name := range wantDeps {
		if di.Deps[i].Name != name {
			t.Errorf("dep %d = %q, want %q", i, di.Deps[i].Name, name)
		}
	}

	if !di.Deps[0].Range.Satisfies(version.Version{4, 19}) {
		t.Error("base range should accept 4.19")
	}
	if di.Deps[0].Range.Satisfies(version.Version{5}) {
		t.Error("base range should reject 5")
	}
	if !di.Deps[1].Range.Satisfies(version.Version{99}) {
		t.Error("unconstrained dependency should accept anything")
	}
}

func TestLoadDescriptorHaystack(t *testing.T) {
	di, ok := LoadDescriptor([]byte(simpleCabal), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}

	want := strings.ToLower("Michael Snoyman" + "michael@example.com" + "yackage")
	if di.Haystack != want {
		t.Errorf("haystack = %q, want %q", di.Haystack, want)
	}
	// Search must tolerate run-together author/maintainer/name text.
	if !strings.Contains(di.Haystack, "snoymanmichael@") {
		t.Errorf("haystack %q should run author and maintainer together", di.Haystack)
	}
}

const conditionalCabal = `name: condpkg
version: 1.0
author: A
maintainer: B
flag small_base
  description: Use the split-up base package
  default: True
flag debug
  default: False

library
  build-depends: base
  if os(windows)
    build-depends: Win32
  else
    build-depends: unix >=2.7
  if flag(debug)
    build-depends: hslogger
  if impl(ghc >= 9.0)
    build-depends: ghc-bignum ==1.*
`

func TestLoadDescriptorConditionals(t *testing.T) {
	di, ok := LoadDescriptor([]byte(conditionalCabal), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}

	var names []string
	for _, d := range di.Deps {
		names = append(names, d.Name)
	}

	want := []string{"base", "unix", "ghc-bignum"}
	if len(names) != len(want) {
		t.Fatalf("deps = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("deps = %v, want %v", names, want)
		}
	}
}

func TestLoadDescriptorWindowsBranch(t *testing.T) {
	id := testIdentity()
	id.OS = "windows"

	di, ok := LoadDescriptor([]byte(conditionalCabal), id)
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}

	for _, d := range di.Deps {
		if d.Name == "unix" {
			t.Error("unix should only be required off windows")
		}
	}
	found := false
	for _, d := range di.Deps {
		if d.Name == "Win32" {
			found = true
		}
	}
	if !found {
		t.Errorf("Win32 missing from deps %v", di.Deps)
	}
}

func TestLoadDescriptorDuplicatesPreserved(t *testing.T) {
	text := `name: duped
version: 0.1
library
  build-depends: base >=4, base <5
executable duped
  build-depends: base
`
	di, ok := LoadDescriptor([]byte(text), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}
	if len(di.Deps) != 3 {
		t.Fatalf("got %d deps %v, want 3 (duplicates preserved)", len(di.Deps), di.Deps)
	}
}

func TestLoadDescriptorTestSuitesExcluded(t *testing.T) {
	text := `name: tested
version: 0.1
library
  build-depends: base
test-suite spec
  type: exitcode-stdio-1.0
  build-depends: hspec, base
benchmark bench
  build-depends: criterion
`
	di, ok := LoadDescriptor([]byte(text), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}
	if len(di.Deps) != 1 || di.Deps[0].Name != "base" {
		t.Errorf("deps = %v, want only base", di.Deps)
	}
}

func TestLoadDescriptorCommonStanzas(t *testing.T) {
	text := `name: shared
version: 0.1
common deps
  build-depends: base >=4 && <5, text
common extra
  import: deps
  build-depends: aeson
library
  import: extra
  build-depends: containers
executable shared
  import: deps
`
	di, ok := LoadDescriptor([]byte(text), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}

	var names []string
	for _, d := range di.Deps {
		names = append(names, d.Name)
	}

	// The library pulls deps through extra; the executable imports deps
	// again and gets its own copy.
	want := []string{"base", "text", "aeson", "containers", "base", "text"}
	if len(names) != len(want) {
		t.Fatalf("deps = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("deps = %v, want %v", names, want)
		}
	}
}

func TestLoadDescriptorCommonConditional(t *testing.T) {
	text := `name: shared
version: 0.1
common posix
  if os(windows)
    build-depends: Win32
  else
    build-depends: unix
library
  import: posix
  build-depends: base
`
	di, ok := LoadDescriptor([]byte(text), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}
	if len(di.Deps) != 2 || di.Deps[0].Name != "unix" || di.Deps[1].Name != "base" {
		t.Errorf("deps = %v, want [unix base]", di.Deps)
	}
}

func TestLoadDescriptorUnusedCommonIgnored(t *testing.T) {
	text := `name: shared
version: 0.1
common unused
  build-depends: lens
library
  build-depends: base
`
	di, ok := LoadDescriptor([]byte(text), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}
	if len(di.Deps) != 1 || di.Deps[0].Name != "base" {
		t.Errorf("deps = %v, want only base (unimported commons contribute nothing)", di.Deps)
	}
}

func TestLoadDescriptorFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no name", "version: 1.0\n"},
		{"no version", "name: foo\n"},
		{"bad version", "name: foo\nversion: one.two\n"},
		{"bad range", "name: foo\nversion: 1.0\nlibrary\n  build-depends: base >=x\n"},
		{"unknown flag", "name: foo\nversion: 1.0\nlibrary\n  if flag(ghost)\n    build-depends: base\n"},
		{"bad condition", "name: foo\nversion: 1.0\nlibrary\n  if wat(x)\n    build-depends: base\n"},
		{"unknown import", "name: foo\nversion: 1.0\nlibrary\n  import: ghost\n  build-depends: base\n"},
	}

	for _, tt := range tests {
		if _, ok := LoadDescriptor([]byte(tt.text), testIdentity()); ok {
			t.Errorf("%s: LoadDescriptor should have failed", tt.name)
		}
	}
}

func TestLoadDescriptorLenientDecode(t *testing.T) {
	text := "name: latin\nversion: 1.0\nauthor: Jos\xe9\nlibrary\n  build-depends: base\n"
	di, ok := LoadDescriptor([]byte(text), testIdentity())
	if !ok {
		t.Fatal("invalid bytes must not make extraction fatal")
	}
	if di.ID.Name != "latin" {
		t.Errorf("name = %q", di.ID.Name)
	}
}

func TestLoadDescriptorOldStyle(t *testing.T) {
	// Pre-section cabal files declare build-depends at the top level.
	text := `name: ancient
version: 0.1
build-depends: base, mtl >=1 && <2
`
	di, ok := LoadDescriptor([]byte(text), testIdentity())
	if !ok {
		t.Fatal("LoadDescriptor failed")
	}
	if len(di.Deps) != 2 || di.Deps[1].Name != "mtl" {
		t.Errorf("deps = %v", di.Deps)
	}
}
