// Package platform describes the target platform and compiler that
// conditional package metadata is resolved against. Discovery of the local
// compiler lives here so that index construction stays a pure function of
// its inputs; the identity is always handed in as a value.
package platform

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/soenkehahn/packdeps/internal/version"
)

// Identity is the operating system, architecture and compiler that gated
// metadata sections are evaluated against.
type Identity struct {
	OS              string // cabal convention: "linux", "osx", "windows", ...
	Arch            string // "x86_64", "aarch64", "i386", ...
	Compiler        string // "ghc"
	CompilerVersion version.Version
}

func (id Identity) String() string {
	return fmt.Sprintf("%s-%s/%s-%s", id.OS, id.Arch, id.Compiler, id.CompilerVersion)
}

// Provider yields the identity used for conditional metadata resolution.
type Provider interface {
	Identity() (Identity, error)
}

// Host returns the identity of the local machine paired with the given
// compiler, translating Go's platform tags into the cabal convention.
func Host(compiler string, v version.Version) Identity {
	return Identity{
		OS:              hostOS(runtime.GOOS),
		Arch:            hostArch(runtime.GOARCH),
		Compiler:        compiler,
		CompilerVersion: v,
	}
}

func hostOS(goos string) string {
	switch goos {
	case "darwin":
		return "osx"
	default:
		return goos
	}
}

func hostArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i386"
	default:
		return goarch
	}
}

// GHCProvider discovers the locally installed GHC by running it.
type GHCProvider struct {
	// Path is the ghc executable to invoke; "ghc" from $PATH when empty.
	Path string
}

// Identity runs `ghc --numeric-version` and combines the reported compiler
// version with the host platform.
func (p GHCProvider) Identity() (Identity, error) {
	path := p.Path
	if path == "" {
		path = "ghc"
	}

	out, err := exec.Command(path, "--numeric-version").Output()
	if err != nil {
		return Identity{}, fmt.Errorf("failed to run %s --numeric-version: %w", path, err)
	}

	v, err := version.Parse(strings.TrimSpace(string(out)))
	if err != nil {
		return Identity{}, fmt.Errorf("failed to parse ghc version: %w", err)
	}

	return Host("ghc", v), nil
}

// Static is a Provider returning a fixed identity.
type Static struct {
	ID Identity
}

func (s Static) Identity() (Identity, error) {
	return s.ID, nil
}
