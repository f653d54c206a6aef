package brew

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Category tells formulae and casks apart. The two use different flags on
// the brew command line and different JSON document shapes.
type Category int

const (
	CategoryFormula Category = iota
	CategoryCask
)

// String returns "formula" or "cask".
func (c Category) String() string {
	if c == CategoryCask {
		return "cask"
	}
	return "formula"
}

// ParseCategory parses the string form produced by Category.String.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "formula", "formulae":
		return CategoryFormula, nil
	case "cask", "casks":
		return CategoryCask, nil
	default:
		return CategoryFormula, fmt.Errorf("unknown package category %q", s)
	}
}

// Package is a search result. The Token is minted when the result is produced
// and is the only handle the UI layer holds on to.
type Package struct {
	Name     string
	Category Category
	Token    uuid.UUID
}

// NewPackage returns a package with a fresh selection token.
func NewPackage(name string, category Category) Package {
	return Package{
		Name:     name,
		Category: category,
		Token:    uuid.New(),
	}
}

// IsCask reports whether the package is a cask.
func (p Package) IsCask() bool {
	return p.Category == CategoryCask
}

// DependencyKind records where a dependency was declared in the info document.
type DependencyKind string

const (
	DependencyRuntime DependencyKind = "runtime" // formula "dependencies"
	DependencyBuild   DependencyKind = "build"   // formula "build_dependencies"
	DependencyFormula DependencyKind = "formula" // cask depends_on.formula
	DependencyCask    DependencyKind = "cask"    // cask depends_on.cask
)

// Dependency is a single dependency of a previewed package.
type Dependency struct {
	Name      string
	Kind      DependencyKind
	Installed bool // satisfied by the local inventory
}

// Metadata is the preview of a single package.
// A nil Dependencies slice means "not loaded yet"; an empty one means the
// package has no dependencies.
type Metadata struct {
	Description  string
	Homepage     *url.URL
	Tap          string
	Dependencies []Dependency
}

// HomepageString returns the homepage URL or "" when unset.
func (m Metadata) HomepageString() string {
	if m.Homepage == nil {
		return ""
	}
	return m.Homepage.String()
}

// Clone returns a copy that shares no mutable state with m.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Homepage != nil {
		u := *m.Homepage
		out.Homepage = &u
	}
	if m.Dependencies != nil {
		out.Dependencies = make([]Dependency, len(m.Dependencies))
		copy(out.Dependencies, m.Dependencies)
	}
	return out
}
