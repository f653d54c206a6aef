package brew

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// infoDocument represents the structure of `brew info --json=v2` output.
// Only one of the two slices is populated, depending on --cask.
type infoDocument struct {
	Formulae []formulaInfo `json:"formulae"`
	Casks    []caskInfo    `json:"casks"`
}

// formulaInfo is the subset of a formula entry that the preview needs.
type formulaInfo struct {
	Name              string   `json:"name"`
	FullName          string   `json:"full_name"`
	Desc              string   `json:"desc"`
	Homepage          string   `json:"homepage"`
	Tap               string   `json:"tap"`
	Dependencies      []string `json:"dependencies"`
	BuildDependencies []string `json:"build_dependencies"`
}

// caskInfo is the subset of a cask entry that the preview needs.
// desc is frequently null for casks.
type caskInfo struct {
	Token     string        `json:"token"`
	FullToken string        `json:"full_token"`
	Desc      *string       `json:"desc"`
	Homepage  string        `json:"homepage"`
	Tap       string        `json:"tap"`
	DependsOn caskDependsOn `json:"depends_on"`
}

// caskDependsOn holds the package dependencies of a cask. Other keys
// (macos, arch) are not packages and are ignored.
type caskDependsOn struct {
	Formula []string `json:"formula"`
	Cask    []string `json:"cask"`
}

// InfoArgs returns the brew arguments that fetch JSON metadata for pkg.
func InfoArgs(pkg Package) []string {
	if pkg.IsCask() {
		return []string{"info", "--json=v2", "--cask", pkg.Name}
	}
	return []string{"info", "--json=v2", pkg.Name}
}

// FetchMetadata runs brew info for pkg and parses the result with the
// extractor for the package's category.
func FetchMetadata(ctx context.Context, r Runner, pkg Package) (Metadata, error) {
	args := InfoArgs(pkg)

	output, err := r.Output(ctx, args...)
	if err != nil {
		return Metadata{}, err
	}
	if len(bytes.TrimSpace(output)) == 0 {
		return Metadata{}, &ProcessError{Args: args, Err: errEmptyOutput}
	}

	return ParseInfo(pkg, output)
}

// ParseInfo dispatches to the extractor matching pkg.Category.
func ParseInfo(pkg Package, data []byte) (Metadata, error) {
	if pkg.IsCask() {
		return ParseCaskInfo(pkg.Name, data)
	}
	return ParseFormulaInfo(pkg.Name, data)
}

// ParseFormulaInfo extracts metadata from a formula info document.
func ParseFormulaInfo(name string, data []byte) (Metadata, error) {
	doc, err := decodeInfo(CategoryFormula, name, data)
	if err != nil {
		return Metadata{}, err
	}
	if len(doc.Formulae) == 0 {
		return Metadata{}, &ParseError{Category: CategoryFormula, Name: name, Field: "formulae", Err: errors.New("no formula entry")}
	}

	f := doc.Formulae[0]
	if strings.TrimSpace(f.Tap) == "" {
		return Metadata{}, missingField(CategoryFormula, name, "tap")
	}
	homepage, err := parseHomepage(CategoryFormula, name, f.Homepage)
	if err != nil {
		return Metadata{}, err
	}

	deps := make([]Dependency, 0, len(f.Dependencies)+len(f.BuildDependencies))
	for _, dep := range f.Dependencies {
		deps = append(deps, Dependency{Name: dep, Kind: DependencyRuntime})
	}
	for _, dep := range f.BuildDependencies {
		deps = append(deps, Dependency{Name: dep, Kind: DependencyBuild})
	}

	return Metadata{
		Description:  f.Desc,
		Homepage:     homepage,
		Tap:          f.Tap,
		Dependencies: deps,
	}, nil
}

// ParseCaskInfo extracts metadata from a cask info document.
func ParseCaskInfo(name string, data []byte) (Metadata, error) {
	doc, err := decodeInfo(CategoryCask, name, data)
	if err != nil {
		return Metadata{}, err
	}
	if len(doc.Casks) == 0 {
		return Metadata{}, &ParseError{Category: CategoryCask, Name: name, Field: "casks", Err: errors.New("no cask entry")}
	}

	c := doc.Casks[0]
	if strings.TrimSpace(c.Tap) == "" {
		return Metadata{}, missingField(CategoryCask, name, "tap")
	}
	homepage, err := parseHomepage(CategoryCask, name, c.Homepage)
	if err != nil {
		return Metadata{}, err
	}

	deps := make([]Dependency, 0, len(c.DependsOn.Formula)+len(c.DependsOn.Cask))
	for _, dep := range c.DependsOn.Formula {
		deps = append(deps, Dependency{Name: dep, Kind: DependencyFormula})
	}
	for _, dep := range c.DependsOn.Cask {
		deps = append(deps, Dependency{Name: dep, Kind: DependencyCask})
	}

	var desc string
	if c.Desc != nil {
		desc = *c.Desc
	}

	return Metadata{
		Description:  desc,
		Homepage:     homepage,
		Tap:          c.Tap,
		Dependencies: deps,
	}, nil
}

func decodeInfo(category Category, name string, data []byte) (*infoDocument, error) {
	var doc infoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Category: category, Name: name, Err: err}
	}
	return &doc, nil
}

func parseHomepage(category Category, name, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, missingField(category, name, "homepage")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ParseError{Category: category, Name: name, Field: "homepage", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &ParseError{Category: category, Name: name, Field: "homepage", Err: fmt.Errorf("not an absolute URL: %q", raw)}
	}
	return u, nil
}

func missingField(category Category, name, field string) error {
	return &ParseError{Category: category, Name: name, Field: field, Err: errors.New("missing or empty")}
}
