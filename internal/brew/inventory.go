package brew

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
)

// Inventory is the set of installed formulae and casks. It is used to mark
// previewed dependencies as satisfied.
type Inventory struct {
	formulae map[string]struct{}
	casks    map[string]struct{}
}

// NewInventory builds an inventory from explicit name lists.
func NewInventory(formulae, casks []string) *Inventory {
	inv := &Inventory{
		formulae: make(map[string]struct{}, len(formulae)),
		casks:    make(map[string]struct{}, len(casks)),
	}
	for _, name := range formulae {
		inv.formulae[normalizeName(name)] = struct{}{}
	}
	for _, name := range casks {
		inv.casks[normalizeName(name)] = struct{}{}
	}
	return inv
}

// LoadInventory lists installed packages via `brew list -1`.
func LoadInventory(ctx context.Context, r Runner) (*Inventory, error) {
	formulae, err := listInstalled(ctx, r, "--formula")
	if err != nil {
		return nil, err
	}
	casks, err := listInstalled(ctx, r, "--cask")
	if err != nil {
		return nil, err
	}
	return NewInventory(formulae, casks), nil
}

func listInstalled(ctx context.Context, r Runner, flag string) ([]string, error) {
	output, err := r.Output(ctx, "list", flag, "-1")
	if err != nil {
		return nil, fmt.Errorf("brew list %s failed: %w", flag, err)
	}

	var names []string
	for _, line := range bytes.Split(output, []byte{'\n'}) {
		name := strings.TrimSpace(string(line))
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// Has reports whether the named package of the given category is installed.
// A nil inventory has nothing installed.
func (inv *Inventory) Has(category Category, name string) bool {
	if inv == nil {
		return false
	}
	set := inv.formulae
	if category == CategoryCask {
		set = inv.casks
	}
	_, ok := set[normalizeName(name)]
	return ok
}

// Mark sets Installed on each dependency in place.
func (inv *Inventory) Mark(deps []Dependency) {
	for i := range deps {
		category := CategoryFormula
		if deps[i].Kind == DependencyCask {
			category = CategoryCask
		}
		deps[i].Installed = inv.Has(category, deps[i].Name)
	}
}

// normalizeName strips a tap prefix ("user/tap/foo" -> "foo") and lowercases.
func normalizeName(name string) string {
	return strings.ToLower(path.Base(strings.TrimSpace(name)))
}
