package brew

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

const mockSearchFormulae = `==> Formulae
wget ✔
wget2
`

const mockSearchColumns = `aria2   curl    wget`

func TestParseSearchOutput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		category Category
		want     []string
	}{
		{name: "header and installed mark", input: mockSearchFormulae, category: CategoryFormula, want: []string{"wget", "wget2"}},
		{name: "column layout", input: mockSearchColumns, category: CategoryFormula, want: []string{"aria2", "curl", "wget"}},
		{name: "empty", input: "", category: CategoryCask, want: []string{}},
		{name: "duplicates kept", input: "foo\nfoo\n", category: CategoryCask, want: []string{"foo", "foo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSearchOutput([]byte(tt.input), tt.category)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d packages, want %d", len(got), len(tt.want))
			}
			seen := make(map[uuid.UUID]bool)
			for i, pkg := range got {
				if pkg.Name != tt.want[i] {
					t.Errorf("package[%d] = %s, want %s", i, pkg.Name, tt.want[i])
				}
				if pkg.Category != tt.category {
					t.Errorf("package[%d] category = %s, want %s", i, pkg.Category, tt.category)
				}
				if seen[pkg.Token] {
					t.Errorf("package[%d] reuses token %s", i, pkg.Token)
				}
				seen[pkg.Token] = true
			}
		})
	}
}

func TestSearch(t *testing.T) {
	runner := NewFakeRunner().
		On(SearchArgs(CategoryFormula, "wget"), mockSearchFormulae).
		OnError(SearchArgs(CategoryCask, "wget"), &ProcessError{
			Args:     SearchArgs(CategoryCask, "wget"),
			ExitCode: 1,
			Stderr:   `Error: No formulae or casks found for "wget".`,
			Err:      errors.New("exit status 1"),
		})

	formulae, casks, err := Search(context.Background(), runner, "wget")
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(formulae) != 2 {
		t.Errorf("len(formulae) = %d, want 2", len(formulae))
	}
	if casks == nil || len(casks) != 0 {
		t.Errorf("casks = %v, want empty slice", casks)
	}
}

func TestSearch_RealFailure(t *testing.T) {
	runner := NewFakeRunner().
		OnError(SearchArgs(CategoryFormula, "wget"), &ProcessError{
			Args:     SearchArgs(CategoryFormula, "wget"),
			ExitCode: 1,
			Stderr:   "Error: Homebrew is not configured",
			Err:      errors.New("exit status 1"),
		})

	_, _, err := Search(context.Background(), runner, "wget")
	if !errors.Is(err, ErrProcess) {
		t.Errorf("err = %v, want ErrProcess", err)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	runner := NewFakeRunner()
	if _, _, err := Search(context.Background(), runner, "   "); err == nil {
		t.Error("Search() with blank query should fail")
	}
	if runner.CallCount() != 0 {
		t.Errorf("blank query should not invoke brew, got %d calls", runner.CallCount())
	}
}

func TestParseCategory(t *testing.T) {
	for _, s := range []string{"formula", "Formula", "formulae"} {
		if c, err := ParseCategory(s); err != nil || c != CategoryFormula {
			t.Errorf("ParseCategory(%q) = %v, %v", s, c, err)
		}
	}
	if c, err := ParseCategory("cask"); err != nil || c != CategoryCask {
		t.Errorf("ParseCategory(cask) = %v, %v", c, err)
	}
	if _, err := ParseCategory("bottle"); err == nil {
		t.Error("ParseCategory(bottle) should fail")
	}
}

func TestInventory(t *testing.T) {
	runner := NewFakeRunner().
		On([]string{"list", "--formula", "-1"}, "openssl@3\nlibidn2\n").
		On([]string{"list", "--cask", "-1"}, "firefox\n")

	inv, err := LoadInventory(context.Background(), runner)
	if err != nil {
		t.Fatalf("LoadInventory() failed: %v", err)
	}

	deps := []Dependency{
		{Name: "openssl@3", Kind: DependencyRuntime},
		{Name: "homebrew/core/libidn2", Kind: DependencyRuntime},
		{Name: "pkgconf", Kind: DependencyBuild},
		{Name: "firefox", Kind: DependencyCask},
		{Name: "firefox", Kind: DependencyFormula},
	}
	inv.Mark(deps)

	want := []bool{true, true, false, true, false}
	for i, dep := range deps {
		if dep.Installed != want[i] {
			t.Errorf("deps[%d] (%s/%s) Installed = %v, want %v", i, dep.Kind, dep.Name, dep.Installed, want[i])
		}
	}

	var nilInv *Inventory
	if nilInv.Has(CategoryFormula, "openssl@3") {
		t.Error("nil inventory should report nothing installed")
	}
}
