package brew

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// Test data: trimmed `brew info --json=v2 wget` output
const mockFormulaInfoJSON = `{
  "formulae": [
    {
      "name": "wget",
      "full_name": "wget",
      "tap": "homebrew/core",
      "desc": "Internet file retriever",
      "homepage": "https://www.gnu.org/software/wget/",
      "dependencies": ["libidn2", "openssl@3"],
      "build_dependencies": ["pkgconf"],
      "installed": []
    }
  ],
  "casks": []
}`

const mockFormulaNoDepsJSON = `{
  "formulae": [
    {
      "name": "wget",
      "tap": "homebrew/core",
      "desc": "Internet file retriever",
      "homepage": "https://wget.example.org",
      "dependencies": []
    }
  ],
  "casks": []
}`

// Test data: trimmed `brew info --json=v2 --cask firefox` output
const mockCaskInfoJSON = `{
  "formulae": [],
  "casks": [
    {
      "token": "firefox",
      "full_token": "firefox",
      "tap": "homebrew/cask",
      "name": ["Mozilla Firefox"],
      "desc": "Web browser",
      "homepage": "https://www.mozilla.org/firefox/",
      "depends_on": {"macos": {">=": ["10.15"]}, "cask": ["firefox-helper"], "formula": ["xz"]}
    }
  ]
}`

const mockCaskNullDescJSON = `{
  "formulae": [],
  "casks": [
    {
      "token": "obscure",
      "tap": "homebrew/cask",
      "desc": null,
      "homepage": "https://obscure.example.com",
      "depends_on": {}
    }
  ]
}`

func TestInfoArgs(t *testing.T) {
	tests := []struct {
		name string
		pkg  Package
		want []string
	}{
		{
			name: "formula has no cask flag",
			pkg:  NewPackage("wget", CategoryFormula),
			want: []string{"info", "--json=v2", "wget"},
		},
		{
			name: "cask uses cask flag",
			pkg:  NewPackage("firefox", CategoryCask),
			want: []string{"info", "--json=v2", "--cask", "firefox"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InfoArgs(tt.pkg)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InfoArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFormulaInfo(t *testing.T) {
	md, err := ParseFormulaInfo("wget", []byte(mockFormulaInfoJSON))
	if err != nil {
		t.Fatalf("ParseFormulaInfo() failed: %v", err)
	}

	if md.Description != "Internet file retriever" {
		t.Errorf("Description = %q, want %q", md.Description, "Internet file retriever")
	}
	if md.HomepageString() != "https://www.gnu.org/software/wget/" {
		t.Errorf("Homepage = %q", md.HomepageString())
	}
	if md.Tap != "homebrew/core" {
		t.Errorf("Tap = %q, want homebrew/core", md.Tap)
	}

	want := []Dependency{
		{Name: "libidn2", Kind: DependencyRuntime},
		{Name: "openssl@3", Kind: DependencyRuntime},
		{Name: "pkgconf", Kind: DependencyBuild},
	}
	if !reflect.DeepEqual(md.Dependencies, want) {
		t.Errorf("Dependencies = %+v, want %+v", md.Dependencies, want)
	}
}

func TestParseFormulaInfo_NoDependenciesIsEmptyNotNil(t *testing.T) {
	md, err := ParseFormulaInfo("wget", []byte(mockFormulaNoDepsJSON))
	if err != nil {
		t.Fatalf("ParseFormulaInfo() failed: %v", err)
	}
	if md.Dependencies == nil {
		t.Fatal("Dependencies should be an empty slice, got nil")
	}
	if len(md.Dependencies) != 0 {
		t.Errorf("len(Dependencies) = %d, want 0", len(md.Dependencies))
	}
}

func TestParseCaskInfo(t *testing.T) {
	md, err := ParseCaskInfo("firefox", []byte(mockCaskInfoJSON))
	if err != nil {
		t.Fatalf("ParseCaskInfo() failed: %v", err)
	}

	if md.Description != "Web browser" {
		t.Errorf("Description = %q, want %q", md.Description, "Web browser")
	}
	if md.Tap != "homebrew/cask" {
		t.Errorf("Tap = %q, want homebrew/cask", md.Tap)
	}

	want := []Dependency{
		{Name: "xz", Kind: DependencyFormula},
		{Name: "firefox-helper", Kind: DependencyCask},
	}
	if !reflect.DeepEqual(md.Dependencies, want) {
		t.Errorf("Dependencies = %+v, want %+v", md.Dependencies, want)
	}
}

func TestParseCaskInfo_NullDescription(t *testing.T) {
	md, err := ParseCaskInfo("obscure", []byte(mockCaskNullDescJSON))
	if err != nil {
		t.Fatalf("ParseCaskInfo() failed: %v", err)
	}
	if md.Description != "" {
		t.Errorf("Description = %q, want empty", md.Description)
	}
	if md.Dependencies == nil || len(md.Dependencies) != 0 {
		t.Errorf("Dependencies = %#v, want empty slice", md.Dependencies)
	}
}

func TestParseInfo_ShapeMustMatchCategory(t *testing.T) {
	// A formula document parsed as a cask has no cask entry, and vice versa.
	_, err := ParseInfo(NewPackage("wget", CategoryCask), []byte(mockFormulaInfoJSON))
	if !errors.Is(err, ErrParse) {
		t.Errorf("cask parse of formula document: err = %v, want ErrParse", err)
	}

	_, err = ParseInfo(NewPackage("firefox", CategoryFormula), []byte(mockCaskInfoJSON))
	if !errors.Is(err, ErrParse) {
		t.Errorf("formula parse of cask document: err = %v, want ErrParse", err)
	}
}

func TestParseInfo_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{name: "not json", input: "Error: something", wantField: ""},
		{name: "empty object", input: `{}`, wantField: "formulae"},
		{name: "missing tap", input: `{"formulae":[{"name":"x","homepage":"https://x.org"}]}`, wantField: "tap"},
		{name: "missing homepage", input: `{"formulae":[{"name":"x","tap":"homebrew/core"}]}`, wantField: "homepage"},
		{name: "relative homepage", input: `{"formulae":[{"name":"x","tap":"homebrew/core","homepage":"x.org"}]}`, wantField: "homepage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFormulaInfo("x", []byte(tt.input))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if parseErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", parseErr.Field, tt.wantField)
			}
		})
	}
}

func TestFetchMetadata(t *testing.T) {
	wget := NewPackage("wget", CategoryFormula)
	firefox := NewPackage("firefox", CategoryCask)

	runner := NewFakeRunner().
		On(InfoArgs(wget), mockFormulaInfoJSON).
		On(InfoArgs(firefox), mockCaskInfoJSON)

	md, err := FetchMetadata(context.Background(), runner, wget)
	if err != nil {
		t.Fatalf("FetchMetadata(wget) failed: %v", err)
	}
	if md.Tap != "homebrew/core" {
		t.Errorf("wget Tap = %q", md.Tap)
	}

	md, err = FetchMetadata(context.Background(), runner, firefox)
	if err != nil {
		t.Fatalf("FetchMetadata(firefox) failed: %v", err)
	}
	if md.Tap != "homebrew/cask" {
		t.Errorf("firefox Tap = %q", md.Tap)
	}

	calls := runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if contains(calls[0], "--cask") {
		t.Errorf("formula call should not contain --cask: %v", calls[0])
	}
	if !contains(calls[1], "--cask") {
		t.Errorf("cask call should contain --cask: %v", calls[1])
	}
}

func TestFetchMetadata_ProcessFailures(t *testing.T) {
	pkg := NewPackage("ghost", CategoryFormula)

	t.Run("empty output", func(t *testing.T) {
		runner := NewFakeRunner().On(InfoArgs(pkg), "  \n")
		_, err := FetchMetadata(context.Background(), runner, pkg)
		if !errors.Is(err, ErrProcess) {
			t.Errorf("err = %v, want ErrProcess", err)
		}
	})

	t.Run("non-zero exit", func(t *testing.T) {
		runner := NewFakeRunner()
		_, err := FetchMetadata(context.Background(), runner, pkg)
		if !errors.Is(err, ErrProcess) {
			t.Errorf("err = %v, want ErrProcess", err)
		}
		if errors.Is(err, ErrParse) {
			t.Error("process failure should not match ErrParse")
		}
	})
}

func TestMetadataClone(t *testing.T) {
	md, err := ParseFormulaInfo("wget", []byte(mockFormulaInfoJSON))
	if err != nil {
		t.Fatalf("ParseFormulaInfo() failed: %v", err)
	}

	clone := md.Clone()
	clone.Dependencies[0].Installed = true
	clone.Homepage.Path = "/changed"

	if md.Dependencies[0].Installed {
		t.Error("Clone shares the dependency slice")
	}
	if md.Homepage.Path == "/changed" {
		t.Error("Clone shares the homepage URL")
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
