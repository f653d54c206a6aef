package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/search"
	"github.com/blackwell-systems/brewpick/internal/store"
)

const wgetInfoJSON = `{
  "formulae": [
    {
      "name": "wget",
      "tap": "homebrew/core",
      "desc": "Internet file retriever",
      "homepage": "https://www.gnu.org/software/wget/",
      "dependencies": ["openssl@3", "libidn2"],
      "build_dependencies": []
    }
  ],
  "casks": []
}`

// testEnv points brewpick at a temp HOME and a fake brew.
type testEnv struct {
	runner *brew.FakeRunner
	dbPath string
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("NO_COLOR", "1")

	runner := brew.NewFakeRunner().
		On(brew.SearchArgs(brew.CategoryFormula, "wget"), "wget\nwget2\n").
		On(brew.SearchArgs(brew.CategoryCask, "wget"), "").
		On(brew.SearchArgs(brew.CategoryFormula, "firefox"), "").
		On(brew.SearchArgs(brew.CategoryCask, "firefox"), "firefox\n").
		On([]string{"info", "--json=v2", "wget"}, wgetInfoJSON).
		On([]string{"list", "--formula", "-1"}, "openssl@3\n").
		On([]string{"list", "--cask", "-1"}, "")

	origRunner := newRunner
	newRunner = func(string) brew.Runner { return runner }
	t.Cleanup(func() { newRunner = origRunner })

	return &testEnv{runner: runner, dbPath: filepath.Join(dir, ".brewpick", "brewpick.db")}
}

// resetFlags clears flag values left over from an earlier Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs brewpick with args against te's database and returns stdout.
func (te *testEnv) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(RootCmd)

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(append([]string{"--db", te.dbPath}, args...))
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// openStore opens te's database for assertions.
func (te *testEnv) openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(te.dbPath)
	if err != nil {
		t.Fatalf("store.New() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// lastSearch returns the recorded search.
func (te *testEnv) lastSearch(t *testing.T) search.Snapshot {
	t.Helper()
	snap, err := te.openStore(t).LoadSearch()
	if err != nil {
		t.Fatalf("LoadSearch() failed: %v", err)
	}
	return snap
}
