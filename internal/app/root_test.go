package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "brewpick" {
		t.Errorf("expected Use to be 'brewpick', got '%s'", RootCmd.Use)
	}

	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	expectedCommands := []string{"search", "preview", "install", "queue", "progress", "browse"}
	foundCommands := make(map[string]bool)

	for _, cmd := range RootCmd.Commands() {
		foundCommands[cmd.Name()] = true
	}

	for _, expected := range expectedCommands {
		if !foundCommands[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"db", "config", "brew", "verbose"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestRootCommand_PrintsHint(t *testing.T) {
	te := setupTest(t)

	out, err := te.execute(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "brewpick search <query>") {
		t.Errorf("expected hint in output, got:\n%s", out)
	}
}

func TestGetDBPath(t *testing.T) {
	tests := []struct {
		name       string
		dbPathFlag string
	}{
		{name: "default path", dbPathFlag: ""},
		{name: "custom path", dbPathFlag: "/tmp/test.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)

			oldDBPath := dbPath
			dbPath = tt.dbPathFlag
			defer func() { dbPath = oldDBPath }()

			path, err := getDBPath()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.dbPathFlag != "" {
				if path != tt.dbPathFlag {
					t.Errorf("expected path to be '%s', got '%s'", tt.dbPathFlag, path)
				}
				return
			}

			expectedPath := filepath.Join(home, ".brewpick", "brewpick.db")
			if path != expectedPath {
				t.Errorf("expected default path to be '%s', got '%s'", expectedPath, path)
			}
			if _, err := os.Stat(filepath.Dir(path)); err != nil {
				t.Errorf("expected directory '%s' to exist: %v", filepath.Dir(path), err)
			}
		})
	}
}

func TestConfigFlag_BadConfigFails(t *testing.T) {
	te := setupTest(t)
	cfg := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfg, []byte("[preview]\ntimeout = \"soon\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := te.execute(t, "--config", cfg, "queue")
	if err == nil || !strings.Contains(err.Error(), "preview.timeout") {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestConfigAliases_ExpandSearch(t *testing.T) {
	te := setupTest(t)
	cfg := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfg, []byte("[aliases]\ndl = \"wget\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := te.execute(t, "--config", cfg, "search", "dl")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out, "wget2") {
		t.Errorf("expected alias to expand to wget, got:\n%s", out)
	}
	if got := te.lastSearch(t).Query; got != "wget" {
		t.Errorf("recorded query = %q, want wget", got)
	}
}
