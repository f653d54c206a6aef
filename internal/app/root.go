package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	brewPath   string
	verbose    bool

	// RootCmd is the root command for brewpick
	RootCmd = &cobra.Command{
		Use:   "brewpick",
		Short: "Search, preview and queue Homebrew packages",
		Long: `brewpick searches Homebrew formulae and casks, previews a package's
description, homepage, tap and dependencies, and queues it for installation.

Every search result gets a selection token. The last search is kept in
~/.brewpick/brewpick.db so later commands can refer to its tokens; a new
search replaces it and earlier tokens stop resolving.

Quick Start:
  1. brewpick search wget
  2. brewpick preview 1f0c2b7a
  3. brewpick install 1f0c2b7a

Or run 'brewpick browse' for the interactive picker.

Examples:
  # Search only casks
  brewpick search --casks-only firefox

  # Watch an installer report progress
  brewpick queue --follow

  # Report progress from an installer hook
  brewpick progress --value 0.5`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "brewpick: search, preview and queue Homebrew packages")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'brewpick search <query>' or 'brewpick browse' to get started.")
			fmt.Fprintln(out, "Run 'brewpick --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.brewpick/brewpick.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/brewpick/config.toml)")
	RootCmd.PersistentFlags().StringVar(&brewPath, "brew", "", "brew executable (overrides brew_path in the config file)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(previewCmd)
	RootCmd.AddCommand(installCmd)
	RootCmd.AddCommand(queueCmd)
	RootCmd.AddCommand(progressCmd)
	RootCmd.AddCommand(browseCmd)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so in-flight brew invocations are killed.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	dir, err := getStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "brewpick.db"), nil
}

// getStateDir returns ~/.brewpick, creating it if needed.
func getStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".brewpick")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create brewpick directory: %w", err)
	}
	return dir, nil
}
