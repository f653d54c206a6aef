package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewpick/internal/install"
	"github.com/blackwell-systems/brewpick/internal/output"
	"github.com/blackwell-systems/brewpick/internal/search"
	"github.com/blackwell-systems/brewpick/internal/store"
	"github.com/blackwell-systems/brewpick/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse [query...]",
	Short: "Pick a package interactively",
	Long: `Open the interactive picker.

Type a query to search formulae and casks, move through the results to
preview each package, and press Enter to queue the highlighted package for
installation. Without a query the last recorded search is shown.

Keys:
  /        search
  ↑/↓ j/k  move and preview
  f / c    collapse formulae / casks
  p        show or hide the preview
  Enter    queue for installation
  q        quit`,
	Example: `  brewpick browse
  brewpick browse wget`,
	RunE: runBrowse,
}

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen()).Run()
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	results, err := e.loadResults()
	if errors.Is(err, store.ErrNotInitialized) {
		results, err = search.NewTracker(), nil
	}
	if err != nil {
		return err
	}

	// Searches made in the picker replace the recorded one once it exits,
	// so the printed tokens stay usable from the other commands afterwards.
	// Nothing is written from the UI goroutine.
	searched := false
	results.Subscribe(func(search.Snapshot) { searched = true })

	inst := install.NewTracker()

	loader, err := e.newLoader(ctx, true)
	if err != nil {
		return err
	}
	sess, err := e.newSession(loader, results, inst)
	if err != nil {
		return err
	}

	final, err := runProgram(tui.New(sess, tui.Options{
		Context: ctx,
		Query:   strings.Join(args, " "),
		Logger:  e.logger,
	}))
	if err != nil {
		return fmt.Errorf("failed to run picker: %w", err)
	}

	m, ok := final.(tui.Model)
	if !ok {
		return nil
	}
	_, queued := m.Queued()
	if !searched && !queued {
		return nil
	}

	err = e.withLock(ctx, func() error {
		if searched {
			if err := e.store.SaveSearch(results.Snapshot()); err != nil {
				return err
			}
		}
		if queued {
			return e.store.SaveInstallState(inst.State())
		}
		return nil
	})
	if err != nil {
		if queued {
			return fmt.Errorf("failed to record install state: %w", err)
		}
		return fmt.Errorf("failed to record search results: %w", err)
	}

	if queued {
		fmt.Fprint(cmd.OutOrStdout(), output.RenderInstallState(inst.State(), time.Now()))
	}
	return nil
}
