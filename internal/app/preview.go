package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/output"
	"github.com/blackwell-systems/brewpick/internal/search"
)

var previewCmd = &cobra.Command{
	Use:   "preview <token>",
	Short: "Show a search result's description, homepage, tap and dependencies",
	Long: `Fetch 'brew info --json=v2' for a package from the last search.

The token may be the full selection token or a unique prefix of at least
eight characters. Dependencies already installed locally are ticked.

If brew fails or its output cannot be read, whatever could be shown is
printed and a warning is written to stderr; the command still succeeds.`,
	Example: `  brewpick preview 1f0c2b7a`,
	Args:    cobra.ExactArgs(1),
	RunE:    runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	results, err := e.loadResults()
	if err != nil {
		return err
	}
	pkg, err := search.ResolvePrefix(results, args[0])
	if err != nil {
		return err
	}

	loader, err := e.newLoader(ctx, true)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(fmt.Sprintf("Loading %s", pkg.Name))
	if timeout, _ := e.cfg.PreviewTimeout(); timeout > 0 {
		spinner.WithTimeout(timeout)
	}
	spinner.SetWriter(cmd.ErrOrStderr())
	spinner.Start()
	state, err := loader.Load(ctx, &pkg)
	spinner.Stop()

	if err != nil {
		warnf("%s", describePreviewError(err))
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderPreview(pkg, state.Metadata))
	return nil
}

func describePreviewError(err error) string {
	var parseErr *brew.ParseError
	var procErr *brew.ProcessError
	switch {
	case errors.As(err, &parseErr):
		return fmt.Sprintf("could not read brew info for %s: %v", parseErr.Name, err)
	case errors.As(err, &procErr):
		return fmt.Sprintf("brew info failed: %v", err)
	default:
		return err.Error()
	}
}
