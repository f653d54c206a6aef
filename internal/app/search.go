package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewpick/internal/output"
	"github.com/blackwell-systems/brewpick/internal/search"
)

var (
	searchFormulaeOnly bool
	searchCasksOnly    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search Homebrew formulae and casks",
	Long: `Run 'brew search' for formulae and casks and record the results.

Each result is listed with the first characters of its selection token. Pass
that prefix to 'brewpick preview' or 'brewpick install'. A new search replaces
the recorded results, so tokens from earlier searches no longer resolve.

Aliases from the [aliases] table in config.toml are expanded first.`,
	Example: `  brewpick search wget
  brewpick search --casks-only visual studio code`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchFormulaeOnly, "formulae-only", false, "collapse the casks section")
	searchCmd.Flags().BoolVar(&searchCasksOnly, "casks-only", false, "collapse the formulae section")
	searchCmd.MarkFlagsMutuallyExclusive("formulae-only", "casks-only")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	loader, err := e.newLoader(ctx, false)
	if err != nil {
		return err
	}
	sess, err := e.newSession(loader, nil, nil)
	if err != nil {
		return err
	}

	spinner := output.NewSpinner(fmt.Sprintf("Searching for %q", sess.ExpandQuery(query)))
	spinner.SetWriter(cmd.ErrOrStderr())
	spinner.Start()
	snap, err := sess.Search(ctx, query)
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := e.withLock(ctx, func() error { return e.store.SaveSearch(snap) }); err != nil {
		return fmt.Errorf("failed to record search results: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderSearchResults(snap, output.SectionFilter{
		HideFormulae: searchCasksOnly,
		HideCasks:    searchFormulaeOnly,
	}))

	if snap.Len() > 0 {
		first := snap.Formulae
		if len(first) == 0 {
			first = snap.Casks
		}
		fmt.Fprintf(out, "\nPreview with 'brewpick preview %s', queue with 'brewpick install %s'.\n",
			search.ShortToken(first[0].Token), search.ShortToken(first[0].Token))
	}

	return nil
}
