package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewpick/internal/install"
	"github.com/blackwell-systems/brewpick/internal/output"
	"github.com/blackwell-systems/brewpick/internal/search"
	"github.com/blackwell-systems/brewpick/internal/session"
)

var installCmd = &cobra.Command{
	Use:   "install <token>",
	Short: "Queue a search result for installation",
	Long: `Queue a package from the last search for installation.

Queueing replaces whatever was queued before and resets it to the ready stage.
brewpick does not run the installer itself: an installer reports its progress
with 'brewpick progress', and 'brewpick queue --follow' shows it.

If the token no longer matches a search result, nothing is queued.`,
	Example: `  brewpick install 1f0c2b7a`,
	Args:    cobra.ExactArgs(1),
	RunE:    runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	return e.withLock(ctx, func() error {
		results, err := e.loadResults()
		if err != nil {
			return err
		}

		token, err := resolveToken(results, args[0])
		if err != nil {
			if errors.Is(err, search.ErrNotFound) {
				return fmt.Errorf("%w: %w", session.ErrCouldNotAssociatePackage, err)
			}
			return err
		}

		inst := install.NewTracker()
		var saveErr error
		inst.Subscribe(func(st install.State) {
			saveErr = e.store.SaveInstallState(st)
		})

		loader, err := e.newLoader(ctx, false)
		if err != nil {
			return err
		}
		sess, err := e.newSession(loader, results, inst)
		if err != nil {
			return err
		}

		// A stale token is reported by Confirm, which also dismisses the
		// workflow. No preview is needed to queue.
		sess.SetSelection(token)
		if _, err := sess.Confirm(); err != nil {
			return err
		}
		if saveErr != nil {
			return fmt.Errorf("failed to record install state: %w", saveErr)
		}

		fmt.Fprint(cmd.OutOrStdout(), output.RenderInstallState(inst.State(), time.Now()))
		return nil
	})
}
