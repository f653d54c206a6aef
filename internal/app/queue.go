package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewpick/internal/install"
	"github.com/blackwell-systems/brewpick/internal/output"
	"github.com/blackwell-systems/brewpick/internal/watcher"
)

var queueFollow bool

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the package queued for installation",
	Long: `Show the queued package, its stage and the progress its installer reported.

With --follow, keep redrawing as the installer reports progress until the
installation succeeds or fails, or until interrupted.`,
	Example: `  brewpick queue
  brewpick queue --follow`,
	Args: cobra.NoArgs,
	RunE: runQueue,
}

func init() {
	queueCmd.Flags().BoolVarP(&queueFollow, "follow", "f", false, "follow progress until the installation finishes")
}

func runQueue(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.store.LoadInstallState()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !queueFollow || !st.Queued() || st.Stage.Terminal() {
		fmt.Fprint(out, output.RenderInstallState(st, time.Now()))
		return nil
	}

	return followQueue(cmd, e, st)
}

// followQueue redraws a progress bar on every database change until the
// queued package reaches a terminal stage or the context is cancelled.
func followQueue(cmd *cobra.Command, e *env, st install.State) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	changes := make(chan struct{}, 1)
	w, err := watcher.New(e.dbPath, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}, watcher.WithLogger(e.logger))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	bar := output.NewProgress(describeStage(st))
	bar.SetWriter(out)
	bar.Set(st.Progress)

	for {
		select {
		case <-ctx.Done():
			bar.Finish()
			return nil
		case <-changes:
		}

		next, err := e.store.LoadInstallState()
		if err != nil {
			e.logger.Warn("failed to reload install state", "error", err)
			continue
		}
		if !next.Queued() || next.Package.Token != st.Package.Token {
			bar.Finish()
			fmt.Fprintln(out, "The queued package was replaced.")
			fmt.Fprint(out, output.RenderInstallState(next, time.Now()))
			return nil
		}

		st = next
		bar.SetDescription(describeStage(st))
		bar.Set(st.Progress)

		if st.Stage.Terminal() {
			bar.Finish()
			fmt.Fprint(out, output.RenderInstallState(st, time.Now()))
			return nil
		}
	}
}

func describeStage(st install.State) string {
	return fmt.Sprintf("%s (%s)", st.Package.Name, st.Stage)
}
