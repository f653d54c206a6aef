package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/brewpick/internal/install"
)

var (
	progressStart   bool
	progressValue   float64
	progressSucceed bool
	progressFail    string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Report installer progress for the queued package",
	Long: `Advance the queued package through its installation stages.

This is the hook an installer calls while it works:

  ready -> running -> succeeded
  ready or running -> failed

--value reports a fraction between 0 and 1 (clamped) and implies --start.
Exactly one of the flags must be given.`,
	Example: `  brewpick progress --start
  brewpick progress --value 0.42
  brewpick progress --succeed
  brewpick progress --fail "checksum mismatch"`,
	Args: cobra.NoArgs,
	RunE: runProgress,
}

func init() {
	progressCmd.Flags().BoolVar(&progressStart, "start", false, "mark the installation as running")
	progressCmd.Flags().Float64Var(&progressValue, "value", 0, "report progress as a fraction between 0 and 1")
	progressCmd.Flags().BoolVar(&progressSucceed, "succeed", false, "mark the installation as succeeded")
	progressCmd.Flags().StringVar(&progressFail, "fail", "", "mark the installation as failed with a reason")
	progressCmd.MarkFlagsMutuallyExclusive("start", "value", "succeed", "fail")
	progressCmd.MarkFlagsOneRequired("start", "value", "succeed", "fail")
}

func runProgress(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	return e.withLock(cmd.Context(), func() error {
		tr, err := e.loadInstall()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		switch {
		case flags.Changed("start"):
			err = tr.Start()
		case flags.Changed("value"):
			err = tr.Report(progressValue)
		case flags.Changed("succeed"):
			err = tr.Succeed()
		case flags.Changed("fail"):
			err = tr.Fail(progressFail)
		}
		if errors.Is(err, install.ErrNothingQueued) {
			return fmt.Errorf("%w (run 'brewpick install <token>' first)", err)
		}
		if err != nil {
			return err
		}

		st := tr.State()
		if err := e.store.SaveInstallState(st); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %d%%\n", st.Package.Name, st.Stage, int(st.Progress*100))
		return nil
	})
}
