package brew

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Runner invokes the brew executable and returns its standard output.
// Implementations must return a *ProcessError for non-zero exits so callers can
// inspect the exit code and stderr.
type Runner interface {
	Output(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs a real brew binary.
type ExecRunner struct {
	Path string
}

// NewExecRunner returns a runner for the brew binary at path. An empty path
// means "brew" looked up on PATH.
func NewExecRunner(path string) *ExecRunner {
	if path == "" {
		path = "brew"
	}
	return &ExecRunner{Path: path}
}

// Output runs brew with args and waits for it to finish.
func (r *ExecRunner) Output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Path, args...)
	output, err := cmd.Output()
	if err == nil {
		return output, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return output, &ProcessError{
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(string(exitErr.Stderr)),
			Err:      err,
		}
	}
	return nil, &ProcessError{Args: args, ExitCode: -1, Err: err}
}

// Available reports whether the brew binary can be found.
func (r *ExecRunner) Available() bool {
	_, err := exec.LookPath(r.Path)
	return err == nil
}
