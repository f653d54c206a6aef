package brew

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProcess matches any failure to run brew or to get output from it.
	ErrProcess = errors.New("brew command failed")
	// ErrParse matches any info document that could not be turned into Metadata.
	ErrParse = errors.New("malformed brew info document")

	errEmptyOutput = errors.New("empty output")
)

// ProcessError describes a brew invocation that exited non-zero, could not be
// started, or produced no output.
type ProcessError struct {
	Args     []string
	ExitCode int // -1 when the process never ran to completion
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("brew %s failed: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += fmt.Sprintf(" (stderr: %s)", e.Stderr)
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrProcess) match every ProcessError.
func (e *ProcessError) Is(target error) bool { return target == ErrProcess }

// ParseError describes an info document that is malformed or is missing a
// field required for the package's category.
type ParseError struct {
	Category Category
	Name     string
	Field    string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("failed to parse %s info for %s: field %q: %v", e.Category, e.Name, e.Field, e.Err)
	}
	return fmt.Sprintf("failed to parse %s info for %s: %v", e.Category, e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }
