package brew

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is an in-memory Runner for tests. Responses are keyed by the
// space-joined argument list.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     [][]string
	block     map[string]chan struct{}
}

type fakeResponse struct {
	output []byte
	err    error
}

// NewFakeRunner returns an empty FakeRunner. Unknown invocations fail with a
// *ProcessError with exit code 1 and empty stderr.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]fakeResponse),
		block:     make(map[string]chan struct{}),
	}
}

// On registers the output returned for args.
func (f *FakeRunner) On(args []string, output string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[strings.Join(args, " ")] = fakeResponse{output: []byte(output)}
	return f
}

// OnError registers an error returned for args.
func (f *FakeRunner) OnError(args []string, err error) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[strings.Join(args, " ")] = fakeResponse{err: err}
	return f
}

// Hold makes invocations with args wait until the returned release func is
// called or the context is cancelled.
func (f *FakeRunner) Hold(args []string) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.block[strings.Join(args, " ")] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Output implements Runner.
func (f *FakeRunner) Output(ctx context.Context, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")

	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	resp, ok := f.responses[key]
	ch := f.block[key]
	f.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, &ProcessError{Args: args, ExitCode: -1, Err: ctx.Err()}
		}
	}

	if !ok {
		return nil, &ProcessError{Args: args, ExitCode: 1, Err: errEmptyOutput}
	}
	return resp.output, resp.err
}

// Calls returns every argument list Output was invoked with.
func (f *FakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times Output was invoked.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
