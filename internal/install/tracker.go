// Package install tracks the package queued for installation and the stage
// an external installer has reported for it.
package install

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/blackwell-systems/brewpick/internal/brew"
	"github.com/blackwell-systems/brewpick/internal/notify"
)

var (
	// ErrInvalidTransition is returned when a stage change is not allowed
	// from the current stage.
	ErrInvalidTransition = errors.New("invalid installation stage transition")
	// ErrNothingQueued is returned when a stage change is requested before
	// any package was enqueued.
	ErrNothingQueued = errors.New("no package is queued for installation")
	// ErrInvalidProgress is returned for progress values that are not numbers.
	ErrInvalidProgress = errors.New("progress must be a number")
)

// Stage is the lifecycle stage of the queued package.
//
//	ready -> running -> succeeded
//	  \         \
//	   `---------`-> failed
type Stage int

const (
	StageReady Stage = iota
	StageRunning
	StageSucceeded
	StageFailed
)

var stageNames = map[Stage]string{
	StageReady:     "ready",
	StageRunning:   "running",
	StageSucceeded: "succeeded",
	StageFailed:    "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ParseStage parses the string form produced by Stage.String.
func ParseStage(s string) (Stage, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for stage, name := range stageNames {
		if name == s {
			return stage, nil
		}
	}
	return StageReady, fmt.Errorf("unknown installation stage %q", s)
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageSucceeded || s == StageFailed
}

// State is the single installation-progress record.
type State struct {
	Package   *brew.Package // nil when nothing has been queued
	Stage     Stage
	Progress  float64 // 0.0 - 1.0
	Reason    string  // failure reason, set with StageFailed
	UpdatedAt time.Time
}

// Queued reports whether a package has been enqueued.
func (s State) Queued() bool {
	return s.Package != nil
}

// Tracker owns the installation-progress state. The zero value is ready
// to use.
type Tracker struct {
	mu    sync.Mutex
	state State
	now   func() time.Time
	subs  notify.List[State]
}

// NewTracker returns a tracker with nothing queued.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

func (t *Tracker) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}

// Restore replaces the state wholesale, e.g. with a record loaded from disk.
func (t *Tracker) Restore(s State) {
	t.mu.Lock()
	t.state = copyState(s)
	out := copyState(t.state)
	t.mu.Unlock()

	t.subs.Publish(out)
}

// State returns a copy of the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyState(t.state)
}

// Subscribe registers fn to be called after every change.
func (t *Tracker) Subscribe(fn func(State)) (cancel func()) {
	return t.subs.Subscribe(fn)
}

// Enqueue queues pkg. It always yields stage ready with zero progress,
// overwriting whatever was tracked before.
func (t *Tracker) Enqueue(pkg brew.Package) {
	t.mu.Lock()
	p := pkg
	t.state = State{
		Package:   &p,
		Stage:     StageReady,
		Progress:  0,
		UpdatedAt: t.clock(),
	}
	out := copyState(t.state)
	t.mu.Unlock()

	t.subs.Publish(out)
}

// Start moves ready to running.
func (t *Tracker) Start() error {
	return t.transition(func(s *State) error {
		if s.Stage != StageReady {
			return fmt.Errorf("cannot start from %s: %w", s.Stage, ErrInvalidTransition)
		}
		s.Stage = StageRunning
		s.Progress = 0
		return nil
	})
}

// Report records installer progress. A report while ready implies the
// installer has started. Values outside [0,1] are clamped.
func (t *Tracker) Report(progress float64) error {
	if math.IsNaN(progress) {
		return ErrInvalidProgress
	}
	progress = math.Max(0, math.Min(1, progress))

	return t.transition(func(s *State) error {
		if s.Stage.Terminal() {
			return fmt.Errorf("cannot report progress when %s: %w", s.Stage, ErrInvalidTransition)
		}
		s.Stage = StageRunning
		s.Progress = progress
		return nil
	})
}

// Succeed moves running to succeeded.
func (t *Tracker) Succeed() error {
	return t.transition(func(s *State) error {
		if s.Stage != StageRunning {
			return fmt.Errorf("cannot succeed from %s: %w", s.Stage, ErrInvalidTransition)
		}
		s.Stage = StageSucceeded
		s.Progress = 1
		return nil
	})
}

// Fail moves ready or running to failed. Progress is kept as reported.
func (t *Tracker) Fail(reason string) error {
	return t.transition(func(s *State) error {
		if s.Stage.Terminal() {
			return fmt.Errorf("cannot fail from %s: %w", s.Stage, ErrInvalidTransition)
		}
		s.Stage = StageFailed
		s.Reason = reason
		return nil
	})
}

func (t *Tracker) transition(apply func(*State) error) error {
	t.mu.Lock()
	if t.state.Package == nil {
		t.mu.Unlock()
		return ErrNothingQueued
	}

	next := copyState(t.state)
	if err := apply(&next); err != nil {
		t.mu.Unlock()
		return err
	}
	next.UpdatedAt = t.clock()
	t.state = next
	out := copyState(next)
	t.mu.Unlock()

	t.subs.Publish(out)
	return nil
}

func copyState(s State) State {
	if s.Package != nil {
		p := *s.Package
		s.Package = &p
	}
	return s
}
