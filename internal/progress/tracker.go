package progress

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateStep is returned by Add when the key is already tracked.
	ErrDuplicateStep = errors.New("duplicate step")
	// ErrUnknownStep is returned when a transition names a key that was never added.
	ErrUnknownStep = errors.New("unknown step")
	// ErrTerminalStep is returned when a transition targets a step that already finished.
	ErrTerminalStep = errors.New("step already finished")
)

// Tracker is an ordered set of steps with a title.
//
// Mutations and reads are guarded so a display goroutine can call Render
// while the pipeline advances steps.
type Tracker struct {
	mu       sync.RWMutex
	title    string
	steps    []Step
	index    map[string]int
	onChange func()
}

// NewTracker creates an empty tracker.
func NewTracker(title string) *Tracker {
	return &Tracker{
		title: title,
		index: make(map[string]int),
	}
}

// Title returns the tracker title.
func (t *Tracker) Title() string {
	return t.title
}

// OnChange registers fn to be called after every successful mutation.
// fn runs outside the tracker lock and may call Render.
func (t *Tracker) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Add appends a pending step.
func (t *Tracker) Add(key, label string) error {
	t.mu.Lock()
	if _, ok := t.index[key]; ok {
		t.mu.Unlock()
		return fmt.Errorf("adding %q: %w", key, ErrDuplicateStep)
	}
	t.index[key] = len(t.steps)
	t.steps = append(t.steps, Step{Key: key, Label: label, Status: StatusPending})
	fn := t.onChange
	t.mu.Unlock()

	notify(fn)
	return nil
}

// Start marks a step running. Starting a running step is a no-op.
func (t *Tracker) Start(key string) error {
	return t.transition(key, StatusRunning, "", false)
}

// Complete marks a step done with detail.
func (t *Tracker) Complete(key, detail string) error {
	return t.transition(key, StatusDone, detail, true)
}

// Error marks a step failed with detail.
func (t *Tracker) Error(key, detail string) error {
	return t.transition(key, StatusError, detail, true)
}

// Skip marks a step skipped with detail.
func (t *Tracker) Skip(key, detail string) error {
	return t.transition(key, StatusSkipped, detail, true)
}

func (t *Tracker) transition(key string, to Status, detail string, setDetail bool) error {
	t.mu.Lock()
	i, ok := t.index[key]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%s %q: %w", to, key, ErrUnknownStep)
	}
	step := &t.steps[i]
	if step.Status.Terminal() {
		t.mu.Unlock()
		return fmt.Errorf("%s %q (status %s): %w", to, key, step.Status, ErrTerminalStep)
	}
	step.Status = to
	if setDetail {
		step.Detail = detail
	}
	fn := t.onChange
	t.mu.Unlock()

	notify(fn)
	return nil
}

// Steps returns a copy of the steps in insertion order.
func (t *Tracker) Steps() []Step {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Step returns the step stored under key.
func (t *Tracker) Step(key string) (Step, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, ok := t.index[key]
	if !ok {
		return Step{}, false
	}
	return t.steps[i], true
}

// Running returns the first step currently running.
func (t *Tracker) Running() (Step, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, s := range t.steps {
		if s.Status == StatusRunning {
			return s, true
		}
	}
	return Step{}, false
}

// Render builds a fresh read-only view of the tracker.
func (t *Tracker) Render() Tree {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nodes := make([]Node, len(t.steps))
	for i, s := range t.steps {
		nodes[i] = Node(s)
	}
	return Tree{Title: t.title, Nodes: nodes}
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}
