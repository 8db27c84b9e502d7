package progress

// Status is the lifecycle state of a single step.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError || s == StatusSkipped
}

// Step is one named unit of work owned by a Tracker.
type Step struct {
	Key    string
	Label  string
	Status Status
	Detail string
}

// TerminalCapabilities describes what the output terminal can display.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// ProgressSymbols holds the markers used when drawing step status.
type ProgressSymbols struct {
	Done       string
	Running    string
	Pending    string
	Failure    string
	Skipped    string
	SpinnerSet int
}
