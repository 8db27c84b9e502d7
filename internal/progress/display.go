package progress

import (
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Display shows the running step of a tracker behind a spinner while work
// is in progress and prints the final tree on Stop. Without a TTY only the
// final tree is printed.
type Display struct {
	tracker *Tracker
	out     io.Writer
	caps    TerminalCapabilities

	mu   sync.Mutex
	spin *spinner.Spinner
}

// NewDisplay creates a display for tracker writing to out.
func NewDisplay(tracker *Tracker, out io.Writer, caps TerminalCapabilities) *Display {
	return &Display{tracker: tracker, out: out, caps: caps}
}

// Start begins the spinner when the terminal supports it.
func (d *Display) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.caps.IsTTY || d.spin != nil {
		return
	}

	sym := SelectSymbols(d.caps)
	d.spin = spinner.New(spinner.CharSets[sym.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(d.out))
	if d.caps.SupportsColor {
		_ = d.spin.Color("cyan")
	}
	d.spin.Suffix = " " + d.tracker.Title()
	d.tracker.OnChange(d.refresh)
	d.spin.Start()
}

func (d *Display) refresh() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.spin == nil {
		return
	}
	suffix := " " + d.tracker.Title()
	if step, ok := d.tracker.Running(); ok {
		suffix = " " + step.Label
	}
	d.spin.Lock()
	d.spin.Suffix = suffix
	d.spin.Unlock()
}

// Stop halts the spinner and prints the tracker tree.
func (d *Display) Stop() error {
	d.mu.Lock()
	if d.spin != nil {
		d.spin.Stop()
		d.spin = nil
	}
	d.mu.Unlock()

	d.tracker.OnChange(nil)
	return d.tracker.Render().Fprint(d.out, d.caps)
}
