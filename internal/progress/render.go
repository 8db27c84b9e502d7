package progress

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Node is one step as it appeared when the tree was rendered.
type Node struct {
	Key    string
	Label  string
	Status Status
	Detail string
}

// Tree is a snapshot of a tracker: a title with its steps beneath it.
type Tree struct {
	Title string
	Nodes []Node
}

var statusColors = map[Status]color.Attribute{
	StatusDone:    color.FgGreen,
	StatusRunning: color.FgCyan,
	StatusPending: color.Faint,
	StatusError:   color.FgRed,
	StatusSkipped: color.FgYellow,
}

// Marker returns the symbol for status from sym.
func (sym ProgressSymbols) Marker(status Status) string {
	switch status {
	case StatusDone:
		return sym.Done
	case StatusRunning:
		return sym.Running
	case StatusError:
		return sym.Failure
	case StatusSkipped:
		return sym.Skipped
	default:
		return sym.Pending
	}
}

// Line formats a single node as "marker label (detail)".
func (n Node) Line(sym ProgressSymbols, colorize bool) string {
	marker := sym.Marker(n.Status)
	if colorize {
		c := color.New(statusColors[n.Status])
		c.EnableColor()
		marker = c.Sprint(marker)
	}
	if n.Detail == "" {
		return marker + " " + n.Label
	}
	return fmt.Sprintf("%s %s (%s)", marker, n.Label, n.Detail)
}

// Format draws the tree with the given markers.
func (t Tree) Format(sym ProgressSymbols, colorize bool) string {
	children := make([]pterm.TreeNode, len(t.Nodes))
	for i, n := range t.Nodes {
		children[i] = pterm.TreeNode{Text: n.Line(sym, colorize)}
	}

	root := pterm.TreeNode{
		Children: []pterm.TreeNode{{Text: t.Title, Children: children}},
	}

	out, err := pterm.DefaultTree.
		WithRoot(root).
		WithTreeStyle(pterm.NewStyle()).
		WithTextStyle(pterm.NewStyle()).
		Srender()
	if err != nil {
		// Fall back to a flat listing; the tree printer only fails on writer errors.
		out = t.Title + "\n"
		for _, c := range children {
			out += "  " + c.Text + "\n"
		}
	}
	return out
}

// String draws the tree with Unicode markers and no color.
func (t Tree) String() string {
	return t.Format(SelectSymbols(TerminalCapabilities{SupportsUnicode: true}), false)
}

// Fprint writes the tree to w using markers suited to caps.
func (t Tree) Fprint(w io.Writer, caps TerminalCapabilities) error {
	_, err := io.WriteString(w, t.Format(SelectSymbols(caps), caps.SupportsColor))
	return err
}
