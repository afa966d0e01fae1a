// Package ui writes the single result line of a run, styling the label
// when the output is an interactive terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Labels printed in front of the run result.
const (
	LabelData  = "Data: "
	LabelError = "Error: "
)

// UI holds the output writer and terminal state.
type UI struct {
	Out     io.Writer
	IsTTY   bool
	NoColor bool
}

// noColorEnv is the standard environment variable to disable colors.
var noColorEnv = os.Getenv("NO_COLOR") != ""

// New creates a UI writing to w. Styling is only ever applied when w is a
// terminal.
func New(w io.Writer) *UI {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &UI{Out: w, IsTTY: isTTY, NoColor: noColorEnv}
}

// SetNoColor disables colors.
func (u *UI) SetNoColor(noColor bool) {
	u.NoColor = noColor
}

func (u *UI) shouldStyle() bool {
	return u.IsTTY && !u.NoColor
}

// Format renders label followed by text. Only the label is styled, so the
// text stays byte-identical to the plain output.
func (u *UI) Format(label, text string) string {
	if !u.shouldStyle() {
		return label + text
	}

	name := strings.TrimSuffix(label, " ")
	switch label {
	case LabelData:
		name = StyleSuccess.Render(name)
	case LabelError:
		name = StyleError.Render(name)
	default:
		name = StyleMuted.Render(name)
	}
	return name + " " + text
}

// PrintResult writes exactly one line.
func (u *UI) PrintResult(label, text string) error {
	_, err := fmt.Fprintln(u.Out, u.Format(label, text))
	return err
}

// KeyValue renders an aligned key-value pair.
func (u *UI) KeyValue(key, value string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("%-12s %s", key+":", value)
	}
	k := StyleMuted.Render(fmt.Sprintf("%-12s", key+":"))
	return k + " " + value
}
