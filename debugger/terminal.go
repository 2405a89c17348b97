// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package debugger

import (
	"fmt"
	"os"

	xterm "golang.org/x/term"
)

// ANSI control sequences used for whole-screen redraws.
const (
	ClearScreen = "\u001b[2J"
	CursorHome  = "\u001b[H"
	ShowCursor  = "\u001b[?25h"
	HideCursor  = "\u001b[?25l"
)

// Terminal wraps the controlling terminal for the debugger views.
type Terminal struct {
	fd    int
	cols  int
	rows  int
	state *xterm.State
}

// NewTerminal captures the terminal state and size. A non-terminal
// stdin yields the fallback cols x rows surface, so the debugger stays
// usable in pipes and tests.
func NewTerminal(cols, rows int) (term *Terminal) {
	term = &Terminal{fd: int(os.Stdin.Fd()), cols: cols, rows: rows}
	if !xterm.IsTerminal(term.fd) {
		return
	}
	if cols, rows, err := xterm.GetSize(term.fd); err == nil {
		term.cols = cols
		term.rows = rows
	}
	if state, err := xterm.GetState(term.fd); err == nil {
		term.state = state
	}
	return
}

// Size returns the usable columns and rows.
func (term *Terminal) Size() (cols, rows int) {
	return term.cols, term.rows
}

// Clear wipes the screen and homes the cursor.
func (term *Terminal) Clear() {
	fmt.Print(ClearScreen, CursorHome)
}

// Restore puts the terminal state back on exit.
func (term *Terminal) Restore() {
	fmt.Print(ShowCursor)
	if term.state != nil {
		_ = xterm.Restore(term.fd, term.state)
	}
}
