// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"iter"
	"maps"

	"github.com/octalplus/octalplus/cpu"
)

var _screen_defines = map[string]cpu.Cell{
	"screen": cpu.SCREEN,
}

// Screen models the four-cell memory-mapped display window.
type Screen struct {
	Cells   [cpu.SCREEN_LEN]cpu.Cell
	Changed func(text string) // optional redraw callback
}

// Refresh receives the display window contents each machine step.
func (scr *Screen) Refresh(cells [cpu.SCREEN_LEN]cpu.Cell) {
	if cells == scr.Cells {
		return
	}
	scr.Cells = cells
	if scr.Changed != nil {
		scr.Changed(scr.Text())
	}
}

// Text renders the window in the OSCII alphabet.
func (scr *Screen) Text() string {
	return cpu.DecodeText(scr.Cells[:])
}

// Defines returns an iterator over the memory-mapped addresses owned
// by the display.
func (scr *Screen) Defines() iter.Seq2[string, cpu.Cell] {
	return maps.All(_screen_defines)
}
