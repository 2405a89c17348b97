// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package io

import (
	"iter"
	"maps"
	"math/rand/v2"

	"github.com/octalplus/octalplus/cpu"
)

var _pins_defines = map[string]cpu.Cell{
	"ports":      cpu.PORTS,
	"directions": cpu.DIRECTIONS,
}

// Pins models the six programmable pins behind the ports cell. Output
// bits latch into Latched and forward to the Output sink; input bits
// come from the Input source. Unconnected inputs float and read back
// noise, the way the real header would.
type Pins struct {
	Input  func() cpu.Cell // external input bits; nil floats
	Output func(cpu.Cell)  // external output sink; nil discards

	Latched cpu.Cell // last output-pin state
}

// Latch receives the direction-masked output bits each machine step.
func (pins *Pins) Latch(value cpu.Cell) {
	pins.Latched = value
	if pins.Output != nil {
		pins.Output(value)
	}
}

// Sample supplies the input-pin bits for the current step.
func (pins *Pins) Sample() (value cpu.Cell) {
	if pins.Input != nil {
		return pins.Input()
	}
	return cpu.Cell(rand.IntN(cpu.MEMORY_SIZE))
}

// Defines returns an iterator over the memory-mapped addresses owned
// by the pin header.
func (pins *Pins) Defines() iter.Seq2[string, cpu.Cell] {
	return maps.All(_pins_defines)
}
