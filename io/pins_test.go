package io

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/octalplus/octalplus/cpu"
)

func TestPinsLatch(t *testing.T) {
	assert := assert.New(t)

	var seen cpu.Cell
	pins := &Pins{Output: func(value cpu.Cell) { seen = value }}

	pins.Latch(0o70)
	assert.Equal(cpu.Cell(0o70), pins.Latched)
	assert.Equal(cpu.Cell(0o70), seen)
}

func TestPinsSample(t *testing.T) {
	assert := assert.New(t)

	pins := &Pins{Input: func() cpu.Cell { return 0o07 }}
	assert.Equal(cpu.Cell(0o07), pins.Sample())

	// Floating pins stay within the six-bit range.
	floating := &Pins{}
	for n := 0; n < 64; n++ {
		assert.LessOrEqual(floating.Sample(), cpu.CellMask)
	}
}

func TestPinsDefines(t *testing.T) {
	assert := assert.New(t)

	pins := &Pins{}
	defines := map[string]cpu.Cell{}
	for label, value := range pins.Defines() {
		defines[label] = value
	}
	assert.Equal(cpu.PORTS, defines["ports"])
	assert.Equal(cpu.DIRECTIONS, defines["directions"])
}
