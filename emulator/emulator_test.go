package emulator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/octalplus/octalplus/cpu"
)

// boot assembles a source with the emulator's symbols predefined,
// burns it and resets.
func boot(t *testing.T, source string) *Emulator {
	t.Helper()
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Pins.Input = func() cpu.Cell { return 0 }

	asm := &cpu.Assembler{}
	for label, value := range emu.Defines() {
		asm.Predefine(label, value)
	}
	prog, err := asm.Assemble(strings.NewReader(source))
	assert.NoError(err)

	emu.Program = prog
	emu.Reset()
	return emu
}

func TestEmulatorMarquee(t *testing.T) {
	assert := assert.New(t)

	emu := boot(t, `
load A, "H"
save A, [&screen]
load A, "I"
save A, [o21]
load A, " "
save A, [o22]
save A, [o23]
stop
`)

	halted, err := emu.Run(100)
	assert.NoError(err)
	assert.True(halted)
	assert.Equal("HI  ", emu.Screen.Text())
}

func TestEmulatorPins(t *testing.T) {
	assert := assert.New(t)

	emu := boot(t, `
load A, o77
save A, [&directions]
load A, o25
save A, [&ports]
stop
`)

	halted, err := emu.Run(100)
	assert.NoError(err)
	assert.True(halted)
	assert.Equal(cpu.Cell(0o25), emu.Pins.Latched)
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	defines := map[string]cpu.Cell{}
	for label, value := range emu.Defines() {
		defines[label] = value
	}
	assert.Equal(cpu.SCREEN, defines["screen"])
	assert.Equal(cpu.PORTS, defines["ports"])
	assert.Equal(cpu.PROM, defines["prom"])
}

func TestEmulatorReset(t *testing.T) {
	assert := assert.New(t)

	emu := boot(t, `
load A, o11
stop
`)
	halted, err := emu.Run(10)
	assert.NoError(err)
	assert.True(halted)
	assert.Equal(cpu.Cell(0o11), emu.GetRegister(cpu.REG_A))

	// Reset restores powerup state and re-burns the same program.
	emu.Reset()
	assert.Equal(cpu.Cell(0), emu.GetRegister(cpu.REG_A))
	assert.Equal(cpu.PROM, emu.GetRegister(cpu.REG_I))
	halted, err = emu.Run(10)
	assert.NoError(err)
	assert.True(halted)
	assert.Equal(cpu.Cell(0o11), emu.GetRegister(cpu.REG_A))
}

func TestEmulatorRunLimit(t *testing.T) {
	assert := assert.New(t)

	emu := boot(t, `
:spin
jmp &spin
`)
	halted, err := emu.Run(32)
	assert.NoError(err)
	assert.False(halted)
}
