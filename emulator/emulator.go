// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"iter"
	"time"

	"github.com/octalplus/octalplus/cpu"
	"github.com/octalplus/octalplus/internal"
	"github.com/octalplus/octalplus/io"
)

// Emulator binds a Machine to its peripheral models and a program
// image.
type Emulator struct {
	Verbose bool // If set, enables verbose machine logging.
	*cpu.Machine
	Program *cpu.Program // Currently burned program and listing.

	Pins   io.Pins   // Six-pin port header.
	Screen io.Screen // Four-cell display window.

	// Speed is the pacing delay after each step, for human-watchable
	// runs. Zero runs at full speed.
	Speed time.Duration
}

// NewEmulator creates an emulator with the pin header and display
// wired to the machine hooks.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine: cpu.NewMachine(),
		Program: cpu.NewProgram(),
	}

	emu.Machine.Out = emu.Pins.Latch
	emu.Machine.Inp = emu.Pins.Sample
	emu.Machine.Display = emu.Screen.Refresh

	return
}

// Defines returns an iterator over the symbolic names contributed by
// the machine and its peripherals, for assembler predefines and the
// debugger.
func (emu *Emulator) Defines() iter.Seq2[string, cpu.Cell] {
	return internal.IterSeq2Concat(
		emu.Machine.Defines(),
		emu.Pins.Defines(),
		emu.Screen.Defines(),
	)
}

// Reset restores powerup state and burns the program into PROM.
func (emu *Emulator) Reset() {
	emu.Machine.Verbose = emu.Verbose
	emu.Machine.Reset()
	emu.Machine.Burn(emu.Program.Cells[:])
}

// Step runs a single instruction, honoring the pacing delay. It
// returns done=true when the machine rests on a STOP opcode.
func (emu *Emulator) Step() (done bool, err error) {
	ok, err := emu.Machine.Step()
	if err != nil {
		err = &ErrRuntime{Addr: emu.Machine.GetRegister(cpu.REG_I), Err: err}
		return
	}
	done = !ok
	if ok && emu.Speed > 0 {
		time.Sleep(emu.Speed)
	}
	return
}

// Run executes until STOP or the step limit. The limit guards against
// non-terminating programs; zero runs unbounded.
func (emu *Emulator) Run(limit int) (halted bool, err error) {
	for {
		var done bool
		done, err = emu.Step()
		if err != nil {
			return
		}
		if done {
			halted = true
			return
		}
		if limit > 0 {
			limit--
			if limit <= 0 {
				return
			}
		}
	}
}
