// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"github.com/octalplus/octalplus/cpu"
	"github.com/octalplus/octalplus/translate"
)

var f = translate.From

// ErrRuntime wraps a simulation fault with the instruction pointer at
// the time of the fault.
type ErrRuntime struct {
	Addr cpu.Cell
	Err  error
}

func (err *ErrRuntime) Error() string {
	return f("runtime at o%02o: %v", uint8(err.Addr), err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
