// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"strings"

	"github.com/octalplus/octalplus/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrNoTarget = errors.New(f("no writable target"))

	// Program image errors
	ErrImageLength = errors.New(f("image longer than PROM"))
)

// ErrFault is an unrecoverable simulation fault, carrying the address
// and opcode of the faulting instruction.
type ErrFault struct {
	Addr Cell
	Op   Cell
	Err  error
}

func (err *ErrFault) Error() string {
	return f("fault at o%02o: opcode o%02o: %v", uint8(err.Addr), uint8(err.Op), err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

// ErrEncodeCharacter reports a character outside the OSCII alphabet.
type ErrEncodeCharacter string

func (err ErrEncodeCharacter) Error() string {
	return f("'%v' is not an OSCII character", string(err))
}

// ErrParseExpression reports an invalid $() compile-time expression.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrDiagnostics is the aggregate assembly failure: every error-severity
// diagnostic collected during an Assemble call.
type ErrDiagnostics []Diagnostic

func (err ErrDiagnostics) Error() string {
	lines := make([]string, len(err))
	for n, diag := range err {
		lines[n] = diag.String()
	}
	return strings.Join(lines, "\n")
}
