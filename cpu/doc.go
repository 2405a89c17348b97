// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package cpu simulates the Octal Plus six-bit microcontroller and
// assembles its programs.
//
// The machine has a 64-cell address space split between quick-page RAM,
// stack space, memory-mapped I/O and PROM, five six-bit registers
// (A, B, I, S, F), and a 64-entry instruction set. The instruction set
// lives in a single descriptor table shared by the Machine and the
// Assembler, so the two can never disagree about an encoding.
package cpu
