// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package io provides the peripheral models of the Octal Plus machine:
// the six-pin programmable port header and the four-cell OSCII display
// window. Both attach through the machine's out/inp/display hooks and
// stay inert until the machine steps.
package io
