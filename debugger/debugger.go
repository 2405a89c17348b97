// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package debugger drives an emulator interactively: a memory grid,
// register and listing views redrawn after every command, and a small
// command language for stepping, running, and patching state.
package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/octalplus/octalplus/cpu"
	"github.com/octalplus/octalplus/emulator"
)

// Debugger drives an emulator one command per line.
type Debugger struct {
	Emulator  *emulator.Emulator
	Assembler *cpu.Assembler // Source of the listing view and symbol lookups.

	Input  io.Reader // Command source; defaults to stdin.
	Output io.Writer // Rendered views; defaults to stdout.
	Term   *Terminal // Optional screen control; nil scrolls.

	StepLimit int // Step ceiling for the go command.

	messages []string
	width    int
	quit     bool
}

// NewDebugger creates a debugger around an emulator.
func NewDebugger(emu *emulator.Emulator) (dbg *Debugger) {
	dbg = &Debugger{
		Emulator:  emu,
		Assembler: &cpu.Assembler{},
		Input:     os.Stdin,
		Output:    os.Stdout,
		StepLimit: 5000,
		width:     80,
	}
	return
}

// Message queues a line to show above the next prompt.
func (dbg *Debugger) Message(format string, args ...any) {
	dbg.messages = append(dbg.messages, fmt.Sprintf(format, args...))
}

// Assemble replaces the loaded program: assembles the source with the
// emulator's symbols predefined, burns it, and adopts its listing.
func (dbg *Debugger) Assemble(source io.Reader, name string) {
	asm := &cpu.Assembler{Source: name}
	for label, value := range dbg.Emulator.Defines() {
		asm.Predefine(label, value)
	}
	prog, err := asm.Assemble(source)
	dbg.Assembler = asm
	if err != nil {
		for _, diag := range asm.Diags {
			dbg.Message("%s", diag)
		}
		return
	}
	dbg.Emulator.Program = prog
	dbg.Emulator.Machine.Burn(prog.Cells[:])
	dbg.Message("Assembled and burned %s.", name)
}

func widest(lines []string) (width int) {
	for _, line := range lines {
		width = max(width, len(line))
	}
	return
}

// pack appends a column of lines flush right of the existing view.
func pack(view, lines []string) []string {
	width := widest(view)
	for len(view) < len(lines) {
		view = append(view, strings.Repeat(" ", width))
	}
	for len(lines) < len(view) {
		lines = append(lines, "")
	}
	width = widest(lines)
	for n := range view {
		view[n] += " " + fmt.Sprintf("%-*s", width, lines[n])
	}
	return view
}

// memView renders the 8x8 memory grid in the OSCII alphabet.
func (dbg *Debugger) memView() []string {
	mach := dbg.Emulator.Machine
	view := []string{"   01234567", "  +--------"}
	for row := 0; row < 8; row++ {
		text := mach.SaveText(cpu.Cell(row*8), cpu.Cell(row*8+7))
		view = append(view, fmt.Sprintf(" %d|%s", row, text))
	}
	return view
}

// pinView renders six pin bits, high bit first.
func pinView(bits cpu.Cell, glyphs string) string {
	var sb strings.Builder
	for mask := cpu.Cell(0o40); mask != 0; mask >>= 1 {
		if bits&mask != 0 {
			sb.WriteByte(glyphs[0])
		} else {
			sb.WriteByte(glyphs[1])
		}
	}
	return sb.String()
}

// regView renders the registers, flags, pins and display window.
func (dbg *Debugger) regView() []string {
	mach := dbg.Emulator.Machine
	a := mach.GetRegister(cpu.REG_A)
	b := mach.GetRegister(cpu.REG_B)
	i := mach.GetRegister(cpu.REG_I)
	s := mach.GetRegister(cpu.REG_S)
	op := mach.Peek(i)

	view := []string{
		fmt.Sprintf(" A=o%02o '%c'", uint8(a), cpu.DecodeChar(a)),
		fmt.Sprintf(" B=o%02o '%c' [%c]", uint8(b), cpu.DecodeChar(b), cpu.DecodeChar(mach.Peek(b))),
		fmt.Sprintf(" I=o%02o '%c' [%v]", uint8(i), cpu.DecodeChar(i), cpu.Decode(op).Class),
		fmt.Sprintf(" S=o%02o '%c'", uint8(s), cpu.DecodeChar(s)),
		fmt.Sprintf(" C= %d", mach.GetFlag(cpu.FLAG_C)),
		fmt.Sprintf(" M= %d", mach.GetFlag(cpu.FLAG_M)),
		fmt.Sprintf(" Z= %d", mach.GetFlag(cpu.FLAG_Z)),
		" dir: " + pinView(mach.Peek(cpu.DIRECTIONS), "v^"),
		" i/o: " + pinView(mach.Peek(cpu.PORTS), "10"),
		fmt.Sprintf(" dis: [%s]", mach.SaveText(cpu.SCREEN, cpu.SCREEN+cpu.SCREEN_LEN-1)),
	}
	return view
}

// findListing locates the listing entry placed at an address.
func (dbg *Debugger) findListing(addr cpu.Cell) int {
	prefix := fmt.Sprintf("@%02o|", uint8(addr))
	listing := dbg.Assembler.Listing
	for n := len(listing) - 1; n >= 0; n-- {
		if strings.HasPrefix(listing[n], prefix) {
			return n
		}
	}
	return -1
}

// objView renders a listing window around the current instruction.
func (dbg *Debugger) objView() []string {
	view := make([]string, 10)
	listing := dbg.Assembler.Listing
	if len(listing) == 0 {
		return view
	}

	// Walk backwards from I to the nearest listed address; immediates
	// have no listing entry of their own.
	addr := dbg.Emulator.Machine.GetRegister(cpu.REG_I)
	stop := addr
	at := -1
	for {
		at = dbg.findListing(addr)
		if at >= 0 {
			break
		}
		addr = (addr - 1) & cpu.CellMask
		if addr == stop {
			return view
		}
	}

	for n := at - 2; n < at+8; n++ {
		line := ""
		if n >= 0 && n < len(listing) {
			line = listing[n]
		}
		if n == at {
			line += " <--"
		}
		view[n-(at-2)] = line
	}
	return view
}

// update redraws the whole debugger screen.
func (dbg *Debugger) update() {
	view := make([]string, 10)
	view = pack(view, dbg.memView())
	view = pack(view, dbg.regView())
	if len(dbg.Assembler.Listing) > 0 {
		view = pack(view, dbg.objView())
	}

	if dbg.Term != nil {
		dbg.width, _ = dbg.Term.Size()
		dbg.Term.Clear()
	}

	fmt.Fprintln(dbg.Output, "Octal Plus 6-bit Microcontroller Emulator")
	fmt.Fprintln(dbg.Output, `Hit <Enter> to step, type "h" for help, or "q" to quit.`)
	fmt.Fprintln(dbg.Output)
	for _, line := range view {
		if dbg.width > 0 && len(line) >= dbg.width {
			line = line[:dbg.width-1]
		}
		fmt.Fprintln(dbg.Output, strings.TrimRight(line, " "))
	}
	if len(dbg.messages) > 0 {
		fmt.Fprintln(dbg.Output)
		for _, line := range dbg.messages {
			fmt.Fprintln(dbg.Output, line)
		}
	}
	fmt.Fprintln(dbg.Output)
}

func (dbg *Debugger) step() {
	done, err := dbg.Emulator.Step()
	if err != nil {
		dbg.Message("%v", err)
		return
	}
	if done {
		dbg.Message("Machine reached a STOP instruction.")
	}
}

func (dbg *Debugger) run() {
	limit := dbg.StepLimit
	for {
		done, err := dbg.Emulator.Step()
		if err != nil {
			dbg.Message("%v", err)
			return
		}
		if done {
			dbg.Message("Machine reached a STOP instruction.")
			return
		}
		if limit > 0 {
			limit--
			if limit <= 0 {
				dbg.Message("Stopped after %d steps.", dbg.StepLimit)
				return
			}
		}
	}
}

// neat wipes RAM to '.', PROM to STOP, and resets.
func (dbg *Debugger) neat() {
	dbg.Assembler = &cpu.Assembler{}
	_ = dbg.Emulator.Machine.LoadRAM(strings.Repeat(".", cpu.RAM_LEN))
	dbg.Emulator.Program = cpu.NewProgram()
	dbg.Emulator.Reset()
}

func (dbg *Debugger) help() {
	dbg.messages = append(dbg.messages,
		` STEP (or <Enter>) - execute the instruction at I and advance`,
		` GO - run until a STOP is reached, or the step limit`,
		` RESET - reset all machine registers to powerup values`,
		` NEAT - load "." throughout RAM and "%" (STOP) throughout PROM`,
		` READ <file> - assemble a source file and burn it into PROM`,
		` <register> <value> - load a register or flag with a value`,
		`    e.g.  A "$"  - loads A with o51 (OSCII $)`,
		` <address> <value> - poke memory with a value`,
		`    e.g.  o20 o00  - stores o00 into memory location o20`,
		`    (careful: this command can burn cells into PROM)`,
	)
}

// registerOf maps a command verb to a register or flag.
func registerOf(verb string) (reg cpu.Register, flag cpu.Flag, ok bool) {
	switch verb {
	case "a":
		reg, ok = cpu.REG_A, true
	case "b":
		reg, ok = cpu.REG_B, true
	case "i":
		reg, ok = cpu.REG_I, true
	case "s":
		reg, ok = cpu.REG_S, true
	case "f":
		reg, ok = cpu.REG_F, true
	case "c":
		flag, ok = cpu.FLAG_C, true
	case "m":
		flag, ok = cpu.FLAG_M, true
	case "z":
		flag, ok = cpu.FLAG_Z, true
	}
	return
}

// Execute performs a single debugger command.
func (dbg *Debugger) Execute(command string) {
	words := strings.Fields(command)
	verb := ""
	if len(words) > 0 {
		verb = strings.ToLower(words[0])
	}

	switch verb {
	case "q", "quit", "exit":
		dbg.quit = true
		return
	case "", "step":
		dbg.step()
		return
	case "h", "help":
		dbg.help()
		return
	case "r", "reset":
		dbg.Emulator.Machine.Reset()
		return
	case "g", "go", "run":
		dbg.run()
		return
	case "n", "neat":
		dbg.neat()
		return
	case "l", "read":
		if len(words) < 2 {
			dbg.Message("Expected a file to read.")
			return
		}
		name := words[1]
		f, err := os.Open(name)
		if err != nil {
			dbg.Message("%v", err)
			return
		}
		defer f.Close()
		dbg.Assemble(f, name)
		return
	}

	// Register or flag assignment.
	if reg, flag, ok := registerOf(verb); ok {
		if len(words) < 2 {
			dbg.Message("Expected a value to load in %s.", strings.ToUpper(verb))
			return
		}
		value, good := dbg.Assembler.Lookup(words[1])
		if !good {
			dbg.Message("Bad value to load in %s.", strings.ToUpper(verb))
			return
		}
		if flag != 0 {
			dbg.Emulator.Machine.SetFlag(flag, value)
		} else {
			dbg.Emulator.Machine.SetRegister(reg, value)
		}
		dbg.Message("Register %s loaded with o%02o.", strings.ToUpper(verb), uint8(value))
		return
	}

	// Memory assignment.
	if addr, ok := dbg.Assembler.Lookup(words[0]); ok {
		if len(words) < 2 {
			dbg.Message("Expected a value to store at o%02o.", uint8(addr))
			return
		}
		value, good := dbg.Assembler.Lookup(words[1])
		if !good {
			dbg.Message("Bad value to store at o%02o.", uint8(addr))
			return
		}
		dbg.Emulator.Machine.BurnCell(addr, value)
		dbg.Message("Memory at o%02o set to o%02o.", uint8(addr), uint8(value))
		return
	}

	dbg.Message("Command %q not recognized; \"h\" for help.", command)
}

// Run renders and executes commands until quit or end of input.
func (dbg *Debugger) Run() {
	if dbg.Term != nil {
		defer dbg.Term.Restore()
	}

	scanner := bufio.NewScanner(dbg.Input)
	for !dbg.quit {
		dbg.update()
		dbg.messages = dbg.messages[:0]
		fmt.Fprint(dbg.Output, "Command: ")
		if !scanner.Scan() {
			break
		}
		dbg.Execute(scanner.Text())
	}
}
