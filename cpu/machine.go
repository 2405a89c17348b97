// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"iter"
	"log"
	"maps"
	"math/rand/v2"
	"strings"
)

// Cell is a single six-bit storage unit. Every write is masked to the
// low six bits; a Cell read from the machine is always in 0..0o77.
type Cell uint8

// CellMask is the six-bit value mask.
const CellMask = Cell(0o77)

// MEMORY_SIZE is the number of addressable cells.
const MEMORY_SIZE = 0o100

// Memory map regions and memory-mapped cells.
const (
	RAM     = Cell(0o00) // writable region start (quick page, stack, I/O)
	RAM_LEN = 0o24

	SCREEN     = Cell(0o20) // display window
	SCREEN_LEN = 4
	DIRECTIONS = Cell(0o24) // pin direction bits; 1 = output
	PORTS      = Cell(0o25) // pin state bits
	TICK_SLOW  = Cell(0o26) // +1 per 512 steps
	TICK_FAST  = Cell(0o27) // +1 per 8 steps

	PROM     = Cell(0o30) // read-only region start
	PROM_LEN = 0o50

	// STACK is the powerup stack pointer, one past the top of stack
	// space; the first push pre-decrements into 0o17.
	STACK = Cell(0o20)
)

// Register names the machine registers.
type Register int

const (
	REG_A Register = iota // accumulator
	REG_B                 // base/auxiliary
	REG_I                 // instruction pointer
	REG_S                 // stack pointer
	REG_F                 // flags
)

// Flag is one of the condition bits packed into the F register.
type Flag Cell

const (
	FLAG_C = Flag(0o4) // carry
	FLAG_M = Flag(0o2) // minus
	FLAG_Z = Flag(0o1) // zero
)

var _machine_defines = map[string]Cell{
	"screen":     SCREEN,
	"directions": DIRECTIONS,
	"ports":      PORTS,
	"tickslow":   TICK_SLOW,
	"tickfast":   TICK_FAST,
	"stack":      STACK,
	"prom":       PROM,
}

// LocKind discriminates the variants of a resolved operand location.
type LocKind int

const (
	LOC_NONE  LocKind = iota // no location; reads as zero, unwritable
	LOC_VALUE                // a literal value, not a reference
	LOC_MEM                  // a memory address
	LOC_REG                  // a named register
	LOC_FLAG                 // a single flag bit in F
)

// Loc is a resolved operand location: where an addressing mode lands
// after following the current register state.
type Loc struct {
	Kind  LocKind
	Addr  Cell
	Reg   Register
	Flag  Flag
	Value Cell
}

// Machine is the six-bit microcontroller simulation. The zero hooks
// give the headless contract: outputs discarded, inputs floating,
// display ignored.
type Machine struct {
	Verbose bool // If set, logs each executed instruction.

	Memory   [MEMORY_SIZE]Cell
	Register [5]Cell
	Clock    int

	Out     func(value Cell)            // output pin sink, value already direction-masked
	Inp     func() Cell                 // input pin source
	Display func(cells [SCREEN_LEN]Cell) // display window sink
}

// noise returns an arbitrary six-bit value, for uninitialized state and
// floating input pins.
func noise() Cell {
	return Cell(rand.IntN(MEMORY_SIZE))
}

// NewMachine connects memory and registers. Contents are noise until
// Reset, like the powered-up hardware before its reset line drops.
func NewMachine() (m *Machine) {
	m = &Machine{}
	for n := range m.Memory {
		m.Memory[n] = noise()
	}
	for n := range m.Register {
		m.Register[n] = noise()
	}
	m.Clock = int(noise())
	return
}

// Reset installs the powerup register values and runs the first ticker
// and I/O pass. Memory other than the ticker cells is left as-is.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("machine: reset")
	}
	m.SetRegister(REG_A, 0)
	m.SetRegister(REG_B, 0)
	m.SetRegister(REG_I, PROM)
	m.SetRegister(REG_S, STACK)
	m.SetRegister(REG_F, 0)
	m.Clock = 0
	m.tick()
	m.io()
}

// GetRegister reads a register.
func (m *Machine) GetRegister(reg Register) Cell {
	return m.Register[reg]
}

// SetRegister writes a register, masked to six bits.
func (m *Machine) SetRegister(reg Register, value Cell) {
	m.Register[reg] = value & CellMask
}

// GetFlag reads a flag bit as 0 or 1.
func (m *Machine) GetFlag(flag Flag) Cell {
	if m.Register[REG_F]&Cell(flag) != 0 {
		return 1
	}
	return 0
}

// SetFlag sets or clears a flag bit; any non-zero value sets.
func (m *Machine) SetFlag(flag Flag, value Cell) {
	bits := m.Register[REG_F] &^ Cell(flag)
	if value != 0 {
		bits |= Cell(flag)
	}
	m.Register[REG_F] = bits
}

// Peek reads a memory cell.
func (m *Machine) Peek(addr Cell) Cell {
	return m.Memory[addr&CellMask]
}

// Poke writes a memory cell the way a running program can: writes to
// the ports cell keep only the output-direction bits, and writes into
// PROM are discarded.
func (m *Machine) Poke(addr Cell, value Cell) {
	m.poke(addr, value, false)
}

// BurnCell latches a value anywhere in memory, PROM included. This is
// the loader and debugger path, not reachable from a running program.
func (m *Machine) BurnCell(addr Cell, value Cell) {
	m.poke(addr, value, true)
}

func (m *Machine) poke(addr Cell, value Cell, prom bool) {
	addr &= CellMask
	value &= CellMask
	if addr == PORTS {
		value &= m.Memory[DIRECTIONS]
	}
	if addr < PROM || prom {
		m.Memory[addr] = value
	}
}

// locate resolves an addressing mode to a concrete location, following
// the current B and S registers.
func (m *Machine) locate(mode Mode, operand Cell) Loc {
	switch mode {
	case MODE_IMM:
		return Loc{Kind: LOC_VALUE, Value: operand & CellMask}
	case MODE_IND:
		return Loc{Kind: LOC_MEM, Addr: operand & CellMask}
	case MODE_BASE:
		return Loc{Kind: LOC_MEM, Addr: m.GetRegister(REG_B)}
	case MODE_STACK:
		return Loc{Kind: LOC_MEM, Addr: m.GetRegister(REG_S)}
	case MODE_REG_A:
		return Loc{Kind: LOC_REG, Reg: REG_A}
	case MODE_REG_B:
		return Loc{Kind: LOC_REG, Reg: REG_B}
	case MODE_REG_I:
		return Loc{Kind: LOC_REG, Reg: REG_I}
	case MODE_REG_F:
		return Loc{Kind: LOC_REG, Reg: REG_F}
	case MODE_FLAG_C:
		return Loc{Kind: LOC_FLAG, Flag: FLAG_C}
	case MODE_FLAG_M:
		return Loc{Kind: LOC_FLAG, Flag: FLAG_M}
	case MODE_FLAG_Z:
		return Loc{Kind: LOC_FLAG, Flag: FLAG_Z}
	}
	if addr, ok := mode.Quick(); ok {
		return Loc{Kind: LOC_MEM, Addr: addr}
	}
	return Loc{Kind: LOC_NONE}
}

// Read reads a location. LOC_NONE reads as zero.
func (m *Machine) Read(loc Loc) Cell {
	switch loc.Kind {
	case LOC_VALUE:
		return loc.Value & CellMask
	case LOC_MEM:
		return m.Peek(loc.Addr)
	case LOC_REG:
		return m.GetRegister(loc.Reg)
	case LOC_FLAG:
		return m.GetFlag(loc.Flag)
	}
	return 0
}

// Write writes a location. Writing LOC_NONE or LOC_VALUE is a fault.
func (m *Machine) Write(loc Loc, value Cell) (err error) {
	switch loc.Kind {
	case LOC_MEM:
		m.Poke(loc.Addr, value)
	case LOC_REG:
		m.SetRegister(loc.Reg, value)
	case LOC_FLAG:
		m.SetFlag(loc.Flag, value)
	default:
		err = ErrNoTarget
	}
	return
}

// setFlags derives the flags from an unmasked operation result. The
// value may exceed six bits or be negative; carry and minus see the
// overflow before the mask discards it.
func (m *Machine) setFlags(value int) {
	m.SetFlag(FLAG_Z, cellIf(value&0o77 == 0))
	m.SetFlag(FLAG_M, cellIf(value < 0 || value&0o40 != 0))
	m.SetFlag(FLAG_C, cellIf(value < 0 || value&0o300 != 0))
}

func cellIf(cond bool) Cell {
	if cond {
		return 1
	}
	return 0
}

// jumpFlag gives the flag tested by a conditional jump class.
func jumpFlag(class OpClass) (flag Flag, negated bool, ok bool) {
	switch class {
	case OP_JC:
		flag, ok = FLAG_C, true
	case OP_JM:
		flag, ok = FLAG_M, true
	case OP_JZ:
		flag, ok = FLAG_Z, true
	case OP_JNC:
		flag, negated, ok = FLAG_C, true, true
	case OP_JNM:
		flag, negated, ok = FLAG_M, true, true
	case OP_JNZ:
		flag, negated, ok = FLAG_Z, true, true
	}
	return
}

// operate applies the operation class to the source value, returning
// the unmasked result to write. Flags are derived here, before the
// target write, so a pop into F overrides the derived flags.
func (m *Machine) operate(class OpClass, value int) int {
	a := int(m.GetRegister(REG_A))
	c := int(m.GetFlag(FLAG_C))

	if flag, negated, ok := jumpFlag(class); ok {
		taken := m.GetFlag(flag) != 0
		if negated {
			taken = !taken
		}
		if !taken {
			// Fall through to the next instruction.
			value = int(m.GetRegister(REG_I))
		}
		return value
	}

	switch class {
	case OP_CALL:
		// S was pre-decremented; latch the return address.
		m.Poke(m.GetRegister(REG_S), m.GetRegister(REG_I))
	case OP_ADD:
		value = a + value + c
	case OP_SUB:
		value = a - value - c
	case OP_AND:
		value = a & value
	case OP_OR:
		value = a | value
	case OP_INC:
		value++
	case OP_DEC:
		value--
	case OP_ROR:
		value = (value >> 1) | ((value & 0o1) << 6) | (c << 5)
	case OP_ROL:
		value = (value << 1) | c
	}

	switch class {
	case OP_CLR, OP_LOAD, OP_POP,
		OP_ADD, OP_SUB, OP_AND, OP_OR,
		OP_ROL, OP_ROR, OP_INC, OP_DEC:
		m.setFlags(value)
	}

	return value
}

// execute performs one decoded instruction: push pre-decrement, source
// read, operate, target write, then base/pop post-increment.
func (m *Machine) execute(rec OpRecord, operand Cell) (err error) {
	if rec.Effect == EFFECT_PUSH {
		m.SetRegister(REG_S, m.GetRegister(REG_S)-1)
	}

	value := int(m.Read(m.locate(rec.Source, operand)))
	value = m.operate(rec.Class, value)
	err = m.Write(m.locate(rec.Target, operand), Cell(value))
	if err != nil {
		return
	}

	switch rec.Effect {
	case EFFECT_BASE:
		m.SetRegister(REG_B, m.GetRegister(REG_B)+1)
	case EFFECT_POP:
		m.SetRegister(REG_S, m.GetRegister(REG_S)+1)
	}

	return
}

// fetch reads the cell at I and advances I, wrapping at the top of
// memory.
func (m *Machine) fetch() Cell {
	i := m.GetRegister(REG_I)
	value := m.Peek(i)
	m.SetRegister(REG_I, i+1)
	return value
}

// tick advances the clock and refreshes the ticker cells. The fast
// cell counts steps/8, the slow cell steps/512; both wrap with the
// six-bit mask so the pair repeats every 32768 steps.
func (m *Machine) tick() {
	m.Memory[TICK_FAST] = Cell(m.Clock>>3) & CellMask
	m.Memory[TICK_SLOW] = Cell(m.Clock>>9) & CellMask
	m.Clock++
}

// io runs the memory-mapped I/O pass: present the output pins, merge
// the input pins into the ports cell, and present the display window.
func (m *Machine) io() {
	outputs := m.Memory[DIRECTIONS]
	inputs := ^outputs & CellMask

	value := m.Memory[PORTS] & outputs
	if m.Out != nil {
		m.Out(value)
	}

	sample := noise()
	if m.Inp != nil {
		sample = m.Inp()
	}
	value |= sample & inputs
	m.Memory[PORTS] = value

	if m.Display != nil {
		var cells [SCREEN_LEN]Cell
		copy(cells[:], m.Memory[SCREEN:SCREEN+SCREEN_LEN])
		m.Display(cells)
	}
}

// Stopped reports whether the machine is resting on a STOP opcode.
// STOP is never consumed; I stays pointed at it.
func (m *Machine) Stopped() bool {
	return m.Peek(m.GetRegister(REG_I)) == STOP_CODE
}

// Step fetches and executes a single instruction, then runs the ticker
// and I/O pass. It returns false with a nil error when the machine is
// resting on a STOP opcode.
func (m *Machine) Step() (ok bool, err error) {
	if m.Stopped() {
		return
	}

	at := m.GetRegister(REG_I)
	op := m.fetch()
	rec := Decode(op)
	var operand Cell
	if rec.Immediate {
		operand = m.fetch()
	}

	if m.Verbose {
		log.Printf("o%02o: o%02o %v", uint8(at), uint8(op), rec)
	}

	err = m.execute(rec, operand)
	if err != nil {
		err = &ErrFault{Addr: at, Op: op, Err: err}
		return
	}

	m.tick()
	m.io()
	ok = true
	return
}

// Run executes instructions until a STOP opcode is reached. A positive
// limit bounds the number of steps; Run returns halted=false when the
// limit runs out first. A zero limit runs unbounded.
func (m *Machine) Run(limit int) (halted bool, err error) {
	for {
		var ok bool
		ok, err = m.Step()
		if err != nil {
			return
		}
		if !ok {
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

// Burn latches a program image into PROM. Images longer than PROM are
// truncated.
func (m *Machine) Burn(cells []Cell) {
	if len(cells) > PROM_LEN {
		cells = cells[:PROM_LEN]
	}
	for n, value := range cells {
		m.BurnCell(PROM+Cell(n), value)
	}
}

// BurnText burns an OSCII-rendered program image into PROM.
func (m *Machine) BurnText(text string) (err error) {
	cells, err := EncodeText(text)
	if err != nil {
		return
	}
	m.Burn(cells)
	return
}

// LoadRAM writes an OSCII-rendered string into the writable region,
// starting at address zero.
func (m *Machine) LoadRAM(text string) (err error) {
	cells, err := EncodeText(text)
	if err != nil {
		return
	}
	if len(cells) > RAM_LEN {
		cells = cells[:RAM_LEN]
	}
	for n, value := range cells {
		m.Poke(Cell(n), value)
	}
	return
}

// SaveText renders an inclusive memory span in the OSCII alphabet.
func (m *Machine) SaveText(begin Cell, end Cell) string {
	var sb strings.Builder
	for addr := begin & CellMask; ; addr++ {
		sb.WriteByte(DecodeChar(m.Peek(addr)))
		if addr >= end&CellMask {
			break
		}
	}
	return sb.String()
}

// Defines returns an iterator over the symbolic names of the
// memory-mapped addresses.
func (m *Machine) Defines() iter.Seq2[string, Cell] {
	return maps.All(_machine_defines)
}
