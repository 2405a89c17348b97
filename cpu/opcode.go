// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
)

// OpClass is the operation performed by an opcode.
type OpClass int

const (
	OP_CLR  OpClass = iota // clr
	OP_LOAD                // load
	OP_SAVE                // save
	OP_PUSH                // push
	OP_POP                 // pop
	OP_JMP                 // jmp
	OP_JC                  // jc
	OP_JM                  // jm
	OP_JZ                  // jz
	OP_JNC                 // jnc
	OP_JNM                 // jnm
	OP_JNZ                 // jnz
	OP_CALL                // call
	OP_RET                 // ret
	OP_ROL                 // rol
	OP_ROR                 // ror
	OP_INC                 // inc
	OP_DEC                 // dec
	OP_ADD                 // add
	OP_SUB                 // sub
	OP_AND                 // and
	OP_OR                  // or
	OP_STOP                // stop
	OP_QL                  // ql
	OP_QS                  // qs
)

var opClassNames = [...]string{
	"clr", "load", "save", "push", "pop",
	"jmp", "jc", "jm", "jz", "jnc", "jnm", "jnz",
	"call", "ret", "rol", "ror", "inc", "dec",
	"add", "sub", "and", "or", "stop", "ql", "qs",
}

func (class OpClass) String() string {
	if class < 0 || int(class) >= len(opClassNames) {
		return "op?"
	}
	return opClassNames[class]
}

// classNames maps mnemonics to classes. The quick classes are excluded;
// their mnemonics (ql0..ql7, qs0..qs7) carry a page index as well.
var classNames = func() map[string]OpClass {
	names := make(map[string]OpClass, len(opClassNames))
	for n, name := range opClassNames {
		names[name] = OpClass(n)
	}
	delete(names, "ql")
	delete(names, "qs")
	return names
}()

// synonyms are the alternate mnemonic spellings accepted by the assembler.
var synonyms = map[string]string{
	"clear":  "clr",
	"store":  "save",
	"sto":    "save",
	"pull":   "pop",
	"move":   "load",
	"mov":    "load",
	"return": "ret",
	"halt":   "stop",
}

// Mode is an operand addressing mode.
type Mode int

const (
	MODE_NONE   Mode = iota // no operand; reads as zero, unwritable
	MODE_IMM                // immediate value
	MODE_IND                // [imm] memory indirect
	MODE_BASE               // [B] base register indirect
	MODE_STACK              // [S] stack pointer indirect
	MODE_REG_A              // A register
	MODE_REG_B              // B register
	MODE_REG_I              // I register
	MODE_REG_F              // F register
	MODE_FLAG_C             // carry flag
	MODE_FLAG_M             // minus flag
	MODE_FLAG_Z             // zero flag
	MODE_Q0                 // quick page cell 0
	MODE_Q1
	MODE_Q2
	MODE_Q3
	MODE_Q4
	MODE_Q5
	MODE_Q6
	MODE_Q7
)

var modeNames = [...]string{
	"none", "imm", "[imm]", "[B]", "[S]",
	"A", "B", "I", "F", "C", "M", "Z",
	"q0", "q1", "q2", "q3", "q4", "q5", "q6", "q7",
}

func (mode Mode) String() string {
	if mode < 0 || int(mode) >= len(modeNames) {
		return "mode?"
	}
	return modeNames[mode]
}

// Quick returns the quick-page address of a quick addressing mode.
func (mode Mode) Quick() (addr Cell, ok bool) {
	if mode >= MODE_Q0 && mode <= MODE_Q7 {
		addr = Cell(mode - MODE_Q0)
		ok = true
	}
	return
}

// SideEffect is the register adjustment attached to an opcode.
type SideEffect int

const (
	EFFECT_NONE SideEffect = iota // none
	EFFECT_PUSH                   // pre-decrement S
	EFFECT_POP                    // post-increment S
	EFFECT_BASE                   // post-increment B
)

var effectNames = [...]string{"none", "push", "pop", "base"}

func (effect SideEffect) String() string {
	if effect < 0 || int(effect) >= len(effectNames) {
		return "effect?"
	}
	return effectNames[effect]
}

// OpRecord describes one opcode: its operation class, the addressing
// modes of its source and target, whether a trailing immediate cell is
// fetched, and its stack or base side effect.
type OpRecord struct {
	Class     OpClass
	Source    Mode
	Target    Mode
	Immediate bool
	Effect    SideEffect
}

func (rec OpRecord) String() string {
	text := fmt.Sprintf("%v %v->%v", rec.Class, rec.Source, rec.Target)
	if rec.Immediate {
		text += " imm"
	}
	if rec.Effect != EFFECT_NONE {
		text += " " + rec.Effect.String()
	}
	return text
}

// STOP_CODE is the opcode the Machine rests on when halted.
const STOP_CODE = Cell(0o52)

// opTable is the descriptor table shared by the Machine and the
// Assembler. Immutable process-wide data; neither side keeps a copy.
var opTable = [MEMORY_SIZE]OpRecord{
	0o00: {OP_CLR, MODE_NONE, MODE_REG_A, false, EFFECT_NONE},
	0o01: {OP_CLR, MODE_NONE, MODE_REG_B, false, EFFECT_NONE},
	0o02: {OP_JMP, MODE_IMM, MODE_REG_I, true, EFFECT_NONE},
	0o03: {OP_QL, MODE_Q0, MODE_REG_A, false, EFFECT_NONE},
	0o04: {OP_CLR, MODE_NONE, MODE_FLAG_C, false, EFFECT_NONE},
	0o05: {OP_CLR, MODE_NONE, MODE_FLAG_M, false, EFFECT_NONE},
	0o06: {OP_CLR, MODE_NONE, MODE_FLAG_Z, false, EFFECT_NONE},
	0o07: {OP_QS, MODE_REG_A, MODE_Q0, false, EFFECT_NONE},

	0o10: {OP_LOAD, MODE_IND, MODE_REG_A, true, EFFECT_NONE},
	0o11: {OP_LOAD, MODE_IND, MODE_REG_B, true, EFFECT_NONE},
	0o12: {OP_LOAD, MODE_BASE, MODE_REG_A, false, EFFECT_BASE},
	0o13: {OP_QL, MODE_Q1, MODE_REG_A, false, EFFECT_NONE},
	0o14: {OP_JC, MODE_IMM, MODE_REG_I, true, EFFECT_NONE},
	0o15: {OP_JM, MODE_IMM, MODE_REG_I, true, EFFECT_NONE},
	0o16: {OP_JZ, MODE_IMM, MODE_REG_I, true, EFFECT_NONE},
	0o17: {OP_QS, MODE_REG_A, MODE_Q1, false, EFFECT_NONE},

	0o20: {OP_SAVE, MODE_REG_A, MODE_IND, true, EFFECT_NONE},
	0o21: {OP_SAVE, MODE_REG_B, MODE_IND, true, EFFECT_NONE},
	0o22: {OP_SAVE, MODE_REG_A, MODE_BASE, false, EFFECT_BASE},
	0o23: {OP_QL, MODE_Q2, MODE_REG_A, false, EFFECT_NONE},
	0o24: {OP_JNC, MODE_IMM, MODE_REG_I, true, EFFECT_NONE},
	0o25: {OP_JNM, MODE_IMM, MODE_REG_I, true, EFFECT_NONE},
	0o26: {OP_JNZ, MODE_IMM, MODE_REG_I, true, EFFECT_NONE},
	0o27: {OP_QS, MODE_REG_A, MODE_Q2, false, EFFECT_NONE},

	0o30: {OP_POP, MODE_STACK, MODE_REG_A, false, EFFECT_POP},
	0o31: {OP_POP, MODE_STACK, MODE_REG_B, false, EFFECT_POP},
	0o32: {OP_RET, MODE_STACK, MODE_REG_I, false, EFFECT_POP},
	0o33: {OP_QL, MODE_Q3, MODE_REG_A, false, EFFECT_NONE},
	0o34: {OP_ROL, MODE_REG_A, MODE_REG_A, false, EFFECT_NONE},
	0o35: {OP_INC, MODE_REG_B, MODE_REG_B, false, EFFECT_NONE},
	0o36: {OP_POP, MODE_STACK, MODE_REG_F, false, EFFECT_POP},
	0o37: {OP_QS, MODE_REG_A, MODE_Q3, false, EFFECT_NONE},

	0o40: {OP_PUSH, MODE_REG_A, MODE_STACK, false, EFFECT_PUSH},
	0o41: {OP_PUSH, MODE_REG_B, MODE_STACK, false, EFFECT_PUSH},
	0o42: {OP_CALL, MODE_IMM, MODE_REG_I, true, EFFECT_PUSH},
	0o43: {OP_QL, MODE_Q4, MODE_REG_A, false, EFFECT_NONE},
	0o44: {OP_ROR, MODE_REG_A, MODE_REG_A, false, EFFECT_NONE},
	0o45: {OP_DEC, MODE_REG_B, MODE_REG_B, false, EFFECT_NONE},
	0o46: {OP_PUSH, MODE_REG_F, MODE_STACK, false, EFFECT_PUSH},
	0o47: {OP_QS, MODE_REG_A, MODE_Q4, false, EFFECT_NONE},

	0o50: {OP_LOAD, MODE_REG_B, MODE_REG_A, false, EFFECT_NONE},
	0o51: {OP_LOAD, MODE_REG_A, MODE_REG_B, false, EFFECT_NONE},
	0o52: {OP_STOP, MODE_NONE, MODE_REG_I, false, EFFECT_NONE},
	0o53: {OP_QL, MODE_Q5, MODE_REG_A, false, EFFECT_NONE},
	0o54: {OP_LOAD, MODE_IMM, MODE_REG_A, true, EFFECT_NONE},
	0o55: {OP_LOAD, MODE_IMM, MODE_REG_B, true, EFFECT_NONE},
	0o56: {OP_LOAD, MODE_IMM, MODE_REG_F, true, EFFECT_BASE}, // also bumps B
	0o57: {OP_QS, MODE_REG_A, MODE_Q5, false, EFFECT_NONE},

	0o60: {OP_ADD, MODE_IMM, MODE_REG_A, true, EFFECT_NONE},
	0o61: {OP_ADD, MODE_REG_B, MODE_REG_A, false, EFFECT_NONE},
	0o62: {OP_ADD, MODE_BASE, MODE_REG_A, false, EFFECT_BASE},
	0o63: {OP_QL, MODE_Q6, MODE_REG_A, false, EFFECT_NONE},
	0o64: {OP_AND, MODE_IMM, MODE_REG_A, true, EFFECT_NONE},
	0o65: {OP_AND, MODE_REG_B, MODE_REG_A, false, EFFECT_NONE},
	0o66: {OP_AND, MODE_BASE, MODE_REG_A, false, EFFECT_BASE},
	0o67: {OP_QS, MODE_REG_A, MODE_Q6, false, EFFECT_NONE},

	0o70: {OP_SUB, MODE_IMM, MODE_REG_A, true, EFFECT_NONE},
	0o71: {OP_SUB, MODE_REG_B, MODE_REG_A, false, EFFECT_NONE},
	0o72: {OP_SUB, MODE_BASE, MODE_REG_A, false, EFFECT_BASE},
	0o73: {OP_QL, MODE_Q7, MODE_REG_A, false, EFFECT_NONE},
	0o74: {OP_OR, MODE_IMM, MODE_REG_A, true, EFFECT_NONE},
	0o75: {OP_OR, MODE_REG_B, MODE_REG_A, false, EFFECT_NONE},
	0o76: {OP_OR, MODE_BASE, MODE_REG_A, false, EFFECT_BASE},
	0o77: {OP_QS, MODE_REG_A, MODE_Q7, false, EFFECT_NONE},
}

// Decode returns the descriptor record for an opcode. The table is
// total over the six-bit opcode space; every cell value decodes.
func Decode(op Cell) OpRecord {
	return opTable[op&CellMask]
}

// Encodings returns an iterator over the opcodes that encode a class,
// in ascending opcode order. The assembler uses it as a reverse lookup.
func Encodings(class OpClass) iter.Seq2[Cell, OpRecord] {
	return func(yield func(Cell, OpRecord) bool) {
		for op, rec := range opTable {
			if rec.Class != class {
				continue
			}
			if !yield(Cell(op), rec) {
				return
			}
		}
	}
}
