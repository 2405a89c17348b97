package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeTotal(t *testing.T) {
	assert := assert.New(t)

	for op := 0; op < MEMORY_SIZE; op++ {
		rec := Decode(Cell(op))
		assert.GreaterOrEqual(int(rec.Class), int(OP_CLR))
		assert.LessOrEqual(int(rec.Class), int(OP_QS))
		assert.NotEqual("op?", rec.Class.String())
		assert.NotEqual("mode?", rec.Source.String())
		assert.NotEqual("mode?", rec.Target.String())
	}

	// Decode ignores bits above the cell mask.
	assert.Equal(Decode(0o52), Decode(0o152))
}

func TestDecodeStop(t *testing.T) {
	assert := assert.New(t)

	rec := Decode(STOP_CODE)
	assert.Equal(OP_STOP, rec.Class)
	assert.False(rec.Immediate)
	assert.Equal(EFFECT_NONE, rec.Effect)
}

func opcodeSet(match func(OpRecord) bool) map[Cell]bool {
	set := map[Cell]bool{}
	for op := 0; op < MEMORY_SIZE; op++ {
		if match(Decode(Cell(op))) {
			set[Cell(op)] = true
		}
	}
	return set
}

func TestDecodeImmediates(t *testing.T) {
	assert := assert.New(t)

	expected := map[Cell]bool{
		0o02: true, 0o10: true, 0o11: true,
		0o14: true, 0o15: true, 0o16: true,
		0o20: true, 0o21: true,
		0o24: true, 0o25: true, 0o26: true,
		0o42: true, 0o54: true, 0o55: true, 0o56: true,
		0o60: true, 0o64: true, 0o70: true, 0o74: true,
	}
	assert.Equal(expected, opcodeSet(func(rec OpRecord) bool { return rec.Immediate }))
}

func TestDecodeEffects(t *testing.T) {
	assert := assert.New(t)

	pushes := map[Cell]bool{0o40: true, 0o41: true, 0o42: true, 0o46: true}
	pops := map[Cell]bool{0o30: true, 0o31: true, 0o32: true, 0o36: true}
	bases := map[Cell]bool{
		0o12: true, 0o22: true, 0o56: true,
		0o62: true, 0o66: true, 0o72: true, 0o76: true,
	}

	assert.Equal(pushes, opcodeSet(func(rec OpRecord) bool { return rec.Effect == EFFECT_PUSH }))
	assert.Equal(pops, opcodeSet(func(rec OpRecord) bool { return rec.Effect == EFFECT_POP }))
	assert.Equal(bases, opcodeSet(func(rec OpRecord) bool { return rec.Effect == EFFECT_BASE }))
}

func TestEncodings(t *testing.T) {
	assert := assert.New(t)

	var loads []Cell
	for op, rec := range Encodings(OP_LOAD) {
		assert.Equal(OP_LOAD, rec.Class)
		loads = append(loads, op)
	}
	assert.Equal([]Cell{0o10, 0o11, 0o12, 0o50, 0o51, 0o54, 0o55, 0o56}, loads)

	var quicks []Cell
	for op := range Encodings(OP_QL) {
		quicks = append(quicks, op)
	}
	assert.Equal([]Cell{0o03, 0o13, 0o23, 0o33, 0o43, 0o53, 0o63, 0o73}, quicks)
}

func TestModeQuick(t *testing.T) {
	assert := assert.New(t)

	for n := 0; n < 8; n++ {
		addr, ok := (MODE_Q0 + Mode(n)).Quick()
		assert.True(ok)
		assert.Equal(Cell(n), addr)
	}
	_, ok := MODE_IMM.Quick()
	assert.False(ok)
}

// TestEncodeDecodeRoundTrip assembles single instructions and checks
// that the opcode the assembler picked decodes back to the written
// shape.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		line string
		op   Cell
	}{
		{"clr A", 0o00},
		{"clr B", 0o01},
		{"clr C", 0o04},
		{"jmp o30", 0o02},
		{"ql0", 0o03},
		{"qs7", 0o77},
		{"load A, [o05]", 0o10},
		{"load B, [o05]", 0o11},
		{"load A, [B]", 0o12},
		{"load A, B", 0o50},
		{"load B, A", 0o51},
		{"load A, o05", 0o54},
		{"load B, o05", 0o55},
		{"load F, o05", 0o56},
		{"save A, [o05]", 0o20},
		{"save B, [o05]", 0o21},
		{"save A, [B]", 0o22},
		{"push A", 0o40},
		{"push B", 0o41},
		{"push F", 0o46},
		{"pop A", 0o30},
		{"pop B", 0o31},
		{"pop F", 0o36},
		{"call o30", 0o42},
		{"ret", 0o32},
		{"jc o30", 0o14},
		{"jnz o30", 0o26},
		{"rol A", 0o34},
		{"ror A", 0o44},
		{"inc B", 0o35},
		{"dec B", 0o45},
		{"add A, o01", 0o60},
		{"add A, B", 0o61},
		{"add A, [B]", 0o62},
		{"sub A, [B]", 0o72},
		{"and A, o07", 0o64},
		{"or A, B", 0o75},
		{"stop", 0o52},
	}

	for _, tc := range cases {
		asm := &Assembler{}
		prog, err := asm.Assemble(strings.NewReader(tc.line + "\n"))
		assert.NoError(err, tc.line)
		assert.Equal(tc.op, prog.Cells[0], tc.line)

		class, _, ok := classOf(strings.Fields(tc.line)[0])
		assert.True(ok, tc.line)
		assert.Equal(class, Decode(tc.op).Class, tc.line)
	}
}
