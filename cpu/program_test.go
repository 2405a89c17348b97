package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramText(t *testing.T) {
	assert := assert.New(t)

	prog, _ := assemble(t, `
load A, "O"
stop
`)

	text := prog.Text()
	assert.Equal(PROM_LEN, len(text))
	assert.Equal("&O%", text[:3]) // o54 '&', o17 'O', o52 '%'
	assert.Equal(strings.Repeat("%", PROM_LEN-3), text[3:])
}

func TestProgramParseRoundTrip(t *testing.T) {
	assert := assert.New(t)

	prog, _ := assemble(t, `
load A, "H"
save A, [o20]
stop
`)

	parsed, err := ParseProgram(prog.Text())
	assert.NoError(err)
	assert.Equal(prog.Cells, parsed.Cells)
}

func TestProgramParseShort(t *testing.T) {
	assert := assert.New(t)

	prog, err := ParseProgram("&O")
	assert.NoError(err)
	assert.Equal(Cell(0o54), prog.Cells[0])
	assert.Equal(Cell(0o17), prog.Cells[1])
	assert.Equal(STOP_CODE, prog.Cells[2])
}

func TestProgramParseErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := ParseProgram(strings.Repeat("%", PROM_LEN+1))
	assert.ErrorIs(err, ErrImageLength)

	_, err = ParseProgram("abc")
	var bad ErrEncodeCharacter
	assert.ErrorAs(err, &bad)
}

func TestProgramCellResolved(t *testing.T) {
	assert := assert.New(t)

	assert.True(ProgramCell{Value: 0o12}.Resolved())
	assert.False(ProgramCell{Label: "loop"}.Resolved())
}

func TestNewProgram(t *testing.T) {
	assert := assert.New(t)

	prog := NewProgram()
	for _, cell := range prog.Cells {
		assert.Equal(STOP_CODE, cell)
	}
}
