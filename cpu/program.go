// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

// ProgramCell is one cell of a partially assembled image: either a
// resolved value, or a reference still pending on a label definition.
type ProgramCell struct {
	Value Cell
	Label string // pending label reference when non-empty
}

// Resolved reports whether the cell no longer depends on a label.
func (pc ProgramCell) Resolved() bool {
	return pc.Label == ""
}

// Program is a finished PROM image with its source listing.
type Program struct {
	Cells   [PROM_LEN]Cell
	Listing []string
}

// NewProgram returns an empty image, every cell a STOP opcode.
func NewProgram() (prog *Program) {
	prog = &Program{}
	for n := range prog.Cells {
		prog.Cells[n] = STOP_CODE
	}
	return
}

// Text renders the image in the OSCII display alphabet, one printable
// character per cell. The rendering survives a round trip through
// ParseProgram.
func (prog *Program) Text() string {
	return DecodeText(prog.Cells[:])
}

// ParseProgram decodes an OSCII-rendered image back into a program.
// Short images are padded with STOP opcodes.
func ParseProgram(text string) (prog *Program, err error) {
	cells, err := EncodeText(text)
	if err != nil {
		return
	}
	if len(cells) > PROM_LEN {
		err = ErrImageLength
		return
	}
	prog = NewProgram()
	copy(prog.Cells[:], cells)
	return
}
