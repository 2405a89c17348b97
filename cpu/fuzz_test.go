package cpu

import (
	"strings"
	"testing"
)

func FuzzAssemble(f *testing.F) {
	f.Add("load A, o10\nstop\n")
	f.Add(":loop\njnz &loop\n")
	f.Add("= 'OCTO'\n")
	f.Add("save A, [$(1 + 2)]\n")
	f.Fuzz(func(t *testing.T, source string) {
		asm := &Assembler{}
		prog, _ := asm.Assemble(strings.NewReader(source))
		if prog == nil {
			t.Fatal("nil program")
		}
	})
}

func FuzzRun(f *testing.F) {
	f.Add([]byte{0o54, 0o10, 0o52})
	f.Add([]byte{0o42, 0o30})
	f.Fuzz(func(t *testing.T, image []byte) {
		m := NewMachine()
		m.Inp = func() Cell { return 0 }
		m.Reset()
		cells := make([]Cell, 0, len(image))
		for _, b := range image {
			cells = append(cells, Cell(b)&CellMask)
		}
		m.Burn(cells)
		if _, err := m.Run(1000); err != nil {
			t.Fatal(err)
		}
	})
}
