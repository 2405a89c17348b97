// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Severity ranks a diagnostic. Warnings do not make the program image
// unusable; errors do.
type Severity int

const (
	SEVERITY_WARNING Severity = iota // Warning
	SEVERITY_ERROR                   // Error
)

func (severity Severity) String() string {
	if severity == SEVERITY_WARNING {
		return "Warning"
	}
	return "Error"
}

// Diagnostic is one assembly issue, scoped to a source line.
type Diagnostic struct {
	Source   string
	LineNo   int
	Severity Severity
	Message  string
}

func (diag Diagnostic) String() string {
	return fmt.Sprintf("%s(%d): %s: %s", diag.Source, diag.LineNo, diag.Severity, diag.Message)
}

var (
	reValueLabel = regexp.MustCompile(`^:([A-Za-z_][A-Za-z0-9_]*)=(\S+)$`)
	reLabel      = regexp.MustCompile(`^:([A-Za-z_][A-Za-z0-9_]*)$`)
	reOctal      = regexp.MustCompile(`^[oO0]([0-7]+)$`)
	reDecimal    = regexp.MustCompile(`^[dD]([0-9]+)$`)
	reQuoted     = regexp.MustCompile(`^('.'|".")$`)
	reAddress    = regexp.MustCompile(`^&([A-Za-z_][A-Za-z0-9_]*)$`)
	reQuick      = regexp.MustCompile(`^q([ls])([0-7])$`)
	reParen      = regexp.MustCompile(`\$\([^$]*\)`)
)

// Assembler is the dual-pass Octal Plus assembler: a line pass that
// places cells and collects label definitions, then a resolution pass
// that patches deferred label references. It accumulates non-fatal
// diagnostics instead of stopping at the first problem, and is meant
// to be discarded after a single Assemble call.
type Assembler struct {
	Verbose bool   // If set, verbosely logs each scanned line.
	Source  string // Name reported in diagnostics.

	Label   map[string]Cell // Map of labels to values.
	Listing []string        // Annotated listing, one entry per logged line.
	Diags   []Diagnostic    // All diagnostics, warnings included.

	code      [PROM_LEN]ProgramCell
	predefine map[string]Cell
}

// Predefine seeds a label before assembly. Source text may redefine a
// predefined label without drawing a warning.
func (asm *Assembler) Predefine(label string, value Cell) {
	if asm.predefine == nil {
		asm.predefine = map[string]Cell{}
	}
	asm.predefine[label] = value
}

// Errors returns the error-severity diagnostics.
func (asm *Assembler) Errors() (diags []Diagnostic) {
	for _, diag := range asm.Diags {
		if diag.Severity == SEVERITY_ERROR {
			diags = append(diags, diag)
		}
	}
	return
}

func (asm *Assembler) diag(lineno int, severity Severity, format string, args ...any) {
	asm.Diags = append(asm.Diags, Diagnostic{
		Source:   asm.Source,
		LineNo:   lineno,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	})
}

// logLine appends a listing entry, prefixed with the placement address
// when one applies.
func (asm *Assembler) logLine(line string, address int) {
	if address >= 0 {
		asm.Listing = append(asm.Listing, fmt.Sprintf("@%02o| %s", address, line))
	} else {
		asm.Listing = append(asm.Listing, "   | "+line)
	}
}

// define binds a label. Rebinding a user label warns; rebinding a
// predefined machine symbol is silent.
func (asm *Assembler) define(label string, value Cell, lineno int) {
	_, exists := asm.Label[label]
	_, pre := asm.predefine[label]
	if exists && !pre {
		asm.diag(lineno, SEVERITY_WARNING, "Redefining label :%s", label)
	}
	asm.Label[label] = value
}

// immediate parses a single operand word into a resolved value or a
// deferred label reference.
func (asm *Assembler) immediate(word string) (cell ProgramCell, ok bool) {
	if m := reAddress.FindStringSubmatch(word); m != nil {
		label := m[1]
		if value, known := asm.Label[label]; known {
			return ProgramCell{Value: value}, true
		}
		return ProgramCell{Label: label}, true
	}
	if len(word) == 1 && word[0] >= '0' && word[0] <= '7' {
		return ProgramCell{Value: Cell(word[0] - '0')}, true
	}
	if m := reOctal.FindStringSubmatch(word); m != nil {
		value, err := strconv.ParseUint(m[1], 8, 32)
		if err != nil {
			return
		}
		return ProgramCell{Value: Cell(value) & CellMask}, true
	}
	if m := reDecimal.FindStringSubmatch(word); m != nil {
		value, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return
		}
		return ProgramCell{Value: Cell(value) & CellMask}, true
	}
	if m := reQuoted.FindStringSubmatch(word); m != nil {
		value, known := EncodeChar(m[1][1])
		if !known {
			return
		}
		return ProgramCell{Value: value}, true
	}
	return
}

// Lookup resolves a literal or &label word against the label table.
// Deferred references do not resolve.
func (asm *Assembler) Lookup(word string) (value Cell, ok bool) {
	cell, ok := asm.immediate(word)
	if !ok || !cell.Resolved() {
		ok = false
		return
	}
	value = cell.Value
	return
}

// splitOperands splits an instruction line on whitespace and commas,
// keeping quoted characters intact.
func splitOperands(line string) (words []string) {
	var word strings.Builder
	var quote byte
	flush := func() {
		if word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
	}
	for n := 0; n < len(line); n++ {
		ch := line[n]
		switch {
		case quote != 0:
			word.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
			word.WriteByte(ch)
		case ch == ' ' || ch == '\t' || ch == ',':
			flush()
		default:
			word.WriteByte(ch)
		}
	}
	flush()
	return
}

// classOf normalizes a mnemonic through the synonym table and maps it
// to its operation class. Quick mnemonics also carry their page index;
// quick is -1 otherwise.
func classOf(mnemonic string) (class OpClass, quick int, ok bool) {
	quick = -1
	name := strings.ToLower(mnemonic)
	if canon, found := synonyms[name]; found {
		name = canon
	}
	if m := reQuick.FindStringSubmatch(name); m != nil {
		class = OP_QS
		if m[1] == "l" {
			class = OP_QL
		}
		quick = int(m[2][0] - '0')
		ok = true
		return
	}
	class, ok = classNames[name]
	return
}

// operandShape gives the written operand conventions of an opcode:
// which of its source/target modes appear first and second on the
// line. MODE_NONE marks an absent operand.
func operandShape(rec OpRecord) (first, second Mode) {
	first, second = MODE_NONE, MODE_NONE
	switch rec.Class {
	case OP_CLR, OP_POP, OP_INC, OP_DEC, OP_ROL, OP_ROR:
		first = rec.Target
	case OP_PUSH, OP_JMP, OP_JC, OP_JM, OP_JZ, OP_JNC, OP_JNM, OP_JNZ, OP_CALL:
		first = rec.Source
	case OP_LOAD, OP_ADD, OP_SUB, OP_AND, OP_OR:
		first, second = rec.Target, rec.Source
	case OP_SAVE:
		first, second = rec.Source, rec.Target
	}
	return
}

// matchOperand tests one written operand against an addressing mode,
// returning the encoded operand cell for the immediate modes.
func (asm *Assembler) matchOperand(mode Mode, word string) (operand *ProgramCell, ok bool) {
	switch mode {
	case MODE_IMM:
		cell, good := asm.immediate(word)
		if !good {
			return
		}
		return &cell, true
	case MODE_IND:
		if len(word) < 3 || word[0] != '[' || word[len(word)-1] != ']' {
			return
		}
		cell, good := asm.immediate(word[1 : len(word)-1])
		if !good {
			return
		}
		return &cell, true
	case MODE_BASE:
		ok = strings.EqualFold(word, "[B]")
	case MODE_STACK:
		ok = strings.EqualFold(word, "[S]")
	case MODE_REG_A:
		ok = strings.EqualFold(word, "A")
	case MODE_REG_B:
		ok = strings.EqualFold(word, "B")
	case MODE_REG_I:
		ok = strings.EqualFold(word, "I")
	case MODE_REG_F:
		ok = strings.EqualFold(word, "F")
	case MODE_FLAG_C:
		ok = strings.EqualFold(word, "C")
	case MODE_FLAG_M:
		ok = strings.EqualFold(word, "M")
	case MODE_FLAG_Z:
		ok = strings.EqualFold(word, "Z")
	}
	return
}

// instruction reverse-matches a source line against the descriptor
// table, returning the encoded cells. A nil return means no opcode
// shape matched the written operands.
func (asm *Assembler) instruction(line string) (cells []ProgramCell) {
	words := splitOperands(line)
	if len(words) == 0 || len(words) > 3 {
		return
	}
	class, quick, ok := classOf(words[0])
	if !ok {
		return
	}
	operands := words[1:]

	for op, rec := range Encodings(class) {
		if quick >= 0 {
			mode := rec.Source
			if class == OP_QS {
				mode = rec.Target
			}
			addr, isQuick := mode.Quick()
			if !isQuick || int(addr) != quick {
				continue
			}
		}

		first, second := operandShape(rec)
		modes := []Mode{}
		if first != MODE_NONE {
			modes = append(modes, first)
		}
		if second != MODE_NONE {
			modes = append(modes, second)
		}
		if len(modes) != len(operands) {
			continue
		}

		encoded := []ProgramCell{{Value: op}}
		matched := true
		for n, word := range operands {
			extra, good := asm.matchOperand(modes[n], word)
			if !good {
				matched = false
				break
			}
			if extra != nil {
				encoded = append(encoded, *extra)
			}
		}
		if matched {
			return encoded
		}
	}
	return
}

// literal encodes quoted OSCII strings from a `=` data line.
func (asm *Assembler) literal(rest string, lineno int) (cells []ProgramCell) {
	line := strings.TrimSpace(rest)
	for line != "" {
		switch line[0] {
		case ' ', '\t':
			line = line[1:]
		case '\'', '"':
			quote := line[0]
			line = line[1:]
			for line != "" && line[0] != quote {
				value, ok := EncodeChar(line[0])
				if !ok {
					asm.diag(lineno, SEVERITY_ERROR, "Could not encode literal character: %q", line[0])
				} else {
					cells = append(cells, ProgramCell{Value: value})
				}
				line = line[1:]
			}
			if line != "" {
				line = line[1:] // closing quote
			}
		default:
			asm.diag(lineno, SEVERITY_ERROR, "Could not parse literal data: %s", line)
			return
		}
	}
	return
}

// apply places encoded cells into the image. Placement outside PROM
// space is a per-line error; the address does not advance past it.
func (asm *Assembler) apply(address int, cells []ProgramCell, lineno int) int {
	for _, cell := range cells {
		if address < int(PROM) || address >= int(PROM)+PROM_LEN {
			asm.diag(lineno, SEVERITY_ERROR, "Code address is outside PROM space.")
		} else {
			asm.code[address-int(PROM)] = cell
			address++
		}
	}
	return address
}

// parenEval does a compile-time $( ... ) evaluation, with every label
// known so far bound as an integer variable.
func (asm *Assembler) parenEval(expr string) (value Cell, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for label, cell := range asm.Label {
		pred[label] = starlark.MakeInt(int(cell))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = Cell(st_int64) & CellMask
	return
}

// expand substitutes $( ... ) expressions with their decimal values.
func (asm *Assembler) expand(line string) (out string, err error) {
	out = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
			return str
		}
		return fmt.Sprintf("d%d", uint8(value))
	})
	return
}

// dump renders encoded cells for the listing: octal for resolved
// values, &label for deferred references.
func dump(cells []ProgramCell) string {
	text := make([]string, len(cells))
	for n, cell := range cells {
		if cell.Resolved() {
			text[n] = fmt.Sprintf("o%02o", uint8(cell.Value))
		} else {
			text[n] = "&" + cell.Label
		}
	}
	return strings.Join(text, ", ")
}

func clip(text string, width int) string {
	if len(text) > width {
		return text[:width]
	}
	return text
}

// Assemble processes a complete source text. The returned program is
// usable only when err is nil; all diagnostics, warnings included,
// remain available on the assembler afterward.
func (asm *Assembler) Assemble(input io.Reader) (prog *Program, err error) {
	if asm.Source == "" {
		asm.Source = "input"
	}
	if asm.Label == nil {
		asm.Label = make(map[string]Cell, 16)
	}
	clear(asm.Label)
	asm.Listing = asm.Listing[:0]
	asm.Diags = asm.Diags[:0]
	for n := range asm.code {
		asm.code[n] = ProgramCell{Value: STOP_CODE}
	}
	for label, value := range asm.predefine {
		asm.Label[label] = value
	}

	scanner := bufio.NewScanner(input)
	address := int(PROM)
	home := false
	lineno := 0

	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if asm.Verbose {
			log.Printf("%v: %v", lineno, line)
		}

		if line == "" {
			continue
		}
		if line[0] == ';' {
			asm.logLine(line, -1)
			continue
		}

		line, xerr := asm.expand(line)
		if xerr != nil {
			asm.diag(lineno, SEVERITY_ERROR, "Could not evaluate expression: %v", xerr)
			continue
		}

		if !home && line[0] != ':' {
			asm.define("home", Cell(address), lineno)
			asm.logLine(fmt.Sprintf(":%-19s ;", "home"), address)
			home = true
		}

		// :name=literal value label; binds without consuming space.
		if m := reValueLabel.FindStringSubmatch(line); m != nil {
			cell, ok := asm.immediate(m[2])
			if !ok || !cell.Resolved() {
				asm.diag(lineno, SEVERITY_ERROR, "Could not parse label value: %s", m[2])
				continue
			}
			asm.define(m[1], cell.Value, lineno)
			asm.logLine(fmt.Sprintf(":%-15s=o%02o ;", m[1], uint8(cell.Value)), int(cell.Value))
			continue
		}

		// :name address label at the current placement address.
		if m := reLabel.FindStringSubmatch(line); m != nil {
			home = true
			asm.define(m[1], Cell(address), lineno)
			asm.logLine(fmt.Sprintf(":%-19s ;", m[1]), address)
			continue
		}

		if cells := asm.instruction(line); cells != nil {
			asm.logLine(fmt.Sprintf("   %-17s ; %s", clip(line, 17), dump(cells)), address)
			address = asm.apply(address, cells, lineno)
			continue
		}

		// = literal data line.
		if line[0] == '=' {
			cells := asm.literal(line[1:], lineno)
			if len(cells) > 0 {
				asm.logLine(fmt.Sprintf("   %-17s ; %s", clip(strings.TrimSpace(line[1:]), 17), dump(cells)), address)
				address = asm.apply(address, cells, lineno)
			}
			continue
		}

		asm.diag(lineno, SEVERITY_ERROR, "Could not parse line: %s", line)
	}

	// Resolution pass over deferred label references.
	prog = &Program{Listing: asm.Listing}
	for n, cell := range asm.code {
		if !cell.Resolved() {
			value, ok := asm.Label[cell.Label]
			if !ok {
				asm.diag(lineno, SEVERITY_ERROR, "Never resolved address: &%s", cell.Label)
				value = 0
			}
			cell = ProgramCell{Value: value}
		}
		prog.Cells[n] = cell.Value
	}

	if diags := asm.Errors(); len(diags) > 0 {
		err = ErrDiagnostics(diags)
	}
	return
}
