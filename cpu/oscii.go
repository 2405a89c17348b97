// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"strings"
)

// OSCII is the 64-symbol display alphabet of the machine. A printable
// character encodes to the six-bit value at its index.
const OSCII = " ABCDEFG" +
	"HIJKLMNO" +
	"PQRSTUVW" +
	"XYZ01234" +
	"56789.!@" +
	"#$%^&*-=" +
	"+:;?<>[]" +
	"{}()'\"/\\"

var osciiEncoding = func() map[byte]Cell {
	encoding := make(map[byte]Cell, len(OSCII))
	for n := 0; n < len(OSCII); n++ {
		encoding[OSCII[n]] = Cell(n)
	}
	return encoding
}()

// EncodeChar maps a printable character to its OSCII value.
func EncodeChar(ch byte) (value Cell, ok bool) {
	value, ok = osciiEncoding[ch]
	return
}

// DecodeChar maps a six-bit value to its OSCII character.
func DecodeChar(value Cell) byte {
	return OSCII[value&CellMask]
}

// EncodeText maps a string of OSCII characters to cell values.
func EncodeText(text string) (cells []Cell, err error) {
	cells = make([]Cell, 0, len(text))
	for n := 0; n < len(text); n++ {
		value, ok := EncodeChar(text[n])
		if !ok {
			err = ErrEncodeCharacter(text[n : n+1])
			cells = nil
			return
		}
		cells = append(cells, value)
	}
	return
}

// DecodeText renders cell values as an OSCII string.
func DecodeText(cells []Cell) string {
	var sb strings.Builder
	sb.Grow(len(cells))
	for _, value := range cells {
		sb.WriteByte(DecodeChar(value))
	}
	return sb.String()
}
