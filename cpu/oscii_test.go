package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOsciiAlphabet(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(MEMORY_SIZE, len(OSCII))

	// Spot anchors of the alphabet layout.
	anchors := map[byte]Cell{
		' ': 0o00,
		'A': 0o01,
		'C': 0o03,
		'O': 0o17,
		'T': 0o24,
		'Z': 0o32,
		'0': 0o33,
		'9': 0o44,
		'%': 0o52,
		'*': 0o55,
		'$': 0o51,
		'\\': 0o77,
	}
	for ch, value := range anchors {
		encoded, ok := EncodeChar(ch)
		assert.True(ok, string(ch))
		assert.Equal(value, encoded, string(ch))
	}

	// '%' doubles as the STOP opcode in rendered images.
	assert.Equal(STOP_CODE, anchors['%'])
}

func TestOsciiRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for value := 0; value < MEMORY_SIZE; value++ {
		ch := DecodeChar(Cell(value))
		encoded, ok := EncodeChar(ch)
		assert.True(ok)
		assert.Equal(Cell(value), encoded)
	}
}

func TestOsciiText(t *testing.T) {
	assert := assert.New(t)

	cells, err := EncodeText("OCTO")
	assert.NoError(err)
	assert.Equal([]Cell{0o17, 0o03, 0o24, 0o17}, cells)
	assert.Equal("OCTO", DecodeText(cells))

	_, err = EncodeText("lower")
	var bad ErrEncodeCharacter
	assert.ErrorAs(err, &bad)
	assert.Equal("'l' is not an OSCII character", err.Error())
}
