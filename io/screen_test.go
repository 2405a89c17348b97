package io

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/octalplus/octalplus/cpu"
)

func TestScreenRefresh(t *testing.T) {
	assert := assert.New(t)

	var redraws []string
	scr := &Screen{Changed: func(text string) { redraws = append(redraws, text) }}

	window := [cpu.SCREEN_LEN]cpu.Cell{0o17, 0o03, 0o24, 0o17}
	scr.Refresh(window)
	assert.Equal("OCTO", scr.Text())

	// Unchanged contents do not redraw.
	scr.Refresh(window)
	assert.Equal([]string{"OCTO"}, redraws)

	window[3] = 0o00
	scr.Refresh(window)
	assert.Equal([]string{"OCTO", "OCT "}, redraws)
}
