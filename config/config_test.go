package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.Equal(defSpeedMs, cfg.Machine.SpeedMs)
	assert.Equal(defStepLimit, cfg.Machine.StepLimit)
	assert.Equal(defTerminalWidth, cfg.Terminal.Width)
	assert.Equal(defTerminalHeight, cfg.Terminal.Height)
	assert.Equal("", cfg.RomFile)
}

func TestNewConfigDefaults(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(NewConfig(""))
	assert.Equal(defSpeedMs, CLIConfig.Machine.SpeedMs)
	assert.Equal(defStepLimit, CLIConfig.Machine.StepLimit)
}

func TestNewConfigFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "octo.yaml")
	content := "machine:\n  speed_ms: 5\nrom_file: demo.asm\n"
	assert.NoError(os.WriteFile(path, []byte(content), 0o644))

	assert.NoError(NewConfig(path))
	assert.Equal(5, CLIConfig.Machine.SpeedMs)
	assert.Equal(defStepLimit, CLIConfig.Machine.StepLimit)
	assert.Equal("demo.asm", CLIConfig.RomFile)
}

func TestNewConfigMissingFile(t *testing.T) {
	assert := assert.New(t)

	assert.Error(NewConfig(filepath.Join(t.TempDir(), "absent.yaml")))
}
