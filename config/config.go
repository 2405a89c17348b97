// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package config loads the CLI configuration: built-in defaults, an
// optional yaml file, then OCTO_* environment variables, each layer
// overriding the last.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	defTerminalWidth  = 80
	defTerminalHeight = 24

	defSpeedMs   = 100
	defStepLimit = 5000

	EnvVarPrefix = "OCTO"
)

var CLIConfig *Config
var replacer = strings.NewReplacer(".", "_")

type Config struct {
	Terminal *Terminal `mapstructure:"terminal" yaml:"terminal"`
	Machine  *Machine  `mapstructure:"machine" yaml:"machine"`
	RomFile  string    `mapstructure:"rom_file" yaml:"rom_file"`
}

type Machine struct {
	SpeedMs   int `mapstructure:"speed_ms" yaml:"speed_ms"`
	StepLimit int `mapstructure:"step_limit" yaml:"step_limit"`
}

type Terminal struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Machine: &Machine{
			SpeedMs:   defSpeedMs,
			StepLimit: defStepLimit,
		},
		Terminal: &Terminal{
			Width:  defTerminalWidth,
			Height: defTerminalHeight,
		},
		RomFile: "",
	}
}

func NewConfig(cfgFile string) error {
	v := viper.New()

	CLIConfig = DefaultConfig()

	// Viper needs to know a key exists in order to override it, so the
	// defaults are merged in as a yaml document first.
	v.SetConfigType("yaml")
	if b, err := yaml.Marshal(DefaultConfig()); err != nil {
		return err
	} else if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
		return err
	}

	if cfgFile != "" {
		f, err := os.Open(cfgFile)
		if err != nil {
			return fmt.Errorf("config file %q: %w", cfgFile, err)
		}
		defer f.Close()
		if err := v.MergeConfig(f); err != nil {
			return fmt.Errorf("config file %q: %w", cfgFile, err)
		}
	}

	// Environment variables are the final override.
	v.AutomaticEnv()
	v.SetEnvPrefix(EnvVarPrefix)
	v.SetEnvKeyReplacer(replacer)

	return v.Unmarshal(CLIConfig)
}
