// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command octalplus simulates the Octal Plus six-bit microcontroller:
// an interactive debugger by default, plus batch assemble and run
// subcommands.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/octalplus/octalplus/config"
	"github.com/octalplus/octalplus/cpu"
	"github.com/octalplus/octalplus/debugger"
	"github.com/octalplus/octalplus/emulator"
)

var cfgFile string
var romFile string

// demoSource animates the letters "OCTO" across the display window.
const demoSource = `; animate "OCTO" letters on display
;
:main
  ; copy from data to screen
  load B, &data
  load A, &screen
  call &putc
  call &putc
  call &putc
  call &putc
  ; fill screen with blanks
  load B, &screen
  load A, " "
  save A, [B]
  save A, [B]
  save A, [B]
  save A, [B]
  ; endless loop
  jmp &main
:putc
  ; copy from [B] to [A]
  ; post-incrementing both
  push B
  push A
  load A, [B]
  pop B
  save A, [B]
  move A, B
  pop B
  inc B
  return
:data
  = "OCTO"
`

func newEmulator() *emulator.Emulator {
	emu := emulator.NewEmulator()
	emu.Speed = time.Duration(config.CLIConfig.Machine.SpeedMs) * time.Millisecond
	return emu
}

func newDebugger(emu *emulator.Emulator) *debugger.Debugger {
	dbg := debugger.NewDebugger(emu)
	dbg.Term = debugger.NewTerminal(config.CLIConfig.Terminal.Width, config.CLIConfig.Terminal.Height)
	dbg.StepLimit = config.CLIConfig.Machine.StepLimit
	return dbg
}

var rootCmd = &cobra.Command{
	Use:   "octalplus",
	Short: "octalplus is a six-bit microcontroller simulator and assembler",
	RunE: func(cmd *cobra.Command, args []string) error {
		emu := newEmulator()
		dbg := newDebugger(emu)
		dbg.Execute("neat")

		if config.CLIConfig.RomFile != "" {
			f, err := os.Open(config.CLIConfig.RomFile)
			if err != nil {
				return err
			}
			dbg.Assemble(f, config.CLIConfig.RomFile)
			f.Close()
		}

		dbg.Run()
		return nil
	},
}

var asmCmd = &cobra.Command{
	Use:   "asm <file>",
	Short: "assemble a source file and print the listing and image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		emu := emulator.NewEmulator()
		asm := &cpu.Assembler{Source: args[0]}
		for label, value := range emu.Defines() {
			asm.Predefine(label, value)
		}

		prog, err := asm.Assemble(f)
		for _, line := range asm.Listing {
			fmt.Println(line)
		}
		for _, diag := range asm.Diags {
			fmt.Fprintln(os.Stderr, diag)
		}
		if err != nil {
			return err
		}

		fmt.Println(prog.Text())
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "assemble and run a program headless, then dump final state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		emu := emulator.NewEmulator()
		emu.Pins.Input = func() cpu.Cell { return 0 }

		asm := &cpu.Assembler{Source: args[0]}
		for label, value := range emu.Defines() {
			asm.Predefine(label, value)
		}
		prog, err := asm.Assemble(f)
		if err != nil {
			for _, diag := range asm.Diags {
				fmt.Fprintln(os.Stderr, diag)
			}
			return err
		}

		emu.Program = prog
		emu.Reset()
		halted, err := emu.Run(config.CLIConfig.Machine.StepLimit)
		if err != nil {
			return err
		}
		if !halted {
			fmt.Fprintln(os.Stderr, "step limit reached before STOP")
		}

		mach := emu.Machine
		fmt.Printf("A=o%02o B=o%02o I=o%02o S=o%02o F=o%02o\n",
			uint8(mach.GetRegister(cpu.REG_A)),
			uint8(mach.GetRegister(cpu.REG_B)),
			uint8(mach.GetRegister(cpu.REG_I)),
			uint8(mach.GetRegister(cpu.REG_S)),
			uint8(mach.GetRegister(cpu.REG_F)))
		fmt.Printf("display: [%s]\n", emu.Screen.Text())
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "load the OCTO marquee program into the debugger",
	RunE: func(cmd *cobra.Command, args []string) error {
		emu := newEmulator()
		dbg := newDebugger(emu)
		dbg.Execute("neat")
		dbg.Assemble(strings.NewReader(demoSource), "demo")
		dbg.Message(`The example program "OCTO" has been assembled for you.`)
		dbg.Message(`To the left, a chart displays every memory location.`)
		dbg.Message(`Registers and machine status in the middle at a glance.`)
		dbg.Message(`A detailed listing shows program code on the right.`)
		dbg.Run()
		return nil
	},
}

// Execute bootstraps the configuration and dispatches.
func Execute() error {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&romFile, "rom", "r", "", "assembly source to load on startup")
	rootCmd.AddCommand(asmCmd, runCmd, demoCmd)
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := config.NewConfig(cfgFile); err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}
	if romFile != "" {
		config.CLIConfig.RomFile = romFile
	}
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
