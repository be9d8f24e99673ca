package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/Urethramancer/pprinter/ir"
	"github.com/Urethramancer/pprinter/printer"
	"github.com/Urethramancer/pprinter/targets"
)

var rootCmd = &cobra.Command{
	Use:   "pprint",
	Short: "Print binary IR as reassemblable assembly",
	Long: `pprint reads a module in the JSON IR format and writes assembly
source for the module's file format and instruction set.

Example: pprint print --ir hello.json --asm hello.s`,
	SilenceUsage: true,
}

// targetFlags select the printer when the module's own format and ISA
// should not be used.
type targetFlags struct {
	format string
	isa    string
	syntax string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "file format to print for (elf, pe, macho, raw)")
	cmd.Flags().StringVar(&f.isa, "isa", "", "instruction set to print for (x64, ia32, arm64, m68k)")
	cmd.Flags().StringVar(&f.syntax, "syntax", env.Str("PPRINT_SYNTAX"), "assembler syntax; empty for the target's default")
}

// apply sets p's target from the flags, filling unset parts from m.
func (f *targetFlags) apply(p *printer.Printer, m *ir.Module) {
	if f.format == "" && f.isa == "" && f.syntax == "" {
		return
	}
	t := printer.Target{Format: f.format, ISA: f.isa, Syntax: f.syntax}
	if t.Format == "" {
		t.Format = printer.ModuleFormat(m)
	}
	if t.ISA == "" {
		t.ISA = printer.ModuleISA(m)
	}
	p.SetTarget(t)
}

func loadModule(path string) (*ir.Module, error) {
	if path == "" {
		return nil, errors.New("no IR file given, use --ir")
	}
	m, err := ir.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

func newPrinter() *printer.Printer {
	return printer.New(targets.NewRegistry())
}
