package main

import (
	"bufio"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/Urethramancer/pprinter/printer"
)

var printOpts struct {
	target targetFlags

	irFile  string
	asmFile string
	policy  string
	debug   bool

	skipFunctions []string
	keepFunctions []string
	skipSymbols   []string
	keepSymbols   []string
	skipSections  []string
	keepSections  []string
	arraySections []string
	noDefaults    bool
	compilerArgs  []string
}

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print a module as assembly",
	Args:  cobra.NoArgs,
	RunE:  runPrint,
}

func init() {
	f := printCmd.Flags()
	f.StringVar(&printOpts.irFile, "ir", "", "IR file to read")
	f.StringVar(&printOpts.asmFile, "asm", "", "assembly file to write (default stdout)")
	f.StringVar(&printOpts.policy, "policy", env.Str("PPRINT_POLICY", printer.DefaultPolicyName), "named policy")
	f.BoolVar(&printOpts.debug, "debug", env.Bool("PPRINT_DEBUG"), "annotate the output with addresses and side tables")
	f.StringArrayVar(&printOpts.skipFunctions, "skip-function", nil, "do not print this function")
	f.StringArrayVar(&printOpts.keepFunctions, "keep-function", nil, "print this function even if the policy skips it")
	f.StringArrayVar(&printOpts.skipSymbols, "skip-symbol", nil, "do not print this symbol")
	f.StringArrayVar(&printOpts.keepSymbols, "keep-symbol", nil, "print this symbol even if the policy skips it")
	f.StringArrayVar(&printOpts.skipSections, "skip-section", nil, "do not print this section")
	f.StringArrayVar(&printOpts.keepSections, "keep-section", nil, "print this section even if the policy skips it")
	f.StringArrayVar(&printOpts.arraySections, "array-section", nil, "treat this section as a pointer array")
	f.BoolVar(&printOpts.noDefaults, "no-default-policy", false, "start from empty sets instead of the policy's")
	f.StringArrayVar(&printOpts.compilerArgs, "compiler-arg", nil, "extra argument for whatever assembles the output")
	printOpts.target.register(printCmd)

	rootCmd.AddCommand(printCmd)
}

func runPrint(cmd *cobra.Command, _ []string) (err error) {
	m, err := loadModule(printOpts.irFile)
	if err != nil {
		return err
	}

	p := newPrinter()
	printOpts.target.apply(p, m)
	p.PolicyName = printOpts.policy
	p.SetDebug(printOpts.debug)
	p.CompilerArguments = printOpts.compilerArgs
	for _, name := range printOpts.skipFunctions {
		p.FunctionPolicy.SkipName(name)
	}
	for _, name := range printOpts.keepFunctions {
		p.FunctionPolicy.KeepName(name)
	}
	for _, name := range printOpts.skipSymbols {
		p.SymbolPolicy.SkipName(name)
	}
	for _, name := range printOpts.keepSymbols {
		p.SymbolPolicy.KeepName(name)
	}
	for _, name := range printOpts.skipSections {
		p.SectionPolicy.SkipName(name)
	}
	for _, name := range printOpts.keepSections {
		p.SectionPolicy.KeepName(name)
	}
	for _, name := range printOpts.arraySections {
		p.ArraySectionPolicy.SkipName(name)
	}
	if printOpts.noDefaults {
		p.FunctionPolicy.UseDefaults = false
		p.SymbolPolicy.UseDefaults = false
		p.SectionPolicy.UseDefaults = false
		p.ArraySectionPolicy.UseDefaults = false
	}

	// Resolve target and policy before touching the output file.
	if _, err := p.Policy(m); err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if printOpts.asmFile != "" {
		f, cerr := os.Create(printOpts.asmFile)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}
	w := bufio.NewWriter(out)

	logger := log.New(io.Discard, "", 0)
	if printOpts.debug {
		logger = log.Default()
	}
	if err := p.Print(w, printer.NewContext(logger), m); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if printOpts.asmFile != "" {
		log.Printf("assembly written to %s", printOpts.asmFile)
	}
	return nil
}
