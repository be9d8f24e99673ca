package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Urethramancer/pprinter/targets"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the format/isa/syntax triples pprint can print",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		r := targets.NewRegistry()
		for _, t := range r.Targets() {
			mark := ""
			if r.IsDefault(t) {
				mark = " (default)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", t, mark)
		}
	},
}

var policiesOpts struct {
	target targetFlags
	irFile string
}

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the named policies for a module's target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := loadModule(policiesOpts.irFile)
		if err != nil {
			return err
		}
		p := newPrinter()
		policiesOpts.target.apply(p, m)
		names, err := p.PolicyNames(m)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	policiesCmd.Flags().StringVar(&policiesOpts.irFile, "ir", "", "IR file to read")
	policiesOpts.target.register(policiesCmd)

	rootCmd.AddCommand(targetsCmd, policiesCmd)
}
