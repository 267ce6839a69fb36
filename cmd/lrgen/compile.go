package main

import (
	"fmt"
	"os"

	"github.com/nihei9/lrgen/grammar"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output  *string
	report  *string
	grammar *grammarFlags
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile [<grammar file path>]",
		Short:   "Compile a grammar into a parsing table",
		Example: `  lrgen compile grammar.lrg -o grammar.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.report = cmd.Flags().StringP("report", "r", "", "write a description of the automaton to this file")
	compileFlags.grammar = addGrammarFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	var grmPath string
	if len(args) > 0 {
		grmPath = args[0]
	}

	var extra []grammar.CompileOption
	if *compileFlags.report != "" {
		extra = append(extra, grammar.Debug())
	}
	opts, err := compileFlags.grammar.options(grmPath, extra...)
	if err != nil {
		return err
	}

	cg, err := compileGrammarFile(grammar.NewCache(), grmPath, opts...)
	if err != nil {
		return err
	}

	err = writeJSON(*compileFlags.output, cg.Table)
	if err != nil {
		return fmt.Errorf("Cannot write the parsing table: %w", err)
	}

	if *compileFlags.report != "" {
		report, err := cg.Report()
		if err != nil {
			return err
		}
		err = writeJSON(*compileFlags.report, report)
		if err != nil {
			return fmt.Errorf("Cannot write the report: %w", err)
		}
	}

	if *compileFlags.output != "" {
		t := cg.Table.ParsingTable
		fmt.Fprintf(os.Stdout, "%v: %v states, %v symbols\n", cg.Table.Kind, t.StateCount, t.SymbolCount)
	}
	return nil
}
