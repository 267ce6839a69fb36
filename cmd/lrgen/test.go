package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nihei9/lrgen/driver/lexer"
	"github.com/nihei9/lrgen/grammar"
	"github.com/nihei9/lrgen/tester"
	"github.com/spf13/cobra"
)

var testFlags = struct {
	lexer   *string
	grammar *grammarFlags
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "test <grammar file path> <test file path>|<test directory path>",
		Short:   "Test a grammar",
		Example: `  lrgen test grammar.lrg test`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
	testFlags.lexer = cmd.Flags().StringP("lexer", "l", string(lexer.BackendMaleeni), "lexer back end [maleeni|lexmachine]")
	testFlags.grammar = addGrammarFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	backend, err := lexer.ParseBackend(*testFlags.lexer)
	if err != nil {
		return err
	}
	opts, err := testFlags.grammar.options(args[0])
	if err != nil {
		return err
	}
	cg, err := compileGrammarFile(grammar.NewCache(), args[0], opts...)
	if err != nil {
		return fmt.Errorf("Cannot compile the grammar: %w", err)
	}

	var cs []*tester.TestCaseWithMetadata
	{
		cs = tester.ListTestCases(args[1])
		errOccurred := false
		for _, c := range cs {
			if c.Error != nil {
				fmt.Fprintf(os.Stderr, "Failed to read a test case or a directory: %v\n%v\n", c.FilePath, c.Error)
				errOccurred = true
			}
		}
		if errOccurred {
			return errors.New("Cannot run test")
		}
	}

	t := &tester.Tester{
		Grammar: cg.Table,
		Cases:   cs,
		Lexer:   backend,
	}
	rs := t.Run()
	testFailed := false
	for _, r := range rs {
		fmt.Fprintln(os.Stdout, r)
		if r.Error != nil {
			testFailed = true
		}
	}
	if testFailed {
		return errors.New("Test failed")
	}
	return nil
}
