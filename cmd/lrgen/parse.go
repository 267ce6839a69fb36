package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nihei9/lrgen/driver"
	"github.com/nihei9/lrgen/driver/lexer"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source          *string
	lexer           *string
	disableRecovery *bool
	maxOperations   *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <compiled table path>",
		Short:   "Parse a text stream",
		Example: `  cat src | lrgen parse grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.lexer = cmd.Flags().StringP("lexer", "l", string(lexer.BackendMaleeni), "lexer back end [maleeni|lexmachine]")
	parseFlags.disableRecovery = cmd.Flags().Bool("disable-recovery", false, "stop at the first syntax error")
	parseFlags.maxOperations = cmd.Flags().Int("max-operations", 0, "stop after this many parser operations (default no limit)")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	t, err := readCompiledTable(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled table: %w", err)
	}
	backend, err := lexer.ParseBackend(*parseFlags.lexer)
	if err != nil {
		return err
	}

	var src io.Reader = os.Stdin
	fileName := "stdin"
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
		fileName = *parseFlags.source
	}

	g, err := driver.NewGrammar(t)
	if err != nil {
		return err
	}
	ts, err := lexer.NewTokenStream(backend, g, t.Lexical, src)
	if err != nil {
		return err
	}

	tb := driver.NewTree(g.Optimize())
	opts := []driver.ParserOption{
		driver.WithTree(tb),
		driver.FileName(fileName),
	}
	if *parseFlags.disableRecovery {
		opts = append(opts, driver.DisableRecovery())
	}
	if *parseFlags.maxOperations > 0 {
		opts = append(opts, driver.MaxOperations(*parseFlags.maxOperations))
	}
	p, err := driver.NewParser(g, ts, opts...)
	if err != nil {
		return err
	}
	err = p.Parse(context.Background())
	if err != nil {
		return err
	}

	diags := p.Diagnostics()
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%v\n", d)
	}
	driver.PrintTree(os.Stdout, tb)
	if fatal := diags.Fatal(); fatal != nil {
		return fmt.Errorf("Parsing stopped: %v error(s)", len(diags))
	}
	return nil
}
