package main

import (
	"fmt"
	"os"

	"github.com/nihei9/lrgen/driver"
	"github.com/nihei9/lrgen/grammar"
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/schukonf/koanfadapter"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/spf13/cobra"
)

// debugMaxOperations bounds a parse when the tool runs in debug mode and no limit is configured.
const debugMaxOperations = 10000

// tracerKeys lists the tracers of the packages of this module.
var tracerKeys = []string{
	"lrgen.grammar",
	"lrgen.driver",
	"lrgen.lexer",
	"lrgen.tester",
}

var rootFlags = struct {
	trace *string
	debug *bool
}{}

var rootCmd = &cobra.Command{
	Use:   "lrgen",
	Short: "Generate LR parsing tables from a grammar and parse with them",
	Long: `lrgen provides the following features:
- Compiles a grammar into an LR(0), LR(1) or LALR(1) parsing table.
- Parses a text stream with a compiled table and prints the parse tree.
- Runs test cases against a grammar.
- Shows the automaton behind a grammar, and explores it interactively.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(*rootFlags.trace, *rootFlags.debug)
	},
}

func init() {
	rootFlags.trace = rootCmd.PersistentFlags().String("trace", "", "trace level [Debug|Info|Error]")
	rootFlags.debug = rootCmd.PersistentFlags().Bool("debug", false, "keep the automaton and bound the number of parser operations")
}

// initConfig loads the configuration, overlays the command line and sets up the tracers.
// A configuration file lrgen.nt is searched for at the usual places.
func initConfig(traceLevel string, debug bool) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)

	conf := koanfadapter.New(nil, "lrgen", []string{".nt"})
	gconf.Initialize(conf)

	if debug {
		conf.Set(grammar.ConfigKeyDebug, true)
		if !conf.IsSet(driver.ConfigKeyMaxOperations) {
			conf.Set(driver.ConfigKeyMaxOperations, debugMaxOperations)
		}
	}
	if traceLevel != "" {
		conf.Set("tracing.root", traceLevel)
		for _, key := range tracerKeys {
			conf.Set("tracing."+key, traceLevel)
		}
	}

	if err := trace2go.ConfigureRoot(conf, "tracing", trace2go.ReplaceTracers(true)); err != nil {
		return fmt.Errorf("Cannot set up tracing: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
