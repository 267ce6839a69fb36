package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	verr "github.com/nihei9/lrgen/error"
	"github.com/nihei9/lrgen/grammar"
	"github.com/nihei9/lrgen/spec"
	"github.com/spf13/cobra"
)

// grammarFlags are the compile options shared by the commands that read a grammar file.
type grammarFlags struct {
	kind     *string
	optimize *bool
	compress *bool
	nodes    *string
	name     *string
}

func addGrammarFlags(cmd *cobra.Command) *grammarFlags {
	return &grammarFlags{
		kind:     cmd.Flags().StringP("kind", "k", "lalr", "automaton kind [lr0|lr1|lalr]"),
		optimize: cmd.Flags().Bool("optimize", false, "create a node of a default-mode reduction only when it has more than one child"),
		compress: cmd.Flags().Bool("compress", false, "compress the action table"),
		nodes:    cmd.Flags().String("nodes", "flagged", "how --add and --skip turn into node modes [flagged|all|added-only]"),
		name:     cmd.Flags().String("name", "", "grammar name (default the base name of the grammar file)"),
	}
}

func (f *grammarFlags) options(grmPath string, extra ...grammar.CompileOption) ([]grammar.CompileOption, error) {
	kind, err := parseKind(*f.kind)
	if err != nil {
		return nil, err
	}
	policy, err := parsePolicy(*f.nodes)
	if err != nil {
		return nil, err
	}
	name := *f.name
	if name == "" {
		name = grammarName(grmPath)
	}
	opts := []grammar.CompileOption{
		grammar.Kind(kind),
		grammar.NodeMode(policy),
		grammar.Name(name),
	}
	if *f.optimize {
		opts = append(opts, grammar.Optimize())
	}
	if *f.compress {
		opts = append(opts, grammar.Compress())
	}
	return append(opts, extra...), nil
}

func parseKind(s string) (spec.Kind, error) {
	switch strings.ToLower(s) {
	case "lr0":
		return spec.KindLR0, nil
	case "lr1":
		return spec.KindLR1, nil
	case "lalr", "lalr1":
		return spec.KindLALR, nil
	}
	return "", fmt.Errorf("unknown automaton kind: %v", s)
}

func parsePolicy(s string) (grammar.NodePolicy, error) {
	for _, p := range []grammar.NodePolicy{grammar.FlaggedNodes, grammar.AllNodes, grammar.AddedNodesOnly} {
		if p.String() == s {
			return p, nil
		}
	}
	return grammar.FlaggedNodes, fmt.Errorf("unknown node policy: %v", s)
}

// grammarName derives a grammar name from a file path; stdin is named "stdin".
func grammarName(path string) string {
	if path == "" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readGrammar reads a grammar text from a file, or from stdin when path is empty.
func readGrammar(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("Cannot open the grammar file %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(src), nil
}

// compileGrammarFile reads and compiles a grammar. Diagnostics quote the offending line of the
// file.
func compileGrammarFile(c *grammar.Cache, path string, opts ...grammar.CompileOption) (*grammar.Compiled, error) {
	src, err := readGrammar(path)
	if err != nil {
		return nil, err
	}
	cg, err := c.Compile(src, opts...)
	if err != nil {
		var d *verr.Diagnostic
		if errors.As(err, &d) {
			d.FilePath = path
		}
		return nil, err
	}
	return cg, nil
}

func readCompiledTable(path string) (*spec.CompiledTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	t := &spec.CompiledTable{}
	err = json.Unmarshal(data, t)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintf(os.Stdout, "%v\n", string(data))
		return nil
	}
	return os.WriteFile(path, data, 0644)
}
