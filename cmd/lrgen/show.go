package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nihei9/lrgen/grammar"
	"github.com/nihei9/lrgen/spec"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showFlags = struct {
	state    *int
	allItems *bool
	first    *[]string
	grammar  *grammarFlags
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "show <grammar file path>",
		Short:   "Print the automaton of a grammar in a readable format",
		Example: `  lrgen show grammar.lrg --state 3`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	showFlags.state = cmd.Flags().Int("state", -1, "print only this state")
	showFlags.allItems = cmd.Flags().Bool("all-items", false, "print the closure items of states too")
	showFlags.first = cmd.Flags().StringSlice("first", nil, "print FIRST of these non-terminals")
	showFlags.grammar = addGrammarFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	opts, err := showFlags.grammar.options(args[0], grammar.Debug())
	if err != nil {
		return err
	}
	cg, err := compileGrammarFile(grammar.NewCache(), args[0], opts...)
	if err != nil {
		return err
	}
	report, err := cg.Report()
	if err != nil {
		return err
	}

	for _, name := range *showFlags.first {
		err := writeFirst(os.Stdout, cg, name)
		if err != nil {
			return err
		}
	}
	if len(*showFlags.first) > 0 && *showFlags.state < 0 {
		return nil
	}
	return writeReport(os.Stdout, cg, report, *showFlags.state, !*showFlags.allItems)
}

func writeFirst(w io.Writer, cg *grammar.Compiled, name string) error {
	terms, empty, err := cg.First(name)
	if err != nil {
		return err
	}
	if empty {
		terms = append(terms, "ε")
	}
	fmt.Fprintf(w, "FIRST(%v) = { %v }\n", name, strings.Join(terms, ", "))
	return nil
}

// writeReport prints the productions and the states of an automaton. A negative state prints
// every state.
func writeReport(w io.Writer, cg *grammar.Compiled, r *spec.Report, state int, baseOnly bool) error {
	syms := r.Symbols

	if state < 0 {
		pterm.DefaultSection.WithWriter(w).Printfln("%v productions", r.Kind)
		data := pterm.TableData{{"#", "Production"}}
		for _, p := range r.Productions {
			data = append(data, []string{strconv.Itoa(p.Number), productionText(syms, p)})
		}
		err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
		if err != nil {
			return err
		}
		pterm.DefaultSection.WithWriter(w).Printfln("%v states", len(r.States))
	} else if state >= len(r.States) {
		return fmt.Errorf("state not found: %v", state)
	}

	for _, s := range r.States {
		if state >= 0 && s.Number != state {
			continue
		}
		text, err := cg.StateString(s.Number, baseOnly)
		if err != nil {
			return err
		}
		fmt.Fprint(w, text)
		if rows := actionRows(syms, s); len(rows) > 0 {
			err = pterm.DefaultTable.WithData(rows).WithWriter(w).Render()
			if err != nil {
				return err
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func productionText(syms *spec.SymbolTable, p *spec.Production) string {
	if len(p.RHS) == 0 {
		return fmt.Sprintf("%v → ε", syms.Display(p.LHS))
	}
	rhs := make([]string, len(p.RHS))
	for i, sym := range p.RHS {
		rhs[i] = syms.Display(sym)
	}
	return fmt.Sprintf("%v → %v", syms.Display(p.LHS), strings.Join(rhs, " "))
}

func actionRows(syms *spec.SymbolTable, s *spec.State) pterm.TableData {
	var data pterm.TableData
	for _, t := range s.Shift {
		data = append(data, []string{"shift", syms.Display(t.Symbol), strconv.Itoa(t.State)})
	}
	for _, t := range s.GoTo {
		data = append(data, []string{"goto", syms.Display(t.Symbol), strconv.Itoa(t.State)})
	}
	for _, r := range s.Reduce {
		la := "*"
		if len(r.LookAhead) > 0 {
			names := make([]string, len(r.LookAhead))
			for i, sym := range r.LookAhead {
				names[i] = syms.Display(sym)
			}
			la = strings.Join(names, " ")
		}
		data = append(data, []string{"reduce", la, strconv.Itoa(r.Production)})
	}
	if s.Accept {
		data = append(data, []string{"accept", syms.Display(syms.EOF), ""})
	}
	return data
}
