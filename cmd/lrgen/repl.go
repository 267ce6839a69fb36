package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/nihei9/lrgen/driver"
	"github.com/nihei9/lrgen/driver/lexer"
	"github.com/nihei9/lrgen/grammar"
	"github.com/nihei9/lrgen/spec"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var replFlags = struct {
	lexer   *string
	grammar *grammarFlags
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "repl <grammar file path>",
		Short: "Parse lines interactively",
		Long: `repl parses each line you enter with a grammar and prints the parse tree.
Lines starting with a colon are commands; enter :help to list them.`,
		Example: `  lrgen repl grammar.lrg`,
		Args:    cobra.ExactArgs(1),
		RunE:    runREPL,
	}
	replFlags.lexer = cmd.Flags().StringP("lexer", "l", string(lexer.BackendMaleeni), "lexer back end [maleeni|lexmachine]")
	replFlags.grammar = addGrammarFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func runREPL(cmd *cobra.Command, args []string) error {
	backend, err := lexer.ParseBackend(*replFlags.lexer)
	if err != nil {
		return err
	}
	kind, err := parseKind(*replFlags.grammar.kind)
	if err != nil {
		return err
	}
	opts, err := replFlags.grammar.options(args[0])
	if err != nil {
		return err
	}

	initDisplay()
	s := &session{
		cache:   grammar.NewCache(),
		path:    args[0],
		opts:    opts,
		kind:    kind,
		backend: backend,
		out:     os.Stdout,
	}
	if err := s.load(); err != nil {
		return err
	}

	rl, err := readline.New("lrgen> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	pterm.Info.Println("Quit with :quit or <ctrl>D")
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or an interrupt
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := s.eval(line)
		if err != nil {
			pterm.Error.WithWriter(s.out).Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	return nil
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// session holds the grammar an interactive run parses with. Commands may switch the automaton
// kind or the lexer, and reload the grammar file.
type session struct {
	cache   *grammar.Cache
	path    string
	opts    []grammar.CompileOption
	kind    spec.Kind
	backend lexer.Backend
	out     io.Writer

	cg  *grammar.Compiled
	g   driver.Grammar
	lex lexer.Spec
}

// load compiles the grammar file in debug mode. The cache makes reloading an unchanged file
// cheap.
func (s *session) load() error {
	opts := append([]grammar.CompileOption{}, s.opts...)
	opts = append(opts, grammar.Kind(s.kind), grammar.Debug())
	cg, err := compileGrammarFile(s.cache, s.path, opts...)
	if err != nil {
		return err
	}
	g, err := driver.NewGrammar(cg.Table)
	if err != nil {
		return err
	}
	lex, err := lexer.Compile(s.backend, cg.Table.Lexical)
	if err != nil {
		return err
	}
	s.cg = cg
	s.g = g
	s.lex = lex
	t := cg.Table.ParsingTable
	pterm.Info.WithWriter(s.out).Printfln("%v: %v %v states, %v symbols", s.path, cg.Table.Kind, t.StateCount, t.SymbolCount)
	return nil
}

const replHelp = `:quit            leave
:reload          read the grammar file again
:kind <kind>     switch the automaton kind [lr0|lr1|lalr]
:lexer <lexer>   switch the lexer back end [maleeni|lexmachine]
:states          print the kernel items of every state
:state <n>       print all items of a state
:first <name>    print FIRST of a non-terminal
anything else    parse the line`

// eval runs a command or parses a line.
func (s *session) eval(line string) (quit bool, err error) {
	if !strings.HasPrefix(line, ":") {
		return false, s.parse(line)
	}

	fields := strings.Fields(line)
	arg := func() (string, error) {
		if len(fields) != 2 {
			return "", fmt.Errorf("%v takes one argument", fields[0])
		}
		return fields[1], nil
	}
	switch fields[0] {
	case ":q", ":quit":
		return true, nil
	case ":help":
		fmt.Fprintln(s.out, replHelp)
	case ":reload":
		return false, s.load()
	case ":kind":
		a, err := arg()
		if err != nil {
			return false, err
		}
		kind, err := parseKind(a)
		if err != nil {
			return false, err
		}
		prev := s.kind
		s.kind = kind
		if err := s.load(); err != nil {
			s.kind = prev
			return false, err
		}
	case ":lexer":
		a, err := arg()
		if err != nil {
			return false, err
		}
		backend, err := lexer.ParseBackend(a)
		if err != nil {
			return false, err
		}
		lex, err := lexer.Compile(backend, s.cg.Table.Lexical)
		if err != nil {
			return false, err
		}
		s.backend = backend
		s.lex = lex
	case ":states":
		text, err := s.cg.StatesString(true)
		if err != nil {
			return false, err
		}
		fmt.Fprint(s.out, text)
	case ":state":
		a, err := arg()
		if err != nil {
			return false, err
		}
		num, err := strconv.Atoi(a)
		if err != nil {
			return false, fmt.Errorf("not a state number: %v", a)
		}
		text, err := s.cg.StateString(num, false)
		if err != nil {
			return false, err
		}
		fmt.Fprint(s.out, text)
	case ":first":
		a, err := arg()
		if err != nil {
			return false, err
		}
		return false, writeFirst(s.out, s.cg, a)
	default:
		return false, fmt.Errorf("unknown command: %v", fields[0])
	}
	return false, nil
}

func (s *session) parse(line string) error {
	ts, err := s.lex.NewTokenStream(s.g, strings.NewReader(line))
	if err != nil {
		return err
	}
	tb := driver.NewTree(s.g.Optimize())
	p, err := driver.NewParser(s.g, ts, driver.WithTree(tb), driver.FileName("repl"))
	if err != nil {
		return err
	}
	err = p.Parse(context.Background())
	if err != nil {
		return err
	}

	for _, d := range p.Diagnostics() {
		pterm.Error.WithWriter(s.out).Println(d.Error())
	}
	roots := []driver.NodeID{tb.Root()}
	if tb.Root() == driver.NilNode {
		roots = tb.Pending()
	}
	for _, id := range roots {
		err := pterm.DefaultTree.WithWriter(s.out).WithRoot(treeFrom(tb, id)).Render()
		if err != nil {
			return err
		}
	}
	return nil
}

// treeFrom converts the subtree rooted at id for pterm.
func treeFrom(tb *driver.Tree, id driver.NodeID) pterm.TreeNode {
	ll := leveledNodes(tb, id, pterm.LeveledList{}, 0)
	return pterm.NewTreeFromLeveledList(ll)
}

func leveledNodes(tb *driver.Tree, id driver.NodeID, ll pterm.LeveledList, level int) pterm.LeveledList {
	n := tb.Node(id)
	if n == nil {
		return ll
	}
	var text string
	switch {
	case n.Error:
		text = "!" + n.Name
	case n.IsLeaf():
		text = fmt.Sprintf("%v %#v", n.Name, n.Value)
	default:
		text = n.Name
	}
	ll = append(ll, pterm.LeveledListItem{
		Level: level,
		Text:  text,
	})
	for _, c := range n.Children {
		ll = leveledNodes(tb, c, ll, level+1)
	}
	return ll
}
