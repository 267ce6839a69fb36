package driver

import (
	"fmt"

	"github.com/nihei9/lrgen/compressor"
	"github.com/nihei9/lrgen/spec"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrgen.driver'.
func tracer() tracing.Trace {
	return tracing.Select("lrgen.driver")
}

// Grammar is the read-only view of a compiled table the parser works on.
type Grammar interface {
	InitialState() int

	// Action returns the operation for a state and a symbol. Non-terminals yield the shift
	// that follows a reduction.
	Action(state int, sym int) spec.Operation

	RuleLHS(rule int) int
	RuleLen(rule int) int

	// StartSymbol returns the left-hand side of the start rule.
	StartSymbol() int

	NodeMode(sym int) spec.NodeMode
	Optimize() bool

	// Hook returns the name of the hook bound to a state and a symbol.
	Hook(state int, sym int) (string, bool)

	EOF() int
	Error() int

	SymbolCount() int

	// Symbol returns the name of a symbol, Display its surface form.
	Symbol(sym int) string
	Display(sym int) string
	LookupSymbol(name string) (int, bool)
}

type hookKey struct {
	state int
	sym   int
}

type grammarImpl struct {
	t     *spec.CompiledTable
	hooks map[hookKey]string
}

func NewGrammar(t *spec.CompiledTable) (*grammarImpl, error) {
	if t == nil || t.ParsingTable == nil || t.Symbols == nil {
		return nil, fmt.Errorf("a compiled table must have a parsing table and a symbol table")
	}
	tab := t.ParsingTable
	if tab.Action == nil && tab.Compressed == nil {
		return nil, fmt.Errorf("the parsing table has no action table")
	}
	if tab.Action != nil && len(tab.Action) != tab.StateCount*tab.SymbolCount {
		return nil, fmt.Errorf("the action table has an invalid size; want: %v, got: %v", tab.StateCount*tab.SymbolCount, len(tab.Action))
	}
	if len(tab.RuleLHS) == 0 || len(tab.RuleLHS) != len(tab.RuleLen) {
		return nil, fmt.Errorf("the rule tables are inconsistent")
	}

	hooks := map[hookKey]string{}
	for _, h := range t.Hooks {
		hooks[hookKey{state: h.State, sym: h.Symbol}] = h.Name
	}

	return &grammarImpl{
		t:     t,
		hooks: hooks,
	}, nil
}

func (g *grammarImpl) InitialState() int {
	return g.t.ParsingTable.InitialState
}

func (g *grammarImpl) Action(state int, sym int) spec.Operation {
	tab := g.t.ParsingTable
	if state < 0 || state >= tab.StateCount || sym < 0 || sym >= tab.SymbolCount {
		return spec.Operation{}
	}
	if tab.Compressed != nil {
		v, err := compressor.Lookup(tab.Compressed, tab.SymbolCount, state, sym)
		if err != nil {
			return spec.Operation{}
		}
		return spec.DecodeOperation(v)
	}
	return spec.DecodeOperation(tab.Action[state*tab.SymbolCount+sym])
}

func (g *grammarImpl) RuleLHS(rule int) int {
	return g.t.ParsingTable.RuleLHS[rule]
}

func (g *grammarImpl) RuleLen(rule int) int {
	return g.t.ParsingTable.RuleLen[rule]
}

func (g *grammarImpl) StartSymbol() int {
	return g.t.ParsingTable.RuleLHS[0]
}

func (g *grammarImpl) NodeMode(sym int) spec.NodeMode {
	if sym < 0 || sym >= len(g.t.NodeModes) {
		return spec.NodeModeDefault
	}
	return g.t.NodeModes[sym]
}

func (g *grammarImpl) Optimize() bool {
	return g.t.Optimize
}

func (g *grammarImpl) Hook(state int, sym int) (string, bool) {
	name, ok := g.hooks[hookKey{state: state, sym: sym}]
	return name, ok
}

func (g *grammarImpl) EOF() int {
	return g.t.Symbols.EOF
}

func (g *grammarImpl) Error() int {
	return g.t.Symbols.Error
}

func (g *grammarImpl) SymbolCount() int {
	return g.t.ParsingTable.SymbolCount
}

func (g *grammarImpl) Symbol(sym int) string {
	if sym < 0 || sym >= len(g.t.Symbols.Names) {
		return fmt.Sprintf("<symbol %v>", sym)
	}
	return g.t.Symbols.Names[sym]
}

func (g *grammarImpl) Display(sym int) string {
	return g.t.Symbols.Display(sym)
}

func (g *grammarImpl) LookupSymbol(name string) (int, bool) {
	return g.t.Symbols.Lookup(name)
}
