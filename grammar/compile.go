package grammar

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cnf/structhash"
	"github.com/nihei9/lrgen/compressor"
	"github.com/nihei9/lrgen/spec"
	"github.com/npillmayer/schuko/gconf"
)

// ConfigKeyDebug makes Compile keep the automaton unless a caller passes options explicitly.
const ConfigKeyDebug = "grammar.debug"

type compileConfig struct {
	kind     spec.Kind
	debug    bool
	policy   NodePolicy
	optimize bool
	compress bool
	name     string
}

type CompileOption func(config *compileConfig)

// Kind selects the automaton. The default is LALR(1).
func Kind(kind spec.Kind) CompileOption {
	return func(config *compileConfig) {
		config.kind = kind
	}
}

// Debug keeps the automaton so that states can be printed and reported.
func Debug() CompileOption {
	return func(config *compileConfig) {
		config.debug = true
	}
}

func NodeMode(policy NodePolicy) CompileOption {
	return func(config *compileConfig) {
		config.policy = policy
	}
}

// Optimize makes a reduction in the default node mode create a node only when it has more
// than one child.
func Optimize() CompileOption {
	return func(config *compileConfig) {
		config.optimize = true
	}
}

// Compress stores the action table in the packed form of the compressor package.
func Compress() CompileOption {
	return func(config *compileConfig) {
		config.compress = true
	}
}

// Name names the grammar. Diagnostics use it as the file name.
func Name(name string) CompileOption {
	return func(config *compileConfig) {
		config.name = name
	}
}

// Compiled is the result of a compilation. Table is immutable and may be shared by any number
// of parsers.
type Compiled struct {
	Table *spec.CompiledTable

	// The automaton is kept only in debug mode.
	symTab    *symbolTable
	prods     *productionSet
	first     *firstSet
	automaton *lrAutomaton
}

// Compile turns a grammar text into a parsing table. Any malformed line and any conflict in
// the table is fatal, and no table is returned then.
func Compile(src string, opts ...CompileOption) (*Compiled, error) {
	config := &compileConfig{
		kind:  spec.KindLALR,
		debug: gconf.GetBool(ConfigKeyDebug),
	}
	for _, opt := range opts {
		opt(config)
	}

	b := &GrammarBuilder{
		Name:   config.name,
		Policy: config.policy,
	}
	gram, err := b.Build(src)
	if err != nil {
		return nil, err
	}

	first, err := genFirstSet(gram.productionSet, gram.symbolTable)
	if err != nil {
		return nil, err
	}

	var automaton *lrAutomaton
	switch config.kind {
	case spec.KindLR0:
		automaton, err = genLR0Automaton(gram.productionSet, gram.symbolTable)
	case spec.KindLR1:
		automaton, err = genLR1Automaton(gram.productionSet, gram.symbolTable, first)
	case spec.KindLALR:
		automaton, err = genLALR1Automaton(gram.productionSet, gram.symbolTable, first)
	default:
		return nil, fmt.Errorf("unknown automaton kind: %v", config.kind)
	}
	if err != nil {
		return nil, err
	}

	tb := &lrTableBuilder{
		automaton: automaton,
		prods:     gram.productionSet,
		symTab:    gram.symbolTable,
	}
	actTab, err := tb.build()
	if err != nil {
		return nil, err
	}

	symTab := gram.symbolTable
	ptab := &spec.ParsingTable{
		StateCount:   actTab.stateCount,
		SymbolCount:  actTab.symbolCount,
		InitialState: 0,
	}
	for _, p := range gram.productionSet.getAllProductions() {
		ptab.RuleLHS = append(ptab.RuleLHS, int(p.lhs))
		ptab.RuleLen = append(ptab.RuleLen, p.rhsLen)
	}
	if config.compress {
		ptab.Compressed, err = compressor.Compress(actTab.flatten(), actTab.symbolCount)
		if err != nil {
			return nil, err
		}
	} else {
		ptab.Action = actTab.flatten()
	}

	nodeModes := make([]spec.NodeMode, symTab.count())
	for sym, mode := range gram.nodeModes {
		nodeModes[sym] = mode
	}

	c := &Compiled{
		Table: &spec.CompiledTable{
			Name:         config.name,
			Kind:         config.kind,
			Symbols:      genSymbolTable(symTab),
			Lexical:      gram.lexSpec,
			ParsingTable: ptab,
			Hooks:        genHooks(gram.hooks, automaton, symTab),
			NodeModes:    nodeModes,
			Optimize:     config.optimize,
		},
	}
	if config.debug {
		c.symTab = symTab
		c.prods = gram.productionSet
		c.first = first
		c.automaton = automaton
	}

	tracer().P("kind", config.kind).Infof("compiled grammar %q: %v states, %v symbols",
		config.name, ptab.StateCount, ptab.SymbolCount)

	return c, nil
}

func genSymbolTable(symTab *symbolTable) *spec.SymbolTable {
	t := &spec.SymbolTable{
		Names:    make([]string, symTab.count()),
		Terminal: make([]bool, symTab.count()),
		Literals: make([]string, symTab.count()),
		EOF:      int(symbolEOF),
		Error:    int(symbolError),
	}
	for i := 0; i < symTab.count(); i++ {
		sym := symbol(i)
		t.Names[i] = symTab.toText(sym)
		t.Terminal[i] = symTab.isTerminal(sym) && sym != symbolPlaceholder
		t.Literals[i] = symTab.literals[sym]
	}
	return t
}

// IsDebug reports whether the automaton was kept.
func (c *Compiled) IsDebug() bool {
	return c.automaton != nil
}

// StateString prints a state with its items. Symbols are printed with their surface form.
func (c *Compiled) StateString(num int, baseOnly bool) (string, error) {
	if !c.IsDebug() {
		return "", fmt.Errorf("states are not available; compile the grammar in debug mode")
	}
	if num < 0 || num >= len(c.automaton.states) {
		return "", fmt.Errorf("state not found: %v", num)
	}
	return c.automaton.states[num].text(c.symTab, baseOnly), nil
}

func (c *Compiled) StatesString(baseOnly bool) (string, error) {
	if !c.IsDebug() {
		return "", fmt.Errorf("states are not available; compile the grammar in debug mode")
	}
	var b strings.Builder
	for _, state := range c.automaton.states {
		fmt.Fprintf(&b, "%v", state.text(c.symTab, baseOnly))
	}
	return b.String(), nil
}

// Report describes the automaton. It is only available in debug mode.
func (c *Compiled) Report() (*spec.Report, error) {
	if !c.IsDebug() {
		return nil, fmt.Errorf("a report is not available; compile the grammar in debug mode")
	}
	return genReport(c.automaton, c.prods, c.symTab, c.Table.Symbols), nil
}

// First returns FIRST of a non-terminal by names. empty reports whether the non-terminal
// derives the empty string.
func (c *Compiled) First(name string) (terms []string, empty bool, err error) {
	if !c.IsDebug() {
		return nil, false, fmt.Errorf("FIRST sets are not available; compile the grammar in debug mode")
	}
	sym, ok := c.symTab.toSymbol(name)
	if !ok {
		return nil, false, fmt.Errorf("symbol not found: %v", name)
	}
	e := c.first.findBySymbol(sym)
	if e == nil {
		return nil, false, fmt.Errorf("not a non-terminal: %v", name)
	}
	for _, a := range e.symbols.symbols() {
		terms = append(terms, c.symTab.toText(a))
	}
	return terms, e.empty, nil
}

type cacheKey struct {
	Source   string
	Kind     string
	Debug    bool
	Policy   int
	Optimize bool
	Compress bool
	Name     string
}

// Cache compiles a grammar once per text and option set. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Compiled
}

func NewCache() *Cache {
	return &Cache{
		entries: map[string]*Compiled{},
	}
}

func (c *Cache) Compile(src string, opts ...CompileOption) (*Compiled, error) {
	config := &compileConfig{
		kind:  spec.KindLALR,
		debug: gconf.GetBool(ConfigKeyDebug),
	}
	for _, opt := range opts {
		opt(config)
	}
	key, err := structhash.Hash(&cacheKey{
		Source:   src,
		Kind:     config.kind.String(),
		Debug:    config.debug,
		Policy:   int(config.policy),
		Optimize: config.optimize,
		Compress: config.compress,
		Name:     config.name,
	}, 1)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if compiled, ok := c.entries[key]; ok {
		tracer().Debugf("compile cache hit: %v", key)
		return compiled, nil
	}
	compiled, err := Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	c.entries[key] = compiled
	return compiled, nil
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
