package grammar

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrgen.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("lrgen.grammar")
}

type symbol int

const symbolNil = symbol(-1)

const (
	symbolNameEOF         = "$"
	symbolNameError       = "ERROR"
	symbolNamePlaceholder = "##"
	symbolNameStart       = "S"

	punctuatorNamePrefix = "T_PUNCTUATOR_"
)

// The reserved symbols are registered first, so their numbers are fixed.
const (
	symbolEOF         = symbol(0)
	symbolError       = symbol(1)
	symbolPlaceholder = symbol(2)
)

func (s symbol) isNil() bool {
	return s < 0
}

type symbolTable struct {
	names    []string
	name2Sym map[string]symbol
	literals map[symbol]string

	// nonTerminals is filled once all productions are known.
	nonTerminals map[symbol]struct{}
}

func newSymbolTable() *symbolTable {
	t := &symbolTable{
		name2Sym:     map[string]symbol{},
		literals:     map[symbol]string{},
		nonTerminals: map[symbol]struct{}{},
	}
	t.intern(symbolNameEOF)
	t.intern(symbolNameError)
	t.intern(symbolNamePlaceholder)
	return t
}

func (t *symbolTable) intern(name string) symbol {
	if sym, ok := t.name2Sym[name]; ok {
		return sym
	}
	sym := symbol(len(t.names))
	t.names = append(t.names, name)
	t.name2Sym[name] = sym
	return sym
}

func (t *symbolTable) setLiteral(sym symbol, lit string) {
	t.literals[sym] = lit
}

func (t *symbolTable) markNonTerminal(sym symbol) {
	t.nonTerminals[sym] = struct{}{}
}

func (t *symbolTable) toSymbol(name string) (symbol, bool) {
	sym, ok := t.name2Sym[name]
	return sym, ok
}

func (t *symbolTable) toText(sym symbol) string {
	if sym.isNil() || int(sym) >= len(t.names) {
		return fmt.Sprintf("<nil:%v>", int(sym))
	}
	return t.names[sym]
}

// display returns the surface form of a terminal when it has one.
func (t *symbolTable) display(sym symbol) string {
	if lit, ok := t.literals[sym]; ok {
		return lit
	}
	return t.toText(sym)
}

// quoted renders a symbol the way items are printed: literals are quoted.
func (t *symbolTable) quoted(sym symbol) string {
	if lit, ok := t.literals[sym]; ok && lit != t.toText(sym) {
		return fmt.Sprintf("'%v'", lit)
	}
	return t.toText(sym)
}

func (t *symbolTable) isTerminal(sym symbol) bool {
	if sym.isNil() {
		return false
	}
	_, ok := t.nonTerminals[sym]
	return !ok
}

func (t *symbolTable) count() int {
	return len(t.names)
}

// symbols returns every symbol except the placeholder, in the order of registration.
func (t *symbolTable) symbols() []symbol {
	syms := make([]symbol, 0, len(t.names))
	for i := range t.names {
		sym := symbol(i)
		if sym == symbolPlaceholder {
			continue
		}
		syms = append(syms, sym)
	}
	return syms
}

func (t *symbolTable) terminals() []symbol {
	var syms []symbol
	for _, sym := range t.symbols() {
		if t.isTerminal(sym) {
			syms = append(syms, sym)
		}
	}
	return syms
}

// symbolSet is an ordered set of symbols. Iteration follows symbol numbers, so everything
// derived from a set is deterministic.
type symbolSet struct {
	set *treeset.Set
}

func newSymbolSet(syms ...symbol) *symbolSet {
	s := &symbolSet{
		set: treeset.NewWithIntComparator(),
	}
	for _, sym := range syms {
		s.set.Add(int(sym))
	}
	return s
}

func (s *symbolSet) add(sym symbol) bool {
	if s.set.Contains(int(sym)) {
		return false
	}
	s.set.Add(int(sym))
	return true
}

func (s *symbolSet) contains(sym symbol) bool {
	return s.set.Contains(int(sym))
}

func (s *symbolSet) merge(t *symbolSet) bool {
	if t == nil {
		return false
	}
	changed := false
	for _, sym := range t.symbols() {
		if s.add(sym) {
			changed = true
		}
	}
	return changed
}

func (s *symbolSet) len() int {
	return s.set.Size()
}

func (s *symbolSet) symbols() []symbol {
	vals := s.set.Values()
	syms := make([]symbol, len(vals))
	for i, v := range vals {
		syms[i] = symbol(v.(int))
	}
	return syms
}

func (s *symbolSet) equals(t *symbolSet) bool {
	if s.len() != t.len() {
		return false
	}
	for _, sym := range s.symbols() {
		if !t.contains(sym) {
			return false
		}
	}
	return true
}

func (s *symbolSet) clone() *symbolSet {
	return newSymbolSet(s.symbols()...)
}
