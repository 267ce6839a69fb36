package grammar

import (
	"fmt"

	verr "github.com/nihei9/lrgen/error"
	"github.com/nihei9/lrgen/spec"
)

type lrAutomaton struct {
	kind   spec.Kind
	states []*lrState

	// baseItems is kept only for an automaton built from LR0 states.
	baseItems []*lrItem
}

type automatonBuilder struct {
	kind    spec.Kind
	prods   *productionSet
	symTab  *symbolTable
	first   *firstSet
	symbols []symbol

	// When lookAhead is true, items carry look-ahead symbols while the states are built and
	// states are distinguished by them (LR1). Otherwise states are LR0 states.
	lookAhead bool

	states    []*lrState
	kernels   map[kernelID]*lrState
	baseItems []*lrItem
}

func newAutomatonBuilder(kind spec.Kind, prods *productionSet, symTab *symbolTable, first *firstSet) *automatonBuilder {
	return &automatonBuilder{
		kind:      kind,
		prods:     prods,
		symTab:    symTab,
		first:     first,
		symbols:   symTab.symbols(),
		lookAhead: kind == spec.KindLR1,
		kernels:   map[kernelID]*lrState{},
	}
}

func (b *automatonBuilder) automaton() *lrAutomaton {
	return &lrAutomaton{
		kind:      b.kind,
		states:    b.states,
		baseItems: b.baseItems,
	}
}

func genLR0Automaton(prods *productionSet, symTab *symbolTable) (*lrAutomaton, error) {
	b := newAutomatonBuilder(spec.KindLR0, prods, symTab, nil)
	if err := b.genStates(); err != nil {
		return nil, err
	}
	return b.automaton(), nil
}

func (b *automatonBuilder) genStates() error {
	initial, err := b.genInitialState()
	if err != nil {
		return err
	}

	unchecked := []*lrState{initial}
	for len(unchecked) > 0 {
		nextUnchecked := []*lrState{}
		for _, state := range unchecked {
			for _, sym := range b.symbols {
				next, err := b.genNextState(state, sym)
				if err != nil {
					return err
				}
				if next.isEmpty() {
					continue
				}

				known, added, err := b.tryAddState(next)
				if err != nil {
					return err
				}
				if added {
					nextUnchecked = append(nextUnchecked, known)
				}

				if err := b.addStateLink(state, known, sym); err != nil {
					return err
				}
			}
		}
		unchecked = nextUnchecked
	}

	tracer().P("kind", b.kind).Debugf("%v states were generated", len(b.states))

	return nil
}

func (b *automatonBuilder) genInitialState() (*lrState, error) {
	startSym, ok := b.symTab.toSymbol(symbolNameStart)
	if !ok {
		return nil, fmt.Errorf("the start symbol was not found")
	}
	prods, ok := b.prods.findByLHS(startSym)
	if !ok || len(prods) == 0 {
		return nil, fmt.Errorf("the start symbol has no production")
	}

	// Every S rule is a base item of the initial state.
	state := newLRState()
	for _, prod := range prods {
		var item *lrItem
		var err error
		if b.lookAhead {
			item, err = newLR1Item(prod, 0, symbolEOF)
		} else {
			item, err = newLR0Item(prod, 0)
		}
		if err != nil {
			return nil, err
		}
		state.push(item)
	}
	state.baseCount = len(state.items)

	state, _, err := b.tryAddState(state)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// genNextState returns the base items reached from state by sym.
func (b *automatonBuilder) genNextState(state *lrState, sym symbol) (*lrState, error) {
	next := newLRState()
	for _, item := range state.items {
		if item.dottedSymbol != sym {
			continue
		}
		nItem, err := newLR0Item(item.prod, item.dot+1)
		if err != nil {
			return nil, err
		}
		if b.lookAhead {
			nItem.lookAhead = item.lookAhead.clone()
		}
		next.push(nItem)
	}
	return next, nil
}

// tryAddState registers state unless an equal state is known. It returns the registered state.
func (b *automatonBuilder) tryAddState(state *lrState) (*lrState, bool, error) {
	kind := spec.KindLR0
	if b.lookAhead {
		kind = spec.KindLR1
	}
	id := genKernelID(state.baseItems(), kind)
	if known, ok := b.kernels[id]; ok {
		return known, false, nil
	}

	if !b.lookAhead {
		for _, item := range state.items {
			item.index = len(b.baseItems)
			b.baseItems = append(b.baseItems, item)
		}
	}

	state.num = len(b.states)
	b.states = append(b.states, state)
	b.kernels[id] = state

	var err error
	if b.lookAhead {
		err = b.closureLR(state)
	} else {
		err = b.closureLR0(state)
	}
	if err != nil {
		return nil, false, err
	}

	return state, true, nil
}

func (b *automatonBuilder) addStateLink(state *lrState, next *lrState, sym symbol) error {
	if old, ok := state.next[sym]; ok {
		return verr.NewCritical(verr.CodeGrammarAddStateLink, verr.Args{
			"kind":              b.kind,
			"stateIndex":        state.num,
			"grammarSymbol":     b.symTab.display(sym),
			"oldNextStateIndex": old.num,
			"newNextStateIndex": next.num,
		})
	}
	state.next[sym] = next
	return nil
}

func (b *automatonBuilder) closureLR0(state *lrState) error {
	unchecked := append([]*lrItem{}, state.items...)
	for len(unchecked) > 0 {
		nextUnchecked := []*lrItem{}
		for _, item := range unchecked {
			if item.dottedSymbol.isNil() || b.symTab.isTerminal(item.dottedSymbol) {
				continue
			}

			ps, _ := b.prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				added, err := state.tryPushLR0(prod, 0)
				if err != nil {
					return err
				}
				if added != nil {
					nextUnchecked = append(nextUnchecked, added)
				}
			}
		}
		unchecked = nextUnchecked
	}

	return nil
}
