package grammar

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/nihei9/lrgen/spec"
)

type itemKey struct {
	prod int
	dot  int
}

type lalr1Builder struct {
	*automatonBuilder

	// closures caches the closure of a single base item seeded with the placeholder symbol.
	closures map[itemKey]*lrState

	// links[i] holds the base items whose look-ahead symbols include the final look-ahead
	// symbols of the base item i.
	links map[int]*treeset.Set
}

// genLALR1Automaton builds an LR0 automaton and computes the look-ahead symbols of its base items
// by propagation. Finally every state is closed again with the look-ahead symbols.
func genLALR1Automaton(prods *productionSet, symTab *symbolTable, first *firstSet) (*lrAutomaton, error) {
	b := &lalr1Builder{
		automatonBuilder: newAutomatonBuilder(spec.KindLALR, prods, symTab, first),
		closures:         map[itemKey]*lrState{},
		links:            map[int]*treeset.Set{},
	}

	if err := b.genStates(); err != nil {
		return nil, err
	}

	for _, state := range b.states {
		state.deleteNonBaseItems()
	}

	for _, state := range b.states {
		for _, sym := range b.symbols {
			if err := b.determineLookAhead(state, sym); err != nil {
				return nil, err
			}
		}
	}

	b.expandLookAhead()

	for _, state := range b.states {
		if err := b.closureLR(state); err != nil {
			return nil, err
		}
	}

	tracer().Debugf("look-ahead symbols of %v base items were propagated", len(b.baseItems))

	return b.automaton(), nil
}

func (b *lalr1Builder) closureForItem(item *lrItem) (*lrState, error) {
	key := itemKey{
		prod: item.prod.num,
		dot:  item.dot,
	}
	if state, ok := b.closures[key]; ok {
		return state, nil
	}

	seed, err := newLR1Item(item.prod, item.dot, symbolPlaceholder)
	if err != nil {
		return nil, err
	}
	state := newLRState()
	state.push(seed)
	if err := b.closureLR(state); err != nil {
		return nil, err
	}
	b.closures[key] = state

	return state, nil
}

// determineLookAhead passes the look-ahead symbols generated spontaneously in state to the base
// items of the state reached by sym, and records a link where they propagate instead.
func (b *lalr1Builder) determineLookAhead(state *lrState, sym symbol) error {
	next, ok := state.next[sym]
	if !ok {
		return nil
	}

	for _, baseItem := range state.baseItems() {
		closure, err := b.closureForItem(baseItem)
		if err != nil {
			return err
		}
		for _, nextItem := range next.baseItems() {
			item := closure.findChildItem(nextItem)
			if item == nil {
				continue
			}
			for _, a := range item.lookAhead.symbols() {
				if a == symbolPlaceholder {
					b.addLink(baseItem, nextItem)
					continue
				}
				nextItem.lookAhead.add(a)
			}
		}
	}

	return nil
}

func (b *lalr1Builder) addLink(from *lrItem, to *lrItem) {
	dests, ok := b.links[from.index]
	if !ok {
		dests = treeset.NewWithIntComparator()
		b.links[from.index] = dests
	}
	dests.Add(to.index)
}

// expandLookAhead follows the links until no base item gains a look-ahead symbol. The base
// items of the initial state are seeded with the end of input.
func (b *lalr1Builder) expandLookAhead() {
	baseItems := b.baseItems
	dirty := make([]bool, len(baseItems))
	for i := range dirty {
		dirty[i] = true
	}

	for _, item := range b.states[0].baseItems() {
		item.lookAhead.add(symbolEOF)
	}

	for {
		more := false
		for _, item := range baseItems {
			dests, ok := b.links[item.index]
			if dirty[item.index] && ok {
				for _, v := range dests.Values() {
					dest := baseItems[v.(int)]
					if dest.lookAhead.merge(item.lookAhead) {
						dirty[dest.index] = true
						more = true
					}
				}
			}
			dirty[item.index] = false
		}
		if !more {
			break
		}
	}
}
