package grammar

import (
	"github.com/nihei9/lrgen/spec"
)

func genLR1Automaton(prods *productionSet, symTab *symbolTable, first *firstSet) (*lrAutomaton, error) {
	b := newAutomatonBuilder(spec.KindLR1, prods, symTab, first)
	if err := b.genStates(); err != nil {
		return nil, err
	}
	return b.automaton(), nil
}

// closureLR runs until no item gains a look-ahead symbol, because a new look-ahead symbol of an
// item may propagate to the items it derives.
func (b *automatonBuilder) closureLR(state *lrState) error {
	for {
		changed := false
		unchecked := append([]*lrItem{}, state.items...)
		for len(unchecked) > 0 {
			nextUnchecked := []*lrItem{}
			for _, item := range unchecked {
				if item.dottedSymbol.isNil() || b.symTab.isTerminal(item.dottedSymbol) {
					continue
				}

				las, err := b.first.findForLookAhead(item.prod.rhs[item.dot+1:], item.lookAhead)
				if err != nil {
					return err
				}

				ps, _ := b.prods.findByLHS(item.dottedSymbol)
				for _, prod := range ps {
					for _, a := range las.symbols() {
						added, created, err := state.tryPushLR(prod, 0, a)
						if err != nil {
							return err
						}
						if added {
							changed = true
						}
						if created != nil {
							nextUnchecked = append(nextUnchecked, created)
						}
					}
				}
			}
			unchecked = nextUnchecked
		}
		if !changed {
			break
		}
	}

	return nil
}
