package grammar

import (
	"fmt"
)

type firstEntry struct {
	symbols *symbolSet
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: newSymbolSet(),
		empty:   false,
	}
}

func (e *firstEntry) add(sym symbol) bool {
	return e.symbols.add(sym)
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	if target == nil {
		return false
	}
	return e.symbols.merge(target.symbols)
}

// firstSet caches FIRST of every non-terminal. Terminals are their own FIRST.
type firstSet struct {
	symTab *symbolTable
	set    map[symbol]*firstEntry
}

func newFirstSet(prods *productionSet, symTab *symbolTable) *firstSet {
	fst := &firstSet{
		symTab: symTab,
		set:    map[symbol]*firstEntry{},
	}
	for _, prod := range prods.getAllProductions() {
		if _, ok := fst.set[prod.lhs]; ok {
			continue
		}
		fst.set[prod.lhs] = newFirstEntry()
	}

	return fst
}

func (fst *firstSet) findBySymbol(sym symbol) *firstEntry {
	return fst.set[sym]
}

// find returns FIRST of a symbol sequence. When the whole sequence derives the empty string,
// the entry has the empty flag set.
func (fst *firstSet) find(syms []symbol) (*firstEntry, error) {
	entry := newFirstEntry()
	for _, sym := range syms {
		if fst.symTab.isTerminal(sym) {
			entry.add(sym)
			return entry, nil
		}

		e := fst.findBySymbol(sym)
		if e == nil {
			return nil, fmt.Errorf("an entry of FIRST was not found; symbol: %s", fst.symTab.toText(sym))
		}
		entry.mergeExceptEmpty(e)
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

// findForLookAhead returns the terminals that may follow the dotted symbol of an item whose
// remaining symbols are syms. When syms derives the empty string, the look-ahead symbols of
// the item itself follow as well.
func (fst *firstSet) findForLookAhead(syms []symbol, lookAhead *symbolSet) (*symbolSet, error) {
	e, err := fst.find(syms)
	if err != nil {
		return nil, err
	}
	las := e.symbols.clone()
	if e.empty {
		las.merge(lookAhead)
	}
	return las, nil
}

func genFirstSet(prods *productionSet, symTab *symbolTable) (*firstSet, error) {
	fst := newFirstSet(prods, symTab)
	for {
		more := false
		for _, prod := range prods.getAllProductions() {
			e := fst.findBySymbol(prod.lhs)
			changed, err := genProdFirstEntry(fst, e, prod)
			if err != nil {
				return nil, err
			}
			if changed {
				more = true
			}
		}
		if !more {
			break
		}
	}
	return fst, nil
}

func genProdFirstEntry(fst *firstSet, acc *firstEntry, prod *production) (bool, error) {
	if prod.isEmpty() {
		return acc.addEmpty(), nil
	}

	changed := false
	for _, sym := range prod.rhs {
		if fst.symTab.isTerminal(sym) {
			return acc.add(sym) || changed, nil
		}

		e := fst.findBySymbol(sym)
		if e == nil {
			return false, fmt.Errorf("an entry of FIRST was not found; symbol: %s", fst.symTab.toText(sym))
		}
		if acc.mergeExceptEmpty(e) {
			changed = true
		}
		if !e.empty {
			return changed, nil
		}
	}
	return acc.addEmpty() || changed, nil
}
