package grammar

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/nihei9/lrgen/spec"
)

// hookInfo is a `--F name` flag. pos counts the right-hand side symbols preceding the flag.
type hookInfo struct {
	name string
	pos  int
	prod *production
}

type hookKey struct {
	state int
	sym   symbol
}

func hookKeyComparator(a, b interface{}) int {
	ka := a.(hookKey)
	kb := b.(hookKey)
	switch {
	case ka.state < kb.state:
		return -1
	case ka.state > kb.state:
		return 1
	case ka.sym < kb.sym:
		return -1
	case ka.sym > kb.sym:
		return 1
	}
	return 0
}

// genHooks binds every hook to the states whose base items contain its rule position. The
// hook fires in such a state after the symbol preceding the position was shifted or reduced.
// A later flag wins when two flags land on the same state and symbol.
func genHooks(infos []*hookInfo, automaton *lrAutomaton, symTab *symbolTable) []*spec.Hook {
	m := treemap.NewWith(hookKeyComparator)
	for _, info := range infos {
		if info.pos <= 0 || info.pos > info.prod.rhsLen {
			continue
		}
		sym := info.prod.rhs[info.pos-1]
		for _, state := range automaton.states {
			if !state.hasRule(info.prod, info.pos) {
				continue
			}
			m.Put(hookKey{state: state.num, sym: sym}, info.name)
		}
	}

	hooks := make([]*spec.Hook, 0, m.Size())
	it := m.Iterator()
	for it.Next() {
		k := it.Key().(hookKey)
		hooks = append(hooks, &spec.Hook{
			State:  k.state,
			Symbol: int(k.sym),
			Name:   it.Value().(string),
		})
		tracer().Debugf("hook %v is bound to state %v and symbol %v", it.Value(), k.state, symTab.toText(k.sym))
	}
	return hooks
}
