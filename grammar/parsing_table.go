package grammar

import (
	"fmt"
	"sort"

	verr "github.com/nihei9/lrgen/error"
	"github.com/nihei9/lrgen/spec"
)

type actionKey struct {
	state int
	sym   symbol
}

// actionTable holds exactly one operation per state and symbol.
type actionTable struct {
	stateCount  int
	symbolCount int
	entries     map[actionKey]spec.Operation
}

func (t *actionTable) lookup(state int, sym symbol) spec.Operation {
	return t.entries[actionKey{state: state, sym: sym}]
}

type lrTableBuilder struct {
	automaton *lrAutomaton
	prods     *productionSet
	symTab    *symbolTable
}

func (b *lrTableBuilder) build() (*actionTable, error) {
	tab := &actionTable{
		stateCount:  len(b.automaton.states),
		symbolCount: b.symTab.count(),
		entries:     map[actionKey]spec.Operation{},
	}

	startSym, _ := b.symTab.toSymbol(symbolNameStart)
	terms := b.symTab.terminals()

	for _, state := range b.automaton.states {
		for _, item := range state.items {
			if !item.reducible {
				continue
			}
			if item.prod.lhs == startSym {
				if err := b.writeAction(tab, state, symbolEOF, spec.Accept()); err != nil {
					return nil, err
				}
				continue
			}

			las := item.lookAhead.symbols()
			if b.automaton.kind == spec.KindLR0 {
				las = terms
			}
			for _, a := range las {
				if err := b.writeAction(tab, state, a, spec.Reduce(item.prod.num)); err != nil {
					return nil, err
				}
			}
		}

		nextSyms := make([]symbol, 0, len(state.next))
		for sym := range state.next {
			nextSyms = append(nextSyms, sym)
		}
		sort.Slice(nextSyms, func(i, j int) bool {
			return nextSyms[i] < nextSyms[j]
		})
		for _, sym := range nextSyms {
			if err := b.writeAction(tab, state, sym, spec.Shift(state.next[sym].num)); err != nil {
				return nil, err
			}
		}
	}

	return tab, nil
}

// writeAction fails on a second operation for the same key. Such a key means the grammar is
// not of the requested kind.
func (b *lrTableBuilder) writeAction(tab *actionTable, state *lrState, sym symbol, op spec.Operation) error {
	key := actionKey{
		state: state.num,
		sym:   sym,
	}
	if old, ok := tab.entries[key]; ok {
		return verr.NewCritical(verr.CodeGrammarAddOperation, verr.Args{
			"kind":          b.automaton.kind,
			"stateIndex":    state.num,
			"grammarSymbol": b.symTab.display(sym),
			"oldOperation":  b.operationText(old),
			"newOperation":  b.operationText(op),
			"stateDesc":     state.text(b.symTab, false),
		})
	}
	tab.entries[key] = op
	return nil
}

func (b *lrTableBuilder) operationText(op spec.Operation) string {
	switch op.Kind {
	case spec.OperationShift:
		return fmt.Sprintf("SHIFT to state %v", op.State)
	case spec.OperationReduce:
		prod, ok := b.prods.findByNum(op.Rule)
		if !ok {
			return fmt.Sprintf("REDUCE by rule %v", op.Rule)
		}
		return fmt.Sprintf("REDUCE by rule { %v }", prod.text(b.symTab))
	case spec.OperationAccept:
		return "SUCCESS"
	}
	return "NONE"
}

// flatten lays the table out as a state-major matrix of encoded operations.
func (t *actionTable) flatten() []int {
	action := make([]int, t.stateCount*t.symbolCount)
	for key, op := range t.entries {
		action[key.state*t.symbolCount+int(key.sym)] = op.Encode()
	}
	return action
}

func genReport(automaton *lrAutomaton, prods *productionSet, symTab *symbolTable, symbols *spec.SymbolTable) *spec.Report {
	var ps []*spec.Production
	for _, p := range prods.getAllProductions() {
		rhs := make([]int, len(p.rhs))
		for i, sym := range p.rhs {
			rhs[i] = int(sym)
		}
		ps = append(ps, &spec.Production{
			Number: p.num,
			LHS:    int(p.lhs),
			RHS:    rhs,
		})
	}

	genItem := func(item *lrItem) *spec.Item {
		si := &spec.Item{
			Production: item.prod.num,
			Dot:        item.dot,
		}
		for _, a := range item.lookAhead.symbols() {
			si.LookAhead = append(si.LookAhead, int(a))
		}
		return si
	}

	startSym, _ := symTab.toSymbol(symbolNameStart)
	states := make([]*spec.State, len(automaton.states))
	for _, s := range automaton.states {
		state := &spec.State{
			Number: s.num,
		}
		for i, item := range s.items {
			si := genItem(item)
			if i < s.baseCount {
				state.Kernel = append(state.Kernel, si)
			}
			state.Items = append(state.Items, si)

			if !item.reducible {
				continue
			}
			if item.prod.lhs == startSym {
				state.Accept = true
				continue
			}
			state.Reduce = append(state.Reduce, &spec.ReduceEntry{
				LookAhead:  si.LookAhead,
				Production: item.prod.num,
			})
		}

		for _, sym := range symTab.symbols() {
			next, ok := s.next[sym]
			if !ok {
				continue
			}
			tr := &spec.Transition{
				Symbol: int(sym),
				State:  next.num,
			}
			if symTab.isTerminal(sym) {
				state.Shift = append(state.Shift, tr)
			} else {
				state.GoTo = append(state.GoTo, tr)
			}
		}

		states[s.num] = state
	}

	return &spec.Report{
		Kind:        automaton.kind,
		Symbols:     symbols,
		Productions: ps,
		States:      states,
	}
}
