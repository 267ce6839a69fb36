package grammar

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/nihei9/lrgen/spec"
)

type lrItem struct {
	prod *production

	// E → E + T
	//
	// Dot | Dotted Symbol | Item
	// ----+---------------+------------
	// 0   | E             | E →・E + T
	// 1   | +             | E → E・+ T
	// 2   | T             | E → E +・T
	// 3   | Nil           | E → E + T・
	dot          int
	dottedSymbol symbol

	// When reducible is true, the item looks like E → E + T・.
	reducible bool

	// index numbers the base items of an LR0 automaton globally. It is -1 for other items.
	index int

	// lookAhead is empty for the items of an LR0 automaton.
	lookAhead *symbolSet
}

func newLR0Item(prod *production, dot int) (*lrItem, error) {
	if prod == nil {
		return nil, fmt.Errorf("production must be non-nil")
	}

	if dot < 0 || dot > prod.rhsLen {
		return nil, fmt.Errorf("dot must be between 0 and %v", prod.rhsLen)
	}

	dottedSymbol := symbolNil
	if dot < prod.rhsLen {
		dottedSymbol = prod.rhs[dot]
	}

	return &lrItem{
		prod:         prod,
		dot:          dot,
		dottedSymbol: dottedSymbol,
		reducible:    dot == prod.rhsLen,
		index:        -1,
		lookAhead:    newSymbolSet(),
	}, nil
}

func newLR1Item(prod *production, dot int, lookAhead ...symbol) (*lrItem, error) {
	item, err := newLR0Item(prod, dot)
	if err != nil {
		return nil, err
	}
	for _, a := range lookAhead {
		item.lookAhead.add(a)
	}
	return item, nil
}

func (item *lrItem) is(prod *production, dot int) bool {
	return item.prod == prod && item.dot == dot
}

// equals compares two items. LR1 equality also compares the look-ahead sets.
func (item *lrItem) equals(other *lrItem, kind spec.Kind) bool {
	if !item.is(other.prod, other.dot) {
		return false
	}
	if kind != spec.KindLR1 {
		return true
	}
	return item.lookAhead.equals(other.lookAhead)
}

// isParentOf reports whether item is other advanced by one symbol.
func (item *lrItem) isParentOf(other *lrItem) bool {
	return item.prod == other.prod && item.dot == other.dot+1
}

// isChildOf reports whether item is other moved back by one symbol.
func (item *lrItem) isChildOf(other *lrItem) bool {
	return item.prod == other.prod && item.dot == other.dot-1
}

func (item *lrItem) text(symTab *symbolTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v ->", symTab.toText(item.prod.lhs))
	for i, sym := range item.prod.rhs {
		if i == item.dot {
			fmt.Fprintf(&b, " .")
		}
		fmt.Fprintf(&b, " %v", symTab.quoted(sym))
	}
	if item.reducible {
		fmt.Fprintf(&b, " .")
	}
	if item.lookAhead.len() > 0 {
		var las []string
		for _, a := range item.lookAhead.symbols() {
			las = append(las, symTab.quoted(a))
		}
		fmt.Fprintf(&b, " , %v", strings.Join(las, " "))
	}
	return b.String()
}

type kernelID [32]byte

func (id kernelID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

func genKernelID(items []*lrItem, kind spec.Kind) kernelID {
	sorted := make([]*lrItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].prod.num != sorted[j].prod.num {
			return sorted[i].prod.num < sorted[j].prod.num
		}
		return sorted[i].dot < sorted[j].dot
	})

	b := []byte{}
	for _, item := range sorted {
		b = binary.LittleEndian.AppendUint32(b, uint32(item.prod.num))
		b = binary.LittleEndian.AppendUint32(b, uint32(item.dot))
		if kind == spec.KindLR1 {
			for _, a := range item.lookAhead.symbols() {
				b = binary.LittleEndian.AppendUint32(b, uint32(a))
			}
			b = append(b, 0xff, 0xff, 0xff, 0xff)
		}
	}
	return sha256.Sum256(b)
}

// lrState holds its base items first. Items added by a closure follow them.
type lrState struct {
	num       int
	items     []*lrItem
	baseCount int
	next      map[symbol]*lrState
}

func newLRState() *lrState {
	return &lrState{
		next: map[symbol]*lrState{},
	}
}

func (s *lrState) push(item *lrItem) {
	if len(s.items) == 0 || item.dot > 0 {
		s.baseCount++
	}
	s.items = append(s.items, item)
}

func (s *lrState) isEmpty() bool {
	return len(s.items) == 0
}

func (s *lrState) baseItems() []*lrItem {
	return s.items[:s.baseCount]
}

func (s *lrState) findItem(prod *production, dot int) *lrItem {
	for _, item := range s.items {
		if item.is(prod, dot) {
			return item
		}
	}
	return nil
}

// findChildItem returns the item that other is reached from by one transition.
func (s *lrState) findChildItem(other *lrItem) *lrItem {
	for _, item := range s.items {
		if item.isChildOf(other) {
			return item
		}
	}
	return nil
}

// hasRule looks only at the base items.
func (s *lrState) hasRule(prod *production, dot int) bool {
	for _, item := range s.baseItems() {
		if item.is(prod, dot) {
			return true
		}
	}
	return false
}

// tryPushLR0 adds [prod, dot] unless the state already has it.
func (s *lrState) tryPushLR0(prod *production, dot int) (*lrItem, error) {
	if s.findItem(prod, dot) != nil {
		return nil, nil
	}
	item, err := newLR0Item(prod, dot)
	if err != nil {
		return nil, err
	}
	s.push(item)
	return item, nil
}

// tryPushLR adds a look-ahead symbol to [prod, dot], creating the item when the state
// doesn't have it. added reports whether the state changed, created returns a new item.
func (s *lrState) tryPushLR(prod *production, dot int, a symbol) (added bool, created *lrItem, err error) {
	if item := s.findItem(prod, dot); item != nil {
		return item.lookAhead.add(a), nil, nil
	}
	item, err := newLR1Item(prod, dot, a)
	if err != nil {
		return false, nil, err
	}
	s.push(item)
	return true, item, nil
}

func (s *lrState) deleteNonBaseItems() {
	s.items = s.items[:s.baseCount]
}

func (s *lrState) text(symTab *symbolTable, baseOnly bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State %v:\n", s.num)
	items := s.items
	if baseOnly {
		items = s.baseItems()
	}
	for _, item := range items {
		fmt.Fprintf(&b, "\t\t%v\n", item.text(symTab))
	}
	return b.String()
}
