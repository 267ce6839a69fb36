package spec

import (
	"fmt"
	"math"

	"github.com/cnf/structhash"
)

// Kind names the automaton flavour a table was generated with.
type Kind string

const (
	KindLR0  = Kind("LR0")
	KindLR1  = Kind("LR1")
	KindLALR = Kind("LALR")
)

func (k Kind) String() string {
	return string(k)
}

// NodeMode controls whether a reduction of a nonterminal materializes a tree node.
type NodeMode int

const (
	// NodeModeDefault creates a node when the reduction has enough children.
	NodeModeDefault = NodeMode(0)
	// NodeModeOmit passes the children of a reduction up to the enclosing node.
	NodeModeOmit = NodeMode(1)
	// NodeModeForced always creates a node.
	NodeModeForced = NodeMode(2)
)

func (m NodeMode) String() string {
	switch m {
	case NodeModeOmit:
		return "omit"
	case NodeModeForced:
		return "forced"
	}
	return "default"
}

type CompiledTable struct {
	Name         string                `json:"name"`
	Kind         Kind                  `json:"kind"`
	Symbols      *SymbolTable          `json:"symbols"`
	Lexical      *LexicalSpecification `json:"lexical"`
	ParsingTable *ParsingTable         `json:"parsing_table"`
	Hooks        []*Hook               `json:"hooks"`

	// NodeModes is indexed by symbol. Entries of terminals are always NodeModeDefault.
	NodeModes []NodeMode `json:"node_modes"`

	// When Optimize is true, a NodeModeDefault reduction with a single child is collapsed.
	Optimize bool `json:"optimize"`
}

// Fingerprint returns a stable hash of the table. Two compilations of the same grammar
// with the same options have the same fingerprint.
func (t *CompiledTable) Fingerprint() (string, error) {
	return structhash.Hash(t, 1)
}

type SymbolTable struct {
	Names []string `json:"names"`

	// Terminal[sym] is true when no rule has sym as its left-hand side. The look-ahead
	// placeholder `##` is not a terminal.
	Terminal []bool `json:"terminal"`

	// Literals holds the surface form of keyword and punctuator terminals, or an empty string.
	Literals []string `json:"literals"`

	EOF   int `json:"eof"`
	Error int `json:"error"`
}

// Display returns the literal surface form of a symbol when it has one, otherwise its name.
func (t *SymbolTable) Display(sym int) string {
	if sym < 0 || sym >= len(t.Names) {
		return fmt.Sprintf("<symbol %v>", sym)
	}
	if lit := t.Literals[sym]; lit != "" {
		return lit
	}
	return t.Names[sym]
}

// Lookup returns a symbol by its name.
func (t *SymbolTable) Lookup(name string) (int, bool) {
	for sym, n := range t.Names {
		if n == name {
			return sym, true
		}
	}
	return 0, false
}

type LexicalSpecification struct {
	Entries []*LexEntry `json:"entries"`
}

type LexEntry struct {
	Symbol int    `json:"symbol"`
	Name   string `json:"name"`

	// Pattern is the literal text when Literal is true, otherwise a regular expression.
	Pattern string `json:"pattern"`
	Literal bool   `json:"literal"`

	// Keyword is true for literals beginning with '_' or a letter.
	Keyword bool `json:"keyword"`

	// Skip marks patterns whose matches are discarded by token sources.
	Skip bool `json:"skip"`
}

type Hook struct {
	State  int    `json:"state"`
	Symbol int    `json:"symbol"`
	Name   string `json:"name"`
}

type ParsingTable struct {
	StateCount   int `json:"state_count"`
	SymbolCount  int `json:"symbol_count"`
	InitialState int `json:"initial_state"`

	// Action is a StateCount x SymbolCount table of encoded operations (see Operation.Encode).
	// It is nil when the table is stored in Compressed.
	Action     []int             `json:"action,omitempty"`
	Compressed *CompressedAction `json:"compressed,omitempty"`

	// RuleLHS and RuleLen are indexed by rule number.
	RuleLHS []int `json:"rule_lhs"`
	RuleLen []int `json:"rule_len"`
}

// CompressedAction is a row displacement table built over the unique rows of the action table.
type CompressedAction struct {
	RowNums         []int `json:"row_nums"`
	UniqueRowCount  int   `json:"unique_row_count"`
	Entries         []int `json:"entries"`
	Bounds          []int `json:"bounds"`
	RowDisplacement []int `json:"row_displacement"`
}

type OperationKind int

const (
	OperationNone = OperationKind(iota)
	OperationShift
	OperationReduce
	OperationAccept
)

// Operation is an entry of the action table.
type Operation struct {
	Kind  OperationKind
	State int
	Rule  int
}

func Shift(state int) Operation {
	return Operation{Kind: OperationShift, State: state}
}

func Reduce(rule int) Operation {
	return Operation{Kind: OperationReduce, Rule: rule}
}

func Accept() Operation {
	return Operation{Kind: OperationAccept}
}

func (op Operation) IsNone() bool {
	return op.Kind == OperationNone
}

const (
	actionEmpty  = 0
	actionAccept = math.MinInt32
)

// Encode packs an operation into an int. 0 is an empty entry, a positive value v is a shift to
// the state v-1, a negative value v is a reduction by the rule -v-1.
func (op Operation) Encode() int {
	switch op.Kind {
	case OperationShift:
		return op.State + 1
	case OperationReduce:
		return -(op.Rule + 1)
	case OperationAccept:
		return actionAccept
	}
	return actionEmpty
}

func DecodeOperation(v int) Operation {
	switch {
	case v == actionEmpty:
		return Operation{}
	case v == actionAccept:
		return Accept()
	case v > 0:
		return Shift(v - 1)
	}
	return Reduce(-v - 1)
}

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) less(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsZero reports whether the range was never set.
func (r Range) IsZero() bool {
	return r.Start == Position{} && r.End == Position{}
}

// Extend widens r so that it also covers s. Zero ranges are ignored.
func (r *Range) Extend(s Range) {
	if s.IsZero() {
		return
	}
	if r.IsZero() {
		*r = s
		return
	}
	if s.Start.less(r.Start) {
		r.Start = s.Start
	}
	if r.End.less(s.End) {
		r.End = s.End
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%v:%v-%v:%v", r.Start.Line, r.Start.Column, r.End.Line, r.End.Column)
}
