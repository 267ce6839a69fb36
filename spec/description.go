package spec

// Report describes the automaton behind a compiled table. It is only produced when the
// grammar is compiled in debug mode.
type Report struct {
	Kind        Kind          `json:"kind"`
	Symbols     *SymbolTable  `json:"symbols"`
	Productions []*Production `json:"productions"`
	States      []*State      `json:"states"`
}

type Production struct {
	Number int   `json:"number"`
	LHS    int   `json:"lhs"`
	RHS    []int `json:"rhs"`
}

type Item struct {
	Production int   `json:"production"`
	Dot        int   `json:"dot"`
	LookAhead  []int `json:"look_ahead,omitempty"`
}

type Transition struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type ReduceEntry struct {
	LookAhead  []int `json:"look_ahead"`
	Production int   `json:"production"`
}

type State struct {
	Number int            `json:"number"`
	Kernel []*Item        `json:"kernel"`
	Items  []*Item        `json:"items"`
	Shift  []*Transition  `json:"shift"`
	GoTo   []*Transition  `json:"goto"`
	Reduce []*ReduceEntry `json:"reduce"`
	Accept bool           `json:"accept"`
}
