package driver

import (
	"fmt"
	"io"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/nihei9/lrgen/spec"
)

// TreeBuilder receives the shifts and reductions of a parse. Every call that pushes a state onto
// the parse stack pushes exactly one entry here, so Unwind can follow the parse stack.
type TreeBuilder interface {
	AddToken(tok *Token, name string)

	// AddError pushes the error pseudo-token shifted by a recovery. Its range covers the
	// discarded input.
	AddError(tok *Token, name string)

	// Reduce replaces the top n entries by one entry for sym.
	Reduce(sym int, name string, n int, mode spec.NodeMode)

	// Unwind discards the top entry and merges the ranges of its nodes into rng.
	Unwind(rng *spec.Range)

	// Finish folds all remaining entries into the root.
	Finish(sym int, name string, mode spec.NodeMode)
}

type NodeID int

const NilNode = NodeID(-1)

type Node struct {
	Symbol int
	Name   string

	// Value is the text of a leaf.
	Value string
	Range spec.Range
	Error bool

	Children []NodeID
	Parent   NodeID
}

func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0 && n.Value != ""
}

// Tree is an arena of nodes. Children own their slot in the arena; a node refers to its parent
// by id only.
type Tree struct {
	nodes []*Node
	root  NodeID

	// pending holds the node ids of the entries on the stack, counts how many nodes each entry
	// stands for. An entry of an omitted reduction may stand for any number of nodes.
	pending *arraystack.Stack
	counts  *arraystack.Stack

	// In optimize mode a default reduction needs more than one node to create a node.
	optimize bool
}

var _ TreeBuilder = &Tree{}

func NewTree(optimize bool) *Tree {
	return &Tree{
		root:     NilNode,
		pending:  arraystack.New(),
		counts:   arraystack.New(),
		optimize: optimize,
	}
}

func (t *Tree) newNode(n *Node) NodeID {
	id := NodeID(len(t.nodes))
	n.Parent = NilNode
	t.nodes = append(t.nodes, n)
	return id
}

func (t *Tree) push(id NodeID) {
	t.pending.Push(id)
	t.counts.Push(1)
}

func (t *Tree) AddToken(tok *Token, name string) {
	t.push(t.newNode(&Node{
		Symbol: tok.Symbol,
		Name:   name,
		Value:  tok.Value,
		Range:  tok.Range,
	}))
}

func (t *Tree) AddError(tok *Token, name string) {
	t.push(t.newNode(&Node{
		Symbol: tok.Symbol,
		Name:   name,
		Range:  tok.Range,
		Error:  true,
	}))
}

func (t *Tree) popCounts(n int) int {
	total := 0
	for i := 0; i < n; i++ {
		v, ok := t.counts.Pop()
		if !ok {
			break
		}
		total += v.(int)
	}
	return total
}

// popNodes returns the top n pending nodes in source order.
func (t *Tree) popNodes(n int) []NodeID {
	ids := make([]NodeID, n)
	for i := n - 1; i >= 0; i-- {
		v, ok := t.pending.Pop()
		if !ok {
			return ids[i+1:]
		}
		ids[i] = v.(NodeID)
	}
	return ids
}

func (t *Tree) link(sym int, name string, children []NodeID) NodeID {
	parent := t.newNode(&Node{
		Symbol:   sym,
		Name:     name,
		Children: children,
	})
	p := t.nodes[parent]
	for _, c := range children {
		child := t.nodes[c]
		child.Parent = parent
		p.Range.Extend(child.Range)
	}
	return parent
}

func (t *Tree) threshold() int {
	if t.optimize {
		return 1
	}
	return 0
}

func (t *Tree) Reduce(sym int, name string, n int, mode spec.NodeMode) {
	count := t.popCounts(n)
	if mode == spec.NodeModeForced || (mode == spec.NodeModeDefault && count > t.threshold()) {
		t.push(t.link(sym, name, t.popNodes(count)))
		return
	}
	t.counts.Push(count)
}

func (t *Tree) Unwind(rng *spec.Range) {
	count := t.popCounts(1)
	for _, id := range t.popNodes(count) {
		rng.Extend(t.nodes[id].Range)
	}
}

// Finish makes the root. A single remaining node becomes the root unless the mode asks for a
// node of sym; several remaining nodes always get one. An empty input gets an empty root
// unless sym is omitted.
func (t *Tree) Finish(sym int, name string, mode spec.NodeMode) {
	count := t.popCounts(t.counts.Size())
	switch {
	case count == 0 && mode == spec.NodeModeOmit:
		t.root = NilNode
	case count != 1 || mode == spec.NodeModeForced || (mode == spec.NodeModeDefault && count > t.threshold()):
		t.root = t.link(sym, name, t.popNodes(count))
	default:
		t.root = t.popNodes(1)[0]
	}
	t.pending.Clear()
}

func (t *Tree) Root() NodeID {
	return t.root
}

func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Pending returns the nodes still waiting for a reduction in source order. After a fatal
// error they are what is left of the parse.
func (t *Tree) Pending() []NodeID {
	vs := t.pending.Values()
	ids := make([]NodeID, len(vs))
	for i, v := range vs {
		ids[len(vs)-1-i] = v.(NodeID)
	}
	return ids
}

func PrintTree(w io.Writer, t *Tree) {
	if t.root != NilNode {
		printTree(w, t, t.root, "", "")
		return
	}
	for _, id := range t.Pending() {
		printTree(w, t, id, "", "")
	}
}

func printTree(w io.Writer, t *Tree, id NodeID, ruledLine string, childRuledLinePrefix string) {
	node := t.Node(id)
	if node == nil {
		return
	}

	switch {
	case node.Error:
		fmt.Fprintf(w, "%v!%v\n", ruledLine, node.Name)
	case node.Value != "":
		fmt.Fprintf(w, "%v%v %#v\n", ruledLine, node.Name, node.Value)
	default:
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.Name)
	}

	num := len(node.Children)
	for i, child := range node.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, t, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}
