package test

import (
	"fmt"
	"strings"
)

const (
	// KindError is the kind of the node a recovery inserts for the discarded input.
	KindError = "error"

	// KindAny in an expected tree matches a node of any kind.
	KindAny = "_"
)

// Tree is a parse tree in the notation of test cases. A leaf carries its lexeme.
type Tree struct {
	Kind     string
	Lexeme   string
	Children []*Tree
}

func NewNonTerminalTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

func NewTerminalNode(kind string, lexeme string) *Tree {
	return &Tree{
		Kind:   kind,
		Lexeme: lexeme,
	}
}

// Format renders the tree in the notation ParseTestCase reads, one node per line.
func (t *Tree) Format() string {
	var b strings.Builder
	t.format(&b, 0)
	return b.String()
}

func (t *Tree) format(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%v(%v", strings.Repeat("    ", depth), t.Kind)
	if t.Lexeme != "" {
		q := "'"
		if strings.Contains(t.Lexeme, "'") {
			q = `"`
		}
		fmt.Fprintf(b, " %v%v%v", q, t.Lexeme, q)
	}
	for _, c := range t.Children {
		b.WriteString("\n")
		c.format(b, depth+1)
	}
	b.WriteString(")")
}

// TreeDiff locates a mismatch. A path names every node from the root by its offset among its
// siblings and its kind, as in `S.[0]seq.[1]bar`.
type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

// DiffTree compares an expected tree with an actual one. A mismatching node is reported once;
// its subtrees are not compared.
func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil || actual == nil {
		if expected == actual {
			return nil
		}
		return []*TreeDiff{
			{
				Message: "a tree is missing",
			},
		}
	}
	return diffTree(expected, actual, expected.Kind, actual.Kind)
}

func diffTree(expected, actual *Tree, expectedPath, actualPath string) []*TreeDiff {
	diff := func(format string, a ...interface{}) []*TreeDiff {
		return []*TreeDiff{
			{
				ExpectedPath: expectedPath,
				ActualPath:   actualPath,
				Message:      fmt.Sprintf(format, a...),
			},
		}
	}

	switch {
	case expected.Kind != KindAny && expected.Kind != actual.Kind:
		return diff("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
	case expected.Lexeme != actual.Lexeme:
		return diff("unexpected lexeme: expected '%v' but got '%v'", expected.Lexeme, actual.Lexeme)
	case len(expected.Children) != len(actual.Children):
		return diff("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
	}

	var diffs []*TreeDiff
	for i, e := range expected.Children {
		a := actual.Children[i]
		diffs = append(diffs, diffTree(e, a,
			fmt.Sprintf("%v.[%v]%v", expectedPath, i, e.Kind),
			fmt.Sprintf("%v.[%v]%v", actualPath, i, a.Kind))...)
	}
	return diffs
}
