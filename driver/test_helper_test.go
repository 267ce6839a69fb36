package driver

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nihei9/lrgen/grammar"
	"github.com/nihei9/lrgen/spec"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func traceTest(t *testing.T) func() {
	t.Helper()
	return gotestingadapter.QuickConfig(t, "lrgen.driver")
}

func compileForTest(t *testing.T, src string, opts ...grammar.CompileOption) Grammar {
	t.Helper()

	c, err := grammar.Compile(src, opts...)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGrammar(c.Table)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// newTestTokenStream builds tokens from `symbol` or `symbol:value` elements. A token without a
// value gets the symbol text as its value. Tokens are laid out on line 1 separated by a space.
func newTestTokenStream(t *testing.T, g Grammar, elems ...string) TokenStream {
	t.Helper()

	var toks []*Token
	col := 1
	for _, e := range elems {
		name, value, ok := strings.Cut(e, ":")
		if !ok || value == "" {
			value = name
		}
		sym, found := lookupSymbolText(g, name)
		if !found {
			t.Fatalf("unknown symbol: %v", name)
		}
		toks = append(toks, &Token{
			Symbol: sym,
			Value:  value,
			Range: spec.Range{
				Start: spec.Position{Line: 1, Column: col},
				End:   spec.Position{Line: 1, Column: col + len(value)},
			},
		})
		col += len(value) + 1
	}
	return NewSliceTokenStream(g, toks)
}

func parseForTest(t *testing.T, g Grammar, ts TokenStream, opts ...ParserOption) (*Parser, *Tree) {
	t.Helper()

	tree := NewTree(g.Optimize())
	p, err := NewParser(g, ts, append(opts, WithTree(tree))...)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(context.Background()); err != nil {
		t.Fatal(err)
	}
	return p, tree
}

func treeText(tree *Tree) string {
	var b bytes.Buffer
	PrintTree(&b, tree)
	return b.String()
}

func testTree(t *testing.T, tree *Tree, expected string) {
	t.Helper()

	expected = strings.TrimLeft(expected, "\n")
	if actual := treeText(tree); actual != expected {
		t.Fatalf("unexpected tree;\nwant:\n%v\ngot:\n%v", expected, actual)
	}
}

func findErrorNode(tree *Tree) *Node {
	for id := NodeID(0); tree.Node(id) != nil; id++ {
		if n := tree.Node(id); n.Error {
			return n
		}
	}
	return nil
}
