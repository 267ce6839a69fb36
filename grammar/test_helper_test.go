package grammar

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// exprSrc is the expression grammar of the dragon book with the augmented start rule spelled
// as S.
const exprSrc = `
S : expr
expr : expr add term
expr : term
term : term mul factor
term : factor
factor : l_paren expr r_paren
factor : id
--LEXER--
add : "+"
mul : "*"
l_paren : "("
r_paren : ")"
id : /[A-Za-z_][0-9A-Za-z_]*/
`

func traceTest(t *testing.T) func() {
	t.Helper()
	return gotestingadapter.QuickConfig(t, "lrgen.grammar")
}

func compileForTest(t *testing.T, src string, opts ...CompileOption) *Compiled {
	t.Helper()
	c, err := Compile(src, append(opts, Debug())...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

type testSymbolGenerator func(text string) symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbolTable) testSymbolGenerator {
	return func(text string) symbol {
		t.Helper()

		sym, ok := symTab.toSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

type testProductionGenerator func(lhs string, rhs ...string) *production

// newTestProductionGenerator finds productions of a compiled grammar by their symbols.
func newTestProductionGenerator(t *testing.T, c *Compiled) testProductionGenerator {
	genSym := newTestSymbolGenerator(t, c.symTab)
	return func(lhs string, rhs ...string) *production {
		t.Helper()

		prods, ok := c.prods.findByLHS(genSym(lhs))
		if !ok {
			t.Fatalf("productions were not found: %v", lhs)
		}
	L:
		for _, p := range prods {
			if len(p.rhs) != len(rhs) {
				continue
			}
			for i, r := range rhs {
				if p.rhs[i] != genSym(r) {
					continue L
				}
			}
			return p
		}
		t.Fatalf("production was not found: %v : %v", lhs, rhs)
		return nil
	}
}

func baseItemTexts(c *Compiled, num int) []string {
	var texts []string
	for _, item := range c.automaton.states[num].baseItems() {
		texts = append(texts, item.text(c.symTab))
	}
	return texts
}

func testItemTexts(t *testing.T, expected, actual []string) {
	t.Helper()

	if len(actual) != len(expected) {
		t.Fatalf("unexpected item count; want: %v, got: %v\nwant: %#v\ngot: %#v", len(expected), len(actual), expected, actual)
	}
	for i, e := range expected {
		if actual[i] != e {
			t.Errorf("unexpected item; want: %v, got: %v", e, actual[i])
		}
	}
}
