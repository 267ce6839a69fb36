package grammar

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nihei9/lrgen/spec"
)

func TestGenLALR1Automaton(t *testing.T) {
	defer traceTest(t)()

	c := compileForTest(t, exprSrc)
	if c.automaton.kind != spec.KindLALR {
		t.Fatalf("unexpected kind: %v", c.automaton.kind)
	}

	expectedKernels := [][]string{
		{"S -> . expr , $"},
		{"factor -> '(' . expr ')' , $ '+' '*' ')'"},
		{"factor -> id . , $ '+' '*' ')'"},
		{"S -> expr . , $", "expr -> expr . '+' term , $ '+'"},
		{"expr -> term . , $ '+' ')'", "term -> term . '*' factor , $ '+' '*' ')'"},
		{"term -> factor . , $ '+' '*' ')'"},
		{"factor -> '(' expr . ')' , $ '+' '*' ')'", "expr -> expr . '+' term , '+' ')'"},
		{"expr -> expr '+' . term , $ '+' ')'"},
		{"term -> term '*' . factor , $ '+' '*' ')'"},
		{"factor -> '(' expr ')' . , $ '+' '*' ')'"},
		{"expr -> expr '+' term . , $ '+' ')'", "term -> term . '*' factor , $ '+' '*' ')'"},
		{"term -> term '*' factor . , $ '+' '*' ')'"},
	}
	if len(c.automaton.states) != len(expectedKernels) {
		t.Fatalf("state count is mismatched; want: %v, got: %v", len(expectedKernels), len(c.automaton.states))
	}
	for i, kernel := range expectedKernels {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			testItemTexts(t, kernel, baseItemTexts(c, i))
		})
	}
}

func TestGenLALR1Automaton_SameKernelsAsLR0(t *testing.T) {
	lalr := compileForTest(t, exprSrc)
	lr0, err := (&GrammarBuilder{}).Build(exprSrc)
	if err != nil {
		t.Fatal(err)
	}
	automaton, err := genLR0Automaton(lr0.productionSet, lr0.symbolTable)
	if err != nil {
		t.Fatal(err)
	}
	if len(automaton.states) != len(lalr.automaton.states) {
		t.Fatalf("an LALR automaton must have as many states as the LR0 automaton; want: %v, got: %v",
			len(automaton.states), len(lalr.automaton.states))
	}
	for i, state := range automaton.states {
		if genKernelID(state.baseItems(), spec.KindLR0) != genKernelID(lalr.automaton.states[i].baseItems(), spec.KindLR0) {
			t.Errorf("kernels of state %v are mismatched", i)
		}
	}
}

// lalrConflictSrc is LR(1) but not LALR(1). Merging the states reached by `a c` and `b c` causes
// a reduce/reduce conflict.
const lalrConflictSrc = `
S : X
X : a A d
X : b B d
X : a B e
X : b A e
A : c
B : c
`

func TestGenLALR1Automaton_ReduceReduceConflict(t *testing.T) {
	_, err := Compile(lalrConflictSrc)
	if err == nil {
		t.Fatalf("the grammar is not LALR(1)")
	}
	if !strings.Contains(err.Error(), "Grammar not LALR!") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "REDUCE by rule { A : c }") || !strings.Contains(err.Error(), "REDUCE by rule { B : c }") {
		t.Fatalf("both reductions must be reported: %v", err)
	}

	c := compileForTest(t, lalrConflictSrc, Kind(spec.KindLR1))
	lr0, err := (&GrammarBuilder{}).Build(lalrConflictSrc)
	if err != nil {
		t.Fatal(err)
	}
	automaton, err := genLR0Automaton(lr0.productionSet, lr0.symbolTable)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.automaton.states) <= len(automaton.states) {
		t.Fatalf("an LR1 automaton must split the merged state; LR1: %v, LR0: %v", len(c.automaton.states), len(automaton.states))
	}
}
