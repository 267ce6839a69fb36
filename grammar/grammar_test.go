package grammar

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	verr "github.com/nihei9/lrgen/error"
	"github.com/nihei9/lrgen/spec"
	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/schukonf/testconfig"
)

func TestGrammarBuilder_Errors(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		code    verr.Code
		line    int
	}{
		{
			caption: "a grammar without rules",
			src:     "# nothing here\n",
			code:    verr.CodeGrammarUnexpectedSymbol,
		},
		{
			caption: "the first rule must define the start symbol",
			src: `
E : x
S : E
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 2,
		},
		{
			caption: "the start symbol cannot appear on a right-hand side",
			src: `
S : S a
S : a
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 2,
		},
		{
			caption: "a rule must have a colon",
			src: `
S : E
E x
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 3,
		},
		{
			caption: "an inline literal must be a single character",
			src: `
S : E
E : E '++' E
`,
			code: verr.CodeGrammarInvalidKeyword,
			line: 3,
		},
		{
			caption: "an inline literal must be closed by the same quote",
			src: `
S : E
E : '+"
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 3,
		},
		{
			caption: "a hook flag needs a name",
			src: `
S : E
E : x --F
`,
			code: verr.CodeGrammarInvalidAdditionalFuncName,
			line: 3,
		},
		{
			caption: "a hook name must not be a flag",
			src: `
S : E
E : x --F --add
`,
			code: verr.CodeGrammarInvalidAdditionalFuncName,
			line: 3,
		},
		{
			caption: "a hook flag must follow a symbol",
			src: `
S : E
E : --F f x
`,
			code: verr.CodeGrammarInvalidAdditionalFuncName,
			line: 3,
		},
		{
			caption: "an unknown flag",
			src: `
S : E
E : x --bogus
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 3,
		},
		{
			caption: "the end of input may only close a start rule",
			src: `
S : E
E : x $ y
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 3,
		},
		{
			caption: "the end of input may only be the last symbol",
			src: `
S : E $ E
E : x
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 2,
		},
		{
			caption: "a reserved symbol can't be defined",
			src: `
S : E
ERROR : x
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 3,
		},
		{
			caption: "a lexical literal must be closed by the same quote",
			src: `
S : plus
--LEXER--
plus : "+'
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 4,
		},
		{
			caption: "a lexical literal must not be empty",
			src: `
S : plus
--LEXER--
plus : ""
`,
			code: verr.CodeGrammarInvalidKeyword,
			line: 4,
		},
		{
			caption: "a lexical pattern may only be followed by --skip",
			src: `
S : id
--LEXER--
id : /[a-z]+/ --add
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 4,
		},
		{
			caption: "a lexical entry must have a colon",
			src: `
S : id
--LEXER--
id /[a-z]+/
`,
			code: verr.CodeGrammarUnexpectedSymbol,
			line: 4,
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("#%v %v", i, tt.caption), func(t *testing.T) {
			b := &GrammarBuilder{
				Name: "test.gr",
			}
			gram, err := b.Build(tt.src)
			if err == nil {
				t.Fatalf("an error must occur")
			}
			if gram != nil {
				t.Fatalf("no grammar may be returned on an error")
			}
			var d *verr.Diagnostic
			if !errors.As(err, &d) {
				t.Fatalf("a diagnostic was expected: %T %v", err, err)
			}
			if d.Code != tt.code {
				t.Fatalf("unexpected code; want: %v, got: %v (%v)", tt.code, d.Code, d)
			}
			if !d.Fatal() {
				t.Fatalf("a grammar error must be critical")
			}
			if d.File != "test.gr" {
				t.Fatalf("unexpected file: %v", d.File)
			}
			if tt.line == 0 {
				return
			}
			if d.Range == nil || d.Range.Start.Line != tt.line {
				t.Fatalf("unexpected range; want line: %v, got: %v", tt.line, d.Range)
			}
			if !strings.HasPrefix(d.Error(), fmt.Sprintf("test.gr: %v:1: critical(%v)", tt.line, int(tt.code))) {
				t.Fatalf("unexpected message: %v", d.Error())
			}
		})
	}
}

func TestGrammarBuilder_Productions(t *testing.T) {
	src := `
# a comment
S : E $
E : E '+' T
E : T
T : id
T : '(' E ')'
T :
`
	gram, err := (&GrammarBuilder{}).Build(src)
	if err != nil {
		t.Fatal(err)
	}
	prods := gram.productionSet.getAllProductions()
	expected := []string{
		"S : E",
		"E : E '+' T",
		"E : T",
		"T : id",
		"T : '(' E ')'",
		"T :",
	}
	if len(prods) != len(expected) {
		t.Fatalf("unexpected production count; want: %v, got: %v", len(expected), len(prods))
	}
	for i, e := range expected {
		if prods[i].num != i {
			t.Errorf("unexpected production number; want: %v, got: %v", i, prods[i].num)
		}
		if got := prods[i].text(gram.symbolTable); got != e {
			t.Errorf("unexpected production; want: %v, got: %v", e, got)
		}
	}
	if !prods[5].isEmpty() {
		t.Errorf("T : must be empty")
	}

	symTab := gram.symbolTable
	genSym := newTestSymbolGenerator(t, symTab)
	for _, name := range []string{"S", "E", "T"} {
		if symTab.isTerminal(genSym(name)) {
			t.Errorf("%v must be a non-terminal", name)
		}
	}
	plus := genSym(fmt.Sprintf("%v%d", punctuatorNamePrefix, '+'))
	for _, sym := range []symbol{genSym("id"), plus, symbolEOF, symbolError} {
		if !symTab.isTerminal(sym) {
			t.Errorf("%v must be a terminal", symTab.toText(sym))
		}
	}
	if symTab.display(plus) != "+" {
		t.Errorf("unexpected surface form: %v", symTab.display(plus))
	}
	if symbolEOF != 0 || symbolError != 1 || symbolPlaceholder != 2 {
		t.Fatalf("reserved symbols must have fixed numbers")
	}
}

func TestGrammarBuilder_LexicalSpecification(t *testing.T) {
	src := `
S : stmt
stmt : if_kw id '=' num ';'
--LEXER--
if_kw : "if"
semicolon : ";"
id : /[A-Za-z_][0-9A-Za-z_]*/
num : /[0-9]+/
ws : /[ \t\n]+/ --skip
`
	gram, err := (&GrammarBuilder{}).Build(src)
	if err != nil {
		t.Fatal(err)
	}

	entries := gram.lexSpec.Entries
	expected := []*spec.LexEntry{
		{Name: "if_kw", Pattern: "if", Literal: true, Keyword: true},
		{Name: "semicolon", Pattern: ";", Literal: true},
		{Name: "id", Pattern: "[A-Za-z_][0-9A-Za-z_]*"},
		{Name: "num", Pattern: "[0-9]+"},
		{Name: "ws", Pattern: `[ \t\n]+`, Skip: true},
		{Name: fmt.Sprintf("%v%d", punctuatorNamePrefix, '='), Pattern: "=", Literal: true},
	}
	if len(entries) != len(expected) {
		t.Fatalf("unexpected entry count; want: %v, got: %v", len(expected), len(entries))
	}
	for i, e := range expected {
		a := entries[i]
		if a.Name != e.Name || a.Pattern != e.Pattern || a.Literal != e.Literal || a.Keyword != e.Keyword || a.Skip != e.Skip {
			t.Errorf("unexpected entry #%v; want: %+v, got: %+v", i, e, a)
		}
		sym, ok := gram.symbolTable.toSymbol(e.Name)
		if !ok || int(sym) != a.Symbol {
			t.Errorf("entry #%v refers to a wrong symbol: %v", i, a.Symbol)
		}
	}

	// An inline literal reuses the terminal of the lexical block.
	prods := gram.productionSet.getAllProductions()
	semi, _ := gram.symbolTable.toSymbol("semicolon")
	if last := prods[1].rhs[len(prods[1].rhs)-1]; last != semi {
		t.Fatalf("';' must be the semicolon terminal; got: %v", gram.symbolTable.toText(last))
	}
}

func TestGrammarBuilder_NodeModes(t *testing.T) {
	src := `
S : E
E : E '+' T --skip
E : T
T : id --add
`
	tests := []struct {
		policy NodePolicy
		modes  map[string]spec.NodeMode
	}{
		{
			policy: FlaggedNodes,
			modes: map[string]spec.NodeMode{
				"S": spec.NodeModeDefault,
				"E": spec.NodeModeOmit,
				"T": spec.NodeModeForced,
			},
		},
		{
			policy: AllNodes,
			modes: map[string]spec.NodeMode{
				"S": spec.NodeModeDefault,
				"E": spec.NodeModeDefault,
				"T": spec.NodeModeDefault,
			},
		},
		{
			policy: AddedNodesOnly,
			modes: map[string]spec.NodeMode{
				"S": spec.NodeModeOmit,
				"E": spec.NodeModeOmit,
				"T": spec.NodeModeForced,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			c, err := Compile(src, NodeMode(tt.policy))
			if err != nil {
				t.Fatal(err)
			}
			syms := c.Table.Symbols
			if len(c.Table.NodeModes) != len(syms.Names) {
				t.Fatalf("node modes must be indexed by symbol")
			}
			for name, mode := range tt.modes {
				sym, ok := syms.Lookup(name)
				if !ok {
					t.Fatalf("symbol was not found: %v", name)
				}
				if c.Table.NodeModes[sym] != mode {
					t.Errorf("unexpected node mode of %v; want: %v, got: %v", name, mode, c.Table.NodeModes[sym])
				}
			}
			id, _ := syms.Lookup("id")
			if c.Table.NodeModes[id] != spec.NodeModeDefault {
				t.Errorf("a terminal must have the default node mode")
			}
		})
	}
}

func TestGenHooks(t *testing.T) {
	src := `
S : decls
decls : decls decl
decls : decl
decl : type_kw id --F declare ';' --F close
--LEXER--
type_kw : "int"
`
	c, err := Compile(src)
	if err != nil {
		t.Fatal(err)
	}
	syms := c.Table.Symbols
	tab := c.Table.ParsingTable
	id, _ := syms.Lookup("id")

	if len(c.Table.Hooks) != 2 {
		t.Fatalf("unexpected hook count: %v", len(c.Table.Hooks))
	}
	byName := map[string]*spec.Hook{}
	for _, h := range c.Table.Hooks {
		byName[h.Name] = h
	}

	declare, ok := byName["declare"]
	if !ok {
		t.Fatalf("hook declare was not found")
	}
	if declare.Symbol != id {
		t.Fatalf("declare must be bound to id; got: %v", syms.Names[declare.Symbol])
	}
	found := false
	for state := 0; state < tab.StateCount; state++ {
		op := spec.DecodeOperation(tab.Action[state*tab.SymbolCount+id])
		if op.Kind == spec.OperationShift && op.State == declare.State {
			found = true
		}
	}
	if !found {
		t.Fatalf("state %v must be reached by id", declare.State)
	}

	closeHook, ok := byName["close"]
	if !ok {
		t.Fatalf("hook close was not found")
	}
	if syms.Display(closeHook.Symbol) != ";" {
		t.Fatalf("close must be bound to ';'; got: %v", syms.Display(closeHook.Symbol))
	}
}

func TestCompile_DebugConfig(t *testing.T) {
	defer gconf.Initialize(testconfig.Conf{})

	conf := testconfig.Conf{}
	conf.Set(ConfigKeyDebug, "true")
	gconf.Initialize(conf)

	c, err := Compile(exprSrc)
	if err != nil {
		t.Fatal(err)
	}
	if !c.IsDebug() {
		t.Fatalf("%v must enable debug mode", ConfigKeyDebug)
	}
	s, err := c.StatesString(true)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(s, "State ") != 12 {
		t.Fatalf("unexpected states:\n%v", s)
	}
	if _, err := c.StateString(12, true); err == nil {
		t.Fatalf("state 12 doesn't exist")
	}
}

func TestCache(t *testing.T) {
	cache := NewCache()

	c1, err := cache.Compile(exprSrc)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := cache.Compile(exprSrc)
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Fatalf("the same grammar and options must hit the cache")
	}
	if cache.Len() != 1 {
		t.Fatalf("unexpected cache size: %v", cache.Len())
	}

	c3, err := cache.Compile(exprSrc, Kind(spec.KindLR1))
	if err != nil {
		t.Fatal(err)
	}
	if c3 == c1 || c3.Table.Kind != spec.KindLR1 {
		t.Fatalf("different options must compile a new table")
	}
	if cache.Len() != 2 {
		t.Fatalf("unexpected cache size: %v", cache.Len())
	}

	if _, err := cache.Compile("E : x"); err == nil {
		t.Fatalf("an error must occur")
	}
	if cache.Len() != 2 {
		t.Fatalf("a failed compilation must not be cached")
	}
}
