package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nihei9/lrgen/driver/lexer"
	"github.com/nihei9/lrgen/grammar"
	"github.com/nihei9/lrgen/spec"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func newTestSession(t *testing.T, src string) (*session, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	s := &session{
		cache:   grammar.NewCache(),
		path:    writeFile(t, t.TempDir(), "expr.lrg", src),
		kind:    spec.KindLALR,
		backend: lexer.BackendMaleeni,
		out:     &out,
	}
	if err := s.load(); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	return s, &out
}

func TestSession_Parse(t *testing.T) {
	defer gotestingadapter.QuickConfig(t, "lrgen.driver")()

	s, out := newTestSession(t, exprGrammar)
	quit, err := s.eval("a+(b)")
	if err != nil {
		t.Fatal(err)
	}
	if quit {
		t.Fatalf("parsing a line must not quit")
	}
	for _, text := range []string{`id "a"`, `id "b"`, "E", "T"} {
		if !strings.Contains(out.String(), text) {
			t.Fatalf("the tree must contain %v:\n%v", text, out)
		}
	}

	out.Reset()
	if _, err := s.eval("a+"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Syntax error") {
		t.Fatalf("a syntax error must be printed:\n%v", out)
	}
}

func TestSession_Commands(t *testing.T) {
	defer gotestingadapter.QuickConfig(t, "lrgen.grammar")()

	s, out := newTestSession(t, exprGrammar)

	if _, err := s.eval(":states"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "State 0:") {
		t.Fatalf("states must be printed:\n%v", out)
	}

	out.Reset()
	if _, err := s.eval(":first T"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "FIRST(T)") || !strings.Contains(out.String(), "id") {
		t.Fatalf("FIRST must be printed:\n%v", out)
	}

	if _, err := s.eval(":kind lr1"); err != nil {
		t.Fatal(err)
	}
	if s.cg.Table.Kind != spec.KindLR1 {
		t.Fatalf("unexpected kind: %v", s.cg.Table.Kind)
	}
	if _, err := s.eval(":lexer lexmachine"); err != nil {
		t.Fatal(err)
	}
	if s.backend != lexer.BackendLexmachine {
		t.Fatalf("unexpected back end: %v", s.backend)
	}
	out.Reset()
	if _, err := s.eval("a+b"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `id "b"`) {
		t.Fatalf("the tree must contain the second operand:\n%v", out)
	}

	if _, err := s.eval(":reload"); err != nil {
		t.Fatal(err)
	}
	if s.cache.Len() != 2 {
		t.Fatalf("reloading an unchanged grammar must hit the cache: %v entries", s.cache.Len())
	}

	quit, err := s.eval(":quit")
	if err != nil {
		t.Fatal(err)
	}
	if !quit {
		t.Fatalf(":quit must quit")
	}
}

func TestSession_CommandErrors(t *testing.T) {
	s, _ := newTestSession(t, exprGrammar)

	for _, line := range []string{
		":kind slr",
		":kind",
		":lexer flex",
		":state x",
		":state 1000",
		":first nothing",
		":foo",
	} {
		if _, err := s.eval(line); err == nil {
			t.Errorf("%v must fail", line)
		}
	}
	if s.cg.Table.Kind != spec.KindLALR {
		t.Fatalf("a failed command must keep the grammar: %v", s.cg.Table.Kind)
	}
}
