package driver

import (
	"fmt"

	"github.com/nihei9/lrgen/spec"
)

// UnknownSymbol is the symbol of tokens no terminal matches. No table has an entry for it.
const UnknownSymbol = -1

type Token struct {
	Symbol int
	Value  string
	Range  spec.Range

	// Index numbers the tokens of a stream from 0. The end of input keeps its index however
	// often it is read.
	Index int

	// Unknown marks text no terminal matches. Such a token never starts a recovery.
	Unknown bool
}

func (t *Token) clone() *Token {
	c := *t
	return &c
}

func (t *Token) String() string {
	return fmt.Sprintf("#%v %v %q (%v)", t.Index, t.Symbol, t.Value, t.Range)
}

// TokenStream is the pull interface the parser reads tokens from. After the end of input the
// stream keeps returning the end-of-input token.
type TokenStream interface {
	Next() (*Token, error)
}

type sliceTokenStream struct {
	toks []*Token
	eof  *Token
	pos  int
}

// NewSliceTokenStream streams the given tokens and then the end of input. It numbers the
// tokens itself.
func NewSliceTokenStream(g Grammar, toks []*Token) TokenStream {
	ts := &sliceTokenStream{
		toks: make([]*Token, len(toks)),
	}
	var last spec.Range
	for i, tok := range toks {
		t := tok.clone()
		t.Index = i
		ts.toks[i] = t
		if !t.Range.IsZero() {
			last = t.Range
		}
	}
	ts.eof = &Token{
		Symbol: g.EOF(),
		Index:  len(toks),
		Range: spec.Range{
			Start: last.End,
			End:   last.End,
		},
	}
	return ts
}

func (s *sliceTokenStream) Next() (*Token, error) {
	if s.pos >= len(s.toks) {
		return s.eof.clone(), nil
	}
	tok := s.toks[s.pos]
	s.pos++
	return tok.clone(), nil
}

// NewSymbolTokenStream builds a stream from symbol names or surface forms, one token per
// element. Every token gets its element as its value and its own column on line 1.
func NewSymbolTokenStream(g Grammar, syms ...string) (TokenStream, error) {
	toks := make([]*Token, 0, len(syms))
	col := 1
	for _, s := range syms {
		sym, ok := lookupSymbolText(g, s)
		if !ok {
			return nil, fmt.Errorf("unknown symbol: %v", s)
		}
		toks = append(toks, &Token{
			Symbol: sym,
			Value:  s,
			Range: spec.Range{
				Start: spec.Position{Line: 1, Column: col},
				End:   spec.Position{Line: 1, Column: col + len(s)},
			},
		})
		col += len(s) + 1
	}
	return NewSliceTokenStream(g, toks), nil
}

func lookupSymbolText(g Grammar, s string) (int, bool) {
	if sym, ok := g.LookupSymbol(s); ok {
		return sym, true
	}
	for sym := 0; sym < g.SymbolCount(); sym++ {
		if g.Display(sym) == s {
			return sym, true
		}
	}
	return 0, false
}
