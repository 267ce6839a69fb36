package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/nihei9/lrgen/driver"
	"github.com/nihei9/lrgen/spec"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

type LexmachineSpec struct {
	lexer *lexmachine.Lexer
}

var _ Spec = &LexmachineSpec{}

// CompileLexmachine compiles the lexical entries into a lexmachine DFA.
func CompileLexmachine(lex *spec.LexicalSpecification) (*LexmachineSpec, error) {
	l := lexmachine.NewLexer()
	for _, e := range orderedEntries(lex) {
		pattern := e.Pattern
		if e.Literal {
			pattern = quoteLexmachine(pattern)
		}
		if e.Skip {
			l.Add([]byte(pattern), skip)
		} else {
			l.Add([]byte(pattern), makeToken(e.Symbol))
		}
	}
	if err := l.Compile(); err != nil {
		return nil, fmt.Errorf("failed to compile the lexical specification: %w", err)
	}
	return &LexmachineSpec{
		lexer: l,
	}, nil
}

// quoteLexmachine escapes every character of a literal that isn't a letter, a digit or '_'.
func quoteLexmachine(lit string) string {
	var b strings.Builder
	for _, r := range lit {
		if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('\\')
		b.WriteRune(r)
	}
	return b.String()
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

func makeToken(sym int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(sym, string(m.Bytes), m), nil
	}
}

func (s *LexmachineSpec) NewTokenStream(g driver.Grammar, src io.Reader) (driver.TokenStream, error) {
	text, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	scanner, err := s.lexer.Scanner(text)
	if err != nil {
		return nil, err
	}

	eof := g.EOF()
	end := spec.Position{Line: 1, Column: 1}
	return &indexedStream{
		read: func() (*driver.Token, bool, error) {
			tok, err, eos := scanner.Next()
			if err != nil {
				ui, ok := err.(*machines.UnconsumedInput)
				if !ok {
					return nil, false, err
				}

				// Skip the unmatched text and report it as a single token.
				from, to := ui.StartTC, ui.FailTC
				if to <= from {
					_, n := utf8.DecodeRune(text[from:])
					to = from + n
				}
				if to > len(text) {
					to = len(text)
				}
				scanner.TC = to

				rng := tokenRange(ui.StartLine, ui.StartColumn, text[from:to])
				end = rng.End
				return &driver.Token{
					Symbol:  driver.UnknownSymbol,
					Value:   string(text[from:to]),
					Range:   rng,
					Unknown: true,
				}, false, nil
			}
			if eos {
				return &driver.Token{
					Symbol: eof,
					Range: spec.Range{
						Start: end,
						End:   end,
					},
				}, true, nil
			}

			t := tok.(*lexmachine.Token)
			rng := tokenRange(t.StartLine, t.StartColumn, t.Lexeme)
			end = rng.End
			return &driver.Token{
				Symbol: t.Type,
				Value:  string(t.Lexeme),
				Range:  rng,
			}, false, nil
		},
	}, nil
}

// NewLexmachineStream compiles lex with lexmachine and returns a stream over src.
func NewLexmachineStream(g driver.Grammar, lex *spec.LexicalSpecification, src io.Reader) (driver.TokenStream, error) {
	return NewTokenStream(BackendLexmachine, g, lex, src)
}
