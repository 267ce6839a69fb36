package lexer

import (
	"fmt"
	"io"

	"github.com/nihei9/lrgen/driver"
	"github.com/nihei9/lrgen/spec"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrgen.lexer'.
func tracer() tracing.Trace {
	return tracing.Select("lrgen.lexer")
}

// Backend names a DFA library token streams can be built with.
type Backend string

const (
	BackendMaleeni    = Backend("maleeni")
	BackendLexmachine = Backend("lexmachine")
)

func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case BackendMaleeni, BackendLexmachine:
		return b, nil
	}
	return "", fmt.Errorf("unknown lexer back end: %v (want %v or %v)", name, BackendMaleeni, BackendLexmachine)
}

// Spec is a lexical specification compiled for one back end. A Spec is read-only after
// compilation; it can serve any number of streams at once.
type Spec interface {
	NewTokenStream(g driver.Grammar, src io.Reader) (driver.TokenStream, error)
}

// Compile compiles the lexical block of a compiled grammar with the given back end.
func Compile(b Backend, lex *spec.LexicalSpecification) (Spec, error) {
	if lex == nil || len(lex.Entries) == 0 {
		return nil, fmt.Errorf("the grammar has no lexical entries")
	}
	switch b {
	case BackendMaleeni:
		return CompileMaleeni(lex)
	case BackendLexmachine:
		return CompileLexmachine(lex)
	}
	return nil, fmt.Errorf("unknown lexer back end: %v", b)
}

// NewTokenStream compiles lex and returns a stream over src.
func NewTokenStream(b Backend, g driver.Grammar, lex *spec.LexicalSpecification, src io.Reader) (driver.TokenStream, error) {
	s, err := Compile(b, lex)
	if err != nil {
		return nil, err
	}
	return s.NewTokenStream(g, src)
}

// orderedEntries puts literals in front of patterns. Both back ends prefer the earlier entry
// when two entries match the same text, so a keyword wins over an identifier pattern.
func orderedEntries(lex *spec.LexicalSpecification) []*spec.LexEntry {
	entries := make([]*spec.LexEntry, 0, len(lex.Entries))
	for _, e := range lex.Entries {
		if e.Literal {
			entries = append(entries, e)
		}
	}
	for _, e := range lex.Entries {
		if !e.Literal {
			entries = append(entries, e)
		}
	}
	return entries
}

// tokenRange returns the range of a lexeme starting at a 1-based position. Columns count code
// points.
func tokenRange(line, col int, lexeme []byte) spec.Range {
	start := spec.Position{Line: line, Column: col}
	end := start
	for _, r := range string(lexeme) {
		if r == '\n' {
			end.Line++
			end.Column = 1
			continue
		}
		end.Column++
	}
	return spec.Range{
		Start: start,
		End:   end,
	}
}

// indexedStream numbers the tokens a back end reads and keeps returning the same end-of-input
// token once it has been read.
type indexedStream struct {
	read  func() (tok *driver.Token, eof bool, err error)
	index int
	eof   *driver.Token
}

func (s *indexedStream) Next() (*driver.Token, error) {
	if s.eof != nil {
		c := *s.eof
		return &c, nil
	}

	tok, eof, err := s.read()
	if err != nil {
		return nil, err
	}
	tok.Index = s.index
	s.index++
	if eof {
		s.eof = tok
		c := *tok
		tok = &c
	}
	if tok.Unknown {
		tracer().Debugf("unknown text %q at %v", tok.Value, tok.Range)
	}
	return tok, nil
}
