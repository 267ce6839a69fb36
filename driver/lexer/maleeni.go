package lexer

import (
	"fmt"
	"io"
	"strings"

	"github.com/nihei9/lrgen/driver"
	"github.com/nihei9/lrgen/spec"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

const maleeniSpecName = "lrgen"

type MaleeniSpec struct {
	spec *mlspec.CompiledLexSpec

	// Both are indexed by kind ID.
	kindToSym []int
	skip      []bool
}

var _ Spec = &MaleeniSpec{}

// CompileMaleeni compiles the lexical entries into a maleeni DFA.
func CompileMaleeni(lex *spec.LexicalSpecification) (*MaleeniSpec, error) {
	entries := []*mlspec.LexEntry{}
	kind2Entry := map[mlspec.LexKindName]*spec.LexEntry{}
	for _, e := range orderedEntries(lex) {
		// Terminal names aren't necessarily valid kind names, so kinds are named after the
		// symbol number.
		kind := mlspec.LexKindName(fmt.Sprintf("k_%v", e.Symbol))

		pattern := e.Pattern
		if e.Literal {
			pattern = mlspec.EscapePattern(pattern)
		}
		entries = append(entries, &mlspec.LexEntry{
			Kind:    kind,
			Pattern: mlspec.LexPattern(pattern),
		})
		kind2Entry[kind] = e
	}

	clspec, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    maleeniSpecName,
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			var b strings.Builder
			for i, cErr := range cErrs {
				if i > 0 {
					fmt.Fprintf(&b, "\n")
				}
				name := string(cErr.Kind)
				if e, ok := kind2Entry[cErr.Kind]; ok {
					name = e.Name
				}
				fmt.Fprintf(&b, "%v: %v", name, cErr.Cause)
				if cErr.Detail != "" {
					fmt.Fprintf(&b, ": %v", cErr.Detail)
				}
			}
			return nil, fmt.Errorf("failed to compile the lexical specification:\n%v", b.String())
		}
		return nil, err
	}

	kindToSym := make([]int, len(clspec.KindNames))
	skip := make([]bool, len(clspec.KindNames))
	for i, k := range clspec.KindNames {
		if k == mlspec.LexKindNameNil {
			kindToSym[i] = driver.UnknownSymbol
			continue
		}
		e, ok := kind2Entry[k]
		if !ok {
			return nil, fmt.Errorf("kind %v has no lexical entry", k)
		}
		kindToSym[i] = e.Symbol
		skip[i] = e.Skip
	}

	tracer().Debugf("maleeni: %v kinds", len(clspec.KindNames))

	return &MaleeniSpec{
		spec:      clspec,
		kindToSym: kindToSym,
		skip:      skip,
	}, nil
}

func (s *MaleeniSpec) NewTokenStream(g driver.Grammar, src io.Reader) (driver.TokenStream, error) {
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(s.spec), src)
	if err != nil {
		return nil, err
	}

	eof := g.EOF()
	return &indexedStream{
		read: func() (*driver.Token, bool, error) {
			for {
				tok, err := lex.Next()
				if err != nil {
					return nil, false, err
				}

				// maleeni counts rows and columns from 0.
				rng := tokenRange(tok.Row+1, tok.Col+1, tok.Lexeme)
				switch {
				case tok.EOF:
					return &driver.Token{
						Symbol: eof,
						Range:  rng,
					}, true, nil
				case tok.Invalid:
					return &driver.Token{
						Symbol:  driver.UnknownSymbol,
						Value:   string(tok.Lexeme),
						Range:   rng,
						Unknown: true,
					}, false, nil
				case s.skip[tok.KindID]:
					continue
				}

				return &driver.Token{
					Symbol: s.kindToSym[tok.KindID],
					Value:  string(tok.Lexeme),
					Range:  rng,
				}, false, nil
			}
		},
	}, nil
}

// NewMaleeniStream compiles lex with maleeni and returns a stream over src.
func NewMaleeniStream(g driver.Grammar, lex *spec.LexicalSpecification, src io.Reader) (driver.TokenStream, error) {
	return NewTokenStream(BackendMaleeni, g, lex, src)
}
