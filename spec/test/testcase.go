package test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/nihei9/lrgen/driver"
	"github.com/nihei9/lrgen/driver/lexer"
	"github.com/nihei9/lrgen/grammar"
)

type TestCase struct {
	Description string
	Source      []byte
	Output      *Tree
}

// ParseTestCase reads a test case: a description, a source text and the expected tree,
// separated by lines of three or more hyphens.
func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("too many or too few part delimiters: a test case consists of just three parts: %v parts found", len(parts))
	}

	tree, err := parseTree(parts[2].buf, parts[0].lineCount+parts[1].lineCount+2)
	if err != nil {
		return nil, err
	}

	return &TestCase{
		Description: string(parts[0].buf),
		Source:      parts[1].buf,
		Output:      tree,
	}, nil
}

type testCasePart struct {
	buf       []byte
	lineCount int
}

func splitIntoParts(r io.Reader) ([]*testCasePart, error) {
	var bufs []*testCasePart
	s := bufio.NewScanner(r)
	for {
		buf, lineCount, err := readPart(s)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			break
		}
		bufs = append(bufs, &testCasePart{
			buf:       buf,
			lineCount: lineCount,
		})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return bufs, nil
}

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

func readPart(s *bufio.Scanner) ([]byte, int, error) {
	if !s.Scan() {
		return nil, 0, s.Err()
	}
	line := s.Bytes()
	if reDelim.Match(line) {
		// An empty part must be non-nil; nil ends the input.
		return []byte{}, 0, nil
	}
	var buf bytes.Buffer
	buf.Write(line)
	lineCount := 1
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			return buf.Bytes(), lineCount, nil
		}
		buf.WriteString("\n")
		buf.Write(line)
		lineCount++
	}
	if err := s.Err(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), lineCount, nil
}

// treeGrammarSrc describes the tree notation: `(kind)`, `(kind 'lexeme')` and
// `(kind child...)`. A lexeme containing a single quote is written in double quotes.
const treeGrammarSrc = `
S : tree
tree : '(' kind ')' --add
tree : '(' kind string ')' --add
tree : '(' kind trees ')' --add
trees : trees tree --skip
trees : tree --skip
--LEXER--
kind : /[^\u{0009}\u{000A}\u{000D}\u{0020}()'"]+/
string : /'[^']*'|"[^"]*"/
ws : /[\u{0009}\u{000A}\u{000D}\u{0020}]+/ --skip
`

var treeLang struct {
	once sync.Once
	g    driver.Grammar
	lex  lexer.Spec
	err  error
}

func loadTreeLang() (driver.Grammar, lexer.Spec, error) {
	treeLang.once.Do(func() {
		c, err := grammar.Compile(treeGrammarSrc, grammar.Name("tree"))
		if err != nil {
			treeLang.err = err
			return
		}
		g, err := driver.NewGrammar(c.Table)
		if err != nil {
			treeLang.err = err
			return
		}
		lex, err := lexer.CompileMaleeni(c.Table.Lexical)
		if err != nil {
			treeLang.err = err
			return
		}
		treeLang.g = g
		treeLang.lex = lex
	})
	return treeLang.g, treeLang.lex, treeLang.err
}

// parseTree reads a tree. lineOffset is the number of lines preceding src in its file.
func parseTree(src []byte, lineOffset int) (*Tree, error) {
	g, lex, err := loadTreeLang()
	if err != nil {
		return nil, err
	}
	ts, err := lex.NewTokenStream(g, bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	tb := driver.NewTree(g.Optimize())
	p, err := driver.NewParser(g, ts, driver.WithTree(tb), driver.DisableRecovery())
	if err != nil {
		return nil, err
	}
	if err := p.Parse(context.Background()); err != nil {
		return nil, err
	}
	if diags := p.Diagnostics(); len(diags) > 0 {
		var msgs []string
		for _, d := range diags {
			msg := strings.SplitN(d.Detail, "\n", 2)[0]
			if d.Range != nil {
				msg = fmt.Sprintf("%v:%v: %v", lineOffset+d.Range.Start.Line, d.Range.Start.Column, msg)
			}
			msgs = append(msgs, msg)
		}
		return nil, errors.New(strings.Join(msgs, "\n"))
	}

	root := tb.Node(tb.Root())
	if root == nil || len(root.Children) != 1 {
		return nil, fmt.Errorf("a test case must have a tree")
	}
	return genTree(tb, root.Children[0], lineOffset)
}

// genTree converts a `tree` node. Its children are `(`, the kind, then either a lexeme or the
// subtrees, and `)`.
func genTree(tb *driver.Tree, id driver.NodeID, lineOffset int) (*Tree, error) {
	node := tb.Node(id)
	kind := tb.Node(node.Children[1])
	inner := node.Children[2 : len(node.Children)-1]

	if len(inner) == 1 {
		if n := tb.Node(inner[0]); n.Name == "string" {
			return NewTerminalNode(kind.Value, n.Value[1:len(n.Value)-1]), nil
		}
	}

	if kind.Value == KindError && len(inner) > 0 {
		return nil, fmt.Errorf("%v:%v: error node cannot take children", lineOffset+kind.Range.Start.Line, kind.Range.Start.Column)
	}

	var children []*Tree
	for _, c := range inner {
		t, err := genTree(tb, c, lineOffset)
		if err != nil {
			return nil, err
		}
		children = append(children, t)
	}
	return NewNonTerminalTree(kind.Value, children...), nil
}
