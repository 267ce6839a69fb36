package tester

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nihei9/lrgen/driver"
	"github.com/nihei9/lrgen/driver/lexer"
	verr "github.com/nihei9/lrgen/error"
	"github.com/nihei9/lrgen/spec"
	tspec "github.com/nihei9/lrgen/spec/test"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lrgen.tester'.
func tracer() tracing.Trace {
	return tracing.Select("lrgen.tester")
}

type TestResult struct {
	TestCasePath string
	Error        error
	Diffs        []*tspec.TreeDiff

	// Actual is the tree the parser built, when there is one.
	Actual *tspec.Tree
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		msg := fmt.Sprintf("Failed %v:\n%v%v", r.TestCasePath, indent1, strings.Join(msgLines, "\n"+indent1))
		if len(r.Diffs) == 0 {
			return msg
		}
		var diffLines []string
		for _, diff := range r.Diffs {
			diffLines = append(diffLines, diff.Message)
			diffLines = append(diffLines, fmt.Sprintf("%vexpected path: %v", indent1, diff.ExpectedPath))
			diffLines = append(diffLines, fmt.Sprintf("%vactual path:   %v", indent1, diff.ActualPath))
		}
		return fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(diffLines, "\n"+indent2))
	}
	return fmt.Sprintf("Passed %v", r.TestCasePath)
}

type TestCaseWithMetadata struct {
	TestCase *tspec.TestCase
	FilePath string
	Error    error
}

// ListTestCases reads a test case file, or every file below a directory.
func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    couldNotRead(testPath, err),
			},
		}
	}
	if !fi.IsDir() {
		c, err := parseTestCase(testPath)
		return []*TestCaseWithMetadata{
			{
				TestCase: c,
				FilePath: testPath,
				Error:    err,
			},
		}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    couldNotRead(testPath, err),
			},
		}
	}
	var cases []*TestCaseWithMetadata
	for _, e := range es {
		cs := ListTestCases(filepath.Join(testPath, e.Name()))
		cases = append(cases, cs...)
	}
	return cases
}

func couldNotRead(path string, err error) error {
	d := verr.NewCritical(verr.CodeGeneralCouldNotReadFile, verr.Args{
		"target": path,
	})
	tracer().Debugf("%v: %v", d, err)
	return d
}

func parseTestCase(testCasePath string) (*tspec.TestCase, error) {
	f, err := os.Open(testCasePath)
	if err != nil {
		return nil, couldNotRead(testCasePath, err)
	}
	defer f.Close()
	return tspec.ParseTestCase(f)
}

type Tester struct {
	Grammar *spec.CompiledTable
	Cases   []*TestCaseWithMetadata

	// Lexer selects the back end that tokenizes the sources. The default is maleeni.
	Lexer lexer.Backend
}

func (t *Tester) Run() []*TestResult {
	backend := t.Lexer
	if backend == "" {
		backend = lexer.BackendMaleeni
	}

	gram, err := driver.NewGrammar(t.Grammar)
	if err == nil {
		var lex lexer.Spec
		lex, err = lexer.Compile(backend, t.Grammar.Lexical)
		if err == nil {
			var rs []*TestResult
			for _, c := range t.Cases {
				rs = append(rs, runTest(gram, lex, c))
			}
			return rs
		}
	}

	// Without a usable grammar every case fails the same way.
	var rs []*TestResult
	for _, c := range t.Cases {
		rs = append(rs, &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		})
	}
	return rs
}

func runTest(g driver.Grammar, lex lexer.Spec, c *TestCaseWithMetadata) *TestResult {
	if c.Error != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        c.Error,
		}
	}

	ts, err := lex.NewTokenStream(g, bytes.NewReader(c.TestCase.Source))
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}
	tb := driver.NewTree(g.Optimize())
	p, err := driver.NewParser(g, ts, driver.WithTree(tb), driver.FileName(c.FilePath))
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}
	if err := p.Parse(context.Background()); err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}

	if fatal := p.Diagnostics().Fatal(); fatal != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("parse tree was not generated: %w", p.Diagnostics()),
		}
	}
	root := tb.Node(tb.Root())
	if root == nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("parse tree was not generated: the input is empty"),
		}
	}

	// Recovered syntax errors don't fail a test; the expected tree shows the error nodes.
	actual := ConvertTree(tb, tb.Root())
	diffs := tspec.DiffTree(c.TestCase.Output, actual)
	if len(diffs) > 0 {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("output mismatch"),
			Diffs:        diffs,
			Actual:       actual,
		}
	}
	return &TestResult{
		TestCasePath: c.FilePath,
		Actual:       actual,
	}
}

// ConvertTree turns the subtree of a parse tree rooted at id into the tree notation of test
// cases.
func ConvertTree(tb *driver.Tree, id driver.NodeID) *tspec.Tree {
	n := tb.Node(id)
	switch {
	case n.Error:
		return tspec.NewNonTerminalTree(tspec.KindError)
	case len(n.Children) == 0 && n.Value != "":
		return tspec.NewTerminalNode(n.Name, n.Value)
	}
	var children []*tspec.Tree
	for _, c := range n.Children {
		children = append(children, ConvertTree(tb, c))
	}
	return tspec.NewNonTerminalTree(n.Name, children...)
}
