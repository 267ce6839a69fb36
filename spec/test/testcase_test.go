package test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestDiffTree(t *testing.T) {
	tests := []struct {
		t1        *Tree
		t2        *Tree
		different bool
	}{
		{
			t1: NewNonTerminalTree("a"),
			t2: NewNonTerminalTree("a"),
		},
		{
			t1: NewNonTerminalTree("a",
				NewTerminalNode("b", "x"),
				NewNonTerminalTree("c",
					NewTerminalNode("d", "y"),
				),
			),
			t2: NewNonTerminalTree("a",
				NewTerminalNode("b", "x"),
				NewNonTerminalTree("c",
					NewTerminalNode("d", "y"),
				),
			),
		},
		{
			t1: NewNonTerminalTree("_",
				NewTerminalNode("_", "x"),
			),
			t2: NewNonTerminalTree("a",
				NewTerminalNode("b", "x"),
			),
		},
		{
			t1:        NewNonTerminalTree("a"),
			t2:        NewNonTerminalTree("b"),
			different: true,
		},
		{
			t1:        NewTerminalNode("a", "x"),
			t2:        NewTerminalNode("a", "y"),
			different: true,
		},
		{
			t1: NewNonTerminalTree("a",
				NewNonTerminalTree("b"),
			),
			t2:        NewNonTerminalTree("a"),
			different: true,
		},
		{
			t1: NewNonTerminalTree("a",
				NewNonTerminalTree("b",
					NewNonTerminalTree("c"),
				),
			),
			t2: NewNonTerminalTree("a",
				NewNonTerminalTree("b",
					NewNonTerminalTree("d"),
				),
			),
			different: true,
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			diffs := DiffTree(tt.t1, tt.t2)
			if tt.different && len(diffs) == 0 {
				t.Fatalf("unexpected result")
			} else if !tt.different && len(diffs) > 0 {
				t.Fatalf("unexpected result: %v", diffs[0].Message)
			}
		})
	}
}

func TestDiffTree_Path(t *testing.T) {
	expected := NewNonTerminalTree("a",
		NewTerminalNode("b", "x"),
		NewNonTerminalTree("c",
			NewTerminalNode("d", "y"),
		),
	)
	actual := NewNonTerminalTree("a",
		NewTerminalNode("b", "x"),
		NewNonTerminalTree("c",
			NewTerminalNode("e", "y"),
		),
	)
	diffs := DiffTree(expected, actual)
	if len(diffs) != 1 {
		t.Fatalf("unexpected diffs: %v", diffs)
	}
	if diffs[0].ExpectedPath != "a.[1]c.[0]d" || diffs[0].ActualPath != "a.[1]c.[0]e" {
		t.Fatalf("unexpected paths: %v, %v", diffs[0].ExpectedPath, diffs[0].ActualPath)
	}
}

func TestParseTestCase(t *testing.T) {
	tests := []struct {
		src      string
		tc       *TestCase
		parseErr bool
	}{
		{
			src: `test
---
foo
---
(foo)
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte("foo"),
				Output:      NewNonTerminalTree("foo"),
			},
		},
		{
			src: `
test

---

a + b

---

(E
    (id 'a')
    (+ '+')
    (id "b"))

`,
			tc: &TestCase{
				Description: "\ntest\n",
				Source:      []byte("\na + b\n"),
				Output: NewNonTerminalTree("E",
					NewTerminalNode("id", "a"),
					NewTerminalNode("+", "+"),
					NewTerminalNode("id", "b"),
				),
			},
		},
		// A lexeme containing a single quote is written in double quotes.
		{
			src: `test
----
'
----
(S (quote "'"))
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte("'"),
				Output: NewNonTerminalTree("S",
					NewTerminalNode("quote", "'"),
				),
			},
		},
		// The description part may be empty.
		{
			src: `----
foo
----
(foo)
`,
			tc: &TestCase{
				Description: "",
				Source:      []byte("foo"),
				Output:      NewNonTerminalTree("foo"),
			},
		},
		// The source part may be empty.
		{
			src: `test
---
---
(S (error))
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte{},
				Output: NewNonTerminalTree("S",
					NewNonTerminalTree(KindError),
				),
			},
		},
		// A delimiter at the end is tolerated.
		{
			src: `test
----
foo
----
(foo)
---
`,
			tc: &TestCase{
				Description: "test",
				Source:      []byte("foo"),
				Output:      NewNonTerminalTree("foo"),
			},
		},
		{
			src:      ``,
			parseErr: true,
		},
		{
			src: `test
---
foo
`,
			parseErr: true,
		},
		{
			src: `test
---
foo
---
`,
			parseErr: true,
		},
		{
			src: `test
--
foo
--
(foo)
`,
			parseErr: true,
		},
		{
			src: `test
---
foo
---
?
`,
			parseErr: true,
		},
		{
			src: `test
---
foo
---
(foo)(bar)
`,
			parseErr: true,
		},
		{
			src: `test
---
foo
---
(error (foo))
`,
			parseErr: true,
		},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("#%v", i), func(t *testing.T) {
			tc, err := ParseTestCase(strings.NewReader(tt.src))
			if tt.parseErr {
				if err == nil {
					t.Fatalf("an expected error didn't occur")
				}
			} else {
				if err != nil {
					t.Fatal(err)
				}
				testTestCase(t, tt.tc, tc)
			}
		})
	}
}

func TestParseTestCase_ErrorPosition(t *testing.T) {
	src := `test
---
foo
---
(foo
    (bar 'x') ?)
`
	_, err := ParseTestCase(strings.NewReader(src))
	if err == nil {
		t.Fatalf("an expected error didn't occur")
	}
	if !strings.HasPrefix(err.Error(), "6:15: ") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTree_Format(t *testing.T) {
	tree := NewNonTerminalTree("E",
		NewTerminalNode("id", "a"),
		NewNonTerminalTree("T",
			NewTerminalNode("q", "'"),
		),
		NewNonTerminalTree(KindError),
	)
	expected := `(E
    (id 'a')
    (T
        (q "'"))
    (error))`
	if s := tree.Format(); s != expected {
		t.Fatalf("unexpected text;\nwant:\n%v\ngot:\n%v", expected, s)
	}

	tc, err := ParseTestCase(strings.NewReader("test\n---\nx\n---\n" + expected + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	if diffs := DiffTree(tree, tc.Output); len(diffs) > 0 {
		t.Fatalf("a formatted tree must read back: %v", diffs[0].Message)
	}
}

func testTestCase(t *testing.T, expected, actual *TestCase) {
	t.Helper()

	if expected.Description != actual.Description ||
		!reflect.DeepEqual(expected.Source, actual.Source) ||
		len(DiffTree(expected.Output, actual.Output)) > 0 {
		t.Fatalf("unexpected test case: want: %#v, got: %#v", expected, actual)
	}
}
