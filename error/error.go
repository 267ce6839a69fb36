package error

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/nihei9/lrgen/spec"
)

type Code int

const (
	CodeGrammarAddOperation              = Code(2001)
	CodeGrammarAddStateLink              = Code(2002)
	CodeGrammarUnexpectedSymbol          = Code(2003)
	CodeGrammarInvalidAdditionalFuncName = Code(2004)
	CodeGrammarInvalidKeyword            = Code(2005)

	CodeSyntaxUnknownError             = Code(2051)
	CodeSyntaxUnexpectedEOF            = Code(2052)
	CodeSyntaxRecoverableStateNotFound = Code(2053)

	CodeGeneralCouldNotReadFile      = Code(2200)
	CodeGeneralParsingLimitIsReached = Code(2201)
)

var (
	ErrGrammarAddOperation              = errors.New("grammar add operation error")
	ErrGrammarAddStateLink              = errors.New("grammar add state link error")
	ErrGrammarUnexpectedSymbol          = errors.New("grammar unexpected symbol")
	ErrGrammarInvalidAdditionalFuncName = errors.New("grammar invalid additional function name")
	ErrGrammarInvalidKeyword            = errors.New("grammar invalid keyword")
	ErrSyntaxUnknownError               = errors.New("syntax error")
	ErrSyntaxUnexpectedEOF              = errors.New("unexpected end of input")
	ErrSyntaxRecoverableStateNotFound   = errors.New("recoverable state not found")
	ErrGeneralCouldNotReadFile          = errors.New("could not read file")
	ErrGeneralParsingLimitIsReached     = errors.New("parsing limit is reached")
)

type catalogEntry struct {
	cause error
	tmpl  *template.Template
}

var catalog = map[Code]*catalogEntry{}

func register(code Code, cause error, text string) {
	catalog[code] = &catalogEntry{
		cause: cause,
		tmpl:  template.Must(template.New(fmt.Sprint(code)).Option("missingkey=zero").Parse(text)),
	}
}

func init() {
	register(CodeGrammarAddOperation, ErrGrammarAddOperation,
		"Grammar not {{.kind}}! Cannot generate syntax table. Add operation error.\n"+
			"Conflict in state with index: {{.stateIndex}}. With grammar symbol: \"{{.grammarSymbol}}\"\n"+
			"Old operation: {{.oldOperation}}\n"+
			"New operation: {{.newOperation}}\n"+
			"For more info compile the grammar in debug mode and see the list of states."+
			"{{if .stateDesc}}\n\n{{.stateDesc}}{{end}}")
	register(CodeGrammarAddStateLink, ErrGrammarAddStateLink,
		"Grammar not {{.kind}}! Cannot generate syntax table. Add state link error.\n"+
			"Conflict in state with index: {{.stateIndex}}. With grammar symbol: \"{{.grammarSymbol}}\"\n"+
			"Old next state: {{.oldNextStateIndex}}\n"+
			"New next state: {{.newNextStateIndex}}")
	register(CodeGrammarUnexpectedSymbol, ErrGrammarUnexpectedSymbol,
		"Grammar error. Cannot generate rules from grammar\n"+
			"Unexpected symbol: {{.unexpectedSymbol}}\n"+
			"Expected: {{.expectedSymbol}}")
	register(CodeGrammarInvalidAdditionalFuncName, ErrGrammarInvalidAdditionalFuncName,
		"Grammar error. Empty additional function name.")
	register(CodeGrammarInvalidKeyword, ErrGrammarInvalidKeyword,
		"Grammar error. Bad keyword: {{.badKeyword}}\n"+
			"All keywords must be defined in the lexer rule block.")
	register(CodeSyntaxUnknownError, ErrSyntaxUnknownError,
		"Syntax error during parsing. Token: '{{.value}}'\n"+
			"Line: {{.line}}. Column: {{.column}}.")
	register(CodeSyntaxUnexpectedEOF, ErrSyntaxUnexpectedEOF,
		"Syntax error. Unexpected EOF.")
	register(CodeSyntaxRecoverableStateNotFound, ErrSyntaxRecoverableStateNotFound,
		"Recoverable state not found.")
	register(CodeGeneralCouldNotReadFile, ErrGeneralCouldNotReadFile,
		"Could not read file '{{.target}}'.")
	register(CodeGeneralParsingLimitIsReached, ErrGeneralParsingLimitIsReached,
		"Parsing limit is reached.")
}

type Severity int

const (
	SeverityError = Severity(iota)
	// SeverityCritical diagnostics stop the compilation or the parse that raised them.
	SeverityCritical
)

func (s Severity) String() string {
	if s == SeverityCritical {
		return "critical"
	}
	return "error"
}

// Args carries the values substituted into a message template.
type Args map[string]interface{}

type Diagnostic struct {
	Code     Code
	Severity Severity
	Cause    error
	Detail   string
	File     string
	Range    *spec.Range

	// FilePath, when set, is read to quote the offending source line.
	FilePath string
}

// NewError returns a recoverable diagnostic rendered from the template of code.
func NewError(code Code, args Args) *Diagnostic {
	return newDiagnostic(code, SeverityError, args)
}

// NewCritical returns a fatal diagnostic rendered from the template of code.
func NewCritical(code Code, args Args) *Diagnostic {
	return newDiagnostic(code, SeverityCritical, args)
}

func newDiagnostic(code Code, sev Severity, args Args) *Diagnostic {
	e, ok := catalog[code]
	if !ok {
		return &Diagnostic{
			Code:     code,
			Severity: sev,
			Cause:    fmt.Errorf("unknown diagnostic code: %v", code),
		}
	}
	var b strings.Builder
	if err := e.tmpl.Execute(&b, args); err != nil {
		b.Reset()
		fmt.Fprintf(&b, "%v (template error: %v)", e.cause, err)
	}
	return &Diagnostic{
		Code:     code,
		Severity: sev,
		Cause:    e.cause,
		Detail:   b.String(),
	}
}

func (d *Diagnostic) Fatal() bool {
	return d.Severity == SeverityCritical
}

func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.File != "" {
		fmt.Fprintf(&b, "%v: ", d.File)
	}
	if d.Range != nil && !d.Range.IsZero() {
		fmt.Fprintf(&b, "%v:%v: ", d.Range.Start.Line, d.Range.Start.Column)
	}
	fmt.Fprintf(&b, "%v(%v): ", d.Severity, int(d.Code))
	if d.Detail != "" {
		fmt.Fprintf(&b, "%v", d.Detail)
	} else {
		fmt.Fprintf(&b, "%v", d.Cause)
	}

	if d.Range != nil {
		line := readLine(d.FilePath, d.Range.Start.Line)
		if line != "" {
			fmt.Fprintf(&b, "\n    %v", line)
		}
	}

	return b.String()
}

// Diagnostics accumulates diagnostics of a single compilation or parse.
type Diagnostics []*Diagnostic

func (ds Diagnostics) Error() string {
	var b strings.Builder
	for i, d := range ds {
		if i > 0 {
			fmt.Fprintf(&b, "\n")
		}
		fmt.Fprintf(&b, "%v", d)
	}
	return b.String()
}

// Fatal returns the first critical diagnostic, if any.
func (ds Diagnostics) Fatal() *Diagnostic {
	for _, d := range ds {
		if d.Fatal() {
			return d
		}
	}
	return nil
}

func (ds Diagnostics) Count(code Code) int {
	n := 0
	for _, d := range ds {
		if d.Code == code {
			n++
		}
	}
	return n
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}
