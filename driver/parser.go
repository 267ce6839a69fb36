package driver

import (
	"context"
	"fmt"

	verr "github.com/nihei9/lrgen/error"
	"github.com/nihei9/lrgen/spec"
	"github.com/npillmayer/schuko/gconf"
)

// ConfigKeyMaxOperations limits the number of loop iterations of a parse unless a caller passes
// MaxOperations. 0 means no limit.
const ConfigKeyMaxOperations = "parser.max-operations"

type ParserOption func(p *Parser) error

func Hooks(hooks HookSet) ParserOption {
	return func(p *Parser) error {
		p.hooks = hooks
		return nil
	}
}

// WithTree makes the parser report to b instead of a Tree of its own.
func WithTree(b TreeBuilder) ParserOption {
	return func(p *Parser) error {
		if b == nil {
			return fmt.Errorf("a tree builder must be non-nil")
		}
		p.tree = b
		return nil
	}
}

// MaxOperations stops a parse with a fatal error after n iterations. It guards against loops
// while a grammar is being developed. 0 disables the limit.
func MaxOperations(n int) ParserOption {
	return func(p *Parser) error {
		if n < 0 {
			return fmt.Errorf("the operation limit must be >=0")
		}
		p.maxOps = n
		return nil
	}
}

// DisableRecovery makes the first syntax error fatal.
func DisableRecovery() ParserOption {
	return func(p *Parser) error {
		p.recovery = false
		return nil
	}
}

// FileName is the file name diagnostics report.
func FileName(name string) ParserOption {
	return func(p *Parser) error {
		p.fileName = name
		return nil
	}
}

type Parser struct {
	gram     Grammar
	ts       TokenStream
	hooks    HookSet
	tree     TreeBuilder
	maxOps   int
	recovery bool
	fileName string

	stack []int
	token *Token

	// causing is the token that started the current error, nil outside recovery.
	causing *Token

	opCount  int
	started  bool
	done     bool
	accepted bool
	diags    verr.Diagnostics
}

// NewParser returns a parser for a single run. The grammar may be shared with other parsers.
func NewParser(g Grammar, ts TokenStream, opts ...ParserOption) (*Parser, error) {
	if g == nil || ts == nil {
		return nil, fmt.Errorf("a grammar and a token stream are required")
	}

	p := &Parser{
		gram:     g,
		ts:       ts,
		maxOps:   gconf.GetInt(ConfigKeyMaxOperations),
		recovery: true,
	}

	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}

	if p.tree == nil {
		p.tree = NewTree(g.Optimize())
	}

	return p, nil
}

// Parse runs until the input is accepted or a fatal error stops it. Syntax errors don't make
// Parse fail; they are reported by Diagnostics. An error is returned only when the token stream
// fails or ctx is done.
func (p *Parser) Parse(ctx context.Context) error {
	for {
		done, err := p.Step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Step performs one operation of the parse loop: a shift, a reduction, an accept or one
// recovery action. Hooks run inside the step that triggered them.
func (p *Parser) Step(ctx context.Context) (bool, error) {
	if p.done {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !p.started {
		p.started = true
		p.push(p.gram.InitialState())
		tok, err := p.nextToken()
		if err != nil {
			return false, err
		}
		p.token = tok
	}

	if p.maxOps > 0 {
		if p.opCount > p.maxOps {
			p.fatal(verr.CodeGeneralParsingLimitIsReached, nil, p.token)
			return true, nil
		}
		p.opCount++
	}

	state := p.top()
	op := p.gram.Action(state, p.token.Symbol)

	if p.recovery {
		if op.IsNone() {
			if p.causing == nil || p.causing.Index != p.token.Index {
				p.syntaxError(p.token)
			} else {
				// The same token failed again right after a recovery. Try again from the
				// next token.
				tok, err := p.nextToken()
				if err != nil {
					return false, err
				}
				tracer().Debugf("token #%v failed twice; skipping to #%v", p.token.Index, tok.Index)
				p.token = tok
				p.causing = nil
				return false, nil
			}

			p.causing = p.token.clone()
			errTok := p.token.clone()
			errTok.Symbol = p.gram.Error()
			p.token = errTok
		}

		op = p.gram.Action(state, p.token.Symbol)

		// The error token is reduced as long as the table allows it. Recovery starts when it
		// would be shifted or nothing can be done with it.
		if op.IsNone() || (p.token.Symbol == p.gram.Error() && op.Kind == spec.OperationShift) {
			return p.recover()
		}
	}

	switch op.Kind {
	case spec.OperationAccept:
		start := p.gram.StartSymbol()
		p.tree.Finish(start, p.gram.Display(start), p.gram.NodeMode(start))
		p.done = true
		p.accepted = true
		tracer().Debugf("accepted after %v operations", p.opCount)
		return true, nil
	case spec.OperationShift:
		p.push(op.State)
		p.tree.AddToken(p.token, p.gram.Display(p.token.Symbol))
		switch p.runHook(ctx, op.State, p.token.Symbol) {
		case HookFatal:
			p.fatal(verr.CodeSyntaxUnknownError, p.tokenArgs(p.token), p.token)
			return true, nil
		case HookOk:
			tok, err := p.nextToken()
			if err != nil {
				return false, err
			}
			p.token = tok
		}
	case spec.OperationReduce:
		lhs := p.gram.RuleLHS(op.Rule)
		n := p.gram.RuleLen(op.Rule)
		p.pop(n)
		next := p.gram.Action(p.top(), lhs)
		if next.Kind != spec.OperationShift {
			return false, fmt.Errorf("state %v has no transition on %v after reducing rule %v", p.top(), p.gram.Symbol(lhs), op.Rule)
		}
		p.push(next.State)
		p.tree.Reduce(lhs, p.gram.Display(lhs), n, p.gram.NodeMode(lhs))
		if p.runHook(ctx, next.State, lhs) == HookFatal {
			p.fatal(verr.CodeSyntaxUnknownError, p.tokenArgs(p.token), p.token)
			return true, nil
		}
	default:
		p.fatal(verr.CodeSyntaxUnknownError, p.tokenArgs(p.token), p.token)
		return true, nil
	}

	return false, nil
}

// recover shifts the error token in the nearest state that can continue with the token that
// caused the error.
func (p *Parser) recover() (bool, error) {
	recoveryTok := p.causing.clone()
	for recoveryTok.Unknown {
		tok, err := p.nextToken()
		if err != nil {
			return false, err
		}
		recoveryTok = tok
	}

	state, err := p.restoreState(recoveryTok, p.token)
	if err != nil {
		return false, err
	}
	if state < 0 {
		p.fatal(verr.CodeSyntaxRecoverableStateNotFound, nil, p.token)
		return true, nil
	}

	op := p.gram.Action(state, p.token.Symbol)
	p.push(op.State)
	p.tree.AddError(p.token, p.gram.Display(p.token.Symbol))
	tracer().Debugf("recovered in state %v; error range: %v; resuming at token #%v", state, p.token.Range, recoveryTok.Index)
	p.token = recoveryTok

	return false, nil
}

// restoreState searches the stack from the top for a state that shifts the error token into a
// state accepting causing. Everything above it is discarded and its range merged into errTok.
// Without such a state, causing is replaced by the next token until the end of input.
func (p *Parser) restoreState(causing *Token, errTok *Token) (int, error) {
	errSym := p.gram.Error()
	for {
		for i := len(p.stack) - 1; i >= 0; i-- {
			errOp := p.gram.Action(p.stack[i], errSym)
			if errOp.Kind != spec.OperationShift || p.gram.Action(errOp.State, causing.Symbol).IsNone() {
				continue
			}

			for n := len(p.stack) - 1 - i; n > 0; n-- {
				p.tree.Unwind(&errTok.Range)
			}
			p.stack = p.stack[:i+1]
			return p.stack[i], nil
		}

		errTok.Range.Extend(causing.Range)

		if causing.Symbol == p.gram.EOF() {
			return -1, nil
		}

		tok, err := p.nextToken()
		if err != nil {
			return -1, err
		}
		*causing = *tok
	}
}

func (p *Parser) runHook(ctx context.Context, state int, sym int) HookResult {
	name, ok := p.gram.Hook(state, sym)
	if !ok {
		return HookOk
	}
	hook, ok := p.hooks[name]
	if !ok {
		tracer().Debugf("hook %v is not registered; state: %v, symbol: %v", name, state, p.gram.Symbol(sym))
		return HookOk
	}
	res := hook(ctx, &HookContext{
		Name:   name,
		State:  state,
		Symbol: sym,
		Token:  p.token,
		Depth:  len(p.stack),
		Tree:   p.tree,
	})
	tracer().Debugf("hook %v returned %v", name, res)
	return res
}

func (p *Parser) nextToken() (*Token, error) {
	tok, err := p.ts.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to read a token: %w", err)
	}
	if tok == nil {
		return nil, fmt.Errorf("the token stream returned no token")
	}
	return tok, nil
}

func (p *Parser) tokenArgs(tok *Token) verr.Args {
	return verr.Args{
		"value":  tok.Value,
		"line":   tok.Range.Start.Line,
		"column": tok.Range.Start.Column,
	}
}

func (p *Parser) syntaxError(tok *Token) {
	var d *verr.Diagnostic
	if tok.Symbol == p.gram.EOF() {
		d = verr.NewError(verr.CodeSyntaxUnexpectedEOF, nil)
	} else {
		d = verr.NewError(verr.CodeSyntaxUnknownError, p.tokenArgs(tok))
	}
	p.report(d, tok)
}

func (p *Parser) fatal(code verr.Code, args verr.Args, tok *Token) {
	p.report(verr.NewCritical(code, args), tok)
	p.done = true
}

func (p *Parser) report(d *verr.Diagnostic, tok *Token) {
	d.File = p.fileName
	if tok != nil && !tok.Range.IsZero() {
		rng := tok.Range
		d.Range = &rng
	}
	tracer().Debugf("%v", d)
	p.diags = append(p.diags, d)
}

func (p *Parser) top() int {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) push(state int) {
	p.stack = append(p.stack, state)
}

func (p *Parser) pop(n int) {
	p.stack = p.stack[:len(p.stack)-n]
}

func (p *Parser) Diagnostics() verr.Diagnostics {
	return p.diags
}

// Accepted reports whether the input was accepted. A parse with recovered syntax errors may
// still be accepted.
func (p *Parser) Accepted() bool {
	return p.accepted
}

func (p *Parser) Tree() TreeBuilder {
	return p.tree
}
