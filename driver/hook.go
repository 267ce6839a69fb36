package driver

import "context"

type HookResult int

const (
	// HookOk lets the parser advance. After a shift it reads the next token.
	HookOk = HookResult(iota)
	// HookRetry makes the parser process the current token again without reading a new one.
	HookRetry
	// HookFatal stops the parse with a syntax error at the current token.
	HookFatal
)

func (r HookResult) String() string {
	switch r {
	case HookRetry:
		return "retry"
	case HookFatal:
		return "fatal"
	}
	return "ok"
}

// HookContext is what a hook sees of the parse. It is valid only during the call.
type HookContext struct {
	Name string

	// State and Symbol are the key the hook is bound to. Symbol is either the shifted terminal
	// or the left-hand side of the reduced rule.
	State  int
	Symbol int

	// Token is the current look-ahead token. It is the shifted token after a shift.
	Token *Token

	// Depth is the number of states on the parse stack.
	Depth int

	Tree TreeBuilder
}

// Hook is a semantic action bound to a rule position with `--F name`. The parser waits for a
// hook to return and changes nothing while it runs, so a hook may block, for example to run a
// nested parse.
type Hook func(ctx context.Context, hc *HookContext) HookResult

// HookSet maps hook names to hooks.
type HookSet map[string]Hook
