package grammar

import (
	"fmt"
	"strings"

	verr "github.com/nihei9/lrgen/error"
	"github.com/nihei9/lrgen/spec"
)

const (
	markerLexer     = "--LEXER--"
	markerComment   = "#"
	flagAddNode     = "--add"
	flagSkipNode    = "--skip"
	flagHook        = "--F"
	flagSkipPattern = "--skip"
)

// NodePolicy decides how the `--add` and `--skip` flags turn into node modes.
type NodePolicy int

const (
	// FlaggedNodes honours both flags. Other non-terminals get the default mode.
	FlaggedNodes = NodePolicy(iota)
	// AllNodes ignores the flags and gives every non-terminal the default mode.
	AllNodes
	// AddedNodesOnly materializes only the non-terminals flagged with `--add`.
	AddedNodesOnly
)

func (p NodePolicy) String() string {
	switch p {
	case AllNodes:
		return "all"
	case AddedNodesOnly:
		return "added-only"
	}
	return "flagged"
}

type Grammar struct {
	name          string
	symbolTable   *symbolTable
	productionSet *productionSet
	lexSpec       *spec.LexicalSpecification
	hooks         []*hookInfo
	nodeModes     map[symbol]spec.NodeMode
}

type GrammarBuilder struct {
	Name   string
	Policy NodePolicy

	symTab      *symbolTable
	prods       *productionSet
	lexSpec     *spec.LexicalSpecification
	literal2Sym map[string]symbol
	hooks       []*hookInfo
	nodeModes   map[symbol]spec.NodeMode
}

// Build reads a grammar text. The first malformed line stops reading.
func (b *GrammarBuilder) Build(src string) (*Grammar, error) {
	b.symTab = newSymbolTable()
	b.prods = newProductionSet()
	b.lexSpec = &spec.LexicalSpecification{}
	b.literal2Sym = map[string]symbol{}
	b.hooks = nil
	b.nodeModes = map[symbol]spec.NodeMode{}

	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}

	// The lexical block is read first so that an inline literal reuses a terminal the block
	// defines for the same text.
	ruleLines := lines
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != markerLexer {
			continue
		}
		ruleLines = lines[:i]
		for j := i + 1; j < len(lines); j++ {
			if isBlankOrComment(lines[j]) {
				continue
			}
			if err := b.readLexEntry(lines[j], j+1); err != nil {
				return nil, err
			}
		}
		break
	}

	for i, line := range ruleLines {
		if isBlankOrComment(line) {
			continue
		}
		if err := b.readProduction(line, i+1); err != nil {
			return nil, err
		}
	}
	if len(b.prods.getAllProductions()) == 0 {
		return nil, b.unexpected(0, "", "end of grammar", symbolNameStart)
	}

	tracer().P("grammar", b.Name).Debugf("%v productions, %v symbols, %v lexical entries",
		len(b.prods.getAllProductions()), b.symTab.count(), len(b.lexSpec.Entries))

	return &Grammar{
		name:          b.Name,
		symbolTable:   b.symTab,
		productionSet: b.prods,
		lexSpec:       b.lexSpec,
		hooks:         b.hooks,
		nodeModes:     b.nodeModes,
	}, nil
}

func isBlankOrComment(line string) bool {
	s := strings.TrimSpace(line)
	return s == "" || strings.HasPrefix(s, markerComment)
}

func isReservedName(name string) bool {
	switch name {
	case symbolNameEOF, symbolNameError, symbolNamePlaceholder:
		return true
	}
	return false
}

func isKeywordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

// readLexEntry reads `NAME : "literal"`, `NAME : /pattern/` or `NAME : /pattern/ --skip`.
func (b *GrammarBuilder) readLexEntry(line string, row int) error {
	name, def, ok := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	def = strings.TrimSpace(def)
	if !ok || name == "" || strings.ContainsAny(name, " \t") {
		return b.unexpected(row, line, strings.Fields(line)[0], ":")
	}
	if isReservedName(name) || name == symbolNameStart {
		return b.unexpected(row, line, name, "a terminal name")
	}
	if def == "" {
		return b.unexpected(row, line, "end of line", "a quoted literal or a /pattern/")
	}

	switch {
	case isQuote(def[0]):
		last := def[len(def)-1]
		if len(def) < 2 || last != def[0] {
			return b.unexpected(row, line, string(last), string(def[0]))
		}
		lit := def[1 : len(def)-1]
		if lit == "" {
			return b.diag(row, line, verr.CodeGrammarInvalidKeyword, verr.Args{
				"badKeyword": def,
			})
		}

		sym := b.symTab.intern(name)
		b.symTab.setLiteral(sym, lit)
		b.literal2Sym[lit] = sym
		b.lexSpec.Entries = append(b.lexSpec.Entries, &spec.LexEntry{
			Symbol:  int(sym),
			Name:    name,
			Pattern: lit,
			Literal: true,
			Keyword: isKeywordStart(lit[0]),
		})
	case def[0] == '/':
		end := strings.LastIndex(def, "/")
		if end == 0 {
			return b.unexpected(row, line, def, "/")
		}
		pat := def[1:end]
		if pat == "" {
			return b.unexpected(row, line, def, "a non-empty pattern")
		}
		skip := false
		switch rest := strings.TrimSpace(def[end+1:]); rest {
		case "":
		case flagSkipPattern:
			skip = true
		default:
			return b.unexpected(row, line, rest, flagSkipPattern)
		}

		sym := b.symTab.intern(name)
		b.lexSpec.Entries = append(b.lexSpec.Entries, &spec.LexEntry{
			Symbol:  int(sym),
			Name:    name,
			Pattern: pat,
			Skip:    skip,
		})
	default:
		return b.unexpected(row, line, def, "a quoted literal or a /pattern/")
	}

	return nil
}

// readProduction reads `Left : sym sym ... [--add] [--skip] [--F hook]`.
func (b *GrammarBuilder) readProduction(line string, row int) error {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[1] != ":" {
		u := "end of line"
		if len(fields) >= 2 {
			u = fields[1]
		}
		return b.unexpected(row, line, u, ":")
	}

	left := fields[0]
	if isReservedName(left) || isQuote(left[0]) {
		return b.unexpected(row, line, left, "a non-terminal name")
	}
	if len(b.prods.getAllProductions()) == 0 && left != symbolNameStart {
		return b.unexpected(row, line, left, symbolNameStart)
	}

	lhs := b.symTab.intern(left)
	b.symTab.markNonTerminal(lhs)
	if _, ok := b.nodeModes[lhs]; !ok {
		if b.Policy == AddedNodesOnly {
			b.nodeModes[lhs] = spec.NodeModeOmit
		} else {
			b.nodeModes[lhs] = spec.NodeModeDefault
		}
	}

	var rhs []symbol
	var hooks []*hookInfo
	for j := 2; j < len(fields); j++ {
		tok := fields[j]
		switch {
		case tok == flagAddNode:
			if b.Policy != AllNodes {
				b.nodeModes[lhs] = spec.NodeModeForced
			}
		case tok == flagSkipNode:
			if b.Policy == FlaggedNodes {
				b.nodeModes[lhs] = spec.NodeModeOmit
			}
		case tok == flagHook:
			if j+1 >= len(fields) || strings.HasPrefix(fields[j+1], "--") || len(rhs) == 0 {
				return b.diag(row, line, verr.CodeGrammarInvalidAdditionalFuncName, nil)
			}
			hooks = append(hooks, &hookInfo{
				name: fields[j+1],
				pos:  len(rhs),
			})
			j++
		case strings.HasPrefix(tok, "--"):
			return b.unexpected(row, line, tok, strings.Join([]string{flagAddNode, flagSkipNode, flagHook}, ", "))
		case isQuote(tok[0]):
			if len(tok) != 3 {
				return b.diag(row, line, verr.CodeGrammarInvalidKeyword, verr.Args{
					"badKeyword": tok,
				})
			}
			if tok[0] != tok[2] {
				return b.unexpected(row, line, string(tok[2]), string(tok[0]))
			}
			rhs = append(rhs, b.punctuator(tok[1:2]))
		case tok == symbolNamePlaceholder:
			return b.unexpected(row, line, tok, "a grammar symbol")
		case tok == symbolNameStart:
			// Accept is taken on any completed S rule, so S must not nest.
			return b.unexpected(row, line, tok, "a grammar symbol other than "+symbolNameStart)
		default:
			rhs = append(rhs, b.symTab.intern(tok))
		}
	}

	// The end of input is implicit. A start rule may still spell it out as its last symbol.
	for k, sym := range rhs {
		if sym != symbolEOF {
			continue
		}
		if left != symbolNameStart || k != len(rhs)-1 {
			return b.unexpected(row, line, symbolNameEOF, "a grammar symbol")
		}
		rhs = rhs[:k]
	}

	prod, err := newProduction(lhs, rhs)
	if err != nil {
		return err
	}
	b.prods.append(prod)
	for _, h := range hooks {
		h.prod = prod
		b.hooks = append(b.hooks, h)
	}

	return nil
}

// punctuator returns the terminal of a one-character inline literal such as '+'.
func (b *GrammarBuilder) punctuator(lit string) symbol {
	if sym, ok := b.literal2Sym[lit]; ok {
		return sym
	}
	sym := b.symTab.intern(fmt.Sprintf("%v%d", punctuatorNamePrefix, lit[0]))
	b.symTab.setLiteral(sym, lit)
	b.literal2Sym[lit] = sym
	b.lexSpec.Entries = append(b.lexSpec.Entries, &spec.LexEntry{
		Symbol:  int(sym),
		Name:    b.symTab.toText(sym),
		Pattern: lit,
		Literal: true,
		Keyword: isKeywordStart(lit[0]),
	})
	return sym
}

func (b *GrammarBuilder) unexpected(row int, line string, unexpected string, expected string) error {
	return b.diag(row, line, verr.CodeGrammarUnexpectedSymbol, verr.Args{
		"unexpectedSymbol": unexpected,
		"expectedSymbol":   expected,
	})
}

func (b *GrammarBuilder) diag(row int, line string, code verr.Code, args verr.Args) error {
	d := verr.NewCritical(code, args)
	d.File = b.Name
	if row > 0 {
		d.Range = &spec.Range{
			Start: spec.Position{Line: row, Column: 1},
			End:   spec.Position{Line: row, Column: len(line) + 1},
		}
	}
	return d
}
