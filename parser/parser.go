// Package parser is a recursive-descent reader over the lexer's token
// stream. S-expressions have no infix precedence, so there is no Pratt
// machinery here, just one function per grammar production. It
// produces value.Value trees directly: there is no separate ast
// package, because the value model already doubles as the parsed
// expression tree (homoiconicity), so a parsed call and a quoted list
// literal are both a value.List.
package parser

import (
	"strconv"
	"strings"

	"github.com/yourfavoritedev/goscheme/lexer"
	"github.com/yourfavoritedev/goscheme/scmerr"
	"github.com/yourfavoritedev/goscheme/value"
)

// Parser reads one token of lookahead from l.
type Parser struct {
	l   *lexer.Lexer
	cur lexer.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.l.NextToken()
}

// Parse reads every top-level form in the source and returns them as
// a value.Sequence, the representation compiler.Compile expects for a
// whole program or a REPL line. An empty input yields an empty
// Sequence.
func Parse(source string) (value.Value, error) {
	p := New(lexer.New(source))
	var forms []value.Value
	for p.cur.Type != lexer.EOF {
		form, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return value.Sequence{Items: forms}, nil
}

// ParseOne reads exactly one form, the shape used when embedding code
// wants to compile a single expression rather than a whole program.
func ParseOne(source string) (value.Value, error) {
	p := New(lexer.New(source))
	if p.cur.Type == lexer.EOF {
		return nil, scmerr.NewParseError("expected an expression, got end of input")
	}
	return p.parseExpr()
}

func (p *Parser) parseExpr() (value.Value, error) {
	switch p.cur.Type {
	case lexer.LPAREN:
		return p.parseSequence()
	case lexer.RPAREN:
		return nil, scmerr.NewParseError("unexpected )")
	case lexer.QUOTE:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return value.Quote{Expr: inner}, nil
	case lexer.STRING:
		s := value.String(p.cur.Literal)
		p.advance()
		return s, nil
	case lexer.ATOM:
		return p.parseAtom()
	case lexer.EOF:
		return nil, scmerr.NewParseError("unexpected end of input")
	default:
		return nil, scmerr.NewParseError("malformed token %q", p.cur.Literal)
	}
}

// parseSequence reads a parenthesized list of expressions, collecting
// them into a value.List; an empty pair of parens yields value.Nil,
// the empty list. This single representation serves both a
// quoted list literal and an unevaluated call/special-form shape; the
// compiler tells them apart by position (inside a Quote or not).
func (p *Parser) parseSequence() (value.Value, error) {
	p.advance() // consume '('
	var items []value.Value
	for {
		if p.cur.Type == lexer.EOF {
			return nil, scmerr.NewParseError("unterminated list: expected )")
		}
		if p.cur.Type == lexer.RPAREN {
			p.advance()
			if len(items) == 0 {
				return value.Nil{}, nil
			}
			return value.List{Items: items}, nil
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, expr)
	}
}

// parseAtom classifies a bare ATOM token: the dot keyword, a boolean
// literal, a number, or an identifier.
func (p *Parser) parseAtom() (value.Value, error) {
	lit := p.cur.Literal
	p.advance()

	if lit == "." {
		return value.Keyword(value.DotKeyword), nil
	}

	if lit == "#t" {
		return value.Bool(true), nil
	}
	if lit == "#f" {
		return value.Bool(false), nil
	}

	if n, ok := parseNumber(lit); ok {
		return value.Number(n), nil
	}

	return value.Ident(lit), nil
}

// parseNumber accepts a plain decimal numeric literal, optionally
// signed. Identifiers like "-" or "->foo" are not numbers even though
// they start with a sign character, so a bare sign or a sign followed
// by a non-digit is rejected and falls through to being an
// identifier.
func parseNumber(lit string) (float64, bool) {
	if lit == "" {
		return 0, false
	}
	s := lit
	if s[0] == '+' || s[0] == '-' {
		if len(s) == 1 {
			return 0, false
		}
		s = s[1:]
	}
	if !strings.ContainsAny(s[:1], "0123456789.") {
		return 0, false
	}
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
