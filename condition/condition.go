/*
Package condition evaluates typed boolean expressions over named variables.

PURPOSE:
  Inspection questions (and similar configurable UI elements) show or
  hide themselves based on boolean conditions configured per tenant.
  The legacy system evaluated free-form source text at runtime; this
  package replaces that with a small typed expression tree - AND/OR/NOT
  over named boolean variables - parsed once and evaluated by tree
  walking. No code execution, no injection surface, parse errors caught
  at configuration time instead of display time.

GRAMMAR (case-insensitive keywords, French with English synonyms):
  expr   := or
  or     := and   { ("OU" | "OR" | "||") and }
  and    := unary { ("ET" | "AND" | "&&") unary }
  unary  := ("NON" | "NOT" | "!") unary | primary
  primary:= "(" expr ")" | identifier

EVALUATION:
  Variables absent from the context evaluate to false - a missing
  answer can only hide, never crash.

USAGE:
  expr, err := condition.Parse("alarme_activee ET NON (visite_annuelle OU exempte)")
  visible := expr.Eval(map[string]bool{"alarme_activee": true})
*/
package condition

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// =============================================================================
// EXPRESSION TREE
// =============================================================================

// Expr is a parsed boolean expression.
type Expr interface {
	Eval(vars map[string]bool) bool
	String() string
}

type varExpr struct{ name string }

func (e varExpr) Eval(vars map[string]bool) bool { return vars[e.name] }
func (e varExpr) String() string                 { return e.name }

type notExpr struct{ inner Expr }

func (e notExpr) Eval(vars map[string]bool) bool { return !e.inner.Eval(vars) }
func (e notExpr) String() string                 { return "NON " + e.inner.String() }

type andExpr struct{ left, right Expr }

func (e andExpr) Eval(vars map[string]bool) bool { return e.left.Eval(vars) && e.right.Eval(vars) }
func (e andExpr) String() string {
	return "(" + e.left.String() + " ET " + e.right.String() + ")"
}

type orExpr struct{ left, right Expr }

func (e orExpr) Eval(vars map[string]bool) bool { return e.left.Eval(vars) || e.right.Eval(vars) }
func (e orExpr) String() string {
	return "(" + e.left.String() + " OU " + e.right.String() + ")"
}

// =============================================================================
// PARSER - recursive descent over a token stream
// =============================================================================

var ErrParse = errors.New("condition parse error")

type ParseError struct {
	Input    string
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d in %q: %s", e.Position, e.Input, e.Message)
}

func (e *ParseError) Unwrap() error { return ErrParse }

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	input  string
	tokens []token
	i      int
}

// Parse compiles a condition string into an expression tree.
func Parse(input string) (Expr, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &ParseError{Input: input, Position: tok.pos, Message: "unexpected " + tok.text}
	}
	return expr, nil
}

// MustParse is for static, known-good conditions (tests, defaults).
func MustParse(input string) Expr {
	expr, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return expr
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case c == '!':
			tokens = append(tokens, token{tokNot, "!", i})
			i++
		case c == '&' && i+1 < len(input) && input[i+1] == '&':
			tokens = append(tokens, token{tokAnd, "&&", i})
			i += 2
		case c == '|' && i+1 < len(input) && input[i+1] == '|':
			tokens = append(tokens, token{tokOr, "||", i})
			i += 2
		case isIdentRune(rune(c)):
			start := i
			for i < len(input) && isIdentRune(rune(input[i])) {
				i++
			}
			word := input[start:i]
			switch strings.ToUpper(word) {
			case "ET", "AND":
				tokens = append(tokens, token{tokAnd, word, start})
			case "OU", "OR":
				tokens = append(tokens, token{tokOr, word, start})
			case "NON", "NOT":
				tokens = append(tokens, token{tokNot, word, start})
			default:
				tokens = append(tokens, token{tokIdent, word, start})
			}
		default:
			return nil, &ParseError{Input: input, Position: i, Message: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(input)})
	return tokens, nil
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (p *parser) peek() token { return p.tokens[p.i] }

func (p *parser) next() token {
	tok := p.tokens[p.i]
	if tok.kind != tokEOF {
		p.i++
	}
	return tok
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent:
		return varExpr{name: tok.text}, nil
	case tokLParen:
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &ParseError{Input: p.input, Position: closing.pos, Message: "expected )"}
		}
		return expr, nil
	case tokEOF:
		return nil, &ParseError{Input: p.input, Position: tok.pos, Message: "unexpected end of input"}
	default:
		return nil, &ParseError{Input: p.input, Position: tok.pos, Message: "unexpected " + tok.text}
	}
}
