// Package parser validates a token sequence and builds the syntax tree.
//
// Grammar:
//
//	node       := container | label | image | text
//	container  := 'div'   id? tail
//	label      := 'label' id? '(' string ')' tail
//	image      := 'image' id? '(' string ')' tail
//	text       := 'text'  id? '(' string (string number?)? ')' tail
//	tail       := ';' | '[' node+ ']' ';'?
//
// The arguments of a text node are not stored in the tree. Each one is
// appended to Result.Texts in document order, so the i-th Text node of the
// tree and Texts[i] describe the same source occurrence.
package parser

import (
	"fmt"

	"github.com/dgallion1/uidoc/internal/ast"
	"github.com/dgallion1/uidoc/internal/token"
)

// DefaultMaxDepth bounds element nesting.
const DefaultMaxDepth = 256

// Result is the output of a successful parse.
type Result struct {
	Root  *ast.Point
	Texts []ast.TextArgument
}

// Option configures Parse.
type Option func(*parser)

// WithMaxDepth sets the maximum element nesting depth. Values below 1 are
// ignored.
func WithMaxDepth(n int) Option {
	return func(p *parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

type parser struct {
	toks     []token.Token
	pos      int
	texts    []ast.TextArgument
	maxDepth int
}

// Parse validates toks and parses exactly one root element from them.
// The token slice is read, never modified.
func Parse(toks []token.Token, opts ...Option) (*Result, error) {
	if len(toks) == 0 {
		return nil, &Error{Pos: token.Pos{Line: 1, Column: 1}, Msg: "empty document"}
	}
	if err := Validate(toks); err != nil {
		return nil, err
	}

	p := &parser{toks: toks, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}

	root, err := p.parseNode(1)
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("unexpected %s after the root element", tok)}
	}
	return &Result{Root: root, Texts: p.texts}, nil
}

func (p *parser) peek() (token.Token, bool) {
	if p.pos >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[p.pos], true
}

// next consumes one token. At end of input it reports what was expected.
func (p *parser) next(expected string) (token.Token, error) {
	tok, ok := p.peek()
	if !ok {
		return token.Token{}, &Error{
			Pos: p.toks[len(p.toks)-1].Pos,
			Msg: "unexpected end of input, expected " + expected,
		}
	}
	p.pos++
	return tok, nil
}

func (p *parser) expect(kind token.Kind, context string) (token.Token, error) {
	tok, err := p.next(kind.String())
	if err != nil {
		return tok, err
	}
	if tok.Kind != kind {
		return tok, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("%s: expected %s, found %s", context, kind, tok)}
	}
	return tok, nil
}

var nodeKinds = map[token.Kind]ast.Kind{
	token.Div:   ast.Container,
	token.Label: ast.Label,
	token.Image: ast.Image,
	token.Text:  ast.Text,
}

func (p *parser) parseNode(depth int) (*ast.Point, error) {
	head, err := p.next("an element")
	if err != nil {
		return nil, err
	}
	if depth > p.maxDepth {
		return nil, &Error{Pos: head.Pos, Msg: fmt.Sprintf("elements nested deeper than %d levels", p.maxDepth)}
	}
	kind, ok := nodeKinds[head.Kind]
	if !ok {
		return nil, &Error{Pos: head.Pos, Msg: fmt.Sprintf("expected div, label, image or text, found %s", head)}
	}

	node := ast.Node{Kind: kind, Pos: head.Pos}
	if tok, ok := p.peek(); ok && tok.Kind == token.Identifier {
		node.ID = tok.Text
		p.pos++
	}

	switch kind {
	case ast.Label:
		node.Arg, err = p.parseStringArg(`labels require text: label("...")`)
	case ast.Image:
		node.Arg, err = p.parseStringArg(`images require an image id: image("...")`)
	case ast.Text:
		err = p.parseTextArgs()
	}
	if err != nil {
		return nil, err
	}

	return p.parseTail(node, depth)
}

func (p *parser) parseStringArg(context string) (string, error) {
	if _, err := p.expect(token.OpenParen, context); err != nil {
		return "", err
	}
	s, err := p.expect(token.String, context)
	if err != nil {
		return "", err
	}
	if _, err := p.expect(token.CloseParen, "unclosed argument list"); err != nil {
		return "", err
	}
	return s.Text, nil
}

// parseTextArgs reads '(' body [font [size]] ')' and appends the argument.
func (p *parser) parseTextArgs() error {
	const context = `text requires contents: text("body" "font" size)`
	if _, err := p.expect(token.OpenParen, context); err != nil {
		return err
	}
	body, err := p.expect(token.String, context)
	if err != nil {
		return err
	}
	arg := ast.TextArgument{Body: body.Text}

	tok, err := p.next("')' or a font name")
	if err != nil {
		return err
	}
	switch tok.Kind {
	case token.CloseParen:
		p.texts = append(p.texts, arg)
		return nil
	case token.String:
		if tok.Text == "" {
			return &Error{Pos: tok.Pos, Msg: "font name must not be empty"}
		}
		arg.Font = tok.Text
	case token.Number:
		return &Error{Pos: tok.Pos, Msg: "a size must be preceded by a body and a font name"}
	default:
		return &Error{Pos: tok.Pos, Msg: fmt.Sprintf("improper token after the body of a text: %s", tok)}
	}

	tok, err = p.next("')' or a size")
	if err != nil {
		return err
	}
	switch tok.Kind {
	case token.CloseParen:
		p.texts = append(p.texts, arg)
		return nil
	case token.Number:
		arg.Size, arg.HasSize = tok.Num, true
	default:
		return &Error{Pos: tok.Pos, Msg: fmt.Sprintf("improper token after the font of a text: %s", tok)}
	}

	if _, err := p.expect(token.CloseParen, "unexpected token after size in text"); err != nil {
		return err
	}
	p.texts = append(p.texts, arg)
	return nil
}

func (p *parser) parseTail(node ast.Node, depth int) (*ast.Point, error) {
	tok, err := p.next("';' or '['")
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case token.Semicolon:
		return ast.Element(node), nil
	case token.OpenBracket:
	default:
		return nil, &Error{Pos: tok.Pos, Msg: fmt.Sprintf("expected ';' or '[' after %s, found %s", node.Kind, tok)}
	}

	var children []*ast.Point
	for {
		next, ok := p.peek()
		if !ok {
			return nil, &Error{Pos: tok.Pos, Msg: "unclosed child list"}
		}
		if next.Kind == token.CloseBracket {
			if len(children) == 0 {
				return nil, &Error{Pos: next.Pos, Msg: "child list must not be empty"}
			}
			p.pos++
			break
		}
		child, err := p.parseNode(depth + 1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if next, ok := p.peek(); ok && next.Kind == token.Semicolon {
		p.pos++
	}
	return ast.Joint(node, children...), nil
}
