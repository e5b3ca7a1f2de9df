package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/uidoc/internal/token"
)

// Validate runs the two pre-parse passes: bracket matching, then the
// adjacency check. Neither is a full grammar; Parse enforces structure.
func Validate(toks []token.Token) error {
	if err := CheckBrackets(toks); err != nil {
		return err
	}
	return CheckAdjacency(toks)
}

type bracket struct {
	kind token.Kind // OpenParen or OpenBracket
	pos  token.Pos
}

func bracketName(k token.Kind) string {
	if k == token.OpenParen {
		return "parenthesis"
	}
	return "square bracket"
}

// CheckBrackets verifies that parentheses and square brackets are balanced
// and that every close matches the innermost open of the same kind.
func CheckBrackets(toks []token.Token) error {
	var stack []bracket
	for _, t := range toks {
		switch t.Kind {
		case token.OpenParen, token.OpenBracket:
			stack = append(stack, bracket{kind: t.Kind, pos: t.Pos})
		case token.CloseParen, token.CloseBracket:
			open := token.OpenParen
			if t.Kind == token.CloseBracket {
				open = token.OpenBracket
			}
			if len(stack) == 0 {
				return &BracketError{
					Pos: t.Pos,
					Msg: fmt.Sprintf("attempted to close a %s which was never opened", bracketName(open)),
				}
			}
			top := stack[len(stack)-1]
			if top.kind != open {
				return &BracketError{
					Pos: t.Pos,
					Msg: fmt.Sprintf("attempted to close a %s (opened at %s) with a %s",
						bracketName(top.kind), top.pos, t.Kind),
				}
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		open := make([]string, len(stack))
		for i, b := range stack {
			open[i] = fmt.Sprintf("%s at %s", bracketName(b.kind), b.pos)
		}
		return &BracketError{
			Pos: stack[len(stack)-1].pos,
			Msg: "unclosed delimiters: " + strings.Join(open, ", "),
		}
	}
	return nil
}

var elementStarts = []token.Kind{token.Div, token.Label, token.Image, token.Text}

// successors maps each token kind to the kinds allowed directly after it.
// An identifier may follow any keyword; a string may follow '('.
var successors = map[token.Kind][]token.Kind{
	token.Div:          {token.Identifier, token.OpenBracket, token.Semicolon},
	token.Label:        {token.Identifier, token.OpenParen, token.OpenBracket, token.Semicolon},
	token.Image:        {token.Identifier, token.OpenParen, token.OpenBracket, token.Semicolon},
	token.Text:         {token.Identifier, token.OpenParen, token.OpenBracket, token.Semicolon},
	token.Semicolon:    append(slices.Clone(elementStarts), token.CloseBracket),
	token.OpenBracket:  elementStarts,
	token.CloseBracket: append(slices.Clone(elementStarts), token.CloseBracket, token.Semicolon),
	token.OpenParen:    {token.String},
	token.CloseParen:   {token.Semicolon, token.OpenBracket},
	token.String:       {token.String, token.Number, token.CloseParen},
	token.Number:       {token.CloseParen},
	token.Identifier:   {token.Semicolon, token.OpenParen, token.OpenBracket},
}

// Successors returns the kinds allowed directly after k.
func Successors(k token.Kind) []token.Kind {
	return successors[k]
}

// CheckAdjacency scans the tokens as a sliding pair against the successor
// table. A number must also be directly preceded by two strings.
func CheckAdjacency(toks []token.Token) error {
	for i, cur := range toks {
		if cur.Kind == token.Number {
			if i < 2 || toks[i-1].Kind != token.String || toks[i-2].Kind != token.String {
				return &ValidationError{
					Code: CodeNumberWithoutFont,
					Pos:  cur.Pos,
					Msg:  "a number must be preceded by two strings: the text and its font",
				}
			}
		}
		if i == len(toks)-1 {
			break
		}
		next := toks[i+1]
		allowed := successors[cur.Kind]
		if slices.Contains(allowed, next.Kind) {
			continue
		}
		switch cur.Kind {
		case token.String:
			return &ValidationError{
				Code: CodeImproperTextArgs,
				Pos:  next.Pos,
				Msg:  fmt.Sprintf("improper argument syntax: %s after %s", next, cur),
			}
		case token.Identifier:
			return &ValidationError{
				Code: CodeAfterIdentifier,
				Pos:  next.Pos,
				Msg:  fmt.Sprintf("unexpected %s after %s", next, cur),
			}
		}
		return &ValidationError{
			Code: CodeUnexpectedSuccessor,
			Pos:  next.Pos,
			Msg:  fmt.Sprintf("unexpected %s after %s, acceptable: %s", next, cur, kindList(allowed)),
		}
	}
	return nil
}

func kindList(kinds []token.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
