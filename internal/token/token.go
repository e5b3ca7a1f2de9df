// Package token defines the lexical tokens of the uidoc markup language.
package token

import "fmt"

// Kind is the category of a token.
type Kind int

const (
	Div Kind = iota
	Label
	Image
	Text
	Semicolon    // ;
	OpenParen    // (
	CloseParen   // )
	OpenBracket  // [
	CloseBracket // ]
	Identifier   // :name
	String       // "..."
	Number       // 123
)

var kindNames = map[Kind]string{
	Div:          "div",
	Label:        "label",
	Image:        "image",
	Text:         "text",
	Semicolon:    "';'",
	OpenParen:    "'('",
	CloseParen:   "')'",
	OpenBracket:  "'['",
	CloseBracket: "']'",
	Identifier:   "identifier",
	String:       "string",
	Number:       "number",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k is one of the four element keywords.
func (k Kind) IsKeyword() bool {
	return k == Div || k == Label || k == Image || k == Text
}

// Pos is a 1-based line and column in the source text.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p was set by the lexer.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// Token is one lexical unit. Text holds the decoded value for identifiers
// and string literals; Num holds the value of a number literal.
type Token struct {
	Kind Kind
	Text string
	Num  uint64
	Pos  Pos
}

func (t Token) String() string {
	switch t.Kind {
	case Identifier:
		return fmt.Sprintf("identifier(%s)", t.Text)
	case String:
		lit := t.Text
		if len(lit) > 20 {
			lit = lit[:17] + "..."
		}
		return fmt.Sprintf("string(%q)", lit)
	case Number:
		return fmt.Sprintf("number(%d)", t.Num)
	}
	return t.Kind.String()
}
