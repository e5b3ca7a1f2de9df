// Package lexer turns uidoc source text into a token sequence.
//
// Whitespace (space, tab, CR, LF) and commas separate tokens and are
// otherwise ignored. Block comments are delimited by '{' and '}' and do not
// nest. Identifiers are introduced by ':' and string literals by '"'.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/uidoc/internal/token"
)

// Error is a lexical error. It is fatal for the whole document.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: lex error: %s", e.Pos, e.Msg)
}

var keywords = []struct {
	word string
	kind token.Kind
}{
	{"div", token.Div},
	{"label", token.Label},
	{"image", token.Image},
	{"text", token.Text},
}

// IsIdentChar reports whether ch belongs to the identifier alphabet
// {A-Z, a-z, 0-9, '-', '_'}.
func IsIdentChar(ch rune) bool {
	return ch >= 'a' && ch <= 'z' ||
		ch >= 'A' && ch <= 'Z' ||
		ch >= '0' && ch <= '9' ||
		ch == '-' || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

type lexer struct {
	src  []rune
	off  int
	line int
	col  int
	toks []token.Token
}

// Lex scans the whole of src and returns its tokens in order.
func Lex(src string) ([]token.Token, error) {
	l := &lexer{
		src:  []rune(src),
		line: 1,
		col:  1,
		toks: make([]token.Token, 0, len(src)/4),
	}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.toks, nil
}

func (l *lexer) run() error {
	for {
		l.skipSpace()
		if l.off >= len(l.src) {
			return nil
		}
		pos := l.pos()
		ch := l.src[l.off]

		switch ch {
		case ';':
			l.emitRune(token.Semicolon, pos)
			continue
		case '(':
			l.emitRune(token.OpenParen, pos)
			continue
		case ')':
			l.emitRune(token.CloseParen, pos)
			continue
		case '[':
			l.emitRune(token.OpenBracket, pos)
			continue
		case ']':
			l.emitRune(token.CloseBracket, pos)
			continue
		case '{':
			if err := l.skipComment(pos); err != nil {
				return err
			}
			continue
		case ':':
			l.scanIdentifier(pos)
			continue
		case '"':
			if err := l.scanString(pos); err != nil {
				return err
			}
			continue
		}

		if kind, ok := l.matchKeyword(); ok {
			l.toks = append(l.toks, token.Token{Kind: kind, Pos: pos})
			continue
		}
		if isDigit(ch) {
			if err := l.scanNumber(pos); err != nil {
				return err
			}
			continue
		}
		return &Error{Pos: pos, Msg: l.unexpected()}
	}
}

func (l *lexer) pos() token.Pos {
	return token.Pos{Line: l.line, Column: l.col}
}

// advance consumes one rune, keeping line and column current.
func (l *lexer) advance() rune {
	ch := l.src[l.off]
	l.off++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *lexer) skipSpace() {
	for l.off < len(l.src) {
		switch l.src[l.off] {
		case ' ', '\t', '\r', '\n', ',':
			l.advance()
		default:
			return
		}
	}
}

func (l *lexer) emitRune(kind token.Kind, pos token.Pos) {
	l.advance()
	l.toks = append(l.toks, token.Token{Kind: kind, Pos: pos})
}

func (l *lexer) skipComment(pos token.Pos) error {
	l.advance() // {
	for l.off < len(l.src) {
		if l.advance() == '}' {
			return nil
		}
	}
	return &Error{Pos: pos, Msg: "unterminated comment"}
}

// scanIdentifier reads ':' then optional whitespace then a run of identifier
// characters. The run may be empty.
func (l *lexer) scanIdentifier(pos token.Pos) {
	l.advance() // :
	for l.off < len(l.src) {
		switch l.src[l.off] {
		case ' ', '\t', '\r', '\n':
			l.advance()
			continue
		}
		break
	}
	start := l.off
	for l.off < len(l.src) && IsIdentChar(l.src[l.off]) {
		l.advance()
	}
	l.toks = append(l.toks, token.Token{
		Kind: token.Identifier,
		Text: string(l.src[start:l.off]),
		Pos:  pos,
	})
}

func (l *lexer) scanString(pos token.Pos) error {
	l.advance() // opening quote
	var sb strings.Builder
	for l.off < len(l.src) {
		ch := l.advance()
		switch ch {
		case '"':
			l.toks = append(l.toks, token.Token{Kind: token.String, Text: sb.String(), Pos: pos})
			return nil
		case '\\':
			if l.off >= len(l.src) {
				return &Error{Pos: pos, Msg: "unterminated string literal"}
			}
			escPos := l.pos()
			esc := l.advance()
			switch esc {
			case 't':
				sb.WriteRune('\t')
			case 'n':
				sb.WriteRune('\n')
			case '\\':
				sb.WriteRune('\\')
			case '"':
				sb.WriteRune('"')
			default:
				return &Error{Pos: escPos, Msg: fmt.Sprintf("invalid escape character %q", esc)}
			}
		default:
			sb.WriteRune(ch)
		}
	}
	return &Error{Pos: pos, Msg: "unterminated string literal"}
}

// matchKeyword consumes a keyword when its spelling is present and the
// following character is not part of the identifier alphabet.
func (l *lexer) matchKeyword() (token.Kind, bool) {
	for _, kw := range keywords {
		end := l.off + len(kw.word)
		if end > len(l.src) || string(l.src[l.off:end]) != kw.word {
			continue
		}
		if end < len(l.src) && IsIdentChar(l.src[end]) {
			continue
		}
		for i := 0; i < len(kw.word); i++ {
			l.advance()
		}
		return kw.kind, true
	}
	return 0, false
}

func (l *lexer) scanNumber(pos token.Pos) error {
	start := l.off
	for l.off < len(l.src) && isDigit(l.src[l.off]) {
		l.advance()
	}
	lit := string(l.src[start:l.off])
	n, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		return &Error{Pos: pos, Msg: fmt.Sprintf("number %s out of range", lit)}
	}
	l.toks = append(l.toks, token.Token{Kind: token.Number, Num: n, Pos: pos})
	return nil
}

// unexpected describes the current character together with its neighbours.
func (l *lexer) unexpected() string {
	ch := l.src[l.off]
	prev, next := "start of input", "end of input"
	if l.off > 0 {
		prev = strconv.QuoteRune(l.src[l.off-1])
	}
	if l.off+1 < len(l.src) {
		next = strconv.QuoteRune(l.src[l.off+1])
	}
	return fmt.Sprintf("unexpected character %q (previous: %s, next: %s)", ch, prev, next)
}
