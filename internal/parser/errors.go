package parser

import (
	"fmt"

	"github.com/dgallion1/uidoc/internal/token"
)

// BracketError reports a mismatched or unclosed delimiter.
type BracketError struct {
	Pos token.Pos
	Msg string
}

func (e *BracketError) Error() string {
	return fmt.Sprintf("%s: bracket error: %s", e.Pos, e.Msg)
}

// Validation error codes.
const (
	CodeUnexpectedSuccessor = "UNEXPECTED_SUCCESSOR"
	CodeImproperTextArgs    = "IMPROPER_TEXT_ARGUMENTS"
	CodeNumberWithoutFont   = "NUMBER_WITHOUT_FONT"
	CodeAfterIdentifier     = "UNEXPECTED_AFTER_IDENTIFIER"
)

// ValidationError reports a token pair the adjacency table rejects.
type ValidationError struct {
	Code string
	Pos  token.Pos
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Msg)
}

// Error is a structural parse error. Parsing stops at the first one.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: parse error: %s", e.Pos, e.Msg)
}
