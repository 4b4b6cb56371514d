package json

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/arnodel/jsonfeed/internal/scanner"
)

// ErrInvalidUTF8 is wrapped by a SyntaxError when a string contains bytes
// which are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// ErrFeedAfterEnd is returned by (*Parser).Feed after EndOfInput was called.
var ErrFeedAfterEnd = errors.New("json: input fed after end of input")

// A SyntaxError reports invalid JSON input and where it was found.
type SyntaxError struct {
	Pos scanner.Pos
	Msg string

	// Err is ErrInvalidUTF8, io.ErrUnexpectedEOF or nil.
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func unexpectedByte(pos scanner.Pos, b byte, expected string, args ...any) *SyntaxError {
	// Non-ASCII bytes are shown in hex, %q would print the rune U+00XX.
	format := "%s: %q"
	if b >= utf8.RuneSelf {
		format = "%s: %#02x"
	}
	return &SyntaxError{
		Pos: pos,
		Msg: fmt.Sprintf(format, fmt.Sprintf(expected, args...), b),
	}
}

func unexpectedEOF(pos scanner.Pos, where string) *SyntaxError {
	return &SyntaxError{
		Pos: pos,
		Msg: "unexpected end of input " + where,
		Err: io.ErrUnexpectedEOF,
	}
}

func invalidUTF8(pos scanner.Pos) *SyntaxError {
	return &SyntaxError{
		Pos: pos,
		Msg: "invalid UTF-8 in string",
		Err: ErrInvalidUTF8,
	}
}
