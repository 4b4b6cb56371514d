package jsonfeed

import (
	"errors"
	"fmt"

	"github.com/arnodel/jsonfeed/charset"
)

// EncodingError reports input bytes which are not valid in the declared
// charset, including invalid UTF-8 in UTF-8 input.
type EncodingError = charset.EncodingError

var (
	// ErrUnsupportedCharset is wrapped by the error returned when the charset
	// of the input is unknown.
	ErrUnsupportedCharset = charset.ErrUnsupportedCharset

	// ErrEmptyDocument is wrapped by a MaterializationError when the input
	// contained no JSON value.
	ErrEmptyDocument = errors.New("empty document")

	// ErrTrailingData is wrapped by a MaterializationError when the input
	// contained more than one JSON value.
	ErrTrailingData = errors.New("trailing data after JSON value")

	// ErrParserUnavailable can be returned by a parser factory to select the
	// buffering decoder.
	ErrParserUnavailable = errors.New("non-blocking parser unavailable")
)

// A ParseFeedError reports input which the tokenizer rejected.  Err is
// usually a *json.SyntaxError.
type ParseFeedError struct {
	Err error
}

func (e *ParseFeedError) Error() string {
	return fmt.Sprintf("jsonfeed: %s", e.Err)
}

func (e *ParseFeedError) Unwrap() error {
	return e.Err
}

// A MaterializationError reports a failure to build the target value from a
// complete token stream.
type MaterializationError struct {
	Err error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("jsonfeed: materialize: %s", e.Err)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}
