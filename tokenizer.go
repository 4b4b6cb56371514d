package jsonfeed

import (
	"errors"
	"fmt"

	"github.com/arnodel/jsonfeed/charset"
	"github.com/arnodel/jsonfeed/encoding/json"
	"github.com/arnodel/jsonfeed/token"
)

// A NonBlockingParser tokenizes UTF-8 JSON text which is pushed to it.
// NextToken returns json.NotAvailable when more input is needed, and a nil
// token once the input is exhausted after EndOfInput.  *json.Parser is the
// default implementation.
type NonBlockingParser interface {
	Feed([]byte) error
	EndOfInput()
	NextToken() (token.Token, error)
}

var _ NonBlockingParser = (*json.Parser)(nil)

// tokenizer feeds a NonBlockingParser and appends the tokens it produces to
// a buffer, never waiting for more input.
type tokenizer struct {
	parser  NonBlockingParser
	tokens  *token.Buffer
	charset string
}

func newTokenizer(p NonBlockingParser, charsetName string) *tokenizer {
	return &tokenizer{parser: p, tokens: token.NewBuffer(), charset: charsetName}
}

func (t *tokenizer) feed(chunks [][]byte) error {
	for _, chunk := range chunks {
		if err := t.parser.Feed(chunk); err != nil {
			return t.wrap(err)
		}
	}
	return nil
}

// drain moves every complete token out of the parser.
func (t *tokenizer) drain() error {
	for {
		tok, err := t.parser.NextToken()
		if err != nil {
			return t.wrap(err)
		}
		if tok == nil || tok == json.NotAvailable {
			return nil
		}
		t.tokens.Put(tok)
	}
}

func (t *tokenizer) endOfInput() error {
	t.parser.EndOfInput()
	return t.drain()
}

func (t *tokenizer) wrap(err error) error {
	return wrapDecodeError(err, t.charset)
}

// wrapDecodeError turns invalid UTF-8 into an *EncodingError and any other
// parser failure into a *ParseFeedError.
func wrapDecodeError(err error, charsetName string) error {
	if errors.Is(err, json.ErrInvalidUTF8) {
		return &EncodingError{
			Charset: charsetName,
			Err:     fmt.Errorf("%w: %w", charset.ErrMalformedInput, err),
		}
	}
	return &ParseFeedError{Err: err}
}
