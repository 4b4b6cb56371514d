// Package charset converts text in any supported character encoding to
// UTF-8, a chunk at a time.  Multi-byte sequences may be split between
// chunks: the undecoded tail of a chunk is kept until the next one arrives.
package charset

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrUnsupportedCharset is wrapped by the error returned when a charset
	// name is unknown or has no implementation.
	ErrUnsupportedCharset = errors.New("unsupported charset")

	// ErrMalformedInput is wrapped by an EncodingError when the input is not
	// valid in its declared charset.
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnmappable is wrapped by an EncodingError when text cannot be
	// represented in the target charset.
	ErrUnmappable = errors.New("unmappable character")
)

// An EncodingError reports bytes that could not be decoded from, or text that
// could not be encoded to, a charset.
type EncodingError struct {
	Charset string
	Err     error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("charset %s: %s", e.Charset, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Charset is a character encoding resolved from its name.
type Charset struct {
	// Name is the canonical name, e.g. "ISO-8859-1" for "latin1".
	Name     string
	Encoding encoding.Encoding
}

// UTF8 is the default charset of JSON text.
var UTF8 = &Charset{Name: "UTF-8", Encoding: unicode.UTF8}

// Lookup resolves IANA names and aliases, falling back to the labels of the
// WHATWG Encoding Standard.  Matching is case-insensitive.
func Lookup(name string) (*Charset, error) {
	name = strings.TrimSpace(name)
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil || e == nil {
		// Registered but unsupported names also end up here.
		e, err = htmlindex.Get(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, name)
		}
	}
	return &Charset{Name: canonicalName(e, name), Encoding: e}, nil
}

func canonicalName(e encoding.Encoding, fallback string) string {
	if name, err := ianaindex.MIME.Name(e); err == nil && name != "" {
		return name
	}
	if name, err := ianaindex.IANA.Name(e); err == nil && name != "" {
		return name
	}
	if name, err := htmlindex.Name(e); err == nil && name != "" {
		return name
	}
	return fallback
}

// IsUTF8Compatible is true when any text in the charset is already valid
// UTF-8, i.e. for UTF-8 and US-ASCII.
func (c *Charset) IsUTF8Compatible() bool {
	return c.Encoding == unicode.UTF8 || c.Name == "UTF-8" || c.Name == "US-ASCII"
}

// NewTranscoder returns a Transcoder from c to UTF-8.
func (c *Charset) NewTranscoder() Transcoder {
	if c.IsUTF8Compatible() {
		return Identity
	}
	return &decoder{
		charset: c.Name,
		dec:     c.Encoding.NewDecoder(),
		strict:  !canEncodeReplacement(c.Encoding),
		pairs:   newSurrogatePairs(c.Name),
	}
}

// Encode converts UTF-8 text to c.
func (c *Charset) Encode(b []byte) ([]byte, error) {
	if c.Encoding == unicode.UTF8 || c.Name == "UTF-8" {
		return b, nil
	}
	out, err := c.Encoding.NewEncoder().Bytes(b)
	if err != nil {
		return nil, &EncodingError{Charset: c.Name, Err: fmt.Errorf("%w: %w", ErrUnmappable, err)}
	}
	return out, nil
}

// New returns a Transcoder from the named charset to UTF-8.
func New(name string) (Transcoder, error) {
	c, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return c.NewTranscoder(), nil
}

// Encode converts UTF-8 text to the named charset.
func Encode(b []byte, name string) ([]byte, error) {
	c, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return c.Encode(b)
}

// FromContentType returns the charset parameter of a media type such as
// "application/json; charset=ISO-8859-1", or def if there is none.
func FromContentType(contentType, def string) string {
	if contentType == "" {
		return def
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return def
	}
	if cs := params["charset"]; cs != "" {
		return cs
	}
	return def
}

// canEncodeReplacement reports whether U+FFFD is part of the repertoire of e.
// Decoders substitute U+FFFD for malformed input, so when the charset cannot
// contain it, finding it in the output means the input was malformed.
func canEncodeReplacement(e encoding.Encoding) bool {
	_, err := e.NewEncoder().String("\uFFFD")
	return err == nil
}
