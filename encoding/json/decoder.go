package json

import (
	"io"
	"unicode/utf8"

	"github.com/arnodel/jsonfeed/internal/scanner"
	"github.com/arnodel/jsonfeed/token"
)

// A Decoder reads JSON input from an io.Reader and writes its tokens to a
// token.WriteStream.  Reading blocks whenever the reader does; see Parser
// for a decoder which is fed input instead.
type Decoder struct {
	scanr *scanner.Scanner
}

var _ token.StreamSource = (*Decoder)(nil)

// NewDecoder sets up a new Decoder instance to read from the given input.
func NewDecoder(in io.Reader) *Decoder {
	return &Decoder{scanr: scanner.NewScanner(in)}
}

// Produce reads a stream of JSON values and writes their tokens to out, until
// it runs out of input or encounters invalid JSON, in which case it returns an
// error.
func (d *Decoder) Produce(out token.WriteStream) error {
	for {
		b, err := d.scanr.SkipSpaceAndPeek()
		if err != nil || b == scanner.EOF {
			return err
		}
		if err := d.ParseValue(out); err != nil {
			return err
		}
	}
}

// ParseValue reads a single JSON value and writes its tokens to out.
func (d *Decoder) ParseValue(out token.WriteStream) error {
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	switch b {
	case scanner.EOF:
		return unexpectedEOF(d.scanr.CurrentPos(), "before value")
	case '"':
		s, err := parseString(d.scanr)
		if err != nil {
			return err
		}
		out.Put(s)
		return nil
	case '[':
		return d.parseArray(out)
	case '{':
		return d.parseObject(out)
	case 't':
		return d.parseLiteral(out, token.TrueScalar)
	case 'f':
		return d.parseLiteral(out, token.FalseScalar)
	case 'n':
		return d.parseLiteral(out, token.NullScalar)
	default:
		if b == '-' || scanner.IsDigit(b) {
			n, err := parseNumber(d.scanr)
			if err != nil {
				return err
			}
			out.Put(n)
			return d.expectDelimiter()
		}
		return unexpected(d.scanr, "unexpected")
	}
}

// expectDelimiter checks that a number or literal is not immediately
// followed by something else, e.g. "truefalse".
func (d *Decoder) expectDelimiter() error {
	b, err := d.scanr.Peek()
	if err != nil {
		return err
	}
	if b != scanner.EOF && !isDelimiter(b) {
		return unexpected(d.scanr, "expected delimiter")
	}
	return nil
}

func (d *Decoder) parseLiteral(out token.WriteStream, lit *token.Scalar) error {
	for _, xb := range lit.Bytes {
		if err := expectByte(d.scanr, xb); err != nil {
			return err
		}
	}
	out.Put(lit)
	return d.expectDelimiter()
}

func (d *Decoder) parseArray(out token.WriteStream) error {
	if err := expectByte(d.scanr, '['); err != nil {
		return err
	}
	out.Put(token.StartArrayToken)
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == ']' {
		d.scanr.Read()
		out.Put(token.EndArrayToken)
		return nil
	}
	for {
		if err := d.ParseValue(out); err != nil {
			return err
		}
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		switch b {
		case ']':
			d.scanr.Read()
			out.Put(token.EndArrayToken)
			return nil
		case ',':
			d.scanr.Read()
		default:
			return unexpected(d.scanr, "expected ']' or ','")
		}
	}
}

func (d *Decoder) parseObject(out token.WriteStream) error {
	if err := expectByte(d.scanr, '{'); err != nil {
		return err
	}
	out.Put(token.StartObjectToken)
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == '}' {
		d.scanr.Read()
		out.Put(token.EndObjectToken)
		return nil
	}
	for {
		if _, err := d.scanr.SkipSpaceAndPeek(); err != nil {
			return err
		}
		key, err := parseString(d.scanr)
		if err != nil {
			return err
		}
		key.TypeAndFlags |= token.KeyMask
		out.Put(key)
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		if b != ':' {
			return unexpected(d.scanr, "expected ':'")
		}
		d.scanr.Read()
		if err := d.ParseValue(out); err != nil {
			return err
		}
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		switch b {
		case '}':
			d.scanr.Read()
			out.Put(token.EndObjectToken)
			return nil
		case ',':
			d.scanr.Read()
		default:
			return unexpected(d.scanr, "expected '}' or ','")
		}
	}
}

func expectByte(scanr *scanner.Scanner, xb byte) error {
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	if b != xb {
		scanr.Back()
		return unexpected(scanr, "expected %q", xb)
	}
	return nil
}

// unexpected reports the next byte in the scanner as unexpected.
func unexpected(scanr *scanner.Scanner, expected string, args ...any) error {
	pos := scanr.CurrentPos()
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	if b == scanner.EOF {
		return unexpectedEOF(pos, "("+expected+")")
	}
	return unexpectedByte(pos, b, expected, args...)
}

func parseString(scanr *scanner.Scanner) (*token.Scalar, error) {
	start := scanr.StartToken()
	if err := expectByte(scanr, '"'); err != nil {
		scanr.EndToken()
		return nil, err
	}
	var f stringFlags
	f.init()
	for {
		b, err := scanr.Read()
		if err != nil {
			return nil, err
		}
		switch {
		case b == '"':
			bytes := scanr.EndToken()
			if !utf8.Valid(bytes) {
				return nil, invalidUTF8(start)
			}
			return f.scalar(token.String, bytes), nil
		case b == '\\':
			f.escape()
			x, err := scanr.Read()
			if err != nil {
				return nil, err
			}
			switch x {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			case 'u':
				for i := 0; i < 4; i++ {
					if b, err = scanr.Read(); err != nil {
						return nil, err
					}
					if !scanner.IsHex(b) {
						scanr.Back()
						return nil, unexpected(scanr, "expected hex digit")
					}
				}
			default:
				scanr.Back()
				return nil, unexpected(scanr, "invalid escape character")
			}
		case b == scanner.EOF:
			return nil, unexpectedEOF(scanr.CurrentPos(), "in string")
		case scanner.IsCtrl(b):
			scanr.Back()
			return nil, unexpected(scanr, "invalid control character in string")
		default:
			f.add(b)
		}
	}
}

func parseNumber(scanr *scanner.Scanner) (*token.Scalar, error) {
	pos := scanr.StartToken()
	for {
		b, err := scanr.Read()
		if err != nil {
			return nil, err
		}
		if !isNumberByte(b) {
			scanr.Back()
			break
		}
	}
	bytes := scanr.EndToken()
	if i := checkNumber(bytes); i >= 0 {
		pos.Col += i
		if i == len(bytes) {
			return nil, &SyntaxError{Pos: pos, Msg: "expected digit after " + string(bytes)}
		}
		return nil, unexpectedByte(pos, bytes[i], "invalid number")
	}
	return token.NewScalar(token.Number, bytes), nil
}
