package json

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/arnodel/jsonfeed/internal/scanner"
	"github.com/arnodel/jsonfeed/token"
)

// NotAvailable is returned by (*Parser).NextToken when the input fed so far
// does not contain another complete token.
var NotAvailable token.Token = notAvailable{}

type notAvailable struct{}

func (notAvailable) String() string {
	return "NotAvailable"
}

// DefaultMaxDepth is the nesting depth a Parser accepts unless told otherwise.
const DefaultMaxDepth = 10000

// A Parser tokenizes JSON input which is pushed to it with Feed, and never
// blocks: when the input fed so far ends in the middle of a token, NextToken
// returns NotAvailable and the partial token is kept until more input is fed.
//
// It accepts the same input as Decoder, i.e. a sequence of JSON values
// separated by whitespace.  Strings must be valid UTF-8.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	// Unconsumed input.  buf[off:] has not been turned into tokens yet.
	buf []byte
	off int

	// Position of buf[off]
	pos scanner.Pos

	eof   bool
	err   error
	state parseState

	// Open containers, '[' or '{'
	stack    []byte
	maxDepth int

	// Token being scanned, when buf[off:] ends in the middle of one.
	lex lexeme
}

type parseState uint8

const (
	expectValue        parseState = iota // top level value, array element or object value
	expectFirstElement                   // value or ']'
	expectFirstKey                       // key or '}'
	expectKey
	expectColon
	expectCommaOrEnd
)

type lexKind uint8

const (
	lexNone lexKind = iota
	lexString
	lexKey
	lexNumber
	lexLiteral
)

type lexeme struct {
	kind lexKind

	// Number of bytes of buf[off:] already scanned
	n int

	flags   stringFlags
	literal *token.Scalar
}

// NewParser returns a Parser ready to be fed.
func NewParser() *Parser {
	return &Parser{maxDepth: DefaultMaxDepth}
}

// SetMaxDepth limits the nesting depth of arrays and objects.
func (p *Parser) SetMaxDepth(depth int) {
	p.maxDepth = depth
}

// Feed appends input to the parser.  The bytes are copied so the caller may
// reuse b.  It fails if the parser is already in error or EndOfInput has been
// called.
func (p *Parser) Feed(b []byte) error {
	if p.err != nil {
		return p.err
	}
	if p.eof {
		return ErrFeedAfterEnd
	}
	if p.off > 0 {
		n := copy(p.buf, p.buf[p.off:])
		p.buf = p.buf[:n]
		p.off = 0
	}
	p.buf = append(p.buf, b...)
	return nil
}

// EndOfInput tells the parser that no more input will be fed.
func (p *Parser) EndOfInput() {
	p.eof = true
}

// NextToken returns the next token.  It returns NotAvailable if more input
// is needed and nil when the input is exhausted after EndOfInput.  Errors are
// sticky: once an error is returned, it is returned by every subsequent call.
func (p *Parser) NextToken() (token.Token, error) {
	if p.err != nil {
		return nil, p.err
	}
	tok, err := p.next()
	if err != nil {
		p.err = err
		return nil, err
	}
	return tok, nil
}

// Depth returns the number of currently open arrays and objects.
func (p *Parser) Depth() int {
	return len(p.stack)
}

func (p *Parser) next() (token.Token, error) {
	switch p.lex.kind {
	case lexString, lexKey:
		return p.scanString()
	case lexNumber:
		return p.scanNumber()
	case lexLiteral:
		return p.scanLiteral()
	}
	for {
		p.skipSpace()
		if p.off == len(p.buf) {
			if !p.eof {
				return NotAvailable, nil
			}
			if p.state == expectValue && len(p.stack) == 0 {
				return nil, nil
			}
			return nil, unexpectedEOF(p.pos, p.where())
		}
		b := p.buf[p.off]
		switch p.state {
		case expectColon:
			if b != ':' {
				return nil, unexpectedByte(p.pos, b, "expected ':'")
			}
			p.consume(1)
			p.state = expectValue
		case expectCommaOrEnd:
			top := p.stack[len(p.stack)-1]
			switch {
			case b == ',':
				p.consume(1)
				if top == '{' {
					p.state = expectKey
				} else {
					p.state = expectValue
				}
			case b == ']' && top == '[', b == '}' && top == '{':
				return p.closeContainer(), nil
			case top == '[':
				return nil, unexpectedByte(p.pos, b, "expected ']' or ','")
			default:
				return nil, unexpectedByte(p.pos, b, "expected '}' or ','")
			}
		case expectFirstKey, expectKey:
			if b == '}' && p.state == expectFirstKey {
				return p.closeContainer(), nil
			}
			if b != '"' {
				return nil, unexpectedByte(p.pos, b, "expected '\"'")
			}
			p.startLexeme(lexKey)
			return p.scanString()
		case expectFirstElement:
			if b == ']' {
				return p.closeContainer(), nil
			}
			return p.startValue(b)
		default:
			return p.startValue(b)
		}
	}
}

func (p *Parser) startValue(b byte) (token.Token, error) {
	switch b {
	case '{':
		return p.openContainer(b, expectFirstKey, token.StartObjectToken)
	case '[':
		return p.openContainer(b, expectFirstElement, token.StartArrayToken)
	case '"':
		p.startLexeme(lexString)
		return p.scanString()
	case 't':
		p.startLiteral(token.TrueScalar)
		return p.scanLiteral()
	case 'f':
		p.startLiteral(token.FalseScalar)
		return p.scanLiteral()
	case 'n':
		p.startLiteral(token.NullScalar)
		return p.scanLiteral()
	default:
		if b == '-' || scanner.IsDigit(b) {
			p.startLexeme(lexNumber)
			return p.scanNumber()
		}
		return nil, unexpectedByte(p.pos, b, "unexpected")
	}
}

func (p *Parser) openContainer(b byte, state parseState, tok token.Token) (token.Token, error) {
	if len(p.stack) >= p.maxDepth {
		return nil, &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf("exceeded max depth %d", p.maxDepth)}
	}
	p.stack = append(p.stack, b)
	p.consume(1)
	p.state = state
	return tok, nil
}

func (p *Parser) closeContainer() token.Token {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.consume(1)
	p.afterValue()
	if top == '{' {
		return token.EndObjectToken
	}
	return token.EndArrayToken
}

func (p *Parser) afterValue() {
	if len(p.stack) == 0 {
		p.state = expectValue
	} else {
		p.state = expectCommaOrEnd
	}
}

func (p *Parser) startLexeme(kind lexKind) {
	p.lex = lexeme{kind: kind}
	p.lex.flags.init()
}

func (p *Parser) startLiteral(lit *token.Scalar) {
	p.lex = lexeme{kind: lexLiteral, literal: lit}
}

// scanString resumes scanning a string whose opening quote is at buf[off].
func (p *Parser) scanString() (token.Token, error) {
	s := p.buf[p.off:]
	i := p.lex.n
	if i == 0 {
		i = 1 // opening quote
	}
	f := &p.lex.flags
	for i < len(s) {
		b := s[i]
		switch {
		case b == '"':
			i++
			scalar := f.scalar(token.String, slices.Clone(s[:i]))
			if p.lex.kind == lexKey {
				scalar.TypeAndFlags |= token.KeyMask
				p.state = expectColon
			} else {
				p.afterValue()
			}
			p.lex = lexeme{}
			p.consume(i)
			return scalar, nil
		case b == '\\':
			if i+1 >= len(s) {
				return p.shortString(i)
			}
			switch s[i+1] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				i += 2
			case 'u':
				for j := i + 2; j < i+6; j++ {
					if j >= len(s) {
						return p.shortString(i)
					}
					if !scanner.IsHex(s[j]) {
						return nil, unexpectedByte(p.posAt(j), s[j], "expected hex digit")
					}
				}
				i += 6
			default:
				return nil, unexpectedByte(p.posAt(i+1), s[i+1], "invalid escape character")
			}
			f.escape()
		case scanner.IsCtrl(b):
			return nil, unexpectedByte(p.posAt(i), b, "invalid control character in string")
		case b < utf8.RuneSelf:
			f.add(b)
			i++
		default:
			if !utf8.FullRune(s[i:]) {
				if p.eof {
					return nil, invalidUTF8(p.posAt(i))
				}
				return p.shortString(i)
			}
			r, size := utf8.DecodeRune(s[i:])
			if r == utf8.RuneError && size == 1 {
				return nil, invalidUTF8(p.posAt(i))
			}
			f.add(b)
			i += size
		}
		p.lex.n = i
	}
	return p.shortString(i)
}

// shortString records that the string has been scanned up to buf[off+i].
func (p *Parser) shortString(i int) (token.Token, error) {
	p.lex.n = i
	if p.eof {
		return nil, unexpectedEOF(p.posAt(len(p.buf)-p.off), "in string")
	}
	return NotAvailable, nil
}

// scanNumber resumes scanning a number starting at buf[off].  The end of a
// number is only known when a byte which cannot be part of it is seen, or at
// the end of input.
func (p *Parser) scanNumber() (token.Token, error) {
	s := p.buf[p.off:]
	i := p.lex.n
	for i < len(s) && isNumberByte(s[i]) {
		i++
	}
	p.lex.n = i
	if i == len(s) && !p.eof {
		return NotAvailable, nil
	}
	if j := checkNumber(s[:i]); j >= 0 {
		if j == i {
			return nil, &SyntaxError{Pos: p.posAt(j), Msg: "expected digit after " + string(s[:i])}
		}
		return nil, unexpectedByte(p.posAt(j), s[j], "invalid number")
	}
	if i < len(s) && !isDelimiter(s[i]) {
		return nil, unexpectedByte(p.posAt(i), s[i], "expected delimiter")
	}
	scalar := token.NewScalar(token.Number, slices.Clone(s[:i]))
	p.lex = lexeme{}
	p.consume(i)
	p.afterValue()
	return scalar, nil
}

// scanLiteral resumes matching true, false or null at buf[off].
func (p *Parser) scanLiteral() (token.Token, error) {
	s := p.buf[p.off:]
	lit := p.lex.literal
	i := p.lex.n
	for ; i < len(lit.Bytes); i++ {
		if i == len(s) {
			p.lex.n = i
			if p.eof {
				return nil, unexpectedEOF(p.posAt(i), "in literal")
			}
			return NotAvailable, nil
		}
		if s[i] != lit.Bytes[i] {
			return nil, unexpectedByte(p.posAt(i), s[i], "expected %q", lit.Bytes[i])
		}
	}
	p.lex.n = i
	if i == len(s) && !p.eof {
		// Need one more byte to check that the literal ends here.
		return NotAvailable, nil
	}
	if i < len(s) && !isDelimiter(s[i]) {
		return nil, unexpectedByte(p.posAt(i), s[i], "expected delimiter")
	}
	p.lex = lexeme{}
	p.consume(i)
	p.afterValue()
	return lit, nil
}

func (p *Parser) skipSpace() {
	for p.off < len(p.buf) && scanner.IsSpace(p.buf[p.off]) {
		p.pos.Advance(p.buf[p.off])
		p.off++
	}
}

func (p *Parser) consume(n int) {
	for _, b := range p.buf[p.off : p.off+n] {
		p.pos.Advance(b)
	}
	p.off += n
}

// posAt returns the position of buf[off+i].
func (p *Parser) posAt(i int) scanner.Pos {
	pos := p.pos
	for _, b := range p.buf[p.off : p.off+i] {
		pos.Advance(b)
	}
	return pos
}

func (p *Parser) where() string {
	switch {
	case p.state == expectColon:
		return "after object key"
	case len(p.stack) == 0:
		return "before value"
	case p.stack[len(p.stack)-1] == '{':
		return "in object"
	default:
		return "in array"
	}
}
