package scanner

import (
	"io"
	"slices"
)

// Scanner reads bytes from an io.Reader, one at a time, keeping track of the
// position in the input.  It can record the bytes of a token while they are
// being read, even when the token spans several refills of the read buffer.
//
// Reading blocks whenever the underlying reader does.
type Scanner struct {
	reader io.Reader
	buf    []byte

	// First unfilled position in buf: 0 <= fill <= len(buf)
	fill int

	// Current position in buf: 0 <= cur <= fill
	cur int

	// Line and column of cur, and of the byte before it (for Back).
	// prevPos.Line == -1 when Back is not allowed.
	pos, prevPos Pos

	// Index in buf of the token being recorded, -1 when not recording.
	// tokenStart <= cur
	tokenStart int

	// Parts of the recorded token that were shifted out of buf.
	tokenParts [][]byte

	err error

	// Number of EOFs returned by Read, so Back works after reading EOF.
	eofCount int
}

func NewScanner(reader io.Reader) *Scanner {
	return NewScannerSize(reader, defaultBufSize)
}

func NewScannerSize(reader io.Reader, size int) *Scanner {
	return &Scanner{
		reader:     reader,
		buf:        make([]byte, size),
		tokenStart: -1,
		prevPos:    Pos{Line: -1},
	}
}

func (s *Scanner) fillBuf() {
	if s.fill == len(s.buf) {
		s.shift()
	}
	for i := maxConsecutiveEmptyReads; i > 0; i-- {
		n, err := s.reader.Read(s.buf[s.fill:])
		s.fill += n
		if err != nil {
			s.err = err
			return
		}
		if n > 0 {
			return
		}
	}
	s.err = io.ErrNoProgress
}

// shift makes room at the end of buf, keeping the recorded token (or at
// least lookBackSize bytes) available.
func (s *Scanner) shift() {
	var base int
	switch {
	case s.tokenStart > 0:
		base = s.tokenStart
		s.tokenStart = 0
	case s.cur >= lookBackSize:
		base = s.cur - lookBackSize
		if s.tokenStart == 0 {
			// The whole buffer is part of a token, save what will be
			// overwritten.
			s.tokenParts = append(s.tokenParts, slices.Clone(s.buf[:base]))
		}
	}
	if base > 0 {
		copy(s.buf, s.buf[base:s.fill])
		s.fill -= base
		s.cur -= base
	}
}

// Read returns the next byte, or EOF at the end of the input.
func (s *Scanner) Read() (byte, error) {
	if s.cur >= s.fill {
		s.fillBuf()
	}
	if s.cur < s.fill {
		b := s.buf[s.cur]
		s.prevPos = s.pos
		s.pos.Advance(b)
		s.cur++
		return b, nil
	}
	if s.err == io.EOF {
		s.eofCount++
		return EOF, nil
	}
	return 0, s.err
}

// StartToken starts recording bytes.  It panics if already recording.
func (s *Scanner) StartToken() Pos {
	if s.tokenStart >= 0 {
		panic("already in record mode")
	}
	s.tokenStart = s.cur
	return s.pos
}

func (s *Scanner) CurrentPos() Pos {
	return s.pos
}

// EndToken stops recording and returns a copy of the recorded bytes.
func (s *Scanner) EndToken() []byte {
	if s.tokenStart < 0 {
		panic("not in record mode")
	}
	tail := s.buf[s.tokenStart:s.cur]
	s.tokenStart = -1
	if s.tokenParts == nil {
		return slices.Clone(tail)
	}
	n := len(tail)
	for _, p := range s.tokenParts {
		n += len(p)
	}
	tok := make([]byte, 0, n)
	for _, p := range s.tokenParts {
		tok = append(tok, p...)
	}
	tok = append(tok, tail...)
	s.tokenParts = nil
	return tok
}

// Back unreads the last byte.  It cannot be called twice in a row.
func (s *Scanner) Back() {
	if s.cur <= 0 || s.cur <= s.tokenStart {
		panic("cannot go back from start")
	}
	if s.prevPos.Line < 0 {
		panic("cannot go back twice")
	}
	if s.eofCount > 0 {
		s.eofCount--
		return
	}
	s.cur--
	s.pos = s.prevPos
	s.prevPos.Line = -1
}

func (s *Scanner) Peek() (byte, error) {
	if s.cur >= s.fill {
		s.fillBuf()
	}
	if s.cur < s.fill {
		return s.buf[s.cur], nil
	}
	return s.errOrEOF()
}

func (s *Scanner) errOrEOF() (byte, error) {
	if s.err == io.EOF {
		return EOF, nil
	}
	return 0, s.err
}

// SkipSpaceAndPeek skips JSON whitespace and returns the next byte without
// consuming it.
func (s *Scanner) SkipSpaceAndPeek() (byte, error) {
	for {
		for i, b := range s.buf[s.cur:s.fill] {
			if !IsSpace(b) {
				s.cur += i
				return b, nil
			}
			s.pos.Advance(b)
		}
		s.cur = s.fill
		s.fillBuf()
		if s.cur >= s.fill {
			return s.errOrEOF()
		}
	}
}

const (
	lookBackSize             = 1
	maxConsecutiveEmptyReads = 100
	defaultBufSize           = 8192
)

// 0xFF is a byte that should not appear in a UTF-8 encoded stream of bytes.
const EOF byte = 0xFF
