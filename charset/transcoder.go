package charset

import (
	"bytes"
	"fmt"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// A Transcoder converts a stream of chunks to UTF-8.
//
// Process is called with each batch of chunks as it arrives, and once more
// with endOfInput set (usually with no chunks) to flush what was held back.
// Empty outputs are omitted, so the result may be shorter than the input.
// A Transcoder is not safe for concurrent use.
type Transcoder interface {
	Process(chunks [][]byte, endOfInput bool) ([][]byte, error)
}

type identity struct{}

// Identity returns its input unchanged.  It is the transcoder for UTF-8 and
// US-ASCII.
var Identity Transcoder = identity{}

func (identity) Process(chunks [][]byte, _ bool) ([][]byte, error) {
	return chunks, nil
}

const minOutputSize = 16

// decoder runs an x/text decoder over each chunk, keeping the bytes of an
// incomplete sequence at the end of a chunk for the next call.
type decoder struct {
	charset  string
	dec      transform.Transformer
	strict   bool
	leftover []byte

	// Set for UTF-16 charsets
	pairs *surrogatePairs
}

// errIncompleteTail is wrapped when the input ends in the middle of a
// sequence.
var errIncompleteTail = fmt.Errorf("%w: incomplete sequence at end of input", ErrMalformedInput)

func (d *decoder) Process(chunks [][]byte, endOfInput bool) ([][]byte, error) {
	if len(chunks) == 0 {
		if !endOfInput {
			return nil, nil
		}
		chunks = [][]byte{nil}
	}
	out := make([][]byte, 0, len(chunks))
	for i, chunk := range chunks {
		if d.pairs != nil {
			if err := d.pairs.check(chunk); err != nil {
				return nil, &EncodingError{Charset: d.charset, Err: err}
			}
		}
		b, err := d.processChunk(chunk, endOfInput && i == len(chunks)-1)
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			out = append(out, b)
		}
	}
	return out, nil
}

func (d *decoder) processChunk(src []byte, atEOF bool) ([]byte, error) {
	if len(d.leftover) > 0 {
		src = append(d.leftover, src...)
		d.leftover = nil
	}
	dst := make([]byte, max(len(src)+len(src)>>1, minOutputSize))
	nDst := 0
	// The input is first transformed as if more was to come, so that a tail
	// which cannot be decoded is seen here rather than replaced with U+FFFD.
	// The decoder is flushed afterwards.
	flush := false
	for {
		n, nSrc, err := d.dec.Transform(dst[nDst:], src, flush)
		nDst += n
		src = src[nSrc:]
		switch {
		case err == transform.ErrShortDst:
			grown := make([]byte, len(dst)+len(dst)>>1)
			copy(grown, dst[:nDst])
			dst = grown
			continue
		case err == transform.ErrShortSrc && !flush:
			if !atEOF {
				d.leftover = slices.Clone(src)
				break
			}
			if len(src) > 0 {
				return nil, &EncodingError{Charset: d.charset, Err: errIncompleteTail}
			}
			flush = true
			continue
		case err != nil:
			return nil, &EncodingError{Charset: d.charset, Err: err}
		case atEOF && !flush:
			flush = true
			continue
		}
		break
	}
	dst = dst[:nDst]
	if d.strict && bytes.ContainsRune(dst, utf8.RuneError) {
		return nil, &EncodingError{Charset: d.charset, Err: ErrMalformedInput}
	}
	if atEOF && d.pairs != nil && !d.pairs.complete() {
		return nil, &EncodingError{Charset: d.charset, Err: errIncompleteTail}
	}
	return dst, nil
}

// surrogatePairs follows the UTF-16 code units of the source, which the
// x/text decoder would otherwise let through as U+FFFD when a surrogate is
// unpaired.
type surrogatePairs struct {
	order byteOrder
	unit  [2]byte
	n     int
	high  bool // a high surrogate is waiting for its low half
}

type byteOrder uint8

const (
	detectOrder byteOrder = iota // big endian unless there is a BOM
	bigEndian
	littleEndian
)

var errUnpairedSurrogate = fmt.Errorf("%w: unpaired surrogate", ErrMalformedInput)

func newSurrogatePairs(charsetName string) *surrogatePairs {
	switch charsetName {
	case "UTF-16LE":
		return &surrogatePairs{order: littleEndian}
	case "UTF-16BE":
		return &surrogatePairs{order: bigEndian}
	case "UTF-16":
		return &surrogatePairs{order: detectOrder}
	}
	return nil
}

func (p *surrogatePairs) check(b []byte) error {
	for _, c := range b {
		p.unit[p.n] = c
		p.n++
		if p.n < 2 {
			continue
		}
		p.n = 0
		if p.order == detectOrder {
			p.order = bigEndian
			switch p.unit {
			case [2]byte{0xFF, 0xFE}:
				p.order = littleEndian
				continue
			case [2]byte{0xFE, 0xFF}:
				continue
			}
		}
		u := uint16(p.unit[0])<<8 | uint16(p.unit[1])
		if p.order == littleEndian {
			u = uint16(p.unit[1])<<8 | uint16(p.unit[0])
		}
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if p.high {
				return errUnpairedSurrogate
			}
			p.high = true
		case u >= 0xDC00 && u < 0xE000:
			if !p.high {
				return errUnpairedSurrogate
			}
			p.high = false
		case p.high:
			return errUnpairedSurrogate
		}
	}
	return nil
}

// complete is false if the input seen so far ends inside a code unit or a
// surrogate pair.
func (p *surrogatePairs) complete() bool {
	return p.n == 0 && !p.high
}
