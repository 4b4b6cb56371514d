package token

// A ReadStream yields tokens one at a time.  Next returns nil when the stream
// is exhausted.
type ReadStream interface {
	Next() Token
}

// A WriteStream accepts tokens one at a time.
type WriteStream interface {
	Put(Token)
}

// SliceReadStream reads tokens from a slice.
type SliceReadStream struct {
	toks []Token
}

var _ ReadStream = &SliceReadStream{}

func NewSliceReadStream(toks []Token) *SliceReadStream {
	return &SliceReadStream{toks: toks}
}

func (r *SliceReadStream) Next() (tok Token) {
	if len(r.toks) > 0 {
		tok = r.toks[0]
		r.toks = r.toks[1:]
	}
	return
}

// Remaining returns the number of tokens not yet read.
func (r *SliceReadStream) Remaining() int {
	return len(r.toks)
}

// Buffer is an append-only log of tokens which can be replayed any number of
// times.  It is not safe for concurrent use.
type Buffer struct {
	toks []Token
}

var _ WriteStream = &Buffer{}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Put appends a token to the buffer.
func (b *Buffer) Put(tok Token) {
	b.toks = append(b.toks, tok)
}

// Len returns the number of tokens in the buffer.
func (b *Buffer) Len() int {
	return len(b.toks)
}

// Replay returns a fresh stream over the tokens buffered so far.  Tokens put
// after the call are not visible to the returned stream.
func (b *Buffer) Replay() *SliceReadStream {
	return NewSliceReadStream(b.toks[:len(b.toks):len(b.toks)])
}
