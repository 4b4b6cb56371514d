package token

// A StreamSource writes the tokens of its input to a WriteStream.
type StreamSource interface {
	Produce(out WriteStream) error
}

// A StreamSink consumes a whole token stream.
type StreamSink interface {
	Consume(in ReadStream) error
}

// Transfer collects every token of src, then hands them to dst.  Nothing
// reaches dst if src fails.
func Transfer(src StreamSource, dst StreamSink) error {
	buf := NewBuffer()
	if err := src.Produce(buf); err != nil {
		return err
	}
	return dst.Consume(buf.Replay())
}
