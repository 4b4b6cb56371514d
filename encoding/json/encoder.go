package json

import (
	"fmt"

	"github.com/arnodel/jsonfeed/internal/format"
	"github.com/arnodel/jsonfeed/iterator"
	"github.com/arnodel/jsonfeed/token"
)

// An Encoder writes JSON text for a stream of tokens, using the given Printer
// for layout.  Set Compact to drop the space after ':' so that with a
// single line printer the output is the compact form of the input.
type Encoder struct {
	format.Printer
	*format.Colorizer
	Compact bool
}

var _ token.StreamSink = (*Encoder)(nil)

// NewCompactEncoder returns an encoder writing each value on one line,
// with no insignificant whitespace.
func NewCompactEncoder(p format.Printer) *Encoder {
	return &Encoder{Printer: p, Compact: true}
}

// Consume writes every value in the stream, calling the printer's Reset after
// each one.  It assumes that the stream is well-formed and may panic if that
// is not the case.
//
// An error is returned if the Printer could not write, e.g. because it
// writes to a closed pipe.
func (e *Encoder) Consume(stream token.ReadStream) (err error) {
	defer format.CatchPrinterError(&err)
	iter := iterator.New(stream)
	for iter.Advance() {
		e.writeValue(iter.CurrentValue())
		e.Printer.Reset()
	}
	return nil
}

// WriteValue writes a single value, without calling Reset.
func (e *Encoder) WriteValue(value iterator.Value) (err error) {
	defer format.CatchPrinterError(&err)
	e.writeValue(value)
	return nil
}

func (e *Encoder) writeValue(value iterator.Value) {
	switch v := value.(type) {
	case *iterator.Scalar:
		e.Colorizer.PrintScalar(e.Printer, v.Scalar())
	case *iterator.Object:
		e.writeObject(v)
	case *iterator.Array:
		e.writeArray(v)
	default:
		panic(fmt.Sprintf("invalid stream item: %#v", value))
	}
}

func (e *Encoder) writeObject(obj *iterator.Object) {
	e.PrintBytes(openObjectBytes)
	firstItem := true
	for obj.Advance() {
		key, value := obj.CurrentKeyVal()
		if !firstItem {
			e.PrintBytes(itemSeparatorBytes)
			e.NewLine()
		} else {
			e.Indent()
			firstItem = false
		}
		e.Colorizer.PrintScalar(e.Printer, key)
		if e.Compact {
			e.PrintBytes(compactKeyValueSeparatorBytes)
		} else {
			e.PrintBytes(keyValueSeparatorBytes)
		}
		e.writeValue(value)
	}
	if !firstItem {
		e.Dedent()
	}
	e.PrintBytes(closeObjectBytes)
}

func (e *Encoder) writeArray(arr *iterator.Array) {
	e.PrintBytes(openArrayBytes)
	firstItem := true
	for arr.Advance() {
		value := arr.CurrentValue()
		if !firstItem {
			e.PrintBytes(itemSeparatorBytes)
			e.NewLine()
		} else {
			e.Indent()
			firstItem = false
		}
		e.writeValue(value)
	}
	if !firstItem {
		e.Dedent()
	}
	e.PrintBytes(closeArrayBytes)
}

var (
	openObjectBytes               = []byte("{")
	closeObjectBytes              = []byte("}")
	openArrayBytes                = []byte("[")
	closeArrayBytes               = []byte("]")
	itemSeparatorBytes            = []byte(",")
	keyValueSeparatorBytes        = []byte(": ")
	compactKeyValueSeparatorBytes = []byte(":")
)
