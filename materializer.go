package jsonfeed

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	"github.com/arnodel/jsonfeed/encoding/json"
	"github.com/arnodel/jsonfeed/internal/format"
	"github.com/arnodel/jsonfeed/iterator"
	"github.com/arnodel/jsonfeed/token"
)

// A Materializer builds a Go value from the complete token stream of a
// document.  target is a non-nil pointer.
type Materializer interface {
	Materialize(tokens token.ReadStream, target any) error
}

// MaterializerFunc adapts a plain function to the Materializer interface.
type MaterializerFunc func(tokens token.ReadStream, target any) error

// Materialize calls f(tokens, target).
func (f MaterializerFunc) Materialize(tokens token.ReadStream, target any) error {
	return f(tokens, target)
}

// JSONMaterializer writes the token stream back as compact JSON text and
// unmarshals it with encoding/json.  A *any target is built directly from
// the tokens instead, with the same result.  The stream must contain exactly
// one value.
type JSONMaterializer struct {
	// UseNumber decodes numbers into interface values as json.Number.
	UseNumber bool

	// DisallowUnknownFields rejects object keys with no matching struct
	// field.
	DisallowUnknownFields bool
}

func (m JSONMaterializer) Materialize(tokens token.ReadStream, target any) error {
	iter := iterator.New(tokens)
	if !iter.Advance() {
		return ErrEmptyDocument
	}
	if p, ok := target.(*any); ok {
		v, err := m.build(iter.CurrentValue())
		if err != nil {
			return err
		}
		if iter.Advance() {
			return ErrTrailingData
		}
		*p = v
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewCompactEncoder(&format.DefaultPrinter{Writer: &buf, IndentSize: -1, NoTrailingNewLine: true})
	if err := enc.WriteValue(iter.CurrentValue()); err != nil {
		return err
	}
	if iter.Advance() {
		return ErrTrailingData
	}
	dec := stdjson.NewDecoder(&buf)
	if m.UseNumber {
		dec.UseNumber()
	}
	if m.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(target)
}

// build returns the value encoding/json would store in an interface for v.
func (m JSONMaterializer) build(v iterator.Value) (any, error) {
	switch x := v.(type) {
	case *iterator.Scalar:
		s := x.Scalar()
		if m.UseNumber && s.Type() == token.Number {
			return stdjson.Number(string(s.Bytes)), nil
		}
		return s.ToGo()
	case *iterator.Object:
		obj := map[string]any{}
		for x.Advance() {
			key, val := x.CurrentKeyVal()
			item, err := m.build(val)
			if err != nil {
				return nil, err
			}
			obj[key.ToString()] = item
		}
		return obj, nil
	case *iterator.Array:
		arr := []any{}
		for x.Advance() {
			item, err := m.build(x.CurrentValue())
			if err != nil {
				return nil, err
			}
			arr = append(arr, item)
		}
		return arr, nil
	default:
		panic(fmt.Sprintf("unexpected value %T", v))
	}
}
