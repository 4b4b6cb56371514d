package main

import (
	stdjson "encoding/json"
	"fmt"
	"io"
	"maps"
	"math/big"
	"slices"

	"github.com/arnodel/jsonfeed/encoding/json"
	"github.com/arnodel/jsonfeed/internal/format"
	"github.com/arnodel/jsonfeed/token"
	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// A writeFunc renders one value to w.
type writeFunc func(w io.Writer, v any) error

func newWriter(opts *options, colorizer *format.Colorizer) (writeFunc, error) {
	switch opts.output {
	case "json":
		indent := opts.indent
		if opts.compact {
			indent = -1
		}
		return func(w io.Writer, v any) error {
			return writeJSON(w, v, indent, colorizer)
		}, nil
	case "yaml", "yml":
		return writeYAML, nil
	case "msgpack":
		return writeMsgpack, nil
	default:
		return nil, fmt.Errorf("invalid output format: %q (use json, yaml or msgpack)", opts.output)
	}
}

// writeJSON prints v with the token encoder, which does the indentation and
// coloring.
func writeJSON(w io.Writer, v any, indent int, colorizer *format.Colorizer) error {
	encoder := &json.Encoder{
		Printer:   &format.DefaultPrinter{Writer: w, IndentSize: indent},
		Colorizer: colorizer,
		Compact:   indent < 0,
	}
	return token.Transfer(goValue{v}, encoder)
}

// goValue emits the tokens of a decoded value.  Object keys are sorted, as
// encoding/json does.
type goValue struct {
	v any
}

func (g goValue) Produce(out token.WriteStream) error {
	return putValue(out, g.v)
}

func putValue(out token.WriteStream, v any) error {
	switch x := v.(type) {
	case map[string]any:
		out.Put(token.StartObjectToken)
		for _, k := range slices.Sorted(maps.Keys(x)) {
			out.Put(token.NewKey(token.StringScalar(k).Bytes))
			if err := putValue(out, x[k]); err != nil {
				return err
			}
		}
		out.Put(token.EndObjectToken)
	case []any:
		out.Put(token.StartArrayToken)
		for _, item := range x {
			if err := putValue(out, item); err != nil {
				return err
			}
		}
		out.Put(token.EndArrayToken)
	case stdjson.Number:
		out.Put(token.NewScalar(token.Number, []byte(x)))
	case *big.Int:
		// Large integers from queries
		out.Put(token.NewScalar(token.Number, []byte(x.String())))
	default:
		s, err := token.ToScalar(v)
		if err != nil {
			return fmt.Errorf("cannot print %T: %w", v, err)
		}
		out.Put(s)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("---\n")); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func writeMsgpack(w io.Writer, v any) error {
	return msgpack.NewEncoder(w).Encode(v)
}
