package jsonfeed

import (
	"context"
	stdjson "encoding/json"

	"github.com/arnodel/jsonfeed/flow"
)

// Decode subscribes a new subscriber to pub and waits for the decoded value.
// If ctx is done first, Decode returns ctx.Err() and the subscription is
// left to run to its end.
func Decode[T any](ctx context.Context, pub flow.Publisher[[][]byte], opts ...Option) (T, error) {
	s, err := NewSubscriber[T](opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	pub.Subscribe(s)
	return s.Result().Await(ctx)
}

// Encode marshals v with encoding/json and encodes the text in the charset
// given by the options (UTF-8 by default).
func Encode(v any, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	b, err := stdjson.Marshal(v)
	if err != nil {
		return nil, err
	}
	return cfg.charset.Encode(b)
}
