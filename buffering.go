package jsonfeed

import (
	"bytes"
	"log/slog"
	"math"

	"github.com/arnodel/jsonfeed/encoding/json"
	"github.com/arnodel/jsonfeed/flow"
	"github.com/arnodel/jsonfeed/token"
	"github.com/google/uuid"
)

// NewDeferredSubscriber returns a subscriber which collects the whole input
// and resolves with a function decoding it.  Nothing is parsed until the
// function is called, so the cost of decoding is paid by its caller.
func NewDeferredSubscriber[T any](opts ...Option) (Subscriber[func() (T, error)], error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	log := cfg.logger.With("id", uuid.NewString())
	return newBufferingSubscriber(log, func(body []byte) (func() (T, error), error) {
		return func() (T, error) {
			return decodeBody[T](cfg, body)
		}, nil
	}), nil
}

// bufferingSubscriber requests everything from upstream and keeps the
// chunks until the stream completes.
type bufferingSubscriber[T any] struct {
	upstream

	log    *slog.Logger
	chunks [][]byte
	size   int
	finish func(body []byte) (T, error)
	result *Result[T]
}

func newBufferingSubscriber[T any](log *slog.Logger, finish func([]byte) (T, error)) *bufferingSubscriber[T] {
	return &bufferingSubscriber[T]{
		log:    log,
		finish: finish,
		result: newResult[T](),
	}
}

func (s *bufferingSubscriber[T]) Result() *Result[T] {
	return s.result
}

func (s *bufferingSubscriber[T]) OnSubscribe(sub flow.Subscription) {
	if !s.subscribe(sub) {
		return
	}
	sub.Request(math.MaxInt64)
}

func (s *bufferingSubscriber[T]) OnNext(batch [][]byte) {
	if s.active() == nil {
		return
	}
	for _, chunk := range batch {
		s.chunks = append(s.chunks, chunk)
		s.size += len(chunk)
	}
}

func (s *bufferingSubscriber[T]) OnError(err error) {
	if s.terminate(false) {
		s.chunks = nil
		s.result.fail(err)
	}
}

func (s *bufferingSubscriber[T]) OnComplete() {
	if !s.terminate(false) {
		return
	}
	body := make([]byte, 0, s.size)
	for _, chunk := range s.chunks {
		body = append(body, chunk...)
	}
	s.chunks = nil
	s.log.Debug("input buffered", "bytes", len(body))
	s.result.resolve(s.finish(body))
}

// decodeBody decodes a complete document with the blocking decoder.
func decodeBody[T any](cfg *config, body []byte) (value T, err error) {
	utf8, err := cfg.charset.NewTranscoder().Process([][]byte{body}, true)
	if err != nil {
		return value, err
	}
	tokens := token.NewBuffer()
	if err := json.NewDecoder(bytes.NewReader(bytes.Join(utf8, nil))).Produce(tokens); err != nil {
		return value, wrapDecodeError(err, cfg.charset.Name)
	}
	if err := cfg.materializer.Materialize(tokens.Replay(), &value); err != nil {
		return value, &MaterializationError{Err: err}
	}
	return value, nil
}
