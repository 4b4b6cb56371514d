package jsonfeed

import (
	"log/slog"
	"sync/atomic"

	"github.com/arnodel/jsonfeed/charset"
	"github.com/arnodel/jsonfeed/flow"
	"github.com/google/uuid"
)

// A Subscriber consumes a stream of byte chunks and resolves its Result with
// the decoded value when the stream terminates.
type Subscriber[T any] interface {
	flow.Subscriber[[][]byte]
	Result() *Result[T]
}

// NewSubscriber returns a subscriber decoding a JSON document of type T as
// its chunks arrive.  Chunks are converted to UTF-8, tokenized and buffered
// as tokens without waiting on anything; T is built when the stream
// completes.
//
// If the parser factory fails, the subscriber buffers the raw input instead
// and decodes it when the stream completes.
func NewSubscriber[T any](opts ...Option) (Subscriber[T], error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	log := cfg.logger.With("id", uuid.NewString())
	parser, err := cfg.parserFactory()
	if err != nil {
		log.Debug("parser unavailable, buffering input", "error", err)
		return newBufferingSubscriber(log, func(body []byte) (T, error) {
			return decodeBody[T](cfg, body)
		}), nil
	}
	return &streamingSubscriber[T]{
		cfg:        cfg,
		log:        log,
		transcoder: cfg.charset.NewTranscoder(),
		tokenizer:  newTokenizer(parser, cfg.charset.Name),
		result:     newResult[T](),
	}, nil
}

// upstreamRef is the state of a subscriber: nil before OnSubscribe, the
// accepted subscription while active, and terminated afterwards.
type upstreamRef struct {
	sub flow.Subscription
}

var terminated = &upstreamRef{sub: flow.NoopSubscription}

// upstream holds a subscriber's upstreamRef.
type upstream struct {
	ref atomic.Pointer[upstreamRef]
}

// subscribe accepts s if no subscription was accepted before, and cancels it
// otherwise.
func (u *upstream) subscribe(s flow.Subscription) bool {
	if s == nil {
		panic("nil subscription")
	}
	if u.ref.CompareAndSwap(nil, &upstreamRef{sub: s}) {
		return true
	}
	s.Cancel()
	return false
}

// active returns the accepted subscription, or nil if there is none or the
// subscriber has terminated.
func (u *upstream) active() flow.Subscription {
	ref := u.ref.Load()
	if ref == nil || ref == terminated {
		return nil
	}
	return ref.sub
}

// terminate moves to the terminated state, cancelling the subscription if
// cancel is set.  Only the first call returns true.
func (u *upstream) terminate(cancel bool) bool {
	prev := u.ref.Swap(terminated)
	if prev == terminated {
		return false
	}
	if cancel && prev != nil {
		prev.sub.Cancel()
	}
	return true
}

type streamingSubscriber[T any] struct {
	upstream

	cfg        *config
	log        *slog.Logger
	transcoder charset.Transcoder
	tokenizer  *tokenizer
	result     *Result[T]

	// Batches that may still arrive before more must be requested.  Only
	// touched from signals, which never overlap.
	window int
}

var _ Subscriber[any] = (*streamingSubscriber[any])(nil)

func (s *streamingSubscriber[T]) Result() *Result[T] {
	return s.result
}

func (s *streamingSubscriber[T]) OnSubscribe(sub flow.Subscription) {
	if !s.subscribe(sub) {
		s.log.Debug("cancelled extra subscription")
		return
	}
	s.window = s.cfg.prefetch
	s.log.Debug("subscribed", "prefetch", s.cfg.prefetch, "threshold", s.cfg.threshold, "charset", s.cfg.charset.Name)
	sub.Request(int64(s.cfg.prefetch))
}

func (s *streamingSubscriber[T]) OnNext(batch [][]byte) {
	sub := s.active()
	if sub == nil {
		return
	}
	if err := s.process(batch); err != nil {
		if s.terminate(true) {
			s.log.Debug("decoding failed, upstream cancelled", "error", err)
			s.result.fail(err)
		}
		return
	}
	update := s.window - 1
	if update <= s.cfg.threshold {
		s.window = s.cfg.prefetch
		s.log.Debug("requesting more input", "n", s.cfg.prefetch)
		sub.Request(int64(s.cfg.prefetch))
	} else {
		s.window = update
	}
}

func (s *streamingSubscriber[T]) process(batch [][]byte) error {
	utf8, err := s.transcoder.Process(batch, false)
	if err != nil {
		return err
	}
	if err := s.tokenizer.feed(utf8); err != nil {
		return err
	}
	return s.tokenizer.drain()
}

func (s *streamingSubscriber[T]) OnError(err error) {
	if s.terminate(false) {
		s.log.Debug("upstream failed", "error", err)
		s.result.fail(err)
	}
}

func (s *streamingSubscriber[T]) OnComplete() {
	if !s.terminate(false) {
		return
	}
	value, err := s.complete()
	if err != nil {
		s.log.Debug("decoding failed at end of input", "error", err)
	} else {
		s.log.Debug("decoded", "tokens", s.tokenizer.tokens.Len())
	}
	s.result.resolve(value, err)
}

// complete flushes the transcoder, ends the parser input and builds the
// value from the buffered tokens.
func (s *streamingSubscriber[T]) complete() (value T, err error) {
	flushed, err := s.transcoder.Process(nil, true)
	if err != nil {
		return value, err
	}
	if err := s.tokenizer.feed(flushed); err != nil {
		return value, err
	}
	if err := s.tokenizer.endOfInput(); err != nil {
		return value, err
	}
	if err := s.cfg.materializer.Materialize(s.tokenizer.tokens.Replay(), &value); err != nil {
		return value, &MaterializationError{Err: err}
	}
	return value, nil
}
