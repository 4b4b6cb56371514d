package flow

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

// ErrAlreadySubscribed is signalled to the second subscriber of a publisher
// which can only be consumed once.
var ErrAlreadySubscribed = errors.New("flow: publisher already subscribed")

// FromSlice returns a publisher emitting items in order to each subscriber,
// then completing.
func FromSlice[T any](items ...T) Publisher[T] {
	return slicePublisher[T](items)
}

type slicePublisher[T any] []T

func (p slicePublisher[T]) Subscribe(s Subscriber[T]) {
	items := []T(p)
	go emit(s, func() (item T, err error) {
		if len(items) == 0 {
			return item, io.EOF
		}
		item, items = items[0], items[1:]
		return item, nil
	})
}

// FromReader returns a publisher emitting what it reads from r, one chunk
// of at most chunkSize bytes per item.  Read errors other than io.EOF are
// signalled with OnError.  The reader is consumed by the first subscriber
// only.
func FromReader(r io.Reader, chunkSize int) Publisher[[][]byte] {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &readerPublisher{reader: r, chunkSize: chunkSize}
}

type readerPublisher struct {
	reader     io.Reader
	chunkSize  int
	subscribed atomic.Bool
}

func (p *readerPublisher) Subscribe(s Subscriber[[][]byte]) {
	if !p.subscribed.CompareAndSwap(false, true) {
		s.OnSubscribe(NoopSubscription)
		s.OnError(ErrAlreadySubscribed)
		return
	}
	var pending error
	go emit(s, func() ([][]byte, error) {
		for i := maxConsecutiveEmptyReads; i > 0; i-- {
			if pending != nil {
				return nil, pending
			}
			buf := make([]byte, p.chunkSize)
			n, err := p.reader.Read(buf)
			pending = err
			if n > 0 {
				return [][]byte{buf[:n]}, nil
			}
		}
		return nil, io.ErrNoProgress
	})
}

const (
	defaultChunkSize         = 8192
	maxConsecutiveEmptyReads = 100
)

// emit runs on its own goroutine, delivering the items returned by next to s
// as demand allows.  next returns io.EOF after the last item.
func emit[T any](s Subscriber[T], next func() (T, error)) {
	sub := newDemand()
	s.OnSubscribe(sub)
	for {
		item, err := next()
		if err != nil {
			if sub.cancelled() {
				return
			}
			if err == io.EOF {
				s.OnComplete()
			} else {
				s.OnError(err)
			}
			return
		}
		if err := sub.acquire(); err != nil {
			if err != errCancelled {
				s.OnError(err)
			}
			return
		}
		s.OnNext(item)
	}
}

var errCancelled = errors.New("cancelled")

// demand is the Subscription used by emit.  The emitting goroutine parks on
// cond while there is no outstanding demand.
type demand struct {
	mu   sync.Mutex
	cond *sync.Cond

	n      int64
	cancel bool
	err    error
}

func newDemand() *demand {
	d := &demand{}
	d.cond = sync.NewCond(&d.mu)
	return d
}

func (d *demand) Request(n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.cancel:
	case n <= 0:
		if d.err == nil {
			d.err = fmt.Errorf("%w: %d", ErrNonPositiveRequest, n)
		}
	case d.n > math.MaxInt64-n:
		d.n = math.MaxInt64
	default:
		d.n += n
	}
	d.cond.Broadcast()
}

func (d *demand) Cancel() {
	d.mu.Lock()
	d.cancel = true
	d.cond.Broadcast()
	d.mu.Unlock()
}

func (d *demand) cancelled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel
}

// acquire waits for one unit of demand and consumes it.
func (d *demand) acquire() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.n == 0 && !d.cancel && d.err == nil {
		d.cond.Wait()
	}
	switch {
	case d.cancel:
		return errCancelled
	case d.err != nil:
		d.cancel = true
		return d.err
	}
	d.n--
	return nil
}
