package jsonfeed

import (
	"context"
	"sync"
)

// A Result holds the outcome of a decode, once it is known.  It is resolved
// exactly once; later attempts to resolve it are ignored.  Any number of
// goroutines may wait on it.
type Result[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

// resolve reports whether this call set the outcome.
func (r *Result[T]) resolve(value T, err error) (ok bool) {
	r.once.Do(func() {
		r.value, r.err = value, err
		close(r.done)
		ok = true
	})
	return
}

func (r *Result[T]) fail(err error) bool {
	var zero T
	return r.resolve(zero, err)
}

// Done is closed when the result is resolved.
func (r *Result[T]) Done() <-chan struct{} {
	return r.done
}

// Await waits for the result or for ctx to be done.  Giving up on a result
// does not cancel the decode it belongs to.
func (r *Result[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Get waits for the result.
func (r *Result[T]) Get() (T, error) {
	<-r.done
	return r.value, r.err
}
