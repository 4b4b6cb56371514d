// Package flow defines the push-based stream contract between a Publisher of
// items and a Subscriber with bounded demand.
//
// A Subscriber receives OnSubscribe first, then at most as many OnNext
// signals as it has requested through its Subscription, then at most one of
// OnError or OnComplete.  Signals to one Subscriber never overlap.
package flow

import (
	"errors"
	"math"

	"github.com/arnodel/jsonfeed/internal/envconfig"
)

// A Subscription links one Subscriber to one Publisher.
type Subscription interface {
	// Request adds n to the number of items the subscriber is ready to
	// receive.  A non-positive n is a protocol violation which the publisher
	// reports with OnError.
	Request(n int64)

	// Cancel asks the publisher to stop sending signals.  It may be called
	// any number of times.
	Cancel()
}

type Subscriber[T any] interface {
	OnSubscribe(Subscription)
	OnNext(item T)
	OnError(err error)
	OnComplete()
}

type Publisher[T any] interface {
	Subscribe(Subscriber[T])
}

// ErrNonPositiveRequest is signalled to a subscriber which requested zero
// or a negative number of items.
var ErrNonPositiveRequest = errors.New("flow: non-positive request")

type noopSubscription struct{}

func (noopSubscription) Request(int64) {}
func (noopSubscription) Cancel()       {}

// NoopSubscription ignores requests and cancellation.  Subscribers use it as
// a marker for a terminated subscription.
var NoopSubscription Subscription = noopSubscription{}

// Prefetch returns the default number of items to request at a time.
func Prefetch() int {
	return int(min(envconfig.Prefetch(), math.MaxInt32))
}

// PrefetchFactor returns the default fraction of the prefetch window below
// which demand is replenished.
func PrefetchFactor() float64 {
	return envconfig.PrefetchFactor()
}

// PrefetchThreshold is the window size at or below which a subscriber
// requesting prefetch items at a time asks for more.  It is always in
// [0, prefetch-1].
func PrefetchThreshold(prefetch int, factor float64) int {
	threshold := int(float64(prefetch) * factor)
	return max(0, min(threshold, prefetch-1))
}
