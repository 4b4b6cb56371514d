// Package iterator gives lazy views of the JSON values in a token stream.
// Values are read from the stream only as the caller advances, so a large
// document can be walked without building it in memory.
package iterator

import (
	"fmt"

	"github.com/arnodel/jsonfeed/token"
)

// An Iterator walks the top level values of a token stream.
type Iterator struct {
	stream       token.ReadStream
	currentValue Value
}

func New(stream token.ReadStream) *Iterator {
	return &Iterator{stream: stream}
}

// Advance moves to the next top level value, discarding what remains of the
// current one.  It returns false when the stream is exhausted.
func (i *Iterator) Advance() (ok bool) {
	if i.currentValue != nil {
		i.currentValue.Discard()
	}
	nextItem := i.stream.Next()
	if nextItem == nil {
		i.currentValue = nil
		return false
	}
	i.currentValue = nextStreamedValue(nextItem, i.stream)
	return true
}

func (i *Iterator) CurrentValue() Value {
	return i.currentValue
}

// A Value is a Scalar, an Object or an Array.
type Value interface {
	// Discard skips the rest of the value in the stream.
	Discard()
}

type Scalar token.Scalar

var _ Value = &Scalar{}

func (s *Scalar) Discard() {}

func (s *Scalar) Scalar() *token.Scalar {
	return (*token.Scalar)(s)
}

type Collection interface {
	Value
	Advance() bool
	Done() bool
	CurrentValue() Value
}

type collectionBase struct {
	stream token.ReadStream

	started bool
	done    bool

	currentValue Value
}

func (c *collectionBase) Done() bool {
	return c.done
}

func (c *collectionBase) Discard() {
	if c.done {
		return
	}
	if c.started {
		c.currentValue.Discard()
	}
	c.done = true
	depth := 0
	for {
		item := c.stream.Next()
		if item == nil {
			return
		}
		depth += depthChange(item)
		if depth < 0 {
			return
		}
	}
}

func (c *collectionBase) CurrentValue() Value {
	if c.done {
		panic("iterator done")
	}
	return c.currentValue
}

type Object struct {
	collectionBase
	currentKey *token.Scalar
}

var _ Collection = &Object{}

func (o *Object) CurrentKeyVal() (*token.Scalar, Value) {
	if o.done {
		panic("iterator done")
	}
	return o.currentKey, o.currentValue
}

func (o *Object) Advance() bool {
	if o.done {
		return false
	}
	if o.started {
		o.currentValue.Discard()
	}
	item := o.stream.Next()
	if item == nil {
		panic("stream ended inside object - expected key")
	}
	switch v := item.(type) {
	case *token.Scalar:
		o.started = true
		o.currentKey = v
		item := o.stream.Next()
		if item == nil {
			panic("stream ended inside object - expected value")
		}
		o.currentValue = nextStreamedValue(item, o.stream)
		return true
	case *token.EndObject:
		o.done = true
		return false
	default:
		panic(fmt.Sprintf("invalid stream %#v, %#v", item, o.stream))
	}
}

type Array struct {
	collectionBase
}

var _ Collection = &Array{}

func (a *Array) Advance() bool {
	if a.done {
		return false
	}
	if a.started {
		a.currentValue.Discard()
	}
	item := a.stream.Next()
	if item == nil {
		panic("stream ended inside array")
	}
	switch item.(type) {
	case *token.EndArray:
		a.done = true
		return false
	default:
		a.started = true
		a.currentValue = nextStreamedValue(item, a.stream)
		return true
	}
}

func depthChange(item token.Token) int {
	switch item.(type) {
	case *token.StartArray, *token.StartObject:
		return 1
	case *token.EndArray, *token.EndObject:
		return -1
	}
	return 0
}

func nextStreamedValue(firstItem token.Token, stream token.ReadStream) Value {
	switch v := firstItem.(type) {
	case *token.StartArray:
		return &Array{
			collectionBase: collectionBase{stream: stream},
		}
	case *token.StartObject:
		return &Object{
			collectionBase: collectionBase{stream: stream},
		}
	case *token.Scalar:
		return (*Scalar)(v)
	default:
		panic(fmt.Sprintf("invalid stream %#v", firstItem))
	}
}
