// Package jsonfeed decodes JSON documents which arrive as a stream of byte
// chunks, without ever blocking the goroutine that delivers them.
//
// The work is split into sub-packages:
//
// - charset: conversion of input in any supported charset to UTF-8
// - encoding/json: blocking decoder, non-blocking parser and encoder
// - flow: the publisher / subscriber contract with bounded demand
// - token: core token types and token buffers
// - iterator: value-based iteration over token streams
//
// A subscriber returned by NewSubscriber runs each batch of chunks through
//
//	charset transcoder -> non-blocking parser -> token buffer
//
// and requests more batches from upstream as its prefetch window runs low.
// When the stream completes, the buffered tokens are turned into a value of
// the requested type by a Materializer, and the subscriber's Result is
// resolved.  Malformed input resolves the Result with an error straight
// away and cancels the subscription.
//
// Decode wraps all of this for the common case:
//
//	v, err := jsonfeed.Decode[map[string]any](ctx, flow.FromReader(r, 8192),
//	    jsonfeed.WithContentType(resp.Header.Get("Content-Type")))
//
// The command line tool in cmd/jfeed feeds files or standard input through
// the same machinery.  You can install it with:
//
//	go install github.com/arnodel/jsonfeed/cmd/jfeed
package jsonfeed
