package main

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/arnodel/jsonfeed"
	"github.com/arnodel/jsonfeed/charset"
	"github.com/arnodel/jsonfeed/flow"
	"github.com/arnodel/jsonfeed/internal/format"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/itchyny/gojq"
	"github.com/kaptinlin/jsonrepair"
	"golang.org/x/sync/errgroup"
)

// processor decodes inputs and renders them.  It is shared by the workers,
// so it is read-only once built.
type processor struct {
	opts      *options
	decode    []jsonfeed.Option
	query     *gojq.Query
	schema    *jsonschema.Resolved
	write     writeFunc
	colorizer *format.Colorizer
}

func newProcessor(opts *options, colorizer *format.Colorizer) (*processor, error) {
	p := &processor{opts: opts, colorizer: colorizer}
	if opts.chunkSize <= 0 {
		return nil, fmt.Errorf("invalid --chunk-size %d", opts.chunkSize)
	}
	if opts.jobs <= 0 {
		return nil, fmt.Errorf("invalid --jobs %d", opts.jobs)
	}

	p.decode = append(p.decode, jsonfeed.WithCharset(opts.charset))
	if opts.contentType != "" {
		p.decode = append(p.decode, jsonfeed.WithContentType(opts.contentType))
	}
	if opts.prefetch != 0 {
		p.decode = append(p.decode, jsonfeed.WithPrefetch(opts.prefetch))
	}
	if opts.prefetchFactor >= 0 {
		p.decode = append(p.decode, jsonfeed.WithPrefetchFactor(opts.prefetchFactor))
	}
	if opts.buffered {
		p.decode = append(p.decode, jsonfeed.WithParserFactory(func() (jsonfeed.NonBlockingParser, error) {
			return nil, jsonfeed.ErrParserUnavailable
		}))
	}
	// Catch bad options before reading anything
	if _, err := jsonfeed.NewSubscriber[any](p.decode...); err != nil {
		return nil, err
	}

	if opts.query != "" {
		q, err := gojq.Parse(opts.query)
		if err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
		p.query = q
	}
	if opts.schemaFile != "" {
		s, err := loadSchema(opts.schemaFile)
		if err != nil {
			return nil, err
		}
		p.schema = s
	}

	write, err := newWriter(opts, colorizer)
	if err != nil {
		return nil, err
	}
	p.write = write
	return p, nil
}

func loadSchema(path string) (*jsonschema.Resolved, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	var s jsonschema.Schema
	if err := stdjson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return resolved, nil
}

// run processes the inputs, at most opts.jobs at a time, and writes their
// output to out in order.  Every input is processed even if some fail; the
// first failure is returned.
func run(ctx context.Context, opts *options, names []string, stdin io.Reader, out io.Writer, colorizer *format.Colorizer) error {
	p, err := newProcessor(opts, colorizer)
	if err != nil {
		return err
	}

	outputs := make([]bytes.Buffer, len(names))
	errs := make([]error, len(names))
	var g errgroup.Group
	g.SetLimit(opts.jobs)
	for i, name := range names {
		g.Go(func() error {
			errs[i] = p.processInput(ctx, name, stdin, &outputs[i])
			return nil
		})
	}
	g.Wait()

	var first error
	for i, name := range names {
		if _, err := out.Write(outputs[i].Bytes()); err != nil {
			return err
		}
		if errs[i] == nil {
			continue
		}
		if len(names) > 1 {
			errs[i] = fmt.Errorf("%s: %w", displayName(name), errs[i])
		}
		if first == nil {
			first = errs[i]
		} else {
			printError(os.Stderr, errs[i])
		}
	}
	return first
}

func displayName(name string) string {
	if name == "-" {
		return "<stdin>"
	}
	return name
}

func (p *processor) processInput(ctx context.Context, name string, stdin io.Reader, out io.Writer) error {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var value any
	var err error
	if p.opts.repair {
		value, err = p.decodeWithRepair(ctx, r)
	} else {
		value, err = jsonfeed.Decode[any](ctx, flow.FromReader(r, p.opts.chunkSize), p.decode...)
	}
	if err != nil {
		return err
	}

	if p.schema != nil {
		if err := p.schema.Validate(value); err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
	}

	if p.query == nil {
		return p.write(out, value)
	}
	iter := p.query.RunWithContext(ctx, value)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			var haltErr *gojq.HaltError
			if errors.As(err, &haltErr) && haltErr.Value() == nil {
				return nil
			}
			return err
		}
		if err := p.write(out, v); err != nil {
			return err
		}
	}
}

// decodeWithRepair reads the whole input, and if it is not valid JSON runs
// it through jsonrepair and decodes the result.
func (p *processor) decodeWithRepair(ctx context.Context, r io.Reader) (any, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	value, err := jsonfeed.Decode[any](ctx, flow.FromSlice(chunks(body, p.opts.chunkSize)...), p.decode...)
	var parseErr *jsonfeed.ParseFeedError
	if !errors.As(err, &parseErr) {
		return value, err
	}

	// jsonrepair works on UTF-8 text
	cs := p.opts.charset
	if p.opts.contentType != "" {
		cs = charset.FromContentType(p.opts.contentType, cs)
	}
	tr, err := charset.New(cs)
	if err != nil {
		return nil, err
	}
	text, err := tr.Process([][]byte{body}, true)
	if err != nil {
		return nil, err
	}
	fixed, err := jsonrepair.JSONRepair(string(bytes.Join(text, nil)))
	if err != nil {
		return nil, fmt.Errorf("%w (repair failed: %w)", parseErr, err)
	}
	return jsonfeed.Decode[any](ctx, flow.FromSlice(chunks([]byte(fixed), p.opts.chunkSize)...), append(slices.Clip(p.decode), jsonfeed.WithCharset("UTF-8"))...)
}

// chunks splits b into batches of one chunk of at most size bytes.
func chunks(b []byte, size int) [][][]byte {
	var batches [][][]byte
	for len(b) > 0 {
		n := min(size, len(b))
		batches = append(batches, [][]byte{b[:n]})
		b = b[n:]
	}
	return batches
}
