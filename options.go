package jsonfeed

import (
	"fmt"
	"log/slog"

	"github.com/arnodel/jsonfeed/charset"
	"github.com/arnodel/jsonfeed/encoding/json"
	"github.com/arnodel/jsonfeed/flow"
)

// An Option configures a subscriber, Decode or Encode.
type Option func(*config)

type config struct {
	charsetName    string
	prefetch       int
	prefetchFactor float64
	maxDepth       int
	materializer   Materializer
	logger         *slog.Logger
	parserFactory  func() (NonBlockingParser, error)

	// Resolved by newConfig
	charset   *charset.Charset
	threshold int
}

// WithCharset sets the charset of the input (or of the output of Encode).
// The default is UTF-8.
func WithCharset(name string) Option {
	return func(c *config) {
		c.charsetName = name
	}
}

// WithContentType sets the charset from the charset parameter of a media
// type, leaving it unchanged if there is none.
func WithContentType(contentType string) Option {
	return func(c *config) {
		c.charsetName = charset.FromContentType(contentType, c.charsetName)
	}
}

// WithPrefetch sets how many chunk batches are requested from upstream at a
// time.  It defaults to JSONFEED_PREFETCH, or 8.
func WithPrefetch(n int) Option {
	return func(c *config) {
		c.prefetch = n
	}
}

// WithPrefetchFactor sets the fraction of the prefetch window at or below
// which more batches are requested.  It defaults to JSONFEED_PREFETCH_FACTOR,
// or 0.5.
func WithPrefetchFactor(f float64) Option {
	return func(c *config) {
		c.prefetchFactor = f
	}
}

// WithMaxDepth limits the nesting depth accepted by the default parser.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithMaterializer sets how the buffered tokens become the result value.
// The default is JSONMaterializer{}.
func WithMaterializer(m Materializer) Option {
	return func(c *config) {
		c.materializer = m
	}
}

// WithLogger sets the logger for debug records.  The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithParserFactory replaces the default non-blocking parser.  If the
// factory fails, the input is buffered and decoded once complete.
func WithParserFactory(f func() (NonBlockingParser, error)) Option {
	return func(c *config) {
		c.parserFactory = f
	}
}

func newConfig(opts []Option) (*config, error) {
	c := &config{
		charsetName:    charset.UTF8.Name,
		prefetch:       flow.Prefetch(),
		prefetchFactor: flow.PrefetchFactor(),
		maxDepth:       json.DefaultMaxDepth,
		materializer:   JSONMaterializer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.parserFactory == nil {
		c.parserFactory = c.defaultParser
	}
	if c.prefetch <= 0 {
		return nil, fmt.Errorf("jsonfeed: invalid prefetch %d", c.prefetch)
	}
	if c.prefetchFactor < 0 || c.prefetchFactor > 1 {
		return nil, fmt.Errorf("jsonfeed: invalid prefetch factor %g", c.prefetchFactor)
	}
	c.threshold = flow.PrefetchThreshold(c.prefetch, c.prefetchFactor)
	cs, err := charset.Lookup(c.charsetName)
	if err != nil {
		return nil, err
	}
	c.charset = cs
	return c, nil
}

func (c *config) defaultParser() (NonBlockingParser, error) {
	p := json.NewParser()
	p.SetMaxDepth(c.maxDepth)
	return p, nil
}
