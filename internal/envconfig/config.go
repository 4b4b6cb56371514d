// Package envconfig reads the configuration that jsonfeed takes from the
// environment.  Options passed in code always take precedence.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

var (
	// Prefetch is the number of chunk batches requested from upstream at a
	// time.  Configurable via JSONFEED_PREFETCH.
	Prefetch = Uint("JSONFEED_PREFETCH", 8)

	// PrefetchFactor sets the replenishment threshold as a fraction of
	// Prefetch.  Configurable via JSONFEED_PREFETCH_FACTOR.
	PrefetchFactor = Float("JSONFEED_PREFETCH_FACTOR", 0.5)

	// ChunkSize is the size of the chunks the CLI reads its input in.
	// Configurable via JSONFEED_CHUNK_SIZE.
	ChunkSize = Uint("JSONFEED_CHUNK_SIZE", 8192)
)

// LogLevel returns the log level
// Configurable via JSONFEED_DEBUG
// Values: 0/false = INFO (default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("JSONFEED_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// Var returns an environment variable stripped of surrounding quotes and
// whitespace.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// Uint returns a function reading a positive integer, with a default used
// when the variable is unset or invalid.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil || n == 0 {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Float returns a function reading a number in [0, 1].
func Float(key string, defaultValue float64) func() float64 {
	return func() float64 {
		if s := Var(key); s != "" {
			if f, err := strconv.ParseFloat(s, 64); err != nil || f < 0 || f > 1 {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return f
			}
		}
		return defaultValue
	}
}

// EnvVar describes a configuration variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"JSONFEED_DEBUG":           {"JSONFEED_DEBUG", LogLevel(), "Show additional debug information (e.g. JSONFEED_DEBUG=1)"},
		"JSONFEED_PREFETCH":        {"JSONFEED_PREFETCH", Prefetch(), "Number of chunk batches requested at a time (default 8)"},
		"JSONFEED_PREFETCH_FACTOR": {"JSONFEED_PREFETCH_FACTOR", PrefetchFactor(), "Fraction of the prefetch window at which demand is replenished (default 0.5)"},
		"JSONFEED_CHUNK_SIZE":      {"JSONFEED_CHUNK_SIZE", ChunkSize(), "Size of the chunks input files are read in (default 8192)"},
	}
}

// Values returns every variable formatted as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
