// Command jfeed decodes JSON documents from files or standard input with the
// non-blocking jsonfeed subscriber, and prints them as JSON, YAML or
// MessagePack.
//
// Usage:
//
//	jfeed [flags] [file...]
//
// Each file is decoded as one JSON document.  With no file, or with "-",
// standard input is read.  Several files are decoded concurrently (see
// --jobs) and printed in the order they were given.
//
// Environment:
//
//	JSONFEED_DEBUG            log decoding steps to stderr
//	JSONFEED_PREFETCH         default for --prefetch
//	JSONFEED_PREFETCH_FACTOR  default for --prefetch-factor
//	JSONFEED_CHUNK_SIZE       default for --chunk-size
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/arnodel/jsonfeed/internal/envconfig"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

func main() {
	// Do not handle SIGPIPE, we'll do it ourselves (see error handling below).
	signal.Ignore(syscall.SIGPIPE)

	// Display a stack trace on panic
	defer func() {
		if e := recover(); e != nil {
			fmt.Fprintf(os.Stderr, "%s: %s", e, debug.Stack())
			os.Exit(2)
		}
	}()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: envconfig.LogLevel()})))

	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			// stdout is a pipe and something closed it (e.g. 'head' or 'less').
			return
		}
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

var errorLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

func printError(w io.Writer, err error) {
	label := "error:"
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		label = errorLabel.Render(label)
	}
	fmt.Fprintln(w, label, err)
}
