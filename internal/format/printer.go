package format

import (
	"fmt"
	"io"
)

// The Printer interface is used to output structured text.
//
// Indent() starts a new line at an increased indentation level
// Dedent() starts a new line at a decreased indentation level
// NewLine() starts a new line at the current indentation level
// PrintBytes() outputs bytes at the current position
// Reset() ends the current top level value
//
// The methods do not return an error.  Implementations panic with a
// *PrinterError instead, which the caller turns back into an error with
//
//	func printSomething(p Printer) (err error) {
//	    defer CatchPrinterError(&err)
//	    ...
//	}
type Printer interface {
	Indent()
	Dedent()
	NewLine()
	PrintBytes([]byte)
	Reset()
}

// CatchPrinterError recovers a panic raised by a Printer and stores its error
// in *err.  Other panics are propagated.
func CatchPrinterError(err *error) {
	if r := recover(); r != nil {
		perr, ok := r.(*PrinterError)
		if !ok {
			panic(r)
		}
		*err = perr
	}
}

// A PrinterError wraps an error returned by the writer of a Printer.
type PrinterError struct {
	Err error
}

func (e *PrinterError) Error() string {
	return fmt.Sprintf("printer error: %s", e.Err)
}

func (e *PrinterError) Unwrap() error {
	return e.Err
}

// DefaultPrinter writes to an io.Writer, indenting with IndentSize spaces
// per level.  A negative IndentSize puts everything on one line (Reset still
// ends a value with a new line unless NoTrailingNewLine is set).
type DefaultPrinter struct {
	io.Writer
	IndentSize        int
	NoTrailingNewLine bool

	indentLevel int
}

var _ Printer = &DefaultPrinter{}

func (p *DefaultPrinter) NewLine() {
	if p.IndentSize < 0 {
		return
	}
	p.write([]byte{'\n'})
	for i := p.IndentSize * p.indentLevel; i > 0; i-- {
		p.write([]byte{' '})
	}
}

func (p *DefaultPrinter) Indent() {
	p.indentLevel++
	p.NewLine()
}

func (p *DefaultPrinter) Dedent() {
	p.indentLevel--
	p.NewLine()
}

func (p *DefaultPrinter) PrintBytes(b []byte) {
	p.write(b)
}

func (p *DefaultPrinter) Reset() {
	p.indentLevel = 0
	if !p.NoTrailingNewLine {
		p.write([]byte{'\n'})
	}
}

func (p *DefaultPrinter) write(b []byte) {
	if _, err := p.Write(b); err != nil {
		panic(&PrinterError{Err: err})
	}
}
