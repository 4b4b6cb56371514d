package scanner

import "fmt"

// Pos is a zero-based line and column in the input.  Columns count UTF-8
// encoded code points, not bytes.
type Pos struct {
	Line int
	Col  int
}

// Advance moves p past the byte b.
func (p *Pos) Advance(b byte) {
	switch {
	case b == '\n':
		p.Line++
		p.Col = 0
	case b < 0x80 || b >= 0xC0:
		// ASCII or first byte of a multi-byte sequence; continuation bytes
		// do not move the column.
		p.Col++
	}
}

// String formats p the way error messages report positions (one-based).
func (p Pos) String() string {
	return fmt.Sprintf("L%d,C%d", p.Line+1, p.Col+1)
}
