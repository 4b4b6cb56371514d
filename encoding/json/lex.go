package json

import (
	"github.com/arnodel/jsonfeed/internal/scanner"
	"github.com/arnodel/jsonfeed/token"
)

// stringFlags computes the flags of a string scalar as its bytes are
// scanned.
type stringFlags struct {
	alnum     bool
	unescaped bool
	empty     bool
}

func (f *stringFlags) init() {
	*f = stringFlags{alnum: true, unescaped: true, empty: true}
}

func (f *stringFlags) escape() {
	f.unescaped = false
	f.alnum = false
	f.empty = false
}

func (f *stringFlags) add(b byte) {
	if f.alnum {
		if f.empty {
			f.alnum = scanner.IsAlpha(b)
		} else {
			f.alnum = scanner.IsAlnum(b)
		}
	}
	f.empty = false
}

func (f *stringFlags) scalar(tp token.ScalarType, bytes []byte) *token.Scalar {
	s := token.NewScalar(tp, bytes)
	if f.alnum && !f.empty {
		s.TypeAndFlags |= token.AlnumMask
	}
	if f.unescaped {
		s.TypeAndFlags |= token.UnescapedMask
	}
	return s
}

func isNumberByte(b byte) bool {
	return scanner.IsDigit(b) || b == '-' || b == '+' || b == '.' || b == 'e' || b == 'E'
}

// isDelimiter reports whether b can follow a number or a literal.
func isDelimiter(b byte) bool {
	return scanner.IsSpace(b) || b == ',' || b == ']' || b == '}'
}

// checkNumber validates a JSON number literal.  It returns -1 if n is valid,
// otherwise the offset of the first offending byte (len(n) when n is
// truncated).
func checkNumber(n []byte) int {
	i := 0
	if i < len(n) && n[i] == '-' {
		i++
	}
	switch {
	case i == len(n):
		return i
	case n[i] == '0':
		i++
	case n[i] >= '1' && n[i] <= '9':
		i = skipDigits(n, i)
	default:
		return i
	}
	if i < len(n) && n[i] == '.' {
		j := skipDigits(n, i+1)
		if j == i+1 {
			return j
		}
		i = j
	}
	if i < len(n) && (n[i] == 'e' || n[i] == 'E') {
		i++
		if i < len(n) && (n[i] == '+' || n[i] == '-') {
			i++
		}
		j := skipDigits(n, i)
		if j == i {
			return j
		}
		i = j
	}
	if i < len(n) {
		return i
	}
	return -1
}

func skipDigits(n []byte, i int) int {
	for i < len(n) && scanner.IsDigit(n[i]) {
		i++
	}
	return i
}
