package scanner

func IsAlpha[T byte | rune](b T) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_'
}

func IsDigit[T byte | rune](b T) bool {
	return b >= '0' && b <= '9'
}

func IsAlnum[T byte | rune](b T) bool {
	return IsAlpha(b) || IsDigit(b)
}

func IsCtrl[T byte | rune](b T) bool {
	return b < 32
}

func IsHex[T byte | rune](b T) bool {
	return IsDigit(b) || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

// IsSpace reports whether b is JSON insignificant whitespace.
func IsSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
