// Package quote blanks out e-mail style quoted lines ("> ...") before a
// check, so replies are not flagged for text the user did not write.
package quote

import "strings"

// Mask replaces every quoted line with spaces of the same UTF-16 length.
// Line breaks are kept, so offsets reported against the masked text are
// valid against the original. The service must be told to skip its
// whitespace rule, otherwise the blanks themselves are reported.
func Mask(s string) string {
	if !strings.Contains(s, ">") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '\n' {
			continue
		}
		line := s[start:i]
		if isQuoted(line) {
			blank(&b, line)
		} else {
			b.WriteString(line)
		}
		if i < len(s) {
			b.WriteByte('\n')
		}
		start = i + 1
	}
	return b.String()
}

func isQuoted(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), ">")
}

func blank(b *strings.Builder, line string) {
	for _, r := range line {
		switch {
		case r == '\r':
			b.WriteByte('\r')
		case r >= 0x10000: // surrogate pair in UTF-16
			b.WriteString("  ")
		default:
			b.WriteByte(' ')
		}
	}
}
