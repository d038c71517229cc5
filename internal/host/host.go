// Package host supplies checkable text and writes corrections back.
package host

import (
	"errors"
	"fmt"

	"github.com/Alfex4936/ltpanel/internal/textspan"
)

var (
	// ErrReadOnly is returned by Apply on hosts that cannot write.
	ErrReadOnly = errors.New("host: text is read-only")
	// ErrStale means the text at the correction offset no longer matches.
	ErrStale = errors.New("host: text changed since the check")
)

// tooLong renders the status shown instead of checking oversized text.
func tooLong(n, limit int) string {
	return fmt.Sprintf("Text is too long to check: %d characters, the limit is %d.", n, limit)
}

// overLimit reports the UTF-16 length of text when it exceeds limit.
func overLimit(text string, limit int) (int, bool) {
	if limit <= 0 {
		return 0, false
	}
	n := textspan.Len(text)
	return n, n > limit
}
