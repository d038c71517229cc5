// Package textspan slices strings by UTF-16 offsets, the unit the
// checking service reports positions in.
package textspan

import "unicode/utf16"

// Split cuts s into before/inside/after around [off, off+n).
// Out-of-range spans are clamped, never panic: offsets come from the server.
func Split(s string, off, n int) (before, inside, after string) {
	u := utf16.Encode([]rune(s))
	start, end := clamp(len(u), off, n)
	return decode(u[:start]), decode(u[start:end]), decode(u[end:])
}

// Slice returns the [off, off+n) span of s.
func Slice(s string, off, n int) string {
	_, inside, _ := Split(s, off, n)
	return inside
}

// Len reports the length of s in UTF-16 units.
func Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Replace swaps the [off, off+n) span of s for repl.
func Replace(s string, off, n int, repl string) string {
	before, _, after := Split(s, off, n)
	return before + repl + after
}

func clamp(size, off, n int) (int, int) {
	if off < 0 {
		off = 0
	}
	if off > size {
		off = size
	}
	end := size
	if n >= 0 && n <= size-off {
		end = off + n
	}
	return off, end
}

func decode(u []uint16) string { return string(utf16.Decode(u)) }
