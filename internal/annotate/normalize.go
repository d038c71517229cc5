// Package annotate turns a raw match list into a render-ready view model:
// span dedup, classification, suppression filtering and view building.
// Everything here is pure; persistence and I/O live in the caller.
package annotate

import "github.com/Alfex4936/ltpanel/internal/model"

// Normalize drops matches that repeat the (offset, length) span of their
// successor, keeping the last match in input order for each run of equal
// spans. Pages resolve overlapping highlights the same way (last rule for
// a span wins), so the panel and in-page views agree.
//
// The input is expected in the service's position order. Output is in
// ascending position order.
func Normalize(matches []model.Match) []model.Match {
	if len(matches) == 0 {
		return nil
	}

	kept := make([]model.Match, 0, len(matches))
	prevOff, prevLen := -1, -1
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if m.Offset == prevOff && m.Length == prevLen {
			continue
		}
		kept = append(kept, m)
		prevOff, prevLen = m.Offset, m.Length
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
