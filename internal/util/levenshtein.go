package util

// Levenshtein returns the rune-aware edit distance between a and b,
// using a single rolling row.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra // keep the row on the shorter side
	}
	if len(rb) == 0 {
		return len(ra)
	}

	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			up := row[j]
			cost := diag
			if ra[i-1] != rb[j-1] {
				cost = 1 + min(diag, up, row[j-1])
			}
			row[j] = cost
			diag = up
		}
	}
	return row[len(rb)]
}

// Distances returns Levenshtein(origin, s) for every suggestion.
func Distances(origin string, suggestions []string) []int {
	out := make([]int, len(suggestions))
	for i, s := range suggestions {
		out[i] = Levenshtein(origin, s)
	}
	return out
}
