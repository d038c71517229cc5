package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"teh", "", 3},
		{"", "the", 3},
		{"teh", "the", 2},
		{"kitten", "sitting", 3},
		{"naïve", "naive", 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Levenshtein(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
		assert.Equal(t, tc.want, Levenshtein(tc.b, tc.a), "%q vs %q", tc.b, tc.a)
	}
}

func TestDistances(t *testing.T) {
	assert.Equal(t, []int{2, 1}, Distances("teh", []string{"the", "tech"}))
}

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"msg": "a < b & c"}, false)
	require.NoError(t, err)
	assert.Equal(t, `{"msg":"a < b & c"}`, string(out))
}
