package quote

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alfex4936/ltpanel/internal/textspan"
)

func TestMask(t *testing.T) {
	in := "Thanks for teh note.\n> You wrote somethign\n  > nested too\nBye"
	got := Mask(in)

	assert.Equal(t, "Thanks for teh note.\n"+
		strings.Repeat(" ", 21)+"\n"+
		strings.Repeat(" ", 14)+"\n"+
		"Bye", got)
	assert.Equal(t, textspan.Len(in), textspan.Len(got))
}

func TestMask_NoQuotes(t *testing.T) {
	in := "a -> b is not a quote"
	assert.Equal(t, in, Mask(in))
}

func TestMask_KeepsCRLFAndWideRunes(t *testing.T) {
	in := "> 😀\r\nok"
	got := Mask(in)
	assert.Equal(t, "    \r\nok", got)
	assert.Equal(t, textspan.Len(in), textspan.Len(got))
}
