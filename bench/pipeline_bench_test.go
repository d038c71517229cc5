package bench

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Alfex4936/ltpanel/internal/annotate"
	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/quote"
	"github.com/Alfex4936/ltpanel/internal/sanitize"
)

// build a 5 000-word sample once – reuse in all benches.
var (
	mail = strings.Repeat("> quoted line with teh typo\nreply line with teh typo\n", 500)
	long = strings.Repeat("teh ", 5000)

	resp    = sampleResponse(long, 2000)
	dict    = []string{"Kubernetes", "gRPC", "ltpanel"}
	ignored = []model.IgnoredRule{{ID: "RULE_3", Language: "en"}, {ID: "RULE_7", Language: "en"}}
)

// sampleResponse fakes a service answer with n matches, every third one
// overlapping its predecessor.
func sampleResponse(text string, n int) *model.Response {
	ms := make([]model.Match, 0, n)
	for i := range n {
		off := i * 4
		if i%3 == 2 {
			off -= 2
		}
		m := model.Match{
			Rule:         model.Rule{ID: fmt.Sprintf("RULE_%d", i%10), Description: "desc <b>bold</b>", IssueType: "grammar"},
			Message:      "Did you mean <suggestion>the</suggestion>?",
			Offset:       off,
			Length:       3,
			Context:      model.Context{Text: text[max(0, off-40):min(len(text), off+43)], Offset: min(off, 40), Length: 3},
			Replacements: []model.Replacement{{Value: "the"}, {Value: "ten"}, {Value: "tea"}, {Value: "tech"}, {Value: "tee"}, {Value: "ted"}, {Value: "teeth"}, {Value: "tex"}},
		}
		if i%2 == 0 {
			m.Rule.ID = "MORFOLOGIK_RULE_EN_US"
			m.Rule.IssueType = "misspelling"
		}
		ms = append(ms, m)
	}
	return &model.Response{Language: model.Language{Name: "English (US)", Code: "en-US"}, Matches: ms}
}

func BenchmarkMaskQuotes(b *testing.B) {
	for b.Loop() {
		_ = quote.Mask(mail)
	}
}

func BenchmarkSanitizePlain(b *testing.B) {
	for b.Loop() {
		_ = sanitize.HTML(long) // no markup, fast path
	}
}

func BenchmarkSanitizeMarkup(b *testing.B) {
	s := strings.Repeat("a <b>bold</b> <script>x()</script> word ", 200)
	for b.Loop() {
		_ = sanitize.HTML(s)
	}
}

func BenchmarkNormalize(b *testing.B) {
	for b.Loop() {
		_ = annotate.Normalize(resp.Matches)
	}
}

func BenchmarkBuild(b *testing.B) {
	sup := annotate.Suppression{Dictionary: dict, IgnoredRules: ignored}
	opts := annotate.Options{Editable: true, ServerURL: "https://api.languagetool.org/v2"}
	for b.Loop() {
		_ = annotate.Build(resp, sup, opts)
	}
}
