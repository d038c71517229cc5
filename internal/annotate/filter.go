package annotate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/sanitize"
	"github.com/Alfex4936/ltpanel/internal/textspan"
)

// Suppression is the slice of stored state the filter consults.
type Suppression struct {
	Dictionary   []string
	IgnoredRules []model.IgnoredRule
}

// Annotated is a canonical match with its server strings sanitized and
// its category and error text resolved. Context.Text and Context.Offset
// describe the sanitized context, Before+ErrorText+After.
type Annotated struct {
	model.Match
	Category  model.Category
	Before    string
	ErrorText string
	After     string
}

// Filtered is the outcome of Filter. Suppressed counts per rule id are
// only meant for the current render and are never persisted.
type Filtered struct {
	Kept       []Annotated
	Suppressed map[string]int
}

// Filter sanitizes matches and splits them into the ones to show and the
// ones the user suppressed. lang is the short code of the result language.
func Filter(matches []model.Match, lang string, sup Suppression) Filtered {
	dict := make(map[string]struct{}, len(sup.Dictionary))
	for _, w := range sup.Dictionary {
		dict[w] = struct{}{}
	}

	out := Filtered{Suppressed: map[string]int{}}
	for _, m := range matches {
		a := prepare(m)
		var hide bool
		if a.Category == model.Spelling {
			hide = known(dict, a.ErrorText)
		} else {
			hide = ruleIgnored(sup.IgnoredRules, a.Rule.ID, lang)
		}
		if hide {
			out.Suppressed[a.Rule.ID]++
			continue
		}
		out.Kept = append(out.Kept, a)
	}
	return out
}

// prepare sanitizes every server string of m. The raw context is cut
// with the context-relative offset (not the document-global one) before
// sanitizing, so markup-like text around the error cannot shift it.
func prepare(m model.Match) Annotated {
	m.Rule.ID = sanitize.HTML(m.Rule.ID)
	m.Rule.Description = sanitize.HTML(m.Rule.Description)
	m.Message = sanitize.HTML(m.Message)

	before, inside, after := textspan.Split(m.Context.Text, m.Context.Offset, m.Length)
	before, inside, after = sanitize.HTML(before), sanitize.HTML(inside), sanitize.HTML(after)
	m.Context.Text = before + inside + after
	m.Context.Offset = textspan.Len(before)
	m.Context.Length = textspan.Len(inside)

	reps := make([]model.Replacement, len(m.Replacements))
	for i, r := range m.Replacements {
		reps[i] = model.Replacement{Value: sanitize.HTML(r.Value)}
	}
	m.Replacements = reps

	return Annotated{
		Match:     m,
		Category:  Classify(m),
		Before:    before,
		ErrorText: inside,
		After:     after,
	}
}

// known accepts a capitalized word when its lowercase-first form is in the
// dictionary. The reverse does not hold: "Teh" in the dictionary does not
// make "teh" known.
func known(dict map[string]struct{}, word string) bool {
	if _, ok := dict[word]; ok {
		return true
	}
	if !startsUpper(word) {
		return false
	}
	_, ok := dict[lowerFirst(word)]
	return ok
}

func ruleIgnored(rules []model.IgnoredRule, id, lang string) bool {
	for _, r := range rules {
		if r.ID == id && r.Language == lang {
			return true
		}
	}
	return false
}

// ShortCode returns the primary subtag of a language code ("en" for "en-US").
func ShortCode(code string) string {
	short, _, _ := strings.Cut(code, "-")
	return short
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
