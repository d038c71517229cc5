package annotate

import (
	"regexp"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/sanitize"
	"github.com/Alfex4936/ltpanel/internal/util"
)

// MaxReplacements caps the suggestions shown per entry. Extra ones are
// dropped, not summarized.
const MaxReplacements = 7

// AffordanceKind names the suppression action offered for an entry.
type AffordanceKind string

const (
	AddToDictionary AffordanceKind = "add-to-dictionary"
	TurnOffRule     AffordanceKind = "turn-off-rule"
)

// Affordance carries what the suppression action needs.
type Affordance struct {
	Kind        AffordanceKind `json:"kind"`
	Word        string         `json:"word,omitempty"`
	RuleID      string         `json:"ruleId,omitempty"`
	Description string         `json:"description,omitempty"`
}

// ViewEntry is one displayed issue. All strings are sanitized text.
type ViewEntry struct {
	Category      model.Category `json:"category"`
	RuleID        string         `json:"ruleId"`
	Message       string         `json:"message"`
	ContextBefore string         `json:"contextBefore"`
	ErrorText     string         `json:"errorText"`
	ContextAfter  string         `json:"contextAfter"`
	ErrorOffset   int            `json:"errorOffset"` // document-global, for ApplyReplacement
	Replacements  []string       `json:"replacements"`
	Distances     []int          `json:"distances"` // Levenshtein(errorText, replacements[i])
	Actionable    bool           `json:"actionable"`
	Affordance    Affordance     `json:"affordance"`
}

// IgnoredRuleLine is a summary line for a rule that hid something in
// this check and can be re-enabled.
type IgnoredRuleLine struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Count       int    `json:"count"`
}

// Summary describes the check as a whole.
type Summary struct {
	NoIssues         bool              `json:"noIssues"`
	MatchCount       int               `json:"matchCount"`
	Language         string            `json:"language"` // full code from the service
	ShortLanguage    string            `json:"shortLanguage"`
	LanguageName     string            `json:"languageName"`
	IgnoredRules     []IgnoredRuleLine `json:"ignoredRules,omitempty"`
	CheckedBy        string            `json:"checkedBy"`
	ShowShortcutHint bool              `json:"showShortcutHint"`
}

// ViewModel is everything a renderer needs; it embeds no markup.
type ViewModel struct {
	Entries []ViewEntry `json:"entries"`
	Summary Summary     `json:"summary"`
}

// Options carries the per-check facts that are not in the response.
type Options struct {
	Editable                    bool // host can write replacements back
	PageURL                     string
	UnsupportedReplacementSites []*regexp.Regexp
	ServerURL                   string
	ShowShortcutHint            bool
}

// Build runs the whole pipeline: normalize, classify and filter, then
// lay out entries and the summary.
func Build(resp *model.Response, sup Suppression, opts Options) *ViewModel {
	code := sanitize.HTML(resp.Language.Code)
	short := ShortCode(code)

	filtered := Filter(Normalize(resp.Matches), short, sup)
	actionable := opts.Editable && !matchesAny(opts.UnsupportedReplacementSites, opts.PageURL)

	vm := &ViewModel{Entries: make([]ViewEntry, 0, len(filtered.Kept))}
	for _, a := range filtered.Kept {
		vm.Entries = append(vm.Entries, entry(a, actionable))
	}

	vm.Summary = Summary{
		NoIssues:         len(vm.Entries) == 0,
		MatchCount:       len(vm.Entries),
		Language:         code,
		ShortLanguage:    short,
		LanguageName:     languageName(code, sanitize.HTML(resp.Language.Name)),
		IgnoredRules:     ignoredLines(sup.IgnoredRules, short, filtered.Suppressed),
		CheckedBy:        sanitize.HTML(opts.ServerURL),
		ShowShortcutHint: opts.ShowShortcutHint,
	}
	return vm
}

func entry(a Annotated, actionable bool) ViewEntry {
	before, errText, after := a.Before, a.ErrorText, a.After

	n := min(len(a.Replacements), MaxReplacements)
	reps := make([]string, n)
	for i := range n {
		reps[i] = a.Replacements[i].Value
	}

	e := ViewEntry{
		Category:      a.Category,
		RuleID:        a.Rule.ID,
		Message:       a.Message,
		ContextBefore: before,
		ErrorText:     errText,
		ContextAfter:  after,
		ErrorOffset:   a.Offset,
		Replacements:  reps,
		Distances:     util.Distances(errText, reps),
		Actionable:    actionable,
	}
	if a.Category == model.Spelling {
		e.Affordance = Affordance{Kind: AddToDictionary, Word: a.ErrorText}
	} else {
		e.Affordance = Affordance{Kind: TurnOffRule, RuleID: a.Rule.ID, Description: a.Rule.Description}
	}
	return e
}

// ignoredLines lists rules of the current language that actually hid
// something in this text, in stored order.
func ignoredLines(rules []model.IgnoredRule, lang string, counts map[string]int) []IgnoredRuleLine {
	var out []IgnoredRuleLine
	seen := map[string]bool{}
	for _, r := range rules {
		if r.Language != lang || seen[r.ID] {
			continue
		}
		n := counts[sanitize.HTML(r.ID)]
		if n == 0 {
			continue
		}
		seen[r.ID] = true
		out = append(out, IgnoredRuleLine{
			ID:          sanitize.HTML(r.ID),
			Description: sanitize.HTML(r.Description),
			Language:    r.Language,
			Count:       n,
		})
	}
	return out
}

// languageName prefers the language's own name for the code and falls
// back to what the service called it.
func languageName(code, fallback string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return fallback
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return fallback
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
