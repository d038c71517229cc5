package annotate

import (
	"strings"

	"github.com/Alfex4936/ltpanel/internal/model"
)

// rule id markers of the speller engines
var spellerMarkers = []string{"SPELLER_RULE", "MORFOLOGIK_RULE", "HUNSPELL"}

var stylisticIssues = map[string]bool{
	"style":            true,
	"locale-violation": true,
	"register":         true,
}

// Classify maps m to exactly one category.
func Classify(m model.Match) model.Category {
	switch {
	case IsSpelling(m):
		return model.Spelling
	case stylisticIssues[m.Rule.IssueType]:
		return model.Suggestion
	default:
		return model.Grammar
	}
}

// IsSpelling reports whether m comes from a speller engine.
func IsSpelling(m model.Match) bool {
	for _, marker := range spellerMarkers {
		if strings.Contains(m.Rule.ID, marker) {
			return true
		}
	}
	return false
}
