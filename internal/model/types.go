package model

// Response is the decoded body of a /check call.
type Response struct {
	Language Language `json:"language"`
	Matches  []Match  `json:"matches"`
}

// Language is the language the service detected or was told to use.
type Language struct {
	Name string `json:"name"` // e.g. "English (US)"
	Code string `json:"code"` // e.g. "en-US"
}

// Match represents a single issue span reported by the service.
type Match struct {
	Rule         Rule          `json:"rule"`
	Message      string        `json:"message"`
	Offset       int           `json:"offset"`  // UTF-16 units, document-global
	Length       int           `json:"length"`  // UTF-16 units
	Context      Context       `json:"context"` // window around the error
	Replacements []Replacement `json:"replacements"`
}

// Rule identifies the check that produced a Match.
type Rule struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IssueType   string `json:"issueType"`
}

// Context is the text window the service echoes back for a Match.
type Context struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"` // error start inside Text
	Length int    `json:"length"`
}

// Replacement is one suggested fix.
type Replacement struct {
	Value string `json:"value"`
}

// Category is the visual class of a Match.
type Category string

const (
	Spelling   Category = "spelling"
	Suggestion Category = "suggestion"
	Grammar    Category = "grammar"
)

// IgnoredRule is a rule the user turned off for one language.
// (ID, Language) is the identity; the same ID may be active elsewhere.
type IgnoredRule struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Language    string `json:"language"` // short code, e.g. "en"
}

// Page is what a host hands over for checking.
type Page struct {
	Text     string `json:"text"`
	URL      string `json:"url"`
	Editable bool   `json:"editable"`          // host can apply replacements
	Message  string `json:"message,omitempty"` // host-side status, skips the check when set
}

// Correction asks the host to replace ErrorText at Offset.
type Correction struct {
	Offset      int    `json:"offset"` // UTF-16 units, document-global
	ErrorText   string `json:"errorText"`
	Replacement string `json:"replacement"`
}
