package ltpanel

import (
	"errors"
	"fmt"

	"github.com/Alfex4936/ltpanel/internal/config"
	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/store"
)

// ActionKind names a user action.
type ActionKind string

// The first four end in a full recheck. The rest only touch settings.
const (
	ActionEnableRule          ActionKind = "enable-rule"
	ActionIgnoreRule          ActionKind = "ignore-rule"
	ActionAddWord             ActionKind = "add-word"
	ActionApplyReplacement    ActionKind = "apply-replacement"
	ActionDismissShortcutHint ActionKind = "dismiss-shortcut-hint"
	ActionSetServerURL        ActionKind = "set-server-url"
	ActionImportWordList      ActionKind = "import-word-list"
)

// ErrInvalidAction is returned for unknown kinds or missing fields.
var ErrInvalidAction = errors.New("ltpanel: invalid action")

// Action is one user action, as posted by the panel.
type Action struct {
	Kind ActionKind `json:"kind"`

	RuleID      string `json:"ruleId,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"` // enable-rule only, "" matches any

	Word string `json:"word,omitempty"`

	Offset      int    `json:"offset,omitempty"`
	ErrorText   string `json:"errorText,omitempty"`
	Replacement string `json:"replacement,omitempty"`

	ServerURL string `json:"serverUrl,omitempty"`
	Path      string `json:"path,omitempty"`
}

// Rechecks reports whether a finished action is followed by a recheck.
func (a Action) Rechecks() bool {
	switch a.Kind {
	case ActionEnableRule, ActionIgnoreRule, ActionAddWord, ActionApplyReplacement:
		return true
	}
	return false
}

// Validate checks the fields a kind needs.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionEnableRule, ActionIgnoreRule:
		if a.RuleID == "" {
			return fmt.Errorf("%w: %s needs ruleId", ErrInvalidAction, a.Kind)
		}
	case ActionAddWord:
		if a.Word == "" {
			return fmt.Errorf("%w: add-word needs word", ErrInvalidAction)
		}
	case ActionApplyReplacement:
		if a.ErrorText == "" || a.Offset < 0 {
			return fmt.Errorf("%w: apply-replacement needs offset and errorText", ErrInvalidAction)
		}
	case ActionSetServerURL:
		if !config.ValidServerURL(a.ServerURL) {
			return fmt.Errorf("%w: %q", ErrInvalidServerURL, a.ServerURL)
		}
	case ActionImportWordList:
		if a.Path == "" {
			return fmt.Errorf("%w: import-word-list needs path", ErrInvalidAction)
		}
	case ActionDismissShortcutHint:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAction, a.Kind)
	}
	return nil
}

// Correction is the host request for an apply-replacement action.
func (a Action) Correction() model.Correction {
	return model.Correction{Offset: a.Offset, ErrorText: a.ErrorText, Replacement: a.Replacement}
}

// ignoreRule appends without looking for an existing entry.
func ignoreRule(st *store.Settings, id, description, lang string) {
	st.IgnoredRules = append(st.IgnoredRules, model.IgnoredRule{
		ID:          id,
		Description: description,
		Language:    lang,
	})
}

// enableRule removes the first entry for id, restricted to lang when set.
func enableRule(st *store.Settings, id, lang string) error {
	for i, r := range st.IgnoredRules {
		if r.ID == id && (lang == "" || r.Language == lang) {
			st.IgnoredRules = append(st.IgnoredRules[:i], st.IgnoredRules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotIgnored, id)
}

func addWord(st *store.Settings, word string) {
	st.Dictionary = append(st.Dictionary, word)
}
