package ltpanel

import (
	"context"
	"slices"

	"github.com/Alfex4936/ltpanel/internal/local"
	"github.com/Alfex4936/ltpanel/internal/model"
)

// LocalChecker checks spelling offline with a hunspell subprocess.
// It only knows spelling, so every match it returns classifies as such.
type LocalChecker struct {
	h *local.Hunspell
}

// NewLocalChecker starts hunspell with the given dictionary.
func NewLocalChecker(dictDir, lang string) (*LocalChecker, error) {
	h, err := local.New(dictDir, lang)
	if err != nil {
		return nil, err
	}
	return &LocalChecker{h: h}, nil
}

// Check ignores ServerURL and UserAgent. A disabled HUNSPELL_RULE
// yields no matches.
func (c *LocalChecker) Check(ctx context.Context, text string, opts CheckOptions) (*model.Response, error) {
	resp := &model.Response{Language: c.h.Language(), Matches: []model.Match{}}
	if slices.Contains(opts.DisabledRules, local.RuleID) {
		return resp, nil
	}
	matches, err := c.h.CheckText(ctx, text)
	if err != nil {
		return nil, err
	}
	resp.Matches = matches
	return resp, nil
}

// Close stops the subprocess.
func (c *LocalChecker) Close() error {
	return c.h.Close()
}
