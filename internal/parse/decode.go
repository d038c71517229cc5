package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Alfex4936/ltpanel/internal/model"
)

// ErrEmpty signals a body with no content at all.
var ErrEmpty = errors.New("empty response body")

// Decode converts a /check response body into a model.Response.
// A body without a language block is treated as malformed: every later
// stage depends on the language code.
func Decode(raw []byte) (*model.Response, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	var resp model.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Language.Code == "" {
		return nil, errors.New("decode response: missing language code")
	}
	if resp.Matches == nil {
		resp.Matches = []model.Match{}
	}
	return &resp, nil
}
