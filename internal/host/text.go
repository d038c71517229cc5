package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/textspan"
)

// Text is an editable in-memory document, used for text posted to the
// server.
type Text struct {
	mu        sync.Mutex
	text      string
	url       string
	maxLength int
}

// NewText holds text under an optional page URL.
func NewText(text, url string, maxLength int) *Text {
	return &Text{text: text, url: url, maxLength: maxLength}
}

// String returns the current text.
func (t *Text) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

func (t *Text) URL() string { return t.url }

func (t *Text) Extract(context.Context) (*model.Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	page := &model.Page{Text: t.text, URL: t.url, Editable: true}
	if n, over := overLimit(t.text, t.maxLength); over {
		page.Message = tooLong(n, t.maxLength)
	}
	return page, nil
}

func (t *Text) Apply(_ context.Context, c model.Correction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := textspan.Len(c.ErrorText)
	if c.Offset < 0 || textspan.Slice(t.text, c.Offset, n) != c.ErrorText {
		return fmt.Errorf("%w: expected %q at offset %d", ErrStale, c.ErrorText, c.Offset)
	}
	t.text = textspan.Replace(t.text, c.Offset, n, c.Replacement)
	return nil
}
