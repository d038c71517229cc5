package host

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/net"
)

// HTML is a read-only web page. The readable article text is checked;
// replacements are shown but cannot be applied.
type HTML struct {
	PageURL   string   // also matched against the site lists
	Path      string   // local copy; when empty the page is fetched
	Client    net.Doer // used for fetching
	MaxLength int
}

// Extract runs readability over the page. A page without readable
// content yields a nil page.
func (h *HTML) Extract(ctx context.Context) (*model.Page, error) {
	u, err := url.Parse(h.PageURL)
	if err != nil {
		return nil, fmt.Errorf("host: page url: %w", err)
	}

	body, err := h.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	article, err := readability.FromReader(body, u)
	if err != nil {
		return nil, fmt.Errorf("host: readability: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, nil
	}

	page := &model.Page{Text: text, URL: h.PageURL}
	if n, over := overLimit(text, h.MaxLength); over {
		page.Message = tooLong(n, h.MaxLength)
	}
	return page, nil
}

// URL returns PageURL.
func (h *HTML) URL() string { return h.PageURL }

// Apply always fails with ErrReadOnly.
func (h *HTML) Apply(context.Context, model.Correction) error {
	return ErrReadOnly
}

func (h *HTML) open(ctx context.Context) (io.ReadCloser, error) {
	if h.Path != "" {
		f, err := os.Open(h.Path)
		if err != nil {
			return nil, fmt.Errorf("host: %w", err)
		}
		return f, nil
	}
	if h.Client == nil {
		return nil, fmt.Errorf("host: no path and no client for %s", h.PageURL)
	}
	req, err := net.NewGET(ctx, h.PageURL)
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("host: fetch %s: %w", h.PageURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("host: fetch %s: status %d", h.PageURL, resp.StatusCode)
	}
	return resp.Body, nil
}
