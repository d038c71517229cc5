// Package ltpanel checks text against a LanguageTool-compatible service
// and turns the result into an interactive, suppressible view model.
//
// A Session owns one display surface: it extracts text from a Host,
// submits it to a Checker, filters the matches against the user's stored
// dictionary and ignored rules, and rebuilds the view after every action.
package ltpanel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/net"
	"github.com/Alfex4936/ltpanel/internal/parse"
)

// DefaultTimeout is the hard limit for one check call.
const DefaultTimeout = 60 * time.Second

// Checker submits text and returns the service's matches.
type Checker interface {
	Check(ctx context.Context, text string, opts CheckOptions) (*model.Response, error)
}

// CheckOptions travel with every check call.
type CheckOptions struct {
	ServerURL     string   // base URL, "/check" is appended
	DisabledRules []string // rule ids the service must skip
	UserAgent     string
	Language      string // "auto" or a code such as "sl"
}

// RemoteChecker talks to a LanguageTool-compatible HTTP API.
type RemoteChecker struct {
	client  net.Doer
	timeout time.Duration
}

// NewRemoteCheckerWith checks through client, normally net.NewClient.
// timeout <= 0 means DefaultTimeout.
func NewRemoteCheckerWith(client net.Doer, timeout time.Duration) *RemoteChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RemoteChecker{client: client, timeout: timeout}
}

// Check posts text to <ServerURL>/check. Failures wrap exactly one of
// ErrNoResponse, ErrNonSuccessStatus, ErrNetwork or ErrTimeout.
func (c *RemoteChecker) Check(ctx context.Context, text string, opts CheckOptions) (*model.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := checkURL(opts.ServerURL)
	form := url.Values{"text": {text}}
	if len(opts.DisabledRules) > 0 {
		form.Set("disabledRules", strings.Join(opts.DisabledRules, ","))
	}
	if opts.UserAgent != "" {
		form.Set("useragent", opts.UserAgent)
	}
	if opts.Language != "" {
		form.Set("language", opts.Language)
	}

	req, err := net.NewPOST(ctx, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNetwork, endpoint, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, endpoint, err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoResponse, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrNonSuccessStatus, endpoint, resp.StatusCode, excerpt(body))
	}

	out, err := parse.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNonSuccessStatus, endpoint, err)
	}
	return out, nil
}

func (c *RemoteChecker) transportError(ctx context.Context, endpoint string, err error) error {
	if net.IsTimeout(ctx, err) {
		return fmt.Errorf("%w: %s did not answer within %s", ErrTimeout, endpoint, c.timeout)
	}
	return fmt.Errorf("%w: %s: %w", ErrNetwork, endpoint, err)
}

func checkURL(server string) string {
	if strings.HasSuffix(server, "/") {
		return server + "check"
	}
	return server + "/check"
}

// excerpt keeps error messages short; bodies of failed calls are often
// whole HTML error pages.
func excerpt(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}
