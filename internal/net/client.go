// Package net is the HTTP transport for the checking service. It uses a
// browser-fingerprinted TLS client, since public LanguageTool endpoints
// sit behind CDNs that throttle bare Go clients.
package net

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// Doer sends a request. tls_client.HttpClient satisfies it; tests plug
// in fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient builds a keep-alive client with a hard per-request timeout.
func NewClient(timeout time.Duration) (Doer, error) {
	secs := int(timeout / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return tls_client.NewHttpClient(tls_client.NewNoopLogger(),
		tls_client.WithTimeoutSeconds(secs),
		tls_client.WithClientProfile(profiles.Chrome_120),
	)
}

// NewPOST builds a form POST with the headers every call carries.
func NewPOST(ctx context.Context, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", ua)
	return req, nil
}

// NewGET builds a page fetch.
func NewGET(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("User-Agent", ua)
	return req, nil
}

// IsTimeout reports whether err (or ctx) ran out of time.
func IsTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

const ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
