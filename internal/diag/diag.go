// Package diag reports check failures to the checking server's log
// endpoint. Reports are fire-and-forget: their own failures are dropped.
package diag

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Alfex4936/ltpanel/internal/net"
)

// Reporter receives one-line failure reports. Report must not block.
type Reporter interface {
	Report(serverURL, message string)
}

var filePath = regexp.MustCompile(`file:\S*`)

// Redact hides local file paths, which may contain personal information.
func Redact(msg string) string {
	return filePath.ReplaceAllString(msg, "file:[...]")
}

// HTTP posts reports to <server>/log.
type HTTP struct {
	client  net.Doer
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

// NewHTTP returns a reporter on client. log may be nil.
func NewHTTP(client net.Doer, timeout time.Duration, log *slog.Logger) *HTTP {
	if log == nil {
		log = slog.Default()
	}
	return &HTTP{client: client, timeout: timeout, log: log}
}

// Report sends message in the background.
func (h *HTTP) Report(serverURL, message string) {
	msg := Redact(message)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if err := h.send(ctx, serverURL, msg); err != nil {
			h.log.Debug("diagnostic report dropped", "err", err)
		}
	}()
}

// Wait blocks until pending reports finished.
func (h *HTTP) Wait() { h.wg.Wait() }

func (h *HTTP) send(ctx context.Context, serverURL, msg string) error {
	endpoint := strings.TrimSuffix(serverURL, "/") + "/log"
	form := url.Values{"message": {msg}}
	req, err := net.NewPOST(ctx, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Log writes reports to a logger instead.
type Log struct {
	L *slog.Logger
}

func (l Log) Report(serverURL, message string) {
	log := l.L
	if log == nil {
		log = slog.Default()
	}
	log.Warn("check failed", "server", serverURL, "msg", Redact(message))
}

// Nop drops every report.
type Nop struct{}

func (Nop) Report(string, string) {}
