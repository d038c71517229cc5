package ltpanel

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Alfex4936/ltpanel/internal/config"
	"github.com/Alfex4936/ltpanel/internal/diag"
	"github.com/Alfex4936/ltpanel/internal/host"
	"github.com/Alfex4936/ltpanel/internal/net"
	"github.com/Alfex4936/ltpanel/internal/store"
)

const reportTimeout = 10 * time.Second

// Env holds what all sessions of one process share.
type Env struct {
	Config   *config.Config
	Checker  Checker
	Store    *store.Store
	Reporter diag.Reporter
	Client   net.Doer // page fetches and diagnostics
	Logger   *slog.Logger

	closers []io.Closer
	http    *diag.HTTP
}

// NewEnv opens the configured store and checker.
func NewEnv(cfg *config.Config, log *slog.Logger) (*Env, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := net.NewClient(cfg.Timeout())
	if err != nil {
		return nil, fmt.Errorf("ltpanel: http client: %w", err)
	}

	backend, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	env := &Env{
		Config: cfg,
		Store:  store.New(backend, cfg.ServerURL),
		Client: client,
		Logger: log,
	}
	env.closers = append(env.closers, env.Store)

	switch cfg.Checker.Backend {
	case "hunspell":
		lc, err := NewLocalChecker(cfg.Checker.DictDir, cfg.Checker.Lang)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Checker = lc
		env.closers = append(env.closers, lc)
	default:
		env.Checker = NewRemoteCheckerWith(client, cfg.Timeout())
	}

	if cfg.Diagnostics {
		env.http = diag.NewHTTP(client, reportTimeout, log)
		env.Reporter = env.http
	} else {
		env.Reporter = diag.Log{L: log}
	}
	return env, nil
}

// NewSession starts a session over h.
func (e *Env) NewSession(h Host) *Session {
	return NewSession(SessionConfig{
		Checker:                     e.Checker,
		Host:                        h,
		Store:                       e.Store,
		Reporter:                    e.Reporter,
		Language:                    e.Config.Language,
		UserAgent:                   e.Config.UserAgent,
		UnsupportedSites:            e.Config.SitePatterns(),
		UnsupportedReplacementSites: e.Config.ReplacementSitePatterns(),
		Logger:                      e.Logger,
	})
}

// Source names the text a session checks. Exactly one of Text, Path
// or URL is expected; URL may accompany Text as its page address.
type Source struct {
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"` // plain-text file, editable
	HTML string `json:"html,omitempty"` // local copy of the page at URL
	URL  string `json:"url,omitempty"`
}

// ErrNoSource is returned when a Source names nothing to check.
var ErrNoSource = errors.New("ltpanel: nothing to check")

// HostFor builds the host for src.
func (e *Env) HostFor(src Source) (Host, error) {
	limit := e.Config.MaxLength
	switch {
	case src.Text != "":
		return host.NewText(src.Text, src.URL, limit), nil
	case src.Path != "":
		f, err := host.NewFile(src.Path, limit)
		if err != nil {
			return nil, err
		}
		return f, nil
	case src.URL != "":
		return &host.HTML{PageURL: src.URL, Path: src.HTML, Client: e.Client, MaxLength: limit}, nil
	default:
		return nil, ErrNoSource
	}
}

// Close waits for pending diagnostics and releases the store and
// checker.
func (e *Env) Close() error {
	if e.http != nil {
		e.http.Wait()
	}
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	return errors.Join(errs...)
}
