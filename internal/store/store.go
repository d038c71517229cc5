// Package store persists suppression state and small UI flags as a
// versioned key/value set. Every mutation is a read-modify-write that
// returns only after the backend committed it.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"slices"
	"sync"
	"time"

	"github.com/Alfex4936/ltpanel/internal/model"
)

// Keys of the stored state.
const (
	KeyAPIServerURL      = "apiServerUrl"
	KeyIgnoreQuotedLines = "ignoreQuotedLines"
	KeyDictionary        = "dictionary"
	KeyIgnoredRules      = "ignoredRules"
	KeyShowShortcutHint  = "showShortcutHint"
	KeyLastCheck         = "lastCheck"
	KeyVersion           = "version"
)

// DefaultServerURL is used until the user picks another server.
const DefaultServerURL = "https://api.languagetool.org/v2"

var allKeys = []string{
	KeyAPIServerURL,
	KeyIgnoreQuotedLines,
	KeyDictionary,
	KeyIgnoredRules,
	KeyShowShortcutHint,
	KeyLastCheck,
	KeyVersion,
}

// ErrConflict is returned by Backend.Commit when another writer committed
// since the caller read the version.
var ErrConflict = errors.New("store: version changed")

// maxAttempts bounds Update's retries after conflicting commits.
const maxAttempts = 8

// Backend is a durable key/value map shared by any number of Stores.
// Values are JSON documents.
type Backend interface {
	Get(ctx context.Context, keys []string) (map[string][]byte, error)
	// Commit writes values atomically, and only if the stored version key
	// still holds version (a missing key counts as 0). Otherwise it writes
	// nothing and returns ErrConflict.
	Commit(ctx context.Context, version int64, values map[string][]byte) error
	Close() error
}

// Settings is the typed view of the stored keys.
type Settings struct {
	APIServerURL      string              `json:"apiServerUrl"`
	IgnoreQuotedLines bool                `json:"ignoreQuotedLines"`
	Dictionary        []string            `json:"dictionary"`
	IgnoredRules      []model.IgnoredRule `json:"ignoredRules"`
	ShowShortcutHint  bool                `json:"showShortcutHint"`
	LastCheck         time.Time           `json:"lastCheck"`
	Version           int64               `json:"version"` // bumped on every committed change
}

// Defaults returns the state of a fresh install.
func Defaults() Settings {
	return Settings{
		APIServerURL:      DefaultServerURL,
		IgnoreQuotedLines: true,
		Dictionary:        []string{},
		IgnoredRules:      []model.IgnoredRule{},
		ShowShortcutHint:  true,
	}
}

// Store runs read-modify-write cycles over a Backend. Cycles of one Store
// are serialized; cycles of Stores sharing a backend are kept apart by the
// version check in Commit.
type Store struct {
	backend  Backend
	defaults Settings
	mu       sync.Mutex
}

// New wraps b. A non-empty serverURL overrides the built-in default.
func New(b Backend, serverURL string) *Store {
	d := Defaults()
	if serverURL != "" {
		d.APIServerURL = serverURL
	}
	return &Store{backend: b, defaults: d}
}

// Load reads every key, filling in defaults for missing ones.
func (s *Store) Load(ctx context.Context) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Update applies fn to the current settings and commits the keys it
// changed. It returns the committed settings. An error from fn aborts
// without writing. If another writer commits in between, fn runs again
// on the fresh settings.
func (s *Store) Update(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; ; attempt++ {
		next, err := s.update(ctx, fn)
		if errors.Is(err, ErrConflict) && attempt < maxAttempts {
			continue
		}
		return next, err
	}
}

func (s *Store) update(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	cur, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}
	before, err := encode(cur)
	if err != nil {
		return Settings{}, err
	}

	next := clone(cur)
	if err := fn(&next); err != nil {
		return Settings{}, err
	}
	after, err := encode(next)
	if err != nil {
		return Settings{}, err
	}

	changed := map[string][]byte{}
	for k, v := range after {
		if k != KeyVersion && !bytes.Equal(before[k], v) {
			changed[k] = v
		}
	}
	if len(changed) == 0 {
		return cur, nil
	}

	next.Version = cur.Version + 1
	changed[KeyVersion], _ = json.Marshal(next.Version)
	if err := s.backend.Commit(ctx, cur.Version, changed); err != nil {
		return Settings{}, fmt.Errorf("store: commit: %w", err)
	}
	return next, nil
}

// Close releases the backend.
func (s *Store) Close() error { return s.backend.Close() }

func (s *Store) load(ctx context.Context) (Settings, error) {
	raw, err := s.backend.Get(ctx, allKeys)
	if err != nil {
		return Settings{}, fmt.Errorf("store: load: %w", err)
	}

	out := clone(s.defaults)
	fields := map[string]any{
		KeyAPIServerURL:      &out.APIServerURL,
		KeyIgnoreQuotedLines: &out.IgnoreQuotedLines,
		KeyDictionary:        &out.Dictionary,
		KeyIgnoredRules:      &out.IgnoredRules,
		KeyShowShortcutHint:  &out.ShowShortcutHint,
		KeyVersion:           &out.Version,
	}
	for k, dst := range fields {
		v, ok := raw[k]
		if !ok || len(v) == 0 {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return Settings{}, fmt.Errorf("store: decode %s: %w", k, err)
		}
	}
	if v, ok := raw[KeyLastCheck]; ok && len(v) > 0 {
		var ms int64
		if err := json.Unmarshal(v, &ms); err != nil {
			return Settings{}, fmt.Errorf("store: decode %s: %w", KeyLastCheck, err)
		}
		if ms > 0 {
			out.LastCheck = time.UnixMilli(ms)
		}
	}
	if out.Dictionary == nil {
		out.Dictionary = []string{}
	}
	if out.IgnoredRules == nil {
		out.IgnoredRules = []model.IgnoredRule{}
	}
	return out, nil
}

// encode renders every key to its stored JSON form.
func encode(st Settings) (map[string][]byte, error) {
	var lastCheck int64
	if !st.LastCheck.IsZero() {
		lastCheck = st.LastCheck.UnixMilli()
	}
	values := map[string]any{
		KeyAPIServerURL:      st.APIServerURL,
		KeyIgnoreQuotedLines: st.IgnoreQuotedLines,
		KeyDictionary:        st.Dictionary,
		KeyIgnoredRules:      st.IgnoredRules,
		KeyShowShortcutHint:  st.ShowShortcutHint,
		KeyLastCheck:         lastCheck,
		KeyVersion:           st.Version,
	}
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("store: encode %s: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

// storedVersion decodes the raw version value; empty means 0.
func storedVersion(raw []byte) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("store: decode %s: %w", KeyVersion, err)
	}
	return v, nil
}

// versionText is the stored form of v.
func versionText(v int64) string { return strconv.FormatInt(v, 10) }

func clone(st Settings) Settings {
	st.Dictionary = slices.Clone(st.Dictionary)
	st.IgnoredRules = slices.Clone(st.IgnoredRules)
	return st
}
