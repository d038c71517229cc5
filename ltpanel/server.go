package ltpanel

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Alfex4936/ltpanel/internal/util"
)

// SessionFactory opens a session for a checking source.
type SessionFactory func(src Source) (*Session, Host, error)

// EnvFactory opens sessions on env.
func EnvFactory(env *Env) SessionFactory {
	return func(src Source) (*Session, Host, error) {
		h, err := env.HostFor(src)
		if err != nil {
			return nil, nil, err
		}
		return env.NewSession(h), h, nil
	}
}

// ErrSourceNotAllowed is returned when a request names a file or page the
// server was not configured to open.
var ErrSourceNotAllowed = errors.New("ltpanel: source not allowed")

// Server exposes sessions over HTTP. Each session is one display
// surface; clients create one, then post actions to it.
//
// By default only in-memory text is accepted. FileRoot admits server
// files (path, html, import-word-list) below it; FetchPages admits url
// without text, which makes the server fetch the page.
type Server struct {
	FileRoot   string
	FetchPages bool

	open SessionFactory
	log  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	s *Session
	h Host
}

// SessionResponse is returned by every session endpoint.
type SessionResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
	View  View   `json:"view"`
	Text  string `json:"text,omitempty"` // current text of in-memory documents
	Error string `json:"error,omitempty"`
}

// NewServer serves sessions made by open.
func NewServer(open SessionFactory, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{open: open, log: log, sessions: map[string]*entry{}}
}

// Handler routes:
//
//	POST   /v1/sessions               open a session and run the first check
//	GET    /v1/sessions/{id}          last view
//	POST   /v1/sessions/{id}/check    manual recheck
//	POST   /v1/sessions/{id}/actions  run an Action
//	GET    /v1/sessions/{id}/panel    last view as HTML
//	DELETE /v1/sessions/{id}          close
//	GET    /health
//	GET    /openapi.json
//	GET    /                           Redoc UI
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", s.create)
	mux.HandleFunc("GET /v1/sessions/{id}", s.get)
	mux.HandleFunc("POST /v1/sessions/{id}/check", s.check)
	mux.HandleFunc("POST /v1/sessions/{id}/actions", s.action)
	mux.HandleFunc("GET /v1/sessions/{id}/panel", s.panel)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.remove)
	mux.HandleFunc("GET /health", HealthHandler)
	mux.HandleFunc("GET /openapi.json", OpenAPIHandler)
	mux.HandleFunc("GET /{$}", DocsHandler)
	return mux
}

// Close closes every open session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		e.s.Close()
		delete(s.sessions, id)
	}
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var src Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := s.admit(&src); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	sess, h, err := s.open(src)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrNoSource) {
			code = http.StatusBadRequest
		}
		http.Error(w, err.Error(), code)
		return
	}

	id, e := uuid.NewString(), &entry{s: sess, h: h}
	s.mu.Lock()
	s.sessions[id] = e
	s.mu.Unlock()
	s.log.Info("session opened", "id", id)

	_, err = sess.Check(r.Context())
	s.reply(w, id, e, err, http.StatusCreated)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.lookup(w, r)
	if ok {
		s.reply(w, id, e, nil, http.StatusOK)
	}
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	_, err := e.s.Check(r.Context())
	s.reply(w, id, e, err, http.StatusOK)
}

func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var a Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if a.Kind == ActionImportWordList && a.Path != "" {
		p, err := s.inRoot(a.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		a.Path = p
	}

	_, err := e.s.Do(r.Context(), a)
	s.reply(w, id, e, err, http.StatusOK)
}

func (s *Server) panel(w http.ResponseWriter, r *http.Request) {
	_, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderPanel(w, e.s.View()); err != nil {
		s.log.Error("render panel", "err", err)
	}
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.s.Close()
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.log.Info("session closed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// admit rejects sources the server may not open and resolves file
// paths against FileRoot.
func (s *Server) admit(src *Source) error {
	var err error
	if src.Text != "" {
		// url only labels the text
		src.Path, src.HTML = "", ""
		return nil
	}
	if src.Path != "" {
		src.Path, err = s.inRoot(src.Path)
		return err
	}
	if src.URL != "" {
		if src.HTML != "" {
			src.HTML, err = s.inRoot(src.HTML)
			return err
		}
		if !s.FetchPages {
			return fmt.Errorf("%w: page fetching is disabled", ErrSourceNotAllowed)
		}
	}
	return nil
}

// inRoot returns the absolute form of p if it lies below FileRoot,
// following symlinks of existing paths.
func (s *Server) inRoot(p string) (string, error) {
	if s.FileRoot == "" {
		return "", fmt.Errorf("%w: server files are disabled", ErrSourceNotAllowed)
	}
	root, err := resolve(s.FileRoot)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	abs, err := resolve(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside the file root", ErrSourceNotAllowed, p)
	}
	return abs, nil
}

func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		return r, nil
	}
	// missing file: resolve its directory
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs)), nil
	}
	return abs, nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *entry, bool) {
	id := r.PathValue("id")
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
	}
	return id, e, ok
}

// reply writes the session state. Failed checks still return the view;
// their kind is in view.kind.
func (s *Server) reply(w http.ResponseWriter, id string, e *entry, err error, okCode int) {
	res := SessionResponse{ID: id, State: e.s.State().String(), View: e.s.View()}
	if t, ok := e.h.(fmt.Stringer); ok {
		res.Text = t.String()
	}
	code := okCode
	if err != nil {
		res.Error = err.Error()
		code = statusFor(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if werr := util.WriteJSON(w, res, true); werr != nil {
		s.log.Error("write response", "err", werr)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSourceNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrClosed):
		return http.StatusGone
	case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrInvalidServerURL):
		return http.StatusBadRequest
	case errors.Is(err, ErrRuleNotIgnored):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedSite), errors.Is(err, ErrFreshInstall):
		return http.StatusUnprocessableEntity
	case Kind(err) != "":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HealthHandler handles GET /health requests
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "ltpanel",
	})
}
