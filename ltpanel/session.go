package ltpanel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/Alfex4936/ltpanel/internal/annotate"
	"github.com/Alfex4936/ltpanel/internal/diag"
	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/quote"
	"github.com/Alfex4936/ltpanel/internal/sanitize"
	"github.com/Alfex4936/ltpanel/internal/store"
)

// Host supplies the text to check and applies corrections to it.
// Extract may be called any number of times.
type Host interface {
	Extract(ctx context.Context) (*model.Page, error)
	Apply(ctx context.Context, c model.Correction) error
}

// State is the session's position in the check cycle.
type State int

const (
	Idle State = iota
	Checking
	Displaying
	Mutating
	Rechecking
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Checking:
		return "checking"
	case Displaying:
		return "displaying"
	case Mutating:
		return "mutating"
	case Rechecking:
		return "rechecking"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status tells the three outcomes of a check apart, plus host notices.
type Status string

const (
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
	StatusNotice  Status = "notice" // host declined, e.g. text too long
	StatusDone    Status = "done"
)

// View is what the panel shows. Model is set only when Status is done;
// a done view with no entries has Model.Summary.NoIssues set.
type View struct {
	Status    Status              `json:"status"`
	Kind      string              `json:"kind,omitempty"`
	Message   string              `json:"message,omitempty"`
	Model     *annotate.ViewModel `json:"model,omitempty"`
	Version   int64               `json:"version"` // store version the view was built from
	CheckedAt time.Time           `json:"checkedAt,omitzero"`
}

// DefaultDisabledRules keeps the service from flagging the runs of
// spaces left by quote masking.
var DefaultDisabledRules = []string{"WHITESPACE_RULE"}

// SessionConfig wires a session to its collaborators.
type SessionConfig struct {
	Checker  Checker
	Host     Host
	Store    *store.Store
	Reporter diag.Reporter // nil drops reports

	Language      string // "" means "auto"
	UserAgent     string
	DisabledRules []string // nil means DefaultDisabledRules

	UnsupportedSites            []*regexp.Regexp
	UnsupportedReplacementSites []*regexp.Regexp

	Logger *slog.Logger
	Now    func() time.Time
}

// Session drives one display surface through check, action and recheck.
// One check runs at a time; actions arriving meanwhile get ErrBusy.
type Session struct {
	cfg SessionConfig
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	view  View
	lang  string // short code of the displayed result
}

// NewSession returns an idle session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Reporter == nil {
		cfg.Reporter = diag.Nop{}
	}
	if cfg.Language == "" {
		cfg.Language = "auto"
	}
	if cfg.DisabledRules == nil {
		cfg.DisabledRules = DefaultDisabledRules
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		view:   View{Status: StatusPending},
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the last view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Close cancels an in-flight check and rejects later calls. The service
// is not told; the connection is simply dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = Closed
	s.mu.Unlock()
	s.cancel()
}

// Check runs a full check cycle.
func (s *Session) Check(ctx context.Context) (View, error) {
	if _, err := s.begin(Checking); err != nil {
		return s.View(), err
	}
	return s.check(ctx)
}

// Do runs one action. Store actions commit before the recheck starts,
// so the recheck always sees the action's write.
func (s *Session) Do(ctx context.Context, a Action) (View, error) {
	if err := a.Validate(); err != nil {
		return s.View(), err
	}
	prev, err := s.begin(Mutating)
	if err != nil {
		return s.View(), err
	}

	if err := s.apply(ctx, a); err != nil {
		s.settle(prev)
		return s.View(), err
	}
	if !a.Rechecks() {
		s.settle(prev)
		return s.View(), nil
	}

	s.settle(Rechecking)
	s.log.Debug("recheck", "action", a.Kind)
	if err := s.transition(Rechecking, Checking); err != nil {
		return s.View(), err
	}
	return s.check(ctx)
}

// EnableRule removes the first stored ignore entry for ruleID and
// rechecks. lang narrows the match to one language when set.
func (s *Session) EnableRule(ctx context.Context, ruleID, lang string) (View, error) {
	return s.Do(ctx, Action{Kind: ActionEnableRule, RuleID: ruleID, Language: lang})
}

// IgnoreRule turns ruleID off for the language of the displayed result
// and rechecks.
func (s *Session) IgnoreRule(ctx context.Context, ruleID, description string) (View, error) {
	return s.Do(ctx, Action{Kind: ActionIgnoreRule, RuleID: ruleID, Description: description})
}

// AddWord appends word to the dictionary and rechecks.
func (s *Session) AddWord(ctx context.Context, word string) (View, error) {
	return s.Do(ctx, Action{Kind: ActionAddWord, Word: word})
}

// ApplyReplacement has the host replace errorText at offset and rechecks
// the whole text.
func (s *Session) ApplyReplacement(ctx context.Context, offset int, errorText, replacement string) (View, error) {
	return s.Do(ctx, Action{Kind: ActionApplyReplacement, Offset: offset, ErrorText: errorText, Replacement: replacement})
}

func (s *Session) apply(ctx context.Context, a Action) error {
	ctx, done := s.bind(ctx)
	defer done()

	if a.Kind == ActionApplyReplacement {
		if err := s.cfg.Host.Apply(ctx, a.Correction()); err != nil {
			return fmt.Errorf("ltpanel: apply replacement: %w", err)
		}
		return nil
	}
	if a.Kind == ActionImportWordList {
		n, err := ImportWordList(ctx, s.cfg.Store, a.Path)
		if err == nil {
			s.log.Info("word list imported", "words", n)
		}
		return err
	}

	s.mu.Lock()
	lang := s.lang
	s.mu.Unlock()
	if a.Kind == ActionIgnoreRule && lang == "" {
		return fmt.Errorf("%w: no result is displayed", ErrInvalidAction)
	}

	committed, err := s.cfg.Store.Update(ctx, func(st *store.Settings) error {
		switch a.Kind {
		case ActionEnableRule:
			return enableRule(st, a.RuleID, a.Language)
		case ActionIgnoreRule:
			ignoreRule(st, a.RuleID, a.Description, lang)
		case ActionAddWord:
			addWord(st, a.Word)
		case ActionDismissShortcutHint:
			st.ShowShortcutHint = false
		case ActionSetServerURL:
			st.APIServerURL = a.ServerURL
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Debug("settings committed", "action", a.Kind, "version", committed.Version)

	if a.Kind == ActionDismissShortcutHint {
		s.mu.Lock()
		if s.view.Model != nil {
			vm := *s.view.Model
			vm.Summary.ShowShortcutHint = false
			s.view.Model = &vm
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *Session) check(ctx context.Context) (View, error) {
	ctx, done := s.bind(ctx)
	defer done()

	s.mu.Lock()
	s.view = View{Status: StatusPending}
	s.mu.Unlock()

	view, page, err := s.runSafe(ctx)
	if err != nil {
		view = View{Status: StatusFailed, Kind: Kind(err), Message: sanitize.HTML(err.Error())}
		s.report(page, err)
		s.log.Warn("check failed", "kind", view.Kind, "err", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		return view, errors.Join(err, ErrClosed)
	}
	s.view = view
	if view.Status == StatusDone {
		s.lang = view.Model.Summary.ShortLanguage
	}
	s.state = Displaying
	return view, err
}

// runSafe turns a panic in one pass into a failed check so the session
// leaves the busy state.
func (s *Session) runSafe(ctx context.Context) (view View, page *model.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("check panicked", "panic", r)
			view, err = View{}, fmt.Errorf("ltpanel: check aborted: %v", r)
		}
	}()
	return s.run(ctx)
}

// run is one pass: extract, check, filter, build. The returned page may
// be nil.
func (s *Session) run(ctx context.Context) (View, *model.Page, error) {
	if u, ok := s.cfg.Host.(interface{ URL() string }); ok && matchesAny(s.cfg.UnsupportedSites, u.URL()) {
		page := &model.Page{URL: u.URL()}
		return View{}, page, fmt.Errorf("%w: %s", ErrUnsupportedSite, page.URL)
	}

	page, err := s.cfg.Host.Extract(ctx)
	if err != nil {
		return View{}, nil, fmt.Errorf("%w: %w", ErrFreshInstall, err)
	}
	if page == nil {
		return View{}, nil, ErrFreshInstall
	}
	if matchesAny(s.cfg.UnsupportedSites, page.URL) {
		return View{}, page, fmt.Errorf("%w: %s", ErrUnsupportedSite, page.URL)
	}
	if page.Message != "" {
		return View{Status: StatusNotice, Message: sanitize.HTML(page.Message)}, page, nil
	}

	settings, err := s.cfg.Store.Update(ctx, func(st *store.Settings) error {
		st.LastCheck = s.cfg.Now()
		return nil
	})
	if err != nil {
		return View{}, page, err
	}

	text := page.Text
	if settings.IgnoreQuotedLines {
		text = quote.Mask(text)
	}

	resp, err := s.cfg.Checker.Check(ctx, text, CheckOptions{
		ServerURL:     settings.APIServerURL,
		DisabledRules: s.cfg.DisabledRules,
		UserAgent:     s.cfg.UserAgent,
		Language:      s.cfg.Language,
	})
	if err != nil {
		return View{}, page, err
	}

	vm := annotate.Build(resp,
		annotate.Suppression{Dictionary: settings.Dictionary, IgnoredRules: settings.IgnoredRules},
		annotate.Options{
			Editable:                    page.Editable,
			PageURL:                     page.URL,
			UnsupportedReplacementSites: s.cfg.UnsupportedReplacementSites,
			ServerURL:                   settings.APIServerURL,
			ShowShortcutHint:            settings.ShowShortcutHint,
		})
	s.log.Debug("check done", "matches", len(resp.Matches), "shown", vm.Summary.MatchCount, "lang", vm.Summary.Language)

	return View{
		Status:    StatusDone,
		Model:     vm,
		Version:   settings.Version,
		CheckedAt: settings.LastCheck,
	}, page, nil
}

// report forwards a failure to the diagnostic collaborator. It reads
// the server URL from the store again since the failing pass may not
// have reached it.
func (s *Session) report(page *model.Page, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	server := store.DefaultServerURL
	if st, lerr := s.cfg.Store.Load(context.Background()); lerr == nil {
		server = st.APIServerURL
	}
	where := ""
	if page != nil {
		where = " on " + page.URL
	}
	kind := Kind(err)
	if kind == "" {
		kind = "couldNotCheckText"
	}
	s.cfg.Reporter.Report(server, kind+where+": "+err.Error())
}

// begin enters next unless a check is running or the session closed.
// It returns the state it left.
func (s *Session) begin(next State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	switch prev {
	case Closed:
		return prev, ErrClosed
	case Checking, Mutating, Rechecking:
		return prev, fmt.Errorf("%w: session is %s", ErrBusy, prev)
	}
	s.state = next
	return prev, nil
}

// transition moves from one state to the next unless the session closed
// in between.
func (s *Session) transition(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return ErrClosed
	}
	s.state = to
	return nil
}

// settle leaves a busy state, keeping Closed.
func (s *Session) settle(to State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Closed {
		s.state = to
	}
}

// bind ties ctx to the session lifetime.
func (s *Session) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
