package ltpanel

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alfex4936/ltpanel/internal/annotate"
	"github.com/Alfex4936/ltpanel/internal/model"
	"github.com/Alfex4936/ltpanel/internal/store"
)

type checkCall struct {
	text string
	opts CheckOptions
}

type fakeChecker struct {
	mu    sync.Mutex
	calls []checkCall
	fn    func(ctx context.Context, text string) (*model.Response, error)
}

func (c *fakeChecker) Check(ctx context.Context, text string, opts CheckOptions) (*model.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, checkCall{text: text, opts: opts})
	c.mu.Unlock()
	return c.fn(ctx, text)
}

func (c *fakeChecker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *fakeChecker) last() checkCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

type fakeHost struct {
	mu       sync.Mutex
	page     *model.Page
	err      error
	extracts int
	applied  []model.Correction
}

func (h *fakeHost) Extract(context.Context) (*model.Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.extracts++
	if h.page == nil {
		return nil, h.err
	}
	p := *h.page
	return &p, h.err
}

func (h *fakeHost) Apply(_ context.Context, c model.Correction) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.applied = append(h.applied, c)
	h.page.Text = strings.Replace(h.page.Text, c.ErrorText, c.Replacement, 1)
	return nil
}

type fakeReporter struct {
	mu   sync.Mutex
	msgs []string
}

func (r *fakeReporter) Report(server, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, server+" "+msg)
}

func (r *fakeReporter) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

const sampleText = "Thiss is teh text."

func spelling(off int, word string) model.Match {
	return model.Match{
		Rule:         model.Rule{ID: "MORFOLOGIK_RULE_EN_US", Description: "Possible spelling mistake", IssueType: "misspelling"},
		Message:      "Possible spelling mistake found.",
		Offset:       off,
		Length:       len(word),
		Context:      model.Context{Text: sampleText, Offset: off, Length: len(word)},
		Replacements: []model.Replacement{{Value: "the"}, {Value: "this"}},
	}
}

func grammar() model.Match {
	return model.Match{
		Rule:    model.Rule{ID: "PERIOD_RULE", Description: "Sentence end", IssueType: "grammar"},
		Message: "Odd sentence end.",
		Offset:  17,
		Length:  1,
		Context: model.Context{Text: sampleText, Offset: 17, Length: 1},
	}
}

// responder answers with every match whose error text is still in text.
func responder(ms ...model.Match) func(context.Context, string) (*model.Response, error) {
	return func(_ context.Context, text string) (*model.Response, error) {
		out := []model.Match{}
		for _, m := range ms {
			word := m.Context.Text[m.Context.Offset : m.Context.Offset+m.Length]
			if strings.Contains(text, word) {
				out = append(out, m)
			}
		}
		return &model.Response{Language: model.Language{Name: "English (US)", Code: "en-US"}, Matches: out}, nil
	}
}

type fixture struct {
	s        *Session
	checker  *fakeChecker
	host     *fakeHost
	store    *store.Store
	reporter *fakeReporter
}

var fixedNow = time.UnixMilli(1_760_000_000_000)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		checker:  &fakeChecker{fn: responder(spelling(9, "teh"), grammar())},
		host:     &fakeHost{page: &model.Page{Text: sampleText, URL: "https://example.com/post", Editable: true}},
		store:    store.New(store.NewMemory(), "http://lt.test/v2"),
		reporter: &fakeReporter{},
	}
	f.s = NewSession(SessionConfig{
		Checker:                     f.checker,
		Host:                        f.host,
		Store:                       f.store,
		Reporter:                    f.reporter,
		UserAgent:                   "ltpanel-test",
		UnsupportedSites:            []*regexp.Regexp{regexp.MustCompile(`^https?://docs\.google\.com`)},
		UnsupportedReplacementSites: []*regexp.Regexp{regexp.MustCompile(`^https?://(www\.)?medium\.com`)},
		Now:                         func() time.Time { return fixedNow },
	})
	t.Cleanup(f.s.Close)
	return f
}

func (f *fixture) settings(t *testing.T) store.Settings {
	t.Helper()
	st, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return st
}

func ruleIDs(vm *annotate.ViewModel) []string {
	var out []string
	for _, e := range vm.Entries {
		out = append(out, e.RuleID)
	}
	return out
}

func TestSession_Check(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, Idle, f.s.State())
	assert.Equal(t, StatusPending, f.s.View().Status)

	v, err := f.s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Displaying, f.s.State())
	require.Equal(t, StatusDone, v.Status)
	assert.Equal(t, []string{"MORFOLOGIK_RULE_EN_US", "PERIOD_RULE"}, ruleIDs(v.Model))
	assert.Equal(t, "en", v.Model.Summary.ShortLanguage)
	assert.Equal(t, "http://lt.test/v2", v.Model.Summary.CheckedBy)
	assert.True(t, v.Model.Entries[0].Actionable)
	assert.True(t, fixedNow.Equal(v.CheckedAt))

	call := f.checker.last()
	assert.Equal(t, "http://lt.test/v2", call.opts.ServerURL)
	assert.Equal(t, []string{"WHITESPACE_RULE"}, call.opts.DisabledRules)
	assert.Equal(t, "auto", call.opts.Language)
	assert.Equal(t, "ltpanel-test", call.opts.UserAgent)

	assert.True(t, fixedNow.Equal(f.settings(t).LastCheck))
}

func TestSession_CheckMasksQuotedLines(t *testing.T) {
	f := newFixture(t)
	f.host.page.Text = "> quoted teh\nreply"

	_, err := f.s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat(" ", 12)+"\nreply", f.checker.last().text)

	_, err = f.store.Update(context.Background(), func(st *store.Settings) error {
		st.IgnoreQuotedLines = false
		return nil
	})
	require.NoError(t, err)
	_, err = f.s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "> quoted teh\nreply", f.checker.last().text)
}

func TestSession_ReplacementsNotActionable(t *testing.T) {
	f := newFixture(t)
	f.host.page.URL = "https://medium.com/@a/post"
	v, err := f.s.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, v.Model.Entries[0].Actionable)
	assert.NotEmpty(t, v.Model.Entries[0].Replacements)
}

func TestSession_AddWordCommitsBeforeRecheck(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.Check(context.Background())
	require.NoError(t, err)

	base := f.checker.fn
	f.checker.fn = func(ctx context.Context, text string) (*model.Response, error) {
		// the recheck must observe the dictionary write
		assert.Contains(t, f.settings(t).Dictionary, "teh")
		return base(ctx, text)
	}

	v, err := f.s.AddWord(context.Background(), "teh")
	require.NoError(t, err)
	assert.Equal(t, 2, f.checker.count())
	assert.Equal(t, 2, f.host.extracts)
	assert.Equal(t, []string{"PERIOD_RULE"}, ruleIDs(v.Model))
	assert.Equal(t, Displaying, f.s.State())

	// no duplicate check on append
	_, err = f.s.AddWord(context.Background(), "teh")
	require.NoError(t, err)
	assert.Equal(t, []string{"teh", "teh"}, f.settings(t).Dictionary)
}

func TestSession_IgnoreAndEnableRule(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.Check(context.Background())
	require.NoError(t, err)

	v, err := f.s.IgnoreRule(context.Background(), "PERIOD_RULE", "Sentence end")
	require.NoError(t, err)
	assert.Equal(t, []string{"MORFOLOGIK_RULE_EN_US"}, ruleIDs(v.Model))
	require.Len(t, v.Model.Summary.IgnoredRules, 1)
	assert.Equal(t, annotate.IgnoredRuleLine{ID: "PERIOD_RULE", Description: "Sentence end", Language: "en", Count: 1}, v.Model.Summary.IgnoredRules[0])
	assert.Equal(t, []model.IgnoredRule{{ID: "PERIOD_RULE", Description: "Sentence end", Language: "en"}}, f.settings(t).IgnoredRules)

	// appended twice, removed one at a time
	_, err = f.s.IgnoreRule(context.Background(), "PERIOD_RULE", "Sentence end")
	require.NoError(t, err)
	assert.Len(t, f.settings(t).IgnoredRules, 2)

	v, err = f.s.EnableRule(context.Background(), "PERIOD_RULE", "")
	require.NoError(t, err)
	assert.Len(t, f.settings(t).IgnoredRules, 1)
	assert.Equal(t, []string{"MORFOLOGIK_RULE_EN_US"}, ruleIDs(v.Model))

	v, err = f.s.EnableRule(context.Background(), "PERIOD_RULE", "en")
	require.NoError(t, err)
	assert.Empty(t, f.settings(t).IgnoredRules)
	assert.Equal(t, []string{"MORFOLOGIK_RULE_EN_US", "PERIOD_RULE"}, ruleIDs(v.Model))

	calls := f.checker.count()
	_, err = f.s.EnableRule(context.Background(), "PERIOD_RULE", "")
	assert.ErrorIs(t, err, ErrRuleNotIgnored)
	assert.Equal(t, calls, f.checker.count())
	assert.Equal(t, Displaying, f.s.State())
}

func TestSession_EnableRuleScopedToLanguage(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Update(context.Background(), func(st *store.Settings) error {
		st.IgnoredRules = []model.IgnoredRule{{ID: "R", Language: "de"}, {ID: "R", Language: "en"}}
		return nil
	})
	require.NoError(t, err)

	_, err = f.s.EnableRule(context.Background(), "R", "en")
	require.NoError(t, err)
	assert.Equal(t, []model.IgnoredRule{{ID: "R", Language: "de"}}, f.settings(t).IgnoredRules)
}

func TestSession_IgnoreRuleNeedsDisplayedResult(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.IgnoreRule(context.Background(), "PERIOD_RULE", "d")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, Idle, f.s.State())
}

func TestSession_ApplyReplacementRechecks(t *testing.T) {
	f := newFixture(t)
	v, err := f.s.Check(context.Background())
	require.NoError(t, err)
	e := v.Model.Entries[0]

	v, err = f.s.ApplyReplacement(context.Background(), e.ErrorOffset, e.ErrorText, e.Replacements[0])
	require.NoError(t, err)
	assert.Equal(t, []model.Correction{{Offset: 9, ErrorText: "teh", Replacement: "the"}}, f.host.applied)
	assert.Equal(t, 2, f.checker.count())
	assert.Equal(t, "Thiss is the text.", f.checker.last().text)
	assert.Equal(t, []string{"PERIOD_RULE"}, ruleIDs(v.Model))
	assert.Empty(t, f.settings(t).Dictionary)
}

func TestSession_NoIssues(t *testing.T) {
	f := newFixture(t)
	f.checker.fn = responder()
	v, err := f.s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDone, v.Status)
	assert.True(t, v.Model.Summary.NoIssues)
	assert.Empty(t, v.Model.Entries)
}

func TestSession_Busy(t *testing.T) {
	f := newFixture(t)
	started, release := make(chan struct{}), make(chan struct{})
	base := f.checker.fn
	f.checker.fn = func(ctx context.Context, text string) (*model.Response, error) {
		close(started)
		<-release
		return base(ctx, text)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.s.Check(context.Background())
		done <- err
	}()
	<-started

	assert.Equal(t, Checking, f.s.State())
	_, err := f.s.AddWord(context.Background(), "teh")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.s.Check(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, f.settings(t).Dictionary)
}

func TestSession_CloseCancelsInFlight(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	f.checker.fn = func(ctx context.Context, _ string) (*model.Response, error) {
		close(started)
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", ErrNetwork, ctx.Err())
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.s.Check(context.Background())
		done <- err
	}()
	<-started
	f.s.Close()

	err := <-done
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, Closed, f.s.State())
	assert.Empty(t, f.reporter.all())

	_, err = f.s.Check(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSession_UnsupportedSite(t *testing.T) {
	f := newFixture(t)
	f.host.page.URL = "https://docs.google.com/document/d/1"

	v, err := f.s.Check(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedSite)
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "siteNotSupported", v.Kind)
	assert.Zero(t, f.checker.count())
	require.Len(t, f.reporter.all(), 1)
	assert.Contains(t, f.reporter.all()[0], "siteNotSupported on https://docs.google.com")
}

func TestSession_FreshInstall(t *testing.T) {
	f := newFixture(t)
	f.host.page = nil

	v, err := f.s.Check(context.Background())
	assert.ErrorIs(t, err, ErrFreshInstall)
	assert.Equal(t, "freshInstallReload", v.Kind)

	f.host.err = errors.New("tab gone")
	_, err = f.s.Check(context.Background())
	assert.ErrorIs(t, err, ErrFreshInstall)
	assert.Zero(t, f.checker.count())
}

func TestSession_HostNotice(t *testing.T) {
	f := newFixture(t)
	f.host.page.Message = "Text is too long <b>now</b>"

	v, err := f.s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusNotice, v.Status)
	assert.Equal(t, "Text is too long now", v.Message)
	assert.Zero(t, f.checker.count())
}

func TestSession_CheckFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.checker.fn = func(context.Context, string) (*model.Response, error) {
		return nil, fmt.Errorf("%w: http://lt.test/v2/check did not answer", ErrTimeout)
	}

	v, err := f.s.Check(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "timeoutError", v.Kind)
	assert.Equal(t, Displaying, f.s.State())

	msgs := f.reporter.all()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "http://lt.test/v2 timeoutError on https://example.com/post"))

	// a manual retry runs the whole cycle again
	f.checker.fn = responder(grammar())
	v, err = f.s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDone, v.Status)
}

func TestSession_PanicDuringCheckLeavesSessionUsable(t *testing.T) {
	f := newFixture(t)
	f.checker.fn = func(context.Context, string) (*model.Response, error) {
		panic("malformed response")
	}

	v, err := f.s.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, Displaying, f.s.State())

	f.checker.fn = responder(grammar())
	v, err = f.s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDone, v.Status)
}

func TestSession_DismissShortcutHint(t *testing.T) {
	f := newFixture(t)
	v, err := f.s.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, v.Model.Summary.ShowShortcutHint)

	v, err = f.s.Do(context.Background(), Action{Kind: ActionDismissShortcutHint})
	require.NoError(t, err)
	assert.False(t, v.Model.Summary.ShowShortcutHint)
	assert.False(t, f.settings(t).ShowShortcutHint)
	assert.Equal(t, 1, f.checker.count())
}

func TestSession_SetServerURL(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.Do(context.Background(), Action{Kind: ActionSetServerURL, ServerURL: "localhost:8081"})
	assert.ErrorIs(t, err, ErrInvalidServerURL)

	_, err = f.s.Do(context.Background(), Action{Kind: ActionSetServerURL, ServerURL: "http://localhost:8081/v2"})
	require.NoError(t, err)
	assert.Equal(t, Idle, f.s.State())

	_, err = f.s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/v2", f.checker.last().opts.ServerURL)
}

func TestAction_Validate(t *testing.T) {
	bad := []Action{
		{Kind: "explode"},
		{Kind: ActionIgnoreRule},
		{Kind: ActionEnableRule},
		{Kind: ActionAddWord},
		{Kind: ActionApplyReplacement, Offset: 3},
		{Kind: ActionImportWordList},
	}
	for _, a := range bad {
		assert.ErrorIs(t, a.Validate(), ErrInvalidAction, "%+v", a)
	}
	assert.NoError(t, Action{Kind: ActionDismissShortcutHint}.Validate())
	assert.True(t, Action{Kind: ActionAddWord}.Rechecks())
	assert.False(t, Action{Kind: ActionSetServerURL}.Rechecks())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "rechecking", Rechecking.String())
	assert.Equal(t, "State(42)", State(42).String())
}
