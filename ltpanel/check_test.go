package ltpanel

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDoer answers requests without touching the network.
type fakeDoer struct {
	mu   sync.Mutex
	reqs []recorded
	fn   func(req *http.Request) (*http.Response, error)
}

type recorded struct {
	url  string
	form url.Values
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	form, _ := url.ParseQuery(string(body))
	f.mu.Lock()
	f.reqs = append(f.reqs, recorded{url: req.URL.String(), form: form})
	f.mu.Unlock()
	return f.fn(req)
}

func (f *fakeDoer) calls() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.reqs...)
}

func reply(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

const okBody = `{"language":{"name":"English (US)","code":"en-US"},"matches":[
 {"message":"Possible spelling mistake found.","offset":8,"length":3,
  "context":{"text":"This is teh text","offset":8,"length":3},
  "replacements":[{"value":"the"}],
  "rule":{"id":"MORFOLOGIK_RULE_EN_US","description":"Possible spelling mistake","issueType":"misspelling"}}]}`

func TestRemoteChecker_Check(t *testing.T) {
	doer := &fakeDoer{fn: reply(200, okBody)}
	c := NewRemoteCheckerWith(doer, time.Second)

	resp, err := c.Check(context.Background(), "This is teh text", CheckOptions{
		ServerURL:     "http://localhost:8081/v2",
		DisabledRules: []string{"WHITESPACE_RULE"},
		UserAgent:     "ltpanel-cli",
		Language:      "auto",
	})
	require.NoError(t, err)
	assert.Equal(t, "en-US", resp.Language.Code)
	require.Len(t, resp.Matches, 1)

	calls := doer.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "http://localhost:8081/v2/check", calls[0].url)
	assert.Equal(t, "This is teh text", calls[0].form.Get("text"))
	assert.Equal(t, "WHITESPACE_RULE", calls[0].form.Get("disabledRules"))
	assert.Equal(t, "ltpanel-cli", calls[0].form.Get("useragent"))
	assert.Equal(t, "auto", calls[0].form.Get("language"))
}

func TestRemoteChecker_TrailingSlash(t *testing.T) {
	doer := &fakeDoer{fn: reply(200, okBody)}
	_, err := NewRemoteCheckerWith(doer, time.Second).Check(context.Background(), "x", CheckOptions{ServerURL: "http://lt/v2/"})
	require.NoError(t, err)
	assert.Equal(t, "http://lt/v2/check", doer.calls()[0].url)
}

func TestRemoteChecker_FailureKinds(t *testing.T) {
	cases := []struct {
		name string
		fn   func(*http.Request) (*http.Response, error)
		want error
	}{
		{"empty body", reply(200, "  "), ErrNoResponse},
		{"empty body beats status", reply(500, ""), ErrNoResponse},
		{"server error", reply(503, "<html>Service Unavailable</html>"), ErrNonSuccessStatus},
		{"malformed body", reply(200, "{not json"), ErrNonSuccessStatus},
		{"network", func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}, ErrNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewRemoteCheckerWith(&fakeDoer{fn: tc.fn}, time.Second)
			_, err := c.Check(context.Background(), "x", CheckOptions{ServerURL: "http://lt/v2"})
			assert.ErrorIs(t, err, tc.want)
			assert.NotEmpty(t, Kind(err))
		})
	}
}

func TestRemoteChecker_Timeout(t *testing.T) {
	doer := &fakeDoer{fn: func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}}
	c := NewRemoteCheckerWith(doer, 20*time.Millisecond)

	_, err := c.Check(context.Background(), "x", CheckOptions{ServerURL: "http://lt/v2"})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "timeoutError", Kind(err))
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("ž", 500)
	got := excerpt([]byte(long))
	assert.Equal(t, 201, len([]rune(got)))
	assert.Equal(t, "short", excerpt([]byte("  short \n")))
}
