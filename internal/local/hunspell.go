// Package local provides an offline spelling backend backed by the hunspell binary.
// It communicates via the ispell-compatible pipe protocol (-a flag).
package local

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
	"unicode/utf16"

	"github.com/Alfex4936/ltpanel/internal/model"
)

// Match metadata for everything hunspell reports.
const (
	RuleID          = "HUNSPELL_RULE"
	RuleDescription = "Possible spelling mistake"
	IssueType       = "misspelling"
	contextRunes    = 40
)

// Hunspell wraps a running hunspell process in ispell-compatible pipe mode.
type Hunspell struct {
	lang  string
	stdin io.WriteCloser
	out   *bufio.Reader
	cmd   *exec.Cmd
	mu    sync.Mutex
}

// New starts a hunspell subprocess.
// dictDir: directory containing <lang>.aff / <lang>.dic  (pass "" to use system dictionary).
// lang:    dictionary name, e.g. "en_US".
func New(dictDir, lang string) (*Hunspell, error) {
	dictArg := lang
	if dictDir != "" {
		aff := filepath.Join(dictDir, lang+".aff")
		dic := filepath.Join(dictDir, lang+".dic")
		if _, err := os.Stat(aff); err != nil {
			return nil, fmt.Errorf("local: hunspell dict missing: %s", aff)
		}
		if _, err := os.Stat(dic); err != nil {
			return nil, fmt.Errorf("local: hunspell dict missing: %s", dic)
		}
		dictArg = filepath.Join(dictDir, lang)
	}

	cmd := exec.Command("hunspell", "-d", dictArg, "-a", "-i", "UTF-8")
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("local: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("local: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("local: hunspell start (is hunspell installed?): %w", err)
	}

	h := newPipe(lang, stdin, bufio.NewReader(stdout))
	h.cmd = cmd
	// Discard the initial banner: "Hunspell x.y.z\n"
	if _, err := h.out.ReadString('\n'); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("local: hunspell init failed: %w", err)
	}
	return h, nil
}

func newPipe(lang string, stdin io.WriteCloser, out *bufio.Reader) *Hunspell {
	return &Hunspell{lang: lang, stdin: stdin, out: out}
}

// Language reports the dictionary as a service-style language,
// "en_US" becoming code "en-US".
func (h *Hunspell) Language() model.Language {
	return model.Language{Name: h.lang, Code: strings.ReplaceAll(h.lang, "_", "-")}
}

// Close ends the subprocess.
func (h *Hunspell) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.stdin.Close()
	if h.cmd != nil {
		if werr := h.cmd.Wait(); err == nil {
			err = werr
		}
	}
	return err
}

// CheckText tokenizes text, checks each word with hunspell, and returns
// one match per unknown word. Offsets are UTF-16 code units.
func (h *Hunspell) CheckText(ctx context.Context, text string) ([]model.Match, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return []model.Match{}, nil
	}
	units := utf16.Encode([]rune(text))

	h.mu.Lock()
	defer h.mu.Unlock()

	out := []model.Match{}
	for _, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		correct, suggest, err := h.checkWord(tok.word)
		if err != nil {
			return nil, err
		}
		if correct {
			continue
		}
		out = append(out, buildMatch(units, tok, suggest))
	}
	return out, nil
}

func buildMatch(units []uint16, tok wordToken, suggest []string) model.Match {
	from := backRunes(units, tok.start, contextRunes)
	to := forwardRunes(units, tok.end, contextRunes)
	ctxText := string(utf16.Decode(units[from:to]))

	reps := make([]model.Replacement, len(suggest))
	for i, s := range suggest {
		reps[i] = model.Replacement{Value: s}
	}
	return model.Match{
		Rule:    model.Rule{ID: RuleID, Description: RuleDescription, IssueType: IssueType},
		Message: fmt.Sprintf("Possible spelling mistake found: %q", tok.word),
		Offset:  tok.start,
		Length:  tok.end - tok.start,
		Context: model.Context{
			Text:   ctxText,
			Offset: tok.start - from,
			Length: tok.end - tok.start,
		},
		Replacements: reps,
	}
}

// backRunes walks n code points left of i without splitting a surrogate pair.
func backRunes(units []uint16, i, n int) int {
	for ; n > 0 && i > 0; n-- {
		i--
		if i > 0 && utf16.IsSurrogate(rune(units[i])) && utf16.IsSurrogate(rune(units[i-1])) {
			i--
		}
	}
	return i
}

func forwardRunes(units []uint16, i, n int) int {
	for ; n > 0 && i < len(units); n-- {
		if i+1 < len(units) && utf16.IsSurrogate(rune(units[i])) && utf16.IsSurrogate(rune(units[i+1])) {
			i++
		}
		i++
	}
	return i
}

// checkWord sends one word to hunspell and parses the response.
// Ispell pipe protocol:
//
//	*  +  → correct
//	-     → correct compound
//	& w n o: s1, s2  → misspelled, suggestions
//	# w o   → misspelled, no suggestions
func (h *Hunspell) checkWord(word string) (correct bool, suggest []string, err error) {
	// "^" keeps hunspell from reading the word as a command
	if _, err = fmt.Fprintf(h.stdin, "^%s\n", word); err != nil {
		return false, nil, err
	}

	seen := false
	for {
		line, e := h.out.ReadString('\n')
		if e != nil && e != io.EOF {
			return false, nil, e
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if e == io.EOF && !seen {
				return false, nil, io.ErrUnexpectedEOF
			}
			break // blank line = end of result for this word
		}

		seen = true
		switch line[0] {
		case '*', '+', '-':
			correct = true
		case '&':
			correct = false
			if idx := strings.Index(line, ": "); idx != -1 {
				for _, s := range strings.Split(line[idx+2:], ", ") {
					if s = strings.TrimSpace(s); s != "" {
						suggest = append(suggest, s)
					}
				}
			}
		case '#':
			correct = false
		}
	}
	return
}

// wordToken is a word with its UTF-16 offsets in the original text.
type wordToken struct {
	word  string
	start int // inclusive
	end   int // exclusive
}

// tokenize splits text into word tokens (letter/digit runs).
func tokenize(text string) []wordToken {
	var tokens []wordToken
	var b strings.Builder
	pos, start := 0, -1
	flush := func() {
		if start >= 0 {
			tokens = append(tokens, wordToken{word: b.String(), start: start, end: pos})
			b.Reset()
			start = -1
		}
	}
	for _, r := range text {
		if isWordChar(r) {
			if start < 0 {
				start = pos
			}
			b.WriteRune(r)
		} else {
			flush()
		}
		pos += utf16.RuneLen(r)
	}
	flush()
	return tokens
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\''
}
