// Command ltpanel-cli checks stdin, a file or a web page and prints the
// resulting view as text, JSON or an HTML panel.
//
// Usage:
//
//	echo "This is teh text." | ltpanel-cli
//	ltpanel-cli -f notes.txt -add-word Kubernetes -apply 0
//	ltpanel-cli -url https://example.com/post -format html
//	ltpanel-cli -import words.txt
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Alfex4936/ltpanel/internal/config"
	"github.com/Alfex4936/ltpanel/internal/util"
	"github.com/Alfex4936/ltpanel/ltpanel"
)

func main() {
	cfgPath := flag.String("config", envOr("LTPANEL_CONFIG", ""), "YAML config file (optional)")
	file := flag.String("f", "", "plain-text file to check; replacements are written back")
	pageURL := flag.String("url", "", "web page to check (read-only)")
	htmlPath := flag.String("html", "", "local copy of the page given by -url")
	server := flag.String("server", envOr("LT_SERVER_URL", ""), "LanguageTool API base URL, stored for later runs")
	lang := flag.String("lang", "", "language code, default from config (auto)")
	mode := flag.String("mode", envOr("MODE", ""), "backend: remote | hunspell")
	format := flag.String("format", "text", "output: text | json | html")

	addWords := flag.String("add-word", "", "comma-separated words to add to the dictionary")
	ignore := flag.String("ignore-rule", "", "comma-separated rule ids to turn off for the detected language")
	enable := flag.String("enable-rule", "", "comma-separated rule ids to turn back on")
	apply := flag.Int("apply", -1, "apply the first replacement of entry N")
	importPath := flag.String("import", "", "one-word-per-line file to add to the dictionary, then exit")
	dismiss := flag.Bool("dismiss-hint", false, "stop showing the shortcut hint")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	must(err)
	if *lang != "" {
		cfg.Language = *lang
	}
	if *mode != "" {
		cfg.Checker.Backend = *mode
	}
	must(cfg.Validate())

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	env, err := ltpanel.NewEnv(cfg, log)
	must(err)
	defer env.Close()

	ctx := context.Background()

	if *importPath != "" {
		n, err := ltpanel.ImportWordList(ctx, env.Store, *importPath)
		must(err)
		fmt.Printf("%d words added\n", n)
		return
	}

	src := ltpanel.Source{Path: *file, URL: *pageURL, HTML: *htmlPath}
	if src.Path == "" && src.URL == "" {
		data, err := io.ReadAll(os.Stdin)
		must(err)
		src.Text = string(data)
	}
	h, err := env.HostFor(src)
	must(err)

	sess := env.NewSession(h)
	defer sess.Close()

	var actions []ltpanel.Action
	if *server != "" {
		actions = append(actions, ltpanel.Action{Kind: ltpanel.ActionSetServerURL, ServerURL: *server})
	}
	if *dismiss {
		actions = append(actions, ltpanel.Action{Kind: ltpanel.ActionDismissShortcutHint})
	}
	for _, a := range actions {
		_, err := sess.Do(ctx, a)
		must(err)
	}

	view, err := sess.Check(ctx)
	report(err)

	for _, w := range split(*addWords) {
		view, err = sess.AddWord(ctx, w)
		report(err)
	}
	for _, id := range split(*ignore) {
		view, err = sess.IgnoreRule(ctx, id, describe(view, id))
		report(err)
	}
	for _, id := range split(*enable) {
		view, err = sess.EnableRule(ctx, id, "")
		report(err)
	}
	if *apply >= 0 {
		view, err = applyEntry(ctx, sess, view, *apply)
		report(err)
	}

	switch *format {
	case "json":
		out, err := util.MarshalNoEscape(view, true)
		must(err)
		fmt.Println(string(out))
	case "html":
		must(ltpanel.RenderPanel(os.Stdout, view))
	default:
		printText(os.Stdout, view)
	}
	if view.Status == ltpanel.StatusFailed {
		os.Exit(1)
	}
}

func applyEntry(ctx context.Context, sess *ltpanel.Session, view ltpanel.View, n int) (ltpanel.View, error) {
	if view.Model == nil || n >= len(view.Model.Entries) {
		return view, fmt.Errorf("no entry %d", n)
	}
	e := view.Model.Entries[n]
	if !e.Actionable || len(e.Replacements) == 0 {
		return view, fmt.Errorf("entry %d has no replacement that can be applied", n)
	}
	return sess.ApplyReplacement(ctx, e.ErrorOffset, e.ErrorText, e.Replacements[0])
}

// describe finds the displayed description of rule id.
func describe(view ltpanel.View, id string) string {
	if view.Model == nil {
		return ""
	}
	for _, e := range view.Model.Entries {
		if e.RuleID == id {
			return e.Affordance.Description
		}
	}
	return ""
}

func printText(w io.Writer, v ltpanel.View) {
	switch v.Status {
	case ltpanel.StatusFailed:
		fmt.Fprintf(w, "check failed (%s): %s\n", v.Kind, v.Message)
		return
	case ltpanel.StatusNotice, ltpanel.StatusPending:
		fmt.Fprintln(w, v.Message)
		return
	}

	sum := v.Model.Summary
	if sum.NoIssues {
		fmt.Fprintln(w, "No errors found.")
	}
	for i, e := range v.Model.Entries {
		fmt.Fprintf(w, "%d. [%s] %s\n", i, e.Category, e.Message)
		fmt.Fprintf(w, "   %s[%s]%s\n", e.ContextBefore, e.ErrorText, e.ContextAfter)
		if len(e.Replacements) > 0 {
			fmt.Fprintf(w, "   → %s\n", strings.Join(e.Replacements, ", "))
		}
		fmt.Fprintf(w, "   rule %s\n", e.RuleID)
	}
	for _, r := range sum.IgnoredRules {
		fmt.Fprintf(w, "ignored: %s %s (%d)\n", r.ID, r.Description, r.Count)
	}
	fmt.Fprintf(w, "%s · checked by %s\n", sum.LanguageName, sum.CheckedBy)
}

func split(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// report prints action errors but keeps going; a failed check is
// already part of the view.
func report(err error) {
	if err != nil && ltpanel.Kind(err) == "" {
		fmt.Fprintln(os.Stderr, "ltpanel-cli:", err)
	}
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "ltpanel-cli:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
