// Package sanitize strips markup from strings the checking service echoes
// back. Match content is attacker-influenceable (it quotes page text), so
// everything from a response passes through HTML before reaching a view.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// elements whose content is dropped along with the tags
var dropContent = map[string]bool{
	"script":   true,
	"style":    true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"template": true,
	"noscript": true,
}

// HTML returns s with every tag, comment and doctype removed.
//
// Text is kept in its raw form (entities are not decoded) so that plain
// text such as "a < b" keeps its length and the service's offsets stay
// valid. The result is still text, not markup: renderers must escape it.
func HTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken: // io.EOF, the tokenizer never fails on a strings.Reader otherwise
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Raw())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if dropContent[string(name)] {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if dropContent[string(name)] && skip > 0 {
				skip--
			}
		}
	}
}
