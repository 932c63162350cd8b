// Package snippet renders database headlines as restricted markup.
//
// A headline is user content with <mark>...</mark> spans inserted around
// matched terms. Only those two tags survive rendering; every other
// tag-like substring is entity-escaped.
package snippet

import (
	"html"
	"strings"
)

const (
	openTag  = "<mark>"
	closeTag = "</mark>"
)

var restore = strings.NewReplacer(
	html.EscapeString(openTag), openTag,
	html.EscapeString(closeTag), closeTag,
)

// Render escapes s and re-enables <mark> and </mark>. Unclosed marks are
// closed at the end so the markup stays balanced.
func Render(s string) string {
	if s == "" {
		return ""
	}
	out := restore.Replace(html.EscapeString(s))
	if open := strings.Count(out, openTag) - strings.Count(out, closeTag); open > 0 {
		out += strings.Repeat(closeTag, open)
	}
	return out
}

// Plain removes highlight markers, leaving the raw text.
func Plain(s string) string {
	return strings.NewReplacer(openTag, "", closeTag, "").Replace(s)
}
