// Package query turns free-text user input into Postgres tsquery expressions
// and LIKE patterns.
package query

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// TextSearchConfig is the Postgres FTS configuration. "simple" does no
	// stemming, which suits mixed German/English text and proper nouns.
	TextSearchConfig = "simple"
	// TrigramThreshold is the default pg_trgm similarity cutoff for fuzzy fallback.
	TrigramThreshold = 0.2
	// MinTextLength is the shortest sanitized query worth sending to the database.
	MinTextLength = 2

	HeadlineStartSel = "<mark>"
	HeadlineStopSel  = "</mark>"

	DefaultHeadlineMaxWords = 35
	DefaultHeadlineMinWords = 15
)

// unsafe holds tsquery operators and syntax characters. Each is replaced with a
// space so that "it's" stays two words.
var unsafe = strings.NewReplacer(
	"&", " ",
	"|", " ",
	"!", " ",
	"(", " ",
	")", " ",
	"'", " ",
	":", " ",
	"*", " ",
	"<", " ",
	">", " ",
)

// Sanitize strips tsquery operators and collapses whitespace.
// It is total and idempotent.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return strings.Join(strings.Fields(unsafe.Replace(input)), " ")
}

// EscapeLikePattern escapes LIKE metacharacters. Backslash goes first so the
// escapes added for % and _ are not doubled.
func EscapeLikePattern(input string) string {
	input = strings.ReplaceAll(input, `\`, `\\`)
	input = strings.ReplaceAll(input, "%", `\%`)
	input = strings.ReplaceAll(input, "_", `\_`)
	return input
}

// BuildLikePattern wraps the escaped input for a substring match.
func BuildLikePattern(input string) string {
	return "%" + EscapeLikePattern(input) + "%"
}

// BuildTsQuery joins whitespace-separated tokens with AND. With prefixMatch
// every token gets the :* prefix operator.
func BuildTsQuery(sanitized string, prefixMatch bool) string {
	tokens := strings.Fields(sanitized)
	if len(tokens) == 0 {
		return ""
	}
	if prefixMatch {
		for i, tok := range tokens {
			tokens[i] = tok + ":*"
		}
	}
	return strings.Join(tokens, " & ")
}

// BuildHeadlineOptions returns the ts_headline options string.
func BuildHeadlineOptions(maxWords, minWords int) string {
	return strings.Join([]string{
		"StartSel=" + HeadlineStartSel,
		"StopSel=" + HeadlineStopSel,
		"MaxWords=" + strconv.Itoa(maxWords),
		"MinWords=" + strconv.Itoa(minWords),
	}, ", ")
}

// DefaultHeadlineOptions is BuildHeadlineOptions with the default window.
func DefaultHeadlineOptions() string {
	return BuildHeadlineOptions(DefaultHeadlineMaxWords, DefaultHeadlineMinWords)
}

// IsSearchable reports whether sanitized text is long enough to query.
func IsSearchable(sanitized string) bool {
	return utf8.RuneCountInString(sanitized) >= MinTextLength
}

// Terms is the derived form of one user query shared by every entity search.
type Terms struct {
	Text        string
	TsQuery     string
	ExactQuery  string
	LikePattern string
}

// Build sanitizes raw text and derives all query forms from it.
func Build(raw string) Terms {
	text := Sanitize(raw)
	return Terms{
		Text:        text,
		TsQuery:     BuildTsQuery(text, true),
		ExactQuery:  BuildTsQuery(text, false),
		LikePattern: BuildLikePattern(text),
	}
}

// Empty reports whether the terms are too short to search.
func (t Terms) Empty() bool { return !IsSearchable(t.Text) }

// Scoped is one owner's search, as handed to every entity strategy.
type Scoped struct {
	Terms
	UserID string
	Limit  int
}

// Scope binds the terms to an owner and a row limit.
func (t Terms) Scope(userID string, limit int) Scoped {
	return Scoped{Terms: t, UserID: userID, Limit: limit}
}
