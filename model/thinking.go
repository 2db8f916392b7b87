package model

import "regexp"

// Older server builds embedded the reasoning trace inline in the content
// channel as <thinking>...</thinking> markup. Match semantics: first
// occurrence, case-insensitive, non-greedy, dot matches newline.
var thinkingRegex = regexp.MustCompile(`(?is)<thinking>(.*?)</thinking>`)

// ExtractThinking returns the inner text of the first thinking span in s,
// and whether one was found.
func ExtractThinking(s string) (string, bool) {
	m := thinkingRegex.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// StripThinking removes the first thinking span from s.
func StripThinking(s string) string {
	loc := thinkingRegex.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

// StripAllThinking removes every complete thinking span from s. Used when
// rendering the live stream buffer, which may hold more than one span.
func StripAllThinking(s string) string {
	return thinkingRegex.ReplaceAllString(s, "")
}
