package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// extractSnippet cuts a window of at most width runes centered on the
// match at text[start:end), trimmed outward to word boundaries. Line
// breaks collapse to single spaces so snippets render on one line.
func extractSnippet(text string, start, end, width int) string {
	matchRunes := utf8.RuneCountInString(text[start:end])
	if matchRunes >= width {
		return squash(text[start:end])
	}
	margin := (width - matchRunes) / 2

	// Walk left up to margin runes, then back off to the next word
	// boundary so the snippet never opens mid-word.
	left := start
	for i := 0; i < margin && left > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:left])
		left -= size
	}
	if left > 0 {
		for left < start {
			r, size := utf8.DecodeRuneInString(text[left:])
			if unicode.IsSpace(r) {
				left += size
				break
			}
			left += size
		}
	}

	right := end
	for i := 0; i < margin && right < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[right:])
		right += size
	}
	if right < len(text) {
		for right > end {
			r, size := utf8.DecodeLastRuneInString(text[:right])
			if unicode.IsSpace(r) {
				right -= size
				break
			}
			right -= size
		}
	}

	snippet := squash(text[left:right])
	if left > 0 {
		snippet = "…" + snippet
	}
	if right < len(text) {
		snippet += "…"
	}
	return snippet
}

// squash collapses whitespace runs (including newlines) to single
// spaces and trims the edges.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
