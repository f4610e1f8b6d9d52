// Package tokenizer splits document text into position-tagged terms.
//
// Tokenization is a pure function of its input: no shared state, no
// failure modes. Malformed input (an unclosed fence, stray control
// characters) degrades to best-effort splitting rather than erroring.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Kind classifies where a token came from.
type Kind uint8

const (
	// KindWord is a regular prose term.
	KindWord Kind = iota
	// KindCode is an opaque chunk from a fenced code block or inline
	// code span. Code chunks are split on whitespace only, so
	// "fmt.println(x)" stays one term and code syntax doesn't pollute
	// the index with punctuation fragments.
	KindCode
)

// Token is a single normalized term with its position in the original
// text. Start/End are byte offsets into the untouched input, so callers
// can slice the original document for context display.
type Token struct {
	Term   string
	Line   int // 1-based
	Column int // 1-based rune column within the line
	Start  int // byte offset, inclusive
	End    int // byte offset, exclusive
	Kind   Kind
}

// Tokenizer splits text into terms. The zero value is not usable; use New.
type Tokenizer struct {
	minTermLength int
}

// New creates a Tokenizer that drops terms shorter than minTermLength
// runes. Values below 1 are treated as 1.
func New(minTermLength int) *Tokenizer {
	if minTermLength < 1 {
		minTermLength = 1
	}
	return &Tokenizer{minTermLength: minTermLength}
}

// Tokenize splits text into normalized terms. Terms are case-folded and
// Unicode NFKC-normalized; normalization is applied per term, never to
// the text as a whole, so byte offsets always refer to the input.
func (t *Tokenizer) Tokenize(text string) []Token {
	var tokens []Token
	inFence := false
	offset := 0
	line := 0

	for len(text) > 0 || line == 0 {
		var rawLine string
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			rawLine = text[:i]
			text = text[i+1:]
		} else {
			rawLine = text
			text = ""
		}
		line++

		trimmed := strings.TrimSpace(rawLine)
		if isFenceDelimiter(trimmed) {
			// The delimiter line itself (``` or ~~~ plus info string)
			// is never indexed.
			inFence = !inFence
			offset += len(rawLine) + 1
			if text == "" {
				break
			}
			continue
		}

		if inFence {
			tokens = t.appendCodeTokens(tokens, rawLine, line, offset)
		} else {
			tokens = t.appendLineTokens(tokens, rawLine, line, offset)
		}

		offset += len(rawLine) + 1
		if text == "" {
			break
		}
	}
	return tokens
}

// appendLineTokens tokenizes a prose line, treating inline `code spans`
// as opaque code chunks.
func (t *Tokenizer) appendLineTokens(tokens []Token, rawLine string, line, lineStart int) []Token {
	segStart := 0
	for {
		open := strings.IndexByte(rawLine[segStart:], '`')
		if open < 0 {
			return t.appendWordTokens(tokens, rawLine, segStart, len(rawLine), line, lineStart)
		}
		open += segStart
		close := strings.IndexByte(rawLine[open+1:], '`')
		if close < 0 {
			// Unpaired backtick: treat the rest as prose.
			return t.appendWordTokens(tokens, rawLine, segStart, len(rawLine), line, lineStart)
		}
		close += open + 1

		tokens = t.appendWordTokens(tokens, rawLine, segStart, open, line, lineStart)
		tokens = t.appendCodeChunks(tokens, rawLine, open+1, close, line, lineStart)
		segStart = close + 1
		if segStart >= len(rawLine) {
			return tokens
		}
	}
}

// appendWordTokens splits rawLine[from:to] on non-word boundaries.
func (t *Tokenizer) appendWordTokens(tokens []Token, rawLine string, from, to int, line, lineStart int) []Token {
	start := -1
	for i := from; i <= to; {
		var r rune
		var size int
		if i < to {
			r, size = utf8.DecodeRuneInString(rawLine[i:])
		}
		if i < to && isWordRune(r) {
			if start < 0 {
				start = i
			}
			i += size
			continue
		}
		if start >= 0 {
			tokens = t.emit(tokens, rawLine, start, i, line, lineStart, KindWord)
			start = -1
		}
		if i >= to {
			break
		}
		i += size
	}
	return tokens
}

// appendCodeTokens tokenizes a full line inside a fenced block.
func (t *Tokenizer) appendCodeTokens(tokens []Token, rawLine string, line, lineStart int) []Token {
	return t.appendCodeChunks(tokens, rawLine, 0, len(rawLine), line, lineStart)
}

// appendCodeChunks splits rawLine[from:to] on whitespace only.
func (t *Tokenizer) appendCodeChunks(tokens []Token, rawLine string, from, to int, line, lineStart int) []Token {
	start := -1
	for i := from; i <= to; {
		var r rune
		var size int
		if i < to {
			r, size = utf8.DecodeRuneInString(rawLine[i:])
		}
		if i < to && !unicode.IsSpace(r) {
			if start < 0 {
				start = i
			}
			i += size
			continue
		}
		if start >= 0 {
			tokens = t.emit(tokens, rawLine, start, i, line, lineStart, KindCode)
			start = -1
		}
		if i >= to {
			break
		}
		i += size
	}
	return tokens
}

// emit appends a token for rawLine[start:end) if it survives
// normalization and the minimum-length filter.
func (t *Tokenizer) emit(tokens []Token, rawLine string, start, end, line, lineStart int, kind Kind) []Token {
	term := Normalize(rawLine[start:end])
	if utf8.RuneCountInString(term) < t.minTermLength {
		return tokens
	}
	return append(tokens, Token{
		Term:   term,
		Line:   line,
		Column: utf8.RuneCountInString(rawLine[:start]) + 1,
		Start:  lineStart + start,
		End:    lineStart + end,
		Kind:   kind,
	})
}

// Normalize case-folds and NFKC-normalizes a raw token into its index
// term form. Queries must go through the same normalization as content.
func Normalize(raw string) string {
	return strings.ToLower(norm.NFKC.String(raw))
}

// isFenceDelimiter reports whether a trimmed line opens or closes a
// fenced code block.
func isFenceDelimiter(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// isWordRune reports whether r belongs inside a prose term. Underscore
// is kept so snake_case identifiers mentioned in prose index as one term.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
