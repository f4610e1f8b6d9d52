// Package query resolves a query string into ranked, context-bearing
// results using the term index and the document cache.
package query

// MatchType classifies where a match occurred. It is a closed set:
// callers switch on it rather than comparing strings.
type MatchType uint8

const (
	// MatchContent is a match in regular body text.
	MatchContent MatchType = iota
	// MatchHeading is a match on a heading line; it scores higher.
	MatchHeading
	// MatchCode is a match inside a fenced block or inline code span.
	MatchCode
)

// String returns the lowercase name used in CLI/JSON output.
func (m MatchType) String() string {
	switch m {
	case MatchHeading:
		return "heading"
	case MatchCode:
		return "code"
	default:
		return "content"
	}
}

// Result is one ranked match. Results are value objects: the engine
// keeps no reference to them after returning.
type Result struct {
	DocumentID     string    `json:"documentId"`
	MatchedText    string    `json:"matchedText"`
	Snippet        string    `json:"snippet"`
	Line           int       `json:"line"`
	Column         int       `json:"column"`
	Score          float64   `json:"score"`
	MatchType      MatchType `json:"-"`
	MatchTypeName  string    `json:"matchType"`
	HeadingContext string    `json:"headingContext,omitempty"`
}

// Options restricts and bounds a query.
type Options struct {
	// Scope limits results to a single document. Empty means all
	// indexed documents. A scope that was never indexed yields empty
	// results, not an error.
	Scope string

	// Limit caps the number of results. Zero means the engine default.
	Limit int
}
