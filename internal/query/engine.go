package query

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/mdlens/mdsearch/internal/cache"
	"github.com/mdlens/mdsearch/internal/index"
	"github.com/mdlens/mdsearch/internal/outline"
	"github.com/mdlens/mdsearch/internal/tokenizer"
)

// OutlineSource supplies the memoized outline for a document. The
// coordinator implements it; outlines survive cache eviction because
// scoring needs heading ranges for every indexed document.
type OutlineSource interface {
	Outline(documentID string) *outline.Document
}

// Config tunes scoring and snippet extraction.
type Config struct {
	// HeadingBoost multiplies the score of matches on heading lines.
	HeadingBoost float64
	// SnippetWidth is the maximum snippet length in runes.
	SnippetWidth int
	// MaxResults caps the result list. Zero means unlimited.
	MaxResults int
}

// Engine executes queries against the index/cache pair. It is stateless
// between calls; the coordinator holds its read lock across Execute so
// the engine observes a consistent index snapshot.
type Engine struct {
	idx      *index.TermIndex
	texts    *cache.DocumentCache
	outlines OutlineSource
	tok      *tokenizer.Tokenizer
	cfg      Config
	logger   *slog.Logger
}

// NewEngine wires an Engine over its stores.
func NewEngine(idx *index.TermIndex, texts *cache.DocumentCache, outlines OutlineSource, tok *tokenizer.Tokenizer, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HeadingBoost < 1 {
		cfg.HeadingBoost = 1
	}
	if cfg.SnippetWidth <= 0 {
		cfg.SnippetWidth = 80
	}
	return &Engine{
		idx:      idx,
		texts:    texts,
		outlines: outlines,
		tok:      tok,
		cfg:      cfg,
		logger:   logger.With("component", "query"),
	}
}

// Execute resolves rawQuery into ranked results.
//
// The last query term uses prefix matching unless the raw query ends
// with a trailing delimiter: "he" finds "hello" while typing, "he "
// means the word is finished. Multi-term queries intersect with AND
// semantics at the document level; duplicate terms are deduplicated
// first, and any term with zero postings short-circuits to an empty
// list. Matching nothing is never an error.
func (e *Engine) Execute(ctx context.Context, rawQuery string, opts Options) []Result {
	terms := e.queryTerms(rawQuery)
	if len(terms) == 0 {
		return nil
	}
	lastIsPrefix := !endsWithDelimiter(rawQuery)

	// Resolve each term to postings grouped by document.
	perTerm := make([]map[string][]index.Posting, len(terms))
	for i, term := range terms {
		var ps []index.Posting
		if i == len(terms)-1 && lastIsPrefix {
			ps = e.idx.LookupPrefix(term)
		} else {
			ps = e.idx.LookupExact(term)
		}
		if len(ps) == 0 {
			return nil
		}
		byDoc := make(map[string][]index.Posting)
		for _, p := range ps {
			byDoc[p.DocumentID] = append(byDoc[p.DocumentID], p)
		}
		perTerm[i] = byDoc
	}

	docs := intersectDocs(perTerm, opts.Scope)
	if len(docs) == 0 {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	// Score and extract snippets per document in parallel. Each
	// goroutine writes to its own slot; ordering is restored by the
	// final sort.
	perDoc := make([][]Result, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	for i, docID := range docs {
		i, docID := i, docID
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			perDoc[i] = e.scoreDocument(docID, terms, perTerm)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil
	}

	var results []Result
	for _, rs := range perDoc {
		results = append(results, rs...)
	}
	sortResults(results)

	if limit := e.limit(opts); limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// queryTerms normalizes and deduplicates the query's terms, preserving
// first-seen order.
func (e *Engine) queryTerms(rawQuery string) []string {
	tokens := e.tok.Tokenize(rawQuery)
	seen := make(map[string]struct{}, len(tokens))
	var terms []string
	for _, t := range tokens {
		if _, dup := seen[t.Term]; dup {
			continue
		}
		seen[t.Term] = struct{}{}
		terms = append(terms, t.Term)
	}
	return terms
}

// scoreDocument turns one document's surviving postings into results.
func (e *Engine) scoreDocument(docID string, terms []string, perTerm []map[string][]index.Posting) []Result {
	text, cached := e.texts.Get(docID)
	var ol *outline.Document
	if e.outlines != nil {
		ol = e.outlines.Outline(docID)
	}

	var out []Result
	for ti, byDoc := range perTerm {
		postings := byDoc[docID]
		tf := float64(len(postings))
		for _, p := range postings {
			r := Result{
				DocumentID: docID,
				Line:       p.Line,
				Column:     p.Column,
				Score:      tf,
				MatchType:  MatchContent,
			}
			if p.Kind == tokenizer.KindCode {
				r.MatchType = MatchCode
			}
			if ol != nil {
				if h := ol.HeadingAt(p.Line); h != nil && r.MatchType == MatchContent {
					r.MatchType = MatchHeading
					r.Score *= e.cfg.HeadingBoost
				}
				if s := ol.SectionFor(p.Line); s != nil {
					r.HeadingContext = s.Title
				}
			}
			if cached && p.Start < len(text) && p.End <= len(text) && p.Start < p.End {
				r.MatchedText = text[p.Start:p.End]
				r.Snippet = extractSnippet(text, p.Start, p.End, e.cfg.SnippetWidth)
			} else {
				// Evicted from cache: degrade to the bare term
				// rather than fail the search.
				r.MatchedText = terms[ti]
				r.Snippet = terms[ti] + " …"
			}
			r.MatchTypeName = r.MatchType.String()
			out = append(out, r)
		}
	}
	return out
}

// intersectDocs ANDs the document sets of every term, optionally
// restricted to a single scope document, returning a sorted slice for
// deterministic iteration.
func intersectDocs(perTerm []map[string][]index.Posting, scope string) []string {
	var docs []string
	for docID := range perTerm[0] {
		if scope != "" && docID != scope {
			continue
		}
		inAll := true
		for _, byDoc := range perTerm[1:] {
			if _, ok := byDoc[docID]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			docs = append(docs, docID)
		}
	}
	sort.Strings(docs)
	return docs
}

// sortResults orders by descending score, ties broken by ascending
// (line, column), then document ID for cross-document determinism.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.DocumentID < b.DocumentID
	})
}

func (e *Engine) limit(opts Options) int {
	if opts.Limit > 0 {
		return opts.Limit
	}
	return e.cfg.MaxResults
}

// endsWithDelimiter reports whether the user finished the last word,
// turning off prefix matching for it.
func endsWithDelimiter(rawQuery string) bool {
	r, size := utf8.DecodeLastRuneInString(rawQuery)
	if size == 0 {
		return false
	}
	return unicode.IsSpace(r) || strings.ContainsRune(",.;:!?", r)
}
