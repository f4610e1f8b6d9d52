// Package index implements the in-memory inverted term index.
//
// The index maps normalized terms to postings and keeps a reverse index
// from document to the terms it touches, so removing a document purges
// every posting it owns. A sorted term array backs prefix lookups with a
// binary-search range scan, keeping incremental (prefix) queries
// O(log n + matches) instead of a full term scan.
//
// TermIndex is not synchronized. The coordinator serializes mutations
// and lets lookups run concurrently under its read lock; see the
// coordinator package.
package index

import (
	"sort"
	"strings"

	"github.com/mdlens/mdsearch/internal/tokenizer"
)

// Posting records one occurrence of a term at a document location.
type Posting struct {
	DocumentID string
	Line       int // 1-based
	Column     int // 1-based rune column
	Start      int // byte offset into the document text, inclusive
	End        int // byte offset, exclusive
	Kind       tokenizer.Kind
}

// TermIndex is the inverted index over all currently indexed documents.
type TermIndex struct {
	// postings maps term -> documentID -> occurrences.
	postings map[string]map[string][]Posting
	// docTerms is the reverse index: documentID -> terms it touches.
	docTerms map[string]map[string]struct{}
	// terms holds all distinct terms in sorted order for prefix scans.
	terms []string
}

// New creates an empty TermIndex.
func New() *TermIndex {
	return &TermIndex{
		postings: make(map[string]map[string][]Posting),
		docTerms: make(map[string]map[string]struct{}),
	}
}

// AddDocument indexes tokens under documentID. Re-indexing the same
// document is idempotent: previous postings are removed first, so the
// index state equals a single fresh add.
func (x *TermIndex) AddDocument(documentID string, tokens []tokenizer.Token) {
	if _, exists := x.docTerms[documentID]; exists {
		x.RemoveDocument(documentID)
	}

	touched := make(map[string]struct{})
	for _, tok := range tokens {
		byDoc, ok := x.postings[tok.Term]
		if !ok {
			byDoc = make(map[string][]Posting)
			x.postings[tok.Term] = byDoc
			x.insertTerm(tok.Term)
		}
		byDoc[documentID] = append(byDoc[documentID], Posting{
			DocumentID: documentID,
			Line:       tok.Line,
			Column:     tok.Column,
			Start:      tok.Start,
			End:        tok.End,
			Kind:       tok.Kind,
		})
		touched[tok.Term] = struct{}{}
	}
	x.docTerms[documentID] = touched
}

// RemoveDocument purges every posting owned by documentID. Terms whose
// posting set becomes empty are deleted so the index stays bounded to
// live content. Removing an unknown document is a no-op.
func (x *TermIndex) RemoveDocument(documentID string) {
	touched, ok := x.docTerms[documentID]
	if !ok {
		return
	}
	for term := range touched {
		byDoc, ok := x.postings[term]
		if !ok {
			continue
		}
		delete(byDoc, documentID)
		if len(byDoc) == 0 {
			delete(x.postings, term)
			x.deleteTerm(term)
		}
	}
	delete(x.docTerms, documentID)
}

// LookupExact returns all postings for term across documents. Unknown
// terms yield nil. The returned slice is the caller's; the index keeps
// ownership of its internal postings.
func (x *TermIndex) LookupExact(term string) []Posting {
	byDoc, ok := x.postings[term]
	if !ok {
		return nil
	}
	var out []Posting
	for _, ps := range byDoc {
		out = append(out, ps...)
	}
	return out
}

// LookupPrefix returns the union of postings across all terms sharing
// the prefix, via a range scan over the sorted term array.
func (x *TermIndex) LookupPrefix(prefix string) []Posting {
	var out []Posting
	for i := sort.SearchStrings(x.terms, prefix); i < len(x.terms); i++ {
		if !strings.HasPrefix(x.terms[i], prefix) {
			break
		}
		for _, ps := range x.postings[x.terms[i]] {
			out = append(out, ps...)
		}
	}
	return out
}

// TermFrequency returns how often term occurs in documentID.
func (x *TermIndex) TermFrequency(term, documentID string) int {
	return len(x.postings[term][documentID])
}

// HasDocument reports whether documentID is currently indexed.
func (x *TermIndex) HasDocument(documentID string) bool {
	_, ok := x.docTerms[documentID]
	return ok
}

// DocumentCount returns the number of indexed documents.
func (x *TermIndex) DocumentCount() int {
	return len(x.docTerms)
}

// DistinctTerms returns the number of distinct terms.
func (x *TermIndex) DistinctTerms() int {
	return len(x.terms)
}

// insertTerm adds term to the sorted array, keeping order.
func (x *TermIndex) insertTerm(term string) {
	i := sort.SearchStrings(x.terms, term)
	x.terms = append(x.terms, "")
	copy(x.terms[i+1:], x.terms[i:])
	x.terms[i] = term
}

// deleteTerm removes term from the sorted array.
func (x *TermIndex) deleteTerm(term string) {
	i := sort.SearchStrings(x.terms, term)
	if i < len(x.terms) && x.terms[i] == term {
		x.terms = append(x.terms[:i], x.terms[i+1:]...)
	}
}
