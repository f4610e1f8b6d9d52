// Package outline extracts the heading structure of a markdown document.
//
// The outline serves two consumers: navigation (the caller walks the item
// tree) and heading-aware scoring (the query engine asks which heading a
// line falls under, and whether a line is itself a heading). Extraction
// happens once per index pass, never per search.
package outline

import (
	"regexp"
	"strings"
)

// headingPattern matches ATX headings: # Title through ###### Title.
var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

// Item is one heading in the outline tree. Parents own children by
// value; there are no back-pointers, so the tree is safe to hand to
// callers and trivially garbage-collected as a unit.
type Item struct {
	Level    int    // 1-6
	Title    string
	Line     int // 1-based line of the heading marker
	Children []Item
}

// Section is a flattened heading range used for scoring: the heading
// line plus the span of lines it governs.
type Section struct {
	Level     int
	Title     string
	Line      int // heading line, 1-based
	EndLine   int // last line governed by this heading, inclusive
	StartByte int // byte offset of the heading line
}

// Document is the extraction result for one document.
type Document struct {
	Items    []Item
	sections []Section
}

// Extract parses text once and returns its outline. Text inside fenced
// code blocks is ignored so a commented-out "# not a heading" in a code
// sample doesn't appear in the outline.
func Extract(text string) *Document {
	var sections []Section
	inFence := false
	offset := 0
	line := 0
	lastLine := 0

	for rest := text; ; {
		var rawLine string
		var more bool
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rawLine = rest[:i]
			rest = rest[i+1:]
			more = true
		} else {
			rawLine = rest
			rest = ""
			more = false
		}
		line++
		lastLine = line

		trimmed := strings.TrimSpace(rawLine)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		} else if !inFence {
			if m := headingPattern.FindStringSubmatch(rawLine); m != nil {
				sections = append(sections, Section{
					Level:     len(m[1]),
					Title:     m[2],
					Line:      line,
					StartByte: offset,
				})
			}
		}

		offset += len(rawLine) + 1
		if !more {
			break
		}
	}

	// Close section ranges: each heading governs everything up to the
	// next heading of the same or shallower level.
	for i := range sections {
		sections[i].EndLine = lastLine
		for j := i + 1; j < len(sections); j++ {
			if sections[j].Level <= sections[i].Level {
				sections[i].EndLine = sections[j].Line - 1
				break
			}
		}
	}

	return &Document{
		Items:    buildTree(sections),
		sections: sections,
	}
}

// buildTree nests flat sections into the item tree by level.
func buildTree(sections []Section) []Item {
	var roots []Item
	// Stack of indices into the currently open ancestor chain; the
	// last element is the deepest open item.
	var stack []*Item

	for _, s := range sections {
		item := Item{Level: s.Level, Title: s.Title, Line: s.Line}

		for len(stack) > 0 && stack[len(stack)-1].Level >= s.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, item)
			stack = append(stack, &roots[len(roots)-1])
			continue
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, item)
		stack = append(stack, &parent.Children[len(parent.Children)-1])
	}
	return roots
}

// HeadingAt returns the section whose heading marker sits on the given
// line, or nil.
func (d *Document) HeadingAt(line int) *Section {
	for i := range d.sections {
		if d.sections[i].Line == line {
			return &d.sections[i]
		}
	}
	return nil
}

// SectionFor returns the innermost section governing the given line, or
// nil when the line precedes every heading.
func (d *Document) SectionFor(line int) *Section {
	var best *Section
	for i := range d.sections {
		s := &d.sections[i]
		if s.Line <= line && line <= s.EndLine {
			if best == nil || s.Level >= best.Level {
				best = s
			}
		}
	}
	return best
}

// Sections returns the flattened heading ranges in document order.
func (d *Document) Sections() []Section {
	return d.sections
}
