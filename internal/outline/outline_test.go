package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `# Guide
intro text

## Install
steps here

### Linux
apt instructions

## Usage
run it

# Appendix
extra
`

func TestExtract_Tree(t *testing.T) {
	doc := Extract(sample)

	require.Len(t, doc.Items, 2)

	guide := doc.Items[0]
	assert.Equal(t, "Guide", guide.Title)
	assert.Equal(t, 1, guide.Level)
	assert.Equal(t, 1, guide.Line)
	require.Len(t, guide.Children, 2)

	install := guide.Children[0]
	assert.Equal(t, "Install", install.Title)
	assert.Equal(t, 2, install.Level)
	require.Len(t, install.Children, 1)
	assert.Equal(t, "Linux", install.Children[0].Title)

	usage := guide.Children[1]
	assert.Equal(t, "Usage", usage.Title)
	assert.Empty(t, usage.Children)

	appendix := doc.Items[1]
	assert.Equal(t, "Appendix", appendix.Title)
	assert.Empty(t, appendix.Children)
}

func TestExtract_SectionRanges(t *testing.T) {
	doc := Extract(sample)
	sections := doc.Sections()
	require.Len(t, sections, 5)

	// Install (line 4) governs up to the line before Usage (line 10).
	install := sections[1]
	assert.Equal(t, "Install", install.Title)
	assert.Equal(t, 4, install.Line)
	assert.Equal(t, 9, install.EndLine)

	// Guide governs up to the line before Appendix.
	guide := sections[0]
	assert.Equal(t, 12, guide.EndLine)
}

func TestHeadingAt(t *testing.T) {
	doc := Extract(sample)

	h := doc.HeadingAt(4)
	require.NotNil(t, h)
	assert.Equal(t, "Install", h.Title)

	assert.Nil(t, doc.HeadingAt(2), "body line is not a heading")
	assert.Nil(t, doc.HeadingAt(999))
}

func TestSectionFor_Innermost(t *testing.T) {
	doc := Extract(sample)

	s := doc.SectionFor(8) // "apt instructions"
	require.NotNil(t, s)
	assert.Equal(t, "Linux", s.Title)

	s = doc.SectionFor(5) // "steps here"
	require.NotNil(t, s)
	assert.Equal(t, "Install", s.Title)

	assert.Nil(t, Extract("no headings\nat all").SectionFor(1))
}

func TestExtract_IgnoresHeadingsInFences(t *testing.T) {
	text := "# Real\n```\n# fake heading\n```\nbody"
	doc := Extract(text)
	require.Len(t, doc.Sections(), 1)
	assert.Equal(t, "Real", doc.Sections()[0].Title)
}

func TestExtract_TrailingHashesAndWhitespace(t *testing.T) {
	doc := Extract("##  Spaced Title  ##")
	require.Len(t, doc.Sections(), 1)
	assert.Equal(t, "Spaced Title", doc.Sections()[0].Title)
	assert.Equal(t, 2, doc.Sections()[0].Level)
}

func TestExtract_NotAHeading(t *testing.T) {
	for _, text := range []string{
		"#missing space",
		"####### seven hashes",
		"plain text",
		"",
	} {
		assert.Empty(t, Extract(text).Sections(), "input: %q", text)
	}
}

func TestExtract_SkippedLevels(t *testing.T) {
	// H1 followed directly by H3: the H3 still nests under the H1.
	doc := Extract("# Top\n### Deep")
	require.Len(t, doc.Items, 1)
	require.Len(t, doc.Items[0].Children, 1)
	assert.Equal(t, "Deep", doc.Items[0].Children[0].Title)
}
