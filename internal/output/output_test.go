package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_PlainWriterDropsIcons(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Status("🔍", "searching")
	assert.Equal(t, "searching\n", buf.String())
}

func TestStatusf(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Statusf("", "found %d results", 3)
	assert.Equal(t, "found 3 results\n", buf.String())
}

func TestIndent(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Indentf("line %d", 7)
	assert.Equal(t, "   line 7\n", buf.String())
}

func TestNew_NonFileWriterHasNoIcons(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Success("done")
	assert.Equal(t, "done\n", buf.String())
}

func TestTree(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Tree([]TreeLine{
		{Depth: 0, Text: "Intro"},
		{Depth: 1, Last: true, Text: "Details"},
		{Depth: 0, Last: true, Text: "Appendix"},
	})

	assert.Equal(t, "├─ Intro\n  └─ Details\n└─ Appendix\n", buf.String())
}
