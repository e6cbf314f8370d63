package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPlain(t *testing.T) {
	got, err := Text("hours.txt", []byte("  Store hours: 9am-5pm.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Store hours: 9am-5pm.", got)
}

func TestTextMarkdownStripsSyntax(t *testing.T) {
	md := "# Opening hours\n\nWe are open **9am-5pm**.\n\n- Mon\n- Tue\n\n```\ncode here\n```\n"
	got, err := Text("faq.md", []byte(md))
	require.NoError(t, err)

	assert.Contains(t, got, "Opening hours")
	assert.Contains(t, got, "We are open 9am-5pm.")
	assert.Contains(t, got, "Mon")
	assert.Contains(t, got, "code here")
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "**")
}

func TestTextUnsupported(t *testing.T) {
	_, err := Text("slides.pptx", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.False(t, Supported("slides.pptx"))
	assert.True(t, Supported("Manual.PDF"))
}

func TestTextEmpty(t *testing.T) {
	_, err := Text("blank.txt", []byte("   \n"))
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestTextBrokenPDF(t *testing.T) {
	_, err := Text("broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}
