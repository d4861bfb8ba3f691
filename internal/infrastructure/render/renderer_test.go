package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapWidthSelection(t *testing.T) {
	assert.Equal(t, 60, WrapWidth(1))
	assert.Equal(t, 35, WrapWidth(2))
	assert.Equal(t, 35, WrapWidth(6))
}

func TestWrapBreaksAtWidth(t *testing.T) {
	text := "The city has so far denied the records request on privacy grounds."

	wrapped := Wrap(text, 20)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 20, "line %q exceeds width", line)
	}

	// Rejoining gives back the original words.
	assert.Equal(t, strings.Fields(text), strings.Fields(wrapped))
}

func TestWrapCountsRunesNotBytes(t *testing.T) {
	// Curly quotes and accented names are multi-byte; lines must still
	// fill up to the nominal character width.
	text := "“Señor Peña’s café déjà vu” “Señor Peña’s café déjà vu”"

	wrapped := Wrap(text, 30)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 30,
			"line %q exceeds width in runes", line)
	}

	// At width 30 each quoted phrase (27 runes, 38 bytes) fits on one
	// line; byte counting would break them apart.
	assert.Len(t, strings.Split(wrapped, "\n"), 2)
}

func TestWrapLongWordGetsOwnLine(t *testing.T) {
	wrapped := Wrap("a supercalifragilisticexpialidocious b", 10)
	lines := strings.Split(wrapped, "\n")
	assert.Contains(t, lines, "supercalifragilisticexpialidocious")
}

func TestWrapEmptyText(t *testing.T) {
	assert.Equal(t, "", Wrap("", 35))
	assert.Equal(t, "", Wrap("   ", 35))
}

func TestRenderProducesImage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	img, err := r.Render("Reporters filed a FOIA request seeking the emails.", 35)
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Greater(t, bounds.Dx(), 2*border, "image wider than its borders")
	assert.Greater(t, bounds.Dy(), 2*border, "image taller than its borders")
}

func TestRenderSingleExcerptWiderThanMulti(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	text := "Reporters filed a records request under the state public records act seeking emails between council members."

	wide, err := r.Render(text, SingleExcerptWidth)
	require.NoError(t, err)
	narrow, err := r.Render(text, MultiExcerptWidth)
	require.NoError(t, err)

	assert.Greater(t, wide.Bounds().Dx(), narrow.Bounds().Dx())
	assert.Less(t, wide.Bounds().Dy(), narrow.Bounds().Dy())
}

func TestRenderEmptyExcerptFails(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("", 35)
	assert.Error(t, err)
}
