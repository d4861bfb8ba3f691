// Package render draws article excerpts onto plain image backgrounds so a
// paragraph of text can travel as a post attachment.
package render

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	// SingleExcerptWidth wraps a lone excerpt wide and short.
	SingleExcerptWidth = 60
	// MultiExcerptWidth wraps multiple excerpts narrow and tall so several
	// fit as separate attachments.
	MultiExcerptWidth = 35

	fontSize    = 36
	border      = 60
	lineSpacing = 1.35
	background  = "#F5F5F5"
	ink         = "#000000"
)

// WrapWidth picks the wrap width in characters for an article's excerpts.
func WrapWidth(excerptCount int) int {
	if excerptCount == 1 {
		return SingleExcerptWidth
	}
	return MultiExcerptWidth
}

// Renderer turns an excerpt into an image at a given wrap width.
type Renderer interface {
	Render(excerpt string, width int) (image.Image, error)
}

// textImageRenderer implements Renderer with a serif face on a plain
// background.
type textImageRenderer struct {
	face font.Face
}

// NewRenderer creates a renderer with the bundled Go Regular face.
func NewRenderer() (Renderer, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	return &textImageRenderer{face: face}, nil
}

// Render word-wraps the excerpt at width characters and draws it.
func (r *textImageRenderer) Render(excerpt string, width int) (image.Image, error) {
	wrapped := Wrap(excerpt, width)
	if wrapped == "" {
		return nil, errors.New("render: empty excerpt")
	}

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(r.face)
	w, h := measure.MeasureMultilineString(wrapped, lineSpacing)

	dc := gg.NewContext(int(w)+2*border, int(h)+2*border)
	dc.SetFontFace(r.face)
	dc.SetHexColor(background)
	dc.Clear()
	dc.SetHexColor(ink)
	dc.DrawStringWrapped(wrapped, border, border, 0, 0, w+1, lineSpacing, gg.AlignLeft)

	return dc.Image(), nil
}

// Wrap breaks text into lines of at most width characters, never splitting
// a word. Words longer than the width get a line of their own. Width is
// counted in runes so curly quotes and accented names wrap like ASCII.
func Wrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	lineLen := utf8.RuneCountInString(line)
	for _, word := range words[1:] {
		wordLen := utf8.RuneCountInString(word)
		if lineLen+1+wordLen <= width {
			line += " " + word
			lineLen += 1 + wordLen
			continue
		}
		lines = append(lines, line)
		line = word
		lineLen = wordLen
	}
	lines = append(lines, line)

	return strings.Join(lines, "\n")
}
