package layout

import (
	"fmt"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

// Style is the font weight of a line.
type Style int

const (
	Regular Style = iota
	Bold
)

func (s Style) fpdf() string {
	if s == Bold {
		return "B"
	}
	return ""
}

// Measurer reports the rendered width of text in points.
type Measurer interface {
	Width(text string, style Style, size float64) float64
}

// FontMeasurer measures text with gofpdf's core font metrics, the same ones
// Render draws with. It is safe for concurrent use.
type FontMeasurer struct {
	mu     sync.Mutex
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

// NewFontMeasurer returns a measurer for a core font family.
func NewFontMeasurer(family string) (*FontMeasurer, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetFont(family, "", 12)
	pdf.SetFont(family, "B", 12)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to load font %q: %w", family, err)
	}
	return &FontMeasurer{
		pdf:    pdf,
		family: family,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}, nil
}

// Width returns the width of text at the given style and point size.
func (m *FontMeasurer) Width(text string, style Style, size float64) float64 {
	if text == "" {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdf.SetFont(m.family, style.fpdf(), size)
	return m.pdf.GetStringWidth(m.tr(text))
}
