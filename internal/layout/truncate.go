package layout

import (
	"strings"
	"unicode"
)

// Truncate shortens title from the end until it plus Ellipsis fits maxWidth.
// A title that already fits is returned unchanged. Shortening stops at
// minRunes characters even if the result still overflows.
func Truncate(title string, maxWidth float64, width func(string) float64, minRunes int) (string, bool) {
	if width(title) <= maxWidth {
		return title, false
	}

	runes := []rune(title)
	keep := len(runes) - 2
	if keep < 0 {
		keep = 0
	}
	for keep > minRunes && width(string(runes[:keep])+Ellipsis) > maxWidth {
		keep--
	}

	head := strings.TrimRightFunc(string(runes[:keep]), unicode.IsSpace)
	return head + Ellipsis, true
}
