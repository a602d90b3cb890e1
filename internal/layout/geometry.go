// Package layout paginates table-of-contents entries onto fixed-size pages
// and renders them to PDF.
package layout

import (
	"errors"
	"fmt"
	"strings"
)

// Ellipsis terminates truncated titles.
const Ellipsis = "…"

// Dot is the leader character between a title and its page number.
const Dot = "."

// Geometry describes the page and typography. All lengths are in points.
type Geometry struct {
	PageWidth  float64
	PageHeight float64

	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64

	Font        string // core font family: Helvetica, Times or Courier
	TitleSize   float64
	CaptionSize float64
	EntrySize   float64
	Caption     string

	TitleGap   float64 // title baseline to caption baseline
	CaptionGap float64 // caption baseline to first entry baseline
	LineHeight float64
	Indent     float64 // per level below 1
	Gutter     float64 // kept free between a title and the page-number column

	LeaderPadStart float64
	LeaderPadEnd   float64

	MinTitleRunes int // truncation never shortens a title below this
}

// MM converts millimetres to points.
func MM(v float64) float64 {
	return v * 72 / 25.4
}

// PageSize returns the portrait dimensions in points for a named page size.
func PageSize(name string) (width, height float64, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a4", "":
		return 595.28, 841.89, nil
	case "a5":
		return 419.53, 595.28, nil
	case "letter":
		return 612, 792, nil
	case "legal":
		return 612, 1008, nil
	default:
		return 0, 0, fmt.Errorf("unknown page size: %q", name)
	}
}

// DefaultGeometry returns an A4 layout with 25mm side margins.
func DefaultGeometry() Geometry {
	w, h, _ := PageSize("A4")
	return Geometry{
		PageWidth:      w,
		PageHeight:     h,
		MarginLeft:     MM(25),
		MarginRight:    MM(25),
		MarginTop:      MM(25),
		MarginBottom:   MM(20),
		Font:           "Helvetica",
		TitleSize:      18,
		CaptionSize:    11,
		EntrySize:      12,
		Caption:        "Table of Contents (from PDF bookmarks)",
		TitleGap:       MM(20),
		CaptionGap:     MM(10),
		LineHeight:     MM(7),
		Indent:         MM(8),
		Gutter:         MM(12),
		LeaderPadStart: 4,
		LeaderPadEnd:   6,
		MinTitleRunes:  6,
	}
}

// Validate rejects geometries that cannot hold a single entry line.
func (g Geometry) Validate() error {
	if g.PageWidth <= 0 || g.PageHeight <= 0 {
		return errors.New("page dimensions must be positive")
	}
	if g.LineHeight <= 0 {
		return errors.New("line height must be positive")
	}
	if g.EntrySize <= 0 || g.TitleSize <= 0 || g.CaptionSize <= 0 {
		return errors.New("font sizes must be positive")
	}
	if g.MarginLeft+g.MarginRight >= g.PageWidth {
		return errors.New("horizontal margins leave no room for text")
	}
	if g.firstLineY()+g.LineHeight > g.PageHeight-g.MarginBottom {
		return errors.New("header and margins leave no room for entries")
	}
	if g.MinTitleRunes < 0 {
		return errors.New("minimum title length cannot be negative")
	}
	return nil
}

func (g Geometry) firstLineY() float64 {
	return g.MarginTop + g.TitleGap + g.CaptionGap
}

// lastLineY is the lowest baseline an entry may occupy.
func (g Geometry) lastLineY() float64 {
	return g.PageHeight - g.MarginBottom - g.LineHeight
}

func (g Geometry) rightEdge() float64 {
	return g.PageWidth - g.MarginRight
}
