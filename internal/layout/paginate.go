package layout

import (
	"strconv"
	"strings"

	"github.com/jackzampolin/tocsmith/internal/outline"
)

// Header is the title block drawn at the top of every page.
type Header struct {
	Title    string
	X        float64
	TitleY   float64
	Caption  string
	CaptionY float64
}

// Line is one positioned entry. Y values are baselines measured from the top edge.
type Line struct {
	Index     int // position of Entry in the input sequence
	Entry     outline.Entry
	Text      string
	Truncated bool
	Style     Style
	X         float64
	Y         float64
	Leader    string
	LeaderX   float64
	PageText  string
	PageX     float64
}

// Page is one laid-out output page.
type Page struct {
	Number int
	Header Header
	Lines  []Line
}

// Paginate lays entries onto pages in input order. Every entry lands on
// exactly one page and a page always holds at least one line, so a geometry
// too small for the header still makes progress. An empty entry list yields a
// single header-only page.
func Paginate(title string, entries []outline.Entry, g Geometry, m Measurer) []Page {
	header := layoutHeader(title, g, m)

	var pages []Page
	cur := Page{Number: 1, Header: header}
	y := g.firstLineY()

	for i, e := range entries {
		if y > g.lastLineY() && len(cur.Lines) > 0 {
			pages = append(pages, cur)
			cur = Page{Number: cur.Number + 1, Header: header}
			y = g.firstLineY()
		}
		cur.Lines = append(cur.Lines, layoutLine(i, e, y, g, m))
		y += g.LineHeight
	}

	return append(pages, cur)
}

func layoutHeader(title string, g Geometry, m Measurer) Header {
	avail := g.rightEdge() - g.MarginLeft
	text, _ := Truncate(title, avail, func(s string) float64 {
		return m.Width(s, Bold, g.TitleSize)
	}, g.MinTitleRunes)

	return Header{
		Title:    text,
		X:        g.MarginLeft,
		TitleY:   g.MarginTop,
		Caption:  g.Caption,
		CaptionY: g.MarginTop + g.TitleGap,
	}
}

func layoutLine(index int, e outline.Entry, y float64, g Geometry, m Measurer) Line {
	level := e.Level
	if level < 1 {
		level = 1
	}
	style := Regular
	if level == 1 {
		style = Bold
	}
	size := g.EntrySize
	x := g.MarginLeft + float64(level-1)*g.Indent
	right := g.rightEdge()

	pageText := ""
	if e.HasPage() {
		pageText = strconv.Itoa(e.Page)
	}
	pageWidth := m.Width(pageText, Regular, size)

	width := func(s string) float64 { return m.Width(s, style, size) }
	text, truncated := Truncate(e.Title, right-g.Gutter-x, width, g.MinTitleRunes)

	line := Line{
		Index:     index,
		Entry:     e,
		Text:      text,
		Truncated: truncated,
		Style:     style,
		X:         x,
		Y:         y,
		PageText:  pageText,
		PageX:     right - pageWidth,
	}

	start := x + width(text) + g.LeaderPadStart
	end := line.PageX - g.LeaderPadEnd
	dotWidth := m.Width(Dot, Regular, size)
	if dotWidth > 0 && end > start+dotWidth {
		line.Leader = strings.Repeat(Dot, int((end-start)/dotWidth))
		line.LeaderX = start
	}

	return line
}
