package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/tocsmith/internal/outline"
)

// DefaultIndent is prepended once per level below 1.
const DefaultIndent = "    "

// Row is one spreadsheet row: the document, its indented entry title and the page.
type Row struct {
	Document string `json:"document" yaml:"document"`
	Title    string `json:"title" yaml:"title"`
	Page     int    `json:"page,omitempty" yaml:"page,omitempty"` // 0 renders blank
}

// IndentTitle prefixes title with one indent unit per level below 1.
func IndentTitle(level int, title, unit string) string {
	if level <= 1 {
		return title
	}
	return strings.Repeat(unit, level-1) + title
}

// RowsFor converts flattened entries of one document into sheet rows.
func RowsFor(document string, entries []outline.Entry, unit string) []Row {
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{
			Document: document,
			Title:    IndentTitle(e.Level, e.Title, unit),
			Page:     e.Page,
		}
	}
	return rows
}

// rowKey is the dedupe identity of a row, compared as cell text.
type rowKey struct {
	document string
	title    string
	page     string
}

func (r Row) key() rowKey {
	page := ""
	if r.Page > 0 {
		page = strconv.Itoa(r.Page)
	}
	return rowKey{document: r.Document, title: r.Title, page: page}
}

// cellsAt returns the three data cells of a raw row, blank when absent.
func cellsAt(rows [][]string, row int) rowKey {
	if row < 1 || row > len(rows) {
		return rowKey{}
	}
	cells := rows[row-1]
	get := func(col int) string {
		if col-1 < len(cells) {
			return cells[col-1]
		}
		return ""
	}
	return rowKey{
		document: get(ColDocument),
		title:    get(ColTitle),
		page:     get(ColPage),
	}
}

func (k rowKey) blank() bool {
	return k.document == "" && k.title == "" && k.page == ""
}

// writeRow stores r on the given sheet row.
func writeRow(f *excelize.File, sheet string, row int, r Row) error {
	values := []any{r.Document, r.Title, nil}
	if r.Page > 0 {
		values[2] = r.Page
	}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(ColDocument+i, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s: %w", cell, err)
		}
	}
	return nil
}
