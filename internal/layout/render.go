package layout

import (
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/jackzampolin/tocsmith/internal/outline"
)

// Render draws laid-out pages as a PDF document to w.
func Render(w io.Writer, pages []Page, g Geometry) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("tocsmith", true)
	if len(pages) > 0 {
		pdf.SetTitle(pages[0].Header.Title, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, p := range pages {
		pdf.AddPage()

		pdf.SetFont(g.Font, Bold.fpdf(), g.TitleSize)
		pdf.Text(p.Header.X, p.Header.TitleY, tr(p.Header.Title))
		pdf.SetFont(g.Font, Regular.fpdf(), g.CaptionSize)
		pdf.Text(p.Header.X, p.Header.CaptionY, tr(p.Header.Caption))

		for _, l := range p.Lines {
			pdf.SetFont(g.Font, l.Style.fpdf(), g.EntrySize)
			pdf.Text(l.X, l.Y, tr(l.Text))

			pdf.SetFont(g.Font, Regular.fpdf(), g.EntrySize)
			if l.Leader != "" {
				pdf.Text(l.LeaderX, l.Y, l.Leader)
			}
			if l.PageText != "" {
				pdf.Text(l.PageX, l.Y, l.PageText)
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

// WriteFile paginates entries under title and writes the PDF to path.
// It returns the number of pages written.
func WriteFile(path, title string, entries []outline.Entry, g Geometry, m Measurer) (int, error) {
	if err := g.Validate(); err != nil {
		return 0, fmt.Errorf("invalid layout: %w", err)
	}

	pages := Paginate(title, entries, g, m)

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Render(f, pages, g); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return len(pages), nil
}
