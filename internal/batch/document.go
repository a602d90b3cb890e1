package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jackzampolin/tocsmith/internal/layout"
	"github.com/jackzampolin/tocsmith/internal/sheet"
)

// processFile extracts one document's outline and writes its TOC PDF and sheet.
func processFile(ctx context.Context, req Request, src string, log *slog.Logger) (o outcome) {
	o.doc = DocumentResult{Source: src, Title: documentTitle(src)}
	log = log.With("file", src)

	fail := func(err error) outcome {
		log.Warn("document failed", "error", err)
		o.doc.Status = StatusFailed
		o.doc.Error = err.Error()
		o.rows = nil
		return o
	}

	// Parsers can panic on malformed input; that is a failed document, not a failed batch.
	defer func() {
		if r := recover(); r != nil {
			o = fail(fmt.Errorf("panic while processing: %v", r))
		}
	}()

	entries, err := req.Readers.Extract(ctx, src)
	if err != nil {
		return fail(err)
	}
	if len(entries) == 0 {
		log.Info("no outline, skipping")
		o.doc.Status = StatusSkipped
		return o
	}
	o.doc.Entries = len(entries)

	stem := o.doc.Title + req.Suffix
	pdfPath := filepath.Join(req.OutputDir, stem+".pdf")
	sheetPath := filepath.Join(req.OutputDir, stem+".xlsx")
	rows := sheet.RowsFor(o.doc.Title, entries, req.Indent)

	// Both outputs are built under temporary names and only moved into place
	// once both succeeded.
	tag := uuid.New().String()[:8]
	tmpPDF := filepath.Join(req.OutputDir, fmt.Sprintf("%s%s.%s.pdf", tempPrefix, stem, tag))
	tmpSheet := filepath.Join(req.OutputDir, fmt.Sprintf("%s%s.%s.xlsx", tempPrefix, stem, tag))
	defer os.Remove(tmpPDF)
	defer os.Remove(tmpSheet)

	pages, err := layout.WriteFile(tmpPDF, o.doc.Title, entries, req.Geometry, req.Measurer)
	if err != nil {
		return fail(fmt.Errorf("failed to write TOC PDF: %w", err))
	}
	if err := sheet.WriteTOC(tmpSheet, req.Template, rows); err != nil {
		return fail(fmt.Errorf("failed to write TOC sheet: %w", err))
	}
	if err := os.Rename(tmpPDF, pdfPath); err != nil {
		return fail(fmt.Errorf("failed to move TOC PDF into place: %w", err))
	}
	if err := os.Rename(tmpSheet, sheetPath); err != nil {
		os.Remove(pdfPath)
		return fail(fmt.Errorf("failed to move TOC sheet into place: %w", err))
	}

	log.Info("wrote table of contents", "entries", len(entries), "pages", pages, "pdf", pdfPath, "sheet", sheetPath)

	o.doc.Status = StatusSucceeded
	o.doc.Pages = pages
	o.doc.PDF = pdfPath
	o.doc.Sheet = sheetPath
	o.rows = rows
	return o
}
