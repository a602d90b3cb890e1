package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"github.com/jackzampolin/tocsmith/internal/sheet"
)

const exampleOutline = `[
	{"title": "Intro", "page": 1},
	[{"title": "Background", "page": 2}],
	{"title": "Methods", "page": 5}
]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// writePDF writes a PDF with one page per title; titles starting with a tab
// become level-2 bookmarks.
func writePDF(t *testing.T, path string, titles ...string) {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for _, title := range titles {
		pdf.AddPage()
		level := 0
		if strings.HasPrefix(title, "\t") {
			level = 1
		}
		pdf.Bookmark(strings.TrimPrefix(title, "\t"), level, 0)
	}
	if len(titles) == 0 {
		pdf.AddPage()
		pdf.Text(20, 20, "plain")
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("failed to write PDF: %v", err)
	}
}

type fixture struct {
	in, out, template string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		in:       filepath.Join(root, "in"),
		out:      filepath.Join(root, "out"),
		template: filepath.Join(root, "template.xlsx"),
	}
	if err := os.MkdirAll(f.in, 0o755); err != nil {
		t.Fatalf("failed to create input dir: %v", err)
	}
	if err := sheet.CreateTemplate(f.template); err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
	return f
}

func (f fixture) request(ext string) Request {
	return Request{
		InputDir:  f.in,
		OutputDir: f.out,
		Template:  f.template,
		Dedupe:    true,
		SourceExt: ext,
	}
}

func ledgerRows(t *testing.T, path string) []sheet.Row {
	t.Helper()
	rows, err := (&sheet.Ledger{Path: path}).Rows()
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	return rows
}

func assertExists(t *testing.T, path string, want bool) {
	t.Helper()
	_, err := os.Stat(path)
	if exists := err == nil; exists != want {
		t.Errorf("%s: exists=%v, want %v", path, exists, want)
	}
}

func TestRun_PDFBatch(t *testing.T) {
	f := newFixture(t)
	writePDF(t, filepath.Join(f.in, "Doc.pdf"), "Intro", "\tBackground", "Methods")
	writePDF(t, filepath.Join(f.in, "plain.pdf"))
	writeFile(t, filepath.Join(f.in, "corrupt.pdf"), "not a pdf at all")
	writeFile(t, filepath.Join(f.in, "notes.txt"), "ignored")

	res, err := Run(context.Background(), f.request(".pdf"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Succeeded != 1 || res.Failed != 1 || res.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if res.RunID == "" {
		t.Error("expected a run id")
	}
	if len(res.Documents) != 3 {
		t.Fatalf("expected 3 document results, got %d", len(res.Documents))
	}

	assertExists(t, filepath.Join(f.out, "Doc_TOC.pdf"), true)
	assertExists(t, filepath.Join(f.out, "Doc_TOC.xlsx"), true)
	assertExists(t, filepath.Join(f.out, "plain_TOC.pdf"), false)
	assertExists(t, filepath.Join(f.out, "corrupt_TOC.pdf"), false)
	assertExists(t, filepath.Join(f.out, "corrupt_TOC.xlsx"), false)

	want := []sheet.Row{
		{Document: "Doc", Title: "Intro", Page: 1},
		{Document: "Doc", Title: "    Background", Page: 2},
		{Document: "Doc", Title: "Methods", Page: 3},
	}
	got := ledgerRows(t, res.LedgerPath)
	if len(got) != len(want) {
		t.Fatalf("ledger has %d rows, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ledger row %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRun_NoTempFilesLeft(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.in, "Doc.json"), exampleOutline)
	writeFile(t, filepath.Join(f.in, "Broken.json"), `[{"page": 1}]`)

	if _, err := Run(context.Background(), f.request(".json")); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	entries, err := os.ReadDir(f.out)
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
		if strings.HasPrefix(e.Name(), tempPrefix) {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
	if len(names) != 3 {
		t.Errorf("expected Doc_TOC.pdf, Doc_TOC.xlsx and the ledger, got %v", names)
	}
}

func TestRun_Preconditions(t *testing.T) {
	t.Run("missing template", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(".json")
		req.Template = filepath.Join(f.in, "missing.xlsx")

		_, err := Run(context.Background(), req)
		if !errors.Is(err, ErrTemplateMissing) {
			t.Fatalf("expected ErrTemplateMissing, got %v", err)
		}
		assertExists(t, f.out, false)
	})

	t.Run("missing input directory", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(".json")
		req.InputDir = filepath.Join(f.in, "nope")

		_, err := Run(context.Background(), req)
		if !errors.Is(err, ErrInputDir) {
			t.Fatalf("expected ErrInputDir, got %v", err)
		}
	})

	t.Run("output directory uncreatable", func(t *testing.T) {
		f := newFixture(t)
		blocker := filepath.Join(f.in, "file")
		writeFile(t, blocker, "x")
		req := f.request(".json")
		req.OutputDir = filepath.Join(blocker, "out")

		_, err := Run(context.Background(), req)
		if !errors.Is(err, ErrOutputDir) {
			t.Fatalf("expected ErrOutputDir, got %v", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		f := newFixture(t)
		_, err := Run(context.Background(), f.request(".docx"))
		if err == nil {
			t.Fatal("expected error for unsupported extension")
		}
	})
}

func TestRun_LedgerIdempotentWithDedupe(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.in, "Doc.json"), exampleOutline)
	ctx := context.Background()

	first, err := Run(ctx, f.request(".json"))
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.Ledger == nil || !first.Ledger.Created || first.Ledger.Appended != 3 {
		t.Fatalf("unexpected first merge: %+v", first.Ledger)
	}

	second, err := Run(ctx, f.request(".json"))
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Succeeded != 1 {
		t.Errorf("second run should still succeed per document, got %+v", second)
	}
	if second.Ledger.Appended != 0 || second.Ledger.Skipped != 3 {
		t.Errorf("unexpected second merge: %+v", second.Ledger)
	}
	if got := len(ledgerRows(t, second.LedgerPath)); got != 3 {
		t.Errorf("ledger has %d rows, want 3", got)
	}
}

func TestRun_LedgerAppendsWithoutDedupe(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.in, "Doc.json"), exampleOutline)
	req := f.request(".json")
	req.Dedupe = false

	for run := 1; run <= 2; run++ {
		res, err := Run(context.Background(), req)
		if err != nil {
			t.Fatalf("run %d failed: %v", run, err)
		}
		if got := len(ledgerRows(t, res.LedgerPath)); got != 3*run {
			t.Errorf("run %d: ledger has %d rows, want %d", run, got, 3*run)
		}
	}
}

func TestRun_EmptyOutlineOnly(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.in, "Empty.json"), `[]`)

	res, err := Run(context.Background(), f.request(".json"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Succeeded != 0 || res.Skipped != 1 || res.Failed != 0 {
		t.Errorf("unexpected counts: %+v", res)
	}
	if res.Ledger != nil {
		t.Errorf("ledger should not be merged: %+v", res.Ledger)
	}
	assertExists(t, res.LedgerPath, false)
	assertExists(t, filepath.Join(f.out, "Empty_TOC.pdf"), false)
}

func TestRun_Recursive(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.in, "Top.json"), exampleOutline)
	writeFile(t, filepath.Join(f.in, "sub", "deeper", "Nested.json"), exampleOutline)

	flat, err := Run(context.Background(), f.request(".json"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if flat.Succeeded != 1 {
		t.Errorf("non-recursive run: got %d documents, want 1", flat.Succeeded)
	}

	req := f.request(".json")
	req.Recursive = true
	deep, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if deep.Succeeded != 2 {
		t.Errorf("recursive run: got %d documents, want 2", deep.Succeeded)
	}
	assertExists(t, filepath.Join(f.out, "Nested_TOC.xlsx"), true)

	// Top was merged by the first run; only Nested's rows are new.
	if deep.Ledger.Appended != 3 || deep.Ledger.Skipped != 3 {
		t.Errorf("unexpected merge: %+v", deep.Ledger)
	}
}

func TestRun_ParallelWorkers(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		doc := fmt.Sprintf(`[{"title": "Chapter %d", "page": %d}, [{"title": "Part", "page": %d}]]`, i, i+1, i+2)
		writeFile(t, filepath.Join(f.in, fmt.Sprintf("doc-%02d.json", i)), doc)
	}
	writeFile(t, filepath.Join(f.in, "doc-bad.json"), `{`)

	req := f.request(".json")
	req.Workers = 4
	res, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Succeeded != 12 || res.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	for i := 1; i < len(res.Documents); i++ {
		if res.Documents[i-1].Source > res.Documents[i].Source {
			t.Errorf("documents out of order: %s before %s", res.Documents[i-1].Source, res.Documents[i].Source)
		}
	}

	rows := ledgerRows(t, res.LedgerPath)
	if len(rows) != 24 {
		t.Fatalf("ledger has %d rows, want 24", len(rows))
	}
	if rows[0].Document != "doc-00" || rows[23].Document != "doc-11" {
		t.Errorf("ledger rows not in source order: first=%+v last=%+v", rows[0], rows[23])
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.in, "Doc.json"), exampleOutline)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, f.request(".json"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Succeeded != 0 {
		t.Errorf("no document should be processed: %+v", res)
	}
	assertExists(t, res.LedgerPath, false)
}

func TestFindSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b.pdf", "A.PDF", "a_TOC.pdf", ".~a_TOC.1234.pdf", "c.txt", "sub/d.pdf",
	} {
		writeFile(t, filepath.Join(dir, name), "x")
	}

	got, err := FindSources(dir, "pdf", false, "_TOC")
	if err != nil {
		t.Fatalf("FindSources failed: %v", err)
	}
	want := []string{filepath.Join(dir, "A.PDF"), filepath.Join(dir, "b.pdf")}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = FindSources(dir, ".pdf", true, "_TOC")
	if err != nil {
		t.Fatalf("FindSources failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("recursive: got %v, want 3 files", got)
	}
}
