// Package batch turns a directory of outlined documents into per-document
// table-of-contents files and one cumulative ledger.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/tocsmith/internal/layout"
	"github.com/jackzampolin/tocsmith/internal/outline"
	"github.com/jackzampolin/tocsmith/internal/sheet"
)

// Fatal preconditions, checked before any source file is touched.
var (
	ErrTemplateMissing = errors.New("template not found")
	ErrInputDir        = errors.New("input directory unusable")
	ErrOutputDir       = errors.New("output directory cannot be created")
)

// Document statuses.
const (
	StatusSucceeded = "succeeded"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Request contains the parameters of one batch run.
type Request struct {
	InputDir  string
	OutputDir string
	Template  string // xlsx template, read only
	Recursive bool
	Dedupe    bool // skip ledger rows that already exist

	SourceExt  string // default ".pdf"
	Suffix     string // output name suffix, default "_TOC"
	LedgerName string // default "MASTER_TOC.xlsx"
	Indent     string // per-level title prefix in sheets, default four spaces
	Workers    int    // concurrent documents, default 1

	Geometry layout.Geometry   // zero value means layout.DefaultGeometry()
	Measurer layout.Measurer   // nil means gofpdf metrics for Geometry.Font
	Readers  *outline.Registry // nil means outline.NewRegistry()

	LedgerScanLimit    int
	LedgerSaveAttempts uint
	LedgerSaveDelay    time.Duration

	Logger *slog.Logger // Optional logger for progress updates
}

// DocumentResult reports what happened to one source file.
type DocumentResult struct {
	Source  string `json:"source" yaml:"source"`
	Title   string `json:"title" yaml:"title"`
	Status  string `json:"status" yaml:"status"`
	Entries int    `json:"entries,omitempty" yaml:"entries,omitempty"`
	Pages   int    `json:"pages,omitempty" yaml:"pages,omitempty"`
	PDF     string `json:"pdf,omitempty" yaml:"pdf,omitempty"`
	Sheet   string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result contains the outcome of a batch run.
type Result struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	Succeeded  int                `json:"succeeded" yaml:"succeeded"`
	Failed     int                `json:"failed" yaml:"failed"`
	Skipped    int                `json:"skipped" yaml:"skipped"`
	LedgerPath string             `json:"ledger_path" yaml:"ledger_path"`
	Ledger     *sheet.MergeResult `json:"ledger,omitempty" yaml:"ledger,omitempty"`
	Documents  []DocumentResult   `json:"documents" yaml:"documents"`
}

type outcome struct {
	doc  DocumentResult
	rows []sheet.Row
}

// Run processes every matching source document and merges the collected rows
// into the ledger once at the end. A failing document is counted and logged
// but never stops the batch; only unmet preconditions and a failed ledger
// merge are returned as errors.
func Run(ctx context.Context, req Request) (*Result, error) {
	req, err := req.withDefaults()
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := req.Logger.With("run_id", runID)

	if err := checkPreconditions(req); err != nil {
		return nil, err
	}

	sources, err := FindSources(req.InputDir, req.SourceExt, req.Recursive, req.Suffix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputDir, err)
	}
	log.Info("starting batch",
		"input", req.InputDir,
		"output", req.OutputDir,
		"sources", len(sources),
		"recursive", req.Recursive,
		"workers", req.Workers)

	result := &Result{
		RunID:      runID,
		LedgerPath: filepath.Join(req.OutputDir, req.LedgerName),
		Documents:  []DocumentResult{},
	}

	var pending []sheet.Row
	for _, o := range processAll(ctx, req, sources, log) {
		switch o.doc.Status {
		case StatusSucceeded:
			result.Succeeded++
			pending = append(pending, o.rows...)
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		default:
			continue // never started
		}
		result.Documents = append(result.Documents, o.doc)
	}

	if err := ctx.Err(); err != nil {
		log.Warn("batch cancelled, ledger not merged", "processed", len(result.Documents))
		return result, err
	}

	if len(pending) > 0 {
		ledger := &sheet.Ledger{
			Path:         result.LedgerPath,
			Template:     req.Template,
			Dedupe:       req.Dedupe,
			ScanLimit:    req.LedgerScanLimit,
			SaveAttempts: req.LedgerSaveAttempts,
			SaveDelay:    req.LedgerSaveDelay,
			Logger:       log,
		}
		merged, err := ledger.Merge(ctx, pending)
		if err != nil {
			return result, fmt.Errorf("failed to merge ledger: %w", err)
		}
		result.Ledger = merged
	}

	log.Info("batch complete",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"ledger", result.LedgerPath)
	return result, nil
}

func (req Request) withDefaults() (Request, error) {
	if req.Logger == nil {
		req.Logger = slog.Default()
	}
	if req.SourceExt == "" {
		req.SourceExt = ".pdf"
	}
	if req.Suffix == "" {
		req.Suffix = "_TOC"
	}
	if req.LedgerName == "" {
		req.LedgerName = "MASTER_TOC.xlsx"
	}
	if req.Indent == "" {
		req.Indent = sheet.DefaultIndent
	}
	if req.Workers < 1 {
		req.Workers = 1
	}
	if req.Geometry == (layout.Geometry{}) {
		req.Geometry = layout.DefaultGeometry()
	}
	if err := req.Geometry.Validate(); err != nil {
		return req, fmt.Errorf("invalid layout: %w", err)
	}
	if req.Measurer == nil {
		m, err := layout.NewFontMeasurer(req.Geometry.Font)
		if err != nil {
			return req, err
		}
		req.Measurer = m
	}
	if req.Readers == nil {
		req.Readers = outline.NewRegistry()
	}
	return req, nil
}

func checkPreconditions(req Request) error {
	info, err := os.Stat(req.Template)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrTemplateMissing, req.Template)
	}

	info, err = os.Stat(req.InputDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInputDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInputDir, req.InputDir)
	}

	if !req.Readers.Supports(req.SourceExt) {
		return fmt.Errorf("%w: %q (supported: %v)", outline.ErrUnsupportedFormat, req.SourceExt, req.Readers.Extensions())
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	return nil
}

// processAll runs processFile over sources, at most req.Workers at a time.
// Outcomes keep the order of sources; entries for sources never started
// because ctx ended have an empty status.
func processAll(ctx context.Context, req Request, sources []string, log *slog.Logger) []outcome {
	outcomes := make([]outcome, len(sources))

	if req.Workers == 1 {
		for i, src := range sources {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = processFile(ctx, req, src, log)
		}
		return outcomes
	}

	sem := make(chan struct{}, req.Workers)
	var wg sync.WaitGroup
	for i, src := range sources {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			defer func() { <-sem }() // release
			outcomes[i] = processFile(ctx, req, src, log)
		}(i, src)
	}
	wg.Wait()

	return outcomes
}
