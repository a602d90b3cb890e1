package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/xuri/excelize/v2"
)

// DefaultScanLimit bounds the search for the first empty row, counted past the
// last row holding data.
const DefaultScanLimit = 20000

// Ledger is the cumulative spreadsheet every batch appends to.
type Ledger struct {
	Path     string // ledger file; created from Template when absent
	Template string
	Dedupe   bool // skip rows already present in the ledger

	ScanLimit    int           // default DefaultScanLimit
	SaveAttempts uint          // default 3
	SaveDelay    time.Duration // default 500ms

	Logger *slog.Logger
}

// MergeResult describes one Merge call.
type MergeResult struct {
	Path     string `json:"path" yaml:"path"`
	Created  bool   `json:"created" yaml:"created"`
	StartRow int    `json:"start_row,omitempty" yaml:"start_row,omitempty"`
	Appended int    `json:"appended" yaml:"appended"`
	Skipped  int    `json:"skipped" yaml:"skipped"`
}

// Merge appends rows to the ledger, creating it first if needed, and saves it.
// An empty rows slice leaves the ledger untouched.
//
// Appending starts at the first row at or after FirstDataRow whose three data
// columns are blank; rows further down that already hold data are stepped
// over, never overwritten. With Dedupe set, a row equal to one already stored
// in the ledger before this call is skipped. Rows within the same call are
// never compared with each other.
func (l *Ledger) Merge(ctx context.Context, rows []Row) (*MergeResult, error) {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}
	result := &MergeResult{Path: l.Path}
	if len(rows) == 0 {
		return result, nil
	}

	if _, err := os.Stat(l.Path); errors.Is(err, os.ErrNotExist) {
		if err := l.create(); err != nil {
			return nil, err
		}
		result.Created = true
		log.Info("created ledger", "path", l.Path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}

	f, err := excelize.OpenFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	sheet := activeSheet(f)
	existing, err := readRows(f, sheet)
	if err != nil {
		return nil, err
	}

	var seen map[rowKey]struct{}
	if l.Dedupe {
		seen = existingKeys(existing)
	}

	limit := len(existing) + l.scanLimit()
	next := firstEmptyRow(existing, FirstDataRow, limit)
	result.StartRow = next

	for _, r := range rows {
		if seen != nil {
			if _, dup := seen[r.key()]; dup {
				result.Skipped++
				continue
			}
		}
		if err := writeRow(f, sheet, next, r); err != nil {
			return nil, err
		}
		result.Appended++
		next = firstEmptyRow(existing, next+1, limit)
	}

	if err := l.save(ctx, f, log); err != nil {
		return nil, err
	}

	log.Info("merged ledger rows",
		"path", l.Path,
		"appended", result.Appended,
		"skipped", result.Skipped,
		"start_row", result.StartRow)
	return result, nil
}

// Rows returns every non-blank data row currently stored in the ledger.
func (l *Ledger) Rows() ([]Row, error) {
	f, err := excelize.OpenFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	raw, err := readRows(f, activeSheet(f))
	if err != nil {
		return nil, err
	}

	var rows []Row
	for r := FirstDataRow; r <= len(raw); r++ {
		k := cellsAt(raw, r)
		if k.blank() {
			continue
		}
		row := Row{Document: k.document, Title: k.title}
		if page, err := strconv.Atoi(k.page); err == nil {
			row.Page = page
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *Ledger) create() error {
	if err := CopyTemplate(l.Template, l.Path); err != nil {
		return err
	}

	f, err := excelize.OpenFile(l.Path)
	if err != nil {
		os.Remove(l.Path)
		return fmt.Errorf("failed to open new ledger: %w", err)
	}
	defer f.Close()

	if err := ClearDataRows(f, activeSheet(f)); err != nil {
		os.Remove(l.Path)
		return err
	}
	if err := f.Save(); err != nil {
		os.Remove(l.Path)
		return fmt.Errorf("failed to save new ledger: %w", err)
	}
	return nil
}

// save writes the workbook back, retrying while another program holds the file.
func (l *Ledger) save(ctx context.Context, f *excelize.File, log *slog.Logger) error {
	attempts := l.SaveAttempts
	if attempts == 0 {
		attempts = 3
	}
	delay := l.SaveDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	err := retry.Do(
		func() error { return f.Save() },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("ledger save failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

func (l *Ledger) scanLimit() int {
	if l.ScanLimit > 0 {
		return l.ScanLimit
	}
	return DefaultScanLimit
}

func existingKeys(rows [][]string) map[rowKey]struct{} {
	seen := make(map[rowKey]struct{})
	for r := FirstDataRow; r <= len(rows); r++ {
		k := cellsAt(rows, r)
		if !k.blank() {
			seen[k] = struct{}{}
		}
	}
	return seen
}

// firstEmptyRow scans down from start for a row with blank data columns,
// giving up past limit.
func firstEmptyRow(rows [][]string, start, limit int) int {
	r := start
	for !cellsAt(rows, r).blank() {
		r++
		if r > limit {
			break
		}
	}
	return r
}
