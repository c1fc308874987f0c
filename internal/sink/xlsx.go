package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/timw/docuflow/internal/domain"
	"github.com/timw/docuflow/internal/logger"
)

// sheetName is the single worksheet holding extracted rows.
const sheetName = "Extracted"

// XLSXSink appends extracted records to an Excel workbook. The workbook file
// is a shared resource across concurrent runs, so appends are serialized.
type XLSXSink struct {
	path string
	log  *logger.Logger

	mu sync.Mutex
}

// NewXLSXSink creates an XLSX sink writing to path.
func NewXLSXSink(path string, log *logger.Logger) *XLSXSink {
	if log == nil {
		log = logger.GetDefault()
	}
	return &XLSXSink{path: path, log: log}
}

// Path returns the workbook path.
func (s *XLSXSink) Path() string {
	return s.path
}

// Append merges one record into the workbook. If the workbook does not exist
// it is created with headers derived from the record. If the existing workbook
// cannot be loaded or merged, the store is overwritten with only the new
// record and the append is reported as degraded: availability is chosen over
// retention on that path.
func (s *XLSXSink) Append(ctx context.Context, record domain.ExtractedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := Flatten(record)

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &domain.IOFault{Op: "mkdir", Path: dir, Err: err}
		}
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		t := &table{headers: sortedKeys(row)}
		t.appendRecord(row)
		if err := s.writeTable(t); err != nil {
			return err
		}
		s.log.WithFields(logger.Fields{"path": s.path, logger.FieldRows: 1}).
			Info("Created tabular store")
		return nil
	}

	t, err := s.load()
	if err != nil {
		return s.appendDegraded(ctx, row, err)
	}

	t.appendRecord(row)
	if err := s.writeTable(t); err != nil {
		return s.appendDegraded(ctx, row, err)
	}

	s.log.WithFields(logger.Fields{"path": s.path, logger.FieldRows: len(t.rows)}).
		Info("Appended record to tabular store")
	return nil
}

// appendDegraded is the fallback path: the destination is overwritten with
// only the new record. Prior data loss here is an accepted trade-off; it is
// logged distinctly from a normal append.
func (s *XLSXSink) appendDegraded(ctx context.Context, row map[string]string, cause error) error {
	t := &table{headers: sortedKeys(row)}
	t.appendRecord(row)
	if err := s.writeTable(t); err != nil {
		return fmt.Errorf("degraded rewrite of %s failed: %w", s.path, err)
	}

	logger.CtxWarn(ctx, "Tabular store merge failed; store rewritten with new record only: path=%s, cause=%v", s.path, cause)
	return fmt.Errorf("%w: %v", domain.ErrPersistenceDegraded, cause)
}

// load reads the existing workbook into memory.
func (s *XLSXSink) load() (*table, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	t := &table{}
	if len(rows) > 0 {
		t.headers = rows[0]
		t.rows = rows[1:]
	}
	return t, nil
}

// writeTable rewrites the workbook atomically from the in-memory table.
func (s *XLSXSink) writeTable(t *table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range t.headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	for r, row := range t.rows {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	// SaveAs validates the target extension, so the temp file must keep the
	// workbook suffix.
	tmp := filepath.Join(filepath.Dir(s.path), ".tmp-"+filepath.Base(s.path))
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return &domain.IOFault{Op: "rename", Path: s.path, Err: err}
	}
	return nil
}
