package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/timw/docuflow/internal/domain"
	"github.com/timw/docuflow/internal/logger"
)

// CSVSink appends extracted records to a delimited file with the same merge
// semantics as the XLSX sink: the union of columns is preserved and the file
// is rewritten atomically on every append.
type CSVSink struct {
	path string
	log  *logger.Logger

	mu sync.Mutex
}

// NewCSVSink creates a CSV sink writing to path.
func NewCSVSink(path string, log *logger.Logger) *CSVSink {
	if log == nil {
		log = logger.GetDefault()
	}
	return &CSVSink{path: path, log: log}
}

// Path returns the CSV file path.
func (s *CSVSink) Path() string {
	return s.path
}

// Append merges one record into the CSV file, creating it with headers when
// absent and falling back to a degraded single-record rewrite when the
// existing file cannot be merged.
func (s *CSVSink) Append(ctx context.Context, record domain.ExtractedRecord) error {
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

func (s *CSVSink) appendDegraded(ctx context.Context, row map[string]string, cause error) error {
	t := &table{headers: sortedKeys(row)}
	t.appendRecord(row)
	if err := s.writeTable(t); err != nil {
		return fmt.Errorf("degraded rewrite of %s failed: %w", s.path, err)
	}

	logger.CtxWarn(ctx, "Tabular store merge failed; store rewritten with new record only: path=%s, cause=%v", s.path, cause)
	return fmt.Errorf("%w: %v", domain.ErrPersistenceDegraded, cause)
}

func (s *CSVSink) load() (*table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse store: %w", err)
	}

	t := &table{}
	if len(rows) > 0 {
		t.headers = rows[0]
		t.rows = rows[1:]
	}
	return t, nil
}

func (s *CSVSink) writeTable(t *table) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &domain.IOFault{Op: "create", Path: tmp, Err: err}
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(t.headers); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("csv write: %w", err)
	}
	for _, row := range t.rows {
		// Pad ragged rows so every line matches the header width.
		for len(row) < len(t.headers) {
			row = append(row, "")
		}
		if err := writer.Write(row); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("csv write: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("csv flush: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &domain.IOFault{Op: "close", Path: tmp, Err: err}
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return &domain.IOFault{Op: "rename", Path: s.path, Err: err}
	}
	return nil
}
