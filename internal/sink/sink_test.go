package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/timw/docuflow/internal/domain"
)

func readXLSX(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], rows[1:]
}

func readCSV(t *testing.T, path string) ([]string, [][]string) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("failed to parse store: %v", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], rows[1:]
}

// cell returns the value of a named column in a row, tolerating trailing
// empty cells trimmed by the reader.
func cell(headers []string, row []string, column string) string {
	for i, h := range headers {
		if h == column {
			if i < len(row) {
				return row[i]
			}
			return ""
		}
	}
	return ""
}

type format struct {
	name string
	ext  string
	read func(t *testing.T, path string) ([]string, [][]string)
}

var formats = []format{
	{name: "xlsx", ext: ".xlsx", read: readXLSX},
	{name: "csv", ext: ".csv", read: readCSV},
}

// TestAppendUnionOfColumns verifies N appends followed by M appends with a
// partially disjoint column set yield N+M rows with the union of columns and
// empty absent cells. No deduplication is performed.
func TestAppendUnionOfColumns(t *testing.T) {
	for _, f := range formats {
		t.Run(f.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store"+f.ext)
			s, err := New(f.name, path, nil)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			ctx := context.Background()

			// N=2 identical records
			first := domain.ExtractedRecord{"total": 42.5, "vendor": "Acme"}
			for i := 0; i < 2; i++ {
				if err := s.Append(ctx, first); err != nil {
					t.Fatalf("append %d failed: %v", i, err)
				}
			}

			// M=2 records with a partially disjoint column set
			second := domain.ExtractedRecord{"vendor": "Globex", "currency": "EUR"}
			for i := 0; i < 2; i++ {
				if err := s.Append(ctx, second); err != nil {
					t.Fatalf("append %d failed: %v", i+2, err)
				}
			}

			headers, rows := f.read(t, path)
			if len(rows) != 4 {
				t.Fatalf("store has %d rows, want 4", len(rows))
			}

			wantHeaders := map[string]bool{"total": true, "vendor": true, "currency": true}
			if len(headers) != len(wantHeaders) {
				t.Fatalf("headers = %v, want union of 3 columns", headers)
			}
			for _, h := range headers {
				if !wantHeaders[h] {
					t.Errorf("unexpected column %q", h)
				}
			}

			// Early rows never had currency; late rows never had total.
			if got := cell(headers, rows[0], "currency"); got != "" {
				t.Errorf("row 0 currency = %q, want empty", got)
			}
			if got := cell(headers, rows[3], "total"); got != "" {
				t.Errorf("row 3 total = %q, want empty", got)
			}
			if got := cell(headers, rows[0], "total"); got != "42.5" {
				t.Errorf("row 0 total = %q, want 42.5", got)
			}
			if got := cell(headers, rows[3], "vendor"); got != "Globex" {
				t.Errorf("row 3 vendor = %q, want Globex", got)
			}
		})
	}
}

// TestAppendCreatesStore verifies the store is created with headers when
// absent, including parent directories.
func TestAppendCreatesStore(t *testing.T) {
	for _, f := range formats {
		t.Run(f.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "dir", "store"+f.ext)
			s, err := New(f.name, path, nil)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			record := domain.ExtractedRecord{"vendor": "Acme"}
			if err := s.Append(context.Background(), record); err != nil {
				t.Fatalf("Append failed: %v", err)
			}

			headers, rows := f.read(t, path)
			if len(headers) != 1 || headers[0] != "vendor" {
				t.Errorf("headers = %v, want [vendor]", headers)
			}
			if len(rows) != 1 {
				t.Errorf("rows = %d, want 1", len(rows))
			}
		})
	}
}

// TestAppendDegradedFallback verifies a corrupt destination triggers the
// availability fallback: the store is overwritten with only the new record
// and the append reports degraded persistence.
func TestAppendDegradedFallback(t *testing.T) {
	corrupt := map[string][]byte{
		"xlsx": []byte("this is not a zip archive"),
		"csv":  []byte("col1\n\"unclosed quote"),
	}

	for _, f := range formats {
		t.Run(f.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store"+f.ext)
			if err := os.WriteFile(path, corrupt[f.name], 0644); err != nil {
				t.Fatalf("failed to plant corrupt store: %v", err)
			}

			s, err := New(f.name, path, nil)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			record := domain.ExtractedRecord{"vendor": "Acme"}
			err = s.Append(context.Background(), record)
			if !errors.Is(err, domain.ErrPersistenceDegraded) {
				t.Fatalf("expected ErrPersistenceDegraded, got %v", err)
			}

			headers, rows := f.read(t, path)
			if len(rows) != 1 {
				t.Fatalf("store has %d rows after fallback, want 1", len(rows))
			}
			if got := cell(headers, rows[0], "vendor"); got != "Acme" {
				t.Errorf("vendor = %q, want Acme", got)
			}
		})
	}
}

// TestAppendAtomicRewrite verifies the rewrite goes through a temp file that
// the store's own codec accepts and that no temp file survives an append.
func TestAppendAtomicRewrite(t *testing.T) {
	for _, f := range formats {
		t.Run(f.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "store"+f.ext)
			s, err := New(f.name, path, nil)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			ctx := context.Background()

			for i, record := range []domain.ExtractedRecord{
				{"vendor": "Acme"},
				{"vendor": "Globex", "total": 12.0},
			} {
				if err := s.Append(ctx, record); err != nil {
					t.Fatalf("append %d failed: %v", i, err)
				}
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatalf("failed to read store dir: %v", err)
			}
			if len(entries) != 1 || entries[0].Name() != "store"+f.ext {
				names := make([]string, 0, len(entries))
				for _, e := range entries {
					names = append(names, e.Name())
				}
				t.Fatalf("store dir = %v, want only store%s", names, f.ext)
			}

			_, rows := f.read(t, path)
			if len(rows) != 2 {
				t.Errorf("store has %d rows, want 2", len(rows))
			}
		})
	}
}

// TestNewUnsupportedFormat verifies the factory rejects unknown formats.
func TestNewUnsupportedFormat(t *testing.T) {
	if _, err := New("parquet", "store.parquet", nil); err == nil {
		t.Fatal("expected error for unsupported format, got nil")
	}
}
