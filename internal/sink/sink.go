// Package sink persists extracted records into a durable tabular store.
// Appends preserve prior rows and the union of all columns ever seen.
package sink

import (
	"context"
	"fmt"
	"sort"

	"github.com/timw/docuflow/internal/domain"
	"github.com/timw/docuflow/internal/logger"
)

// Sink appends extracted records to a tabular store.
type Sink interface {
	// Append flattens the record into one row and merges it into the store.
	// A degraded append (store rewritten with only the new record after a
	// failed merge) returns an error matching domain.ErrPersistenceDegraded;
	// the record is durably persisted in that case.
	Append(ctx context.Context, record domain.ExtractedRecord) error

	// Path returns the destination path of the store.
	Path() string
}

// New creates a sink for the given output format.
// Parameters:
//   - format: "xlsx" or "csv".
//   - path: destination path of the tabular store.
//   - log: logger instance.
// Returns:
//   - Sink: initialized sink.
//   - error: non-nil for an unsupported format.
func New(format, path string, log *logger.Logger) (Sink, error) {
	switch format {
	case "xlsx":
		return NewXLSXSink(path, log), nil
	case "csv":
		return NewCSVSink(path, log), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q (expected xlsx or csv)", format)
	}
}

// table is the in-memory image of the tabular store used during a merge.
type table struct {
	headers []string
	rows    [][]string
}

// appendRecord merges one flattened record into the table. Existing column
// order is preserved; columns new to the store are appended in sorted order
// and back-filled with empty cells for prior rows. Cells absent from the
// record stay empty.
func (t *table) appendRecord(record map[string]string) {
	known := make(map[string]bool, len(t.headers))
	for _, h := range t.headers {
		known[h] = true
	}

	var added []string
	for key := range record {
		if !known[key] {
			added = append(added, key)
		}
	}
	sort.Strings(added)

	t.headers = append(t.headers, added...)
	for i, row := range t.rows {
		for len(row) < len(t.headers) {
			row = append(row, "")
		}
		t.rows[i] = row
	}

	newRow := make([]string, len(t.headers))
	for i, h := range t.headers {
		newRow[i] = record[h]
	}
	t.rows = append(t.rows, newRow)
}

// sortedKeys returns the record keys in sorted order, used for deterministic
// headers when a store is first created.
func sortedKeys(record map[string]string) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
