// Package datalog persists drained samples as an append-only CSV log with
// the header "timestamp,source,measurement".
//
// Rows are written in drain order, which may interleave sources out of
// timestamp order under contention. That is deliberate: readers sort by the
// timestamp column and must never assume row position implies time order.
package datalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Row is one persisted measurement.
type Row struct {
	Time   time.Time
	Source string
	Value  float64
}

// Writer appends rows to a CSV log. It is not safe for concurrent use; the
// ingestion coordinator is the only writer.
type Writer struct {
	f    *os.File
	csv  *csv.Writer
	rows uint64
}

// NewWriter creates (or truncates) the log file and writes the header.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("datalog: create %s: %w", path, err)
	}
	w := &Writer{f: f, csv: csv.NewWriter(f)}
	if err := w.csv.Write([]string{"timestamp", "source", "measurement"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("datalog: write header: %w", err)
	}
	return w, nil
}

// Append writes one row and flushes it, so a crash never leaves a partial
// final row buffered in memory.
func (w *Writer) Append(r Row) error {
	rec := []string{
		r.Time.Format(time.RFC3339Nano),
		r.Source,
		fmt.Sprintf("%.4f", r.Value),
	}
	if err := w.csv.Write(rec); err != nil {
		return fmt.Errorf("datalog: append: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("datalog: flush: %w", err)
	}
	w.rows++
	return nil
}

// Rows reports how many rows have been appended.
func (w *Writer) Rows() uint64 { return w.rows }

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.f.Close()
		return fmt.Errorf("datalog: close: %w", err)
	}
	return w.f.Close()
}

// ReadFile loads a previously written log. Timestamps are accepted either as
// RFC3339(Nano) or as numeric epoch seconds.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datalog: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	recs, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("datalog: read %s: %w", path, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("datalog: %s is empty", path)
	}

	rows := make([]Row, 0, len(recs)-1)
	for i, rec := range recs[1:] { // skip header
		if len(rec) != 3 {
			return nil, fmt.Errorf("datalog: %s row %d: expected 3 fields, got %d", path, i+2, len(rec))
		}
		ts, err := parseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("datalog: %s row %d: %w", path, i+2, err)
		}
		v, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("datalog: %s row %d: bad measurement %q", path, i+2, rec[2])
		}
		rows = append(rows, Row{Time: ts, Source: rec[1], Value: v})
	}
	return rows, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Unix(0, int64(sec*1e9)), nil
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}
