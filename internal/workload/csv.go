package workload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Table is a CSV workload held in memory.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a CSV workload with a header row. Rows may have a
// different field count than the header; missing fields read as "".
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("read workload: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read workload header: %w", err)
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read workload: %w", err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Column returns the index of the named column, or an error listing the
// available columns.
func (t *Table) Column(name string) (int, error) {
	if i := slices.Index(t.Header, name); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("column %q not found (have %v)", name, t.Header)
}

// Queries returns the values of the named column in row order.
func (t *Table) Queries(column string) ([]string, error) {
	idx, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, nil
}

// WriteTable writes t with the hint of each outcome in hintColumn. An
// existing column of that name is overwritten, otherwise one is appended
// after the widest row, padding the header with unnamed columns so that
// fields beyond the header are kept. Rows without an outcome (dropped by
// OnErrorSkip) are omitted.
func WriteTable(w io.Writer, t *Table, hintColumn string, outcomes []Outcome) error {
	header := slices.Clone(t.Header)
	hintIdx := slices.Index(header, hintColumn)
	if hintIdx < 0 {
		hintIdx = max(len(header), t.width())
		header = append(header, make([]string, hintIdx-len(header))...)
		header = append(header, hintColumn)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write workload header: %w", err)
	}

	for _, o := range outcomes {
		if o.Seq < 0 || o.Seq >= len(t.Rows) {
			return fmt.Errorf("write workload: outcome for row %d out of range", o.Seq)
		}
		row := t.Rows[o.Seq]
		rec := make([]string, max(len(header), len(row)))
		copy(rec, row)
		rec[hintIdx] = o.Hint
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write workload row %d: %w", o.Seq, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write workload: %w", err)
	}
	return nil
}

// width returns the field count of the widest row.
func (t *Table) width() int {
	n := 0
	for _, row := range t.Rows {
		n = max(n, len(row))
	}
	return n
}
