package reftables

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// tableFile reads a flat Parquet reference table row by row, resolving
// columns by name at runtime. CMS releases rename version-stamped columns
// (v07_hcc, v08_hcc, ...) between model years, so lookups are by exact name,
// suffix, or substring rather than a fixed struct schema.
type tableFile struct {
	file *os.File
	pf   *parquet.File
	cols map[string]int // lower-cased leaf column name → column index
}

func openTable(path string) (*tableFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat table: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	cols := make(map[string]int)
	for i, field := range pf.Schema().Fields() {
		cols[strings.ToLower(field.Name())] = i
	}

	return &tableFile{file: f, pf: pf, cols: cols}, nil
}

func (t *tableFile) Close() error {
	return t.file.Close()
}

// column returns the index of the column with the exact (case-insensitive)
// name, or -1.
func (t *tableFile) column(name string) int {
	if idx, ok := t.cols[strings.ToLower(name)]; ok {
		return idx
	}
	return -1
}

// columnWithSuffix returns the index of the first column whose name ends in
// the given suffix, or -1.
func (t *tableFile) columnWithSuffix(suffix string) int {
	suffix = strings.ToLower(suffix)
	best := -1
	for name, idx := range t.cols {
		if strings.HasSuffix(name, suffix) && (best == -1 || idx < best) {
			best = idx
		}
	}
	return best
}

// columnContaining returns the index of the first column whose name contains
// the given substring, or -1.
func (t *tableFile) columnContaining(sub string) int {
	sub = strings.ToLower(sub)
	best := -1
	for name, idx := range t.cols {
		if strings.Contains(name, sub) && (best == -1 || idx < best) {
			best = idx
		}
	}
	return best
}

// forEachRow streams every row of the table through fn.
func (t *tableFile) forEachRow(fn func(row rowView) error) error {
	buf := make([]parquet.Row, 256)
	for _, rg := range t.pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				if fnErr := fn(rowView(buf[i])); fnErr != nil {
					rows.Close()
					return fnErr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return fmt.Errorf("read table rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("close row reader: %w", err)
		}
	}
	return nil
}

// rowView exposes one Parquet row's values by column index.
type rowView parquet.Row

// str returns the trimmed string value of the column, or "" when the column
// index is -1 or the value is null.
func (r rowView) str(col int) string {
	if col < 0 {
		return ""
	}
	for _, v := range r {
		if v.Column() == col {
			if v.IsNull() {
				return ""
			}
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

// float returns the numeric value of the column, parsing string-typed cells,
// or 0 when absent or unparseable.
func (r rowView) float(col int) float64 {
	if col < 0 {
		return 0
	}
	for _, v := range r {
		if v.Column() != col {
			continue
		}
		if v.IsNull() {
			return 0
		}
		switch v.Kind() {
		case parquet.Double, parquet.Float:
			return v.Double()
		case parquet.Int32, parquet.Int64:
			return float64(v.Int64())
		default:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
			if err != nil {
				return 0
			}
			return f
		}
	}
	return 0
}
