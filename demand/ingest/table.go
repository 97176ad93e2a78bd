// Package ingest loads the four raw input tables and normalizes them into a
// schema.Dataset. All column renaming and class-code cleanup happens here,
// once; downstream stages join on canonical names and exact string equality.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Table is a raw columnar record set as read from disk, before any schema
// validation or typing.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string

	cols map[string]int
}

// ReadTable reads a headered CSV file into a Table.
func ReadTable(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s table: %w", name, err)
	}
	defer f.Close()
	return readTable(f, name)
}

func readTable(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s table: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s table: empty file, header row required", name)
	}

	t := &Table{Name: name, Header: records[0], Rows: records[1:]}
	t.reindex()
	return t, nil
}

func (t *Table) reindex() {
	t.cols = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		t.cols[h] = i
	}
}

// Rename applies the canonical column-name mapping to the header.
func (t *Table) Rename(renames map[string]string) {
	for i, h := range t.Header {
		if canonical, ok := renames[h]; ok {
			t.Header[i] = canonical
		}
	}
	t.reindex()
}

// Require fails unless every named column is present. Called after Rename, so
// a source table that never resolved to the canonical schema aborts the run
// here instead of producing a partial feature matrix.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.cols[c]; !ok {
			return fmt.Errorf("%s table: required column %q missing (have %v)", t.Name, c, t.Header)
		}
	}
	return nil
}

// Col returns the index of a column. Only valid after Require succeeded for
// that column.
func (t *Table) Col(name string) int {
	return t.cols[name]
}
