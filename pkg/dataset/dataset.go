package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

type ColumnType string

const (
	ColumnTypeInteger ColumnType = "integer"
	ColumnTypeFloat   ColumnType = "float"
	ColumnTypeString  ColumnType = "string"
)

type Column struct {
	Name string
	Type ColumnType
}

// Table is a small in-memory tabular dataset, the staging format between a
// local CSV and the platform's object storage.
type Table struct {
	Columns []Column
	Rows    [][]string
}

func Load(r io.Reader, hasHeader bool) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	var names []string
	if hasHeader {
		names = records[0]
		records = records[1:]
	} else {
		names = make([]string, len(records[0]))
		for i := range names {
			names[i] = "c" + strconv.Itoa(i)
		}
	}
	table := &Table{
		Columns: make([]Column, len(names)),
		Rows:    records,
	}
	for i, name := range names {
		table.Columns[i] = Column{Name: name, Type: inferColumnType(records, i)}
	}
	return table, nil
}

func LoadFile(path string, hasHeader bool) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, hasHeader)
}

func inferColumnType(rows [][]string, col int) ColumnType {
	typ := ColumnTypeInteger
	for _, row := range rows {
		if col >= len(row) {
			return ColumnTypeString
		}
		v := row[col]
		if typ == ColumnTypeInteger {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			typ = ColumnTypeFloat
		}
		if typ == ColumnTypeFloat {
			if _, err := strconv.ParseFloat(v, 64); err == nil {
				continue
			}
			return ColumnTypeString
		}
	}
	return typ
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// MoveColumnFirst reorders the table so the named column comes first, the
// layout gradient-boosting containers expect for the label.
func (t *Table) MoveColumnFirst(name string) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return fmt.Errorf("column %s not found", name)
	}
	if idx == 0 {
		return nil
	}
	move := func(row []string) {
		v := row[idx]
		copy(row[1:idx+1], row[:idx])
		row[0] = v
	}
	reordered := make([]Column, len(t.Columns))
	reordered[0] = t.Columns[idx]
	copy(reordered[1:], t.Columns[:idx])
	copy(reordered[idx+1:], t.Columns[idx+1:])
	t.Columns = reordered
	for _, row := range t.Rows {
		move(row)
	}
	return nil
}

func (t *Table) Write(w io.Writer, includeHeader bool) error {
	writer := csv.NewWriter(w)
	if includeHeader {
		names := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			names[i] = c.Name
		}
		if err := writer.Write(names); err != nil {
			return err
		}
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func (t *Table) WriteFile(path string, includeHeader bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.Write(f, includeHeader)
}
