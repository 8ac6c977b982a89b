package model

import (
	"bytes"
	"encoding/json"
)

// Table is a rectangular set of rows sharing one column list.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// ColumnIndex returns the position of name or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Records converts the table into ordered records sharing the column slice.
func (t *Table) Records() []Row {
	out := make([]Row, len(t.Rows))
	for i, vals := range t.Rows {
		out[i] = Row{Columns: t.Columns, Values: vals}
	}
	return out
}

// Row is one record: ordered column names with their values.
type Row struct {
	Columns []string
	Values  []Value
}

// Get returns the value for column name.
func (r Row) Get(name string) (Value, bool) {
	for i, c := range r.Columns {
		if c == name && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return Null(), false
}

// MarshalJSON encodes the row as an object, preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v := Null()
		if i < len(r.Values) {
			v = r.Values[i]
		}
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
