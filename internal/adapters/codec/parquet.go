package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"

	"github.com/okian/gridlake/internal/domain/model"
)

const secondsPerDay = 86400

// DecodeParquet reads every row group of a Parquet body into a table. Nested columns are
// flattened to dotted names. DATE columns render as YYYY-MM-DD and timestamps as RFC3339.
func (c *Codec) DecodeParquet(body []byte) (*model.Table, error) {
	f, err := parquet.OpenFile(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedParquet, err)
	}

	schema := f.Schema()
	paths := schema.Columns()
	names := make([]string, len(paths))
	logical := make([]*format.LogicalType, len(paths))
	for i, p := range paths {
		names[i] = strings.Join(p, ".")
		if leaf, ok := schema.Lookup(p...); ok {
			logical[i] = leaf.Node.Type().LogicalType()
		}
	}
	t := &model.Table{Columns: uniqueColumns(names)}

	buf := make([]parquet.Row, rowBatchSize)
	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				vals := make([]model.Value, len(paths))
				for _, v := range row {
					col := v.Column()
					if col < 0 || col >= len(vals) {
						continue
					}
					vals[col] = convertValue(v, logical[col])
				}
				t.Rows = append(t.Rows, vals)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("%w: %v", ErrMalformedParquet, err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedParquet, err)
		}
	}
	return t, nil
}

func convertValue(v parquet.Value, lt *format.LogicalType) model.Value {
	if v.IsNull() {
		return model.Null()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return model.StringValue(strconv.FormatBool(v.Boolean()))
	case parquet.Int32:
		if lt != nil && lt.Date != nil {
			return model.StringValue(time.Unix(int64(v.Int32())*secondsPerDay, 0).UTC().Format(model.DateLayout))
		}
		return model.NumberValue(float64(v.Int32()))
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return model.StringValue(timestamp(v.Int64(), lt.Timestamp.Unit).Format(time.RFC3339))
		}
		return model.NumberValue(float64(v.Int64()))
	case parquet.Float:
		return model.NumberValue(float64(v.Float()))
	case parquet.Double:
		return model.NumberValue(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return model.StringValue(string(v.ByteArray()))
	default:
		return model.StringValue(v.String())
	}
}

func timestamp(n int64, unit format.TimeUnit) time.Time {
	switch {
	case unit.Millis != nil:
		return time.UnixMilli(n).UTC()
	case unit.Nanos != nil:
		return time.Unix(0, n).UTC()
	default:
		return time.UnixMicro(n).UTC()
	}
}

// EncodeParquet writes t as a Parquet file in which every column is an optional UTF8 string.
// Numbers are rendered in their shortest form; nulls stay null.
func (c *Codec) EncodeParquet(w io.Writer, t *model.Table) error {
	cols := uniqueColumns(t.Columns)
	group := make(parquet.Group, len(cols))
	for _, name := range cols {
		group[name] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("record", group)

	// schema columns are sorted by name; map each back to its table position.
	leaves := schema.Columns()
	pos := make([]int, len(leaves))
	for i, p := range leaves {
		pos[i] = indexOf(cols, p[0])
	}

	pw := parquet.NewWriter(w, schema)
	batch := make([]parquet.Row, 0, rowBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pw.WriteRows(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}
	for _, vals := range t.Rows {
		row := make(parquet.Row, len(leaves))
		for i, p := range pos {
			var v model.Value
			if p >= 0 && p < len(vals) {
				v = vals[p]
			}
			if v.IsNull() {
				row[i] = parquet.NullValue().Level(0, 0, i)
				continue
			}
			row[i] = parquet.ValueOf(v.Text()).Level(0, 1, i)
		}
		batch = append(batch, row)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	return pw.Close()
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
