package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/gridlake/internal/domain/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV parses a delimited text body. The first line names the columns; the configured
// number of following lines is skipped. Empty cells become null and numeric cells numbers.
func (c *Codec) DecodeCSV(body []byte) (*model.Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, utf8BOM)))
	r.Comma = c.delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDocument
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	t := &model.Table{Columns: uniqueColumns(names)}

	for skipped := 0; skipped < c.extraHeaderLines; skipped++ {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return t, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make([]model.Value, len(t.Columns))
		for i := range row {
			if i < len(rec) {
				row[i] = c.cell(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// cell coerces one raw field.
func (c *Codec) cell(raw string) model.Value {
	s := strings.TrimSpace(raw)
	if s == "" || isNonFinite(s) {
		return model.Null()
	}
	num := s
	if c.decimalComma {
		if strings.Contains(num, ".") {
			return model.StringValue(s)
		}
		num = strings.Replace(num, ",", ".", 1)
	}
	if !looksNumeric(num) {
		return model.StringValue(s)
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return model.StringValue(s)
	}
	return model.NumberValue(f)
}

var nonFinite = map[string]struct{}{
	"nan": {}, "inf": {}, "+inf": {}, "-inf": {},
	"infinity": {}, "+infinity": {}, "-infinity": {},
}

// isNonFinite reports NaN and infinity spellings, which land as null rather than text.
func isNonFinite(s string) bool {
	_, ok := nonFinite[strings.ToLower(s)]
	return ok
}

// looksNumeric accepts plain decimal notation with an optional sign and exponent.
func looksNumeric(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-':
			if i != 0 && s[i-1] != 'e' && s[i-1] != 'E' {
				return false
			}
		case r == '.' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return digits > 0
}
