// Package codec turns downloaded resource bodies into tables and tables into Parquet artifacts.
package codec

import (
	"fmt"
	"strconv"

	"github.com/okian/gridlake/internal/domain/model"
)

// Default parsing configuration.
const (
	defaultDelimiter        = ';'
	defaultExtraHeaderLines = 1
	rowBatchSize            = 256
)

// Codec decodes CSV and Parquet resources.
type Codec struct {
	delimiter        rune
	decimalComma     bool
	extraHeaderLines int
}

// New creates a Codec with the dataset defaults: ';' delimiter, decimal comma, one extra header line.
func New(opts ...Option) *Codec {
	c := &Codec{
		delimiter:        defaultDelimiter,
		decimalComma:     true,
		extraHeaderLines: defaultExtraHeaderLines,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode parses body according to its declared format.
func (c *Codec) Decode(format model.Format, body []byte) (*model.Table, error) {
	switch format {
	case model.FormatCSV:
		return c.DecodeCSV(body)
	case model.FormatParquet:
		return c.DecodeParquet(body)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// uniqueColumns replaces blank names and suffixes duplicates so every column can be addressed.
func uniqueColumns(names []string) []string {
	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		if n == "" {
			n = "column_" + strconv.Itoa(i)
		}
		cand := n
		for k := 1; used[cand]; k++ {
			cand = n + "_" + strconv.Itoa(k)
		}
		used[cand] = true
		out[i] = cand
	}
	return out
}
