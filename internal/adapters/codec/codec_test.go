package codec_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gridlake/internal/adapters/codec"
	"github.com/okian/gridlake/internal/domain/model"
)

const sampleCSV = "nom_reservatorio;ear_data;ear_reservatorio_percentual;val_volumeutilcon\n" +
	"texto;data;percentual;hm3\n" +
	"FURNAS;2023-01-02;45,7;\n" +
	"SOBRADINHO;2023-01-03;12;1.234\n" +
	"TRES MARIAS;2023-01-04\n"

func TestDecodeCSV(t *testing.T) {
	Convey("Given a semicolon delimited body with a units line", t, func() {
		c := codec.New()

		Convey("When decoding", func() {
			tbl, err := c.Decode(model.FormatCSV, []byte("\xEF\xBB\xBF"+sampleCSV))

			Convey("Then the header names the columns and the units line is skipped", func() {
				So(err, ShouldBeNil)
				So(tbl.Columns, ShouldResemble, []string{"nom_reservatorio", "ear_data", "ear_reservatorio_percentual", "val_volumeutilcon"})
				So(tbl.Len(), ShouldEqual, 3)
			})

			Convey("Then cells are coerced", func() {
				So(tbl.Rows[0][2].Num(), ShouldEqual, 45.7)
				So(tbl.Rows[0][3].IsNull(), ShouldBeTrue)
				So(tbl.Rows[1][2].Num(), ShouldEqual, 12.0)
				So(tbl.Rows[1][3].Str(), ShouldEqual, "1.234")
				So(tbl.Rows[0][1].Str(), ShouldEqual, "2023-01-02")
			})

			Convey("Then short rows are padded with nulls", func() {
				So(len(tbl.Rows[2]), ShouldEqual, 4)
				So(tbl.Rows[2][2].IsNull(), ShouldBeTrue)
			})
		})

		Convey("When no extra header line is configured", func() {
			tbl, err := codec.New(codec.WithExtraHeaderLines(0)).DecodeCSV([]byte(sampleCSV))

			So(err, ShouldBeNil)
			So(tbl.Len(), ShouldEqual, 4)
		})

		Convey("When decimal comma is disabled", func() {
			tbl, err := codec.New(codec.WithDecimalComma(false), codec.WithDelimiter(','), codec.WithExtraHeaderLines(0)).
				DecodeCSV([]byte("a,a,\n1.5,x,2\n"))

			So(err, ShouldBeNil)
			So(tbl.Columns, ShouldResemble, []string{"a", "a_1", "column_2"})
			So(tbl.Rows[0][0].Num(), ShouldEqual, 1.5)
			So(tbl.Rows[0][1].Str(), ShouldEqual, "x")
		})

		Convey("When cells spell NaN or infinity", func() {
			tbl, err := c.DecodeCSV([]byte("ear_data;val\nunits;x\n" +
				"2023-01-02;NaN\n2023-01-03;inf\n2023-01-04;-Infinity\n2023-01-05;nan\n2023-01-06;+INF\n2023-01-07;infinity\n2023-01-08;Infinite\n"))

			Convey("Then they land as null instead of text", func() {
				So(err, ShouldBeNil)
				So(tbl.Len(), ShouldEqual, 7)
				for _, row := range tbl.Rows[:6] {
					So(row[1].IsNull(), ShouldBeTrue)
				}
				So(tbl.Rows[6][1].Str(), ShouldEqual, "Infinite")
			})
		})

		Convey("When the body is empty", func() {
			_, err := c.DecodeCSV(nil)
			So(err, ShouldEqual, codec.ErrEmptyDocument)
		})

		Convey("When the format is unknown", func() {
			_, err := c.Decode(model.Format("XLSX"), []byte("x"))
			So(errors.Is(err, codec.ErrUnsupportedFormat), ShouldBeTrue)
		})
	})
}

type earRecord struct {
	Name    string    `parquet:"nom_reservatorio"`
	Date    int32     `parquet:"ear_data,date"`
	Percent *float64  `parquet:"ear_reservatorio_percentual,optional"`
	Seen    time.Time `parquet:"seen_at,timestamp(millisecond)"`
	Active  bool      `parquet:"active"`
}

func TestDecodeParquet(t *testing.T) {
	Convey("Given a typed Parquet body", t, func() {
		pct := 45.5
		days := int32(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC).Unix() / 86400)
		seen := time.Date(2023, 1, 2, 10, 30, 0, 0, time.UTC)
		var buf bytes.Buffer
		err := parquet.Write(&buf, []earRecord{
			{Name: "FURNAS", Date: days, Percent: &pct, Seen: seen, Active: true},
			{Name: "SOBRADINHO", Date: days + 1, Seen: seen},
		})
		So(err, ShouldBeNil)

		Convey("When decoding", func() {
			tbl, err := codec.New().Decode(model.FormatParquet, buf.Bytes())

			Convey("Then logical types are rendered", func() {
				So(err, ShouldBeNil)
				So(tbl.Len(), ShouldEqual, 2)
				r0 := tbl.Records()[0]
				date, _ := r0.Get("ear_data")
				So(date.Str(), ShouldEqual, "2023-01-02")
				name, _ := r0.Get("nom_reservatorio")
				So(name.Str(), ShouldEqual, "FURNAS")
				p, _ := r0.Get("ear_reservatorio_percentual")
				So(p.Num(), ShouldEqual, 45.5)
				ts, _ := r0.Get("seen_at")
				So(ts.Str(), ShouldEqual, "2023-01-02T10:30:00Z")
				active, _ := r0.Get("active")
				So(active.Str(), ShouldEqual, "true")
			})

			Convey("Then optional gaps decode as null", func() {
				p, _ := tbl.Records()[1].Get("ear_reservatorio_percentual")
				So(p.IsNull(), ShouldBeTrue)
			})
		})

		Convey("When the body is not Parquet", func() {
			_, err := codec.New().DecodeParquet([]byte("definitely not parquet"))
			So(errors.Is(err, codec.ErrMalformedParquet), ShouldBeTrue)
		})
	})
}

func TestEncodeParquet(t *testing.T) {
	Convey("Given a normalized table", t, func() {
		tbl := &model.Table{
			Columns: []string{"ear_data", "nom", "pct"},
			Rows: [][]model.Value{
				{model.StringValue("2023-01-02"), model.StringValue("FURNAS"), model.NumberValue(45.5)},
				{model.StringValue("2023-01-03"), model.Null(), model.NumberValue(3)},
			},
		}
		c := codec.New()

		Convey("When encoding and reading it back", func() {
			var buf bytes.Buffer
			So(c.EncodeParquet(&buf, tbl), ShouldBeNil)
			back, err := c.DecodeParquet(buf.Bytes())

			Convey("Then every column is text and nulls survive", func() {
				So(err, ShouldBeNil)
				So(back.Len(), ShouldEqual, 2)
				rec := back.Records()
				pct, _ := rec[0].Get("pct")
				So(pct.Str(), ShouldEqual, "45.5")
				nom, _ := rec[1].Get("nom")
				So(nom.IsNull(), ShouldBeTrue)
				d, _ := rec[1].Get("ear_data")
				So(d.Str(), ShouldEqual, "2023-01-03")
			})
		})
	})
}
