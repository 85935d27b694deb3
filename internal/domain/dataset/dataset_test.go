package dataset_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	dataset "github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
	"github.com/smartystreets/goconvey/convey"
)

func testSchema() dataset.Schema {
	return dataset.Schema{
		TimeColumn:  "time",
		EventColumn: "delta",
		Categorical: []string{"sex"},
		Continuous:  []string{"age"},
	}
}

func TestFromRows(t *testing.T) {
	convey.Convey("Given a header and data rows", t, func() {
		header := []string{"sex", "age", "time", "delta"}
		rows := [][]string{
			{"F", "61.5", "20", "1"},
			{"M", "55", "130", "0"},
			{"F", "", "40", "2"},   // missing age -> dropped
			{"M", "70", "", "1"},   // missing time -> dropped
			{"F", "48", "15", "x"}, // unparsable delta -> dropped
		}

		convey.Convey("When parsing with a cap of 114", func() {
			table, err := dataset.FromRows(testSchema(), header, rows, 114)

			convey.Convey("Then incomplete rows are dropped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(table.Len(), convey.ShouldEqual, 2)
				convey.So(table.Dropped(), convey.ShouldEqual, 3)
			})

			convey.Convey("And times are capped at the ceiling", func() {
				convey.So(table.Row(1).Time, convey.ShouldEqual, 114.0)
			})

			convey.Convey("And categorical and continuous cells line up with the schema", func() {
				o := table.Row(0)
				convey.So(o.Cat, convey.ShouldResemble, []string{"F"})
				convey.So(o.Cont, convey.ShouldResemble, []float64{61.5})
				convey.So(o.Delta, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a required column is absent", func() {
			_, err := dataset.FromRows(testSchema(), []string{"sex", "age", "time"}, rows, 114)
			convey.So(err, convey.ShouldWrap, dataset.ErrMissingColumn)
		})

		convey.Convey("When every row is dropped", func() {
			bad := [][]string{{"F", "", "", ""}, {"M", "", "", ""}}
			_, err := dataset.FromRows(testSchema(), header, bad, 114)
			convey.So(err, convey.ShouldWrap, dataset.ErrNoRows)
		})
	})
}

func TestSubset(t *testing.T) {
	convey.Convey("Given a parsed table", t, func() {
		header := []string{"sex", "age", "time", "delta"}
		rows := [][]string{
			{"F", "60", "10", "1"},
			{"M", "50", "20", "0"},
			{"F", "40", "30", "2"},
		}
		table, err := dataset.FromRows(testSchema(), header, rows, 114)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When taking a subset", func() {
			sub, err := table.Subset([]int{2, 0})

			convey.Convey("Then rows are selected in index order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sub.Len(), convey.ShouldEqual, 2)
				convey.So(sub.Row(0).Time, convey.ShouldEqual, 30.0)
				convey.So(sub.Row(1).Time, convey.ShouldEqual, 10.0)
			})
		})

		convey.Convey("When an index is out of range", func() {
			_, err := table.Subset([]int{5})
			convey.So(err, convey.ShouldWrap, dataset.ErrIndexOutOfRange)
		})

		convey.Convey("And labels mirror the delta codes", func() {
			convey.So(table.Labels(), convey.ShouldResemble, []int{1, 0, 2})
		})
	})
}

func TestLoadCSV(t *testing.T) {
	convey.Convey("Given a CSV file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "data.csv")
		f, err := os.Create(path)
		convey.So(err, convey.ShouldBeNil)
		w := csv.NewWriter(f)
		convey.So(w.Write([]string{"sex", "age", "time", "delta"}), convey.ShouldBeNil)
		convey.So(w.Write([]string{"F", "62", "33", "1"}), convey.ShouldBeNil)
		convey.So(w.Write([]string{"M", "58", "140", "2"}), convey.ShouldBeNil)
		w.Flush()
		convey.So(f.Close(), convey.ShouldBeNil)

		convey.Convey("When loading it", func() {
			table, err := dataset.Load(context.Background(), path, "", testSchema(), 114)

			convey.Convey("Then rows parse and the cap applies", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(table.Len(), convey.ShouldEqual, 2)
				convey.So(table.Row(1).Time, convey.ShouldEqual, 114.0)
			})
		})

		convey.Convey("When the extension is unsupported", func() {
			_, err := dataset.Load(context.Background(), filepath.Join(dir, "data.parquet"), "", testSchema(), 114)
			convey.So(err, convey.ShouldWrap, dataset.ErrUnsupportedFormat)
		})
	})
}
