package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Load reads the table at path, validates it against the schema, drops
// rows with any missing required value, and caps observed times at cap.
// Spreadsheets (.xlsx) and CSV exports are supported; sheet is ignored
// for CSV input.
func Load(ctx context.Context, path, sheet string, schema Schema, cap float64) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readSheet(path, sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRows, path)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return FromRows(schema, rows[0], rows[1:], cap)
}

func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return rows, nil
}

// FromRows parses a header plus data rows into a Table. Any row with a
// missing or unparsable required cell is dropped; if everything is
// dropped the load fails.
func FromRows(schema Schema, header []string, rows [][]string, cap float64) (*Table, error) {
	cols, err := resolveColumns(schema, header)
	if err != nil {
		return nil, err
	}

	t := &Table{schema: schema}
	for _, row := range rows {
		obs, ok := parseRow(cols, row, cap)
		if !ok {
			t.dropped++
			continue
		}
		t.obs = append(t.obs, obs)
	}
	if len(t.obs) == 0 {
		return nil, fmt.Errorf("%w: all %d rows dropped by the missing-value filter", ErrNoRows, t.dropped)
	}
	return t, nil
}

// columnIndex maps each required column to its position in the header.
type columnIndex struct {
	time  int
	event int
	cat   []int
	cont  []int
}

func resolveColumns(schema Schema, header []string) (columnIndex, error) {
	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.TrimSpace(name)] = i
	}
	lookup := func(name string) (int, error) {
		i, ok := byName[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}

	var (
		cols columnIndex
		err  error
	)
	if cols.time, err = lookup(schema.TimeColumn); err != nil {
		return cols, err
	}
	if cols.event, err = lookup(schema.EventColumn); err != nil {
		return cols, err
	}
	for _, name := range schema.Categorical {
		i, err := lookup(name)
		if err != nil {
			return cols, err
		}
		cols.cat = append(cols.cat, i)
	}
	for _, name := range schema.Continuous {
		i, err := lookup(name)
		if err != nil {
			return cols, err
		}
		cols.cont = append(cols.cont, i)
	}
	return cols, nil
}

func parseRow(cols columnIndex, row []string, cap float64) (Observation, bool) {
	cell := func(i int) (string, bool) {
		if i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != ""
	}

	var obs Observation

	raw, ok := cell(cols.time)
	if !ok {
		return obs, false
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || t < 0 {
		return obs, false
	}
	if t > cap {
		t = cap
	}
	obs.Time = t

	raw, ok = cell(cols.event)
	if !ok {
		return obs, false
	}
	delta, err := strconv.Atoi(raw)
	if err != nil || delta < 0 {
		return obs, false
	}
	obs.Delta = delta

	obs.Cat = make([]string, len(cols.cat))
	for j, i := range cols.cat {
		v, ok := cell(i)
		if !ok {
			return obs, false
		}
		obs.Cat[j] = v
	}
	obs.Cont = make([]float64, len(cols.cont))
	for j, i := range cols.cont {
		raw, ok := cell(i)
		if !ok {
			return obs, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return obs, false
		}
		obs.Cont[j] = v
	}
	return obs, true
}
