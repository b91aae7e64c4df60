// Package ingest reads company headcount and pricing contract tables from
// CSV, XLSX and YAML files.
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Options configures how a tabular file is read.
type Options struct {
	HasHeader bool   // skip the first row
	Delimiter rune   // CSV only; default ','
	SheetName string // XLSX only; default is the first sheet
}

// ReadRows reads every data row of a .csv or .xlsx file as trimmed strings.
func ReadRows(path string, opts Options) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		rows, err = readCSVFile(path, opts)
	case ".xlsx":
		rows, err = readXLSX(path, opts)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if opts.HasHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, nil
}

func readCSVFile(path string, opts Options) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open csv")
	}
	defer f.Close()

	return readCSV(f, opts)
}

func readCSV(r io.Reader, opts Options) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv")
	}

	for _, rec := range records {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}
	return dropBlank(records), nil
}

func readXLSX(path string, opts Options) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open xlsx")
	}

	var sheet *xlsx.Sheet
	if opts.SheetName != "" {
		s, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", opts.SheetName)
		}
		sheet = s
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.New("ingest: xlsx has no sheets")
		}
		sheet = f.Sheets[0]
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return dropBlank(rows), nil
}

// dropBlank removes rows whose cells are all empty.
func dropBlank(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, c := range row {
			if c != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// col returns row[i], or "" if the row is too short.
func col(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}
