// Package labels reads severity labels from tabular files and aligns them with a cohort of
// keypoint sequences.
package labels

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Row is a single (identifier, label) pair from a label table
type Row struct {
	ID    string
	Label string
}

// Table is the ordered list of rows from a label file. Order matters: when several rows match
// the same patient, the earliest wins.
type Table []Row

// TableOptions controls how LoadTable reads a file. The zero value reads the identifier from
// the first column and the label from the second, skipping a header row.
type TableOptions struct {
	IDColumn    int
	LabelColumn int

	// NoHeader is set if the first row is data rather than column names
	NoHeader bool

	// Sheet selects the worksheet of a spreadsheet. "" means the first sheet.
	Sheet string
}

// LoadTable reads the label table at path. The format is chosen from the file extension:
// ".csv" or ".xlsx". Rows without both columns are skipped.
func LoadTable(path string, opts TableOptions) (Table, error) {
	if opts.IDColumn < 0 || opts.LabelColumn < 0 {
		return nil, errors.Errorf("Column indexes must be non-negative (id %d, label %d)", opts.IDColumn, opts.LabelColumn)
	}

	var records [][]string
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx", ".xlsm":
		records, err = readSheet(path, opts.Sheet)
	default:
		return nil, errors.Errorf("Unsupported label file extension %q (should be .csv or .xlsx)", ext)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read label table %q\n", path)
	}

	if !opts.NoHeader && len(records) != 0 {
		records = records[1:]
	}

	return fromRecords(records, opts), nil
}

// ReadCSV reads a label table in CSV form from r. It is LoadTable without the file handling.
func ReadCSV(r io.Reader, opts TableOptions) (Table, error) {
	records, err := parseCSV(r)
	if err != nil {
		return nil, err
	}

	if !opts.NoHeader && len(records) != 0 {
		records = records[1:]
	}

	return fromRecords(records, opts), nil
}

func fromRecords(records [][]string, opts TableOptions) Table {
	t := make(Table, 0, len(records))
	for _, rec := range records {
		if opts.IDColumn >= len(rec) || opts.LabelColumn >= len(rec) {
			continue
		}

		id := strings.TrimSpace(rec[opts.IDColumn])
		label := strings.TrimSpace(rec[opts.LabelColumn])
		if id == "" && label == "" {
			continue
		}

		t = append(t, Row{ID: id, Label: label})
	}

	return t
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "Malformed CSV\n")
	}

	return records, nil
}

func readSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.Errorf("Workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read sheet %q\n", sheet)
	}

	return rows, nil
}
