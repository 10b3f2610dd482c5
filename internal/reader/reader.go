// Package reader loads discharge summaries from tabular source files.
// Excel workbooks are read through excelize and CSV files through the
// standard csv reader; both present the same rows to the pipeline.
package reader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultTextColumn is the header of the column holding the note text.
	DefaultTextColumn = "Discharge Summary"

	// EnvInputFile names the environment variable consulted when no input
	// path is given on the command line.
	EnvInputFile = "NOTESCRUB_INPUT_FILE"
)

// Row is one input record keyed by the header row.
type Row struct {
	Title  string
	Text   string
	Fields map[string]string
}

// Reader holds the parsed rows of one source file.
type Reader struct {
	path    string
	columns []string
	rows    []Row
}

// DefaultPath returns the input file path from the environment, or "".
func DefaultPath() string {
	return os.Getenv(EnvInputFile)
}

// Open parses the file at path into rows. The first row is the header;
// textColumn, matched case-insensitively, selects the column carried as
// Row.Text. An empty textColumn means DefaultTextColumn; an empty path
// falls back to DefaultPath.
func Open(path, textColumn string) (*Reader, error) {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return nil, fmt.Errorf("no input file: pass a path or set %s", EnvInputFile)
	}
	if textColumn == "" {
		textColumn = DefaultTextColumn
	}

	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readExcel(path)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q (want .xlsx, .xlsm or .csv)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("input file %s is empty", path)
	}

	header := records[0]
	r := &Reader{
		path:    path,
		columns: header,
		rows:    make([]Row, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		r.rows = append(r.rows, buildRow(header, record, textColumn))
	}
	return r, nil
}

// Rows returns the data rows in file order.
func (r *Reader) Rows() []Row {
	return r.rows
}

// Columns returns the header cells in file order.
func (r *Reader) Columns() []string {
	return r.columns
}

// Path returns the path the rows were loaded from.
func (r *Reader) Path() string {
	return r.path
}

// buildRow maps one record onto the header. Rows shorter than the header
// are padded with empty cells.
func buildRow(header, record []string, textColumn string) Row {
	row := Row{Fields: make(map[string]string, len(header))}
	for i, name := range header {
		var cell string
		if i < len(record) {
			cell = norm.NFC.String(record[i])
		}
		switch {
		case strings.EqualFold(name, textColumn):
			row.Text = cell
		case strings.EqualFold(name, "Title"):
			row.Title = cell
		default:
			row.Fields[name] = cell
		}
	}
	return row
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}
